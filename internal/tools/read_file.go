package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"google.golang.org/genai"
)

// ReadFileTool reads the content of a file.
type ReadFileTool struct {
	baseDir string
}

// NewReadFileTool creates a read_file tool rooted at baseDir.
func NewReadFileTool(baseDir string) *ReadFileTool {
	return &ReadFileTool{baseDir: baseDir}
}

func (t *ReadFileTool) Name() string {
	return "read_file"
}

func (t *ReadFileTool) Description() string {
	return "Reads the content of a file."
}

func (t *ReadFileTool) Declaration() *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"file_path": {
					Type:        genai.TypeString,
					Description: "The path to the file to read (relative to the working directory or absolute).",
				},
			},
			Required: []string{"file_path"},
		},
	}
}

func (t *ReadFileTool) Validate(params map[string]any) error {
	path, ok := GetString(params, "file_path")
	if !ok || path == "" {
		return NewValidationError("file_path", "is required")
	}
	return nil
}

func (t *ReadFileTool) Execute(ctx context.Context, params map[string]any) (Result, error) {
	path, _ := GetString(params, "file_path")
	absPath := resolvePath(t.baseDir, path)

	data, err := os.ReadFile(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return NewErrorResult(fmt.Sprintf("File %s not found.", path)), nil
		}
		return NewErrorResult(fmt.Sprintf("error reading %s: %s", path, err)), nil
	}

	return NewSuccessResult(string(data)), nil
}

// resolvePath makes a path absolute relative to baseDir.
func resolvePath(baseDir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}
