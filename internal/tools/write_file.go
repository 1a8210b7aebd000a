package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sergi/go-diff/diffmatchpatch"
	"google.golang.org/genai"
)

// WriteFileTool writes content to a file, overwriting any existing
// content. Parent directories are created as needed.
type WriteFileTool struct {
	baseDir string
}

// NewWriteFileTool creates a write_file tool rooted at baseDir.
func NewWriteFileTool(baseDir string) *WriteFileTool {
	return &WriteFileTool{baseDir: baseDir}
}

func (t *WriteFileTool) Name() string {
	return "write_file"
}

func (t *WriteFileTool) Description() string {
	return "Writes content to a file (overwrites)."
}

func (t *WriteFileTool) Declaration() *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"file_path": {
					Type:        genai.TypeString,
					Description: "The path to the file to write.",
				},
				"content": {
					Type:        genai.TypeString,
					Description: "The full content to write to the file.",
				},
			},
			Required: []string{"file_path", "content"},
		},
	}
}

func (t *WriteFileTool) Validate(params map[string]any) error {
	path, ok := GetString(params, "file_path")
	if !ok || path == "" {
		return NewValidationError("file_path", "is required")
	}
	if _, ok := GetString(params, "content"); !ok {
		return NewValidationError("content", "is required")
	}
	return nil
}

func (t *WriteFileTool) Execute(ctx context.Context, params map[string]any) (Result, error) {
	path, _ := GetString(params, "file_path")
	content, _ := GetString(params, "content")
	absPath := resolvePath(t.baseDir, path)

	// Previous content drives the change summary on overwrite.
	previous, readErr := os.ReadFile(absPath)
	existed := readErr == nil

	if dir := filepath.Dir(absPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return NewErrorResult(fmt.Sprintf("error creating directory for %s: %s", path, err)), nil
		}
	}

	if err := os.WriteFile(absPath, []byte(content), 0644); err != nil {
		return NewErrorResult(fmt.Sprintf("error writing %s: %s", path, err)), nil
	}

	if existed {
		added, removed := diffLineStats(string(previous), content)
		return NewSuccessResult(fmt.Sprintf("Success: Wrote %d bytes to %s (+%d/-%d lines)", len(content), path, added, removed)), nil
	}
	return NewSuccessResult(fmt.Sprintf("Success: Wrote %d bytes to %s", len(content), path)), nil
}

// diffLineStats counts added and removed lines between two texts. The
// line-to-rune mapping keeps the diff linear in the number of lines.
func diffLineStats(before, after string) (added, removed int) {
	dmp := diffmatchpatch.New()
	chars1, chars2, _ := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffMain(chars1, chars2, false)

	for _, d := range diffs {
		n := len([]rune(d.Text))
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			added += n
		case diffmatchpatch.DiffDelete:
			removed += n
		}
	}
	return added, removed
}
