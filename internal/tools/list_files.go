package tools

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"google.golang.org/genai"
)

const (
	// maxListEntries caps listing output to keep tool results small.
	maxListEntries = 50
)

// skippedDirs are path components excluded from listings.
var skippedDirs = []string{".git", "node_modules", "__pycache__"}

// ListFilesTool lists files under a directory recursively.
type ListFilesTool struct {
	baseDir string
}

// NewListFilesTool creates a list_files tool rooted at baseDir.
func NewListFilesTool(baseDir string) *ListFilesTool {
	return &ListFilesTool{baseDir: baseDir}
}

func (t *ListFilesTool) Name() string {
	return "list_files"
}

func (t *ListFilesTool) Description() string {
	return "Lists files in a directory."
}

func (t *ListFilesTool) Declaration() *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"path": {
					Type:        genai.TypeString,
					Description: "The directory to list. Defaults to the working directory.",
				},
			},
			Required: []string{},
		},
	}
}

func (t *ListFilesTool) Validate(params map[string]any) error {
	// path is optional and defaults to the working directory.
	return nil
}

func (t *ListFilesTool) Execute(ctx context.Context, params map[string]any) (Result, error) {
	path := GetStringDefault(params, "path", ".")
	absPath := resolvePath(t.baseDir, path)

	info, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return NewErrorResult(fmt.Sprintf("directory not found: %s", path)), nil
		}
		return NewErrorResult(fmt.Sprintf("error reading directory: %s", err)), nil
	}
	if !info.IsDir() {
		return NewErrorResult(fmt.Sprintf("not a directory: %s", path)), nil
	}

	matches, err := doublestar.Glob(os.DirFS(absPath), "**")
	if err != nil {
		return NewErrorResult(fmt.Sprintf("error listing %s: %s", path, err)), nil
	}

	files := make([]string, 0, len(matches))
	for _, m := range matches {
		if m == "." || isSkipped(m) {
			continue
		}
		files = append(files, m)
	}

	if len(files) == 0 {
		return NewSuccessResult("(empty)"), nil
	}

	truncated := len(files) > maxListEntries
	if truncated {
		files = files[:maxListEntries]
	}

	out := strings.Join(files, "\n")
	if truncated {
		out += "\n... (truncated)"
	}
	return NewSuccessResult(out), nil
}

// isSkipped reports whether any path component is in the skip list.
func isSkipped(path string) bool {
	for _, part := range strings.Split(path, "/") {
		for _, skip := range skippedDirs {
			if part == skip {
				return true
			}
		}
	}
	return false
}
