package tools

import (
	"context"
	"strconv"

	"google.golang.org/genai"
)

// Tool defines the interface for all tools.
type Tool interface {
	// Name returns the unique name of the tool.
	Name() string

	// Description returns a human-readable description.
	Description() string

	// Declaration returns the function declaration for this tool, used
	// to generate the tool-calling section of the system prompt.
	Declaration() *genai.FunctionDeclaration

	// Execute runs the tool with the given parameters.
	Execute(ctx context.Context, params map[string]any) (Result, error)

	// Validate validates the parameters before execution.
	Validate(params map[string]any) error
}

// Result represents the outcome of a tool execution.
type Result struct {
	// Content is the result text.
	Content string

	// Error contains an error message if the tool failed.
	Error string

	// Success indicates if the tool executed successfully.
	Success bool
}

// NewSuccessResult creates a successful tool result.
func NewSuccessResult(content string) Result {
	return Result{Content: content, Success: true}
}

// NewErrorResult creates a failed tool result.
func NewErrorResult(errMsg string) Result {
	return Result{Error: errMsg, Success: false}
}

// ValidationError represents a tool parameter validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// NewValidationError creates a new validation error.
func NewValidationError(field, message string) ValidationError {
	return ValidationError{Field: field, Message: message}
}

// GetString extracts a string parameter.
func GetString(params map[string]any, key string) (string, bool) {
	val, ok := params[key]
	if !ok {
		return "", false
	}
	str, ok := val.(string)
	return str, ok
}

// GetStringDefault extracts a string parameter with a default value.
func GetStringDefault(params map[string]any, key, defaultVal string) string {
	if val, ok := GetString(params, key); ok {
		return val
	}
	return defaultVal
}

// GetInt extracts an integer parameter. JSON decoding yields float64 for
// numbers, and some models quote them, so several shapes are accepted.
func GetInt(params map[string]any, key string) (int, bool) {
	val, ok := params[key]
	if !ok {
		return 0, false
	}
	switch v := val.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n, true
		}
	}
	return 0, false
}

// GetIntDefault extracts an integer parameter with a default value.
func GetIntDefault(params map[string]any, key string, defaultVal int) int {
	if val, ok := GetInt(params, key); ok {
		return val
	}
	return defaultVal
}
