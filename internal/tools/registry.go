package tools

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/genai"

	"locode/internal/logging"
)

// Registry holds the tools available to the agent in registration order.
type Registry struct {
	tools map[string]Tool
	order []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool. Re-registering a name replaces the tool but
// keeps its position.
func (r *Registry) Register(t Tool) {
	name := t.Name()
	if _, exists := r.tools[name]; !exists {
		r.order = append(r.order, name)
	}
	r.tools[name] = t
}

// Get returns a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Names returns the registered tool names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Declarations returns the function declarations of all registered tools.
func (r *Registry) Declarations() []*genai.FunctionDeclaration {
	decls := make([]*genai.FunctionDeclaration, 0, len(r.order))
	for _, name := range r.order {
		decls = append(decls, r.tools[name].Declaration())
	}
	return decls
}

// Execute runs a named tool and returns its result text. This is the
// tool collaborator contract: a text result or an error with a
// human-readable message.
func (r *Registry) Execute(ctx context.Context, name string, params map[string]any) (string, error) {
	t, ok := r.tools[name]
	if !ok {
		return "", fmt.Errorf("unknown tool %q", name)
	}

	if err := t.Validate(params); err != nil {
		return "", fmt.Errorf("%s: %w", name, err)
	}

	start := time.Now()
	result, err := t.Execute(ctx, params)
	logging.Debug("tool executed",
		"tool", name,
		"success", err == nil && result.Success,
		"duration", time.Since(start))

	if err != nil {
		return "", fmt.Errorf("%s: %w", name, err)
	}
	if !result.Success {
		return "", fmt.Errorf("%s: %s", name, result.Error)
	}
	return result.Content, nil
}
