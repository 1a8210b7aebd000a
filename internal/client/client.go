package client

import "context"

// Message is one turn of a model conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client is the model collaborator: it turns an ordered message sequence
// into a single assistant reply. Implementations surface failures as
// errors; no retry policy is imposed on callers.
type Client interface {
	// Chat sends the full message sequence and returns the reply.
	Chat(ctx context.Context, messages []Message) (*Message, error)

	// Healthcheck verifies the model server is reachable.
	Healthcheck(ctx context.Context) error

	// Model returns the configured model name.
	Model() string
}
