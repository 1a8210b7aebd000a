package client

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/ollama/ollama/api"
)

func newWrapClient(t *testing.T) *OllamaClient {
	t.Helper()
	c, err := NewOllamaClient(OllamaConfig{Model: "testmodel"})
	if err != nil {
		t.Fatalf("NewOllamaClient: %v", err)
	}
	return c
}

func TestWrapErrorNil(t *testing.T) {
	c := newWrapClient(t)
	if got := c.wrapError(nil); got != nil {
		t.Errorf("wrapError(nil) = %v, want nil", got)
	}
}

func TestWrapErrorConnectionRefused(t *testing.T) {
	c := newWrapClient(t)
	err := c.wrapError(errors.New("dial tcp 127.0.0.1:11434: connection refused"))
	if !strings.Contains(err.Error(), "ollama serve") {
		t.Errorf("error = %q, want ollama serve hint", err)
	}
}

func TestWrapErrorTimeout(t *testing.T) {
	c := newWrapClient(t)
	err := c.wrapError(errors.New("context deadline exceeded"))
	if !strings.Contains(err.Error(), "timed out") {
		t.Errorf("error = %q, want timeout hint", err)
	}
}

func TestWrapErrorMissingModel(t *testing.T) {
	c := newWrapClient(t)

	statusErr := api.StatusError{StatusCode: 404, ErrorMessage: "not found"}
	err := c.wrapError(statusErr)
	if !strings.Contains(err.Error(), "ollama pull testmodel") {
		t.Errorf("error = %q, want pull hint for 404", err)
	}
	var unwrapped api.StatusError
	if !errors.As(err, &unwrapped) {
		t.Error("wrapped error lost the status error")
	}

	err = c.wrapError(errors.New(`model "testmodel" not found`))
	if !strings.Contains(err.Error(), "ollama pull testmodel") {
		t.Errorf("error = %q, want pull hint for message match", err)
	}
}

func TestWrapErrorPassthrough(t *testing.T) {
	c := newWrapClient(t)
	base := fmt.Errorf("something else broke")
	if got := c.wrapError(base); got != base {
		t.Errorf("wrapError(%v) = %v, want unchanged", base, got)
	}
}
