package client

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ollama/ollama/api"
)

// wrapError attaches remediation hints to common Ollama failures.
func (c *OllamaClient) wrapError(err error) error {
	if err == nil {
		return nil
	}

	errStr := err.Error()

	if strings.Contains(errStr, "connection refused") {
		return fmt.Errorf("Ollama server is not running (start it with: ollama serve): %w", err)
	}

	if strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline exceeded") {
		return fmt.Errorf("Ollama request timed out (the first request after a model loads is slow; try again or use a smaller model): %w", err)
	}

	var statusErr api.StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode == 404 {
		return fmt.Errorf("model %q is not installed (pull it with: ollama pull %s): %w", c.config.Model, c.config.Model, err)
	}
	if strings.Contains(errStr, "model") && strings.Contains(errStr, "not found") {
		return fmt.Errorf("model %q is not installed (pull it with: ollama pull %s): %w", c.config.Model, c.config.Model, err)
	}

	return err
}
