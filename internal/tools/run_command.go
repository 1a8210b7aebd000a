package tools

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"google.golang.org/genai"
)

// safeEnvVars is the whitelist of environment variables passed to shell
// commands, to avoid leaking API keys and other secrets.
var safeEnvVars = []string{
	"PATH",
	"HOME",
	"USER",
	"SHELL",
	"TERM",
	"LANG",
	"LC_ALL",
	"TMPDIR",
	"EDITOR",
	"PAGER",
	"XDG_CONFIG_HOME",
	"XDG_DATA_HOME",
	"XDG_CACHE_HOME",
	"GOPATH",
	"GOROOT",
	"GOPROXY",
	"NODE_PATH",
	"PYTHONPATH",
	"VIRTUAL_ENV",
}

// buildSafeEnv creates a sanitized environment for command execution.
func buildSafeEnv() []string {
	env := make([]string, 0, len(safeEnvVars))
	hasPath := false
	for _, key := range safeEnvVars {
		if val := os.Getenv(key); val != "" {
			env = append(env, key+"="+val)
			if key == "PATH" {
				hasPath = true
			}
		}
	}
	if !hasPath {
		env = append(env, "PATH=/usr/local/bin:/usr/bin:/bin")
	}
	return env
}

// RunCommandTool executes a shell command in the working directory.
type RunCommandTool struct {
	workDir string
	timeout time.Duration
}

// NewRunCommandTool creates a run_command tool. A non-positive timeout
// defaults to 60 seconds.
func NewRunCommandTool(workDir string, timeout time.Duration) *RunCommandTool {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &RunCommandTool{workDir: workDir, timeout: timeout}
}

func (t *RunCommandTool) Name() string {
	return "run_command"
}

func (t *RunCommandTool) Description() string {
	return "Executes a shell command."
}

func (t *RunCommandTool) Declaration() *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"command": {
					Type:        genai.TypeString,
					Description: "The shell command to execute.",
				},
			},
			Required: []string{"command"},
		},
	}
}

func (t *RunCommandTool) Validate(params map[string]any) error {
	cmd, ok := GetString(params, "command")
	if !ok || strings.TrimSpace(cmd) == "" {
		return NewValidationError("command", "is required")
	}
	return nil
}

func (t *RunCommandTool) Execute(ctx context.Context, params map[string]any) (Result, error) {
	command, _ := GetString(params, "command")

	execCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	cmd := exec.CommandContext(execCtx, "sh", "-c", command)
	cmd.Dir = t.workDir
	cmd.Env = buildSafeEnv()

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if execCtx.Err() == context.DeadlineExceeded {
		return NewErrorResult(fmt.Sprintf("command timed out after %s", t.timeout)), nil
	}

	// A non-zero exit is reported in the output, not as a tool failure;
	// the model reads the combined streams either way.
	report := fmt.Sprintf("STDOUT:\n%s\nSTDERR:\n%s", stdout.String(), stderr.String())
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			report += fmt.Sprintf("\nExit code: %d", exitErr.ExitCode())
		} else {
			return NewErrorResult(fmt.Sprintf("failed to run command: %s", err)), nil
		}
	}

	return NewSuccessResult(report), nil
}
