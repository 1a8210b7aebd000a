package config

import "time"

// Config represents the main application configuration.
type Config struct {
	Model      ModelConfig      `yaml:"model"`
	Agent      AgentConfig      `yaml:"agent"`
	Tools      ToolsConfig      `yaml:"tools"`
	Permission PermissionConfig `yaml:"permission"`
	Logging    LoggingConfig    `yaml:"logging"`

	// Runtime version information
	Version string `yaml:"-"`
}

// ModelConfig holds model-related settings.
type ModelConfig struct {
	// Ollama server URL (default: http://localhost:11434)
	BaseURL string `yaml:"base_url"`

	Name        string        `yaml:"name"`
	Temperature float32       `yaml:"temperature"`
	MaxTokens   int           `yaml:"max_tokens"`
	HTTPTimeout time.Duration `yaml:"http_timeout"`
}

// AgentConfig holds run-loop settings.
type AgentConfig struct {
	// AutoRunTools executes ask-level tools without approval.
	AutoRunTools bool `yaml:"auto_run_tools"`
	// AutoContinue keeps prompting the model until it reports DONE or
	// the step limit runs out.
	AutoContinue bool `yaml:"auto_continue"`
	// StepLimit bounds auto-continue iterations per run.
	StepLimit int `yaml:"step_limit"`
	// SharedThread mirrors every task's conversation into one sequence.
	SharedThread bool `yaml:"shared_thread"`
	// NoLook auto-approves everything except denied tools.
	NoLook bool `yaml:"no_look"`
	// FinalOnly hides intermediate replies in the console output.
	FinalOnly bool `yaml:"final_only"`
}

// ToolsConfig holds tool-related settings.
type ToolsConfig struct {
	// WorkDir is the base for relative tool paths; empty means the
	// current directory.
	WorkDir        string        `yaml:"work_dir"`
	CommandTimeout time.Duration `yaml:"command_timeout"`
}

// PermissionConfig holds the per-tool permission table.
type PermissionConfig struct {
	// DefaultPolicy applies to tools without an explicit entry:
	// allow, ask or deny.
	DefaultPolicy string            `yaml:"default_policy"`
	Tools         map[string]string `yaml:"tools"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`
	// File enables logging to a file under the config directory.
	File bool `yaml:"file"`
}

// DefaultConfig returns the configuration defaults.
func DefaultConfig() *Config {
	return &Config{
		Model: ModelConfig{
			BaseURL:     "http://localhost:11434",
			Name:        "qwen2.5-coder:7b",
			Temperature: 0.2,
			MaxTokens:   8192,
			HTTPTimeout: 120 * time.Second,
		},
		Agent: AgentConfig{
			StepLimit: 8,
		},
		Tools: ToolsConfig{
			CommandTimeout: 60 * time.Second,
		},
		Permission: PermissionConfig{
			DefaultPolicy: "ask",
			Tools: map[string]string{
				"read_file":   "allow",
				"list_files":  "allow",
				"web_search":  "allow",
				"write_file":  "ask",
				"run_command": "ask",
			},
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Normalize coerces out-of-range values back into the supported range.
func (c *Config) Normalize() {
	if c.Agent.StepLimit < 1 {
		c.Agent.StepLimit = 1
	}
	if c.Model.MaxTokens <= 0 {
		c.Model.MaxTokens = 8192
	}
	if c.Tools.CommandTimeout <= 0 {
		c.Tools.CommandTimeout = 60 * time.Second
	}
	if c.Permission.DefaultPolicy == "" {
		c.Permission.DefaultPolicy = "ask"
	}
}
