package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Model.BaseURL != "http://localhost:11434" {
		t.Errorf("base URL = %q", cfg.Model.BaseURL)
	}
	if cfg.Agent.StepLimit != 8 {
		t.Errorf("step limit = %d, want 8", cfg.Agent.StepLimit)
	}
	if cfg.Permission.DefaultPolicy != "ask" {
		t.Errorf("default policy = %q, want ask", cfg.Permission.DefaultPolicy)
	}
	if cfg.Permission.Tools["run_command"] != "ask" {
		t.Errorf("run_command policy = %q, want ask", cfg.Permission.Tools["run_command"])
	}
	if cfg.Permission.Tools["read_file"] != "allow" {
		t.Errorf("read_file policy = %q, want allow", cfg.Permission.Tools["read_file"])
	}
}

func TestNormalizeCoercesStepLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Agent.StepLimit = 0
	cfg.Model.MaxTokens = -1
	cfg.Tools.CommandTimeout = 0
	cfg.Permission.DefaultPolicy = ""

	cfg.Normalize()

	if cfg.Agent.StepLimit != 1 {
		t.Errorf("step limit = %d, want 1", cfg.Agent.StepLimit)
	}
	if cfg.Model.MaxTokens != 8192 {
		t.Errorf("max tokens = %d, want 8192", cfg.Model.MaxTokens)
	}
	if cfg.Tools.CommandTimeout != 60*time.Second {
		t.Errorf("command timeout = %s, want 60s", cfg.Tools.CommandTimeout)
	}
	if cfg.Permission.DefaultPolicy != "ask" {
		t.Errorf("default policy = %q, want ask", cfg.Permission.DefaultPolicy)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
model:
  name: llama3.1:8b
  base_url: http://localhost:11434
agent:
  auto_continue: true
  step_limit: 3
permission:
  default_policy: deny
  tools:
    read_file: allow
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("setup: %v", err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Model.Name != "llama3.1:8b" {
		t.Errorf("model = %q", cfg.Model.Name)
	}
	if !cfg.Agent.AutoContinue || cfg.Agent.StepLimit != 3 {
		t.Errorf("agent = %+v", cfg.Agent)
	}
	if cfg.Permission.DefaultPolicy != "deny" {
		t.Errorf("default policy = %q", cfg.Permission.DefaultPolicy)
	}
	if cfg.Permission.Tools["read_file"] != "allow" {
		t.Errorf("read_file policy = %q", cfg.Permission.Tools["read_file"])
	}
	// Defaults survive for fields the file does not set.
	if cfg.Model.MaxTokens != 8192 {
		t.Errorf("max tokens = %d, want default 8192", cfg.Model.MaxTokens)
	}
}

func TestLoadFromExpandsEnv(t *testing.T) {
	t.Setenv("TEST_LOCODE_MODEL_NAME", "codellama:13b")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "model:\n  name: ${TEST_LOCODE_MODEL_NAME}\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("setup: %v", err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Model.Name != "codellama:13b" {
		t.Errorf("model = %q, want env expansion", cfg.Model.Name)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("LOCODE_MODEL", "mistral:7b")
	t.Setenv("LOCODE_STEP_LIMIT", "4")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("model:\n  name: other\n"), 0600); err != nil {
		t.Fatalf("setup: %v", err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Model.Name != "mistral:7b" {
		t.Errorf("model = %q, want env override", cfg.Model.Name)
	}
	if cfg.Agent.StepLimit != 4 {
		t.Errorf("step limit = %d, want 4", cfg.Agent.StepLimit)
	}
}

func TestSaveToRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Model.Name = "saved-model"
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if loaded.Model.Name != "saved-model" {
		t.Errorf("model = %q after round trip", loaded.Model.Name)
	}
}
