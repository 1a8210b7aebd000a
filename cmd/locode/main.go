package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"locode/internal/agent"
	"locode/internal/client"
	"locode/internal/config"
	"locode/internal/console"
	"locode/internal/logging"
	"locode/internal/permission"
	"locode/internal/task"
	"locode/internal/tools"
)

var (
	version      = "0.1.0"
	cfgFile      string
	model        string
	workDir      string
	autoRun      bool
	autoContinue bool
	noLook       bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "locode",
		Short: "Local LLM coding agent",
		Long: `Locode is a coding agent that runs entirely against a local Ollama
server. It reads and writes files, runs commands and searches the web,
with per-tool permission gating and multi-task orchestration.`,
		RunE: runConsole,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/locode/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&model, "model", "", "model to use")
	rootCmd.PersistentFlags().StringVar(&workDir, "workdir", "", "working directory for tools (default is the current directory)")
	rootCmd.PersistentFlags().BoolVar(&autoRun, "auto-run", false, "execute ask-level tools without approval")
	rootCmd.PersistentFlags().BoolVar(&autoContinue, "continue", false, "keep prompting the model until it reports DONE")
	rootCmd.PersistentFlags().BoolVar(&noLook, "no-look", false, "auto-approve everything except denied tools")

	runCmd := &cobra.Command{
		Use:   "run [prompt]",
		Short: "Run a single prompt and print the final reply",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runOnce,
	}
	rootCmd.AddCommand(runCmd)

	rootCmd.AddCommand(&cobra.Command{
		Use:   "health",
		Short: "Check the Ollama server and list installed models",
		RunE:  runHealth,
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("locode version %s\n", version)
		},
	})

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig loads the configuration and applies the CLI overrides.
func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error
	if cfgFile != "" {
		cfg, err = config.LoadFrom(cfgFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if model != "" {
		cfg.Model.Name = model
	}
	if workDir != "" {
		cfg.Tools.WorkDir = workDir
	}
	if autoRun {
		cfg.Agent.AutoRunTools = true
	}
	if autoContinue {
		cfg.Agent.AutoContinue = true
	}
	if noLook {
		cfg.Agent.NoLook = true
	}
	if cfg.Tools.WorkDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		cfg.Tools.WorkDir = cwd
	}
	cfg.Version = version
	return cfg, nil
}

// buildApp wires the client, tools, gate, runner and coordinator from
// the configuration.
func buildApp(cfg *config.Config) (*agent.Coordinator, *agent.Runner, *permission.Gate, error) {
	ollama, err := client.NewOllamaClient(client.OllamaConfig{
		BaseURL:     cfg.Model.BaseURL,
		Model:       cfg.Model.Name,
		Temperature: cfg.Model.Temperature,
		MaxTokens:   int32(cfg.Model.MaxTokens),
		HTTPTimeout: cfg.Model.HTTPTimeout,
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create Ollama client: %w", err)
	}

	registry := tools.NewRegistry()
	registry.Register(tools.NewReadFileTool(cfg.Tools.WorkDir))
	registry.Register(tools.NewWriteFileTool(cfg.Tools.WorkDir))
	registry.Register(tools.NewRunCommandTool(cfg.Tools.WorkDir, cfg.Tools.CommandTimeout))
	registry.Register(tools.NewListFilesTool(cfg.Tools.WorkDir))
	registry.Register(tools.NewWebSearchTool())

	policies := permission.NewPoliciesFromConfig(cfg.Permission.DefaultPolicy, cfg.Permission.Tools)
	gate := permission.NewGate(policies)
	if cfg.Agent.NoLook {
		gate.SetNoLook(context.Background(), true)
	}

	thread := agent.NewThread()
	thread.SetShared(cfg.Agent.SharedThread)

	runner := agent.NewRunner(ollama, registry, gate, thread)
	runner.SetAutoRun(cfg.Agent.AutoRunTools)
	runner.SetAutoContinue(cfg.Agent.AutoContinue)
	runner.SetStepLimit(cfg.Agent.StepLimit)

	coord := agent.NewCoordinator(runner, gate)
	return coord, runner, gate, nil
}

// setupLogging routes logs to a file so they never interleave with
// console output.
func setupLogging(cfg *config.Config) {
	if !cfg.Logging.File {
		return
	}
	configDir := config.GetConfigDir()
	if configDir == "" {
		return
	}
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return
	}
	if err := logging.EnableFileLogging(configDir, logging.ParseLevel(cfg.Logging.Level)); err != nil {
		fmt.Fprintf(os.Stderr, "warning: file logging disabled: %v\n", err)
	}
}

func runConsole(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	setupLogging(cfg)
	defer logging.Close()

	coord, runner, gate, err := buildApp(cfg)
	if err != nil {
		return err
	}

	// Permission changes in the config file apply without a restart.
	configPath := cfgFile
	if configPath == "" {
		configPath = config.GetConfigPath()
	}
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			watcher, err := config.NewWatcher(configPath, func(updated *config.Config) {
				gate.ReplacePolicies(permission.NewPoliciesFromConfig(
					updated.Permission.DefaultPolicy, updated.Permission.Tools))
				runner.SetStepLimit(updated.Agent.StepLimit)
			})
			if err == nil && watcher.Start() == nil {
				defer watcher.Stop()
			}
		}
	}

	ctx := context.Background()
	return console.New(coord, runner, gate, cfg, os.Stdin, os.Stdout, version).Run(ctx)
}

func runOnce(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	setupLogging(cfg)
	defer logging.Close()

	coord, _, gate, err := buildApp(cfg)
	if err != nil {
		return err
	}

	ctx := context.Background()
	tk := coord.Active()
	tk.SetPrompt(strings.Join(args, " "))

	if err := coord.Run(ctx, tk.ID()); err != nil {
		return err
	}

	// Non-interactive runs cannot answer approvals; report and bail.
	if tk.Status() == task.StatusAwaiting {
		pending := gate.Pending()
		if len(pending) > 0 {
			return fmt.Errorf("tool %s needs approval; rerun with --auto-run or --no-look",
				pending[0].Call.Tool)
		}
	}
	if tk.Status() == task.StatusFailed {
		return fmt.Errorf("task failed: %s", tk.Err())
	}

	fmt.Println(tk.LastAssistant())
	return nil
}

func runHealth(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ollama, err := client.NewOllamaClient(client.OllamaConfig{
		BaseURL:     cfg.Model.BaseURL,
		Model:       cfg.Model.Name,
		HTTPTimeout: cfg.Model.HTTPTimeout,
	})
	if err != nil {
		return err
	}

	ctx := context.Background()
	if err := ollama.Healthcheck(ctx); err != nil {
		return err
	}

	models, err := ollama.ListModels(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("ollama server at %s is healthy\n", cfg.Model.BaseURL)
	fmt.Printf("configured model: %s\n", cfg.Model.Name)
	for _, m := range models {
		fmt.Printf("  - %s\n", m)
	}
	return nil
}
