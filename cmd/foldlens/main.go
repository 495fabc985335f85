package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/asheshgoplani/foldlens/internal/ai"
	"github.com/asheshgoplani/foldlens/internal/config"
	"github.com/asheshgoplani/foldlens/internal/telemetry"
	"github.com/asheshgoplani/foldlens/internal/topics"
	"github.com/asheshgoplani/foldlens/internal/ui"
)

var version = "dev"

// globalFlags are shared by every subcommand
type globalFlags struct {
	provider string
	model    string
	verbose  bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var flags globalFlags

	rootCmd := &cobra.Command{
		Use:          "foldlens",
		Version:      version,
		Short:        "Plain-language explanations of protein structure prediction",
		Long:         "foldlens explains structure-prediction and drug-discovery concepts through a generative-language model",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(flags)
		},
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if cmd.Name() != "foldlens" && !flags.verbose {
				log.SetOutput(io.Discard)
			}
		},
	}
	rootCmd.PersistentFlags().StringVarP(&flags.provider, "provider", "p", "", "AI provider: gemini, openai or anthropic (overrides config)")
	rootCmd.PersistentFlags().StringVarP(&flags.model, "model", "m", "", "Model name (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&flags.verbose, "verbose", false, "Print retry diagnostics to stderr")

	rootCmd.AddCommand(
		newExplainCmd(&flags),
		newAskCmd(&flags),
		newTopicsCmd(),
		newConfidenceCmd(),
		newConfigCmd(),
	)
	return rootCmd
}

// loadConfig returns the user config, or an empty one if config.toml is broken
func loadConfig() *config.UserConfig {
	cfg, err := config.LoadUserConfig()
	if err != nil {
		log.Printf("[CONFIG] Using defaults: %v", err)
		return &config.UserConfig{}
	}
	return cfg
}

func newExplainer(cfg *config.UserConfig, flags *globalFlags) (*ai.Explainer, error) {
	return cfg.WithAIOverrides(flags.provider, flags.model).NewExplainer()
}

// terminalWidth returns the stdout width, or 80 when it is not a terminal
func terminalWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return 80
	}
	return w
}

func runTUI(flags globalFlags) error {
	home, err := config.GetHomeDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(home, 0700); err != nil {
		return fmt.Errorf("failed to create %s: %w", home, err)
	}

	// the alt screen owns stdout, so diagnostics go to a file
	logFile, err := os.OpenFile(filepath.Join(home, "debug.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return fmt.Errorf("failed to open debug log: %w", err)
	}
	defer logFile.Close()
	log.SetOutput(logFile)

	cfg := loadConfig()
	explainer, err := newExplainer(cfg, &flags)
	if err != nil {
		return err
	}
	catalog, err := topics.Load(cfg.GetUISettings().TopicsFile)
	if err != nil {
		return err
	}

	var logger *telemetry.Logger
	if ts := cfg.GetTelemetrySettings(); ts.Enabled {
		logger = telemetry.New(ts.URL, ts.Notebook)
	}

	h := ui.NewHome(ui.Options{
		Explainer:        explainer,
		Catalog:          catalog,
		GlamourStyle:     cfg.GetUISettings().GlamourStyle,
		Telemetry:        logger,
		Seed:             42,
		WatchConfig:      true,
		ProviderOverride: flags.provider,
		ModelOverride:    flags.model,
	})
	defer h.Close()

	p := tea.NewProgram(h, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running program: %w", err)
	}
	return nil
}
