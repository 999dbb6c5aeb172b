package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"voicegate/internal/config"
)

var (
	// Global flags
	configPath string
	verbose    bool

	// Loaded per invocation
	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "voicegate",
	Short: "voicegate - guardrail and persona governor for a seq2seq engine",
	Long: `voicegate shapes every response from a small seq2seq engine through a
deterministic decision pipeline: guardrail classification, strategy
resolution, skeleton escalation, tone calibration, rotation-aware variant
selection, and assembly. Each turn is sealed with a replayable decision trace.

The underlying model is a boundary: voicegate decides what may be said and
in what voice; the model only fills the gaps the pipeline leaves open.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		if verbose {
			cfg.Logging.Level = zapcore.DebugLevel.String()
		}
		logger, err = cfg.Logging.BuildLogger()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "voicegate.yaml", "path to config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(contractCmd)
	rootCmd.AddCommand(releaseCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
