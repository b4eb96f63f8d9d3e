// Package commands implements the CLI command structure using Cobra.
package commands

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/petrel-labs/brook/cli/config"
)

var (
	// Global flags
	cfgFile     string
	endpoint    string
	jsonOutput  bool
	verbose     bool
	readTimeout time.Duration

	// Loaded configuration
	cfg *config.Config
)

// rootCmd is the base command for the CLI.
var rootCmd = &cobra.Command{
	Use:   "brook",
	Short: "Brook - streaming HTTP transfer CLI",
	Long: `Brook is a command-line interface for streaming HTTP transfers.

Use brook to download response bodies as streams, follow line-oriented
feeds, inspect response metadata, and wait for remote content.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags available to all commands
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.brook/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&endpoint, "endpoint", "", "named endpoint from config")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "emit JSON output")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable debug logging")
	rootCmd.PersistentFlags().DurationVar(&readTimeout, "timeout", 0, "read timeout for body streams (0 = config default)")
}

// initConfig reads the environment, config file, and sets up logging.
func initConfig() error {
	// Pick up a local .env if present; a missing file is fine
	_ = godotenv.Load()

	path := cfgFile
	if path == "" {
		path = config.DefaultConfigPath()
	}

	var err error
	cfg, err = config.LoadConfig(path)
	if err != nil {
		return err
	}

	// Apply config defaults if flags not set
	if endpoint == "" && cfg.DefaultEndpoint != "" {
		endpoint = cfg.DefaultEndpoint
	}
	if readTimeout == 0 && cfg.ReadTimeout != 0 {
		readTimeout = time.Duration(cfg.ReadTimeout)
	}

	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}
	log.Logger = zerolog.New(output).Level(level).With().Timestamp().Logger()

	return nil
}

// GetConfig returns the loaded configuration.
func GetConfig() *config.Config {
	return cfg
}

// GetEndpointName returns the effective endpoint name (flag or config default).
func GetEndpointName() string {
	return endpoint
}

// GetReadTimeout returns the effective read timeout (flag or config default).
func GetReadTimeout() time.Duration {
	return readTimeout
}

// IsJSONOutput returns true if JSON output is enabled.
func IsJSONOutput() bool {
	return jsonOutput
}

// IsVerbose returns true if verbose output is enabled.
func IsVerbose() bool {
	return verbose
}
