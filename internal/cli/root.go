package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tessro/entrance/internal/config"
	entErrors "github.com/tessro/entrance/internal/errors"
	"github.com/tessro/entrance/internal/logging"
)

var (
	cfgFile string
	jsonOut bool
	verbose bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "entrance",
	Short: "Play each person's entrance song when their phone joins the network",
	Long: `Entrance watches DHCP traffic for known devices. When someone arrives, it
pauses whatever Spotify is playing, plays their entrance song, and then
puts the original music back where it was.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: ~/.entrancerc)")
	rootCmd.PersistentFlags().BoolVarP(&jsonOut, "json", "j", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

func initConfig() error {
	var err error
	if cfgFile != "" {
		cfg, err = config.LoadFrom(cfgFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	return nil
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, entErrors.Format(err))
		os.Exit(1)
	}
}

// Config returns the loaded configuration.
func Config() *config.Config {
	return cfg
}

// JSONOutput returns true if JSON output is requested.
func JSONOutput() bool {
	return jsonOut
}

// Verbose returns true if verbose output is requested.
func Verbose() bool {
	return verbose
}

// newLogger builds the process logger from [log], forcing debug under -v.
func newLogger() (*zap.Logger, error) {
	lc := logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, File: cfg.Log.File}
	if verbose {
		lc.Level = "debug"
	}
	return logging.New(lc)
}

// commandLogger is newLogger for short-lived commands, which only log
// under -v.
func commandLogger() *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	log, err := newLogger()
	if err != nil {
		return zap.NewNop()
	}
	return log
}
