package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/pack-updater/internal/config"
	"github.com/oshokin/pack-updater/internal/logger"
	"github.com/oshokin/pack-updater/internal/service/publisher"
	"github.com/oshokin/pack-updater/internal/version"
)

var (
	// rootDir is the repository root holding the pack and descriptor files.
	rootDir string
	// configPath to the settings YAML file, relative to rootDir unless absolute.
	configPath string
	// logLevel is the minimum level of printed log messages.
	logLevel string

	// rootCmd represents the base command that publishes a new pack build.
	rootCmd = &cobra.Command{
		Use:   "pack-updater",
		Short: "Rebuild the pack manifest and bump the repository build",
		Long: `Walks the pack directory, normalizes text line endings, writes the content
manifest with the SHA-1 and size of every file, then increments the build number
and points the repository descriptor at the new manifest.

Without a settings file the built-in layout is used: pack "dynam", manifest
"dynam/c.json", descriptor "dynamicmcpack.repo.json" and counter
"dynamicmcpack.repo.build", all relative to the repository root.`,
		Args:              cobra.NoArgs,
		SilenceUsage:      true,
		PersistentPreRunE: applyLogLevel,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signalContext(cmd)
			defer stop()

			options := &publisher.Options{
				Root:       rootDir,
				ConfigPath: configPath,
			}

			_, err := publisher.Run(ctx, options)

			return err
		},
	}
)

// Execute runs the pack-updater CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// signalContext derives a context canceled on SIGINT or SIGTERM.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}

	return signal.NotifyContext(parent, syscall.SIGTERM, syscall.SIGINT)
}

// applyLogLevel configures the global logger from the --log-level flag.
func applyLogLevel(_ *cobra.Command, _ []string) error {
	level, ok := logger.ParseLogLevel(logLevel)
	if !ok {
		return fmt.Errorf("unknown log level %q", logLevel)
	}

	logger.SetLevel(level)

	return nil
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&rootDir, "root", "r", "", "repository root (defaults to the working directory)")
	flags.StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to settings file")
	flags.StringVarP(&logLevel, "log-level", "l", "info", "log level: debug, info, warn or error")

	rootCmd.AddCommand(initCmd, verifyCmd)
}
