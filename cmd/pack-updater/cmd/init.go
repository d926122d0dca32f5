package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/oshokin/pack-updater/internal/config"
)

var (
	// forceInit allows overwriting an existing settings file.
	forceInit bool

	errSettingsExist = errors.New("settings file already exists, use --force to overwrite")

	// initCmd writes the default settings file.
	initCmd = &cobra.Command{
		Use:   "init",
		Short: "Write the default settings file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := configPath
			if !filepath.IsAbs(path) && rootDir != "" {
				path = filepath.Join(rootDir, path)
			}

			if _, err := os.Stat(path); err == nil && !forceInit {
				return fmt.Errorf("%s: %w", path, errSettingsExist)
			}

			if err := config.Save(path, config.Default()); err != nil {
				return err
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Settings written to", path)

			return nil
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	initCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "overwrite an existing settings file")
}
