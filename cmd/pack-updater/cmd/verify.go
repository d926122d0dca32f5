package cmd

import (
	"github.com/spf13/cobra"

	"github.com/oshokin/pack-updater/internal/service/verifier"
)

// verifyCmd checks the published pack against its manifest and descriptor.
var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check the pack files against the published manifest",
	Long: `Compares every manifest entry with the file on disk, reports pack files missing
from the manifest and checks that the descriptor holds the manifest's SHA-1.
Nothing is modified.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signalContext(cmd)
		defer stop()

		_, err := verifier.Run(ctx, &verifier.Options{
			Root:       rootDir,
			ConfigPath: configPath,
		})

		return err
	},
}
