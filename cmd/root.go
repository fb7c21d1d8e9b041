package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dax-local",
		Short: "Local tools for FreeSurfer edits on an XNAT archive",
		Long: `dax-local pushes locally-edited FreeSurfer output back to an XNAT archive
and flags the matching assessor for reprocessing.

It also ships a small web viewer for paging through axial, coronal and
sagittal slice stacks of a reconstructed subject.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
	}

	// Add subcommands
	cmd.AddCommand(newUploadCmd())
	cmd.AddCommand(newServeCmd())

	return cmd
}
