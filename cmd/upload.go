package cmd

import (
	"fmt"
	"os"

	"github.com/KarthikMasi/dax-local/internal/upload"
	"github.com/KarthikMasi/dax-local/internal/xnat"
	"github.com/spf13/cobra"
)

func newUploadCmd() *cobra.Command {
	var host string
	var username string
	var password string
	var subjectsDir string

	cmd := &cobra.Command{
		Use:   "upload PROJECT SESSION [PROC_SUFFIX]",
		Short: "Upload edited FreeSurfer files and flag the assessor for reprocessing",
		Long: `Uploads locally-edited FreeSurfer output files (brainmask, wm, aseg and
control points) from the subject directory to the matching assessor's EDITS
resource on XNAT, then sets its procstatus to NEED_TO_RUN so the pipeline
reruns.

When a session carries more than one FreeSurfer assessor, pass PROC_SUFFIX
to pick the assessor whose label ends with it.

Configuration precedence is flag, then environment (XNAT_HOST, XNAT_USER,
XNAT_PASS, SUBJECTS_DIR), then built-in default.`,
		Example: `  # Upload edits for one session
  dax-local upload MyProject SUBJ001_MR1

  # Two FreeSurfer assessors on the session: pick by label suffix
  dax-local upload MyProject SUBJ001_MR1 v2

  # Explicit host and subjects directory
  dax-local upload MyProject SUBJ001_MR1 --host xnat.example.org -s /data/subjects`,
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			project, session := args[0], args[1]
			suffix := ""
			if len(args) == 3 {
				suffix = args[2]
			}

			if host == "" {
				host = os.Getenv("XNAT_HOST")
			}
			if host == "" {
				reportError(fmt.Errorf("no XNAT host given: set --host or XNAT_HOST"))
			}
			if username == "" {
				username = os.Getenv("XNAT_USER")
			}
			if password == "" {
				password = os.Getenv("XNAT_PASS")
			}
			if subjectsDir == "" {
				subjectsDir = os.Getenv("SUBJECTS_DIR")
			}
			if subjectsDir == "" {
				subjectsDir = "/tmp"
			}

			client := xnat.NewClient(host, username, password)
			uploader := upload.New(client, subjectsDir)
			if err := uploader.Run(cmd.Context(), project, session, suffix); err != nil {
				reportError(err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "XNAT host (default $XNAT_HOST)")
	cmd.Flags().StringVarP(&username, "username", "u", "", "XNAT username (default $XNAT_USER)")
	cmd.Flags().StringVar(&password, "password", "", "XNAT password (default $XNAT_PASS)")
	cmd.Flags().StringVarP(&subjectsDir, "subjects-dir", "s", "", "FreeSurfer subjects directory (default $SUBJECTS_DIR, else /tmp)")

	return cmd
}

// reportError prints the failure with the ERROR: prefix callers grep for,
// then exits 1. Every uploader failure is terminal; nothing to clean up.
func reportError(err error) {
	fmt.Printf("ERROR: %v\n", err)
	os.Exit(1)
}
