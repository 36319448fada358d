package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	var size int

	cmd := &cobra.Command{
		Use:   "run <dataset>",
		Short: "Run a load pipeline for a registered dataset",
		Long: "Extracts images from the dataset source, normalizes them to square " +
			"PNGs, and merges the records into the lake. Blocks until the run " +
			"finishes and prints the final counters.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer rt.close()

			run, err := rt.app.Services.Pipeline.RunSync(cmd.Context(), cliActor, args[0], size)
			if err != nil {
				return err
			}

			if isQuiet(cmd) {
				fmt.Fprintln(os.Stdout, run.ID)
				return nil
			}
			if getOutputFormat(cmd) == "json" {
				return printJSON(os.Stdout, run)
			}
			errMsg := ""
			if run.ErrorMessage != nil {
				errMsg = *run.ErrorMessage
			}
			return printTable(os.Stdout,
				[]string{"run_id", "status", "seen", "loaded", "skipped", "error"},
				[][]string{{
					run.ID,
					run.Status,
					strconv.FormatInt(run.ImagesSeen, 10),
					strconv.FormatInt(run.ImagesLoaded, 10),
					strconv.FormatInt(run.ImagesSkipped, 10),
					errMsg,
				}},
			)
		},
	}

	cmd.Flags().IntVar(&size, "size", 0, "Target square size for normalized images (default from IMAGE_SIZE)")
	return cmd
}
