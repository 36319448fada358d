package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/michaelsamjatin/imagelake/internal/manifest"
)

func newApplyCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply a dataset manifest to the metastore",
		Long: "Reads a YAML manifest of dataset definitions and upserts each one " +
			"into the metastore. Existing datasets are updated in place; the " +
			"layout of a registered dataset cannot change.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := manifest.Load(file)
			if err != nil {
				return err
			}

			rt, err := openRuntime(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer rt.close()

			results, err := manifest.Apply(cmd.Context(), m, rt.app.Services.Dataset, cliActor, rt.logger)
			if err != nil {
				return err
			}

			if getOutputFormat(cmd) == "json" {
				return printJSON(os.Stdout, results)
			}
			rows := make([][]string, 0, len(results))
			for _, res := range results {
				verb := "updated"
				if res.Created {
					verb = "created"
				}
				rows = append(rows, []string{res.Name, verb})
			}
			return printTable(os.Stdout, []string{"dataset", "result"}, rows)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "imagelake.yaml", "Path to the manifest file")
	return cmd
}
