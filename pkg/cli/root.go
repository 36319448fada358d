// Package cli implements the imagelake command-line interface. Commands
// operate directly on the local metastore and lake files, so the CLI works
// without a running API server.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
)

// Execute runs the CLI.
func Execute() int {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		output, _ := rootCmd.PersistentFlags().GetString("output")
		if output == "json" {
			_ = printJSON(os.Stdout, map[string]any{"error": err.Error()})
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	var (
		metaDB string
		lakeDB string
		output string
		quiet  bool
	)

	rootCmd := &cobra.Command{
		Use:           "imagelake",
		Short:         "Image lake CLI",
		Long:          "Command-line interface for sampling inspection datasets and loading them into the image lake.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Precedence: flag > env > default.
			if !cmd.Flags().Changed("meta-db") {
				if v := os.Getenv("IMAGELAKE_META_DB"); v != "" {
					metaDB = v
				}
			}
			if !cmd.Flags().Changed("lake-db") {
				if v := os.Getenv("IMAGELAKE_LAKE_DB"); v != "" {
					lakeDB = v
				}
			}
			if !cmd.Flags().Changed("output") {
				if v := os.Getenv("IMAGELAKE_OUTPUT"); v != "" {
					output = v
				}
			}
			return validateOutputFormat(output)
		},
	}

	rootCmd.PersistentFlags().StringVar(&metaDB, "meta-db", "", "Path to the SQLite metastore (default from META_DB_PATH)")
	rootCmd.PersistentFlags().StringVar(&lakeDB, "lake-db", "", "Path to the DuckDB lake file (default from LAKE_DB_PATH)")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "table", "Output format (table, json)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Only output resource identifiers")

	rootCmd.AddCommand(newSampleCmd())
	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newApplyCmd())
	rootCmd.AddCommand(newDatasetsCmd())
	rootCmd.AddCommand(newRunsCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}
