package cli

import (
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show lake record counts by dataset, class, and split",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := openRuntime(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer rt.close()

			buckets, err := rt.lake.Stats(cmd.Context())
			if err != nil {
				return err
			}

			if getOutputFormat(cmd) == "json" {
				return printJSON(os.Stdout, buckets)
			}
			var total int64
			rows := make([][]string, 0, len(buckets))
			for _, b := range buckets {
				total += b.Count
				rows = append(rows, []string{b.Dataset, b.Class, b.Split, strconv.FormatInt(b.Count, 10)})
			}
			rows = append(rows, []string{"total", "", "", strconv.FormatInt(total, 10)})
			return printTable(os.Stdout, []string{"dataset", "class", "split", "count"}, rows)
		},
	}
}
