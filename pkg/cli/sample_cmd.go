package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/michaelsamjatin/imagelake/internal/service/sample"
)

func newSampleCmd() *cobra.Command {
	var (
		root  string
		out   string
		class string
		limit int
	)

	cmd := &cobra.Command{
		Use:   "sample {dagm|mvtec}",
		Short: "Copy a small excerpt of a full dataset",
		Long: "Copies a capped number of clean training images and defect/mask pairs " +
			"from a full DAGM or MVTec dataset into an excerpt directory with the " +
			"same layout.",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"dagm", "mvtec"},
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
			sampler := sample.New(logger)

			var (
				summary *sample.Summary
				err     error
			)
			switch args[0] {
			case "dagm":
				summary, err = sampler.DAGM(root, out, class, limit)
			case "mvtec":
				summary, err = sampler.MVTec(root, out, class, limit)
			default:
				return fmt.Errorf("unknown dataset kind %q: use dagm or mvtec", args[0])
			}
			if err != nil {
				return err
			}

			if getOutputFormat(cmd) == "json" {
				return printJSON(os.Stdout, map[string]any{
					"class":        summary.Class,
					"clean_copied": summary.CleanCopied,
					"pairs_copied": summary.PairsCopied,
				})
			}
			return printTable(os.Stdout,
				[]string{"class", "clean_copied", "pairs_copied"},
				[][]string{{summary.Class, strconv.Itoa(summary.CleanCopied), strconv.Itoa(summary.PairsCopied)}},
			)
		},
	}

	cmd.Flags().StringVar(&root, "root", "", "Root directory of the full dataset")
	cmd.Flags().StringVar(&out, "out", "data", "Output directory for the excerpt")
	cmd.Flags().StringVar(&class, "class", "", "Dataset class to sample (e.g. Class1, bottle)")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum clean images and defect/mask pairs to copy")
	_ = cmd.MarkFlagRequired("root")
	_ = cmd.MarkFlagRequired("class")

	return cmd
}
