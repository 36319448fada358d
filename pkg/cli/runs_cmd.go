package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/michaelsamjatin/imagelake/internal/domain"
)

func newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect load runs",
	}
	cmd.AddCommand(newRunsListCmd())
	cmd.AddCommand(newRunsGetCmd())
	return cmd
}

func newRunsListCmd() *cobra.Command {
	var (
		datasetName string
		status      string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List load runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := openRuntime(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer rt.close()

			filter := domain.LoadRunFilter{}
			if status != "" {
				filter.Status = &status
			}
			if datasetName != "" {
				ds, err := rt.app.Services.Dataset.Get(cmd.Context(), datasetName)
				if err != nil {
					return err
				}
				filter.DatasetID = &ds.ID
			}

			items, _, err := rt.app.Services.Pipeline.ListRuns(cmd.Context(), filter)
			if err != nil {
				return err
			}

			if isQuiet(cmd) {
				for _, lr := range items {
					fmt.Fprintln(os.Stdout, lr.ID)
				}
				return nil
			}
			if getOutputFormat(cmd) == "json" {
				return printJSON(os.Stdout, items)
			}
			rows := make([][]string, 0, len(items))
			for _, lr := range items {
				rows = append(rows, []string{
					lr.ID,
					lr.DatasetName,
					lr.Status,
					strconv.FormatInt(lr.ImagesLoaded, 10),
					strconv.FormatInt(lr.ImagesSkipped, 10),
					lr.CreatedAt.Format("2006-01-02 15:04:05"),
				})
			}
			return printTable(os.Stdout, []string{"id", "dataset", "status", "loaded", "skipped", "created"}, rows)
		},
	}

	cmd.Flags().StringVar(&datasetName, "dataset", "", "Only runs for this dataset")
	cmd.Flags().StringVar(&status, "status", "", "Only runs with this status (PENDING, RUNNING, SUCCESS, FAILED)")
	return cmd
}

func newRunsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <run-id>",
		Short: "Show one load run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer rt.close()

			run, err := rt.app.Services.Pipeline.GetRun(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return printJSON(os.Stdout, run)
			}
			errMsg := ""
			if run.ErrorMessage != nil {
				errMsg = *run.ErrorMessage
			}
			return printTable(os.Stdout,
				[]string{"id", "dataset", "status", "trigger", "size", "seen", "loaded", "skipped", "error"},
				[][]string{{
					run.ID,
					run.DatasetName,
					run.Status,
					run.TriggerType,
					strconv.Itoa(run.ImageSize),
					strconv.FormatInt(run.ImagesSeen, 10),
					strconv.FormatInt(run.ImagesLoaded, 10),
					strconv.FormatInt(run.ImagesSkipped, 10),
					errMsg,
				}},
			)
		},
	}
}
