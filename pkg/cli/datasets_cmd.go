package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/michaelsamjatin/imagelake/internal/domain"
)

func newDatasetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "datasets",
		Short: "Manage registered datasets",
	}
	cmd.AddCommand(newDatasetsListCmd())
	cmd.AddCommand(newDatasetsGetCmd())
	cmd.AddCommand(newDatasetsRegisterCmd())
	cmd.AddCommand(newDatasetsDeleteCmd())
	return cmd
}

func newDatasetsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered datasets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := openRuntime(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer rt.close()

			items, _, err := rt.app.Services.Dataset.List(cmd.Context(), domain.PageRequest{})
			if err != nil {
				return err
			}

			if isQuiet(cmd) {
				for _, d := range items {
					fmt.Fprintln(os.Stdout, d.Name)
				}
				return nil
			}
			if getOutputFormat(cmd) == "json" {
				return printJSON(os.Stdout, items)
			}
			rows := make([][]string, 0, len(items))
			for _, d := range items {
				schedule := ""
				if d.ScheduleCron != nil {
					schedule = *d.ScheduleCron
				}
				rows = append(rows, []string{d.Name, d.Layout, d.SourceURI, schedule, strconv.FormatBool(d.IsPaused)})
			}
			return printTable(os.Stdout, []string{"name", "layout", "source_uri", "schedule", "paused"}, rows)
		},
	}
}

func newDatasetsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <name>",
		Short: "Show one dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer rt.close()

			ds, err := rt.app.Services.Dataset.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return printJSON(os.Stdout, ds)
			}
			schedule := ""
			if ds.ScheduleCron != nil {
				schedule = *ds.ScheduleCron
			}
			return printTable(os.Stdout,
				[]string{"name", "layout", "source_uri", "schedule", "paused", "description"},
				[][]string{{ds.Name, ds.Layout, ds.SourceURI, schedule, strconv.FormatBool(ds.IsPaused), ds.Description}},
			)
		},
	}
}

func newDatasetsRegisterCmd() *cobra.Command {
	var (
		sourceURI   string
		layout      string
		description string
		schedule    string
		paused      bool
	)

	cmd := &cobra.Command{
		Use:   "register <name>",
		Short: "Register a new dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer rt.close()

			req := domain.CreateDatasetRequest{
				Name:        args[0],
				SourceURI:   sourceURI,
				Layout:      layout,
				Description: description,
				IsPaused:    paused,
			}
			if schedule != "" {
				req.ScheduleCron = &schedule
			}

			ds, err := rt.app.Services.Dataset.Create(cmd.Context(), cliActor, req)
			if err != nil {
				return err
			}
			if isQuiet(cmd) {
				fmt.Fprintln(os.Stdout, ds.Name)
				return nil
			}
			if getOutputFormat(cmd) == "json" {
				return printJSON(os.Stdout, ds)
			}
			fmt.Fprintf(os.Stdout, "Registered dataset %s (%s)\n", ds.Name, ds.SourceURI)
			return nil
		},
	}

	cmd.Flags().StringVar(&sourceURI, "source", "", "Dataset source URI (directory, zip, s3://, gs://, az://, or http(s) URL)")
	cmd.Flags().StringVar(&layout, "layout", "", "Directory layout: dagm, mvtec, or flat")
	cmd.Flags().StringVar(&description, "description", "", "Human-readable description")
	cmd.Flags().StringVar(&schedule, "schedule", "", "Cron expression for scheduled loads")
	cmd.Flags().BoolVar(&paused, "paused", false, "Register the dataset with scheduled loads paused")
	_ = cmd.MarkFlagRequired("source")
	_ = cmd.MarkFlagRequired("layout")

	return cmd
}

func newDatasetsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer rt.close()

			if err := rt.app.Services.Dataset.Delete(cmd.Context(), cliActor, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "Deleted dataset %s\n", args[0])
			return nil
		},
	}
}
