package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"movrr/waitlist/pkg/cli"
	"movrr/waitlist/pkg/export"
	"movrr/waitlist/pkg/waitlist"
)

var batchCmdFlags struct {
	exportFlags
	datasets []string
	output   string
}

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Export several datasets in one run",
	Long: `Export several datasets one after another with the same options.

Each dataset is written to {dataset}_{YYYY-MM-DD}.{ext}. A failing dataset
is reported and the run continues with the next one; the command then exits
with status 3.

Examples:
  # Every dataset as JSON
  movrr batch --format json

  # Two datasets as PDF into a custom directory
  movrr batch --datasets waitlist_entries,bike_ownership --format pdf -o reports/`,
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmdFlags.register(batchCmd)
	batchCmd.Flags().StringSliceVar(&batchCmdFlags.datasets, "datasets", nil, "datasets to export (default all)")
	batchCmd.Flags().StringVar(&batchCmdFlags.output, "output", "text", "summary format: text, json or csv")
}

// batchSummary prints the outcome of every dataset.
type batchSummary struct {
	Datasets  []export.Progress `json:"datasets"`
	Completed int               `json:"completed"`
	Failed    int               `json:"failed"`
	Cancelled bool              `json:"cancelled"`
	Files     []string          `json:"files"`
}

func (s batchSummary) Header() []string {
	return []string{"DATASET", "STATUS", "FILE", "ERROR"}
}

func (s batchSummary) Rows() [][]string {
	rows := make([][]string, 0, len(s.Datasets))
	for _, p := range s.Datasets {
		rows = append(rows, []string{p.Dataset, string(p.Status), p.Filename, p.Error})
	}
	return rows
}

func runBatch(cmd *cobra.Command, args []string) error {
	flags := &batchCmdFlags
	output, err := cli.ParseOutputFormat(flags.output)
	if err != nil {
		return err
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	names := flags.datasets
	if len(names) == 0 {
		names = waitlist.DatasetNames()
	}
	if err := checkDatasets(names); err != nil {
		return err
	}
	opts, err := flags.options(a.cfg)
	if err != nil {
		return err
	}

	ctx, stop := cli.SignalContext(cmd.Context())
	defer stop()

	datasets, err := a.service.Datasets(ctx, names)
	if err != nil {
		return cli.NewCommandError("batch", err)
	}
	sink, err := export.NewDirSink(flags.dir(a.cfg))
	if err != nil {
		return cli.NewCommandError("batch", err)
	}

	progress := cli.NewProgressReporter(cmd.ErrOrStderr())
	progress.Start(len(datasets))
	res := export.NewBatch(a.exporter, export.BatchConfig{
		Sink:     sink,
		Observer: cli.BatchObserver(progress),
		Logger:   a.logger,
	}).Run(ctx, datasets, opts)
	progress.Finish()

	summary := batchSummary{
		Datasets:  res.Progress,
		Completed: res.Completed,
		Failed:    res.Failed,
		Cancelled: res.Cancelled,
	}
	for _, name := range res.Filenames() {
		summary.Files = append(summary.Files, sink.Path(name))
	}
	if err := cli.NewFormatter(output).FormatTo(cmd.OutOrStdout(), summary); err != nil {
		return err
	}

	switch {
	case res.Cancelled:
		return cli.NewCommandError("batch", ctx.Err())
	case res.Failed > 0:
		return fmt.Errorf("%d of %d datasets: %w", res.Failed, len(datasets), cli.ErrPartial)
	}
	return nil
}
