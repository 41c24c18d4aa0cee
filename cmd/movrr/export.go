package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"movrr/waitlist/pkg/cli"
	"movrr/waitlist/pkg/export"
	"movrr/waitlist/pkg/waitlist"
)

var exportCmdFlags struct {
	exportFlags
	dataset  string
	filename string
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export one dataset to a file",
	Long: `Export one dataset to a file in the output directory.

The file is named {dataset}_{YYYY-MM-DD}.{ext} unless --filename is given.
Nothing is written when no record matches.

Examples:
  # Every signup as CSV
  movrr export

  # March signups, names and cities only, as a spreadsheet
  movrr export --format xlsx --fields name,city --start 2025-03-01 --end 2025-03-31

  # City breakdown as a PDF report
  movrr export --dataset city_breakdown --format pdf`,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmdFlags.register(exportCmd)
	exportCmd.Flags().StringVarP(&exportCmdFlags.dataset, "dataset", "d", waitlist.DatasetEntries, "dataset to export")
	exportCmd.Flags().StringVar(&exportCmdFlags.filename, "filename", "", "file name without extension")
}

func runExport(cmd *cobra.Command, args []string) error {
	flags := &exportCmdFlags
	if err := checkDatasets([]string{flags.dataset}); err != nil {
		return err
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	opts, err := flags.options(a.cfg)
	if err != nil {
		return err
	}
	opts.Filename = flags.filename
	if opts.Filename == "" {
		opts.Filename = export.BatchFilename(flags.dataset, time.Now())
	}

	ctx, stop := cli.SignalContext(cmd.Context())
	defer stop()

	datasets, err := a.service.Datasets(ctx, []string{flags.dataset})
	if err != nil {
		return cli.NewCommandError("export", err)
	}
	art, err := a.exporter.Export(ctx, datasets[0].Records, opts)
	if err != nil {
		return cli.NewCommandError("export", err)
	}

	out := cmd.OutOrStdout()
	if art == nil {
		fmt.Fprintln(out, "No records matched, nothing written.")
		return nil
	}

	sink, err := export.NewDirSink(flags.dir(a.cfg))
	if err != nil {
		return cli.NewCommandError("export", err)
	}
	if err := sink.Deliver(ctx, art); err != nil {
		return cli.NewCommandError("export", err)
	}
	fmt.Fprintf(out, "✓ Wrote %s (%d records, %d bytes)\n", sink.Path(art.Filename), art.Records, art.Size())
	return nil
}
