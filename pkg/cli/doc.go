/*
Package cli holds the helpers shared by the movrr commands: exit codes,
output formatters and a batch progress bar.

Results implementing Tabular print as aligned text or CSV; anything else
prints as JSON or with %v:

	formatter := cli.NewFormatter(cli.FormatCSV)
	if err := formatter.FormatTo(os.Stdout, rows); err != nil {
		return err
	}

A batch run reports progress through an export.Observer:

	progress := cli.NewProgressReporter(os.Stderr)
	progress.Start(len(datasets))
	batch := export.NewBatch(exporter, export.BatchConfig{Observer: cli.BatchObserver(progress)})
	res := batch.Run(ctx, datasets, opts)
	progress.Finish()
*/
package cli
