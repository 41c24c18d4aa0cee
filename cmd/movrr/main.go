// Movrr is the waitlist service behind the Movrr launch page and its admin
// dashboard.
//
// It accepts signups over HTTP and exports the list as CSV, XLSX, PDF or
// JSON, on demand, as batches or on a schedule.
//
// Usage:
//
//	# Start the HTTP API
//	movrr serve --config movrr.yaml
//
//	# Export every signup from March as a spreadsheet
//	movrr export --dataset waitlist_entries --format xlsx --start 2025-03-01 --end 2025-03-31
//
//	# Export several datasets in one run
//	movrr batch --datasets waitlist_entries,city_breakdown --format pdf
//
//	# Print dashboard statistics
//	movrr stats --output json
package main

func main() {
	Execute()
}
