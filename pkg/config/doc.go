// Package config provides configuration management for the Movrr waitlist
// service.
//
// Configuration is loaded from YAML, completed with defaults, overridden
// from the environment and validated:
//
//	cfg, err := config.LoadConfigWithEnvOverrides("movrr.yaml")
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention MOVRR_SECTION_FIELD:
//
//   - MOVRR_SERVER_LISTEN_ADDRESS overrides server.listen_address
//   - MOVRR_STORAGE_SQLITE_PATH overrides storage.sqlite.path
//   - MOVRR_EXPORT_OUTPUT_DIR overrides export.output_dir
//   - MOVRR_SECURITY_ADMIN_KEYS replaces security.admin_keys (comma separated)
//
// A value that does not parse fails the load.
//
// # Hot Reload
//
// A Watcher reloads the file after edits settle and hands the new
// configuration to a callback; the server uses it to re-sync declared
// schedules and the log level. A reload that fails validation is logged
// and ignored.
//
// # Example Configuration
//
//	server:
//	  listen_address: "0.0.0.0:8080"
//
//	storage:
//	  backend: sqlite
//	  sqlite:
//	    path: data/waitlist.db
//	    driver: sqlite   # pure Go; "sqlite3" uses cgo
//
//	export:
//	  output_dir: data/exports
//	  default_format: xlsx
//	  style:
//	    sheet:
//	      header_fill: "23B245"
//
//	schedules:
//	  - name: weekly-report
//	    datasets: [waitlist_entries, city_breakdown]
//	    format: xlsx
//	    include_headers: true
//	    kind: weekly
//	    day_of_week: 1
//	    time: "07:00"
//	    timezone: Europe/Amsterdam
//	    active: true
//
//	security:
//	  admin_keys:
//	    - name: dashboard
//	      key: "${a long random value}"
//
//	telemetry:
//	  logging:
//	    level: info
//	    format: json
package config
