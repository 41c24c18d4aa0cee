// Package logging builds the service's slog logger.
//
// The logger writes JSON or text, adds request_id and principal from the
// context of *Context calls, and masks email addresses and secrets in
// attribute values:
//
//	logger, level, err := logging.New(logging.Config{Level: "info", Format: "json", RedactEmails: true})
//	logger.Info("signup stored", "email", "ada@example.com") // email=a***@example.com
//
// The returned LevelVar changes the level of every derived logger at once.
package logging
