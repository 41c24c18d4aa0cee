package waitlist

import (
	"context"
	"log/slog"
)

// Notifier sends the transactional messages that follow a signup.
type Notifier interface {
	// SignupConfirmed tells the user they are on the list.
	SignupConfirmed(ctx context.Context, e *Entry) error

	// AdminNotified tells the team about the new signup.
	AdminNotified(ctx context.Context, e *Entry) error
}

// LogNotifier records notifications in the log instead of sending them.
type LogNotifier struct {
	logger     *slog.Logger
	adminEmail string
}

// NewLogNotifier creates a notifier that logs each message.
func NewLogNotifier(logger *slog.Logger, adminEmail string) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{
		logger:     logger.With("component", "waitlist.notify"),
		adminEmail: adminEmail,
	}
}

// SignupConfirmed implements Notifier.
func (n *LogNotifier) SignupConfirmed(ctx context.Context, e *Entry) error {
	n.logger.InfoContext(ctx, "signup confirmation queued",
		"entry_id", e.ID,
		"to", e.Email,
		"city", e.City,
	)
	return nil
}

// AdminNotified implements Notifier.
func (n *LogNotifier) AdminNotified(ctx context.Context, e *Entry) error {
	n.logger.InfoContext(ctx, "admin notification queued",
		"entry_id", e.ID,
		"to", n.adminEmail,
		"bike_ownership", string(e.BikeOwnership),
	)
	return nil
}
