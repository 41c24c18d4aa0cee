package waitlist

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"movrr/waitlist/pkg/export"
)

// SignupRecorder counts accepted signups. The metrics collector implements
// it.
type SignupRecorder interface {
	RecordSignup(bikeOwnership string)
}

// Service validates, stores and announces signups.
type Service struct {
	store    Store
	notifier Notifier
	recorder SignupRecorder
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates a signup service. notifier and recorder may be nil.
func NewService(store Store, notifier Notifier, recorder SignupRecorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:    store,
		notifier: notifier,
		recorder: recorder,
		logger:   logger.With("component", "waitlist"),
		now:      time.Now,
	}
}

// Store returns the underlying store.
func (s *Service) Store() Store { return s.store }

// Signup validates req and stores a new entry. Notification failures are
// logged and do not fail the signup.
func (s *Service) Signup(ctx context.Context, req SignupRequest) (*Entry, error) {
	req = req.Normalize()
	if err := Validate(req); err != nil {
		return nil, err
	}

	e := &Entry{
		ID:            uuid.NewString(),
		Name:          req.Name,
		Email:         req.Email,
		City:          req.City,
		BikeOwnership: BikeOwnership(req.BikeOwnership),
		CreatedAt:     s.now().UTC(),
	}

	if err := s.store.Add(ctx, e); err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			s.logger.Info("duplicate signup rejected", "email", e.Email)
		} else {
			s.logger.Error("failed to store signup", "error", err)
		}
		return nil, err
	}

	s.logger.Info("signup stored",
		"entry_id", e.ID,
		"city", e.City,
		"bike_ownership", string(e.BikeOwnership),
	)
	if s.recorder != nil {
		s.recorder.RecordSignup(string(e.BikeOwnership))
	}

	if s.notifier != nil {
		if err := s.notifier.SignupConfirmed(ctx, e); err != nil {
			s.logger.Warn("confirmation email failed", "entry_id", e.ID, "error", err)
		}
		if err := s.notifier.AdminNotified(ctx, e); err != nil {
			s.logger.Warn("admin notification failed", "entry_id", e.ID, "error", err)
		}
	}
	return e, nil
}

// Stats computes dashboard statistics over every stored entry.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	entries, err := s.store.List(ctx, ListQuery{})
	if err != nil {
		return Stats{}, err
	}
	return ComputeStats(entries, s.now()), nil
}

// Datasets builds the named export datasets.
func (s *Service) Datasets(ctx context.Context, names []string) ([]export.Dataset, error) {
	return Datasets(ctx, s.store, names, s.now())
}
