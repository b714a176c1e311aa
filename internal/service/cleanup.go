package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bookbuddyapp/bookbuddy-server/internal/metrics"
	"github.com/bookbuddyapp/bookbuddy-server/internal/store"
)

// CleanupReport counts the rows removed by one housekeeping pass.
type CleanupReport struct {
	Sessions       int64
	PasswordResets int64
	DeletedUsers   int64
}

// Total returns the number of rows removed.
func (r CleanupReport) Total() int64 {
	return r.Sessions + r.PasswordResets + r.DeletedUsers
}

// CleanupService removes expired sessions and reset tokens, and purges
// soft-deleted accounts once their retention window has passed.
type CleanupService struct {
	store     store.Store
	sessions  *SessionService
	resets    *PasswordResetService
	retention time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

// NewCleanupService creates a new housekeeping service.
func NewCleanupService(
	store store.Store,
	sessions *SessionService,
	resets *PasswordResetService,
	deletedUserRetention time.Duration,
	logger *slog.Logger,
) *CleanupService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CleanupService{
		store:     store,
		sessions:  sessions,
		resets:    resets,
		retention: deletedUserRetention,
		logger:    logger,
		now:       time.Now,
	}
}

// RunOnce performs a single housekeeping pass. Every step runs even if an
// earlier one fails; the errors are joined.
func (s *CleanupService) RunOnce(ctx context.Context) (CleanupReport, error) {
	var (
		report CleanupReport
		errs   []error
		err    error
	)

	if report.Sessions, err = s.sessions.DeleteExpiredSessions(ctx); err != nil {
		errs = append(errs, err)
	}
	if report.PasswordResets, err = s.resets.DeleteExpired(ctx); err != nil {
		errs = append(errs, err)
	}

	cutoff := s.now().Add(-s.retention)
	if report.DeletedUsers, err = s.store.PurgeDeletedUsers(ctx, cutoff); err != nil {
		errs = append(errs, fmt.Errorf("purge deleted users: %w", err))
	} else if report.DeletedUsers > 0 {
		s.logger.Info("purged deleted users", "count", report.DeletedUsers)
	}

	metrics.RecordCleanup("sessions", report.Sessions)
	metrics.RecordCleanup("password_resets", report.PasswordResets)
	metrics.RecordCleanup("users", report.DeletedUsers)

	return report, errors.Join(errs...)
}

// Run performs a pass immediately and then every interval until ctx is done.
func (s *CleanupService) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if report, err := s.RunOnce(ctx); err != nil {
			s.logger.Warn("cleanup failed", "error", err)
		} else if report.Total() > 0 {
			s.logger.Info("cleanup completed",
				"sessions", report.Sessions,
				"password_resets", report.PasswordResets,
				"deleted_users", report.DeletedUsers,
			)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
