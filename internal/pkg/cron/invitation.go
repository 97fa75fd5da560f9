package cron

import (
	"context"
	"log/slog"
	"time"
)

// ExpiredInvitationPurger deletes invitations whose expiry has passed.
type ExpiredInvitationPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// InvitationJobs contains invitation housekeeping jobs
type InvitationJobs struct {
	purger   ExpiredInvitationPurger
	interval time.Duration
}

// NewInvitationJobs creates invitation cron jobs. A non-positive interval
// disables the sweep.
func NewInvitationJobs(purger ExpiredInvitationPurger, interval time.Duration) *InvitationJobs {
	return &InvitationJobs{
		purger:   purger,
		interval: interval,
	}
}

// RegisterJobs registers all invitation-related cron jobs
func (j *InvitationJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob("purge_expired_invitations", j.interval, j.PurgeExpiredInvitations)
}

// PurgeExpiredInvitations removes every expired invite row.
func (j *InvitationJobs) PurgeExpiredInvitations(ctx context.Context) error {
	removed, err := j.purger.PurgeExpired(ctx)
	if err != nil {
		return err
	}
	if removed > 0 {
		slog.InfoContext(ctx, "Purged expired invitations", "count", removed)
	}
	return nil
}
