package service

import (
	"context"
	"time"

	"github.com/Skotchmaster/authservice/internal/logging"
	"github.com/Skotchmaster/authservice/internal/repo"
)

type purger interface {
	PurgeExpired(ctx context.Context) (repo.PurgeResult, error)
}

// Janitor deletes expired blacklist entries and single-use tokens.
type Janitor struct {
	Repo     purger
	Interval time.Duration
}

// Run purges once immediately and then on every tick until ctx is done.
func (j *Janitor) Run(ctx context.Context) {
	interval := j.Interval
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		_, _ = j.PurgeOnce(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (j *Janitor) PurgeOnce(ctx context.Context) (repo.PurgeResult, error) {
	l := logging.FromContext(ctx).With("svc", "janitor")

	res, err := j.Repo.PurgeExpired(ctx)
	if err != nil {
		l.Error("purge_failed", "error", err)
		return res, err
	}
	if res.Blacklist > 0 || res.SingleUse > 0 {
		l.Info("purged_expired", "blacklist", res.Blacklist, "single_use", res.SingleUse)
	}
	return res, nil
}
