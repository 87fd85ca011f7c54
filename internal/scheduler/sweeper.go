// Package scheduler runs periodic maintenance jobs.
package scheduler

import (
	"context"
	"time"

	"go-distribution-ws/internal/applog"

	"github.com/robfig/cron/v3"
)

const sweepTimeout = time.Minute

type Sweeper interface {
	SweepExpired(ctx context.Context) (int64, error)
}

// NewNotificationSweeper schedules sweeper on spec (standard 5-field cron) in loc.
// The returned cron is not started.
func NewNotificationSweeper(spec string, loc *time.Location, sweeper Sweeper) (*cron.Cron, error) {
	c := cron.New(cron.WithLocation(loc))
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
		defer cancel()
		n, err := sweeper.SweepExpired(ctx)
		if err != nil {
			applog.Error(nil, "notification.sweep_failed", err, nil)
			return
		}
		applog.Info(nil, "notification.sweep", map[string]any{"deleted": n})
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}
