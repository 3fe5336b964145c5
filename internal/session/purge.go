package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Purger deletes expired records.
type Purger interface {
	DeleteExpiredSessions(ctx context.Context) (int64, error)
}

// SchedulePurge registers a job on c that purges expired records every
// interval.
func SchedulePurge(c *cron.Cron, p Purger, every time.Duration) (cron.EntryID, error) {
	id, err := c.AddFunc(fmt.Sprintf("@every %s", every), func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		n, err := p.DeleteExpiredSessions(ctx)
		if err != nil {
			slog.Error("Failed to purge expired sessions", "error", err)
			return
		}
		if n > 0 {
			slog.Info("Purged expired sessions", "count", n)
		}
	})
	if err != nil {
		return 0, fmt.Errorf("schedule session purge: %w", err)
	}
	return id, nil
}
