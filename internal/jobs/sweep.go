package jobs

import (
	"context"
	"log"
	"time"

	"dreamacademy/labtrack/internal/metrics"
	"dreamacademy/labtrack/internal/session"
)

// StartMidnightSweep force-closes every active session once per day at local
// midnight. The tick interval is minute-granular; a tick that lands anywhere
// inside the 00:00 minute fires the sweep, and because the close is a single
// idempotent update a re-fire after a restart is harmless. Per-tick errors
// are logged and the next tick retries independently.
func StartMidnightSweep(ctx context.Context, interval time.Duration, loc *time.Location, svc *session.Service) {
	if interval <= 0 {
		interval = time.Minute
	}
	if loc == nil {
		loc = time.UTC
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if !atBoundary(time.Now().In(loc)) {
					continue
				}
				tickCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
				closed, err := svc.CloseAll(tickCtx)
				cancel()
				if err != nil {
					log.Printf("midnight sweep error: %v", err)
					continue
				}
				if closed > 0 {
					metrics.SweptSessions.Add(float64(closed))
					log.Printf("midnight sweep closed %d sessions", closed)
				}
			}
		}
	}()
}

func atBoundary(now time.Time) bool {
	return now.Hour() == 0 && now.Minute() == 0
}
