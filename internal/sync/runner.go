package sync

import (
	"context"
	"log"
	"time"
)

// Runner drives the batch sweep on a fixed cadence. It runs alongside live
// request traffic; entries that expire between the scan and the sync are
// reported, not retried.
type Runner struct {
	coordinator *Coordinator
	interval    time.Duration
}

func NewRunner(coordinator *Coordinator, interval time.Duration) *Runner {
	return &Runner{
		coordinator: coordinator,
		interval:    interval,
	}
}

func (r *Runner) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			failures, err := r.coordinator.SyncAll(ctx)
			if err != nil {
				log.Printf("cart sweep failed: %v", err)
				continue
			}
			if len(failures) > 0 {
				log.Printf("cart sweep finished with %d failed entries", len(failures))
			}
		case <-ctx.Done():
			return
		}
	}
}
