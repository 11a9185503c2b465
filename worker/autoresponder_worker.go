package worker

import (
	"context"
	"log"
	"time"
)

// AutoresponderWorker runs the sequencer's sweep on a fixed interval. The
// sweep is also exposed over HTTP for external schedulers; both paths share
// the same Sequencer and are idempotent with respect to already-sent steps.
type AutoresponderWorker struct {
	Sequencer *Sequencer
	Interval  time.Duration
	Logger    *log.Logger
}

func NewAutoresponderWorker(sequencer *Sequencer, interval time.Duration, logger *log.Logger) *AutoresponderWorker {
	return &AutoresponderWorker{
		Sequencer: sequencer,
		Interval:  interval,
		Logger:    logger,
	}
}

func (aw *AutoresponderWorker) Start(ctx context.Context) {
	// Initial delay to let the server start up
	time.Sleep(10 * time.Second)

	aw.Logger.Println("Autoresponder worker started")

	ticker := time.NewTicker(aw.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			aw.Logger.Println("Autoresponder worker shutting down...")
			return
		case <-ticker.C:
			stats, err := aw.Sequencer.Sweep(ctx)
			if err != nil {
				aw.Logger.Printf("Sweep failed: %v", err)
				continue
			}
			if stats.Sent > 0 || stats.Failed > 0 {
				aw.Logger.Printf("Sweep complete: %d visited, %d sent, %d failed, %d skipped",
					stats.Visited, stats.Sent, stats.Failed, stats.Skipped)
			}
		}
	}
}
