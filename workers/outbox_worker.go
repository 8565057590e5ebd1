// workers/outbox_worker.go
package workers

import (
	"context"
	"log"
	"time"

	"badminton-ranking-system/services"

	"github.com/go-co-op/gocron/v2"
)

const (
	sweepInterval = 30 * time.Second
	sweepBatch    = 100
)

// OutboxWorker periodically re-delivers finalized-match events whose
// immediate post-commit delivery failed or was lost to a crash.
type OutboxWorker struct {
	Ratings *services.RatingService
}

func NewOutboxWorker(ratings *services.RatingService) *OutboxWorker {
	return &OutboxWorker{Ratings: ratings}
}

// Start runs the sweep until ctx is cancelled. Blocks.
func (w *OutboxWorker) Start(ctx context.Context) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		log.Printf("[outbox] scheduler init failed: %v", err)
		return
	}
	sched.Start()

	_, err = sched.NewJob(
		gocron.DurationJob(sweepInterval),
		gocron.NewTask(func() {
			w.Ratings.DeliverOutbox(sweepBatch)
		}),
	)
	if err != nil {
		log.Printf("[outbox] job registration failed: %v", err)
	}

	// Catch up once at boot before the first tick.
	w.Ratings.DeliverOutbox(sweepBatch)

	<-ctx.Done()
	if err := sched.Shutdown(); err != nil {
		log.Printf("[outbox] scheduler shutdown: %v", err)
	}
	log.Println("Outbox worker stopped.")
}
