package jobs

import (
	"context"
	"log"
	"time"

	"genlayer-market/internal/services"
)

// StatusJob periodically sweeps open markets whose advertised end time has
// passed and advances them to ended. Database-only; the bridge re-checks the
// on-chain end time when resolution runs.
type StatusJob struct {
	coordinator *services.Coordinator
	stop        chan struct{}
}

// NewStatusJob creates a new status sweep job
func NewStatusJob(coordinator *services.Coordinator) *StatusJob {
	return &StatusJob{
		coordinator: coordinator,
		stop:        make(chan struct{}),
	}
}

// Start begins the periodic sweep
func (j *StatusJob) Start(interval time.Duration) {
	log.Printf("[StatusJob] Starting market status sweep (interval: %v)", interval)

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		j.run()

		for {
			select {
			case <-ticker.C:
				j.run()
			case <-j.stop:
				log.Println("[StatusJob] Stopped")
				return
			}
		}
	}()
}

// Stop halts the sweep
func (j *StatusJob) Stop() {
	close(j.stop)
}

func (j *StatusJob) run() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	ended, err := j.coordinator.EndExpiredMarkets(ctx)
	if err != nil {
		log.Printf("[StatusJob] Sweep failed: %v", err)
		return
	}
	if ended > 0 {
		log.Printf("[StatusJob] Ended %d expired markets", ended)
	}
}
