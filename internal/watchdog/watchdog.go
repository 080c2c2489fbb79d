package watchdog

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"careline-service/internal/observability"
	"careline-service/internal/repositories"
	"careline-service/internal/telemetry"
)

// Watchdog periodically counts emergencies that have been open longer than
// the configured threshold and reports them through the metrics gauge and
// the audit trail. It observes only; redelivery stays with the push
// provider.
type Watchdog struct {
	repo      repositories.EmergencyRepository
	audit     *telemetry.AuditEmitter
	threshold time.Duration
	cron      *cron.Cron
}

// New builds a Watchdog.
func New(repo repositories.EmergencyRepository, audit *telemetry.AuditEmitter, threshold time.Duration) *Watchdog {
	return &Watchdog{repo: repo, audit: audit, threshold: threshold}
}

// Start schedules the sweep. The schedule uses cron syntax, e.g. "@every 5m".
func (w *Watchdog) Start(schedule string) error {
	w.cron = cron.New()
	if _, err := w.cron.AddFunc(schedule, w.Sweep); err != nil {
		return err
	}
	w.cron.Start()
	return nil
}

// Stop halts the scheduler and waits for a running sweep to finish.
func (w *Watchdog) Stop() {
	if w.cron != nil {
		<-w.cron.Stop().Done()
	}
}

// Sweep runs one stale-emergency check.
func (w *Watchdog) Sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cutoff := time.Now().UTC().Add(-w.threshold)
	count, err := w.repo.CountOpenOlderThan(ctx, cutoff)
	if err != nil {
		log.Printf("watchdog sweep failed: %v", err)
		return
	}

	observability.SetStaleOpenEmergencies(count)
	if count > 0 {
		log.Printf("watchdog: %d emergencies open longer than %s", count, w.threshold)
		w.audit.Emit(ctx, "WARN", fmt.Sprintf("%d emergencies open longer than %s", count, w.threshold), "", nil)
	}
}
