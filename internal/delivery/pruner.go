package delivery

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Pruner periodically removes delivery records older than the configured TTL.
// A zero TTL disables pruning entirely (records live for the process).
type Pruner struct {
	store    Store
	ttl      time.Duration
	schedule string
	logger   *slog.Logger

	cron    *cron.Cron
	running sync.Mutex
}

// NewPruner creates a Pruner. schedule is a five-field cron expression or a
// descriptor like @hourly.
func NewPruner(store Store, ttl time.Duration, schedule string, logger *slog.Logger) *Pruner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pruner{
		store:    store,
		ttl:      ttl,
		schedule: schedule,
		logger:   logger,
	}
}

// Start registers the prune job and begins the schedule. It is a no-op when
// the TTL is zero.
func (p *Pruner) Start() error {
	if p.ttl <= 0 {
		return nil
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	p.cron = cron.New(cron.WithParser(parser))

	_, err := p.cron.AddFunc(p.schedule, func() {
		// If the previous tick is still running, skip this one.
		if !p.running.TryLock() {
			p.logger.Warn("delivery prune still running, skipping tick")
			return
		}
		defer p.running.Unlock()

		removed, err := p.store.Prune(time.Now().Add(-p.ttl))
		if err != nil {
			p.logger.Error("delivery prune failed", "error", err)
			return
		}
		if removed > 0 {
			p.logger.Info("delivery records pruned", "removed", removed, "ttl", p.ttl)
		}
	})
	if err != nil {
		return fmt.Errorf("delivery: invalid prune schedule %q: %w", p.schedule, err)
	}

	p.cron.Start()
	return nil
}

// Stop halts the schedule and waits for a running prune to finish.
func (p *Pruner) Stop() {
	if p.cron == nil {
		return
	}
	<-p.cron.Stop().Done()
}
