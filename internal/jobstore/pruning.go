package jobstore

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"blogsmith/internal/domain"
)

// DefaultPruneGrace is how long a terminal job stays readable.
const DefaultPruneGrace = 30 * time.Second

// Pruning wraps a JobStore and deletes every job a grace period after a merge
// moves it into a terminal state.
type Pruning struct {
	domain.JobStore
	grace  time.Duration
	logger zerolog.Logger

	mu     sync.Mutex
	timers map[string]*time.Timer
	closed bool
}

// NewPruning decorates store. A non-positive grace uses DefaultPruneGrace.
func NewPruning(store domain.JobStore, grace time.Duration, logger zerolog.Logger) *Pruning {
	if grace <= 0 {
		grace = DefaultPruneGrace
	}
	return &Pruning{
		JobStore: store,
		grace:    grace,
		logger:   logger,
		timers:   make(map[string]*time.Timer),
	}
}

// Merge forwards to the wrapped store and schedules deletion for terminal patches.
func (p *Pruning) Merge(ctx context.Context, trackingID string, patch domain.JobPatch) error {
	if err := p.JobStore.Merge(ctx, trackingID, patch); err != nil {
		return err
	}
	if patch.Terminal() {
		p.schedule(trackingID)
	}
	return nil
}

// Delete cancels any pending prune timer before deleting.
func (p *Pruning) Delete(ctx context.Context, trackingID string) error {
	p.mu.Lock()
	if t, ok := p.timers[trackingID]; ok {
		t.Stop()
		delete(p.timers, trackingID)
	}
	p.mu.Unlock()
	return p.JobStore.Delete(ctx, trackingID)
}

// Pending reports how many deletions are scheduled.
func (p *Pruning) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.timers)
}

// Close stops all pending timers. Jobs left behind are removed by the janitor.
func (p *Pruning) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	for id, t := range p.timers {
		t.Stop()
		delete(p.timers, id)
	}
}

func (p *Pruning) schedule(trackingID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	if _, ok := p.timers[trackingID]; ok {
		return
	}
	p.timers[trackingID] = time.AfterFunc(p.grace, func() {
		p.mu.Lock()
		delete(p.timers, trackingID)
		p.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := p.JobStore.Delete(ctx, trackingID); err != nil {
			p.logger.Warn().Err(err).Str("tracking_id", trackingID).Msg("jobstore: prune failed")
			return
		}
		p.logger.Debug().Str("tracking_id", trackingID).Msg("jobstore: pruned terminal job")
	})
}

var _ domain.JobStore = (*Pruning)(nil)
