package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultPollInterval is how often summaries and counts are re-fetched when
// no interval is configured.
const DefaultPollInterval = 10 * time.Second

// Poller keeps the store's summaries and counts fresh on a fixed interval
// while the conversation view is mounted. Ticks are independent and never
// touch the active thread; once stopped, in-flight tick results are dropped
// through context cancellation.
type Poller struct {
	store    *Store
	interval time.Duration
	logger   *zap.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

// NewPoller builds a poller over the store.
func NewPoller(store *Store, interval time.Duration, logger *zap.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{store: store, interval: interval, logger: logger}
}

// Start launches the poll loop. One immediate tick runs before the first
// interval elapses so a freshly mounted view is not empty for a full period.
// Starting an already-running poller is a no-op.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	p.running = true

	go p.run(ctx)
}

func (p *Poller) run(ctx context.Context) {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

func (p *Poller) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	filter := p.store.Filter()
	p.store.LoadSummaries(ctx, filter)
	p.store.LoadCounts(ctx)
	if p.logger != nil {
		p.logger.Debug("poll tick", zap.String("filter", string(filter)))
	}
}

// Stop cancels the loop and waits for the current tick to finish. Safe to
// call more than once.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel := p.cancel
	done := p.done
	p.running = false
	p.cancel = nil
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}
