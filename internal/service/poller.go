package service

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"thermal_printer/internal/logger"
)

// DefaultPollInterval is how often printers are re-checked.
const DefaultPollInterval = 5 * time.Minute

const defaultPollConcurrency = 8

// PollerService refreshes all registered printers on a ticker.
type PollerService struct {
	registry    *Registry
	concurrency int
	log         *logger.Logger
}

// NewPollerService returns a poller refreshing at most concurrency printers
// at a time.
func NewPollerService(registry *Registry, concurrency int, log *logger.Logger) *PollerService {
	if concurrency <= 0 {
		concurrency = defaultPollConcurrency
	}
	return &PollerService{registry: registry, concurrency: concurrency, log: logger.OrNop(log)}
}

// Run refreshes once right away, then every interval until ctx is canceled.
func (p *PollerService) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	p.RefreshAll(ctx)

	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			p.RefreshAll(ctx)
		}
	}
}

// RefreshAll updates every printer concurrently. A slow printer only holds
// its own slot until its controller timeout.
func (p *PollerService) RefreshAll(ctx context.Context) {
	controllers := p.registry.All()
	if len(controllers) == 0 {
		return
	}

	var (
		g      errgroup.Group
		online = make([]bool, len(controllers))
	)
	g.SetLimit(p.concurrency)
	for i, c := range controllers {
		g.Go(func() error {
			online[i] = c.UpdateStatus(ctx)
			return nil
		})
	}
	_ = g.Wait()

	up := 0
	for _, ok := range online {
		if ok {
			up++
		}
	}
	p.log.Debugw("printers_polled", "total", len(controllers), "online", up)
}
