package health

import (
	"context"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/Merlito456/ospsurveyengine/internal/clock"
	"github.com/Merlito456/ospsurveyengine/internal/logging"
)

const DefaultInterval = 10 * time.Second

// Poller periodically probes the data directory and caches the latest
// estimate. Probe failures are logged and keep the previous estimate.
type Poller struct {
	path        string
	probe       Prober
	interval    time.Duration
	warnPercent float64
	clock       clock.Clock
	logger      logging.Logger

	mu     sync.RWMutex
	latest Estimate
	ok     bool
	warned bool
}

func NewPoller(path string, probe Prober, interval time.Duration, warnPercent float64, clk clock.Clock, logger logging.Logger) *Poller {
	if probe == nil {
		probe = Probe
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Poller{
		path:        path,
		probe:       probe,
		interval:    interval,
		warnPercent: warnPercent,
		clock:       clk,
		logger:      logger.With("component", "health", "path", path),
	}
}

// Latest returns the most recent estimate and whether one is available.
func (p *Poller) Latest() (Estimate, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.latest, p.ok
}

// Run polls until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) {
	p.Poll(ctx)

	t := p.clock.NewTicker(p.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			p.Poll(ctx)
		}
	}
}

// Poll takes one sample.
func (p *Poller) Poll(ctx context.Context) {
	est, err := p.probe(ctx, p.path)
	if err != nil {
		p.logger.Debug(ctx, "storage probe failed", "error", err)
		return
	}

	p.mu.Lock()
	p.latest, p.ok = est, true
	over := p.warnPercent > 0 && est.Percent() >= p.warnPercent
	notify := over && !p.warned
	p.warned = over
	p.mu.Unlock()

	if notify {
		p.logger.Warn(ctx, "storage nearly full",
			"used", humanize.IBytes(est.Used),
			"quota", humanize.IBytes(est.Quota),
			"percent", est.Percent())
	}
}
