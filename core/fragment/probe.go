package fragment

import (
	"context"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Probe watches an origin and reports when it comes back online.
type Probe struct {
	url      string
	interval time.Duration
	timeout  time.Duration
	client   *http.Client
	logger   *zap.Logger

	mu     sync.Mutex
	online bool
	known  bool
}

// DefaultProbeInterval is used when NewProbe is given a non-positive interval.
const DefaultProbeInterval = 5 * time.Second

// NewProbe creates a probe polling url every interval.
func NewProbe(url string, interval time.Duration, client *http.Client, logger *zap.Logger) *Probe {
	if interval <= 0 {
		interval = DefaultProbeInterval
	}
	if client == nil {
		client = &http.Client{Transport: newTransport()}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := interval
	if timeout <= 0 || timeout > DefaultTimeout {
		timeout = DefaultTimeout
	}
	return &Probe{
		url:      url,
		interval: interval,
		timeout:  timeout,
		client:   client,
		logger:   logger,
	}
}

// Check issues a HEAD request. Any response below 500 counts as online.
func (p *Probe) Check(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.url, nil)
	if err != nil {
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode < http.StatusInternalServerError
}

// Run polls until ctx is done, calling onRestored on every offline to online transition.
// The first observation only records the initial state.
func (p *Probe) Run(ctx context.Context, onRestored func(context.Context)) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		if p.observe(p.Check(ctx)) {
			p.logger.Info("Origin reachable again", zap.String("url", p.url))
			onRestored(ctx)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// observe records the latest result and reports whether it is a restoration.
func (p *Probe) observe(online bool) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	restored := p.known && !p.online && online
	if p.known && p.online && !online {
		p.logger.Warn("Origin unreachable", zap.String("url", p.url))
	}
	p.online = online
	p.known = true
	return restored
}
