package scheduler

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sweedalp/smart-bookmark-app/internal/logger"
	"github.com/sweedalp/smart-bookmark-app/internal/metrics"
)

const (
	// DefaultProbeInterval is how often every component is pinged.
	DefaultProbeInterval = 15 * time.Second

	// DefaultProbeTimeout bounds a single ping.
	DefaultProbeTimeout = 2 * time.Second
)

// Check pings one backing component.
type Check func(ctx context.Context) error

// ComponentStatus is the last observed state of one component.
type ComponentStatus struct {
	Name      string    `json:"name"`
	Up        bool      `json:"up"`
	Error     string    `json:"error,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
	Latency   string    `json:"latency"`
}

// HealthProbe periodically pings backing components and caches the result
// for the readiness and infra endpoints.
type HealthProbe struct {
	checks   map[string]Check
	logger   logger.Logger
	interval time.Duration
	timeout  time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once

	mu     sync.RWMutex
	status map[string]ComponentStatus
}

// NewHealthProbe creates a probe for the given named checks.
func NewHealthProbe(
	checks map[string]Check,
	log logger.Logger,
	interval time.Duration,
	timeout time.Duration,
) *HealthProbe {
	if interval <= 0 {
		interval = DefaultProbeInterval
	}
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}

	return &HealthProbe{
		checks:   checks,
		logger:   log,
		interval: interval,
		timeout:  timeout,
		stopCh:   make(chan struct{}),
		status:   make(map[string]ComponentStatus, len(checks)),
	}
}

// Start runs one probe immediately, then probes on every tick until Stop
// is called or ctx ends.
func (p *HealthProbe) Start(ctx context.Context) error {
	p.Probe(ctx)

	ticker := time.NewTicker(p.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				p.Probe(ctx)
			case <-p.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the probe loop. Safe to call more than once.
func (p *HealthProbe) Stop() {
	p.stopOnce.Do(func() { close(p.stopCh) })
}

// Probe pings every component once and records the result.
func (p *HealthProbe) Probe(ctx context.Context) {
	for name, check := range p.checks {
		st := p.run(ctx, name, check)

		p.mu.Lock()
		prev, seen := p.status[name]
		p.status[name] = st
		p.mu.Unlock()

		metrics.SetComponentUp(name, st.Up)

		switch {
		case !st.Up && (!seen || prev.Up):
			p.logger.Warn("component is down",
				logger.String("component", name),
				logger.String("error", st.Error))
		case st.Up && seen && !prev.Up:
			p.logger.Info("component recovered",
				logger.String("component", name))
		}
	}
}

func (p *HealthProbe) run(ctx context.Context, name string, check Check) ComponentStatus {
	pctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	err := check(pctx)
	st := ComponentStatus{
		Name:      name,
		Up:        err == nil,
		CheckedAt: start,
		Latency:   time.Since(start).Round(time.Microsecond).String(),
	}
	if err != nil {
		st.Error = err.Error()
	}
	return st
}

// Snapshot returns the last status of every component, sorted by name.
// Components not probed yet are absent.
func (p *HealthProbe) Snapshot() []ComponentStatus {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]ComponentStatus, 0, len(p.status))
	for _, st := range p.status {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Ready reports whether every component was probed and is up.
func (p *HealthProbe) Ready() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if len(p.status) < len(p.checks) {
		return false
	}
	for _, st := range p.status {
		if !st.Up {
			return false
		}
	}
	return true
}
