package application

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bnema/clawsync/internal/domain"
	"github.com/bnema/clawsync/internal/ports"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultSessionsInterval = 3 * time.Second
	DefaultUsageInterval    = 60 * time.Second

	// DegradedAfterFailures is the number of consecutive usage failures after
	// which the store's estimator takes over.
	DegradedAfterFailures = 3
)

// pollLoop runs one cycle immediately and then every interval until stopped.
// At most one loop runs at a time.
type pollLoop struct {
	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func (l *pollLoop) start(ctx context.Context, interval time.Duration, cycle func(context.Context)) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		return false
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	l.cancel = cancel
	l.done = done

	go func() {
		defer close(done)
		cycle(ctx)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				cycle(ctx)
			}
		}
	}()
	return true
}

// stop cancels the loop and waits for the running cycle to return.
func (l *pollLoop) stop() {
	l.mu.Lock()
	cancel, done := l.cancel, l.done
	l.cancel, l.done = nil, nil
	l.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (l *pollLoop) running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cancel != nil
}

// SubAgentPoller mirrors the Gateway's sub-agent sessions into the store.
type SubAgentPoller struct {
	api      ports.GatewayAPI
	store    *Store
	interval time.Duration
	logger   *zap.Logger

	loop     pollLoop
	previous domain.SessionSnapshot
}

func NewSubAgentPoller(api ports.GatewayAPI, store *Store, interval time.Duration, logger *zap.Logger) *SubAgentPoller {
	if interval <= 0 {
		interval = DefaultSessionsInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubAgentPoller{api: api, store: store, interval: interval, logger: logger.Named("sessions")}
}

// Start begins polling. Calling Start on a running poller does nothing.
func (p *SubAgentPoller) Start(ctx context.Context) {
	if p.loop.running() {
		return
	}
	p.previous = domain.SessionSnapshot{}
	p.loop.start(ctx, p.interval, p.Poll)
}

func (p *SubAgentPoller) Stop() {
	p.loop.stop()
}

func (p *SubAgentPoller) Running() bool {
	return p.loop.running()
}

// Poll runs one reconciliation cycle. A failed listing skips the cycle.
func (p *SubAgentPoller) Poll(ctx context.Context) {
	sessions, err := p.api.ListSessions(ctx)
	if err != nil {
		if ctx.Err() == nil {
			p.logger.Warn("session poll failed", zap.Error(err))
		}
		return
	}

	p.store.IndexSessions(sessions)

	next := domain.NewSessionSnapshot(sessions)
	added, removed := p.previous.Diff(next, sessions)

	for _, session := range added {
		parent := p.resolveParent(session)
		id := p.store.AddSubAgent(session, parent)
		p.logger.Debug("sub-agent added",
			zap.String("agent", string(id)),
			zap.String("parent", string(parent)))
	}
	for _, session := range removed {
		err := p.store.RemoveAgent(domain.AgentID(session.Key))
		if err != nil && !errors.Is(err, domain.ErrAgentNotFound) {
			p.logger.Warn("remove sub-agent failed", zap.String("session", session.Key), zap.Error(err))
		}
	}

	p.previous = next
}

func (p *SubAgentPoller) resolveParent(session domain.SessionInfo) domain.AgentID {
	if id, ok := p.store.ResolveSessionAgent(session.RequesterSessionKey); ok {
		return id
	}
	if id, ok := p.store.FirstTopLevelAgent(); ok {
		return id
	}
	return ""
}

// UsagePoller pushes usage samples and agent costs into the store, and
// falls back to the history estimator when the usage RPC keeps failing.
type UsagePoller struct {
	api      ports.GatewayAPI
	store    *Store
	clock    ports.Clock
	interval time.Duration
	logger   *zap.Logger

	loop     pollLoop
	failures int
}

func NewUsagePoller(api ports.GatewayAPI, store *Store, clock ports.Clock, interval time.Duration, logger *zap.Logger) *UsagePoller {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if interval <= 0 {
		interval = DefaultUsageInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UsagePoller{api: api, store: store, clock: clock, interval: interval, logger: logger.Named("usage")}
}

func (p *UsagePoller) Start(ctx context.Context) {
	if p.loop.running() {
		return
	}
	p.failures = 0
	p.loop.start(ctx, p.interval, p.Poll)
}

func (p *UsagePoller) Stop() {
	p.loop.stop()
}

func (p *UsagePoller) Running() bool {
	return p.loop.running()
}

// Poll fetches usage status and cost concurrently. Cost is best-effort and
// never counts as a failure.
func (p *UsagePoller) Poll(ctx context.Context) {
	var (
		status  domain.UsageStatus
		cost    domain.UsageCost
		costErr error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		result, err := p.api.UsageStatus(gctx)
		if err != nil {
			return err
		}
		status = result
		return nil
	})
	g.Go(func() error {
		cost, costErr = p.api.UsageCost(gctx)
		return nil
	})

	if err := g.Wait(); err != nil {
		if ctx.Err() != nil {
			return
		}
		p.failures++
		p.logger.Warn("usage poll failed", zap.Int("consecutive_failures", p.failures), zap.Error(err))
		if p.failures >= DegradedAfterFailures {
			estimate := p.store.EstimateUsage()
			p.logger.Info("usage estimated from recent tool activity", zap.Int64("tokens", estimate.TotalTokens))
		}
		return
	}

	p.failures = 0
	p.store.PushTokenSnapshot(domain.SnapshotFromUsage(p.clock.Now(), status))

	if costErr != nil {
		p.logger.Debug("usage cost unavailable", zap.Error(costErr))
		return
	}
	p.store.SetAgentCosts(cost.ByAgent)
}
