package application

import (
	"context"
	"sync"
	"time"

	"github.com/bnema/clawsync/internal/domain"
	"github.com/bnema/clawsync/internal/ports"
	"go.uber.org/zap"
)

type EngineConfig struct {
	SessionsInterval time.Duration
	UsageInterval    time.Duration
	Quiescence       time.Duration
	Clock            ports.Clock
	Logger           *zap.Logger
}

// Engine connects the event feed and the pollers to the store. Pollers only
// run while the connection is up; the roster is reloaded on every connect.
// An Engine cannot be restarted once stopped.
type Engine struct {
	feed     ports.EventFeed
	api      ports.GatewayAPI
	store    *Store
	batcher  *Batcher[domain.AgentEvent]
	sessions *SubAgentPoller
	usage    *UsagePoller
	logger   *zap.Logger

	mu          sync.Mutex
	ctx         context.Context
	cancel      context.CancelFunc
	connGen     uint64
	unsubscribe []func()
	stopped     bool
	wg          sync.WaitGroup
}

func NewEngine(feed ports.EventFeed, api ports.GatewayAPI, store *Store, cfg EngineConfig) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	engine := &Engine{
		feed:     feed,
		api:      api,
		store:    store,
		sessions: NewSubAgentPoller(api, store, cfg.SessionsInterval, logger),
		usage:    NewUsagePoller(api, store, cfg.Clock, cfg.UsageInterval, logger),
		logger:   logger.Named("engine"),
	}
	engine.batcher = NewBatcher(BatcherConfig[domain.AgentEvent]{
		Quiescence:  cfg.Quiescence,
		Immediate:   ImmediateAgentEvent,
		OnBatch:     store.ApplyAgentEvents,
		OnImmediate: store.ApplyAgentEvent,
	})
	return engine
}

// Start subscribes to the feed. The context bounds every RPC the engine and
// its pollers issue.
func (e *Engine) Start(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ctx != nil || e.stopped {
		return
	}
	e.ctx, e.cancel = context.WithCancel(ctx)

	e.unsubscribe = []func(){
		e.feed.OnAgentEvent(e.batcher.Push),
		e.feed.OnChatEvent(e.store.ApplyChatEvent),
		e.feed.OnCronEvent(e.store.RecordCron),
		e.feed.OnHealth(e.store.SetHealth),
		e.feed.OnPresence(e.store.SetPresence),
		e.feed.OnHeartbeat(e.store.MarkHeartbeat),
		e.feed.OnStatusChange(e.handleStatus),
	}
}

// Stop unsubscribes, stops the pollers and drops unflushed events. It is safe
// to call more than once.
func (e *Engine) Stop() {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return
	}
	e.stopped = true
	e.connGen++
	unsubscribe := e.unsubscribe
	e.unsubscribe = nil
	cancel := e.cancel
	e.mu.Unlock()

	for _, fn := range unsubscribe {
		fn()
	}
	if cancel != nil {
		cancel()
	}
	e.batcher.Destroy()
	e.sessions.Stop()
	e.usage.Stop()
	e.wg.Wait()
}

func (e *Engine) handleStatus(status domain.ConnectionStatus, errMsg string) {
	e.store.SetConnectionStatus(status, errMsg)

	e.mu.Lock()
	e.connGen++
	gen := e.connGen
	ctx := e.ctx
	stopped := e.stopped
	if status == domain.ConnectionConnected && !stopped && ctx != nil {
		e.wg.Add(1)
	}
	e.mu.Unlock()

	e.sessions.Stop()
	e.usage.Stop()

	if status != domain.ConnectionConnected || stopped || ctx == nil {
		return
	}

	// The roster RPC needs the socket read loop this handler may be running on.
	go func() {
		defer e.wg.Done()
		e.onConnected(ctx, gen)
	}()
}

func (e *Engine) onConnected(ctx context.Context, gen uint64) {
	roster, err := e.api.ListAgents(ctx)
	switch {
	case err != nil:
		if ctx.Err() == nil {
			e.logger.Warn("load roster failed", zap.Error(err))
		}
	default:
		e.store.InitAgents(roster)
		e.logger.Info("roster loaded", zap.Int("agents", len(roster)))
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.connGen || ctx.Err() != nil {
		return
	}
	e.sessions.Start(ctx)
	e.usage.Start(ctx)
}
