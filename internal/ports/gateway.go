package ports

import (
	"context"
	"time"

	"github.com/bnema/clawsync/internal/domain"
)

// GatewayAPI is the typed RPC surface the pollers and roster loader call.
type GatewayAPI interface {
	ListAgents(ctx context.Context) ([]domain.AgentSummary, error)
	ListSessions(ctx context.Context) ([]domain.SessionInfo, error)
	UsageStatus(ctx context.Context) (domain.UsageStatus, error)
	UsageCost(ctx context.Context) (domain.UsageCost, error)
}

// EventFeed delivers decoded Gateway events. Every On* call returns a
// function that removes the handler.
type EventFeed interface {
	OnAgentEvent(handler func(domain.AgentEvent)) func()
	OnChatEvent(handler func(domain.ChatEvent)) func()
	OnCronEvent(handler func(domain.CronEvent)) func()
	OnHealth(handler func(domain.HealthSnapshot)) func()
	OnPresence(handler func([]domain.PresenceEntry)) func()
	OnHeartbeat(handler func(time.Time)) func()
	OnStatusChange(handler func(domain.ConnectionStatus, string)) func()
}
