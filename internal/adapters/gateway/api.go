package gateway

import (
	"context"
	"fmt"

	"github.com/bnema/clawsync/internal/domain"
	"github.com/bnema/clawsync/internal/ports"
)

// Methods names the Gateway RPCs the API calls. The names belong to the
// Gateway deployment, so they are configurable.
type Methods struct {
	Agents      string
	Sessions    string
	UsageStatus string
	UsageCost   string
}

func DefaultMethods() Methods {
	return Methods{
		Agents:      "agents.list",
		Sessions:    "sessions.list",
		UsageStatus: "usage.status",
		UsageCost:   "usage.cost",
	}
}

// API is the typed RPC surface over a Client.
type API struct {
	client  *Client
	methods Methods
}

var _ ports.GatewayAPI = (*API)(nil)

func NewAPI(client *Client, methods Methods) *API {
	defaults := DefaultMethods()
	if methods.Agents == "" {
		methods.Agents = defaults.Agents
	}
	if methods.Sessions == "" {
		methods.Sessions = defaults.Sessions
	}
	if methods.UsageStatus == "" {
		methods.UsageStatus = defaults.UsageStatus
	}
	if methods.UsageCost == "" {
		methods.UsageCost = defaults.UsageCost
	}
	return &API{client: client, methods: methods}
}

func (a *API) ListAgents(ctx context.Context) ([]domain.AgentSummary, error) {
	payload, err := a.client.Request(ctx, a.methods.Agents, struct{}{})
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	return decodeAgents(payload)
}

func (a *API) ListSessions(ctx context.Context) ([]domain.SessionInfo, error) {
	payload, err := a.client.Request(ctx, a.methods.Sessions, struct{}{})
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return decodeSessions(payload)
}

func (a *API) UsageStatus(ctx context.Context) (domain.UsageStatus, error) {
	payload, err := a.client.Request(ctx, a.methods.UsageStatus, struct{}{})
	if err != nil {
		return domain.UsageStatus{}, fmt.Errorf("usage status: %w", err)
	}
	return decodeUsageStatus(payload)
}

func (a *API) UsageCost(ctx context.Context) (domain.UsageCost, error) {
	payload, err := a.client.Request(ctx, a.methods.UsageCost, struct{}{})
	if err != nil {
		return domain.UsageCost{}, fmt.Errorf("usage cost: %w", err)
	}
	return decodeUsageCost(payload)
}
