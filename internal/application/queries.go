package application

import (
	"time"

	"github.com/bnema/clawsync/internal/domain"
)

// Snapshot is an immutable, deep-copied view of the store. Version increases
// with every published mutation.
type Snapshot struct {
	Version       uint64
	Agents        []domain.VisualAgent
	Links         []domain.CollaborationLink
	Meetings      []domain.MeetingGroup
	History       []domain.EventHistoryItem
	Metrics       domain.GlobalMetrics
	Tokens        []domain.TokenSnapshot
	AgentCosts    map[domain.AgentID]float64
	Connection    domain.ConnectionState
	Health        *domain.HealthSnapshot
	Presence      []domain.PresenceEntry
	LastHeartbeat time.Time
	SelectedAgent domain.AgentID
	Preferences   domain.Preferences
}

func (s Snapshot) Agent(id domain.AgentID) (domain.VisualAgent, bool) {
	for _, agent := range s.Agents {
		if agent.ID == id {
			return agent, true
		}
	}
	return domain.VisualAgent{}, false
}

// LatestTokens returns the newest usage sample, if any.
func (s Snapshot) LatestTokens() (domain.TokenSnapshot, bool) {
	if len(s.Tokens) == 0 {
		return domain.TokenSnapshot{}, false
	}
	return s.Tokens[len(s.Tokens)-1], true
}

// TotalCost sums the per-agent cost map.
func (s Snapshot) TotalCost() float64 {
	total := 0.0
	for _, cost := range s.AgentCosts {
		total += cost
	}
	return total
}
