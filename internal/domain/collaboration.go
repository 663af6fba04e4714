package domain

import "time"

const (
	LinkInitialStrength = 0.3
	LinkStrengthStep    = 0.1
	LinkStaleAfter      = 60 * time.Second
)

// CollaborationLink is an undirected edge between two agents within one session.
type CollaborationLink struct {
	SourceID       AgentID
	TargetID       AgentID
	SessionKey     string
	Strength       float64
	LastActivityAt time.Time
}

func (l CollaborationLink) Connects(a, b AgentID) bool {
	return (l.SourceID == a && l.TargetID == b) || (l.SourceID == b && l.TargetID == a)
}

func (l CollaborationLink) Involves(id AgentID) bool {
	return l.SourceID == id || l.TargetID == id
}

func (l CollaborationLink) IsStale(now time.Time) bool {
	return now.Sub(l.LastActivityAt) >= LinkStaleAfter
}

// UpdateCollaborationLinks strengthens or creates a link between agentID and
// every other agent already registered under sessionKey.
func UpdateCollaborationLinks(links []CollaborationLink, sessionAgents []AgentID, agentID AgentID, sessionKey string, now time.Time) []CollaborationLink {
	if sessionKey == "" {
		return links
	}

	for _, other := range sessionAgents {
		if other == agentID {
			continue
		}

		found := false
		for i := range links {
			if links[i].SessionKey != sessionKey || !links[i].Connects(agentID, other) {
				continue
			}
			links[i].LastActivityAt = now
			links[i].Strength = min(links[i].Strength+LinkStrengthStep, 1)
			found = true
			break
		}

		if !found {
			links = append(links, CollaborationLink{
				SourceID:       other,
				TargetID:       agentID,
				SessionKey:     sessionKey,
				Strength:       LinkInitialStrength,
				LastActivityAt: now,
			})
		}
	}

	return links
}

// PruneStaleLinks returns the links still inside the staleness window,
// keeping their order. The input slice is not modified.
func PruneStaleLinks(links []CollaborationLink, now time.Time) []CollaborationLink {
	kept := make([]CollaborationLink, 0, len(links))
	for _, link := range links {
		if link.IsStale(now) {
			continue
		}
		kept = append(kept, link)
	}
	return kept
}

// RemoveAgentLinks drops every link touching id.
func RemoveAgentLinks(links []CollaborationLink, id AgentID) []CollaborationLink {
	kept := make([]CollaborationLink, 0, len(links))
	for _, link := range links {
		if link.Involves(id) {
			continue
		}
		kept = append(kept, link)
	}
	return kept
}
