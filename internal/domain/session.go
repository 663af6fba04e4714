package domain

import "time"

// SessionInfo is one entry of the Gateway's session listing.
type SessionInfo struct {
	Key                 string
	Label               string
	AgentID             AgentID
	RequesterSessionKey string
	UpdatedAt           time.Time
}

func (s SessionInfo) IsSubAgent() bool {
	return s.RequesterSessionKey != ""
}

func (s SessionInfo) DisplayName() string {
	if s.Label != "" {
		return s.Label
	}
	return "Sub-agent " + shortKey(s.Key)
}

// SessionSnapshot is the last-seen sub-agent session set, keyed by session key.
type SessionSnapshot map[string]SessionInfo

func NewSessionSnapshot(sessions []SessionInfo) SessionSnapshot {
	snapshot := make(SessionSnapshot, len(sessions))
	for _, session := range sessions {
		if !session.IsSubAgent() {
			continue
		}
		snapshot[session.Key] = session
	}
	return snapshot
}

// Diff reports sessions present in next but not in s, and the reverse.
// Both slices follow the order of the listing they came from where possible.
func (s SessionSnapshot) Diff(next SessionSnapshot, order []SessionInfo) (added, removed []SessionInfo) {
	for _, session := range order {
		if _, ok := next[session.Key]; !ok {
			continue
		}
		if _, ok := s[session.Key]; !ok {
			added = append(added, session)
		}
	}
	for key, session := range s {
		if _, ok := next[key]; !ok {
			removed = append(removed, session)
		}
	}
	return added, removed
}

func shortKey(key string) string {
	const n = 8
	runes := []rune(key)
	if len(runes) <= n {
		return key
	}
	return string(runes[len(runes)-n:])
}
