package gateway

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/bnema/clawsync/internal/domain"
)

type agentEventPayload struct {
	RunID      string          `json:"runId"`
	Seq        int64           `json:"seq"`
	Stream     string          `json:"stream"`
	Ts         int64           `json:"ts"`
	SessionKey string          `json:"sessionKey"`
	Data       json.RawMessage `json:"data"`
}

type streamFields struct {
	Phase      string         `json:"phase"`
	Name       string         `json:"name"`
	ToolCallID string         `json:"toolCallId"`
	Args       map[string]any `json:"args"`
	Text       string         `json:"text"`
	Delta      string         `json:"delta"`
	Message    string         `json:"message"`
	Error      string         `json:"error"`
}

// DecodeAgentEvent turns an agent event payload into the domain union. Fields
// of the wrong type degrade to zero values instead of failing the event.
func DecodeAgentEvent(payload json.RawMessage, now time.Time) (domain.AgentEvent, error) {
	var raw agentEventPayload
	if err := json.Unmarshal(payload, &raw); err != nil {
		return domain.AgentEvent{}, fmt.Errorf("decode agent event: %w", err)
	}

	var fields streamFields
	if len(raw.Data) > 0 {
		// A malformed data object leaves the defaults in place.
		_ = json.Unmarshal(raw.Data, &fields)
	}

	event := domain.AgentEvent{
		RunID:      raw.RunID,
		Seq:        raw.Seq,
		SessionKey: raw.SessionKey,
		Timestamp:  millisOr(raw.Ts, now),
	}

	switch domain.Stream(raw.Stream) {
	case domain.StreamLifecycle:
		event.Data = domain.LifecycleData{Phase: fields.Phase}
	case domain.StreamTool:
		event.Data = domain.ToolData{
			Phase:  fields.Phase,
			Name:   fields.Name,
			CallID: fields.ToolCallID,
			Args:   fields.Args,
		}
	case domain.StreamAssistant:
		text := fields.Text
		if text == "" {
			text = fields.Delta
		}
		event.Data = domain.AssistantData{Text: text}
	case domain.StreamError:
		message := fields.Message
		if message == "" {
			message = fields.Error
		}
		event.Data = domain.ErrorData{Message: message}
	default:
		event.Data = domain.UnknownData{Name: raw.Stream}
	}

	return event, nil
}

type chatPayload struct {
	RunID      string `json:"runId"`
	SessionKey string `json:"sessionKey"`
	Seq        int64  `json:"seq"`
	State      string `json:"state"`
	Ts         int64  `json:"ts"`
	Message    struct {
		Text    string `json:"text"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"message"`
	ErrorMessage string `json:"errorMessage"`
}

func DecodeChatEvent(payload json.RawMessage, now time.Time) (domain.ChatEvent, error) {
	var raw chatPayload
	if err := json.Unmarshal(payload, &raw); err != nil {
		return domain.ChatEvent{}, fmt.Errorf("decode chat event: %w", err)
	}

	text := raw.Message.Text
	for _, part := range raw.Message.Content {
		if part.Type == "text" && part.Text != "" {
			text += part.Text
		}
	}
	if domain.ChatState(raw.State) == domain.ChatStateError && raw.ErrorMessage != "" {
		text = raw.ErrorMessage
	}

	return domain.ChatEvent{
		RunID:      raw.RunID,
		SessionKey: raw.SessionKey,
		Seq:        raw.Seq,
		State:      domain.ChatState(raw.State),
		Text:       text,
		Timestamp:  millisOr(raw.Ts, now),
	}, nil
}

type cronPayload struct {
	JobID  string `json:"jobId"`
	Action string `json:"action"`
	Status string `json:"status"`
	Ts     int64  `json:"ts"`
}

func DecodeCronEvent(payload json.RawMessage, now time.Time) (domain.CronEvent, error) {
	var raw cronPayload
	if err := json.Unmarshal(payload, &raw); err != nil {
		return domain.CronEvent{}, fmt.Errorf("decode cron event: %w", err)
	}
	return domain.CronEvent{
		JobID:     raw.JobID,
		Action:    raw.Action,
		Status:    raw.Status,
		Timestamp: millisOr(raw.Ts, now),
	}, nil
}

type healthPayload struct {
	OK bool  `json:"ok"`
	Ts int64 `json:"ts"`
}

func DecodeHealth(payload json.RawMessage, now time.Time) (domain.HealthSnapshot, error) {
	var raw healthPayload
	if err := json.Unmarshal(payload, &raw); err != nil {
		return domain.HealthSnapshot{}, fmt.Errorf("decode health event: %w", err)
	}
	return domain.HealthSnapshot{OK: raw.OK, At: millisOr(raw.Ts, now)}, nil
}

type presenceEntryPayload struct {
	Host   string `json:"host"`
	Mode   string `json:"mode"`
	Reason string `json:"reason"`
	Ts     int64  `json:"ts"`
}

// DecodePresence accepts either a bare list or an object with a presence list.
func DecodePresence(payload json.RawMessage, now time.Time) ([]domain.PresenceEntry, error) {
	var list []presenceEntryPayload
	if err := json.Unmarshal(payload, &list); err != nil {
		var wrapped struct {
			Presence []presenceEntryPayload `json:"presence"`
		}
		if err := json.Unmarshal(payload, &wrapped); err != nil {
			return nil, fmt.Errorf("decode presence event: %w", err)
		}
		list = wrapped.Presence
	}

	entries := make([]domain.PresenceEntry, 0, len(list))
	for _, item := range list {
		entries = append(entries, domain.PresenceEntry{
			Host:     item.Host,
			Mode:     item.Mode,
			Reason:   item.Reason,
			LastSeen: millisOr(item.Ts, now),
		})
	}
	return entries, nil
}

func DecodeHeartbeat(payload json.RawMessage, now time.Time) time.Time {
	var raw struct {
		Ts int64 `json:"ts"`
	}
	if len(payload) > 0 {
		_ = json.Unmarshal(payload, &raw)
	}
	return millisOr(raw.Ts, now)
}

type agentsPayload struct {
	Agents []struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		Identity struct {
			Name string `json:"name"`
		} `json:"identity"`
	} `json:"agents"`
}

func decodeAgents(payload json.RawMessage) ([]domain.AgentSummary, error) {
	var raw agentsPayload
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("decode agents list: %w", err)
	}

	agents := make([]domain.AgentSummary, 0, len(raw.Agents))
	for _, item := range raw.Agents {
		if item.ID == "" {
			continue
		}
		name := item.Name
		if name == "" {
			name = item.Identity.Name
		}
		if name == "" {
			name = item.ID
		}
		agents = append(agents, domain.AgentSummary{ID: domain.AgentID(item.ID), Name: name})
	}
	return agents, nil
}

type sessionsPayload struct {
	Sessions []struct {
		Key                 string `json:"key"`
		Label               string `json:"label"`
		AgentID             string `json:"agentId"`
		RequesterSessionKey string `json:"requesterSessionKey"`
		SpawnedBy           string `json:"spawnedBy"`
		UpdatedAt           int64  `json:"updatedAt"`
	} `json:"sessions"`
}

func decodeSessions(payload json.RawMessage) ([]domain.SessionInfo, error) {
	var raw sessionsPayload
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("decode sessions list: %w", err)
	}

	sessions := make([]domain.SessionInfo, 0, len(raw.Sessions))
	for _, item := range raw.Sessions {
		if item.Key == "" {
			continue
		}
		requester := item.RequesterSessionKey
		if requester == "" {
			requester = item.SpawnedBy
		}
		sessions = append(sessions, domain.SessionInfo{
			Key:                 item.Key,
			Label:               item.Label,
			AgentID:             domain.AgentID(item.AgentID),
			RequesterSessionKey: requester,
			UpdatedAt:           millisOr(item.UpdatedAt, time.Time{}),
		})
	}
	return sessions, nil
}

type usageStatusPayload struct {
	InputTokens       int64            `json:"inputTokens"`
	OutputTokens      int64            `json:"outputTokens"`
	CachedInputTokens int64            `json:"cachedInputTokens"`
	ByAgent           map[string]int64 `json:"byAgent"`
}

func decodeUsageStatus(payload json.RawMessage) (domain.UsageStatus, error) {
	var raw usageStatusPayload
	if err := json.Unmarshal(payload, &raw); err != nil {
		return domain.UsageStatus{}, fmt.Errorf("decode usage status: %w", err)
	}

	byAgent := make(map[domain.AgentID]int64, len(raw.ByAgent))
	for id, tokens := range raw.ByAgent {
		byAgent[domain.AgentID(id)] = tokens
	}
	return domain.UsageStatus{
		InputTokens:       raw.InputTokens,
		OutputTokens:      raw.OutputTokens,
		CachedInputTokens: raw.CachedInputTokens,
		ByAgent:           byAgent,
	}, nil
}

type usageCostPayload struct {
	TotalCost float64            `json:"totalCost"`
	Currency  string             `json:"currency"`
	ByAgent   map[string]float64 `json:"byAgent"`
}

func decodeUsageCost(payload json.RawMessage) (domain.UsageCost, error) {
	var raw usageCostPayload
	if err := json.Unmarshal(payload, &raw); err != nil {
		return domain.UsageCost{}, fmt.Errorf("decode usage cost: %w", err)
	}

	byAgent := make(map[domain.AgentID]float64, len(raw.ByAgent))
	for id, cost := range raw.ByAgent {
		byAgent[domain.AgentID(id)] = cost
	}
	currency := raw.Currency
	if currency == "" {
		currency = "USD"
	}
	return domain.UsageCost{TotalCost: raw.TotalCost, Currency: currency, ByAgent: byAgent}, nil
}

func millisOr(ms int64, fallback time.Time) time.Time {
	if ms <= 0 {
		return fallback
	}
	return time.UnixMilli(ms).UTC()
}
