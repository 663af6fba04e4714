package domain

import (
	"fmt"
	"time"
)

const (
	MaxTokenSnapshots = 30

	// EstimatedTokensPerToolEvent is the fixed weight the degraded estimator
	// assigns to each recent tool event.
	EstimatedTokensPerToolEvent = 250
	EstimateWindow              = 5 * time.Minute
)

// UsageStatus is the Gateway's usage-status answer.
type UsageStatus struct {
	InputTokens       int64
	OutputTokens      int64
	CachedInputTokens int64
	ByAgent           map[AgentID]int64
}

// BlendedTotal returns InputTokens + CachedInputTokens + OutputTokens.
func (u UsageStatus) BlendedTotal() int64 {
	return u.InputTokens + u.OutputTokens + u.CachedInputTokens
}

type UsageCost struct {
	TotalCost float64
	Currency  string
	ByAgent   map[AgentID]float64
}

type TokenSnapshot struct {
	Timestamp    time.Time
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
	ByAgent      map[AgentID]int64
	// Estimated marks a sample synthesized from event history while the
	// usage RPC is failing.
	Estimated bool
}

func (s TokenSnapshot) TotalCompact() string {
	return compactNumber(s.TotalTokens)
}

func SnapshotFromUsage(at time.Time, usage UsageStatus) TokenSnapshot {
	byAgent := make(map[AgentID]int64, len(usage.ByAgent))
	for id, tokens := range usage.ByAgent {
		byAgent[id] = tokens
	}

	return TokenSnapshot{
		Timestamp:    at,
		InputTokens:  usage.InputTokens + usage.CachedInputTokens,
		OutputTokens: usage.OutputTokens,
		TotalTokens:  usage.BlendedTotal(),
		ByAgent:      byAgent,
	}
}

// AppendTokenSnapshot appends and keeps the newest MaxTokenSnapshots samples.
func AppendTokenSnapshot(series []TokenSnapshot, snapshot TokenSnapshot) []TokenSnapshot {
	series = append(series, snapshot)
	if overflow := len(series) - MaxTokenSnapshots; overflow > 0 {
		series = append(series[:0:0], series[overflow:]...)
	}
	return series
}

// EstimateTokens approximates usage from recent tool activity. It is only
// used when the usage RPC keeps failing.
func EstimateTokens(history *EventHistory, now time.Time) int64 {
	toolEvents := history.CountSince(StreamTool, now.Add(-EstimateWindow))
	return int64(toolEvents) * EstimatedTokensPerToolEvent
}

func compactNumber(v int64) string {
	if v < 1_000 {
		return fmt.Sprintf("%d", v)
	}

	if v < 1_000_000 {
		return fmt.Sprintf("%.1fk", float64(v)/1_000)
	}

	return fmt.Sprintf("%.1fM", float64(v)/1_000_000)
}
