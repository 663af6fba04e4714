package domain

type GlobalMetrics struct {
	ActiveAgents      int
	TotalAgents       int
	CollaborationHeat float64
	TotalTokens       int64
	TokenRate         float64
	UsageDegraded     bool
}

// ComputeMetrics derives fleet metrics from the agent map and token series.
func ComputeMetrics(agents map[AgentID]*VisualAgent, tokens []TokenSnapshot) GlobalMetrics {
	metrics := GlobalMetrics{TotalAgents: len(agents)}
	for _, agent := range agents {
		if agent.Status.Active() {
			metrics.ActiveAgents++
		}
	}

	if metrics.TotalAgents > 0 {
		heat := float64(metrics.ActiveAgents) / float64(metrics.TotalAgents) * 100
		metrics.CollaborationHeat = min(heat, 100)
	}

	if n := len(tokens); n > 0 {
		last := tokens[n-1]
		metrics.TotalTokens = last.TotalTokens
		metrics.UsageDegraded = last.Estimated
		if n > 1 {
			prev := tokens[n-2]
			if elapsed := last.Timestamp.Sub(prev.Timestamp).Minutes(); elapsed > 0 {
				metrics.TokenRate = max(float64(last.TotalTokens-prev.TotalTokens)/elapsed, 0)
			}
		}
	}

	return metrics
}
