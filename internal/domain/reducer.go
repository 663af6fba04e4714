package domain

// ApplyEventToAgent projects an intent onto a single agent record in place.
func ApplyEventToAgent(agent *VisualAgent, intent Intent) {
	if agent == nil {
		return
	}

	agent.Status = intent.Status
	agent.LastActiveAt = intent.At

	if intent.Tool != nil {
		tool := *intent.Tool
		agent.CurrentTool = &tool
	} else if intent.ClearTool {
		agent.CurrentTool = nil
	}

	if intent.Speech != nil {
		speech := *intent.Speech
		agent.SpeechBubble = &speech
	} else if intent.ClearSpeech {
		agent.SpeechBubble = nil
	}

	if intent.IncrementToolCount {
		agent.ToolCallCount++
		record := ToolCallRecord{StartedAt: intent.At}
		if intent.Tool != nil {
			record.Name = intent.Tool.Name
			record.StartedAt = intent.Tool.StartedAt
		}
		history := make([]ToolCallRecord, 0, MaxToolCallHistory)
		history = append(history, record)
		history = append(history, agent.ToolCallHistory...)
		if len(history) > MaxToolCallHistory {
			history = history[:MaxToolCallHistory]
		}
		agent.ToolCallHistory = history
	}

	if agent.RunID == "" && intent.RunID != "" {
		agent.RunID = intent.RunID
	}
}
