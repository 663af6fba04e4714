package domain

import (
	"fmt"
	"time"
)

const summaryTextLimit = 40

// Intent is the UI-agnostic effect of one agent event.
type Intent struct {
	Status             AgentStatus
	At                 time.Time
	RunID              string
	Tool               *ToolCall
	ClearTool          bool
	Speech             *SpeechBubble
	ClearSpeech        bool
	IncrementToolCount bool
	Summary            string
}

// ParseAgentEvent maps a protocol event to an intent. Unrecognized shapes
// degrade to a default status with a diagnostic summary.
func ParseAgentEvent(event AgentEvent) Intent {
	intent := Intent{
		Status: AgentStatusIdle,
		At:     event.Timestamp,
		RunID:  event.RunID,
	}

	switch data := event.Data.(type) {
	case LifecycleData:
		switch data.Phase {
		case "start", "thinking":
			intent.Status = AgentStatusThinking
			intent.Summary = "started thinking"
		case "end":
			intent.Status = AgentStatusIdle
			intent.ClearTool = true
			intent.ClearSpeech = true
			intent.Summary = "finished"
		case "fallback":
			intent.Status = AgentStatusError
			intent.Summary = "fell back after a failure"
		default:
			intent.Status = AgentStatusThinking
			intent.Summary = fmt.Sprintf("lifecycle phase %q", data.Phase)
		}
	case ToolData:
		if data.Phase == "start" {
			intent.Status = AgentStatusToolCalling
			intent.Tool = &ToolCall{
				Name:      data.Name,
				CallID:    data.CallID,
				Args:      data.Args,
				StartedAt: event.Timestamp,
			}
			intent.IncrementToolCount = true
			intent.Summary = fmt.Sprintf("calling tool %s", data.Name)
		} else {
			intent.Status = AgentStatusThinking
			intent.ClearTool = true
			intent.Summary = fmt.Sprintf("tool %s %s", data.Name, phaseOrDefault(data.Phase, "done"))
		}
	case AssistantData:
		intent.Status = AgentStatusSpeaking
		intent.Speech = &SpeechBubble{Text: data.Text, At: event.Timestamp}
		intent.Summary = "said: " + truncateRunes(data.Text, summaryTextLimit)
	case ErrorData:
		intent.Status = AgentStatusError
		message := data.Message
		if message == "" {
			message = "unknown error"
		}
		intent.Summary = "error: " + message
	case UnknownData:
		intent.Summary = fmt.Sprintf("unrecognized stream %q", data.Name)
	default:
		intent.Summary = "unrecognized stream \"\""
	}

	return intent
}

func phaseOrDefault(phase, fallback string) string {
	if phase == "" {
		return fallback
	}
	return phase
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}

// ChatSummary describes a chat event for the history log. Only final and
// error states are worth recording.
func ChatSummary(event ChatEvent) (string, bool) {
	switch event.State {
	case ChatStateFinal:
		return "replied: " + truncateRunes(event.Text, summaryTextLimit), true
	case ChatStateError:
		message := event.Text
		if message == "" {
			message = "unknown error"
		}
		return "chat error: " + message, true
	default:
		return "", false
	}
}

func CronSummary(event CronEvent) string {
	summary := fmt.Sprintf("job %s %s", phaseOrDefault(event.JobID, "?"), phaseOrDefault(event.Action, "updated"))
	if event.Status != "" {
		summary += " (" + event.Status + ")"
	}
	return summary
}
