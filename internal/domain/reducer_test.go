package domain

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAgentEvent(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 2, 14, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name        string
		data        StreamData
		wantStatus  AgentStatus
		wantSummary string
		check       func(t *testing.T, intent Intent)
	}{
		{name: "lifecycle start", data: LifecycleData{Phase: "start"}, wantStatus: AgentStatusThinking},
		{name: "lifecycle thinking", data: LifecycleData{Phase: "thinking"}, wantStatus: AgentStatusThinking},
		{
			name: "lifecycle end clears tool and speech", data: LifecycleData{Phase: "end"}, wantStatus: AgentStatusIdle,
			check: func(t *testing.T, intent Intent) {
				assert.True(t, intent.ClearTool)
				assert.True(t, intent.ClearSpeech)
			},
		},
		{name: "lifecycle fallback", data: LifecycleData{Phase: "fallback"}, wantStatus: AgentStatusError},
		{name: "unknown lifecycle phase", data: LifecycleData{Phase: "compacting"}, wantStatus: AgentStatusThinking, wantSummary: `lifecycle phase "compacting"`},
		{
			name: "tool start", data: ToolData{Phase: "start", Name: "exec", Args: map[string]any{"cmd": "ls"}}, wantStatus: AgentStatusToolCalling,
			check: func(t *testing.T, intent Intent) {
				require.NotNil(t, intent.Tool)
				assert.Equal(t, "exec", intent.Tool.Name)
				assert.Equal(t, "ls", intent.Tool.Args["cmd"])
				assert.Equal(t, at, intent.Tool.StartedAt)
				assert.True(t, intent.IncrementToolCount)
			},
		},
		{
			name: "tool result", data: ToolData{Phase: "result", Name: "exec"}, wantStatus: AgentStatusThinking,
			check: func(t *testing.T, intent Intent) {
				assert.True(t, intent.ClearTool)
				assert.False(t, intent.IncrementToolCount)
			},
		},
		{
			name: "assistant keeps full text in the bubble", data: AssistantData{Text: strings.Repeat("x", 60)}, wantStatus: AgentStatusSpeaking,
			wantSummary: "said: " + strings.Repeat("x", 40) + "...",
			check: func(t *testing.T, intent Intent) {
				require.NotNil(t, intent.Speech)
				assert.Len(t, intent.Speech.Text, 60)
			},
		},
		{name: "error with message", data: ErrorData{Message: "rate limited"}, wantStatus: AgentStatusError, wantSummary: "error: rate limited"},
		{name: "error without message", data: ErrorData{}, wantStatus: AgentStatusError, wantSummary: "error: unknown error"},
		{name: "unknown stream", data: UnknownData{Name: "compaction"}, wantStatus: AgentStatusIdle, wantSummary: `unrecognized stream "compaction"`},
		{name: "missing data", data: nil, wantStatus: AgentStatusIdle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			intent := ParseAgentEvent(AgentEvent{RunID: "r1", Timestamp: at, Data: tt.data})
			assert.Equal(t, tt.wantStatus, intent.Status)
			assert.Equal(t, "r1", intent.RunID)
			if tt.wantSummary != "" {
				assert.Equal(t, tt.wantSummary, intent.Summary)
			}
			if tt.check != nil {
				tt.check(t, intent)
			}
		})
	}
}

func TestStatusTraceForOneRun(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 2, 14, 12, 0, 0, 0, time.UTC)
	events := []StreamData{
		LifecycleData{Phase: "start"},
		ToolData{Phase: "start", Name: "read"},
		ToolData{Phase: "end", Name: "read"},
		AssistantData{Text: "done"},
		LifecycleData{Phase: "end"},
	}

	agent := &VisualAgent{ID: "a1", Status: AgentStatusIdle}
	var trace []AgentStatus
	for i, data := range events {
		ApplyEventToAgent(agent, ParseAgentEvent(AgentEvent{RunID: "r1", Timestamp: base.Add(time.Duration(i) * time.Second), Data: data}))
		trace = append(trace, agent.Status)
	}

	assert.Equal(t, []AgentStatus{
		AgentStatusThinking,
		AgentStatusToolCalling,
		AgentStatusThinking,
		AgentStatusSpeaking,
		AgentStatusIdle,
	}, trace)
	assert.Nil(t, agent.CurrentTool)
	assert.Nil(t, agent.SpeechBubble)
	assert.Equal(t, 1, agent.ToolCallCount)
	assert.Equal(t, "r1", agent.RunID)
	assert.Equal(t, base.Add(4*time.Second), agent.LastActiveAt)
}

func TestApplyEventToAgentBoundsToolHistoryNewestFirst(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 2, 14, 12, 0, 0, 0, time.UTC)
	agent := &VisualAgent{ID: "a1"}
	for i := 0; i < 15; i++ {
		ApplyEventToAgent(agent, ParseAgentEvent(AgentEvent{
			RunID:     "r1",
			Timestamp: base.Add(time.Duration(i) * time.Second),
			Data:      ToolData{Phase: "start", Name: fmt.Sprintf("tool-%d", i)},
		}))
	}

	assert.Equal(t, 15, agent.ToolCallCount)
	require.Len(t, agent.ToolCallHistory, MaxToolCallHistory)
	assert.Equal(t, "tool-14", agent.ToolCallHistory[0].Name)
	assert.Equal(t, "tool-5", agent.ToolCallHistory[MaxToolCallHistory-1].Name)
}

func TestApplyEventToAgentBindsRunIDOnce(t *testing.T) {
	t.Parallel()

	agent := &VisualAgent{ID: "a1"}
	ApplyEventToAgent(agent, Intent{Status: AgentStatusThinking, RunID: "r1"})
	ApplyEventToAgent(agent, Intent{Status: AgentStatusThinking, RunID: "r2"})

	assert.Equal(t, "r1", agent.RunID)
}

func TestApplyEventToAgentNilIsNoop(t *testing.T) {
	t.Parallel()

	assert.NotPanics(t, func() {
		ApplyEventToAgent(nil, Intent{Status: AgentStatusError})
	})
}
