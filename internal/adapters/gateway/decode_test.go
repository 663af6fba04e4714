package gateway

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/bnema/clawsync/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeAgentEvent(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	testCases := []struct {
		name    string
		payload string
		want    domain.StreamData
	}{
		{
			name:    "lifecycle",
			payload: `{"runId":"r1","stream":"lifecycle","data":{"phase":"start"}}`,
			want:    domain.LifecycleData{Phase: "start"},
		},
		{
			name:    "tool",
			payload: `{"runId":"r1","stream":"tool","data":{"phase":"start","name":"read","toolCallId":"c1","args":{"path":"a.go"}}}`,
			want:    domain.ToolData{Phase: "start", Name: "read", CallID: "c1", Args: map[string]any{"path": "a.go"}},
		},
		{
			name:    "assistant delta",
			payload: `{"runId":"r1","stream":"assistant","data":{"delta":"hello"}}`,
			want:    domain.AssistantData{Text: "hello"},
		},
		{
			name:    "error falls back to error field",
			payload: `{"runId":"r1","stream":"error","data":{"error":"boom"}}`,
			want:    domain.ErrorData{Message: "boom"},
		},
		{
			name:    "unknown stream",
			payload: `{"runId":"r1","stream":"compaction","data":{}}`,
			want:    domain.UnknownData{Name: "compaction"},
		},
		{
			name:    "malformed data degrades to defaults",
			payload: `{"runId":"r1","stream":"tool","data":"not-an-object"}`,
			want:    domain.ToolData{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			event, err := DecodeAgentEvent(json.RawMessage(tc.payload), now)
			require.NoError(t, err)
			assert.Equal(t, "r1", event.RunID)
			assert.Equal(t, now, event.Timestamp)
			assert.Equal(t, tc.want, event.Data)
		})
	}
}

func TestDecodeAgentEventTimestampAndSession(t *testing.T) {
	t.Parallel()

	event, err := DecodeAgentEvent(json.RawMessage(`{"runId":"r2","seq":7,"ts":1767225600000,"sessionKey":"s1","stream":"lifecycle","data":{"phase":"end"}}`), time.Time{})
	require.NoError(t, err)

	assert.Equal(t, int64(7), event.Seq)
	assert.Equal(t, "s1", event.SessionKey)
	assert.Equal(t, time.UnixMilli(1767225600000).UTC(), event.Timestamp)
}

func TestDecodeAgentEventRejectsNonObject(t *testing.T) {
	t.Parallel()

	_, err := DecodeAgentEvent(json.RawMessage(`[1,2]`), time.Now())
	require.Error(t, err)
	assert.ErrorContains(t, err, "decode agent event")
}

func TestDecodeChatEventJoinsTextParts(t *testing.T) {
	t.Parallel()

	payload := `{"runId":"r1","sessionKey":"s1","state":"final","message":{"content":[{"type":"text","text":"hi "},{"type":"image"},{"type":"text","text":"there"}]}}`
	event, err := DecodeChatEvent(json.RawMessage(payload), time.Now())
	require.NoError(t, err)

	assert.Equal(t, domain.ChatStateFinal, event.State)
	assert.Equal(t, "hi there", event.Text)
}

func TestDecodePresenceAcceptsBothShapes(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	bare, err := DecodePresence(json.RawMessage(`[{"host":"a","mode":"ui"}]`), now)
	require.NoError(t, err)
	wrapped, err := DecodePresence(json.RawMessage(`{"presence":[{"host":"a","mode":"ui"}]}`), now)
	require.NoError(t, err)

	want := []domain.PresenceEntry{{Host: "a", Mode: "ui", LastSeen: now}}
	assert.Equal(t, want, bare)
	assert.Equal(t, want, wrapped)
}

func TestDecodeSessionsUsesSpawnedByAsRequester(t *testing.T) {
	t.Parallel()

	payload := `{"sessions":[
		{"key":"agent:main:main","agentId":"main"},
		{"key":"agent:main:sub:1","label":"researcher","spawnedBy":"agent:main:main"},
		{"key":"agent:main:sub:2","requesterSessionKey":"agent:main:main","spawnedBy":"ignored"},
		{"label":"no key"}
	]}`
	sessions, err := decodeSessions(json.RawMessage(payload))
	require.NoError(t, err)
	require.Len(t, sessions, 3)

	assert.False(t, sessions[0].IsSubAgent())
	assert.Equal(t, "agent:main:main", sessions[1].RequesterSessionKey)
	assert.Equal(t, "agent:main:main", sessions[2].RequesterSessionKey)
}

func TestDecodeAgentsFallsBackToIdentityName(t *testing.T) {
	t.Parallel()

	agents, err := decodeAgents(json.RawMessage(`{"agents":[{"id":"a1","name":"Alpha"},{"id":"a2","identity":{"name":"Beta"}},{"id":"a3"},{"name":"orphan"}]}`))
	require.NoError(t, err)

	assert.Equal(t, []domain.AgentSummary{
		{ID: "a1", Name: "Alpha"},
		{ID: "a2", Name: "Beta"},
		{ID: "a3", Name: "a3"},
	}, agents)
}

func TestDecodeUsage(t *testing.T) {
	t.Parallel()

	status, err := decodeUsageStatus(json.RawMessage(`{"inputTokens":100,"outputTokens":50,"cachedInputTokens":25,"byAgent":{"a1":175}}`))
	require.NoError(t, err)
	assert.Equal(t, int64(175), status.BlendedTotal())
	assert.Equal(t, int64(175), status.ByAgent["a1"])

	cost, err := decodeUsageCost(json.RawMessage(`{"totalCost":1.25,"byAgent":{"a1":1.25}}`))
	require.NoError(t, err)
	assert.Equal(t, "USD", cost.Currency)
	assert.InDelta(t, 1.25, cost.ByAgent["a1"], 1e-9)
}
