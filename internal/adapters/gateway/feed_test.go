package gateway

import (
	"sync"
	"testing"
	"time"

	"github.com/bnema/clawsync/internal/domain"
	"github.com/bnema/clawsync/internal/ports/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedDecodesEventsAndDropsMalformedOnes(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := mocks.NewMockClock(t)
	clock.EXPECT().Now().Return(now)

	gateway := newFakeGateway(t, func(s *serverConn, _ int) {
		if _, err := s.handshake(); err != nil {
			return
		}
		_ = s.sendEvent(EventAgent, "not an object")
		_ = s.conn.WriteJSON(map[string]any{
			"type":    "event",
			"event":   EventAgent,
			"seq":     42,
			"payload": map[string]any{"runId": "r1", "stream": "tool", "data": map[string]any{"phase": "start", "name": "read"}},
		})
		_ = s.sendEvent(EventHeartbeat, nil)
		_ = s.sendEvent(EventHealth, map[string]any{"ok": true, "ts": 1000})
		s.drain()
	})

	client := newTestClient(t, Config{})
	feed := NewFeed(client, clock)

	var mu sync.Mutex
	var agents []domain.AgentEvent
	var beats []time.Time
	var health []domain.HealthSnapshot
	feed.OnAgentEvent(func(event domain.AgentEvent) {
		mu.Lock()
		defer mu.Unlock()
		agents = append(agents, event)
	})
	feed.OnHeartbeat(func(at time.Time) {
		mu.Lock()
		defer mu.Unlock()
		beats = append(beats, at)
	})
	feed.OnHealth(func(snapshot domain.HealthSnapshot) {
		mu.Lock()
		defer mu.Unlock()
		health = append(health, snapshot)
	})

	client.Connect(gateway.url(), "token")

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(health) == 1
	}, 2*time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, agents, 1)
	assert.Equal(t, "r1", agents[0].RunID)
	assert.Equal(t, int64(42), agents[0].Seq)
	assert.Equal(t, now, agents[0].Timestamp)
	assert.Equal(t, domain.ToolData{Phase: "start", Name: "read"}, agents[0].Data)
	assert.Equal(t, []time.Time{now}, beats)
	assert.True(t, health[0].OK)
	assert.Equal(t, time.UnixMilli(1000).UTC(), health[0].At)
}

func TestFeedForwardsStatusChanges(t *testing.T) {
	client := newTestClient(t, Config{})
	feed := NewFeed(client, nil)

	var mu sync.Mutex
	var seen []domain.ConnectionStatus
	unsubscribe := feed.OnStatusChange(func(status domain.ConnectionStatus, _ string) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, status)
	})
	defer unsubscribe()

	client.Connect("ws://127.0.0.1:1", "token")

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) > 0
	}, 2*time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, domain.ConnectionConnecting, seen[0])
}
