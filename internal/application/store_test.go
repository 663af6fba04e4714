package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bnema/clawsync/internal/domain"
	"github.com/bnema/clawsync/internal/ports/mocks"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func mockAnyContext() interface{} {
	return mock.Anything
}

func lifecycleEvent(runID, sessionKey, phase string) domain.AgentEvent {
	return domain.AgentEvent{RunID: runID, SessionKey: sessionKey, Data: domain.LifecycleData{Phase: phase}}
}

func toolEvent(runID, phase, name string) domain.AgentEvent {
	return domain.AgentEvent{RunID: runID, Data: domain.ToolData{Phase: phase, Name: name}}
}

func assistantEvent(runID, text string) domain.AgentEvent {
	return domain.AgentEvent{RunID: runID, Data: domain.AssistantData{Text: text}}
}

func mustAgent(t *testing.T, snapshot Snapshot, id domain.AgentID) domain.VisualAgent {
	t.Helper()
	agent, ok := snapshot.Agent(id)
	require.True(t, ok, "agent %s missing", id)
	return agent
}

func TestStoreRosterThenBoundRunMarksAgentThinking(t *testing.T) {
	t.Parallel()

	store := NewStore(newManualClock())
	store.InitAgents([]domain.AgentSummary{{ID: "a1", Name: "Alpha"}})
	require.NoError(t, store.BindRun("r1", "a1"))

	store.ApplyAgentEvent(lifecycleEvent("r1", "", "start"))

	snapshot := store.Snapshot()
	agent := mustAgent(t, snapshot, "a1")
	assert.Equal(t, domain.AgentStatusThinking, agent.Status)
	assert.Equal(t, "r1", agent.RunID)
	assert.Equal(t, 1, snapshot.Metrics.ActiveAgents)
	assert.Equal(t, 1, snapshot.Metrics.TotalAgents)
	assert.InDelta(t, 100, snapshot.Metrics.CollaborationHeat, 1e-9)
}

func TestStoreBindRunRequiresKnownAgent(t *testing.T) {
	t.Parallel()

	store := NewStore(newManualClock())
	err := store.BindRun("r1", "ghost")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrAgentNotFound))
}

func TestStoreUnseenRunCreatesExactlyOneSubAgent(t *testing.T) {
	t.Parallel()

	store := NewStore(newManualClock())
	store.InitAgents([]domain.AgentSummary{{ID: "a1", Name: "Alpha"}})

	store.ApplyAgentEvents([]domain.AgentEvent{
		lifecycleEvent("r9", "", "start"),
		toolEvent("r9", "start", "read"),
		toolEvent("r9", "end", "read"),
	})

	snapshot := store.Snapshot()
	require.Len(t, snapshot.Agents, 2)

	agent := mustAgent(t, snapshot, "r9")
	assert.True(t, agent.IsSubAgent)
	assert.Equal(t, domain.ZoneHotDesk, agent.Zone)
	assert.Equal(t, domain.AgentStatusThinking, agent.Status)
	assert.Equal(t, 1, agent.ToolCallCount)
	assert.Equal(t, "r9", agent.RunID)

	require.Len(t, snapshot.History, 3)
	for _, item := range snapshot.History {
		assert.Equal(t, domain.AgentID("r9"), item.AgentID)
	}
}

func TestStoreEmptyRunFallsBackToSessionThenUnknown(t *testing.T) {
	t.Parallel()

	store := NewStore(newManualClock())
	store.ApplyAgentEvent(lifecycleEvent("", "agent:x:sub:1", "start"))
	store.ApplyAgentEvent(lifecycleEvent("", "", "start"))

	snapshot := store.Snapshot()
	_, bySession := snapshot.Agent("agent:x:sub:1")
	_, unknown := snapshot.Agent(unknownAgentID)
	assert.True(t, bySession)
	assert.True(t, unknown)
}

func TestStoreResolvesThroughIndexedSession(t *testing.T) {
	t.Parallel()

	store := NewStore(newManualClock())
	store.InitAgents([]domain.AgentSummary{{ID: "a1", Name: "Alpha"}})
	store.IndexSessions([]domain.SessionInfo{
		{Key: "agent:a1:main", AgentID: "a1"},
		{Key: "agent:a1:sub:1", AgentID: "a1", RequesterSessionKey: "agent:a1:main"},
		{Key: "agent:ghost:main", AgentID: "ghost"},
	})

	store.ApplyAgentEvent(lifecycleEvent("r2", "agent:a1:main", "start"))
	store.ApplyAgentEvent(toolEvent("r2", "start", "exec"))

	snapshot := store.Snapshot()
	require.Len(t, snapshot.Agents, 1)
	agent := mustAgent(t, snapshot, "a1")
	assert.Equal(t, domain.AgentStatusToolCalling, agent.Status)
	assert.Equal(t, "r2", agent.RunID)

	id, ok := store.ResolveSessionAgent("agent:a1:main")
	require.True(t, ok)
	assert.Equal(t, domain.AgentID("a1"), id)
	_, ok = store.ResolveSessionAgent("agent:a1:sub:1")
	assert.False(t, ok)
}

func TestStoreStatusTraceForOneRun(t *testing.T) {
	t.Parallel()

	store := NewStore(newManualClock())
	store.InitAgents([]domain.AgentSummary{{ID: "a1", Name: "Alpha"}})
	require.NoError(t, store.BindRun("r1", "a1"))

	var trace []domain.AgentStatus
	unsubscribe := store.Subscribe(func(snapshot Snapshot) {
		agent, _ := snapshot.Agent("a1")
		trace = append(trace, agent.Status)
	})
	defer unsubscribe()

	for _, event := range []domain.AgentEvent{
		lifecycleEvent("r1", "", "start"),
		toolEvent("r1", "start", "read"),
		toolEvent("r1", "end", "read"),
		assistantEvent("r1", "done reading"),
		lifecycleEvent("r1", "", "end"),
	} {
		store.ApplyAgentEvent(event)
	}

	assert.Equal(t, []domain.AgentStatus{
		domain.AgentStatusThinking,
		domain.AgentStatusToolCalling,
		domain.AgentStatusThinking,
		domain.AgentStatusSpeaking,
		domain.AgentStatusIdle,
	}, trace)
}

func TestStoreBatchPublishesOnce(t *testing.T) {
	t.Parallel()

	store := NewStore(newManualClock())
	before := store.Snapshot().Version

	published := 0
	store.Subscribe(func(Snapshot) { published++ })

	store.ApplyAgentEvents([]domain.AgentEvent{
		lifecycleEvent("r1", "", "start"),
		toolEvent("r1", "start", "read"),
		assistantEvent("r1", "hi"),
	})
	store.ApplyAgentEvents(nil)

	assert.Equal(t, 1, published)
	assert.Equal(t, before+1, store.Snapshot().Version)
}

func TestStoreMeetingGathersAndDissolves(t *testing.T) {
	t.Parallel()

	clock := newManualClock()
	store := NewStore(clock)
	store.InitAgents([]domain.AgentSummary{{ID: "a1", Name: "Alpha"}, {ID: "a2", Name: "Beta"}})
	require.NoError(t, store.BindRun("r1", "a1"))
	require.NoError(t, store.BindRun("r2", "a2"))

	initial := store.Snapshot()
	deskA1 := mustAgent(t, initial, "a1").Position
	deskA2 := mustAgent(t, initial, "a2").Position

	store.ApplyAgentEvent(lifecycleEvent("r1", "s1", "start"))
	store.ApplyAgentEvent(lifecycleEvent("r2", "s1", "start"))

	meeting := store.Snapshot()
	require.Len(t, meeting.Links, 1)
	assert.InDelta(t, domain.LinkInitialStrength, meeting.Links[0].Strength, 1e-9)
	require.Len(t, meeting.Meetings, 1)
	assert.ElementsMatch(t, []domain.AgentID{"a1", "a2"}, meeting.Meetings[0].AgentIDs)
	for _, id := range []domain.AgentID{"a1", "a2"} {
		agent := mustAgent(t, meeting, id)
		assert.Equal(t, domain.ZoneMeeting, agent.Zone)
		require.NotNil(t, agent.OriginalPosition)
	}
	assert.NotEqual(t, mustAgent(t, meeting, "a1").Position, mustAgent(t, meeting, "a2").Position)

	clock.Advance(domain.LinkStaleAfter)
	store.MarkHeartbeat(time.Time{})

	dissolved := store.Snapshot()
	assert.Empty(t, dissolved.Links)
	assert.Empty(t, dissolved.Meetings)
	assert.Equal(t, deskA1, mustAgent(t, dissolved, "a1").Position)
	assert.Equal(t, deskA2, mustAgent(t, dissolved, "a2").Position)
	assert.Equal(t, domain.ZoneDesk, mustAgent(t, dissolved, "a1").Zone)
	assert.Nil(t, mustAgent(t, dissolved, "a1").OriginalPosition)
}

func TestStoreLinkStrengthensAndStaleLinksVanishOnRead(t *testing.T) {
	t.Parallel()

	clock := newManualClock()
	store := NewStore(clock)
	store.InitAgents([]domain.AgentSummary{{ID: "a1"}, {ID: "a2"}})
	require.NoError(t, store.BindRun("r1", "a1"))
	require.NoError(t, store.BindRun("r2", "a2"))

	store.ApplyAgentEvent(lifecycleEvent("r1", "s1", "start"))
	previous := 0.0
	for range 10 {
		store.ApplyAgentEvent(lifecycleEvent("r2", "s1", "thinking"))
		links := store.Snapshot().Links
		require.Len(t, links, 1)
		assert.GreaterOrEqual(t, links[0].Strength, previous)
		assert.LessOrEqual(t, links[0].Strength, 1.0)
		previous = links[0].Strength
	}
	assert.InDelta(t, 1.0, previous, 1e-9)

	clock.Advance(domain.LinkStaleAfter)
	assert.Empty(t, store.Snapshot().Links)
}

func TestStoreAddAndRemoveSubAgent(t *testing.T) {
	t.Parallel()

	store := NewStore(newManualClock())
	store.InitAgents([]domain.AgentSummary{{ID: "a1", Name: "Alpha"}})

	session := domain.SessionInfo{Key: "agent:a1:sub:abc12345xyz", RequesterSessionKey: "agent:a1:main"}
	id := store.AddSubAgent(session, "a1")
	assert.Equal(t, id, store.AddSubAgent(session, "a1"))

	snapshot := store.Snapshot()
	require.Len(t, snapshot.Agents, 2)
	sub := mustAgent(t, snapshot, id)
	assert.Equal(t, "Sub-agent 12345xyz", sub.Name)
	assert.Equal(t, domain.AgentStatusSpawning, sub.Status)
	assert.Equal(t, domain.AgentID("a1"), sub.ParentAgentID)
	assert.Equal(t, []domain.AgentID{id}, mustAgent(t, snapshot, "a1").ChildAgentIDs)
	assert.Equal(t, []string{session.Key}, store.SubAgentSessions())

	resolved, ok := store.ResolveSessionAgent(session.Key)
	require.True(t, ok)
	assert.Equal(t, id, resolved)

	require.NoError(t, store.Select(id))
	require.NoError(t, store.RemoveAgent(id))

	snapshot = store.Snapshot()
	assert.Len(t, snapshot.Agents, 1)
	assert.Empty(t, mustAgent(t, snapshot, "a1").ChildAgentIDs)
	assert.Empty(t, snapshot.SelectedAgent)

	err := store.RemoveAgent(id)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrAgentNotFound))
}

func TestStoreFirstTopLevelAgentSkipsSubAgents(t *testing.T) {
	t.Parallel()

	store := NewStore(newManualClock())
	_, ok := store.FirstTopLevelAgent()
	assert.False(t, ok)

	store.ApplyAgentEvent(lifecycleEvent("r1", "", "start"))
	_, ok = store.FirstTopLevelAgent()
	assert.False(t, ok)

	store.InitAgents([]domain.AgentSummary{{ID: "a2"}, {ID: "a1"}})
	id, ok := store.FirstTopLevelAgent()
	require.True(t, ok)
	assert.Equal(t, domain.AgentID("a2"), id)
}

func TestStoreSelectToggles(t *testing.T) {
	t.Parallel()

	store := NewStore(newManualClock())
	store.InitAgents([]domain.AgentSummary{{ID: "a1"}, {ID: "a2"}})

	require.NoError(t, store.Select("a1"))
	assert.Equal(t, domain.AgentID("a1"), store.Snapshot().SelectedAgent)

	require.NoError(t, store.Select("a2"))
	assert.Equal(t, domain.AgentID("a2"), store.Snapshot().SelectedAgent)

	require.NoError(t, store.Select("a2"))
	assert.Empty(t, store.Snapshot().SelectedAgent)

	err := store.Select("ghost")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrAgentNotFound))
}

func TestStoreUsageSnapshotsAndEstimate(t *testing.T) {
	t.Parallel()

	clock := newManualClock()
	store := NewStore(clock)

	store.PushTokenSnapshot(domain.TokenSnapshot{Timestamp: clock.Now(), TotalTokens: 1000})
	clock.Advance(time.Minute)
	store.PushTokenSnapshot(domain.TokenSnapshot{Timestamp: clock.Now(), TotalTokens: 1600})
	store.SetAgentCosts(map[domain.AgentID]float64{"a1": 0.5, "a2": 0.25})

	snapshot := store.Snapshot()
	assert.InDelta(t, 600, snapshot.Metrics.TokenRate, 1e-9)
	assert.Equal(t, int64(1600), snapshot.Metrics.TotalTokens)
	assert.InDelta(t, 0.75, snapshot.TotalCost(), 1e-9)
	assert.False(t, snapshot.Metrics.UsageDegraded)

	store.ApplyAgentEvents([]domain.AgentEvent{
		toolEvent("r1", "start", "read"),
		toolEvent("r1", "end", "read"),
		toolEvent("r1", "start", "exec"),
	})

	estimate := store.EstimateUsage()
	assert.True(t, estimate.Estimated)
	assert.Equal(t, int64(3*domain.EstimatedTokensPerToolEvent), estimate.TotalTokens)

	snapshot = store.Snapshot()
	latest, ok := snapshot.LatestTokens()
	require.True(t, ok)
	assert.Equal(t, estimate, latest)
	assert.True(t, snapshot.Metrics.UsageDegraded)
}

func TestStoreConnectionStatusPublishesOnlyOnChange(t *testing.T) {
	t.Parallel()

	store := NewStore(newManualClock())
	published := 0
	store.Subscribe(func(Snapshot) { published++ })

	store.SetConnectionStatus(domain.ConnectionConnecting, "")
	store.SetConnectionStatus(domain.ConnectionConnecting, "")
	store.SetConnectionStatus(domain.ConnectionError, "bad token")

	assert.Equal(t, 2, published)
	assert.Equal(t, domain.ConnectionState{Status: domain.ConnectionError, Error: "bad token"}, store.Snapshot().Connection)
}

func TestStoreDirectHandlers(t *testing.T) {
	t.Parallel()

	clock := newManualClock()
	store := NewStore(clock)
	store.InitAgents([]domain.AgentSummary{{ID: "a1", Name: "Alpha"}})
	require.NoError(t, store.BindRun("r1", "a1"))

	store.SetHealth(domain.HealthSnapshot{OK: true, At: clock.Now()})
	store.SetPresence([]domain.PresenceEntry{{Host: "gw-1", Mode: "ui"}})
	store.MarkHeartbeat(time.Time{})
	store.ApplyChatEvent(domain.ChatEvent{RunID: "r1", State: domain.ChatStateDelta, Text: "partial"})
	store.ApplyChatEvent(domain.ChatEvent{RunID: "r1", State: domain.ChatStateFinal, Text: "all done"})
	store.ApplyChatEvent(domain.ChatEvent{RunID: "r-unknown", State: domain.ChatStateError})
	store.RecordCron(domain.CronEvent{JobID: "nightly", Action: "finished", Status: "ok"})

	snapshot := store.Snapshot()
	require.NotNil(t, snapshot.Health)
	assert.True(t, snapshot.Health.OK)
	assert.Equal(t, []domain.PresenceEntry{{Host: "gw-1", Mode: "ui"}}, snapshot.Presence)
	assert.Equal(t, clock.Now(), snapshot.LastHeartbeat)
	assert.Equal(t, domain.AgentStatusIdle, mustAgent(t, snapshot, "a1").Status)

	summaries := make([]string, 0, len(snapshot.History))
	for _, item := range snapshot.History {
		summaries = append(summaries, string(item.AgentID)+"|"+item.Summary)
	}
	assert.Equal(t, []string{
		"a1|replied: all done",
		"|chat error: unknown error",
		"cron|job nightly finished (ok)",
	}, summaries)
}

func TestStoreSnapshotIsDeepCopy(t *testing.T) {
	t.Parallel()

	store := NewStore(newManualClock())
	store.ApplyAgentEvents([]domain.AgentEvent{
		{RunID: "r1", Data: domain.ToolData{Phase: "start", Name: "read", Args: map[string]any{"path": "a.go"}}},
	})
	store.SetAgentCosts(map[domain.AgentID]float64{"r1": 1})

	before := store.Snapshot()
	mutated := store.Snapshot()
	mutated.Agents[0].ToolCallHistory[0].Name = "changed"
	mutated.Agents[0].CurrentTool.Args["path"] = "b.go"
	mutated.AgentCosts["r1"] = 99
	mutated.History[0].Summary = "changed"

	if diff := cmp.Diff(before, store.Snapshot()); diff != "" {
		t.Fatalf("snapshot shares state with the store (-before +after):\n%s", diff)
	}
}

func TestStoreInitAgentsClearsIdentityTables(t *testing.T) {
	t.Parallel()

	store := NewStore(newManualClock())
	store.InitAgents([]domain.AgentSummary{{ID: "a1"}})
	require.NoError(t, store.BindRun("r1", "a1"))
	require.NoError(t, store.Select("a1"))

	store.InitAgents([]domain.AgentSummary{{ID: "a1"}, {ID: "a1"}, {ID: ""}, {ID: "a2", Name: "Beta"}})
	store.ApplyAgentEvent(lifecycleEvent("r1", "", "start"))

	snapshot := store.Snapshot()
	assert.Len(t, snapshot.Agents, 3)
	assert.Equal(t, domain.AgentStatusIdle, mustAgent(t, snapshot, "a1").Status)
	assert.Equal(t, domain.AgentStatusThinking, mustAgent(t, snapshot, "r1").Status)
	assert.Equal(t, domain.AgentID("a1"), snapshot.SelectedAgent)
	assert.Equal(t, "a1", mustAgent(t, snapshot, "a1").Name)
}

func TestStoreUpdatePreferencesPersists(t *testing.T) {
	t.Parallel()

	repo := mocks.NewMockPreferencesRepository(t)
	store := NewStore(newManualClock(), WithPreferencesRepository(repo))

	want := domain.DefaultPreferences()
	want.Theme = domain.ThemeDark
	repo.EXPECT().Save(mockAnyContext(), want).Return(nil).Once()

	require.NoError(t, store.SetTheme(context.Background(), domain.ThemeDark))
	assert.Equal(t, want, store.Snapshot().Preferences)
}

func TestStoreUpdatePreferencesKeepsStateWhenSaveFails(t *testing.T) {
	t.Parallel()

	repo := mocks.NewMockPreferencesRepository(t)
	store := NewStore(newManualClock(), WithPreferencesRepository(repo))

	saveErr := errors.New("disk full")
	repo.EXPECT().Save(mockAnyContext(), mock.Anything).Return(saveErr).Once()

	err := store.SetDock(context.Background(), domain.DockLayout{Position: domain.DockLeft, Visible: false})
	require.Error(t, err)
	assert.True(t, errors.Is(err, saveErr))
	assert.Equal(t, domain.DefaultPreferences(), store.Snapshot().Preferences)
}

func TestStoreUpdatePreferencesRejectsInvalidValues(t *testing.T) {
	t.Parallel()

	repo := mocks.NewMockPreferencesRepository(t)
	store := NewStore(newManualClock(), WithPreferencesRepository(repo))

	err := store.SetViewMode(context.Background(), domain.ViewMode("4d"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrPreferencesInvalid))

	err = store.SetSidebar(context.Background(), domain.SidebarLayout{Width: -1})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrPreferencesInvalid))
}

func TestStoreLoadPreferencesNormalizes(t *testing.T) {
	t.Parallel()

	repo := mocks.NewMockPreferencesRepository(t)
	store := NewStore(newManualClock(), WithPreferencesRepository(repo))

	repo.EXPECT().Load(mockAnyContext()).Return(domain.Preferences{Theme: "DARK", ViewMode: "3d"}, nil).Once()

	require.NoError(t, store.LoadPreferences(context.Background()))

	want := domain.DefaultPreferences()
	want.Theme = domain.ThemeDark
	want.ViewMode = domain.ViewMode3D
	want.Dock.Visible = false
	assert.Equal(t, want, store.Snapshot().Preferences)
}
