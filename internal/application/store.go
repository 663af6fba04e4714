package application

import (
	"context"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/bnema/clawsync/internal/domain"
	"github.com/bnema/clawsync/internal/ports"
	"go.uber.org/zap"
)

const unknownAgentID domain.AgentID = "unknown"

// Store owns the agent model. Every mutation goes through update, which
// keeps links, meetings and metrics consistent with the agent map before a
// snapshot is published.
type Store struct {
	clock     ports.Clock
	prefsRepo ports.PreferencesRepository
	allocator domain.Allocator
	logger    *zap.Logger

	mu            sync.Mutex
	agents        map[domain.AgentID]*domain.VisualAgent
	order         []domain.AgentID
	runIndex      map[string]domain.AgentID
	sessionIndex  map[string][]domain.AgentID
	links         []domain.CollaborationLink
	meetings      []domain.MeetingGroup
	history       domain.EventHistory
	metrics       domain.GlobalMetrics
	tokens        []domain.TokenSnapshot
	costs         map[domain.AgentID]float64
	connection    domain.ConnectionState
	health        *domain.HealthSnapshot
	presence      []domain.PresenceEntry
	lastHeartbeat time.Time
	selected      domain.AgentID
	prefs         domain.Preferences
	version       uint64
	subscribers   map[int]func(Snapshot)
	nextSubID     int

	prefsMu sync.Mutex
}

type StoreOption func(*Store)

func WithPreferencesRepository(repo ports.PreferencesRepository) StoreOption {
	return func(s *Store) {
		s.prefsRepo = repo
	}
}

func WithAllocator(allocator domain.Allocator) StoreOption {
	return func(s *Store) {
		s.allocator = allocator
	}
}

func WithStoreLogger(logger *zap.Logger) StoreOption {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func NewStore(clock ports.Clock, opts ...StoreOption) *Store {
	if clock == nil {
		clock = ports.SystemClock{}
	}

	s := &Store{
		clock:        clock,
		allocator:    domain.DefaultAllocator(),
		logger:       zap.NewNop(),
		agents:       map[domain.AgentID]*domain.VisualAgent{},
		runIndex:     map[string]domain.AgentID{},
		sessionIndex: map[string][]domain.AgentID{},
		costs:        map[domain.AgentID]float64{},
		connection:   domain.ConnectionState{Status: domain.ConnectionDisconnected},
		prefs:        domain.DefaultPreferences(),
		subscribers:  map[int]func(Snapshot){},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("store")
	return s
}

// Subscribe registers fn for every published snapshot. fn runs outside the
// store lock; it may read the store but snapshots from concurrent updates can
// arrive out of order, so consumers should compare Version.
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subscribers[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subscribers, id)
	}
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// update runs mutate under the lock, re-derives links, meetings and metrics,
// and publishes the result. mutate reports whether anything changed.
func (s *Store) update(mutate func(now time.Time) bool) {
	s.mu.Lock()
	now := s.clock.Now()
	if !mutate(now) {
		s.mu.Unlock()
		return
	}

	s.links = domain.PruneStaleLinks(s.links, now)
	s.meetings = domain.DetectMeetingGroups(s.links)
	domain.GatherMeetings(s.agents, s.meetings)
	s.metrics = domain.ComputeMetrics(s.agents, s.tokens)
	s.version++

	snapshot := s.snapshotLocked()
	subscribers := make([]func(Snapshot), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subscribers = append(subscribers, fn)
	}
	s.mu.Unlock()

	for _, fn := range subscribers {
		fn(snapshot)
	}
}

// InitAgents replaces the fleet with roster. Identity tables, links and
// selection of vanished agents are cleared.
func (s *Store) InitAgents(roster []domain.AgentSummary) {
	s.update(func(now time.Time) bool {
		s.agents = make(map[domain.AgentID]*domain.VisualAgent, len(roster))
		s.order = s.order[:0]
		s.runIndex = map[string]domain.AgentID{}
		s.sessionIndex = map[string][]domain.AgentID{}
		s.links = nil

		for _, summary := range roster {
			if summary.ID == "" {
				continue
			}
			if _, exists := s.agents[summary.ID]; exists {
				continue
			}
			name := summary.Name
			if name == "" {
				name = string(summary.ID)
			}
			s.insertLocked(&domain.VisualAgent{
				ID:           summary.ID,
				Name:         name,
				Status:       domain.AgentStatusIdle,
				LastActiveAt: now,
			})
		}

		if _, ok := s.agents[s.selected]; !ok {
			s.selected = ""
		}

		s.logger.Debug("roster initialized", zap.Int("agents", len(s.agents)))
		return true
	})
}

func (s *Store) ApplyAgentEvent(event domain.AgentEvent) {
	s.ApplyAgentEvents([]domain.AgentEvent{event})
}

// ApplyAgentEvents applies a batch in order and publishes once. Each event
// is resolved, reduced, linked and logged before the next one is touched.
func (s *Store) ApplyAgentEvents(events []domain.AgentEvent) {
	if len(events) == 0 {
		return
	}

	s.update(func(now time.Time) bool {
		for _, event := range events {
			s.applyAgentEventLocked(event, now)
		}
		return true
	})
}

func (s *Store) applyAgentEventLocked(event domain.AgentEvent, now time.Time) {
	agent := s.resolveLocked(event)

	intent := domain.ParseAgentEvent(event)
	if intent.At.IsZero() {
		intent.At = now
	}
	domain.ApplyEventToAgent(agent, intent)

	if key := event.SessionKey; key != "" {
		if agent.SessionKey == "" {
			agent.SessionKey = key
		}
		s.indexSessionLocked(key, agent.ID)
		s.links = domain.UpdateCollaborationLinks(s.links, s.sessionIndex[key], agent.ID, key, now)
	}

	s.history.Push(domain.EventHistoryItem{
		Timestamp: intent.At,
		AgentID:   agent.ID,
		AgentName: agent.Name,
		Stream:    event.Stream(),
		Summary:   intent.Summary,
		Seq:       event.Seq,
	})
}

// resolveLocked finds the agent owning event: by run id, then by the first
// agent seen on the session, and otherwise by creating a sub-agent keyed by
// the run id so the event is never dropped.
func (s *Store) resolveLocked(event domain.AgentEvent) *domain.VisualAgent {
	if id, ok := s.runIndex[event.RunID]; ok && event.RunID != "" {
		if agent, ok := s.agents[id]; ok {
			return agent
		}
	}

	if agent, ok := s.sessionAgentLocked(event.SessionKey); ok {
		s.bindRunLocked(event.RunID, agent.ID)
		return agent
	}

	id := domain.AgentID(event.RunID)
	if id == "" {
		id = domain.AgentID(event.SessionKey)
	}
	if id == "" {
		id = unknownAgentID
	}

	agent, ok := s.agents[id]
	if !ok {
		agent = &domain.VisualAgent{
			ID:           id,
			Name:         ephemeralName(id),
			Status:       domain.AgentStatusIdle,
			IsSubAgent:   true,
			SessionKey:   event.SessionKey,
			LastActiveAt: event.Timestamp,
		}
		s.insertLocked(agent)
		s.logger.Debug("synthesized agent for unmapped run",
			zap.String("agent", string(id)),
			zap.String("session", event.SessionKey))
	}
	s.bindRunLocked(event.RunID, id)
	return agent
}

func (s *Store) sessionAgentLocked(sessionKey string) (*domain.VisualAgent, bool) {
	if sessionKey == "" {
		return nil, false
	}
	for _, id := range s.sessionIndex[sessionKey] {
		if agent, ok := s.agents[id]; ok {
			return agent, true
		}
	}
	return nil, false
}

func (s *Store) bindRunLocked(runID string, id domain.AgentID) {
	if runID == "" {
		return
	}
	if _, bound := s.runIndex[runID]; bound {
		return
	}
	s.runIndex[runID] = id
}

func (s *Store) indexSessionLocked(sessionKey string, id domain.AgentID) {
	for _, existing := range s.sessionIndex[sessionKey] {
		if existing == id {
			return
		}
	}
	s.sessionIndex[sessionKey] = append(s.sessionIndex[sessionKey], id)
}

// insertLocked adds agent to the fleet and gives it a free slot.
func (s *Store) insertLocked(agent *domain.VisualAgent) {
	occupied := make([]domain.Position, 0, len(s.agents))
	for _, existing := range s.agents {
		occupied = append(occupied, existing.Position)
	}
	agent.Position, agent.Zone = s.allocator.Allocate(agent.ID, agent.IsSubAgent, occupied)
	s.agents[agent.ID] = agent
	s.order = append(s.order, agent.ID)
}

// AddSubAgent registers a sub-agent discovered through the session listing
// under parentID. Adding a known session is a no-op.
func (s *Store) AddSubAgent(session domain.SessionInfo, parentID domain.AgentID) domain.AgentID {
	id := domain.AgentID(session.Key)

	s.update(func(now time.Time) bool {
		if _, exists := s.agents[id]; exists {
			return false
		}

		lastActive := session.UpdatedAt
		if lastActive.IsZero() {
			lastActive = now
		}

		agent := &domain.VisualAgent{
			ID:           id,
			Name:         session.DisplayName(),
			Status:       domain.AgentStatusSpawning,
			IsSubAgent:   true,
			SessionKey:   session.Key,
			LastActiveAt: lastActive,
		}
		if parent, ok := s.agents[parentID]; ok {
			agent.ParentAgentID = parentID
			parent.AddChild(id)
		}
		s.insertLocked(agent)
		s.indexSessionLocked(session.Key, id)
		return true
	})

	return id
}

// RemoveAgent drops the agent with its links and index entries. Children are
// detached rather than removed.
func (s *Store) RemoveAgent(id domain.AgentID) error {
	var found bool

	s.update(func(time.Time) bool {
		agent, ok := s.agents[id]
		if !ok {
			return false
		}
		found = true

		if parent, ok := s.agents[agent.ParentAgentID]; ok {
			parent.RemoveChild(id)
		}
		for _, childID := range agent.ChildAgentIDs {
			if child, ok := s.agents[childID]; ok {
				child.ParentAgentID = ""
			}
		}

		delete(s.agents, id)
		s.order = removeID(s.order, id)
		for runID, owner := range s.runIndex {
			if owner == id {
				delete(s.runIndex, runID)
			}
		}
		for key, ids := range s.sessionIndex {
			ids = removeID(ids, id)
			if len(ids) == 0 {
				delete(s.sessionIndex, key)
				continue
			}
			s.sessionIndex[key] = ids
		}
		s.links = domain.RemoveAgentLinks(s.links, id)
		if s.selected == id {
			s.selected = ""
		}
		return true
	})

	if !found {
		return fmt.Errorf("remove agent %q: %w", id, domain.ErrAgentNotFound)
	}
	return nil
}

// BindRun maps runID to an existing agent. A run that is already bound keeps
// its owner.
func (s *Store) BindRun(runID string, id domain.AgentID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.agents[id]; !ok {
		return fmt.Errorf("bind run %q: %w", runID, domain.ErrAgentNotFound)
	}
	s.bindRunLocked(runID, id)
	return nil
}

// IndexSessions registers the main sessions of known top-level agents so that
// events carrying those session keys resolve to them.
func (s *Store) IndexSessions(sessions []domain.SessionInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, session := range sessions {
		if session.IsSubAgent() || session.AgentID == "" {
			continue
		}
		if _, ok := s.agents[session.AgentID]; !ok {
			continue
		}
		s.indexSessionLocked(session.Key, session.AgentID)
	}
}

// ResolveSessionAgent returns the first live agent seen on sessionKey.
func (s *Store) ResolveSessionAgent(sessionKey string) (domain.AgentID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	agent, ok := s.sessionAgentLocked(sessionKey)
	if !ok {
		return "", false
	}
	return agent.ID, true
}

// FirstTopLevelAgent returns the earliest registered agent that is not a
// sub-agent.
func (s *Store) FirstTopLevelAgent() (domain.AgentID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.order {
		if agent, ok := s.agents[id]; ok && !agent.IsSubAgent {
			return id, true
		}
	}
	return "", false
}

// SubAgentSessions returns the session keys of sub-agents currently held.
func (s *Store) SubAgentSessions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var keys []string
	for _, id := range s.order {
		if agent, ok := s.agents[id]; ok && agent.IsSubAgent && agent.SessionKey != "" {
			keys = append(keys, agent.SessionKey)
		}
	}
	return keys
}

func (s *Store) PushTokenSnapshot(snapshot domain.TokenSnapshot) {
	s.update(func(now time.Time) bool {
		if snapshot.Timestamp.IsZero() {
			snapshot.Timestamp = now
		}
		s.tokens = domain.AppendTokenSnapshot(s.tokens, snapshot)
		return true
	})
}

func (s *Store) SetAgentCosts(costs map[domain.AgentID]float64) {
	s.update(func(time.Time) bool {
		s.costs = maps.Clone(costs)
		if s.costs == nil {
			s.costs = map[domain.AgentID]float64{}
		}
		return true
	})
}

// EstimateUsage pushes a token sample derived from recent tool activity and
// returns it. The sample is flagged Estimated.
func (s *Store) EstimateUsage() domain.TokenSnapshot {
	var estimate domain.TokenSnapshot

	s.update(func(now time.Time) bool {
		tokens := domain.EstimateTokens(&s.history, now)
		estimate = domain.TokenSnapshot{
			Timestamp:   now,
			TotalTokens: tokens,
			Estimated:   true,
		}
		s.tokens = domain.AppendTokenSnapshot(s.tokens, estimate)
		return true
	})

	return estimate
}

func (s *Store) SetConnectionStatus(status domain.ConnectionStatus, errMsg string) {
	s.update(func(time.Time) bool {
		next := domain.ConnectionState{Status: status, Error: errMsg}
		if s.connection == next {
			return false
		}
		s.connection = next
		return true
	})
}

func (s *Store) SetHealth(health domain.HealthSnapshot) {
	s.update(func(time.Time) bool {
		s.health = &health
		return true
	})
}

func (s *Store) SetPresence(entries []domain.PresenceEntry) {
	s.update(func(time.Time) bool {
		s.presence = append([]domain.PresenceEntry(nil), entries...)
		return true
	})
}

func (s *Store) MarkHeartbeat(at time.Time) {
	s.update(func(now time.Time) bool {
		if at.IsZero() {
			at = now
		}
		s.lastHeartbeat = at
		return true
	})
}

// ApplyChatEvent logs final and error chat messages against the agent that
// owns the run or session. It never changes agent status.
func (s *Store) ApplyChatEvent(event domain.ChatEvent) {
	summary, ok := domain.ChatSummary(event)
	if !ok {
		return
	}

	s.update(func(now time.Time) bool {
		item := domain.EventHistoryItem{
			Timestamp: event.Timestamp,
			AgentName: "chat",
			Stream:    domain.StreamChat,
			Summary:   summary,
			Seq:       event.Seq,
		}
		if item.Timestamp.IsZero() {
			item.Timestamp = now
		}
		if agent, ok := s.lookupLocked(event.RunID, event.SessionKey); ok {
			item.AgentID = agent.ID
			item.AgentName = agent.Name
		}
		s.history.Push(item)
		return true
	})
}

func (s *Store) RecordCron(event domain.CronEvent) {
	s.update(func(now time.Time) bool {
		at := event.Timestamp
		if at.IsZero() {
			at = now
		}
		s.history.Push(domain.EventHistoryItem{
			Timestamp: at,
			AgentID:   "cron",
			AgentName: "cron",
			Stream:    domain.StreamCron,
			Summary:   domain.CronSummary(event),
		})
		return true
	})
}

func (s *Store) lookupLocked(runID, sessionKey string) (*domain.VisualAgent, bool) {
	if id, ok := s.runIndex[runID]; ok && runID != "" {
		if agent, ok := s.agents[id]; ok {
			return agent, true
		}
	}
	return s.sessionAgentLocked(sessionKey)
}

// Select toggles selection: selecting the selected agent clears it, and an
// empty id always clears.
func (s *Store) Select(id domain.AgentID) error {
	var missing bool

	s.update(func(time.Time) bool {
		switch {
		case id == "" || s.selected == id:
			if s.selected == "" {
				return false
			}
			s.selected = ""
		default:
			if _, ok := s.agents[id]; !ok {
				missing = true
				return false
			}
			s.selected = id
		}
		return true
	})

	if missing {
		return fmt.Errorf("select agent %q: %w", id, domain.ErrAgentNotFound)
	}
	return nil
}

// LoadPreferences replaces the in-memory preferences with the persisted ones.
func (s *Store) LoadPreferences(ctx context.Context) error {
	if s.prefsRepo == nil {
		return nil
	}

	prefs, err := s.prefsRepo.Load(ctx)
	if err != nil {
		return fmt.Errorf("load preferences: %w", err)
	}
	prefs.Normalize()
	if err := prefs.Validate(); err != nil {
		return fmt.Errorf("load preferences: %w", err)
	}

	s.update(func(time.Time) bool {
		if s.prefs == prefs {
			return false
		}
		s.prefs = prefs
		return true
	})
	return nil
}

// UpdatePreferences validates and persists a change before publishing it.
// A failed save leaves the in-memory preferences untouched.
func (s *Store) UpdatePreferences(ctx context.Context, cmd UpdatePreferencesCommand) (domain.Preferences, error) {
	s.prefsMu.Lock()
	defer s.prefsMu.Unlock()

	s.mu.Lock()
	next := cmd.apply(s.prefs)
	s.mu.Unlock()

	next.Normalize()
	if err := next.Validate(); err != nil {
		return domain.Preferences{}, fmt.Errorf("update preferences: %w", err)
	}

	if s.prefsRepo != nil {
		if err := s.prefsRepo.Save(ctx, next); err != nil {
			return domain.Preferences{}, fmt.Errorf("save preferences: %w", err)
		}
	}

	s.update(func(time.Time) bool {
		if s.prefs == next {
			return false
		}
		s.prefs = next
		return true
	})
	return next, nil
}

func (s *Store) SetTheme(ctx context.Context, theme domain.Theme) error {
	_, err := s.UpdatePreferences(ctx, UpdatePreferencesCommand{Theme: &theme})
	return err
}

func (s *Store) SetViewMode(ctx context.Context, mode domain.ViewMode) error {
	_, err := s.UpdatePreferences(ctx, UpdatePreferencesCommand{ViewMode: &mode})
	return err
}

func (s *Store) SetSidebar(ctx context.Context, sidebar domain.SidebarLayout) error {
	_, err := s.UpdatePreferences(ctx, UpdatePreferencesCommand{
		SidebarCollapsed: &sidebar.Collapsed,
		SidebarWidth:     &sidebar.Width,
	})
	return err
}

func (s *Store) SetDock(ctx context.Context, dock domain.DockLayout) error {
	_, err := s.UpdatePreferences(ctx, UpdatePreferencesCommand{
		DockPosition: &dock.Position,
		DockVisible:  &dock.Visible,
	})
	return err
}

func (s *Store) snapshotLocked() Snapshot {
	agents := make([]domain.VisualAgent, 0, len(s.order))
	for _, id := range s.order {
		if agent, ok := s.agents[id]; ok {
			agents = append(agents, agent.Clone())
		}
	}

	meetings := make([]domain.MeetingGroup, 0, len(s.meetings))
	for _, group := range s.meetings {
		group.AgentIDs = append([]domain.AgentID(nil), group.AgentIDs...)
		meetings = append(meetings, group)
	}

	tokens := make([]domain.TokenSnapshot, 0, len(s.tokens))
	for _, token := range s.tokens {
		token.ByAgent = maps.Clone(token.ByAgent)
		tokens = append(tokens, token)
	}

	var health *domain.HealthSnapshot
	if s.health != nil {
		h := *s.health
		health = &h
	}

	return Snapshot{
		Version:       s.version,
		Agents:        agents,
		Links:         domain.PruneStaleLinks(s.links, s.clock.Now()),
		Meetings:      meetings,
		History:       s.history.Items(),
		Metrics:       s.metrics,
		Tokens:        tokens,
		AgentCosts:    maps.Clone(s.costs),
		Connection:    s.connection,
		Health:        health,
		Presence:      append([]domain.PresenceEntry(nil), s.presence...),
		LastHeartbeat: s.lastHeartbeat,
		SelectedAgent: s.selected,
		Preferences:   s.prefs,
	}
}

func ephemeralName(id domain.AgentID) string {
	return domain.SessionInfo{Key: string(id)}.DisplayName()
}

func removeID(ids []domain.AgentID, id domain.AgentID) []domain.AgentID {
	kept := make([]domain.AgentID, 0, len(ids))
	for _, existing := range ids {
		if existing != id {
			kept = append(kept, existing)
		}
	}
	return kept
}
