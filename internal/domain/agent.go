package domain

import "time"

type AgentID string

type AgentStatus string

const (
	AgentStatusIdle        AgentStatus = "idle"
	AgentStatusThinking    AgentStatus = "thinking"
	AgentStatusToolCalling AgentStatus = "tool_calling"
	AgentStatusSpeaking    AgentStatus = "speaking"
	AgentStatusSpawning    AgentStatus = "spawning"
	AgentStatusError       AgentStatus = "error"
	AgentStatusOffline     AgentStatus = "offline"
)

// Active reports whether the status counts toward fleet activity.
func (s AgentStatus) Active() bool {
	switch s {
	case AgentStatusIdle, AgentStatusOffline, "":
		return false
	default:
		return true
	}
}

type Zone string

const (
	ZoneDesk    Zone = "desk"
	ZoneMeeting Zone = "meeting"
	ZoneHotDesk Zone = "hotDesk"
	ZoneLounge  Zone = "lounge"
)

const MaxToolCallHistory = 10

type ToolCall struct {
	Name      string
	CallID    string
	Args      map[string]any
	StartedAt time.Time
}

type SpeechBubble struct {
	Text string
	At   time.Time
}

type ToolCallRecord struct {
	Name      string
	StartedAt time.Time
}

type VisualAgent struct {
	ID              AgentID
	Name            string
	Status          AgentStatus
	CurrentTool     *ToolCall
	SpeechBubble    *SpeechBubble
	LastActiveAt    time.Time
	ToolCallCount   int
	ToolCallHistory []ToolCallRecord
	RunID           string
	SessionKey      string
	IsSubAgent      bool
	// ParentAgentID is a lookup key into the fleet, the parent is not owned.
	ParentAgentID    AgentID
	ChildAgentIDs    []AgentID
	Zone             Zone
	Position         Position
	OriginalPosition *Position
	OriginalZone     Zone
}

// AgentSummary is one roster entry as reported by the Gateway.
type AgentSummary struct {
	ID   AgentID
	Name string
}

// Clone returns a deep copy safe to hand to readers.
func (a *VisualAgent) Clone() VisualAgent {
	out := *a
	if a.CurrentTool != nil {
		tool := *a.CurrentTool
		if a.CurrentTool.Args != nil {
			tool.Args = make(map[string]any, len(a.CurrentTool.Args))
			for k, v := range a.CurrentTool.Args {
				tool.Args[k] = v
			}
		}
		out.CurrentTool = &tool
	}
	if a.SpeechBubble != nil {
		bubble := *a.SpeechBubble
		out.SpeechBubble = &bubble
	}
	if a.OriginalPosition != nil {
		pos := *a.OriginalPosition
		out.OriginalPosition = &pos
	}
	out.ToolCallHistory = append([]ToolCallRecord(nil), a.ToolCallHistory...)
	out.ChildAgentIDs = append([]AgentID(nil), a.ChildAgentIDs...)
	return out
}

func (a *VisualAgent) AddChild(id AgentID) {
	for _, child := range a.ChildAgentIDs {
		if child == id {
			return
		}
	}
	a.ChildAgentIDs = append(a.ChildAgentIDs, id)
}

func (a *VisualAgent) RemoveChild(id AgentID) {
	children := a.ChildAgentIDs[:0]
	for _, child := range a.ChildAgentIDs {
		if child != id {
			children = append(children, child)
		}
	}
	a.ChildAgentIDs = children
}
