package domain

import "time"

type Stream string

const (
	StreamLifecycle Stream = "lifecycle"
	StreamTool      Stream = "tool"
	StreamAssistant Stream = "assistant"
	StreamError     Stream = "error"
	StreamChat      Stream = "chat"
	StreamCron      Stream = "cron"
)

// StreamData is the closed set of agent event payloads, one variant per stream.
type StreamData interface {
	Stream() Stream
	sealed()
}

type LifecycleData struct {
	Phase string
}

type ToolData struct {
	Phase  string
	Name   string
	CallID string
	Args   map[string]any
}

type AssistantData struct {
	Text string
}

type ErrorData struct {
	Message string
}

// UnknownData carries a stream name this client does not interpret.
type UnknownData struct {
	Name string
}

func (LifecycleData) Stream() Stream { return StreamLifecycle }
func (ToolData) Stream() Stream      { return StreamTool }
func (AssistantData) Stream() Stream { return StreamAssistant }
func (ErrorData) Stream() Stream     { return StreamError }
func (d UnknownData) Stream() Stream { return Stream(d.Name) }

func (LifecycleData) sealed() {}
func (ToolData) sealed()      {}
func (AssistantData) sealed() {}
func (ErrorData) sealed()     {}
func (UnknownData) sealed()   {}

type AgentEvent struct {
	RunID      string
	Seq        int64
	SessionKey string
	Timestamp  time.Time
	Data       StreamData
}

func (e AgentEvent) Stream() Stream {
	if e.Data == nil {
		return ""
	}
	return e.Data.Stream()
}

type ChatState string

const (
	ChatStateDelta ChatState = "delta"
	ChatStateFinal ChatState = "final"
	ChatStateError ChatState = "error"
)

type ChatEvent struct {
	RunID      string
	SessionKey string
	Seq        int64
	State      ChatState
	Text       string
	Timestamp  time.Time
}

type CronEvent struct {
	JobID     string
	Action    string
	Status    string
	Timestamp time.Time
}

type HealthSnapshot struct {
	OK bool
	At time.Time
}

type PresenceEntry struct {
	Host     string
	Mode     string
	Reason   string
	LastSeen time.Time
}
