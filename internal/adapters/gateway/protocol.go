package gateway

import "encoding/json"

const (
	frameRequest  = "req"
	frameResponse = "res"
	frameEvent    = "event"

	MinProtocol = 1
	MaxProtocol = 3

	eventChallenge = "connect.challenge"
	eventShutdown  = "shutdown"
	methodConnect  = "connect"
	helloOKType    = "hello-ok"
)

// Event names this client consumes.
const (
	EventAgent     = "agent"
	EventChat      = "chat"
	EventPresence  = "presence"
	EventHealth    = "health"
	EventHeartbeat = "heartbeat"
	EventCron      = "cron"
	EventShutdown  = eventShutdown
)

type requestFrame struct {
	Type   string `json:"type"`
	ID     string `json:"id"`
	Method string `json:"method"`
	Params any    `json:"params,omitempty"`
}

// inboundFrame is the union of response and event frames.
type inboundFrame struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	OK      bool            `json:"ok,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Error   *ErrorShape     `json:"error,omitempty"`
	Event   string          `json:"event,omitempty"`
	Seq     *int64          `json:"seq,omitempty"`
}

// EventFrame is one server-pushed event.
type EventFrame struct {
	Event   string
	Payload json.RawMessage
	Seq     int64
}

// ResponseFrame is the server's answer to one request.
type ResponseFrame struct {
	ID      string
	OK      bool
	Payload json.RawMessage
	Error   *ErrorShape
}

type ErrorShape struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	Retryable    bool   `json:"retryable,omitempty"`
	RetryAfterMs int64  `json:"retryAfterMs,omitempty"`
}

type ClientInfo struct {
	ID       string `json:"id"`
	Version  string `json:"version"`
	Platform string `json:"platform"`
	Mode     string `json:"mode"`
}

type connectAuth struct {
	Token string `json:"token,omitempty"`
}

type connectParams struct {
	MinProtocol int         `json:"minProtocol"`
	MaxProtocol int         `json:"maxProtocol"`
	Client      ClientInfo  `json:"client"`
	Caps        []string    `json:"caps"`
	Scopes      []string    `json:"scopes,omitempty"`
	Auth        connectAuth `json:"auth"`
	Nonce       string      `json:"nonce,omitempty"`
}

type challengePayload struct {
	Nonce string `json:"nonce"`
}

type ServerInfo struct {
	Version string `json:"version"`
	Host    string `json:"host,omitempty"`
	ConnID  string `json:"connId,omitempty"`
}

type Features struct {
	Methods []string `json:"methods,omitempty"`
	Events  []string `json:"events,omitempty"`
}

// HelloOK is the handshake acknowledgement carrying the server's feature set.
type HelloOK struct {
	Type     string          `json:"type"`
	Protocol int             `json:"protocol"`
	Server   ServerInfo      `json:"server"`
	Features Features        `json:"features"`
	Snapshot json.RawMessage `json:"snapshot,omitempty"`
}
