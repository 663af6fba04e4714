package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/bnema/clawsync/internal/domain"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	DefaultRequestTimeout = 10 * time.Second
	dialTimeout           = 15 * time.Second
	closeWriteTimeout     = time.Second
)

var errMaxReconnects = errors.New("max reconnect attempts reached")

type EventHandler func(EventFrame)

type StatusHandler func(status domain.ConnectionStatus, errMsg string)

type Config struct {
	Client               ClientInfo
	Caps                 []string
	Scopes               []string
	MaxReconnectAttempts int
	RequestTimeout       time.Duration
	// ReconnectDelay overrides the exponential backoff schedule.
	ReconnectDelay func(attempt int) time.Duration
	Dialer         *websocket.Dialer
	Logger         *zap.Logger
}

type eventEntry struct {
	id int
	fn EventHandler
}

type statusEntry struct {
	id int
	fn StatusHandler
}

// Client owns one Gateway socket: handshake, reconnection, and frame dispatch.
type Client struct {
	cfg    Config
	logger *zap.Logger
	dialer *websocket.Dialer

	mu         sync.Mutex
	url        string
	token      string
	conn       *websocket.Conn
	gen        uint64
	status     domain.ConnectionStatus
	statusErr  string
	attempts   int
	closed     bool
	timer      *time.Timer
	cancelDial context.CancelFunc
	hello      *HelloOK
	pending    map[string]func(ResponseFrame)
	handlers   map[string][]eventEntry
	wildcard   []eventEntry
	statusSubs []statusEntry
	nextSubID  int

	writeMu sync.Mutex
}

func NewClient(cfg Config) *Client {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.MaxReconnectAttempts <= 0 {
		cfg.MaxReconnectAttempts = DefaultMaxReconnects
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.ReconnectDelay == nil {
		cfg.ReconnectDelay = func(attempt int) time.Duration {
			return ReconnectDelay(attempt, nil)
		}
	}
	if cfg.Client.ID == "" {
		cfg.Client.ID = "clawsync"
	}
	if cfg.Client.Platform == "" {
		cfg.Client.Platform = runtime.GOOS
	}
	if cfg.Client.Mode == "" {
		cfg.Client.Mode = "ui"
	}
	if cfg.Caps == nil {
		cfg.Caps = []string{}
	}

	dialer := cfg.Dialer
	if dialer == nil {
		d := *websocket.DefaultDialer
		d.HandshakeTimeout = dialTimeout
		dialer = &d
	}

	return &Client{
		cfg:      cfg,
		logger:   cfg.Logger.Named("gateway"),
		dialer:   dialer,
		status:   domain.ConnectionDisconnected,
		pending:  map[string]func(ResponseFrame){},
		handlers: map[string][]eventEntry{},
	}
}

// Connect starts connecting in the background. Progress is reported through
// OnStatusChange.
func (c *Client) Connect(url, token string) {
	c.mu.Lock()
	c.url = url
	c.token = token
	c.closed = false
	c.attempts = 0
	c.stopTimerLocked()
	c.mu.Unlock()

	c.open()
}

// Disconnect closes the socket and suppresses any further reconnection. It is
// safe to call repeatedly.
func (c *Client) Disconnect() {
	c.mu.Lock()
	c.closed = true
	c.stopTimerLocked()
	conn, pending := c.detachLocked()
	notify := c.setStatusLocked(domain.ConnectionDisconnected, "")
	c.mu.Unlock()

	closeConn(conn)
	rejectPending(pending, "disconnected")
	notify()
}

func (c *Client) Status() domain.ConnectionStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Hello returns the handshake acknowledgement of the current connection.
func (c *Client) Hello() (HelloOK, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hello == nil {
		return HelloOK{}, false
	}
	return *c.hello, true
}

// On registers a handler for one event name.
func (c *Client) On(event string, handler EventHandler) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextSubID++
	id := c.nextSubID
	c.handlers[event] = append(c.handlers[event], eventEntry{id: id, fn: handler})

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.handlers[event] = removeEventEntry(c.handlers[event], id)
	}
}

// OnAny registers a handler for every event.
func (c *Client) OnAny(handler EventHandler) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextSubID++
	id := c.nextSubID
	c.wildcard = append(c.wildcard, eventEntry{id: id, fn: handler})

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.wildcard = removeEventEntry(c.wildcard, id)
	}
}

func (c *Client) OnStatusChange(handler StatusHandler) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextSubID++
	id := c.nextSubID
	c.statusSubs = append(c.statusSubs, statusEntry{id: id, fn: handler})

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		subs := c.statusSubs[:0:0]
		for _, sub := range c.statusSubs {
			if sub.id != id {
				subs = append(subs, sub)
			}
		}
		c.statusSubs = subs
	}
}

func (c *Client) open() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	conn, pending := c.detachLocked()
	gen := c.gen
	url := c.url
	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	c.cancelDial = cancel
	notify := c.setStatusLocked(domain.ConnectionConnecting, "")
	c.mu.Unlock()

	closeConn(conn)
	rejectPending(pending, "connection replaced")
	notify()

	go c.run(ctx, cancel, gen, url)
}

func (c *Client) run(ctx context.Context, cancel context.CancelFunc, gen uint64, url string) {
	conn, _, err := c.dialer.DialContext(ctx, url, nil)
	cancel()
	if err != nil {
		c.logger.Warn("gateway dial failed", zap.String("url", url), zap.Error(err))
		c.handleClose(gen, err)
		return
	}

	c.mu.Lock()
	if c.closed || gen != c.gen {
		c.mu.Unlock()
		closeConn(conn)
		return
	}
	c.conn = conn
	c.cancelDial = nil
	c.mu.Unlock()

	c.logger.Debug("gateway socket open", zap.String("url", url))

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.handleClose(gen, err)
			return
		}
		c.dispatch(gen, data)
	}
}

func (c *Client) dispatch(gen uint64, data []byte) {
	var frame inboundFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		c.logger.Debug("dropping malformed frame", zap.Error(err))
		return
	}

	switch frame.Type {
	case frameEvent:
		event := EventFrame{Event: frame.Event, Payload: frame.Payload}
		if frame.Seq != nil {
			event.Seq = *frame.Seq
		}
		c.handleEvent(gen, event)
	case frameResponse:
		response := ResponseFrame{ID: frame.ID, OK: frame.OK, Payload: frame.Payload, Error: frame.Error}
		c.mu.Lock()
		handler, ok := c.pending[frame.ID]
		if ok {
			delete(c.pending, frame.ID)
		}
		c.mu.Unlock()

		if ok {
			handler(response)
			return
		}
		c.handleHandshake(gen, response)
	default:
		c.logger.Debug("dropping frame of unknown type", zap.String("type", frame.Type))
	}
}

func (c *Client) handleEvent(gen uint64, event EventFrame) {
	switch event.Event {
	case eventChallenge:
		c.sendConnect(gen, event.Payload)
		return
	case eventShutdown:
		c.handleShutdown(gen)
	}

	c.mu.Lock()
	named := append([]eventEntry(nil), c.handlers[event.Event]...)
	wildcard := append([]eventEntry(nil), c.wildcard...)
	c.mu.Unlock()

	for _, entry := range named {
		entry.fn(event)
	}
	for _, entry := range wildcard {
		entry.fn(event)
	}
}

func (c *Client) sendConnect(gen uint64, payload json.RawMessage) {
	var challenge challengePayload
	if len(payload) > 0 {
		_ = json.Unmarshal(payload, &challenge)
	}

	c.mu.Lock()
	if gen != c.gen || c.conn == nil {
		c.mu.Unlock()
		return
	}
	conn := c.conn
	params := connectParams{
		MinProtocol: MinProtocol,
		MaxProtocol: MaxProtocol,
		Client:      c.cfg.Client,
		Caps:        c.cfg.Caps,
		Scopes:      c.cfg.Scopes,
		Auth:        connectAuth{Token: c.token},
		Nonce:       challenge.Nonce,
	}
	c.mu.Unlock()

	frame := requestFrame{Type: frameRequest, ID: uuid.NewString(), Method: methodConnect, Params: params}
	if err := c.write(conn, frame); err != nil {
		c.logger.Warn("send connect request failed", zap.Error(err))
	}
}

// handleHandshake interprets a response that matched no pending request.
func (c *Client) handleHandshake(gen uint64, response ResponseFrame) {
	c.mu.Lock()
	if gen != c.gen || c.status != domain.ConnectionConnecting {
		c.mu.Unlock()
		c.logger.Debug("dropping unroutable response", zap.String("id", response.ID))
		return
	}

	if !response.OK {
		message := "handshake rejected"
		if response.Error != nil && response.Error.Message != "" {
			message = response.Error.Message
		}
		c.closed = true
		conn, pending := c.detachLocked()
		notify := c.setStatusLocked(domain.ConnectionError, message)
		c.mu.Unlock()

		c.logger.Error("gateway handshake rejected", zap.String("reason", message))
		closeConn(conn)
		rejectPending(pending, message)
		notify()
		return
	}

	var hello HelloOK
	if err := json.Unmarshal(response.Payload, &hello); err != nil || hello.Type != helloOKType {
		c.mu.Unlock()
		c.logger.Debug("dropping unroutable response", zap.String("id", response.ID))
		return
	}

	c.hello = &hello
	c.attempts = 0
	notify := c.setStatusLocked(domain.ConnectionConnected, "")
	c.mu.Unlock()

	c.logger.Info("gateway connected",
		zap.Int("protocol", hello.Protocol),
		zap.String("server", hello.Server.Version))
	notify()
}

func (c *Client) handleShutdown(gen uint64) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.stopTimerLocked()
	conn, pending := c.detachLocked()
	notify := c.setStatusLocked(domain.ConnectionDisconnected, "gateway shut down")
	c.mu.Unlock()

	c.logger.Info("gateway announced shutdown")
	closeConn(conn)
	rejectPending(pending, "gateway shut down")
	notify()
}

func (c *Client) handleClose(gen uint64, cause error) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	conn, pending := c.detachLocked()

	var notify func()
	switch {
	case c.closed:
		notify = c.setStatusLocked(domain.ConnectionDisconnected, "")
	case c.attempts >= c.cfg.MaxReconnectAttempts:
		notify = c.setStatusLocked(domain.ConnectionDisconnected, errMaxReconnects.Error())
		c.logger.Warn("giving up on gateway", zap.Int("attempts", c.attempts))
	default:
		delay := c.cfg.ReconnectDelay(c.attempts)
		c.attempts++
		notify = c.setStatusLocked(domain.ConnectionReconnecting, errorString(cause))
		c.timer = time.AfterFunc(delay, c.reconnect)
		c.logger.Info("gateway reconnect scheduled",
			zap.Int("attempt", c.attempts),
			zap.Duration("delay", delay),
			zap.Error(cause))
	}
	c.mu.Unlock()

	closeConn(conn)
	rejectPending(pending, "connection lost")
	notify()
}

func (c *Client) reconnect() {
	c.mu.Lock()
	c.timer = nil
	closed := c.closed
	c.mu.Unlock()

	if closed {
		return
	}
	c.open()
}

// detachLocked fences the current connection generation and hands back the
// socket and pending requests for cleanup outside the lock.
func (c *Client) detachLocked() (*websocket.Conn, map[string]func(ResponseFrame)) {
	c.gen++
	if c.cancelDial != nil {
		c.cancelDial()
		c.cancelDial = nil
	}
	conn := c.conn
	c.conn = nil
	c.hello = nil
	pending := c.pending
	c.pending = map[string]func(ResponseFrame){}
	return conn, pending
}

func (c *Client) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// setStatusLocked records a transition and returns the notification to run
// once the lock is released.
func (c *Client) setStatusLocked(status domain.ConnectionStatus, errMsg string) func() {
	if c.status == status && c.statusErr == errMsg {
		return func() {}
	}
	c.status = status
	c.statusErr = errMsg
	subs := append([]statusEntry(nil), c.statusSubs...)

	return func() {
		for _, sub := range subs {
			sub.fn(status, errMsg)
		}
	}
}

func (c *Client) write(conn *websocket.Conn, frame any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := conn.WriteJSON(frame); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

func closeConn(conn *websocket.Conn) {
	if conn == nil {
		return
	}
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(closeWriteTimeout))
	_ = conn.Close()
}

func rejectPending(pending map[string]func(ResponseFrame), reason string) {
	for id, handler := range pending {
		handler(ResponseFrame{
			ID:    id,
			Error: &ErrorShape{Code: CodeNotConnected, Message: reason},
		})
	}
}

func removeEventEntry(entries []eventEntry, id int) []eventEntry {
	kept := entries[:0:0]
	for _, entry := range entries {
		if entry.id != id {
			kept = append(kept, entry)
		}
	}
	return kept
}

func errorString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
