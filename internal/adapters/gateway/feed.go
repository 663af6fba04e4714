package gateway

import (
	"time"

	"github.com/bnema/clawsync/internal/domain"
	"github.com/bnema/clawsync/internal/ports"
	"go.uber.org/zap"
)

// Feed decodes the client's raw event frames into domain events.
type Feed struct {
	client *Client
	clock  ports.Clock
	logger *zap.Logger
}

var _ ports.EventFeed = (*Feed)(nil)

func NewFeed(client *Client, clock ports.Clock) *Feed {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	return &Feed{client: client, clock: clock, logger: client.logger.Named("feed")}
}

func (f *Feed) OnAgentEvent(handler func(domain.AgentEvent)) func() {
	return f.client.On(EventAgent, func(frame EventFrame) {
		event, err := DecodeAgentEvent(frame.Payload, f.clock.Now())
		if err != nil {
			f.drop(frame, err)
			return
		}
		if event.Seq == 0 {
			event.Seq = frame.Seq
		}
		handler(event)
	})
}

func (f *Feed) OnChatEvent(handler func(domain.ChatEvent)) func() {
	return f.client.On(EventChat, func(frame EventFrame) {
		event, err := DecodeChatEvent(frame.Payload, f.clock.Now())
		if err != nil {
			f.drop(frame, err)
			return
		}
		handler(event)
	})
}

func (f *Feed) OnCronEvent(handler func(domain.CronEvent)) func() {
	return f.client.On(EventCron, func(frame EventFrame) {
		event, err := DecodeCronEvent(frame.Payload, f.clock.Now())
		if err != nil {
			f.drop(frame, err)
			return
		}
		handler(event)
	})
}

func (f *Feed) OnHealth(handler func(domain.HealthSnapshot)) func() {
	return f.client.On(EventHealth, func(frame EventFrame) {
		health, err := DecodeHealth(frame.Payload, f.clock.Now())
		if err != nil {
			f.drop(frame, err)
			return
		}
		handler(health)
	})
}

func (f *Feed) OnPresence(handler func([]domain.PresenceEntry)) func() {
	return f.client.On(EventPresence, func(frame EventFrame) {
		entries, err := DecodePresence(frame.Payload, f.clock.Now())
		if err != nil {
			f.drop(frame, err)
			return
		}
		handler(entries)
	})
}

func (f *Feed) OnHeartbeat(handler func(time.Time)) func() {
	return f.client.On(EventHeartbeat, func(frame EventFrame) {
		handler(DecodeHeartbeat(frame.Payload, f.clock.Now()))
	})
}

func (f *Feed) OnStatusChange(handler func(domain.ConnectionStatus, string)) func() {
	return f.client.OnStatusChange(StatusHandler(handler))
}

func (f *Feed) drop(frame EventFrame, err error) {
	f.logger.Debug("dropping undecodable event",
		zap.String("event", frame.Event),
		zap.Int64("seq", frame.Seq),
		zap.Error(err))
}
