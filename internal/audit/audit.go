// Package audit publishes a record of every change the console makes to
// user data, and of every report it exports.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jjudge-oj/useradmin/internal/mq"
)

type EventType string

const (
	UserUpdated    EventType = "user.updated"
	UserDeleted    EventType = "user.deleted"
	ReportExported EventType = "report.exported"
)

const (
	contentTypeJSON = "application/json"
	typeAttribute   = "type"
)

// Event is the JSON payload published for each audited action.
type Event struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	UserID     string    `json:"user_id,omitempty"`
	Rows       int       `json:"rows,omitempty"`
	ArchiveKey string    `json:"archive_key,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher sends events to a message queue channel. A nil Publisher
// discards everything.
type Publisher struct {
	queue   *mq.MQ
	channel string
	logger  *zap.Logger
	now     func() time.Time
	newID   func() string
}

func NewPublisher(queue *mq.MQ, channel string, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{
		queue:   queue,
		channel: channel,
		logger:  logger,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// Record publishes event, filling in its id and time when unset.
// Failures are logged and never returned.
func (p *Publisher) Record(ctx context.Context, event Event) {
	if p == nil || p.queue == nil {
		return
	}
	if event.ID == "" {
		event.ID = p.newID()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = p.now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("encode audit event", zap.String("type", string(event.Type)), zap.Error(err))
		return
	}

	_, err = p.queue.Publish(ctx, p.channel, mq.Message{
		ID:          event.ID,
		Data:        data,
		ContentType: contentTypeJSON,
		Attributes:  map[string]string{typeAttribute: string(event.Type)},
	})
	if err != nil {
		p.logger.Warn("publish audit event",
			zap.String("channel", p.channel),
			zap.String("type", string(event.Type)),
			zap.String("event_id", event.ID),
			zap.Error(err),
		)
		return
	}
	p.logger.Debug("audit event published", zap.String("type", string(event.Type)), zap.String("event_id", event.ID))
}

// Tail delivers every event on the channel to fn until ctx is done.
// Malformed payloads are logged and acknowledged.
func (p *Publisher) Tail(ctx context.Context, fn func(Event) error) error {
	if p == nil || p.queue == nil {
		return fmt.Errorf("audit backend is not configured")
	}
	return p.queue.Subscribe(ctx, p.channel, func(ctx context.Context, msg mq.Message) error {
		var event Event
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			p.logger.Warn("discard malformed audit event", zap.String("message_id", msg.ID), zap.Error(err))
			return nil
		}
		return fn(event)
	})
}

// Close releases the underlying queue.
func (p *Publisher) Close() error {
	if p == nil || p.queue == nil {
		return nil
	}
	return p.queue.Close()
}
