package mq

import (
	"context"
	"fmt"
	"strings"

	"github.com/jjudge-oj/useradmin/config"
)

// Message represents a broker-agnostic payload.
type Message struct {
	ID          string
	Data        []byte
	ContentType string
	Attributes  map[string]string
}

// Handler processes a message. Return an error to signal a retry/nack.
type Handler func(ctx context.Context, msg Message) error

// Backend defines the broker-agnostic operations used by the app.
type Backend interface {
	Publish(ctx context.Context, channel string, msg Message) (string, error)
	Subscribe(ctx context.Context, channel string, handler Handler) error
	Close() error
}

// MQ wraps a backend with a stable API.
type MQ struct {
	backend Backend
}

// New constructs an MQ wrapper for the provided backend.
func New(backend Backend) *MQ {
	return &MQ{backend: backend}
}

// Open connects to the broker selected by cfg. It returns a nil MQ when
// no broker is configured.
func Open(ctx context.Context, cfg config.AuditConfig) (*MQ, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", config.AuditNone:
		return nil, nil
	case config.AuditRabbitMQ:
		backend, err := NewRabbitMQClient(cfg.RabbitMQ)
		if err != nil {
			return nil, err
		}
		return New(backend), nil
	case config.AuditPubSub:
		backend, err := NewPubSubClient(ctx, cfg.PubSub)
		if err != nil {
			return nil, err
		}
		return New(backend), nil
	default:
		return nil, fmt.Errorf("unknown audit backend %q", cfg.Backend)
	}
}

// Publish sends a message to the named channel and returns its broker id.
func (m *MQ) Publish(ctx context.Context, channel string, msg Message) (string, error) {
	return m.backend.Publish(ctx, channel, msg)
}

// Subscribe consumes messages from the named channel until ctx is done.
func (m *MQ) Subscribe(ctx context.Context, channel string, handler Handler) error {
	return m.backend.Subscribe(ctx, channel, handler)
}

// Close closes the underlying backend.
func (m *MQ) Close() error {
	return m.backend.Close()
}
