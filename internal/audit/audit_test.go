package audit

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jjudge-oj/useradmin/internal/mq"
)

type published struct {
	channel string
	msg     mq.Message
}

type fakeBackend struct {
	published  []published
	publishErr error
	inbox      []mq.Message
	acked      int
}

func (f *fakeBackend) Publish(ctx context.Context, channel string, msg mq.Message) (string, error) {
	if f.publishErr != nil {
		return "", f.publishErr
	}
	f.published = append(f.published, published{channel: channel, msg: msg})
	return msg.ID, nil
}

func (f *fakeBackend) Subscribe(ctx context.Context, channel string, handler mq.Handler) error {
	for _, msg := range f.inbox {
		if err := handler(ctx, msg); err != nil {
			return err
		}
		f.acked++
	}
	return nil
}

func (f *fakeBackend) Close() error { return nil }

func TestPublisherRecord(t *testing.T) {
	backend := &fakeBackend{}
	p := NewPublisher(mq.New(backend), "useradmin.audit", zap.NewNop())
	p.newID = func() string { return "evt-1" }
	p.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

	p.Record(context.Background(), Event{Type: UserDeleted, UserID: "2"})

	require.Len(t, backend.published, 1)
	got := backend.published[0]
	assert.Equal(t, "useradmin.audit", got.channel)
	assert.Equal(t, "evt-1", got.msg.ID)
	assert.Equal(t, "application/json", got.msg.ContentType)
	assert.Equal(t, map[string]string{"type": "user.deleted"}, got.msg.Attributes)
	assert.JSONEq(t, `{"id":"evt-1","type":"user.deleted","user_id":"2","occurred_at":"2024-05-01T12:00:00Z"}`, string(got.msg.Data))
}

func TestPublisherRecordSwallowsFailures(t *testing.T) {
	backend := &fakeBackend{publishErr: errors.New("broker down")}
	p := NewPublisher(mq.New(backend), "useradmin.audit", nil)

	assert.NotPanics(t, func() {
		p.Record(context.Background(), Event{Type: UserUpdated, UserID: "1"})
	})
}

func TestNilPublisher(t *testing.T) {
	var p *Publisher
	assert.NotPanics(t, func() {
		p.Record(context.Background(), Event{Type: ReportExported, Rows: 3})
	})
	assert.NoError(t, p.Close())
	assert.Error(t, p.Tail(context.Background(), func(Event) error { return nil }))
}

func TestPublisherTail(t *testing.T) {
	valid, err := json.Marshal(Event{ID: "e1", Type: ReportExported, Rows: 4})
	require.NoError(t, err)

	backend := &fakeBackend{inbox: []mq.Message{
		{ID: "m1", Data: []byte("not json")},
		{ID: "m2", Data: valid},
	}}
	p := NewPublisher(mq.New(backend), "useradmin.audit", zap.NewNop())

	var events []Event
	err = p.Tail(context.Background(), func(e Event) error {
		events = append(events, e)
		return nil
	})
	require.NoError(t, err)

	require.Len(t, events, 1)
	assert.Equal(t, ReportExported, events[0].Type)
	assert.Equal(t, 4, events[0].Rows)
	assert.Equal(t, 2, backend.acked)
}
