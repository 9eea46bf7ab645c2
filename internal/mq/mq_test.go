package mq

import (
	"context"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jjudge-oj/useradmin/config"
)

func TestOpenDisabled(t *testing.T) {
	queue, err := Open(context.Background(), config.AuditConfig{Backend: config.AuditNone})
	require.NoError(t, err)
	assert.Nil(t, queue)
}

func TestOpenRejectsUnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), config.AuditConfig{Backend: "kafka"})
	assert.ErrorContains(t, err, "kafka")
}

func TestOpenPubSubRequiresProject(t *testing.T) {
	_, err := Open(context.Background(), config.AuditConfig{Backend: config.AuditPubSub})
	assert.ErrorContains(t, err, "project id")
}

func TestHeaderConversion(t *testing.T) {
	headers := attributesToHeaders(map[string]string{"type": "user.deleted"})
	assert.Equal(t, amqp.Table{"type": "user.deleted"}, headers)
	assert.Nil(t, attributesToHeaders(nil))

	attrs := headersToAttributes(amqp.Table{
		"type":  "user.updated",
		"raw":   []byte("bytes"),
		"count": int32(3),
	})
	assert.Equal(t, map[string]string{"type": "user.updated", "raw": "bytes", "count": "3"}, attrs)
}

func TestSubscriptionName(t *testing.T) {
	assert.Equal(t, "useradmin.audit-sub", (&PubSubClient{}).subscriptionName("useradmin.audit"))
	assert.Equal(t, "useradmin.audit-tail", (&PubSubClient{subscriptionSuffix: "-tail"}).subscriptionName("useradmin.audit"))
}
