package mq

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChannel struct {
	exchange, key string
	msg           amqp.Publishing
	err           error
	closed        bool
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	f.exchange, f.key, f.msg = exchange, key, msg
	return f.err
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func TestPublishJSON(t *testing.T) {
	ch := &fakeChannel{}
	p := NewChannelPublisher(ch, "volunteer.events")

	err := p.PublishJSON(context.Background(), "booking.confirmed", map[string]string{"booking_id": "b1"})
	require.NoError(t, err)

	assert.Equal(t, "volunteer.events", ch.exchange)
	assert.Equal(t, "booking.confirmed", ch.key)
	assert.Equal(t, "application/json", ch.msg.ContentType)
	assert.Equal(t, amqp.Persistent, ch.msg.DeliveryMode)
	assert.NotEmpty(t, ch.msg.MessageId)

	var body map[string]string
	require.NoError(t, json.Unmarshal(ch.msg.Body, &body))
	assert.Equal(t, "b1", body["booking_id"])

	require.NoError(t, p.Close())
	assert.True(t, ch.closed)
}

func TestPublishJSON_Errors(t *testing.T) {
	boom := errors.New("channel closed")
	p := NewChannelPublisher(&fakeChannel{err: boom}, "x")
	assert.ErrorIs(t, p.PublishJSON(context.Background(), "k", 1), boom)

	assert.Error(t, p.PublishJSON(context.Background(), "k", make(chan int)))
}
