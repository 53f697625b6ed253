package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryPublishConsume(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := NewInMemory(4)
	require.NoError(t, q.Publish(ctx, Message{Type: "checkin", Body: []byte("evt-1")}))

	messages, err := q.Consume(ctx)
	require.NoError(t, err)

	select {
	case msg := <-messages:
		assert.Equal(t, "checkin", msg.Type)
		assert.Equal(t, "evt-1", string(msg.Body))
	case <-time.After(time.Second):
		t.Fatal("no message received")
	}
}

func TestInMemoryPublishHonorsCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	q := NewInMemory(0)
	cancel()
	assert.ErrorIs(t, q.Publish(ctx, Message{Type: "checkin"}), context.Canceled)
}

func TestSerializeRoundTrip(t *testing.T) {
	msg, err := deserialize(serialize(Message{Type: "checkin", Body: []byte("evt|with|pipes")}))
	require.NoError(t, err)
	assert.Equal(t, "checkin", msg.Type)
	assert.Equal(t, "evt|with|pipes", string(msg.Body))

	msg, err = deserialize("no-separator")
	require.NoError(t, err)
	assert.Empty(t, msg.Type)
	assert.Equal(t, "no-separator", string(msg.Body))
}
