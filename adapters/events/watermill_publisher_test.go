package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishAccepted(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()

	messages, err := pubSub.Subscribe(context.Background(), AcceptedTopic)
	require.NoError(t, err)

	p := NewWatermillPublisher(pubSub)
	require.NoError(t, p.PublishAccepted(context.Background(), "msg-1", map[string]any{"nombre": "Ana"}))

	select {
	case msg := <-messages:
		var event AcceptedEvent
		require.NoError(t, json.Unmarshal(msg.Payload, &event))
		assert.Equal(t, "msg-1", event.MessageID)
		assert.Equal(t, "Ana", event.Fields["nombre"])
		assert.False(t, event.OccurredAt.IsZero())
		msg.Ack()
	case <-time.After(time.Second):
		t.Fatal("no accepted event received")
	}
}

func TestPublishAbuse(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()

	messages, err := pubSub.Subscribe(context.Background(), AbuseTopic)
	require.NoError(t, err)

	p := NewWatermillPublisher(pubSub)
	require.NoError(t, p.PublishAbuse(context.Background(), "honeypot", "field was filled"))

	select {
	case msg := <-messages:
		var event AbuseEvent
		require.NoError(t, json.Unmarshal(msg.Payload, &event))
		assert.Equal(t, "honeypot", event.Kind)
		msg.Ack()
	case <-time.After(time.Second):
		t.Fatal("no abuse event received")
	}
}
