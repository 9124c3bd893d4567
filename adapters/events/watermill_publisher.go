// Package events publishes pipeline outcomes over watermill so other
// processes (the notification worker, monitoring) can react.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"

	"github.com/caracol-studio/formgate/ports"
)

const (
	// AcceptedTopic carries sanitized stored submissions. The email
	// notifier subscribes here.
	AcceptedTopic = "formgate.message.accepted"

	// AbuseTopic carries honeypot trips and replay detections.
	AbuseTopic = "formgate.abuse.detected"
)

// AcceptedEvent is emitted after a submission passes verification and
// is stored.
type AcceptedEvent struct {
	MessageID  string         `json:"message_id"`
	Fields     map[string]any `json:"fields"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// AbuseEvent is emitted when the pipeline detects likely automation.
type AbuseEvent struct {
	Kind       string    `json:"kind"` // "honeypot" or "replay"
	Detail     string    `json:"detail"`
	OccurredAt time.Time `json:"occurred_at"`
}

// WatermillPublisher implements the EventPublisher port using Watermill.
type WatermillPublisher struct {
	publisher message.Publisher
}

var _ ports.EventPublisher = (*WatermillPublisher)(nil)

func NewWatermillPublisher(publisher message.Publisher) *WatermillPublisher {
	return &WatermillPublisher{publisher: publisher}
}

func (p *WatermillPublisher) PublishAccepted(_ context.Context, messageID string, fields map[string]any) error {
	return p.publish(AcceptedTopic, AcceptedEvent{
		MessageID:  messageID,
		Fields:     fields,
		OccurredAt: time.Now().UTC(),
	})
}

func (p *WatermillPublisher) PublishAbuse(_ context.Context, kind, detail string) error {
	return p.publish(AbuseTopic, AbuseEvent{
		Kind:       kind,
		Detail:     detail,
		OccurredAt: time.Now().UTC(),
	})
}

func (p *WatermillPublisher) publish(topic string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(uuid.New().String(), payload)

	if err := p.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}
