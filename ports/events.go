package ports

import "context"

// EventPublisher notifies other components about pipeline outcomes.
type EventPublisher interface {
	// PublishAccepted fires after a sanitized submission has been stored.
	// The notification worker subscribes to this to send the email.
	PublishAccepted(ctx context.Context, messageID string, fields map[string]any) error

	// PublishAbuse fires on honeypot trips and replay detections.
	PublishAbuse(ctx context.Context, kind string, detail string) error
}
