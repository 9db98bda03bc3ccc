package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Publisher sends raw bytes to a subject
type Publisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// Envelope wraps every message published to the bus
type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	Timestamp     time.Time       `json:"timestamp"`
	SourceService string          `json:"source_service"`
	Payload       json.RawMessage `json:"payload"`
}

// NATSSink forwards notifications to betpool.notifications.<type>
type NATSSink struct {
	publisher Publisher
}

func NewNATSSink(publisher Publisher) *NATSSink {
	return &NATSSink{publisher: publisher}
}

func (s *NATSSink) Name() string { return "nats" }

func (s *NATSSink) Deliver(ctx context.Context, n Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	envelope := Envelope{
		EventID:       uuid.New().String(),
		EventType:     string(n.Type),
		Timestamp:     time.Now().UTC(),
		SourceService: "betpool",
		Payload:       payload,
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal envelope: %w", err)
	}

	return s.publisher.Publish(ctx, Subject(n), data)
}

// Subject returns the bus subject a notification is published on
func Subject(n Notification) string {
	return notificationSubjectPrefix + "." + string(n.Type)
}
