package publisher

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/flexprice/invoicer/internal/config"
	ierr "github.com/flexprice/invoicer/internal/errors"
	"github.com/flexprice/invoicer/internal/logger"
	"github.com/flexprice/invoicer/internal/pubsub"
	"github.com/flexprice/invoicer/internal/types"
)

// Event is the envelope every domain event is published in
type Event struct {
	ID        string          `json:"id"`
	EventName string          `json:"event_name"`
	Timestamp time.Time       `json:"timestamp"`
	Actor     string          `json:"actor,omitempty"`
	Payload   json.RawMessage `json:"payload"`
}

// EventPublisher publishes domain events after the state change they describe committed
type EventPublisher interface {
	Publish(ctx context.Context, eventName string, payload interface{}) error
}

type eventPublisher struct {
	pubsub pubsub.Publisher
	topic  string
	logger *logger.Logger
}

// NewEventPublisher creates a publisher writing to the configured events topic
func NewEventPublisher(cfg *config.Configuration, pubsub pubsub.Publisher, logger *logger.Logger) EventPublisher {
	return &eventPublisher{
		pubsub: pubsub,
		topic:  cfg.Events.Topic,
		logger: logger,
	}
}

func (p *eventPublisher) Publish(ctx context.Context, eventName string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return ierr.WithError(err).
			WithHintf("Failed to encode %s event", eventName).
			Mark(ierr.ErrSystem)
	}

	event := &Event{
		ID:        types.GenerateUUIDWithPrefix(types.UUID_PREFIX_EVENT),
		EventName: eventName,
		Timestamp: time.Now().UTC(),
		Actor:     types.GetUserID(ctx),
		Payload:   data,
	}

	body, err := json.Marshal(event)
	if err != nil {
		return ierr.WithError(err).
			WithHintf("Failed to encode %s event", eventName).
			Mark(ierr.ErrSystem)
	}

	msg := message.NewMessage(event.ID, body)
	msg.Metadata.Set("event_name", eventName)
	if requestID := types.GetRequestID(ctx); requestID != "" {
		msg.Metadata.Set("request_id", requestID)
	}

	p.logger.Debugw("publishing event",
		"event_id", event.ID,
		"event_name", eventName,
		"topic", p.topic,
	)

	if err := p.pubsub.Publish(ctx, p.topic, msg); err != nil {
		return ierr.WithError(err).
			WithHintf("Failed to publish %s event", eventName).
			Mark(ierr.ErrSystem)
	}
	return nil
}
