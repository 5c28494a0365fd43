package publisher

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/flexprice/invoicer/internal/config"
	ierr "github.com/flexprice/invoicer/internal/errors"
	"github.com/flexprice/invoicer/internal/logger"
	"github.com/flexprice/invoicer/internal/pubsub"
	"go.uber.org/fx"
)

// EventLogger consumes the events topic and writes every domain event to the
// structured log, giving an audit trail of invoice creation and settlement.
type EventLogger struct {
	subscriber pubsub.Subscriber
	topic      string
	logger     *logger.Logger
	cancel     context.CancelFunc
	done       chan struct{}
}

func NewEventLogger(cfg *config.Configuration, subscriber pubsub.Subscriber, logger *logger.Logger) *EventLogger {
	return &EventLogger{
		subscriber: subscriber,
		topic:      cfg.Events.Topic,
		logger:     logger,
	}
}

// Start subscribes to the events topic and consumes it until Stop is called
func (l *EventLogger) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	messages, err := l.subscriber.Subscribe(ctx, l.topic)
	if err != nil {
		cancel()
		return ierr.WithError(err).
			WithHintf("Failed to subscribe to %s", l.topic).
			Mark(ierr.ErrSystem)
	}

	l.cancel = cancel
	l.done = make(chan struct{})
	go func() {
		defer close(l.done)
		for msg := range messages {
			l.handle(msg)
		}
	}()
	return nil
}

// Stop cancels the subscription and waits for in flight messages
func (l *EventLogger) Stop() {
	if l.cancel == nil {
		return
	}
	l.cancel()
	<-l.done
}

func (l *EventLogger) handle(msg *message.Message) {
	var event Event
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		l.logger.Errorw("failed to decode event",
			"message_uuid", msg.UUID,
			"error", err,
		)
		msg.Ack()
		return
	}

	l.logger.Infow("event",
		"event_id", event.ID,
		"event_name", event.EventName,
		"actor", event.Actor,
		"request_id", msg.Metadata.Get("request_id"),
		"timestamp", event.Timestamp,
		"payload", string(event.Payload),
	)
	msg.Ack()
}

// RegisterEventLogger ties the event logger to the fx lifecycle
func RegisterEventLogger(lc fx.Lifecycle, l *EventLogger) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			// the subscription outlives the start hook's context
			return l.Start(context.Background())
		},
		OnStop: func(context.Context) error {
			l.Stop()
			return nil
		},
	})
}
