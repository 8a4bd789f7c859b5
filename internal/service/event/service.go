package event

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/jwalitptl/intake-api/pkg/messaging"
)

// DefaultPublishTimeout bounds how long a mutation waits on the broker.
// Emit runs inside the request, so this is added latency while the broker
// is down and the circuit breaker has not opened yet.
const DefaultPublishTimeout = 250 * time.Millisecond

// Emitter announces domain changes. Emit never fails the caller.
type Emitter interface {
	Emit(ctx context.Context, eventType string, payload interface{})
}

type EventService struct {
	broker  messaging.Broker
	logger  *zerolog.Logger
	timeout time.Duration
}

// NewEventService publishes through broker. A non-positive timeout means
// DefaultPublishTimeout.
func NewEventService(broker messaging.Broker, logger *zerolog.Logger, timeout time.Duration) *EventService {
	if broker == nil {
		broker = messaging.NopBroker{}
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	if timeout <= 0 {
		timeout = DefaultPublishTimeout
	}
	return &EventService{broker: broker, logger: logger, timeout: timeout}
}

// Emit publishes payload on the eventType channel. Failures are logged and
// dropped; the request that caused the change has already succeeded.
func (s *EventService) Emit(ctx context.Context, eventType string, payload interface{}) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	if err := s.broker.Publish(ctx, eventType, payload); err != nil {
		s.logger.Warn().
			Err(err).
			Str("event_type", eventType).
			Msg("failed to publish event")
		return
	}
	s.logger.Debug().Str("event_type", eventType).Msg("event published")
}
