package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const instrumentationName = "github.com/fyrsmithlabs/maturityd/internal/notify"

// SubjectPrefix is the root of every event subject. The full subject is
// SubjectPrefix + "." + event type, e.g. maturityd.event.decision_resolved.
const SubjectPrefix = "maturityd.event"

// EventType names the lifecycle moments published on the bus.
type EventType string

const (
	EventDecisionGateOpened  EventType = "decision_gate_opened"
	EventDecisionResolved    EventType = "decision_resolved"
	EventPaymentGateOpened   EventType = "payment_gate_opened"
	EventPaymentConfirmed    EventType = "payment_confirmed"
	EventTransitionCompleted EventType = "transition_completed"
	EventGateExpired         EventType = "gate_expired"
	EventGateCancelled       EventType = "gate_cancelled"
)

// Event is the published payload. GateID is empty for transition events
// that did not pass through a gate.
type Event struct {
	Type      EventType         `json:"type"`
	ProjectID string            `json:"project_id"`
	GateID    string            `json:"gate_id,omitempty"`
	Actor     string            `json:"actor,omitempty"`
	FromState string            `json:"from_state,omitempty"`
	ToState   string            `json:"to_state,omitempty"`
	Detail    map[string]string `json:"detail,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// Notifier publishes gate lifecycle events.
type Notifier interface {
	Publish(ctx context.Context, e Event) error
}

// NATSNotifier publishes events as JSON over a NATS connection.
type NATSNotifier struct {
	nc     *nats.Conn
	logger *zap.Logger
	tracer trace.Tracer
	now    func() time.Time
}

// NewNATSNotifier creates a notifier over an established connection.
func NewNATSNotifier(nc *nats.Conn, logger *zap.Logger) (*NATSNotifier, error) {
	if nc == nil {
		return nil, errors.New("nats connection is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &NATSNotifier{
		nc:     nc,
		logger: logger,
		tracer: otel.Tracer(instrumentationName),
		now:    time.Now,
	}, nil
}

// Publish sends the event on its type subject. Errors are returned for
// observability but callers treat publication as best effort.
func (n *NATSNotifier) Publish(ctx context.Context, e Event) error {
	_, span := n.tracer.Start(ctx, "notify.publish")
	defer span.End()

	if e.Type == "" {
		return errors.New("event type is required")
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = n.now().UTC()
	}

	subject := fmt.Sprintf("%s.%s", SubjectPrefix, e.Type)
	span.SetAttributes(
		attribute.String("subject", subject),
		attribute.String("project_id", e.ProjectID),
	)

	data, err := json.Marshal(e)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("marshal event: %w", err)
	}

	if err := n.nc.Publish(subject, data); err != nil {
		span.RecordError(err)
		n.logger.Warn("event publish failed",
			zap.String("subject", subject),
			zap.String("project_id", e.ProjectID),
			zap.Error(err),
		)
		return fmt.Errorf("publish event: %w", err)
	}

	return nil
}

// NopNotifier discards all events. Used when no bus is configured.
type NopNotifier struct{}

// Publish implements Notifier.
func (NopNotifier) Publish(context.Context, Event) error { return nil }
