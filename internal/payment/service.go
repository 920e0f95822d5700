package payment

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/maturityd/internal/audit"
	"github.com/fyrsmithlabs/maturityd/internal/maturity"
	"github.com/fyrsmithlabs/maturityd/internal/notify"
	"github.com/fyrsmithlabs/maturityd/internal/store"
)

const instrumentationName = "github.com/fyrsmithlabs/maturityd/internal/payment"

var (
	// ErrGateNotOpen means the gate already reached a terminal status and
	// cannot be confirmed or cancelled.
	ErrGateNotOpen = errors.New("payment gate is not open")

	// ErrGateExpired means the gate's deadline passed unconfirmed.
	ErrGateExpired = errors.New("payment gate has expired")

	// ErrReferenceRequired means a confirmation carried no external
	// transaction reference.
	ErrReferenceRequired = errors.New("an external payment reference is required")

	// ErrNoMilestone means the target level carries no payment milestone.
	ErrNoMilestone = errors.New("level has no payment milestone")
)

// milestonePercents is the fixed cumulative billing schedule. Reaching a
// level entitles billing up to its percentage of the contract value.
var milestonePercents = map[maturity.Level]float64{
	maturity.LevelPOC:        0,
	maturity.LevelMVP:        25,
	maturity.LevelPilot:      50,
	maturity.LevelProduction: 75,
	maturity.LevelScale:      100,
}

// MilestonePercent returns the cumulative billing percentage for a level.
func MilestonePercent(level maturity.Level) float64 {
	return milestonePercents[level]
}

// Config configures the payment gate service.
type Config struct {
	// TTL is how long a gate stays open before it expires (default: 168h).
	TTL time.Duration

	// Cumulative bills the difference between the target milestone and what
	// the project already paid. When false, each gate restates the full
	// milestone percentage (default: true).
	Cumulative bool
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		TTL:        168 * time.Hour,
		Cumulative: true,
	}
}

// Service manages the payment gate lifecycle.
type Service struct {
	config   *Config
	store    store.KnowledgeStore
	trail    *audit.Trail
	notifier notify.Notifier
	logger   *zap.Logger

	tracer           trace.Tracer
	meter            metric.Meter
	openedCounter    metric.Int64Counter
	confirmedCounter metric.Int64Counter
	expiredCounter   metric.Int64Counter

	now func() time.Time
}

// NewService creates a payment gate service.
func NewService(cfg *Config, ks store.KnowledgeStore, trail *audit.Trail, notifier notify.Notifier, logger *zap.Logger) (*Service, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if ks == nil {
		return nil, errors.New("knowledge store is required")
	}
	if trail == nil {
		return nil, errors.New("audit trail is required")
	}
	if notifier == nil {
		notifier = notify.NopNotifier{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Service{
		config:   cfg,
		store:    ks,
		trail:    trail,
		notifier: notifier,
		logger:   logger,
		tracer:   otel.Tracer(instrumentationName),
		meter:    otel.Meter(instrumentationName),
		now:      time.Now,
	}

	s.initMetrics()

	return s, nil
}

// initMetrics initializes OpenTelemetry metrics.
func (s *Service) initMetrics() {
	var err error

	s.openedCounter, err = s.meter.Int64Counter(
		"maturityd.payment.opened_total",
		metric.WithDescription("Total number of payment gates opened"),
		metric.WithUnit("{gate}"),
	)
	if err != nil {
		s.logger.Warn("failed to create opened counter", zap.Error(err))
	}

	s.confirmedCounter, err = s.meter.Int64Counter(
		"maturityd.payment.confirmed_total",
		metric.WithDescription("Total number of payment gates confirmed externally"),
		metric.WithUnit("{gate}"),
	)
	if err != nil {
		s.logger.Warn("failed to create confirmed counter", zap.Error(err))
	}

	s.expiredCounter, err = s.meter.Int64Counter(
		"maturityd.payment.expired_total",
		metric.WithDescription("Total number of payment gates expired unconfirmed"),
		metric.WithUnit("{gate}"),
	)
	if err != nil {
		s.logger.Warn("failed to create expired counter", zap.Error(err))
	}
}

// Open opens a payment gate for an approved level-crossing decision. An
// existing open gate for the same decision is returned as is, so retried
// approvals never double-bill.
func (s *Service) Open(ctx context.Context, decisionGate *store.DecisionGate, project *store.Project) (*store.PaymentGate, error) {
	ctx, span := s.tracer.Start(ctx, "payment.open")
	defer span.End()

	if decisionGate == nil || project == nil {
		return nil, errors.New("decision gate and project are required")
	}

	span.SetAttributes(
		attribute.String("project_id", project.ID),
		attribute.String("decision_gate_id", decisionGate.ID),
		attribute.String("to_state", decisionGate.To.String()),
	)

	targetPercent, ok := milestonePercents[decisionGate.To.Level]
	if !ok || targetPercent == 0 {
		return nil, fmt.Errorf("level %s: %w", decisionGate.To.Level, ErrNoMilestone)
	}

	existing, err := s.openForDecision(ctx, project.ID, decisionGate.ID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	billablePercent := targetPercent
	if s.config.Cumulative {
		billablePercent = targetPercent - project.BilledPercent
		if billablePercent < 0 {
			billablePercent = 0
		}
	}
	amount := project.ContractValue * billablePercent / 100

	now := s.now().UTC()
	gate := &store.PaymentGate{
		ID:             uuid.New().String(),
		DecisionGateID: decisionGate.ID,
		ProjectID:      project.ID,
		Amount:         amount,
		Currency:       project.Currency,
		Milestone:      fmt.Sprintf("%s milestone", decisionGate.To.Level),
		TargetPercent:  targetPercent,
		Status:         store.PaymentOpen,
		CreatedAt:      now,
		Deadline:       now.Add(s.config.TTL),
	}

	if err := s.store.PutPaymentGate(ctx, gate); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("storing payment gate: %w", err)
	}

	if _, err := s.trail.Append(ctx, audit.Entry{
		EventType:   audit.EventPaymentOpened,
		ProjectID:   project.ID,
		Actor:       decisionGate.ResolvedBy,
		BeforeState: decisionGate.From.String(),
		AfterState:  decisionGate.To.String(),
		Payload: map[string]string{
			"gate_id":          gate.ID,
			"decision_gate_id": decisionGate.ID,
			"amount":           strconv.FormatFloat(gate.Amount, 'f', 2, 64),
			"currency":         gate.Currency,
			"milestone":        gate.Milestone,
		},
	}); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("auditing payment open: %w", err)
	}

	s.publish(ctx, notify.Event{
		Type:      notify.EventPaymentGateOpened,
		ProjectID: project.ID,
		GateID:    gate.ID,
		ToState:   decisionGate.To.String(),
		Detail: map[string]string{
			"amount":   strconv.FormatFloat(gate.Amount, 'f', 2, 64),
			"currency": gate.Currency,
		},
	})

	if s.openedCounter != nil {
		s.openedCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("milestone", string(decisionGate.To.Level)),
		))
	}

	s.logger.Info("payment gate opened",
		zap.String("gate_id", gate.ID),
		zap.String("project_id", project.ID),
		zap.Float64("amount", gate.Amount),
		zap.String("currency", gate.Currency),
		zap.Time("deadline", gate.Deadline),
	)

	span.SetAttributes(attribute.String("gate_id", gate.ID))
	return gate, nil
}

// Confirm records an external payment confirmation. Confirming an already
// confirmed gate is a no-op that returns the existing confirmation, so
// at-least-once delivery from billing systems is safe.
func (s *Service) Confirm(ctx context.Context, gateID, externalReference, actor string) (*store.PaymentGate, error) {
	ctx, span := s.tracer.Start(ctx, "payment.confirm")
	defer span.End()

	span.SetAttributes(attribute.String("gate_id", gateID))

	if externalReference == "" {
		return nil, ErrReferenceRequired
	}

	gate, err := s.store.GetPaymentGate(ctx, gateID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	switch gate.Status {
	case store.PaymentConfirmed:
		return gate, nil
	case store.PaymentExpired:
		return gate, ErrGateExpired
	case store.PaymentCancelled:
		return gate, ErrGateNotOpen
	}

	now := s.now().UTC()
	if now.After(gate.Deadline) {
		expired, err := s.expire(ctx, gate)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		return expired, ErrGateExpired
	}

	gate.Status = store.PaymentConfirmed
	gate.ExternalReference = externalReference
	gate.ConfirmedBy = actor
	gate.ConfirmedAt = now

	if err := s.store.PutPaymentGate(ctx, gate); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("storing payment gate: %w", err)
	}

	if _, err := s.trail.Append(ctx, audit.Entry{
		EventType: audit.EventPaymentConfirmed,
		ProjectID: gate.ProjectID,
		Actor:     actor,
		Payload: map[string]string{
			"gate_id":            gate.ID,
			"external_reference": externalReference,
			"amount":             strconv.FormatFloat(gate.Amount, 'f', 2, 64),
		},
	}); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("auditing payment confirmation: %w", err)
	}

	s.publish(ctx, notify.Event{
		Type:      notify.EventPaymentConfirmed,
		ProjectID: gate.ProjectID,
		GateID:    gate.ID,
		Actor:     actor,
		Detail:    map[string]string{"external_reference": externalReference},
	})

	if s.confirmedCounter != nil {
		s.confirmedCounter.Add(ctx, 1)
	}

	s.logger.Info("payment gate confirmed",
		zap.String("gate_id", gate.ID),
		zap.String("project_id", gate.ProjectID),
		zap.String("external_reference", externalReference),
	)

	return gate, nil
}

// Cancel withdraws an open gate, typically because its decision gate was
// re-requested or the engagement changed shape.
func (s *Service) Cancel(ctx context.Context, gateID, actor, reason string) (*store.PaymentGate, error) {
	ctx, span := s.tracer.Start(ctx, "payment.cancel")
	defer span.End()

	span.SetAttributes(attribute.String("gate_id", gateID))

	gate, err := s.store.GetPaymentGate(ctx, gateID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if gate.Status.Terminal() {
		return gate, ErrGateNotOpen
	}

	gate.Status = store.PaymentCancelled

	if err := s.store.PutPaymentGate(ctx, gate); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("storing payment gate: %w", err)
	}

	if _, err := s.trail.Append(ctx, audit.Entry{
		EventType: audit.EventPaymentCancelled,
		ProjectID: gate.ProjectID,
		Actor:     actor,
		Payload:   map[string]string{"gate_id": gate.ID, "reason": reason},
	}); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("auditing payment cancellation: %w", err)
	}

	s.publish(ctx, notify.Event{
		Type:      notify.EventGateCancelled,
		ProjectID: gate.ProjectID,
		GateID:    gate.ID,
		Actor:     actor,
		Detail:    map[string]string{"kind": "payment"},
	})

	s.logger.Info("payment gate cancelled",
		zap.String("gate_id", gate.ID),
		zap.String("project_id", gate.ProjectID),
		zap.String("actor", actor),
	)

	return gate, nil
}

// Overdue returns every open gate whose deadline has passed. Read only;
// the engine expires each gate under its project lock.
func (s *Service) Overdue(ctx context.Context) ([]*store.PaymentGate, error) {
	ctx, span := s.tracer.Start(ctx, "payment.overdue")
	defer span.End()

	open, err := s.store.ListPaymentGates(ctx, store.PaymentGateFilter{Status: store.PaymentOpen})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("listing open gates: %w", err)
	}

	now := s.now().UTC()
	var overdue []*store.PaymentGate
	for _, gate := range open {
		if now.After(gate.Deadline) {
			overdue = append(overdue, gate)
		}
	}

	span.SetAttributes(attribute.Int("overdue", len(overdue)))
	return overdue, nil
}

// Expire expires the gate if it is still open and past its deadline. The
// gate is re-read so a confirmation that won the project lock first is
// never overwritten; such gates return nil without error.
func (s *Service) Expire(ctx context.Context, gateID string) (*store.PaymentGate, error) {
	ctx, span := s.tracer.Start(ctx, "payment.expire")
	defer span.End()

	span.SetAttributes(attribute.String("gate_id", gateID))

	gate, err := s.store.GetPaymentGate(ctx, gateID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if gate.Status != store.PaymentOpen || !s.now().UTC().After(gate.Deadline) {
		return nil, nil
	}
	return s.expire(ctx, gate)
}

// Get returns a gate by ID.
func (s *Service) Get(ctx context.Context, gateID string) (*store.PaymentGate, error) {
	return s.store.GetPaymentGate(ctx, gateID)
}

// OpenForProject returns the project's open gate, or nil when there is
// none.
func (s *Service) OpenForProject(ctx context.Context, projectID string) (*store.PaymentGate, error) {
	gates, err := s.store.ListPaymentGates(ctx, store.PaymentGateFilter{
		ProjectID: projectID,
		Status:    store.PaymentOpen,
	})
	if err != nil {
		return nil, fmt.Errorf("listing open gates: %w", err)
	}
	if len(gates) == 0 {
		return nil, nil
	}
	return gates[0], nil
}

func (s *Service) openForDecision(ctx context.Context, projectID, decisionGateID string) (*store.PaymentGate, error) {
	gates, err := s.store.ListPaymentGates(ctx, store.PaymentGateFilter{
		ProjectID: projectID,
		Status:    store.PaymentOpen,
	})
	if err != nil {
		return nil, fmt.Errorf("listing open gates: %w", err)
	}
	for _, g := range gates {
		if g.DecisionGateID == decisionGateID {
			return g, nil
		}
	}
	return nil, nil
}

func (s *Service) expire(ctx context.Context, gate *store.PaymentGate) (*store.PaymentGate, error) {
	gate.Status = store.PaymentExpired

	if err := s.store.PutPaymentGate(ctx, gate); err != nil {
		return nil, fmt.Errorf("storing expired gate: %w", err)
	}

	if _, err := s.trail.Append(ctx, audit.Entry{
		EventType: audit.EventPaymentExpired,
		ProjectID: gate.ProjectID,
		Actor:     "system",
		Payload:   map[string]string{"gate_id": gate.ID},
	}); err != nil {
		return nil, fmt.Errorf("auditing payment expiry: %w", err)
	}

	s.publish(ctx, notify.Event{
		Type:      notify.EventGateExpired,
		ProjectID: gate.ProjectID,
		GateID:    gate.ID,
		Detail:    map[string]string{"kind": "payment"},
	})

	if s.expiredCounter != nil {
		s.expiredCounter.Add(ctx, 1)
	}

	s.logger.Info("payment gate expired",
		zap.String("gate_id", gate.ID),
		zap.String("project_id", gate.ProjectID),
	)

	return gate, nil
}

func (s *Service) publish(ctx context.Context, e notify.Event) {
	if err := s.notifier.Publish(ctx, e); err != nil {
		s.logger.Warn("notification publish failed",
			zap.String("event", string(e.Type)),
			zap.Error(err),
		)
	}
}
