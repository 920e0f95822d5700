package decision

import (
	"context"
	"errors"
	"fmt"
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

const instrumentationName = "github.com/fyrsmithlabs/maturityd/internal/decision"

var (
	// ErrGatePending means the project already has an unresolved gate. The
	// existing gate is returned alongside this error.
	ErrGatePending = errors.New("project already has a pending decision gate")

	// ErrGateResolved means the gate already reached a terminal status.
	ErrGateResolved = errors.New("decision gate is already resolved")

	// ErrGateExpired means the gate's deadline passed before resolution.
	ErrGateExpired = errors.New("decision gate has expired")

	// ErrActorRequired means the resolution named no human actor.
	ErrActorRequired = errors.New("a named actor is required")

	// ErrJustificationRequired means the resolution carried no rationale.
	ErrJustificationRequired = errors.New("a justification is required")
)

// Config configures the decision gate service.
type Config struct {
	// TTL is how long a gate stays open before it expires (default: 24h).
	TTL time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{TTL: 24 * time.Hour}
}

// OpenRequest opens a decision gate for a requested transition.
type OpenRequest struct {
	ProjectID   string
	From        maturity.State
	To          maturity.State
	Override    bool
	RequestedBy string
	Packet      store.DecisionPacket
}

// ResolveRequest records a human decision on a pending gate.
type ResolveRequest struct {
	GateID        string
	Approve       bool
	Actor         string
	Justification string
}

// Service manages the decision gate lifecycle. It never resolves a gate on
// its own; every approval and rejection comes from a named human.
type Service struct {
	config   *Config
	store    store.KnowledgeStore
	trail    *audit.Trail
	notifier notify.Notifier
	logger   *zap.Logger

	tracer          trace.Tracer
	meter           metric.Meter
	openedCounter   metric.Int64Counter
	resolvedCounter metric.Int64Counter
	expiredCounter  metric.Int64Counter

	now func() time.Time
}

// NewService creates a decision gate service.
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
		"maturityd.decision.opened_total",
		metric.WithDescription("Total number of decision gates opened"),
		metric.WithUnit("{gate}"),
	)
	if err != nil {
		s.logger.Warn("failed to create opened counter", zap.Error(err))
	}

	s.resolvedCounter, err = s.meter.Int64Counter(
		"maturityd.decision.resolved_total",
		metric.WithDescription("Total number of decision gates resolved by a human"),
		metric.WithUnit("{gate}"),
	)
	if err != nil {
		s.logger.Warn("failed to create resolved counter", zap.Error(err))
	}

	s.expiredCounter, err = s.meter.Int64Counter(
		"maturityd.decision.expired_total",
		metric.WithDescription("Total number of decision gates expired unresolved"),
		metric.WithUnit("{gate}"),
	)
	if err != nil {
		s.logger.Warn("failed to create expired counter", zap.Error(err))
	}
}

// Open opens a gate for the requested transition. If the project already
// has a pending gate, that gate is returned with ErrGatePending so the
// caller can decide whether the request is a retry or a conflict.
func (s *Service) Open(ctx context.Context, req *OpenRequest) (*store.DecisionGate, error) {
	ctx, span := s.tracer.Start(ctx, "decision.open")
	defer span.End()

	span.SetAttributes(
		attribute.String("project_id", req.ProjectID),
		attribute.String("to_state", req.To.String()),
		attribute.Bool("override", req.Override),
	)

	if req.ProjectID == "" {
		return nil, errors.New("project id is required")
	}
	if req.RequestedBy == "" {
		return nil, ErrActorRequired
	}

	existing, err := s.PendingForProject(ctx, req.ProjectID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if existing != nil {
		return existing, ErrGatePending
	}

	now := s.now().UTC()
	gate := &store.DecisionGate{
		ID:          uuid.New().String(),
		ProjectID:   req.ProjectID,
		From:        req.From,
		To:          req.To,
		Override:    req.Override,
		Status:      store.DecisionPending,
		Packet:      req.Packet,
		CreatedAt:   now,
		Deadline:    now.Add(s.config.TTL),
		RequestedBy: req.RequestedBy,
	}

	if err := s.store.PutDecisionGate(ctx, gate); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("storing decision gate: %w", err)
	}

	if _, err := s.trail.Append(ctx, audit.Entry{
		EventType:   audit.EventDecisionOpened,
		ProjectID:   gate.ProjectID,
		Actor:       gate.RequestedBy,
		BeforeState: gate.From.String(),
		AfterState:  gate.To.String(),
		Payload: map[string]string{
			"gate_id":  gate.ID,
			"overall":  gate.Packet.Overall,
			"deadline": gate.Deadline.Format(time.RFC3339),
		},
	}); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("auditing gate open: %w", err)
	}

	s.publish(ctx, notify.Event{
		Type:      notify.EventDecisionGateOpened,
		ProjectID: gate.ProjectID,
		GateID:    gate.ID,
		Actor:     gate.RequestedBy,
		FromState: gate.From.String(),
		ToState:   gate.To.String(),
	})

	if s.openedCounter != nil {
		s.openedCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.Bool("override", gate.Override),
		))
	}

	s.logger.Info("decision gate opened",
		zap.String("gate_id", gate.ID),
		zap.String("project_id", gate.ProjectID),
		zap.String("to_state", gate.To.String()),
		zap.Time("deadline", gate.Deadline),
	)

	span.SetAttributes(attribute.String("gate_id", gate.ID))
	return gate, nil
}

// Resolve records a human approval or rejection. A gate past its deadline
// is expired instead, and ErrGateExpired is returned.
func (s *Service) Resolve(ctx context.Context, req *ResolveRequest) (*store.DecisionGate, error) {
	ctx, span := s.tracer.Start(ctx, "decision.resolve")
	defer span.End()

	span.SetAttributes(
		attribute.String("gate_id", req.GateID),
		attribute.Bool("approve", req.Approve),
	)

	if req.Actor == "" {
		return nil, ErrActorRequired
	}
	if req.Justification == "" {
		return nil, ErrJustificationRequired
	}

	gate, err := s.store.GetDecisionGate(ctx, req.GateID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if gate.Status.Terminal() {
		if gate.Status == store.DecisionExpired {
			return gate, ErrGateExpired
		}
		return gate, ErrGateResolved
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

	gate.Status = store.DecisionRejected
	if req.Approve {
		gate.Status = store.DecisionApproved
	}
	gate.ResolvedBy = req.Actor
	gate.Justification = req.Justification
	gate.ResolvedAt = now

	if err := s.store.PutDecisionGate(ctx, gate); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("storing decision gate: %w", err)
	}

	eventType := audit.EventDecisionRejected
	if req.Approve {
		eventType = audit.EventDecisionApproved
	}
	if _, err := s.trail.Append(ctx, audit.Entry{
		EventType:   eventType,
		ProjectID:   gate.ProjectID,
		Actor:       req.Actor,
		BeforeState: gate.From.String(),
		AfterState:  gate.To.String(),
		Payload: map[string]string{
			"gate_id":       gate.ID,
			"justification": req.Justification,
		},
	}); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("auditing gate resolution: %w", err)
	}

	s.publish(ctx, notify.Event{
		Type:      notify.EventDecisionResolved,
		ProjectID: gate.ProjectID,
		GateID:    gate.ID,
		Actor:     req.Actor,
		FromState: gate.From.String(),
		ToState:   gate.To.String(),
		Detail:    map[string]string{"status": string(gate.Status)},
	})

	if s.resolvedCounter != nil {
		s.resolvedCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("status", string(gate.Status)),
		))
	}

	s.logger.Info("decision gate resolved",
		zap.String("gate_id", gate.ID),
		zap.String("project_id", gate.ProjectID),
		zap.String("status", string(gate.Status)),
		zap.String("resolved_by", gate.ResolvedBy),
	)

	return gate, nil
}

// Cancel withdraws a pending gate without resolving it. Used when the
// underlying request is obsolete (scope change, contract renegotiation).
func (s *Service) Cancel(ctx context.Context, gateID, actor, reason string) (*store.DecisionGate, error) {
	ctx, span := s.tracer.Start(ctx, "decision.cancel")
	defer span.End()

	span.SetAttributes(attribute.String("gate_id", gateID))

	if actor == "" {
		return nil, ErrActorRequired
	}

	gate, err := s.store.GetDecisionGate(ctx, gateID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if gate.Status.Terminal() {
		return gate, ErrGateResolved
	}

	gate.Status = store.DecisionCancelled
	gate.ResolvedBy = actor
	gate.Justification = reason
	gate.ResolvedAt = s.now().UTC()

	if err := s.store.PutDecisionGate(ctx, gate); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("storing decision gate: %w", err)
	}

	if _, err := s.trail.Append(ctx, audit.Entry{
		EventType: audit.EventDecisionCancelled,
		ProjectID: gate.ProjectID,
		Actor:     actor,
		Payload:   map[string]string{"gate_id": gate.ID, "reason": reason},
	}); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("auditing gate cancellation: %w", err)
	}

	s.publish(ctx, notify.Event{
		Type:      notify.EventGateCancelled,
		ProjectID: gate.ProjectID,
		GateID:    gate.ID,
		Actor:     actor,
	})

	s.logger.Info("decision gate cancelled",
		zap.String("gate_id", gate.ID),
		zap.String("project_id", gate.ProjectID),
		zap.String("actor", actor),
	)

	return gate, nil
}

// Overdue returns every pending gate whose deadline has passed. Read only;
// the engine expires each gate under its project lock.
func (s *Service) Overdue(ctx context.Context) ([]*store.DecisionGate, error) {
	ctx, span := s.tracer.Start(ctx, "decision.overdue")
	defer span.End()

	pending, err := s.store.ListDecisionGates(ctx, store.DecisionGateFilter{Status: store.DecisionPending})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("listing pending gates: %w", err)
	}

	now := s.now().UTC()
	var overdue []*store.DecisionGate
	for _, gate := range pending {
		if now.After(gate.Deadline) {
			overdue = append(overdue, gate)
		}
	}

	span.SetAttributes(attribute.Int("overdue", len(overdue)))
	return overdue, nil
}

// Expire expires the gate if it is still pending and past its deadline.
// The gate is re-read so a resolution that won the project lock first is
// never overwritten; such gates return nil without error.
func (s *Service) Expire(ctx context.Context, gateID string) (*store.DecisionGate, error) {
	ctx, span := s.tracer.Start(ctx, "decision.expire")
	defer span.End()

	span.SetAttributes(attribute.String("gate_id", gateID))

	gate, err := s.store.GetDecisionGate(ctx, gateID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if gate.Status != store.DecisionPending || !s.now().UTC().After(gate.Deadline) {
		return nil, nil
	}
	return s.expire(ctx, gate)
}

// Get returns a gate by ID.
func (s *Service) Get(ctx context.Context, gateID string) (*store.DecisionGate, error) {
	return s.store.GetDecisionGate(ctx, gateID)
}

// PendingForProject returns the project's pending gate, or nil when there
// is none.
func (s *Service) PendingForProject(ctx context.Context, projectID string) (*store.DecisionGate, error) {
	gates, err := s.store.ListDecisionGates(ctx, store.DecisionGateFilter{
		ProjectID: projectID,
		Status:    store.DecisionPending,
	})
	if err != nil {
		return nil, fmt.Errorf("listing pending gates: %w", err)
	}
	if len(gates) == 0 {
		return nil, nil
	}
	return gates[0], nil
}

func (s *Service) expire(ctx context.Context, gate *store.DecisionGate) (*store.DecisionGate, error) {
	gate.Status = store.DecisionExpired
	gate.ResolvedAt = s.now().UTC()

	if err := s.store.PutDecisionGate(ctx, gate); err != nil {
		return nil, fmt.Errorf("storing expired gate: %w", err)
	}

	if _, err := s.trail.Append(ctx, audit.Entry{
		EventType: audit.EventDecisionExpired,
		ProjectID: gate.ProjectID,
		Actor:     "system",
		Payload:   map[string]string{"gate_id": gate.ID},
	}); err != nil {
		return nil, fmt.Errorf("auditing gate expiry: %w", err)
	}

	s.publish(ctx, notify.Event{
		Type:      notify.EventGateExpired,
		ProjectID: gate.ProjectID,
		GateID:    gate.ID,
		Detail:    map[string]string{"kind": "decision"},
	})

	if s.expiredCounter != nil {
		s.expiredCounter.Add(ctx, 1)
	}

	s.logger.Info("decision gate expired",
		zap.String("gate_id", gate.ID),
		zap.String("project_id", gate.ProjectID),
	)

	return gate, nil
}

// publish sends a notification and logs failures. Gate state changes never
// depend on the bus being reachable.
func (s *Service) publish(ctx context.Context, e notify.Event) {
	if err := s.notifier.Publish(ctx, e); err != nil {
		s.logger.Warn("notification publish failed",
			zap.String("event", string(e.Type)),
			zap.Error(err),
		)
	}
}
