package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/maturityd/internal/audit"
	"github.com/fyrsmithlabs/maturityd/internal/decision"
	"github.com/fyrsmithlabs/maturityd/internal/maturity"
	"github.com/fyrsmithlabs/maturityd/internal/notify"
	"github.com/fyrsmithlabs/maturityd/internal/patterns"
	"github.com/fyrsmithlabs/maturityd/internal/payment"
	"github.com/fyrsmithlabs/maturityd/internal/store"
	"github.com/fyrsmithlabs/maturityd/internal/validator"
)

const instrumentationName = "github.com/fyrsmithlabs/maturityd/internal/engine"

var (
	// ErrJustificationRequired means an override was requested without a
	// written rationale.
	ErrJustificationRequired = decision.ErrJustificationRequired

	// ErrBackwardTransition means the target state is not ahead of the
	// current state. The model only moves forward.
	ErrBackwardTransition = errors.New("target state is not ahead of the current state")

	// ErrInvalidRequest means a request failed field validation.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrGateMismatch means a pending gate exists for a different target
	// than the one requested.
	ErrGateMismatch = errors.New("a pending gate exists for a different target state")
)

// Outcome is the result classification of a transition step.
type Outcome string

const (
	// OutcomeAwaitingDecision means a decision gate is open and a human
	// must resolve it.
	OutcomeAwaitingDecision Outcome = "awaiting_decision"

	// OutcomeAwaitingPayment means the decision was approved and a payment
	// gate awaits external confirmation.
	OutcomeAwaitingPayment Outcome = "awaiting_payment"

	// OutcomeApproved means the transition committed.
	OutcomeApproved Outcome = "approved"

	// OutcomeRejected means a human rejected the transition.
	OutcomeRejected Outcome = "rejected"
)

// TransitionRequest asks to move a project to a target state.
type TransitionRequest struct {
	ProjectID     string
	Target        maturity.State
	Actor         string
	Override      bool
	Justification string
}

// TransitionResult reports where a transition step landed.
type TransitionResult struct {
	Outcome      Outcome             `json:"outcome"`
	Project      *store.Project      `json:"project"`
	DecisionGate *store.DecisionGate `json:"decision_gate,omitempty"`
	PaymentGate  *store.PaymentGate  `json:"payment_gate,omitempty"`
}

// CreateProjectRequest registers a new engagement at the initial state.
type CreateProjectRequest struct {
	Name          string
	ClientName    string
	ProjectType   string
	ClientType    string
	Objectives    []string
	Stakeholders  []string
	ContractValue float64
	Currency      string
	Actor         string
	Metadata      map[string]string
}

// StateMachine drives projects through the maturity model. All mutations
// for one project are serialized by a per-project lock; different projects
// proceed concurrently.
type StateMachine struct {
	store     store.KnowledgeStore
	trail     *audit.Trail
	validator *validator.Validator
	decisions *decision.Service
	payments  *payment.Service
	patterns  *patterns.Engine
	notifier  notify.Notifier
	logger    *zap.Logger

	tracer          trace.Tracer
	meter           metric.Meter
	commitCounter   metric.Int64Counter
	overrideCounter metric.Int64Counter

	mu    sync.Mutex
	locks map[string]*sync.Mutex

	now func() time.Time
}

// NewStateMachine wires the engine over its collaborating services.
func NewStateMachine(
	ks store.KnowledgeStore,
	trail *audit.Trail,
	v *validator.Validator,
	decisions *decision.Service,
	payments *payment.Service,
	pe *patterns.Engine,
	notifier notify.Notifier,
	logger *zap.Logger,
) (*StateMachine, error) {
	if ks == nil {
		return nil, errors.New("knowledge store is required")
	}
	if trail == nil {
		return nil, errors.New("audit trail is required")
	}
	if v == nil {
		return nil, errors.New("validator is required")
	}
	if decisions == nil {
		return nil, errors.New("decision service is required")
	}
	if payments == nil {
		return nil, errors.New("payment service is required")
	}
	if notifier == nil {
		notifier = notify.NopNotifier{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &StateMachine{
		store:     ks,
		trail:     trail,
		validator: v,
		decisions: decisions,
		payments:  payments,
		patterns:  pe,
		notifier:  notifier,
		logger:    logger,
		tracer:    otel.Tracer(instrumentationName),
		meter:     otel.Meter(instrumentationName),
		locks:     make(map[string]*sync.Mutex),
		now:       time.Now,
	}

	m.initMetrics()

	return m, nil
}

// initMetrics initializes OpenTelemetry metrics.
func (m *StateMachine) initMetrics() {
	var err error

	m.commitCounter, err = m.meter.Int64Counter(
		"maturityd.engine.transitions_total",
		metric.WithDescription("Total number of committed maturity transitions"),
		metric.WithUnit("{transition}"),
	)
	if err != nil {
		m.logger.Warn("failed to create commit counter", zap.Error(err))
	}

	m.overrideCounter, err = m.meter.Int64Counter(
		"maturityd.engine.overrides_total",
		metric.WithDescription("Total number of ordering overrides used"),
		metric.WithUnit("{override}"),
	)
	if err != nil {
		m.logger.Warn("failed to create override counter", zap.Error(err))
	}
}

// projectLock returns the mutex serializing one project's mutations.
func (m *StateMachine) projectLock(projectID string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.locks[projectID]
	if !ok {
		l = &sync.Mutex{}
		m.locks[projectID] = l
	}
	return l
}

// CreateProject registers an engagement at POC-L1 and audits its creation.
func (m *StateMachine) CreateProject(ctx context.Context, req *CreateProjectRequest) (*store.Project, error) {
	ctx, span := m.tracer.Start(ctx, "engine.create_project")
	defer span.End()

	if req.Name == "" {
		return nil, fmt.Errorf("project name is required: %w", ErrInvalidRequest)
	}
	if req.ContractValue < 0 {
		return nil, fmt.Errorf("contract value must not be negative: %w", ErrInvalidRequest)
	}
	if req.ContractValue > 0 && req.Currency == "" {
		return nil, fmt.Errorf("currency is required for a non-zero contract value: %w", ErrInvalidRequest)
	}

	now := m.now().UTC()
	p := &store.Project{
		ID:            uuid.New().String(),
		Name:          req.Name,
		ClientName:    req.ClientName,
		ProjectType:   req.ProjectType,
		ClientType:    req.ClientType,
		Objectives:    req.Objectives,
		Stakeholders:  req.Stakeholders,
		ContractValue: req.ContractValue,
		Currency:      req.Currency,
		State:         maturity.Initial(),
		Metadata:      req.Metadata,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	span.SetAttributes(attribute.String("project_id", p.ID))

	if err := m.store.PutProject(ctx, p); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("storing project: %w", err)
	}

	if _, err := m.trail.Append(ctx, audit.Entry{
		EventType:  audit.EventProjectCreated,
		ProjectID:  p.ID,
		Actor:      req.Actor,
		AfterState: p.State.String(),
		Payload:    map[string]string{"name": p.Name, "client": p.ClientName},
	}); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("auditing project creation: %w", err)
	}

	m.logger.Info("project created",
		zap.String("project_id", p.ID),
		zap.String("name", p.Name),
		zap.String("state", p.State.String()),
	)

	return p, nil
}

// GetProject returns a project by ID.
func (m *StateMachine) GetProject(ctx context.Context, projectID string) (*store.Project, error) {
	return m.store.GetProject(ctx, projectID)
}

// RecordEvidence marks a checklist requirement satisfied or unsatisfied.
// Evidence arrives out of band from delivery teams and only influences
// future validation reports; it never moves state by itself.
func (m *StateMachine) RecordEvidence(ctx context.Context, projectID, requirement, actor string, satisfied bool) (*store.Project, error) {
	ctx, span := m.tracer.Start(ctx, "engine.record_evidence")
	defer span.End()

	span.SetAttributes(
		attribute.String("project_id", projectID),
		attribute.String("requirement", requirement),
		attribute.Bool("satisfied", satisfied),
	)

	if requirement == "" {
		return nil, errors.New("requirement name is required")
	}

	lock := m.projectLock(projectID)
	lock.Lock()
	defer lock.Unlock()

	p, err := m.store.GetProject(ctx, projectID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if p.Satisfied == nil {
		p.Satisfied = make(map[string]bool)
	}
	if satisfied {
		p.Satisfied[requirement] = true
	} else {
		delete(p.Satisfied, requirement)
	}
	p.UpdatedAt = m.now().UTC()

	if err := m.store.PutProject(ctx, p); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("storing project: %w", err)
	}

	if _, err := m.trail.Append(ctx, audit.Entry{
		EventType: audit.EventEvidenceRecorded,
		ProjectID: projectID,
		Actor:     actor,
		Payload: map[string]string{
			"requirement": requirement,
			"satisfied":   fmt.Sprintf("%t", satisfied),
		},
	}); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("auditing evidence: %w", err)
	}

	return p, nil
}

// RequestTransition validates ordering, builds the decision packet, and
// opens a decision gate. Re-requesting the same pending transition returns
// the open gate unchanged.
func (m *StateMachine) RequestTransition(ctx context.Context, req *TransitionRequest) (*TransitionResult, error) {
	ctx, span := m.tracer.Start(ctx, "engine.request_transition")
	defer span.End()

	span.SetAttributes(
		attribute.String("project_id", req.ProjectID),
		attribute.String("target", req.Target.String()),
		attribute.Bool("override", req.Override),
	)

	if req.Actor == "" {
		return nil, decision.ErrActorRequired
	}
	if !req.Target.Level.Valid() || !req.Target.Checkpoint.Valid() {
		return nil, fmt.Errorf("%s: %w", req.Target, maturity.ErrUnknownState)
	}

	lock := m.projectLock(req.ProjectID)
	lock.Lock()
	defer lock.Unlock()

	p, err := m.store.GetProject(ctx, req.ProjectID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if p.State == maturity.Terminal() {
		return nil, fmt.Errorf("%s: %w", p.State, maturity.ErrTerminalState)
	}

	override := false
	if !maturity.IsImmediateSuccessor(p.State, req.Target) {
		if maturity.Compare(req.Target, p.State) <= 0 {
			return nil, fmt.Errorf("%s to %s: %w", p.State, req.Target, ErrBackwardTransition)
		}
		if !req.Override {
			return nil, fmt.Errorf("%s to %s: %w", p.State, req.Target, maturity.ErrNotSuccessor)
		}
		if req.Justification == "" {
			return nil, ErrJustificationRequired
		}
		override = true
	}

	// A matching pending gate makes the request a retry, not a conflict.
	if pending, err := m.decisions.PendingForProject(ctx, req.ProjectID); err != nil {
		span.RecordError(err)
		return nil, err
	} else if pending != nil {
		if pending.To == req.Target {
			return &TransitionResult{
				Outcome:      OutcomeAwaitingDecision,
				Project:      p,
				DecisionGate: pending,
			}, nil
		}
		return nil, fmt.Errorf("pending gate targets %s: %w", pending.To, ErrGateMismatch)
	}

	// An approved crossing awaiting payment is still in flight. A matching
	// re-request returns the open payment gate instead of minting a second
	// decision gate for the same milestone.
	if payGate, err := m.payments.OpenForProject(ctx, req.ProjectID); err != nil {
		span.RecordError(err)
		return nil, err
	} else if payGate != nil {
		approvedGate, err := m.decisions.Get(ctx, payGate.DecisionGateID)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		if approvedGate.To == req.Target {
			return &TransitionResult{
				Outcome:      OutcomeAwaitingPayment,
				Project:      p,
				DecisionGate: approvedGate,
				PaymentGate:  payGate,
			}, nil
		}
		return nil, fmt.Errorf("open payment gate targets %s: %w", approvedGate.To, ErrGateMismatch)
	}

	packet := m.buildPacket(ctx, p, req.Target)

	if _, err := m.trail.Append(ctx, audit.Entry{
		EventType:   audit.EventTransitionRequested,
		ProjectID:   p.ID,
		Actor:       req.Actor,
		BeforeState: p.State.String(),
		AfterState:  req.Target.String(),
		Payload:     map[string]string{"override": fmt.Sprintf("%t", override)},
	}); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("auditing transition request: %w", err)
	}

	if override {
		if _, err := m.trail.Append(ctx, audit.Entry{
			EventType:   audit.EventTransitionOverride,
			ProjectID:   p.ID,
			Actor:       req.Actor,
			BeforeState: p.State.String(),
			AfterState:  req.Target.String(),
			Payload:     map[string]string{"justification": req.Justification},
		}); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("auditing override: %w", err)
		}
		if m.overrideCounter != nil {
			m.overrideCounter.Add(ctx, 1)
		}
	}

	gate, err := m.decisions.Open(ctx, &decision.OpenRequest{
		ProjectID:   p.ID,
		From:        p.State,
		To:          req.Target,
		Override:    override,
		RequestedBy: req.Actor,
		Packet:      packet,
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(attribute.String("gate_id", gate.ID))
	return &TransitionResult{
		Outcome:      OutcomeAwaitingDecision,
		Project:      p,
		DecisionGate: gate,
	}, nil
}

// ResolveDecision records the human decision and drives the continuation:
// approval of a level crossing opens a payment gate, approval within a
// level commits immediately, rejection ends the attempt.
func (m *StateMachine) ResolveDecision(ctx context.Context, gateID string, approve bool, actor, justification string) (*TransitionResult, error) {
	ctx, span := m.tracer.Start(ctx, "engine.resolve_decision")
	defer span.End()

	span.SetAttributes(
		attribute.String("gate_id", gateID),
		attribute.Bool("approve", approve),
	)

	peek, err := m.decisions.Get(ctx, gateID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	lock := m.projectLock(peek.ProjectID)
	lock.Lock()
	defer lock.Unlock()

	gate, err := m.decisions.Resolve(ctx, &decision.ResolveRequest{
		GateID:        gateID,
		Approve:       approve,
		Actor:         actor,
		Justification: justification,
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	p, err := m.store.GetProject(ctx, gate.ProjectID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if gate.Status == store.DecisionRejected {
		return &TransitionResult{
			Outcome:      OutcomeRejected,
			Project:      p,
			DecisionGate: gate,
		}, nil
	}

	if maturity.LevelCrossing(gate.From, gate.To) {
		payGate, err := m.payments.Open(ctx, gate, p)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		return &TransitionResult{
			Outcome:      OutcomeAwaitingPayment,
			Project:      p,
			DecisionGate: gate,
			PaymentGate:  payGate,
		}, nil
	}

	committed, err := m.commit(ctx, p, gate, nil)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	return &TransitionResult{
		Outcome:      OutcomeApproved,
		Project:      committed,
		DecisionGate: gate,
	}, nil
}

// ConfirmPayment records the external confirmation and commits the gated
// transition. Re-confirming a gate whose transition already committed is a
// no-op returning the committed result.
func (m *StateMachine) ConfirmPayment(ctx context.Context, gateID, externalReference, actor string) (*TransitionResult, error) {
	ctx, span := m.tracer.Start(ctx, "engine.confirm_payment")
	defer span.End()

	span.SetAttributes(attribute.String("gate_id", gateID))

	if externalReference == "" {
		return nil, payment.ErrReferenceRequired
	}

	peek, err := m.payments.Get(ctx, gateID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	lock := m.projectLock(peek.ProjectID)
	lock.Lock()
	defer lock.Unlock()

	payGate, err := m.payments.Confirm(ctx, gateID, externalReference, actor)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	decisionGate, err := m.decisions.Get(ctx, payGate.DecisionGateID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	p, err := m.store.GetProject(ctx, payGate.ProjectID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if p.State == decisionGate.To {
		return &TransitionResult{
			Outcome:      OutcomeApproved,
			Project:      p,
			DecisionGate: decisionGate,
			PaymentGate:  payGate,
		}, nil
	}

	committed, err := m.commit(ctx, p, decisionGate, payGate)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	return &TransitionResult{
		Outcome:      OutcomeApproved,
		Project:      committed,
		DecisionGate: decisionGate,
		PaymentGate:  payGate,
	}, nil
}

// ExpireOverdueDecisions expires pending decision gates past their
// deadline. Each expiry holds the gate's project lock so a sweep never
// races a resolution; gates resolved in the window are skipped.
func (m *StateMachine) ExpireOverdueDecisions(ctx context.Context) ([]*store.DecisionGate, error) {
	overdue, err := m.decisions.Overdue(ctx)
	if err != nil {
		return nil, err
	}

	var expired []*store.DecisionGate
	for _, gate := range overdue {
		lock := m.projectLock(gate.ProjectID)
		lock.Lock()
		e, err := m.decisions.Expire(ctx, gate.ID)
		lock.Unlock()
		if err != nil {
			return expired, err
		}
		if e != nil {
			expired = append(expired, e)
		}
	}
	return expired, nil
}

// ExpireOverduePayments expires open payment gates past their deadline,
// holding each gate's project lock the same way.
func (m *StateMachine) ExpireOverduePayments(ctx context.Context) ([]*store.PaymentGate, error) {
	overdue, err := m.payments.Overdue(ctx)
	if err != nil {
		return nil, err
	}

	var expired []*store.PaymentGate
	for _, gate := range overdue {
		lock := m.projectLock(gate.ProjectID)
		lock.Lock()
		e, err := m.payments.Expire(ctx, gate.ID)
		lock.Unlock()
		if err != nil {
			return expired, err
		}
		if e != nil {
			expired = append(expired, e)
		}
	}
	return expired, nil
}

// CancelDecisionGate withdraws a pending decision gate.
func (m *StateMachine) CancelDecisionGate(ctx context.Context, gateID, actor, reason string) (*store.DecisionGate, error) {
	peek, err := m.decisions.Get(ctx, gateID)
	if err != nil {
		return nil, err
	}

	lock := m.projectLock(peek.ProjectID)
	lock.Lock()
	defer lock.Unlock()

	return m.decisions.Cancel(ctx, gateID, actor, reason)
}

// CancelPaymentGate withdraws an open payment gate.
func (m *StateMachine) CancelPaymentGate(ctx context.Context, gateID, actor, reason string) (*store.PaymentGate, error) {
	peek, err := m.payments.Get(ctx, gateID)
	if err != nil {
		return nil, err
	}

	lock := m.projectLock(peek.ProjectID)
	lock.Lock()
	defer lock.Unlock()

	return m.payments.Cancel(ctx, gateID, actor, reason)
}

// buildPacket composes the decision packet from validation and mined
// patterns. Pattern mining is advisory; its failure degrades the packet
// instead of blocking the request.
func (m *StateMachine) buildPacket(ctx context.Context, p *store.Project, target maturity.State) store.DecisionPacket {
	report := m.validator.Validate(p, target)

	packet := store.DecisionPacket{
		Overall:  string(report.Overall),
		Blockers: report.Blockers,
	}
	packet.PerCategory = make(map[string]string, len(report.PerCategory))
	for cat, status := range report.PerCategory {
		packet.PerCategory[string(cat)] = string(status)
	}

	if m.patterns == nil {
		return packet
	}

	analysis, err := m.patterns.Analyze(ctx, patterns.ProjectContext{
		ProjectType: p.ProjectType,
		ClientType:  p.ClientType,
	})
	if err != nil {
		m.logger.Warn("pattern analysis failed, packet degraded",
			zap.String("project_id", p.ID),
			zap.Error(err),
		)
		return packet
	}
	packet.Risks = analysis.Risks
	packet.Confidence = analysis.Confidence

	recs, err := m.patterns.Recommend(ctx, report.Blockers, 5)
	if err != nil {
		m.logger.Warn("recommendation lookup failed, packet degraded",
			zap.String("project_id", p.ID),
			zap.Error(err),
		)
		return packet
	}
	packet.Recommendations = recs

	return packet
}

// commit applies the approved transition and its audit record as one
// logical unit. If the audit append fails the project is restored, so
// observers never see a state change without its trail entry.
func (m *StateMachine) commit(ctx context.Context, p *store.Project, gate *store.DecisionGate, payGate *store.PaymentGate) (*store.Project, error) {
	before := *p

	p.State = gate.To
	p.UpdatedAt = m.now().UTC()
	if payGate != nil {
		p.BilledPercent = payGate.TargetPercent
	}

	if err := m.store.PutProject(ctx, p); err != nil {
		return nil, fmt.Errorf("storing project: %w", err)
	}

	payload := map[string]string{
		"gate_id":       gate.ID,
		"justification": gate.Justification,
	}
	if gate.Override {
		payload["override"] = "true"
	}
	if payGate != nil {
		payload["payment_gate_id"] = payGate.ID
	}

	if _, err := m.trail.Append(ctx, audit.Entry{
		EventType:   audit.EventTransitionCommitted,
		ProjectID:   p.ID,
		Actor:       gate.ResolvedBy,
		BeforeState: gate.From.String(),
		AfterState:  gate.To.String(),
		Payload:     payload,
	}); err != nil {
		if revertErr := m.store.PutProject(ctx, &before); revertErr != nil {
			m.logger.Error("failed to revert project after audit failure",
				zap.String("project_id", p.ID),
				zap.Error(revertErr),
			)
		}
		return nil, fmt.Errorf("auditing transition commit: %w", err)
	}

	if err := m.notifier.Publish(ctx, notify.Event{
		Type:      notify.EventTransitionCompleted,
		ProjectID: p.ID,
		GateID:    gate.ID,
		Actor:     gate.ResolvedBy,
		FromState: gate.From.String(),
		ToState:   gate.To.String(),
	}); err != nil {
		m.logger.Warn("notification publish failed",
			zap.String("event", string(notify.EventTransitionCompleted)),
			zap.Error(err),
		)
	}

	m.feedCorpus(ctx, gate)

	if m.commitCounter != nil {
		m.commitCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("to_level", string(gate.To.Level)),
			attribute.Bool("override", gate.Override),
		))
	}

	m.logger.Info("transition committed",
		zap.String("project_id", p.ID),
		zap.String("from", gate.From.String()),
		zap.String("to", gate.To.String()),
		zap.Bool("override", gate.Override),
	)

	return p, nil
}

// feedCorpus records resolved blockers as remediation outcomes. A commit
// despite packet blockers means the approver judged the named remediation
// sufficient, which is the signal future recommendations rank by.
func (m *StateMachine) feedCorpus(ctx context.Context, gate *store.DecisionGate) {
	if m.patterns == nil || gate.Justification == "" {
		return
	}

	for _, b := range gate.Packet.Blockers {
		if err := m.patterns.RecordRemediation(ctx, patterns.Remediation{
			Requirement: b.Requirement,
			Action:      gate.Justification,
			Succeeded:   true,
		}); err != nil {
			m.logger.Warn("failed to record remediation",
				zap.String("requirement", b.Requirement),
				zap.Error(err),
			)
		}
	}
}
