package audit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/maturityd/internal/store"
)

const instrumentationName = "github.com/fyrsmithlabs/maturityd/internal/audit"

// Entry describes an event to append. The trail assigns ID, sequence, and
// timestamp when they are unset.
type Entry struct {
	EventType   string
	ProjectID   string
	Actor       string
	BeforeState string
	AfterState  string
	Payload     map[string]string
}

// Trail appends and queries audit entries through the knowledge store.
type Trail struct {
	store  store.KnowledgeStore
	logger *zap.Logger
	tracer trace.Tracer
	now    func() time.Time
}

// NewTrail creates an audit trail over the given store.
func NewTrail(ks store.KnowledgeStore, logger *zap.Logger) (*Trail, error) {
	if ks == nil {
		return nil, errors.New("knowledge store is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Trail{
		store:  ks,
		logger: logger,
		tracer: otel.Tracer(instrumentationName),
		now:    time.Now,
	}, nil
}

// Append records an event. The returned entry carries the store-assigned
// sequence number.
func (t *Trail) Append(ctx context.Context, e Entry) (*store.AuditEntry, error) {
	ctx, span := t.tracer.Start(ctx, "audit.append")
	defer span.End()

	if e.EventType == "" {
		return nil, errors.New("event type is required")
	}
	if e.ProjectID == "" {
		return nil, errors.New("project id is required")
	}

	span.SetAttributes(
		attribute.String("event_type", e.EventType),
		attribute.String("project_id", e.ProjectID),
	)

	entry := &store.AuditEntry{
		ID:          uuid.New().String(),
		EventType:   e.EventType,
		ProjectID:   e.ProjectID,
		Actor:       e.Actor,
		Timestamp:   t.now().UTC(),
		BeforeState: e.BeforeState,
		AfterState:  e.AfterState,
		Payload:     e.Payload,
	}

	stored, err := t.store.AppendAudit(ctx, entry)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("appending audit entry: %w", err)
	}

	t.logger.Info("audit entry appended",
		zap.String("event_type", stored.EventType),
		zap.String("project_id", stored.ProjectID),
		zap.Uint64("seq", stored.Seq),
		zap.String("actor", stored.Actor),
	)

	return stored, nil
}

// ListProject returns the full trail for a project in append order.
func (t *Trail) ListProject(ctx context.Context, projectID string) ([]*store.AuditEntry, error) {
	ctx, span := t.tracer.Start(ctx, "audit.list_project")
	defer span.End()

	span.SetAttributes(attribute.String("project_id", projectID))
	return t.store.ListAudit(ctx, store.AuditFilter{ProjectID: projectID})
}

// ListByType returns entries of a single event type, across all projects
// or scoped to one when projectID is non-empty.
func (t *Trail) ListByType(ctx context.Context, projectID, eventType string) ([]*store.AuditEntry, error) {
	ctx, span := t.tracer.Start(ctx, "audit.list_by_type")
	defer span.End()

	span.SetAttributes(
		attribute.String("project_id", projectID),
		attribute.String("event_type", eventType),
	)
	return t.store.ListAudit(ctx, store.AuditFilter{
		ProjectID: projectID,
		EventType: eventType,
	})
}

// ListOverrides returns every use of the ordered-level override, across all
// projects or scoped to one when projectID is non-empty.
func (t *Trail) ListOverrides(ctx context.Context, projectID string) ([]*store.AuditEntry, error) {
	ctx, span := t.tracer.Start(ctx, "audit.list_overrides")
	defer span.End()

	return t.ListByType(ctx, projectID, EventTransitionOverride)
}
