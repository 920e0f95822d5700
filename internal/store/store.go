package store

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for knowledge store operations.
var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrIDRequired is returned when a record is missing its identifier.
	ErrIDRequired = errors.New("record id is required")
)

// ProjectFilter narrows ListProjects results. Zero-value fields match all.
type ProjectFilter struct {
	ProjectType string
	ClientType  string
}

// DecisionGateFilter narrows ListDecisionGates results.
type DecisionGateFilter struct {
	ProjectID string
	Status    DecisionStatus
}

// PaymentGateFilter narrows ListPaymentGates results.
type PaymentGateFilter struct {
	ProjectID string
	Status    PaymentStatus
}

// AuditFilter narrows ListAudit results. Zero-value fields match all.
type AuditFilter struct {
	ProjectID string
	EventType string
	Since     time.Time
	Limit     int
}

// KnowledgeStore is the persistence interface the engine consumes. Each call
// is transactional for a single record; the engine never assumes an
// in-memory cache is authoritative and re-reads current state before acting.
type KnowledgeStore interface {
	// GetProject retrieves a project by ID. Returns ErrNotFound if absent.
	GetProject(ctx context.Context, id string) (*Project, error)

	// PutProject creates or replaces a project record.
	PutProject(ctx context.Context, p *Project) error

	// ListProjects returns projects matching the filter.
	ListProjects(ctx context.Context, f ProjectFilter) ([]*Project, error)

	// GetDecisionGate retrieves a decision gate by ID.
	GetDecisionGate(ctx context.Context, id string) (*DecisionGate, error)

	// PutDecisionGate creates or replaces a decision gate record.
	PutDecisionGate(ctx context.Context, g *DecisionGate) error

	// ListDecisionGates returns decision gates matching the filter, ordered
	// by creation time.
	ListDecisionGates(ctx context.Context, f DecisionGateFilter) ([]*DecisionGate, error)

	// GetPaymentGate retrieves a payment gate by ID.
	GetPaymentGate(ctx context.Context, id string) (*PaymentGate, error)

	// PutPaymentGate creates or replaces a payment gate record.
	PutPaymentGate(ctx context.Context, g *PaymentGate) error

	// ListPaymentGates returns payment gates matching the filter, ordered by
	// creation time.
	ListPaymentGates(ctx context.Context, f PaymentGateFilter) ([]*PaymentGate, error)

	// AppendAudit appends an audit entry, assigning its per-project sequence
	// number. The stored entry is never mutated afterwards.
	AppendAudit(ctx context.Context, e *AuditEntry) (*AuditEntry, error)

	// ListAudit returns audit entries matching the filter in append order
	// per project.
	ListAudit(ctx context.Context, f AuditFilter) ([]*AuditEntry, error)

	// Close releases store resources.
	Close() error
}
