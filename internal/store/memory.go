package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-process KnowledgeStore. Records are deep-copied on
// both write and read so callers never alias stored state; audit entries get
// a per-project sequence assigned under the store lock.
//
// It is the reference implementation used by tests and single-node
// deployments. Durable backends implement the same interface externally.
type MemoryStore struct {
	mu        sync.RWMutex
	projects  map[string]*Project
	decisions map[string]*DecisionGate
	payments  map[string]*PaymentGate
	audit     []*AuditEntry
	auditSeq  map[string]uint64
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		projects:  make(map[string]*Project),
		decisions: make(map[string]*DecisionGate),
		payments:  make(map[string]*PaymentGate),
		auditSeq:  make(map[string]uint64),
	}
}

// GetProject retrieves a project by ID.
func (s *MemoryStore) GetProject(_ context.Context, id string) (*Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.projects[id]
	if !ok {
		return nil, fmt.Errorf("project %q: %w", id, ErrNotFound)
	}
	return copyProject(p), nil
}

// PutProject creates or replaces a project record.
func (s *MemoryStore) PutProject(_ context.Context, p *Project) error {
	if p == nil || p.ID == "" {
		return ErrIDRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.projects[p.ID] = copyProject(p)
	return nil
}

// ListProjects returns projects matching the filter.
func (s *MemoryStore) ListProjects(_ context.Context, f ProjectFilter) ([]*Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Project
	for _, p := range s.projects {
		if f.ProjectType != "" && p.ProjectType != f.ProjectType {
			continue
		}
		if f.ClientType != "" && p.ClientType != f.ClientType {
			continue
		}
		out = append(out, copyProject(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// GetDecisionGate retrieves a decision gate by ID.
func (s *MemoryStore) GetDecisionGate(_ context.Context, id string) (*DecisionGate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.decisions[id]
	if !ok {
		return nil, fmt.Errorf("decision gate %q: %w", id, ErrNotFound)
	}
	return copyDecisionGate(g), nil
}

// PutDecisionGate creates or replaces a decision gate record.
func (s *MemoryStore) PutDecisionGate(_ context.Context, g *DecisionGate) error {
	if g == nil || g.ID == "" {
		return ErrIDRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.decisions[g.ID] = copyDecisionGate(g)
	return nil
}

// ListDecisionGates returns decision gates matching the filter.
func (s *MemoryStore) ListDecisionGates(_ context.Context, f DecisionGateFilter) ([]*DecisionGate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*DecisionGate
	for _, g := range s.decisions {
		if f.ProjectID != "" && g.ProjectID != f.ProjectID {
			continue
		}
		if f.Status != "" && g.Status != f.Status {
			continue
		}
		out = append(out, copyDecisionGate(g))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// GetPaymentGate retrieves a payment gate by ID.
func (s *MemoryStore) GetPaymentGate(_ context.Context, id string) (*PaymentGate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.payments[id]
	if !ok {
		return nil, fmt.Errorf("payment gate %q: %w", id, ErrNotFound)
	}
	cp := *g
	return &cp, nil
}

// PutPaymentGate creates or replaces a payment gate record.
func (s *MemoryStore) PutPaymentGate(_ context.Context, g *PaymentGate) error {
	if g == nil || g.ID == "" {
		return ErrIDRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *g
	s.payments[g.ID] = &cp
	return nil
}

// ListPaymentGates returns payment gates matching the filter.
func (s *MemoryStore) ListPaymentGates(_ context.Context, f PaymentGateFilter) ([]*PaymentGate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*PaymentGate
	for _, g := range s.payments {
		if f.ProjectID != "" && g.ProjectID != f.ProjectID {
			continue
		}
		if f.Status != "" && g.Status != f.Status {
			continue
		}
		cp := *g
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// AppendAudit appends an audit entry and assigns its per-project sequence.
func (s *MemoryStore) AppendAudit(_ context.Context, e *AuditEntry) (*AuditEntry, error) {
	if e == nil || e.ProjectID == "" {
		return nil, fmt.Errorf("audit entry: %w", ErrIDRequired)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cp := copyAuditEntry(e)
	if cp.ID == "" {
		cp.ID = uuid.New().String()
	}
	s.auditSeq[cp.ProjectID]++
	cp.Seq = s.auditSeq[cp.ProjectID]
	s.audit = append(s.audit, cp)
	return copyAuditEntry(cp), nil
}

// ListAudit returns audit entries matching the filter in append order.
func (s *MemoryStore) ListAudit(_ context.Context, f AuditFilter) ([]*AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*AuditEntry
	for _, e := range s.audit {
		if f.ProjectID != "" && e.ProjectID != f.ProjectID {
			continue
		}
		if f.EventType != "" && e.EventType != f.EventType {
			continue
		}
		if !f.Since.IsZero() && e.Timestamp.Before(f.Since) {
			continue
		}
		out = append(out, copyAuditEntry(e))
		if f.Limit > 0 && len(out) >= f.Limit {
			break
		}
	}
	return out, nil
}

// Close releases store resources. No-op for the in-memory store.
func (s *MemoryStore) Close() error { return nil }

func copyProject(p *Project) *Project {
	cp := *p
	cp.Objectives = append([]string(nil), p.Objectives...)
	cp.Stakeholders = append([]string(nil), p.Stakeholders...)
	if p.Satisfied != nil {
		cp.Satisfied = make(map[string]bool, len(p.Satisfied))
		for k, v := range p.Satisfied {
			cp.Satisfied[k] = v
		}
	}
	if p.Metadata != nil {
		cp.Metadata = make(map[string]string, len(p.Metadata))
		for k, v := range p.Metadata {
			cp.Metadata[k] = v
		}
	}
	return &cp
}

func copyDecisionGate(g *DecisionGate) *DecisionGate {
	cp := *g
	cp.Packet.Blockers = append([]Blocker(nil), g.Packet.Blockers...)
	cp.Packet.Risks = append([]RiskFlag(nil), g.Packet.Risks...)
	cp.Packet.Recommendations = append([]Recommendation(nil), g.Packet.Recommendations...)
	if g.Packet.PerCategory != nil {
		cp.Packet.PerCategory = make(map[string]string, len(g.Packet.PerCategory))
		for k, v := range g.Packet.PerCategory {
			cp.Packet.PerCategory[k] = v
		}
	}
	return &cp
}

func copyAuditEntry(e *AuditEntry) *AuditEntry {
	cp := *e
	if e.Payload != nil {
		cp.Payload = make(map[string]string, len(e.Payload))
		for k, v := range e.Payload {
			cp.Payload[k] = v
		}
	}
	return &cp
}
