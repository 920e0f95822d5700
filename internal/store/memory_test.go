package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/maturityd/internal/maturity"
)

func TestMemoryStore_ProjectRoundTrip(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	p := &Project{
		ID:            "proj-1",
		Name:          "Atlas rollout",
		ClientName:    "Initech",
		ProjectType:   "platform",
		ClientType:    "enterprise",
		ContractValue: 200000,
		Currency:      "USD",
		State:         maturity.Initial(),
		Satisfied:     map[string]bool{"secrets-managed": true},
		CreatedAt:     time.Now(),
	}
	require.NoError(t, s.PutProject(ctx, p))

	got, err := s.GetProject(ctx, "proj-1")
	require.NoError(t, err)
	assert.Equal(t, "Atlas rollout", got.Name)
	assert.Equal(t, maturity.Initial(), got.State)

	// Mutating the returned copy must not leak into the store.
	got.Satisfied["secrets-managed"] = false
	again, err := s.GetProject(ctx, "proj-1")
	require.NoError(t, err)
	assert.True(t, again.Satisfied["secrets-managed"])
}

func TestMemoryStore_GetProject_NotFound(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.GetProject(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_PutProject_RequiresID(t *testing.T) {
	s := NewMemoryStore()
	err := s.PutProject(context.Background(), &Project{})
	assert.ErrorIs(t, err, ErrIDRequired)
}

func TestMemoryStore_ListProjects_Filter(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	base := time.Now()

	require.NoError(t, s.PutProject(ctx, &Project{ID: "a", ProjectType: "platform", ClientType: "enterprise", CreatedAt: base}))
	require.NoError(t, s.PutProject(ctx, &Project{ID: "b", ProjectType: "platform", ClientType: "startup", CreatedAt: base.Add(time.Second)}))
	require.NoError(t, s.PutProject(ctx, &Project{ID: "c", ProjectType: "integration", ClientType: "enterprise", CreatedAt: base.Add(2 * time.Second)}))

	got, err := s.ListProjects(ctx, ProjectFilter{ProjectType: "platform"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "b", got[1].ID)

	got, err = s.ListProjects(ctx, ProjectFilter{ProjectType: "platform", ClientType: "startup"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].ID)
}

func TestMemoryStore_DecisionGates_FilterByStatus(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	base := time.Now()

	require.NoError(t, s.PutDecisionGate(ctx, &DecisionGate{ID: "g1", ProjectID: "p", Status: DecisionPending, CreatedAt: base}))
	require.NoError(t, s.PutDecisionGate(ctx, &DecisionGate{ID: "g2", ProjectID: "p", Status: DecisionApproved, CreatedAt: base.Add(time.Second)}))
	require.NoError(t, s.PutDecisionGate(ctx, &DecisionGate{ID: "g3", ProjectID: "q", Status: DecisionPending, CreatedAt: base.Add(2 * time.Second)}))

	pending, err := s.ListDecisionGates(ctx, DecisionGateFilter{ProjectID: "p", Status: DecisionPending})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "g1", pending[0].ID)
}

func TestMemoryStore_AppendAudit_AssignsPerProjectSeq(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	e1, err := s.AppendAudit(ctx, &AuditEntry{ProjectID: "p", EventType: "project.created", Timestamp: time.Now()})
	require.NoError(t, err)
	e2, err := s.AppendAudit(ctx, &AuditEntry{ProjectID: "p", EventType: "transition.requested", Timestamp: time.Now()})
	require.NoError(t, err)
	other, err := s.AppendAudit(ctx, &AuditEntry{ProjectID: "q", EventType: "project.created", Timestamp: time.Now()})
	require.NoError(t, err)

	assert.Equal(t, uint64(1), e1.Seq)
	assert.Equal(t, uint64(2), e2.Seq)
	assert.Equal(t, uint64(1), other.Seq)
	assert.NotEmpty(t, e1.ID)
}

func TestMemoryStore_ListAudit_FilterAndLimit(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := s.AppendAudit(ctx, &AuditEntry{ProjectID: "p", EventType: "transition.requested", Timestamp: time.Now()})
		require.NoError(t, err)
	}
	_, err := s.AppendAudit(ctx, &AuditEntry{ProjectID: "p", EventType: "transition.override", Timestamp: time.Now()})
	require.NoError(t, err)

	overrides, err := s.ListAudit(ctx, AuditFilter{ProjectID: "p", EventType: "transition.override"})
	require.NoError(t, err)
	assert.Len(t, overrides, 1)

	limited, err := s.ListAudit(ctx, AuditFilter{ProjectID: "p", Limit: 3})
	require.NoError(t, err)
	assert.Len(t, limited, 3)
	// Append order is preserved.
	assert.Equal(t, uint64(1), limited[0].Seq)
	assert.Equal(t, uint64(3), limited[2].Seq)
}
