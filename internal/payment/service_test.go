package payment

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/maturityd/internal/audit"
	"github.com/fyrsmithlabs/maturityd/internal/maturity"
	"github.com/fyrsmithlabs/maturityd/internal/store"
)

func newTestService(t *testing.T, cfg *Config) (*Service, store.KnowledgeStore) {
	t.Helper()

	ks := store.NewMemoryStore()
	trail, err := audit.NewTrail(ks, zap.NewNop())
	require.NoError(t, err)

	svc, err := NewService(cfg, ks, trail, nil, zap.NewNop())
	require.NoError(t, err)

	return svc, ks
}

func approvedGate(projectID string, from, to maturity.State) *store.DecisionGate {
	return &store.DecisionGate{
		ID:         "decision-1",
		ProjectID:  projectID,
		From:       from,
		To:         to,
		Status:     store.DecisionApproved,
		ResolvedBy: "dana@initech.example",
	}
}

func testProject(billed float64) *store.Project {
	return &store.Project{
		ID:            "proj-1",
		Name:          "Orion rollout",
		ContractValue: 100000,
		Currency:      "EUR",
		BilledPercent: billed,
	}
}

func TestMilestonePercent(t *testing.T) {
	assert.Equal(t, 0.0, MilestonePercent(maturity.LevelPOC))
	assert.Equal(t, 25.0, MilestonePercent(maturity.LevelMVP))
	assert.Equal(t, 50.0, MilestonePercent(maturity.LevelPilot))
	assert.Equal(t, 75.0, MilestonePercent(maturity.LevelProduction))
	assert.Equal(t, 100.0, MilestonePercent(maturity.LevelScale))
}

func TestOpen_CumulativeAmount(t *testing.T) {
	svc, ks := newTestService(t, nil)
	ctx := context.Background()

	from := maturity.State{Level: maturity.LevelMVP, Checkpoint: maturity.CheckpointScalability}
	to := maturity.State{Level: maturity.LevelPilot, Checkpoint: maturity.CheckpointSecurity}

	// 25% already billed for MVP, PILOT entitles 50% cumulative.
	gate, err := svc.Open(ctx, approvedGate("proj-1", from, to), testProject(25))
	require.NoError(t, err)

	assert.Equal(t, 25000.0, gate.Amount)
	assert.Equal(t, "EUR", gate.Currency)
	assert.Equal(t, 50.0, gate.TargetPercent)
	assert.Equal(t, "PILOT milestone", gate.Milestone)
	assert.Equal(t, store.PaymentOpen, gate.Status)

	entries, err := ks.ListAudit(ctx, store.AuditFilter{ProjectID: "proj-1", EventType: audit.EventPaymentOpened})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "25000.00", entries[0].Payload["amount"])
}

func TestOpen_CumulativeSkippedMilestones(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	from := maturity.State{Level: maturity.LevelMVP, Checkpoint: maturity.CheckpointScalability}
	to := maturity.State{Level: maturity.LevelProduction, Checkpoint: maturity.CheckpointSecurity}

	// Nothing billed yet, an override jump to PRODUCTION bills 75% in one gate.
	gate, err := svc.Open(ctx, approvedGate("proj-1", from, to), testProject(0))
	require.NoError(t, err)
	assert.Equal(t, 75000.0, gate.Amount)
}

func TestOpen_NonCumulative(t *testing.T) {
	svc, _ := newTestService(t, &Config{TTL: time.Hour, Cumulative: false})
	ctx := context.Background()

	from := maturity.State{Level: maturity.LevelMVP, Checkpoint: maturity.CheckpointScalability}
	to := maturity.State{Level: maturity.LevelPilot, Checkpoint: maturity.CheckpointSecurity}

	gate, err := svc.Open(ctx, approvedGate("proj-1", from, to), testProject(25))
	require.NoError(t, err)
	assert.Equal(t, 50000.0, gate.Amount)
}

func TestOpen_NoMilestoneForPOC(t *testing.T) {
	svc, _ := newTestService(t, nil)

	from := maturity.State{Level: maturity.LevelPOC, Checkpoint: maturity.CheckpointSecurity}
	to := maturity.State{Level: maturity.LevelPOC, Checkpoint: maturity.CheckpointReliability}

	_, err := svc.Open(context.Background(), approvedGate("proj-1", from, to), testProject(0))
	assert.ErrorIs(t, err, ErrNoMilestone)
}

func TestOpen_IdempotentPerDecision(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	from := maturity.State{Level: maturity.LevelMVP, Checkpoint: maturity.CheckpointScalability}
	to := maturity.State{Level: maturity.LevelPilot, Checkpoint: maturity.CheckpointSecurity}
	dg := approvedGate("proj-1", from, to)

	first, err := svc.Open(ctx, dg, testProject(25))
	require.NoError(t, err)

	second, err := svc.Open(ctx, dg, testProject(25))
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestConfirm(t *testing.T) {
	svc, ks := newTestService(t, nil)
	ctx := context.Background()

	from := maturity.State{Level: maturity.LevelMVP, Checkpoint: maturity.CheckpointScalability}
	to := maturity.State{Level: maturity.LevelPilot, Checkpoint: maturity.CheckpointSecurity}
	gate, err := svc.Open(ctx, approvedGate("proj-1", from, to), testProject(25))
	require.NoError(t, err)

	confirmed, err := svc.Confirm(ctx, gate.ID, "wire-2026-0042", "billing@initech.example")
	require.NoError(t, err)

	assert.Equal(t, store.PaymentConfirmed, confirmed.Status)
	assert.Equal(t, "wire-2026-0042", confirmed.ExternalReference)
	assert.False(t, confirmed.ConfirmedAt.IsZero())

	entries, err := ks.ListAudit(ctx, store.AuditFilter{ProjectID: "proj-1", EventType: audit.EventPaymentConfirmed})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "wire-2026-0042", entries[0].Payload["external_reference"])
}

func TestConfirm_RequiresReference(t *testing.T) {
	svc, _ := newTestService(t, nil)

	_, err := svc.Confirm(context.Background(), "gate-1", "", "billing")
	assert.ErrorIs(t, err, ErrReferenceRequired)
}

func TestConfirm_DoubleConfirmIsNoOp(t *testing.T) {
	svc, ks := newTestService(t, nil)
	ctx := context.Background()

	from := maturity.State{Level: maturity.LevelMVP, Checkpoint: maturity.CheckpointScalability}
	to := maturity.State{Level: maturity.LevelPilot, Checkpoint: maturity.CheckpointSecurity}
	gate, err := svc.Open(ctx, approvedGate("proj-1", from, to), testProject(25))
	require.NoError(t, err)

	first, err := svc.Confirm(ctx, gate.ID, "wire-1", "billing")
	require.NoError(t, err)

	second, err := svc.Confirm(ctx, gate.ID, "wire-other", "billing")
	require.NoError(t, err)
	assert.Equal(t, first.ExternalReference, second.ExternalReference)

	entries, err := ks.ListAudit(ctx, store.AuditFilter{ProjectID: "proj-1", EventType: audit.EventPaymentConfirmed})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestConfirm_PastDeadlineExpires(t *testing.T) {
	svc, ks := newTestService(t, nil)
	ctx := context.Background()

	from := maturity.State{Level: maturity.LevelMVP, Checkpoint: maturity.CheckpointScalability}
	to := maturity.State{Level: maturity.LevelPilot, Checkpoint: maturity.CheckpointSecurity}
	gate, err := svc.Open(ctx, approvedGate("proj-1", from, to), testProject(25))
	require.NoError(t, err)

	svc.now = func() time.Time { return gate.Deadline.Add(time.Minute) }

	_, err = svc.Confirm(ctx, gate.ID, "wire-late", "billing")
	require.ErrorIs(t, err, ErrGateExpired)

	stored, err := ks.GetPaymentGate(ctx, gate.ID)
	require.NoError(t, err)
	assert.Equal(t, store.PaymentExpired, stored.Status)
}

func TestConfirm_CancelledIsConflict(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	from := maturity.State{Level: maturity.LevelMVP, Checkpoint: maturity.CheckpointScalability}
	to := maturity.State{Level: maturity.LevelPilot, Checkpoint: maturity.CheckpointSecurity}
	gate, err := svc.Open(ctx, approvedGate("proj-1", from, to), testProject(25))
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, gate.ID, "dana", "scope change")
	require.NoError(t, err)

	_, err = svc.Confirm(ctx, gate.ID, "wire-1", "billing")
	assert.ErrorIs(t, err, ErrGateNotOpen)
}

func TestOverdueAndExpire(t *testing.T) {
	svc, ks := newTestService(t, nil)
	ctx := context.Background()

	from := maturity.State{Level: maturity.LevelMVP, Checkpoint: maturity.CheckpointScalability}
	to := maturity.State{Level: maturity.LevelPilot, Checkpoint: maturity.CheckpointSecurity}
	gate, err := svc.Open(ctx, approvedGate("proj-1", from, to), testProject(25))
	require.NoError(t, err)

	gate.Deadline = time.Now().UTC().Add(-time.Hour)
	require.NoError(t, ks.PutPaymentGate(ctx, gate))

	overdue, err := svc.Overdue(ctx)
	require.NoError(t, err)
	require.Len(t, overdue, 1)

	expired, err := svc.Expire(ctx, gate.ID)
	require.NoError(t, err)
	require.NotNil(t, expired)
	assert.Equal(t, store.PaymentExpired, expired.Status)
}

func TestExpire_ConfirmedGateIsUntouched(t *testing.T) {
	svc, ks := newTestService(t, nil)
	ctx := context.Background()

	from := maturity.State{Level: maturity.LevelMVP, Checkpoint: maturity.CheckpointScalability}
	to := maturity.State{Level: maturity.LevelPilot, Checkpoint: maturity.CheckpointSecurity}
	gate, err := svc.Open(ctx, approvedGate("proj-1", from, to), testProject(25))
	require.NoError(t, err)

	_, err = svc.Confirm(ctx, gate.ID, "wire-77", "billing")
	require.NoError(t, err)

	// A sweep that listed the gate before its confirmation must not
	// overwrite the confirmed record, even once the deadline has passed.
	confirmed, err := ks.GetPaymentGate(ctx, gate.ID)
	require.NoError(t, err)
	confirmed.Deadline = time.Now().UTC().Add(-time.Hour)
	require.NoError(t, ks.PutPaymentGate(ctx, confirmed))

	expired, err := svc.Expire(ctx, gate.ID)
	require.NoError(t, err)
	assert.Nil(t, expired)

	stored, err := ks.GetPaymentGate(ctx, gate.ID)
	require.NoError(t, err)
	assert.Equal(t, store.PaymentConfirmed, stored.Status)
	assert.Equal(t, "wire-77", stored.ExternalReference)
}
