package patterns

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/maturityd/internal/audit"
	"github.com/fyrsmithlabs/maturityd/internal/store"
)

func newTestEngine(t *testing.T) (*Engine, store.KnowledgeStore, *audit.Trail) {
	t.Helper()

	ks := store.NewMemoryStore()
	trail, err := audit.NewTrail(ks, zap.NewNop())
	require.NoError(t, err)

	corpus, err := NewRemediationCorpus(CorpusConfig{}, zap.NewNop())
	require.NoError(t, err)

	engine, err := NewEngine(ks, corpus, zap.NewNop())
	require.NoError(t, err)

	return engine, ks, trail
}

func seedProject(t *testing.T, ks store.KnowledgeStore, id, projectType, clientType string) {
	t.Helper()
	require.NoError(t, ks.PutProject(context.Background(), &store.Project{
		ID:          id,
		Name:        id,
		ProjectType: projectType,
		ClientType:  clientType,
		CreatedAt:   time.Now(),
	}))
}

func TestConfidence(t *testing.T) {
	assert.Equal(t, 0.0, Confidence(0))
	assert.Equal(t, 0.0, Confidence(-3))
	assert.InDelta(t, 0.048, Confidence(1), 0.001)
	assert.InDelta(t, 0.5, Confidence(20), 0.001)
	assert.Greater(t, Confidence(200), 0.9)
	assert.Less(t, Confidence(100000), 1.0)
}

func TestAnalyze_EmptyHistory(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	analysis, err := engine.Analyze(context.Background(), ProjectContext{
		ProjectType: "platform",
		ClientType:  "enterprise",
	})
	require.NoError(t, err)

	assert.Equal(t, 0, analysis.Cohort)
	assert.Empty(t, analysis.Delivery)
	assert.Empty(t, analysis.Risks)
	assert.Less(t, analysis.Confidence, 0.05)
}

func TestAnalyze_RejectionRate(t *testing.T) {
	engine, ks, trail := newTestEngine(t)
	ctx := context.Background()

	seedProject(t, ks, "p1", "platform", "enterprise")
	seedProject(t, ks, "p2", "platform", "enterprise")

	for i := 0; i < 3; i++ {
		_, err := trail.Append(ctx, audit.Entry{EventType: audit.EventDecisionApproved, ProjectID: "p1"})
		require.NoError(t, err)
	}
	_, err := trail.Append(ctx, audit.Entry{EventType: audit.EventDecisionRejected, ProjectID: "p2"})
	require.NoError(t, err)

	analysis, err := engine.Analyze(ctx, ProjectContext{ProjectType: "platform", ClientType: "enterprise"})
	require.NoError(t, err)

	assert.Equal(t, 2, analysis.Cohort)
	require.NotEmpty(t, analysis.Delivery)

	var found bool
	for _, p := range analysis.Delivery {
		if p.Name == "decision-rejection-rate" {
			found = true
			assert.InDelta(t, 0.25, p.Value, 0.001)
			assert.Equal(t, 4, p.Evidence)
		}
	}
	assert.True(t, found)
}

func TestAnalyze_CohortFiltering(t *testing.T) {
	engine, ks, trail := newTestEngine(t)
	ctx := context.Background()

	seedProject(t, ks, "p1", "platform", "enterprise")
	seedProject(t, ks, "p2", "integration", "startup")

	_, err := trail.Append(ctx, audit.Entry{EventType: audit.EventDecisionRejected, ProjectID: "p2"})
	require.NoError(t, err)

	analysis, err := engine.Analyze(ctx, ProjectContext{ProjectType: "platform", ClientType: "enterprise"})
	require.NoError(t, err)

	assert.Equal(t, 1, analysis.Cohort)
	assert.Empty(t, analysis.Delivery)
}

func TestAnalyze_ExpiryStallRisk(t *testing.T) {
	engine, ks, trail := newTestEngine(t)
	ctx := context.Background()

	seedProject(t, ks, "p1", "platform", "enterprise")

	for i := 0; i < 4; i++ {
		_, err := trail.Append(ctx, audit.Entry{EventType: audit.EventTransitionRequested, ProjectID: "p1"})
		require.NoError(t, err)
	}
	for i := 0; i < 2; i++ {
		_, err := trail.Append(ctx, audit.Entry{EventType: audit.EventDecisionExpired, ProjectID: "p1"})
		require.NoError(t, err)
	}

	analysis, err := engine.Analyze(ctx, ProjectContext{ProjectType: "platform", ClientType: "enterprise"})
	require.NoError(t, err)

	require.NotEmpty(t, analysis.Risks)
	risk := analysis.Risks[0]
	assert.Equal(t, "gate-expiry-stall", risk.Name)
	assert.InDelta(t, 5.0, risk.Severity, 0.001)
	assert.Equal(t, 2, risk.Evidence)
	assert.GreaterOrEqual(t, risk.Severity, 0.0)
	assert.LessOrEqual(t, risk.Severity, 10.0)
}

func TestAnalyze_OverrideRate(t *testing.T) {
	engine, ks, trail := newTestEngine(t)
	ctx := context.Background()

	seedProject(t, ks, "p1", "platform", "enterprise")

	for i := 0; i < 4; i++ {
		_, err := trail.Append(ctx, audit.Entry{EventType: audit.EventTransitionCommitted, ProjectID: "p1"})
		require.NoError(t, err)
	}
	_, err := trail.Append(ctx, audit.Entry{EventType: audit.EventTransitionOverride, ProjectID: "p1"})
	require.NoError(t, err)

	analysis, err := engine.Analyze(ctx, ProjectContext{ProjectType: "platform", ClientType: "enterprise"})
	require.NoError(t, err)

	var found bool
	for _, p := range analysis.Delivery {
		if p.Name == "override-rate" {
			found = true
			assert.InDelta(t, 0.25, p.Value, 0.001)
		}
	}
	assert.True(t, found)

	// 1 of 4 commits used the override, below the risk threshold.
	for _, r := range analysis.Risks {
		assert.NotEqual(t, "override-dependence", r.Name)
	}
}

func TestRecommend(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, engine.RecordRemediation(ctx, Remediation{
		Requirement: "automated-backups",
		Action:      "enable nightly snapshot schedule",
		ProjectType: "platform",
		Effort:      2,
		Succeeded:   true,
	}))
	require.NoError(t, engine.RecordRemediation(ctx, Remediation{
		Requirement: "automated-backups",
		Action:      "enable nightly snapshot schedule",
		ProjectType: "platform",
		Effort:      2,
		Succeeded:   true,
	}))
	require.NoError(t, engine.RecordRemediation(ctx, Remediation{
		Requirement: "automated-backups",
		Action:      "manual weekly exports",
		ProjectType: "platform",
		Effort:      1,
		Succeeded:   false,
	}))

	recs, err := engine.Recommend(ctx, []store.Blocker{{
		Requirement: "automated-backups",
		Category:    "reliability",
		Description: "Data stores have scheduled, verified backups",
	}}, 5)
	require.NoError(t, err)
	require.NotEmpty(t, recs)

	assert.Equal(t, "enable nightly snapshot schedule", recs[0].Action)
	assert.Equal(t, 1.0, recs[0].SuccessRate)
	for i := 1; i < len(recs); i++ {
		assert.LessOrEqual(t, recs[i].SuccessRate, recs[i-1].SuccessRate)
	}
}

func TestRecommend_EmptyCorpus(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	recs, err := engine.Recommend(context.Background(), []store.Blocker{{Requirement: "x"}}, 5)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestRecommend_NilCorpus(t *testing.T) {
	ks := store.NewMemoryStore()
	engine, err := NewEngine(ks, nil, zap.NewNop())
	require.NoError(t, err)

	recs, err := engine.Recommend(context.Background(), []store.Blocker{{Requirement: "x"}}, 5)
	require.NoError(t, err)
	assert.Nil(t, recs)
}

func TestCorpus_RecordValidation(t *testing.T) {
	corpus, err := NewRemediationCorpus(CorpusConfig{}, zap.NewNop())
	require.NoError(t, err)

	err = corpus.Record(context.Background(), Remediation{Action: "x"})
	assert.Error(t, err)
}
