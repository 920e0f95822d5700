package patterns

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/maturityd/internal/audit"
	"github.com/fyrsmithlabs/maturityd/internal/store"
)

const instrumentationName = "github.com/fyrsmithlabs/maturityd/internal/patterns"

// confidenceSaturation is the evidence count at which confidence reaches
// one half. confidence = n / (n + confidenceSaturation), so it approaches
// 1 asymptotically and stays near 0 for thin history.
const confidenceSaturation = 20.0

// Confidence normalizes an evidence count into [0,1).
func Confidence(evidence int) float64 {
	if evidence <= 0 {
		return 0
	}
	n := float64(evidence)
	return n / (n + confidenceSaturation)
}

// ProjectContext selects the historical cohort to mine: engagements of the
// same project type delivered to the same kind of client.
type ProjectContext struct {
	ProjectType string
	ClientType  string
}

// DeliveryPattern is one mined aggregate over the cohort.
type DeliveryPattern struct {
	// Name identifies the pattern (e.g. "decision-rejection-rate").
	Name string `json:"name"`

	// Description explains the observation in approver terms.
	Description string `json:"description"`

	// Value is the pattern's aggregate value; its meaning depends on the
	// pattern (a fraction, a rate, or a duration in hours).
	Value float64 `json:"value"`

	// Evidence is the number of observations behind the value.
	Evidence int `json:"evidence"`

	// Confidence is Value's evidence-normalized confidence in [0,1).
	Confidence float64 `json:"confidence"`
}

// Analysis is the mined output for one project context.
type Analysis struct {
	// Cohort is the number of similar historical projects examined.
	Cohort int `json:"cohort"`

	// Delivery are the mined delivery patterns.
	Delivery []DeliveryPattern `json:"delivery,omitempty"`

	// Risks are the mined risk flags, severity in [0,10].
	Risks []store.RiskFlag `json:"risks,omitempty"`

	// Confidence is the overall confidence in the analysis, normalized by
	// the total audit evidence examined.
	Confidence float64 `json:"confidence"`
}

// Engine mines audit history into decision-packet enrichment.
type Engine struct {
	store  store.KnowledgeStore
	corpus *RemediationCorpus
	logger *zap.Logger

	tracer         trace.Tracer
	meter          metric.Meter
	analyzeCounter metric.Int64Counter
}

// NewEngine creates a pattern engine. The corpus may be nil; analysis then
// runs without remediation recommendations.
func NewEngine(ks store.KnowledgeStore, corpus *RemediationCorpus, logger *zap.Logger) (*Engine, error) {
	if ks == nil {
		return nil, errors.New("knowledge store is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	e := &Engine{
		store:  ks,
		corpus: corpus,
		logger: logger,
		tracer: otel.Tracer(instrumentationName),
		meter:  otel.Meter(instrumentationName),
	}

	var err error
	e.analyzeCounter, err = e.meter.Int64Counter(
		"maturityd.patterns.analyses_total",
		metric.WithDescription("Total number of pattern analyses run"),
		metric.WithUnit("{analysis}"),
	)
	if err != nil {
		logger.Warn("failed to create analyze counter", zap.Error(err))
	}

	return e, nil
}

// Analyze mines the audit history of the cohort matching pc. Empty history
// yields an empty analysis with near-zero confidence, never an error.
func (e *Engine) Analyze(ctx context.Context, pc ProjectContext) (*Analysis, error) {
	ctx, span := e.tracer.Start(ctx, "patterns.analyze")
	defer span.End()

	span.SetAttributes(
		attribute.String("project_type", pc.ProjectType),
		attribute.String("client_type", pc.ClientType),
	)

	projects, err := e.store.ListProjects(ctx, store.ProjectFilter{
		ProjectType: pc.ProjectType,
		ClientType:  pc.ClientType,
	})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("listing cohort projects: %w", err)
	}

	agg := newAggregates()
	for _, p := range projects {
		entries, err := e.store.ListAudit(ctx, store.AuditFilter{ProjectID: p.ID})
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("listing audit for %s: %w", p.ID, err)
		}
		agg.consume(entries)
	}

	analysis := &Analysis{
		Cohort:     len(projects),
		Delivery:   agg.deliveryPatterns(),
		Risks:      agg.riskFlags(),
		Confidence: Confidence(agg.totalEntries),
	}

	if e.analyzeCounter != nil {
		e.analyzeCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("project_type", pc.ProjectType),
		))
	}

	e.logger.Debug("pattern analysis complete",
		zap.String("project_type", pc.ProjectType),
		zap.String("client_type", pc.ClientType),
		zap.Int("cohort", analysis.Cohort),
		zap.Float64("confidence", analysis.Confidence),
	)

	span.SetAttributes(
		attribute.Int("cohort", analysis.Cohort),
		attribute.Float64("confidence", analysis.Confidence),
	)
	return analysis, nil
}

// Recommend matches blockers against the remediation corpus.
func (e *Engine) Recommend(ctx context.Context, blockers []store.Blocker, limit int) ([]store.Recommendation, error) {
	if e.corpus == nil {
		return nil, nil
	}
	return e.corpus.Recommendations(ctx, blockers, limit)
}

// RecordRemediation feeds a remediation outcome back into the corpus.
func (e *Engine) RecordRemediation(ctx context.Context, r Remediation) error {
	if e.corpus == nil {
		return nil
	}
	return e.corpus.Record(ctx, r)
}

// aggregates accumulates audit counters across a cohort.
type aggregates struct {
	totalEntries int

	requested int
	committed int
	overrides int
	approved  int
	rejected  int
	expired   int

	commitGapHours []float64
}

func newAggregates() *aggregates {
	return &aggregates{}
}

func (a *aggregates) consume(entries []*store.AuditEntry) {
	a.totalEntries += len(entries)

	var lastCommit time.Time
	for _, e := range entries {
		switch e.EventType {
		case audit.EventTransitionRequested:
			a.requested++
		case audit.EventTransitionCommitted:
			a.committed++
			if !lastCommit.IsZero() {
				a.commitGapHours = append(a.commitGapHours, e.Timestamp.Sub(lastCommit).Hours())
			}
			lastCommit = e.Timestamp
		case audit.EventTransitionOverride:
			a.overrides++
		case audit.EventDecisionApproved:
			a.approved++
		case audit.EventDecisionRejected:
			a.rejected++
		case audit.EventDecisionExpired:
			a.expired++
		}
	}
}

func (a *aggregates) deliveryPatterns() []DeliveryPattern {
	var out []DeliveryPattern

	resolved := a.approved + a.rejected
	if resolved > 0 {
		out = append(out, DeliveryPattern{
			Name:        "decision-rejection-rate",
			Description: "fraction of resolved decision gates that were rejected",
			Value:       float64(a.rejected) / float64(resolved),
			Evidence:    resolved,
			Confidence:  Confidence(resolved),
		})
	}

	if a.committed > 0 {
		out = append(out, DeliveryPattern{
			Name:        "override-rate",
			Description: "fraction of committed transitions that used the ordering override",
			Value:       float64(a.overrides) / float64(a.committed),
			Evidence:    a.committed,
			Confidence:  Confidence(a.committed),
		})
	}

	if len(a.commitGapHours) > 0 {
		var sum float64
		for _, h := range a.commitGapHours {
			sum += h
		}
		out = append(out, DeliveryPattern{
			Name:        "mean-hours-between-transitions",
			Description: "mean hours between consecutive committed transitions",
			Value:       sum / float64(len(a.commitGapHours)),
			Evidence:    len(a.commitGapHours),
			Confidence:  Confidence(len(a.commitGapHours)),
		})
	}

	return out
}

// severity maps a fraction of bad outcomes onto the [0,10] scale.
func severity(fraction float64) float64 {
	s := 10 * fraction
	if s > 10 {
		return 10
	}
	return s
}

func (a *aggregates) riskFlags() []store.RiskFlag {
	var out []store.RiskFlag

	opened := a.requested
	if opened > 0 && a.expired > 0 {
		fraction := float64(a.expired) / float64(opened)
		out = append(out, store.RiskFlag{
			Name:        "gate-expiry-stall",
			Description: "similar engagements let decision gates expire unresolved",
			Severity:    severity(fraction),
			Confidence:  Confidence(opened),
			Evidence:    a.expired,
		})
	}

	resolved := a.approved + a.rejected
	if resolved > 0 && a.rejected > 0 {
		fraction := float64(a.rejected) / float64(resolved)
		if fraction >= 0.25 {
			out = append(out, store.RiskFlag{
				Name:        "high-rejection-rate",
				Description: "similar engagements see frequent human rejections at this kind of gate",
				Severity:    severity(fraction),
				Confidence:  Confidence(resolved),
				Evidence:    a.rejected,
			})
		}
	}

	if a.committed > 0 && a.overrides > 0 {
		fraction := float64(a.overrides) / float64(a.committed)
		if fraction >= 0.2 {
			out = append(out, store.RiskFlag{
				Name:        "override-dependence",
				Description: "similar engagements lean on the ordering override instead of sequential hardening",
				Severity:    severity(fraction),
				Confidence:  Confidence(a.committed),
				Evidence:    a.overrides,
			})
		}
	}

	return out
}
