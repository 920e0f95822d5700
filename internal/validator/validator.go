package validator

import (
	"errors"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/maturityd/internal/maturity"
	"github.com/fyrsmithlabs/maturityd/internal/store"
)

// Status is the outcome of evaluating one category, or the whole report.
type Status string

const (
	// StatusPass means every requirement in scope is satisfied.
	StatusPass Status = "PASS"
	// StatusPartial means at least one requirement is satisfied and at
	// least one is not.
	StatusPartial Status = "PARTIAL"
	// StatusFail means no requirement in scope is satisfied.
	StatusFail Status = "FAIL"
)

// Report is the checklist evaluation for one target state. Overall is FAIL
// only when every category failed outright.
type Report struct {
	Overall     Status              `json:"overall"`
	PerCategory map[Category]Status `json:"per_category"`
	Blockers    []store.Blocker     `json:"blockers"`
}

// Validator evaluates the static checklist against project snapshots.
type Validator struct {
	checklist Checklist
	logger    *zap.Logger
}

// New creates a validator over a loaded checklist.
func New(checklist Checklist, logger *zap.Logger) (*Validator, error) {
	if checklist == nil {
		return nil, errors.New("checklist is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Validator{checklist: checklist, logger: logger}, nil
}

// Validate evaluates the target level's checklist against the project's
// satisfaction map. It reads only its arguments and the static table, so
// the same inputs always produce the same report.
func (v *Validator) Validate(p *store.Project, target maturity.State) Report {
	report := Report{
		PerCategory: make(map[Category]Status, 3),
	}

	var satisfied map[string]bool
	if p != nil {
		satisfied = p.Satisfied
	}

	failed := 0
	passed := 0
	for _, cat := range Categories() {
		reqs := v.checklist.Requirements(target.Level, cat)

		met := 0
		for _, r := range reqs {
			if satisfied[r.Name] {
				met++
				continue
			}
			report.Blockers = append(report.Blockers, store.Blocker{
				Requirement: r.Name,
				Category:    string(cat),
				Description: r.Description,
				Detail:      r.Blocker,
			})
		}

		switch {
		case met == len(reqs):
			report.PerCategory[cat] = StatusPass
			passed++
		case met == 0:
			report.PerCategory[cat] = StatusFail
			failed++
		default:
			report.PerCategory[cat] = StatusPartial
		}
	}

	switch {
	case passed == len(report.PerCategory):
		report.Overall = StatusPass
	case failed == len(report.PerCategory):
		report.Overall = StatusFail
	default:
		report.Overall = StatusPartial
	}

	return report
}
