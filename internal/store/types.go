package store

import (
	"time"

	"github.com/fyrsmithlabs/maturityd/internal/maturity"
)

// Project is an engagement tracked through the maturity model. It is owned
// by the engine for its lifetime and mutated only through committed
// transitions (and out-of-band evidence updates from delivery teams).
type Project struct {
	// ID is the unique identifier for this project.
	ID string `json:"id"`

	// Name is a human-readable engagement name.
	Name string `json:"name"`

	// ClientName is the client the engagement is delivered for.
	ClientName string `json:"client_name"`

	// ProjectType classifies the engagement (e.g. "platform", "integration").
	ProjectType string `json:"project_type"`

	// ClientType classifies the client (e.g. "enterprise", "startup").
	ClientType string `json:"client_type"`

	// Objectives are the agreed engagement objectives.
	Objectives []string `json:"objectives,omitempty"`

	// Stakeholders are the named decision-making stakeholders.
	Stakeholders []string `json:"stakeholders,omitempty"`

	// ContractValue is the total contract value in Currency units.
	ContractValue float64 `json:"contract_value"`

	// Currency is the ISO currency code for ContractValue.
	Currency string `json:"currency"`

	// State is the current maturity position.
	State maturity.State `json:"state"`

	// BilledPercent is the cumulative milestone percentage already confirmed
	// as paid. Updated only when a payment gate confirmation commits.
	BilledPercent float64 `json:"billed_percent"`

	// Satisfied records requirement names the delivery team has evidenced as
	// complete. Read by checklist validation, written out of band.
	Satisfied map[string]bool `json:"satisfied,omitempty"`

	// Metadata holds additional engagement metadata.
	Metadata map[string]string `json:"metadata,omitempty"`

	// CreatedAt is when the project record was created.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is when the project record last changed.
	UpdatedAt time.Time `json:"updated_at"`
}

// DecisionStatus is the lifecycle status of a decision gate.
type DecisionStatus string

const (
	// DecisionPending means the gate awaits a human decision.
	DecisionPending DecisionStatus = "PENDING"
	// DecisionApproved means a human approved the transition.
	DecisionApproved DecisionStatus = "APPROVED"
	// DecisionRejected means a human rejected the transition.
	DecisionRejected DecisionStatus = "REJECTED"
	// DecisionExpired means the deadline passed with no resolution.
	DecisionExpired DecisionStatus = "EXPIRED"
	// DecisionCancelled means an authorized actor withdrew the gate.
	DecisionCancelled DecisionStatus = "CANCELLED"
)

// Terminal reports whether the status admits no further transitions.
func (s DecisionStatus) Terminal() bool {
	return s != DecisionPending
}

// Blocker is an unsatisfied requirement attached to a decision packet so the
// approver sees exactly what is incomplete.
type Blocker struct {
	// Requirement is the checklist requirement name.
	Requirement string `json:"requirement"`

	// Category is the hardening category the requirement belongs to.
	Category string `json:"category"`

	// Description explains what the requirement demands.
	Description string `json:"description"`

	// Detail is the checklist's blocker hint for remediation.
	Detail string `json:"detail,omitempty"`
}

// RiskFlag is a mined risk pattern surfaced to the approver.
type RiskFlag struct {
	// Name identifies the risk pattern.
	Name string `json:"name"`

	// Description explains the observed pattern.
	Description string `json:"description"`

	// Severity is in [0,10], derived from historical correlation with
	// rollback and abort events.
	Severity float64 `json:"severity"`

	// Confidence is in [0,1], normalized by supporting evidence.
	Confidence float64 `json:"confidence"`

	// Evidence is the number of historical observations backing the flag.
	Evidence int `json:"evidence"`
}

// Recommendation is a suggested remediation action ranked by historical
// success.
type Recommendation struct {
	// Blocker names the blocker the recommendation addresses.
	Blocker string `json:"blocker"`

	// Action is the suggested remediation action.
	Action string `json:"action"`

	// SuccessRate is the fraction of historical applications that preceded a
	// committed transition.
	SuccessRate float64 `json:"success_rate"`

	// Effort is the estimated relative effort (lower is cheaper).
	Effort int `json:"effort"`
}

// DecisionPacket is the context shown to the human approver: the validation
// outcome plus mined risks and recommendations. It enriches the decision and
// never resolves it.
type DecisionPacket struct {
	// Overall is the checklist outcome: PASS, PARTIAL, or FAIL.
	Overall string `json:"overall"`

	// PerCategory maps hardening category to its checklist outcome.
	PerCategory map[string]string `json:"per_category,omitempty"`

	// Blockers are the unsatisfied requirements for the target level.
	Blockers []Blocker `json:"blockers,omitempty"`

	// Risks are mined risk patterns for similar engagements.
	Risks []RiskFlag `json:"risks,omitempty"`

	// Recommendations are ranked remediation suggestions.
	Recommendations []Recommendation `json:"recommendations,omitempty"`

	// Confidence is the pattern engine's overall confidence in [0,1].
	Confidence float64 `json:"confidence"`
}

// DecisionGate is a pending request for human approval of a transition.
// Immutable once resolved.
type DecisionGate struct {
	// ID is the unique identifier for this gate.
	ID string `json:"id"`

	// ProjectID is the project the gate belongs to.
	ProjectID string `json:"project_id"`

	// From is the project state when the gate opened.
	From maturity.State `json:"from"`

	// To is the requested target state.
	To maturity.State `json:"to"`

	// Override marks a gate opened through the audited ordering override.
	Override bool `json:"override,omitempty"`

	// Status is the gate lifecycle status.
	Status DecisionStatus `json:"status"`

	// Packet is the recommendation packet shown to the approver.
	Packet DecisionPacket `json:"packet"`

	// CreatedAt is when the gate opened.
	CreatedAt time.Time `json:"created_at"`

	// Deadline is when an unresolved gate expires.
	Deadline time.Time `json:"deadline"`

	// RequestedBy is the actor who requested the transition.
	RequestedBy string `json:"requested_by"`

	// ResolvedBy is the actor who approved, rejected, or cancelled the gate.
	ResolvedBy string `json:"resolved_by,omitempty"`

	// Justification is the mandatory rationale recorded at resolution.
	Justification string `json:"justification,omitempty"`

	// ResolvedAt is when the gate reached a terminal status.
	ResolvedAt time.Time `json:"resolved_at,omitzero"`
}

// PaymentStatus is the lifecycle status of a payment gate.
type PaymentStatus string

const (
	// PaymentOpen means the gate awaits external confirmation.
	PaymentOpen PaymentStatus = "OPEN"
	// PaymentConfirmed means an external confirmation was received.
	PaymentConfirmed PaymentStatus = "CONFIRMED"
	// PaymentExpired means the deadline passed unconfirmed.
	PaymentExpired PaymentStatus = "EXPIRED"
	// PaymentCancelled means an authorized actor withdrew the gate.
	PaymentCancelled PaymentStatus = "CANCELLED"
)

// Terminal reports whether the status admits no further transitions.
func (s PaymentStatus) Terminal() bool {
	return s != PaymentOpen
}

// PaymentGate is a pending request for external payment confirmation tied to
// a level-crossing transition. The engine never resolves one itself.
type PaymentGate struct {
	// ID is the unique identifier for this gate.
	ID string `json:"id"`

	// DecisionGateID is the approved decision gate this payment belongs to.
	DecisionGateID string `json:"decision_gate_id"`

	// ProjectID is the project the gate belongs to.
	ProjectID string `json:"project_id"`

	// Amount is the computed charge for this milestone.
	Amount float64 `json:"amount"`

	// Currency is the ISO currency code for Amount.
	Currency string `json:"currency"`

	// Milestone labels the milestone being charged (e.g. "PILOT milestone").
	Milestone string `json:"milestone"`

	// TargetPercent is the cumulative milestone percentage after this gate
	// confirms; it becomes the project's BilledPercent on commit.
	TargetPercent float64 `json:"target_percent"`

	// Status is the gate lifecycle status.
	Status PaymentStatus `json:"status"`

	// CreatedAt is when the gate opened.
	CreatedAt time.Time `json:"created_at"`

	// Deadline is when an unconfirmed gate expires.
	Deadline time.Time `json:"deadline"`

	// ExternalReference is the external transaction reference recorded at
	// confirmation.
	ExternalReference string `json:"external_reference,omitempty"`

	// ConfirmedBy is the actor who relayed the confirmation.
	ConfirmedBy string `json:"confirmed_by,omitempty"`

	// ConfirmedAt is when the confirmation was recorded.
	ConfirmedAt time.Time `json:"confirmed_at,omitzero"`
}

// AuditEntry is an append-only record of an observable event. Entries are
// never mutated or deleted; they are the sole source of truth for history
// and for pattern mining.
type AuditEntry struct {
	// ID is the unique identifier for this entry.
	ID string `json:"id"`

	// Seq is the entry sequence number within the project (starts at 1).
	// Assigned by the store on append.
	Seq uint64 `json:"seq"`

	// EventType identifies the kind of event (see package audit).
	EventType string `json:"event_type"`

	// ProjectID is the project the entry belongs to.
	ProjectID string `json:"project_id"`

	// Actor identifies who or what triggered the event.
	Actor string `json:"actor"`

	// Timestamp is when the event occurred.
	Timestamp time.Time `json:"timestamp"`

	// BeforeState is the project state before the event, in "MVP-L2" form.
	BeforeState string `json:"before_state,omitempty"`

	// AfterState is the project state after the event, in "MVP-L2" form.
	AfterState string `json:"after_state,omitempty"`

	// Payload holds event-specific data.
	Payload map[string]string `json:"payload,omitempty"`
}
