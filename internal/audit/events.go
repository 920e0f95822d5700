package audit

// Event types recorded in the trail. Events are facts that have occurred,
// never commands or requests-in-flight.
const (
	// EventProjectCreated records the creation of a project.
	EventProjectCreated = "project.created"

	// EventEvidenceRecorded records a delivery team marking a checklist
	// requirement satisfied or unsatisfied.
	EventEvidenceRecorded = "project.evidence_recorded"

	// EventTransitionRequested records a transition request that opened a
	// decision gate.
	EventTransitionRequested = "transition.requested"

	// EventTransitionCommitted records a committed state change.
	EventTransitionCommitted = "transition.committed"

	// EventTransitionOverride records use of the ordered-level override.
	// Every override is independently queryable under this type.
	EventTransitionOverride = "transition.override"

	// EventDecisionOpened records a decision gate opening.
	EventDecisionOpened = "decision.opened"

	// EventDecisionApproved records a human approval.
	EventDecisionApproved = "decision.approved"

	// EventDecisionRejected records a human rejection.
	EventDecisionRejected = "decision.rejected"

	// EventDecisionExpired records a decision gate deadline expiry.
	EventDecisionExpired = "decision.expired"

	// EventDecisionCancelled records an explicit decision gate cancellation.
	EventDecisionCancelled = "decision.cancelled"

	// EventPaymentOpened records a payment gate opening.
	EventPaymentOpened = "payment.opened"

	// EventPaymentConfirmed records an external payment confirmation.
	EventPaymentConfirmed = "payment.confirmed"

	// EventPaymentExpired records a payment gate deadline expiry.
	EventPaymentExpired = "payment.expired"

	// EventPaymentCancelled records an explicit payment gate cancellation.
	EventPaymentCancelled = "payment.cancelled"
)
