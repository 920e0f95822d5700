// Package patterns mines the audit trail for delivery and risk patterns.
//
// The engine aggregates historical audit records for engagements similar
// to the one under review (same project type, same client type) and turns
// them into delivery patterns, risk flags, and remediation recommendations
// that enrich a decision packet. Confidence is normalized by evidence
// volume, so a single historical observation never masquerades as a trend.
// Output is always advisory; nothing here approves or blocks a transition.
package patterns
