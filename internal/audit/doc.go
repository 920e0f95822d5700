// Package audit maintains the append-only audit trail.
//
// Every state change, decision, payment event, and override is recorded as
// an immutable entry. The trail is the sole source of truth for engagement
// history and the corpus pattern mining reads from.
package audit
