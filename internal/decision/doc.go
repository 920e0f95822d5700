// Package decision manages human decision gates.
//
// A decision gate is the mandatory human checkpoint in front of every
// maturity transition. The engine opens at most one pending gate per
// project, attaches the validation and pattern packet, and waits. Only a
// named human actor with a written justification can resolve a gate; the
// system itself never approves anything. Unresolved gates expire at their
// deadline and the requester must start over.
package decision
