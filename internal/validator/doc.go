// Package validator evaluates hardening checklists against a project
// snapshot.
//
// The checklist is a static per-level table (level → category →
// requirements) shipped as embedded YAML and validated at load time.
// Validation itself is a pure function: it never blocks a decision gate, it
// only attaches blockers to the packet the human approver sees.
package validator
