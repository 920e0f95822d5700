// Package engine orchestrates maturity transitions.
//
// The state machine is the only component that moves a project between
// states. It validates ordering, builds the decision packet, opens the
// human decision gate, drives the payment gate on level crossings, and
// commits the state change together with its audit record under a
// per-project lock. The sweeper expires overdue gates in the background.
package engine
