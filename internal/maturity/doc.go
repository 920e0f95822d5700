// Package maturity defines the ordered engagement maturity model.
//
// An engagement moves through five levels (POC → MVP → PILOT → PRODUCTION →
// SCALE), each subdivided into three ordered hardening checkpoints
// (L1-security → L2-reliability → L3-scalability). All types here are pure
// values; the progression rules themselves are enforced by the engine.
package maturity
