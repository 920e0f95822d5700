// Package store defines the knowledge store consumed by the progression
// engine: typed records for projects, decision gates, payment gates, and the
// append-only audit trail, plus the KnowledgeStore interface they live behind.
//
// The store is transactional for a single record only. Multi-record
// consistency (project + gate + audit entry) is the engine's responsibility
// via its per-project serialization, not the store's.
package store
