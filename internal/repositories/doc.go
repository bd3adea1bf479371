// Package repositories implements SQLite persistence for the client's local state.
//
// The only persisted entity is the authentication [models.Session]. The API owns every workout,
// so nothing else is cached locally.
//
// Key Implementations:
//   - [SessionRepository] : session CRUD with soft deletes and last-used tracking
//   - [TokenStore] : the load/save/clear view of the current session used by the task engine
//
// Sequence numbers provide stable ordering independent of UUIDs and creation timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
