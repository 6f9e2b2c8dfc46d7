// Package campus implements the core of a college event registration
// backend: credential hashing, bearer token issuance, request guards and the
// capacity bounded registration workflow, together with the bun backed
// repositories for users, colleges, students, events and registrations.
//
// Identity directory:
//   - Users are keyed by a unique, lower cased handle (username). Students are
//     an optional one to one extension referencing a College.
//   - Deleting a user cascades to the student profile, registrations, created
//     events and the registrations on those events. Foreign keys carry ON
//     DELETE CASCADE and the repositories also delete dependents explicitly
//     inside the same transaction.
//
// Registration:
//   - RegistrationManager.Register runs the event lookup, duplicate check,
//     capacity check and insert in one transaction. On PostgreSQL the event
//     row is locked with SELECT ... FOR UPDATE, on SQLite writers are
//     serialized by the single connection pool.
//
// Activity sinks:
//   - ActivitySink receives audit events for logins, signups and admin
//     actions. Sinks run best-effort; errors are logged and never fail the
//     originating request.
package campus
