// Package store is the SQLite journal of an interpreter session.
//
// Three tables:
//   - commands: every dispatched line with its result code and value
//   - job_events: lifecycle transitions of scheduled jobs
//   - variables: the last saved variable snapshot, for --resume
//
// Ordering always uses the seq columns, never timestamps; recorded_at is
// for display only.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL
//   - busy_timeout=5000
//   - a single open connection, so the scheduler goroutine and the
//     dispatcher never contend for the write lock
package store
