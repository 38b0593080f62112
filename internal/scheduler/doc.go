// Package scheduler runs jobs one at a time, in the order they were enqueued.
//
// A Scheduler owns a single worker goroutine (Run). Any goroutine may call
// Enqueue; the worker dequeues the head job, runs it to completion, and moves
// on to the next one while the scheduler is started. Stop only gates the next
// job: a job that is already executing is never interrupted.
//
// Every job is stamped with a UUIDv7 id and a monotonic sequence number taken
// at enqueue time, so sequence order equals execution order.
package scheduler
