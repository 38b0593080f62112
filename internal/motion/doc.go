// Package motion moves the actor toward a target point one fixed tick at a time.
//
// A move resolves a side selector to one of nine anchors on the actor's
// bounding box, then advances that anchor by `speed` units per tick along the
// straight line to the target until it is within speed·√2 + epsilon of it, and
// finally snaps the anchor exactly onto the target.
//
// An optional per-step callback observes the anchor position. It runs on its
// own goroutine behind a watchdog: the first invocation gets a bounded wait,
// later invocations that are still running when the next step arrives cause
// that step to be skipped, and a callback that is too slow is forgotten for
// the rest of the move. Forgetting a callback never stops the move itself.
//
// The Engine never draws anything. Reading the bounding box and applying an
// anchor position go through the Actor interface; an Actor whose surface has
// thread affinity is responsible for marshaling Place onto that thread.
package motion
