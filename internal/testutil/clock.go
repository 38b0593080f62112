package testutil

import (
	"sync"
	"time"
)

// Epoch is the first instant a FakeTime reports.
var Epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// FakeTime is a deterministic wall clock for tests. Each call to Now
// advances it by Step, so timestamps in journals and job events are
// reproducible run to run.
//
// Thread-safety: safe for concurrent use.
type FakeTime struct {
	mu   sync.Mutex
	t    time.Time
	Step time.Duration
}

// NewFakeTime returns a clock starting at Epoch that advances one
// millisecond per reading.
func NewFakeTime() *FakeTime {
	return &FakeTime{t: Epoch, Step: time.Millisecond}
}

// Now returns the current fake instant and advances the clock.
func (f *FakeTime) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := f.t
	f.t = f.t.Add(f.Step)
	return now
}

// Peek returns the next instant without advancing.
func (f *FakeTime) Peek() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

// Reset rewinds the clock to Epoch.
func (f *FakeTime) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.t = Epoch
}
