// Package vars holds the named variables manipulated by GET/SET/DELETE.
package vars

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/roach88/puppet/internal/value"
)

// ErrNotFound is returned when a variable lookup misses.
var ErrNotFound = errors.New("variable does not exist")

// NotFoundError carries the name of the missing variable.
// It matches ErrNotFound via errors.Is.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: %s", e.Name, ErrNotFound)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// Store maps variable names to values.
//
// The dispatcher already serializes access, so the mutex only matters for
// readers outside the command path (journal snapshots, tests).
type Store struct {
	mu   sync.RWMutex
	vars map[string]value.Value
}

// New creates an empty store.
func New() *Store {
	return &Store{vars: make(map[string]value.Value)}
}

// Set creates or overwrites name.
func (s *Store) Set(name string, v value.Value) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vars[name] = v
}

// Get returns the value stored under name.
func (s *Store) Get(name string) (value.Value, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.vars[name]
	if !ok {
		return nil, &NotFoundError{Name: name}
	}
	return v, nil
}

// Delete removes name. Deleting a missing variable returns a NotFoundError
// so callers can decide whether that matters.
func (s *Store) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.vars[name]; !ok {
		return &NotFoundError{Name: name}
	}
	delete(s.vars, name)
	return nil
}

// Clear removes every variable.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vars = make(map[string]value.Value)
}

// Len returns the number of variables.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.vars)
}

// Names returns all variable names in sorted order.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.vars))
	for name := range s.vars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Snapshot returns a copy of the current contents.
func (s *Store) Snapshot() map[string]value.Value {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]value.Value, len(s.vars))
	for k, v := range s.vars {
		out[k] = v
	}
	return out
}

// Load replaces the store contents with m.
func (s *Store) Load(m map[string]value.Value) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vars = make(map[string]value.Value, len(m))
	for k, v := range m {
		s.vars[k] = v
	}
}
