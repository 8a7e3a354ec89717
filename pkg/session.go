package relver

import (
	"errors"
	"fmt"
	"os"
	"sync"
)

// Session owns the temporary files created during one run. Release must be
// deferred by whoever creates the Session; it removes every temporary file
// that was not committed by a rename.
type Session struct {
	mu    sync.Mutex
	temps map[string]struct{}
}

// NewSession starts a run scope.
func NewSession() *Session {
	return &Session{temps: make(map[string]struct{})}
}

// CreateTemp creates a temporary file in dir and registers it for cleanup.
func (s *Session) CreateTemp(dir, pattern string) (*os.File, error) {
	f, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return nil, fmt.Errorf("creating temporary file in %q: %w", dir, err)
	}
	s.mu.Lock()
	s.temps[f.Name()] = struct{}{}
	s.mu.Unlock()
	return f, nil
}

// Committed drops path from cleanup once it has been renamed into place.
func (s *Session) Committed(path string) {
	s.mu.Lock()
	delete(s.temps, path)
	s.mu.Unlock()
}

// Release removes all outstanding temporary files. Safe to call more than once.
func (s *Session) Release() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var errs []error
	for p := range s.temps {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			errs = append(errs, err)
		}
		delete(s.temps, p)
	}
	return errors.Join(errs...)
}

// pending reports the number of temporary files still registered.
func (s *Session) pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.temps)
}
