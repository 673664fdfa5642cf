// Package snapshot keeps the most recent analysis for surfaces that can
// answer from it without recomputing, such as suggestions requested with
// no task list.
package snapshot

import (
	"errors"
	"slices"
	"sync"

	"github.com/papapumpkin/sextant/internal/analyzer"
)

// ErrEmpty is returned by Latest before anything has been stored, or when
// the latest analysis ranked no tasks.
var ErrEmpty = errors.New("snapshot: no previous analysis")

// Store is a single-slot holder for the latest analyzer.Result. The zero
// value is empty and ready to use. It is safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	latest *analyzer.Result
}

// Put replaces the stored result. The store keeps its own copy of the task
// and cycle slices so later changes by the caller are not observed.
func (s *Store) Put(res analyzer.Result) {
	res.Tasks = slices.Clone(res.Tasks)
	res.Cycles = slices.Clone(res.Cycles)
	res.Errors = slices.Clone(res.Errors)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest = &res
}

// Latest returns a copy of the stored result, or ErrEmpty. A stored
// result with no tasks counts as empty.
func (s *Store) Latest() (analyzer.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == nil || len(s.latest.Tasks) == 0 {
		return analyzer.Result{}, ErrEmpty
	}
	res := *s.latest
	res.Tasks = slices.Clone(res.Tasks)
	return res, nil
}
