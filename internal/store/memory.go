package store

import (
	"errors"
	"sync"
	"time"

	"github.com/i474232898/renewable-site-aggregation/internal/yield"
)

var (
	// ErrNotFound is returned when no run is available for a query.
	ErrNotFound = errors.New("no aggregation run available")
)

// MemoryStore is a concurrency-safe in-memory history of aggregation runs,
// ordered by ComputedAt.
type MemoryStore struct {
	mu sync.RWMutex

	runs []yield.Run

	// retention configuration
	maxHistory int           // max number of runs kept
	maxAge     time.Duration // optional max age of runs
	now        func() time.Time
}

// NewMemoryStore creates a new MemoryStore with optional limits.
// If maxHistory is <= 0, it is treated as unlimited.
func NewMemoryStore(maxHistory int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		maxHistory: maxHistory,
		maxAge:     maxAge,
		now:        time.Now,
	}
}

// SaveRun appends a run and enforces retention.
func (s *MemoryStore) SaveRun(run yield.Run) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Keep runs ordered even if a clock step produced an older timestamp.
	i := len(s.runs)
	for i > 0 && s.runs[i-1].ComputedAt.After(run.ComputedAt) {
		i--
	}
	s.runs = append(s.runs, yield.Run{})
	copy(s.runs[i+1:], s.runs[i:])
	s.runs[i] = run

	if s.maxHistory > 0 && len(s.runs) > s.maxHistory {
		s.runs = s.runs[len(s.runs)-s.maxHistory:]
	}

	if s.maxAge > 0 {
		cutoff := s.now().Add(-s.maxAge)
		i := 0
		for ; i < len(s.runs); i++ {
			if !s.runs[i].ComputedAt.Before(cutoff) {
				break
			}
		}
		// The newest run survives even when it is older than maxAge.
		if i == len(s.runs) {
			i--
		}
		s.runs = s.runs[i:]
	}
}

// GetLatest returns the most recent run.
func (s *MemoryStore) GetLatest() (yield.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.runs) == 0 {
		return yield.Run{}, ErrNotFound
	}
	return s.runs[len(s.runs)-1], nil
}

// GetRange returns all runs computed between from and to (inclusive).
func (s *MemoryStore) GetRange(from, to time.Time) ([]yield.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []yield.Run
	for _, run := range s.runs {
		if !run.ComputedAt.Before(from) && !run.ComputedAt.After(to) {
			result = append(result, run)
		}
	}

	if len(result) == 0 {
		return nil, ErrNotFound
	}
	return result, nil
}
