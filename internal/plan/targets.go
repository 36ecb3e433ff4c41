package plan

import (
	"sync"
	"time"

	"github.com/claude/triplan/internal/models"
)

// FrozenTargetStore holds at most one immutable target snapshot per week
// start. GetOrCreate captures the live targets on first need; the snapshot
// then never changes until an explicit reset (e.g. a regenerated cycle).
type FrozenTargetStore interface {
	// GetOrCreate returns the frozen targets for the week, capturing a copy
	// of live if none exist yet.
	GetOrCreate(weekStart time.Time, live models.TargetSet) (models.WeeklyTarget, error)
	// Get returns the frozen targets for the week, if any.
	Get(weekStart time.Time) (models.WeeklyTarget, bool, error)
	// Reset drops the frozen targets for one week.
	Reset(weekStart time.Time) error
	// ResetRange drops frozen targets for all weeks in [from, to).
	ResetRange(from, to time.Time) error
}

// MemoryTargetStore is the in-process FrozenTargetStore, keyed by week-start
// date. Safe for concurrent use.
type MemoryTargetStore struct {
	mu     sync.Mutex
	frozen map[string]models.WeeklyTarget
}

// NewMemoryTargetStore creates an empty in-memory store.
func NewMemoryTargetStore() *MemoryTargetStore {
	return &MemoryTargetStore{frozen: make(map[string]models.WeeklyTarget)}
}

func weekKey(weekStart time.Time) string {
	return weekStart.Format("2006-01-02")
}

// GetOrCreate implements FrozenTargetStore.
func (s *MemoryTargetStore) GetOrCreate(weekStart time.Time, live models.TargetSet) (models.WeeklyTarget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := weekKey(weekStart)
	if wt, ok := s.frozen[key]; ok {
		return wt, nil
	}
	wt := models.WeeklyTarget{
		WeekStart: weekStart,
		Targets:   live.Clone(),
		FrozenAt:  time.Now().UTC(),
	}
	s.frozen[key] = wt
	return wt, nil
}

// Get implements FrozenTargetStore.
func (s *MemoryTargetStore) Get(weekStart time.Time) (models.WeeklyTarget, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	wt, ok := s.frozen[weekKey(weekStart)]
	return wt, ok, nil
}

// Reset implements FrozenTargetStore.
func (s *MemoryTargetStore) Reset(weekStart time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.frozen, weekKey(weekStart))
	return nil
}

// ResetRange implements FrozenTargetStore.
func (s *MemoryTargetStore) ResetRange(from, to time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, wt := range s.frozen {
		if !wt.WeekStart.Before(from) && wt.WeekStart.Before(to) {
			delete(s.frozen, key)
		}
	}
	return nil
}
