package review

import (
	"context"
	"sort"
	"sync"
	"time"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (tests, dev server)
// =============================================================================

type Memory struct {
	mu      sync.RWMutex
	reviews map[string]PendingReview
}

func NewMemory() *Memory {
	return &Memory{reviews: make(map[string]PendingReview)}
}

var _ Store = (*Memory)(nil)

func (m *Memory) Create(_ context.Context, pr PendingReview) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reviews[pr.ID] = pr
	return nil
}

func (m *Memory) Get(_ context.Context, id string) (PendingReview, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	pr, ok := m.reviews[id]
	if !ok {
		return PendingReview{}, ErrNotFound
	}
	return pr, nil
}

func (m *Memory) ListOpen(_ context.Context) ([]PendingReview, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []PendingReview
	for _, pr := range m.reviews {
		if !pr.Resolved {
			out = append(out, pr)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OpenedAt.Before(out[j].OpenedAt) })
	return out, nil
}

// MarkResolved flips unresolved -> resolved under the store lock, which
// makes the check-and-set atomic.
func (m *Memory) MarkResolved(_ context.Context, id string, res Resolution, note, reviewer string, at time.Time) (PendingReview, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pr, ok := m.reviews[id]
	if !ok {
		return PendingReview{}, ErrNotFound
	}
	if pr.Resolved {
		return PendingReview{}, ErrAlreadyResolved
	}

	pr.Resolved = true
	pr.Resolution = res
	pr.Note = note
	pr.ResolvedBy = reviewer
	resolvedAt := at
	pr.ResolvedAt = &resolvedAt
	m.reviews[id] = pr
	return pr, nil
}
