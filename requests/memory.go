package requests

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
	byID    map[string]Record
	byRef   map[string]string // reference number -> id
	yearSeq map[int]int
}

func NewMemory() *Memory {
	return &Memory{
		byID:    make(map[string]Record),
		byRef:   make(map[string]string),
		yearSeq: make(map[int]int),
	}
}

var _ Store = (*Memory)(nil)

func (m *Memory) Create(_ context.Context, rec *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	year := rec.CreatedAt.Year()
	m.yearSeq[year]++
	rec.ReferenceNumber = NewReference(year, m.yearSeq[year])

	m.byID[rec.ID] = *rec
	m.byRef[rec.ReferenceNumber] = rec.ID
	return nil
}

func (m *Memory) Get(_ context.Context, id string) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.byID[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

func (m *Memory) GetByReference(ctx context.Context, ref string) (Record, error) {
	m.mu.RLock()
	id, ok := m.byRef[ref]
	m.mu.RUnlock()
	if !ok {
		return Record{}, ErrNotFound
	}
	return m.Get(ctx, id)
}

func (m *Memory) ListByEmployeeYear(_ context.Context, employeeID string, year int) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Record
	for _, rec := range m.byID {
		if rec.EmployeeID == employeeID && rec.Start.Year() == year {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) UpdateStatus(_ context.Context, id string, to Status, reason string, at time.Time) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.byID[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	if !CanTransition(rec.Status, to) {
		return Record{}, ErrInvalidTransition
	}
	rec.Status = to
	if reason != "" {
		rec.DecisionReason = reason
	}
	rec.UpdatedAt = at
	m.byID[id] = rec
	return rec, nil
}

func (m *Memory) Stats(_ context.Context) (Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var s Stats
	for _, rec := range m.byID {
		s.Total++
		switch rec.Status {
		case StatusApproved:
			s.Approved++
		case StatusRejected:
			s.Rejected++
		case StatusEscalated:
			s.Escalated++
		case StatusCancelled:
			s.Cancelled++
		}
	}
	return s, nil
}
