package balance

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/warp/sirw-engine/engine"
)

// =============================================================================
// MEMORY TRACKER - In-memory implementation (tests, dev server)
// =============================================================================

// Memory is a Tracker backed by a map. A single mutex covers all keys;
// every mutation happens under it, so increments are atomic and no
// update can be lost.
type Memory struct {
	mu      sync.RWMutex
	used    map[key]decimal.Decimal
	allowed decimal.Decimal
	log     *zap.Logger
}

type key struct {
	EmployeeID string
	Year       int
}

// NewMemory creates an in-memory tracker with the default annual quota.
func NewMemory(log *zap.Logger) *Memory {
	if log == nil {
		log = zap.NewNop()
	}
	return &Memory{
		used:    make(map[key]decimal.Decimal),
		allowed: DefaultDaysAllowed,
		log:     log,
	}
}

var _ Tracker = (*Memory)(nil)

func (m *Memory) GetBalance(_ context.Context, employeeID string, year int) (engine.EmployeeBalance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.balanceLocked(employeeID, year), nil
}

func (m *Memory) CommitApproval(_ context.Context, employeeID string, year int, workdays int) (engine.EmployeeBalance, error) {
	if workdays < 0 {
		return engine.EmployeeBalance{}, ErrNegativeDelta
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	k := key{EmployeeID: employeeID, Year: year}
	m.used[k] = m.used[k].Add(decimal.NewFromInt(int64(workdays)))
	return m.balanceLocked(employeeID, year), nil
}

func (m *Memory) ReverseApproval(_ context.Context, employeeID string, year int, workdays int) (engine.EmployeeBalance, error) {
	if workdays < 0 {
		return engine.EmployeeBalance{}, ErrNegativeDelta
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	k := key{EmployeeID: employeeID, Year: year}
	next := m.used[k].Sub(decimal.NewFromInt(int64(workdays)))
	if next.IsNegative() {
		// Clamp and log: the request path must not fail, but this means
		// something double-reversed and should page whoever owns the data.
		m.log.Warn("balance reversal clamped at zero",
			zap.String("employee_id", employeeID),
			zap.Int("year", year),
			zap.Int("workdays", workdays),
			zap.String("balance_before", m.used[k].String()),
			zap.Error(ErrInconsistentBalanceState),
		)
		next = decimal.Zero
	}
	m.used[k] = next
	return m.balanceLocked(employeeID, year), nil
}

func (m *Memory) balanceLocked(employeeID string, year int) engine.EmployeeBalance {
	return engine.EmployeeBalance{
		EmployeeID:  employeeID,
		Year:        year,
		DaysUsed:    m.used[key{EmployeeID: employeeID, Year: year}],
		DaysAllowed: m.allowed,
	}
}
