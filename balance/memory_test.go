package balance_test

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/sirw-engine/balance"
)

func TestGetBalance_UnseenKeyIsZero(t *testing.T) {
	// GIVEN: A tracker that has never seen this employee
	// WHEN: Reading the balance
	// THEN: A zero-usage balance with the default quota, no error

	tracker := balance.NewMemory(nil)

	bal, err := tracker.GetBalance(context.Background(), "emp-1", 2026)
	require.NoError(t, err)
	assert.True(t, bal.DaysUsed.IsZero())
	assert.True(t, bal.DaysAllowed.Equal(balance.DefaultDaysAllowed))
	assert.Equal(t, decimal.NewFromInt(20).String(), bal.Remaining().String())
}

func TestCommitApproval_Accumulates(t *testing.T) {
	tracker := balance.NewMemory(nil)
	ctx := context.Background()

	bal, err := tracker.CommitApproval(ctx, "emp-1", 2026, 10)
	require.NoError(t, err)
	assert.Equal(t, "10", bal.DaysUsed.String())

	bal, err = tracker.CommitApproval(ctx, "emp-1", 2026, 5)
	require.NoError(t, err)
	assert.Equal(t, "15", bal.DaysUsed.String())
	assert.Equal(t, "5", bal.Remaining().String())
}

func TestCommitApproval_YearsAreIndependent(t *testing.T) {
	tracker := balance.NewMemory(nil)
	ctx := context.Background()

	_, err := tracker.CommitApproval(ctx, "emp-1", 2026, 20)
	require.NoError(t, err)

	// A new year starts fresh; the old year keeps its usage.
	next, err := tracker.GetBalance(ctx, "emp-1", 2027)
	require.NoError(t, err)
	assert.True(t, next.DaysUsed.IsZero())

	old, err := tracker.GetBalance(ctx, "emp-1", 2026)
	require.NoError(t, err)
	assert.Equal(t, "20", old.DaysUsed.String())
}

func TestCommitApproval_ConcurrentCommitsAllLand(t *testing.T) {
	// GIVEN: 20 goroutines each committing 1 workday for the same key
	// WHEN: They race
	// THEN: No update is lost; the total is exactly 20

	tracker := balance.NewMemory(nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := tracker.CommitApproval(ctx, "emp-1", 2026, 1)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	bal, err := tracker.GetBalance(ctx, "emp-1", 2026)
	require.NoError(t, err)
	assert.Equal(t, "20", bal.DaysUsed.String())
}

func TestReverseApproval_ReleasesDays(t *testing.T) {
	tracker := balance.NewMemory(nil)
	ctx := context.Background()

	_, err := tracker.CommitApproval(ctx, "emp-1", 2026, 10)
	require.NoError(t, err)

	bal, err := tracker.ReverseApproval(ctx, "emp-1", 2026, 4)
	require.NoError(t, err)
	assert.Equal(t, "6", bal.DaysUsed.String())
}

func TestReverseApproval_ClampsAtZero(t *testing.T) {
	// Reversing more than was committed indicates inconsistent state
	// upstream; the tracker clamps rather than going negative.
	tracker := balance.NewMemory(nil)
	ctx := context.Background()

	_, err := tracker.CommitApproval(ctx, "emp-1", 2026, 3)
	require.NoError(t, err)

	bal, err := tracker.ReverseApproval(ctx, "emp-1", 2026, 10)
	require.NoError(t, err)
	assert.True(t, bal.DaysUsed.IsZero())
}

func TestNegativeDelta_Rejected(t *testing.T) {
	tracker := balance.NewMemory(nil)
	ctx := context.Background()

	_, err := tracker.CommitApproval(ctx, "emp-1", 2026, -1)
	assert.ErrorIs(t, err, balance.ErrNegativeDelta)

	_, err = tracker.ReverseApproval(ctx, "emp-1", 2026, -1)
	assert.ErrorIs(t, err, balance.ErrNegativeDelta)
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, balance.IsRetryable(balance.ErrConcurrentUpdateConflict))
	assert.False(t, balance.IsRetryable(balance.ErrNegativeDelta))
	assert.False(t, balance.IsRetryable(nil))
}
