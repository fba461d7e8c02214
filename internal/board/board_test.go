package board

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/denyconquer-backend/internal/entity"
)

const (
	playerA = 1
	playerB = 2
)

func at(r, c int) entity.Coord {
	return entity.Coord{Row: r, Col: c}
}

func TestBoard_TryLock(t *testing.T) {
	t.Run("Locks an open square", func(t *testing.T) {
		// Given: an empty board
		b := New(2)

		// When: player A locks (0,0)
		granted := b.TryLock(at(0, 0), playerA)

		// Then: the lock is granted and the square is locked by A
		require.True(t, granted)
		state, holder := b.State(at(0, 0))
		assert.Equal(t, entity.SquareLocked, state)
		assert.Equal(t, playerA, holder)
	})

	t.Run("Denies a square locked by someone else", func(t *testing.T) {
		b := New(2)
		require.True(t, b.TryLock(at(0, 0), playerA))

		assert.False(t, b.TryLock(at(0, 0), playerB))
		assert.Equal(t, map[entity.Coord]int{at(0, 0): playerA}, b.SnapshotLocks())
	})

	t.Run("Denies a second lock by the same player", func(t *testing.T) {
		b := New(2)
		require.True(t, b.TryLock(at(0, 0), playerA))

		assert.False(t, b.TryLock(at(0, 0), playerA))
	})

	t.Run("Denies an owned square", func(t *testing.T) {
		b := New(2)
		require.True(t, b.TryLock(at(0, 0), playerA))
		require.True(t, b.Claim(at(0, 0), playerA))

		assert.False(t, b.TryLock(at(0, 0), playerB))
		assert.False(t, b.TryLock(at(0, 0), playerA))
	})

	t.Run("Denies out of range coordinates", func(t *testing.T) {
		b := New(2)

		assert.False(t, b.TryLock(at(-1, 0), playerA))
		assert.False(t, b.TryLock(at(0, 2), playerA))
		assert.Empty(t, b.SnapshotLocks())
	})

	t.Run("Allows a player to hold several locks", func(t *testing.T) {
		b := New(2)

		assert.True(t, b.TryLock(at(0, 0), playerA))
		assert.True(t, b.TryLock(at(1, 1), playerA))
		assert.Len(t, b.SnapshotLocks(), 2)
	})
}

func TestBoard_TryLock_ExactlyOneWinner(t *testing.T) {
	// Given: many goroutines racing for the same open square
	const contenders = 64
	b := New(4)

	var (
		wg      sync.WaitGroup
		winners atomic.Int32
		start   = make(chan struct{})
	)

	for i := 1; i <= contenders; i++ {
		wg.Add(1)
		go func(playerID int) {
			defer wg.Done()
			<-start
			if b.TryLock(at(2, 3), playerID) {
				winners.Add(1)
			}
		}(i)
	}

	// When: they all go at once
	close(start)
	wg.Wait()

	// Then: exactly one wins
	assert.Equal(t, int32(1), winners.Load())
	assert.Len(t, b.SnapshotLocks(), 1)
}

func TestBoard_Claim(t *testing.T) {
	t.Run("Lock then claim yields ownership", func(t *testing.T) {
		b := New(2)
		require.True(t, b.TryLock(at(1, 0), playerA))

		require.True(t, b.Claim(at(1, 0), playerA))

		state, owner := b.State(at(1, 0))
		assert.Equal(t, entity.SquareOwned, state)
		assert.Equal(t, playerA, owner)
		assert.Empty(t, b.SnapshotLocks())
		assert.Equal(t, [][]int{{0, 0}, {playerA, 0}}, b.SnapshotOwnership())
	})

	t.Run("Claim by a non locking player fails without side effects", func(t *testing.T) {
		b := New(2)
		require.True(t, b.TryLock(at(0, 1), playerA))

		assert.False(t, b.Claim(at(0, 1), playerB))

		state, holder := b.State(at(0, 1))
		assert.Equal(t, entity.SquareLocked, state)
		assert.Equal(t, playerA, holder)
		assert.Equal(t, 0, b.OwnedCount())
	})

	t.Run("Claim without a lock fails", func(t *testing.T) {
		b := New(2)

		assert.False(t, b.Claim(at(0, 0), playerA))
		assert.Equal(t, [][]int{{0, 0}, {0, 0}}, b.SnapshotOwnership())
	})

	t.Run("Claim after release fails", func(t *testing.T) {
		b := New(2)
		require.True(t, b.TryLock(at(0, 0), playerA))
		require.True(t, b.ReleaseLock(at(0, 0), playerA))

		assert.False(t, b.Claim(at(0, 0), playerA))
	})
}

func TestBoard_ReleaseLock(t *testing.T) {
	t.Run("Holder can release", func(t *testing.T) {
		b := New(2)
		require.True(t, b.TryLock(at(0, 0), playerA))

		assert.True(t, b.ReleaseLock(at(0, 0), playerA))
		assert.True(t, b.TryLock(at(0, 0), playerB))
	})

	t.Run("Someone else cannot release", func(t *testing.T) {
		b := New(2)
		require.True(t, b.TryLock(at(0, 0), playerA))

		assert.False(t, b.ReleaseLock(at(0, 0), playerB))
		assert.Equal(t, map[entity.Coord]int{at(0, 0): playerA}, b.SnapshotLocks())
	})
}

func TestBoard_ReleaseAllLocks(t *testing.T) {
	// Given: A holds two locks and B holds one
	b := New(3)
	require.True(t, b.TryLock(at(0, 0), playerA))
	require.True(t, b.TryLock(at(2, 2), playerA))
	require.True(t, b.TryLock(at(1, 1), playerB))

	// When: A's locks are released twice
	released := b.ReleaseAllLocks(playerA)
	again := b.ReleaseAllLocks(playerA)

	// Then: both squares come back, the second call is a no-op, and B keeps its lock
	assert.ElementsMatch(t, []entity.Coord{at(0, 0), at(2, 2)}, released)
	assert.Empty(t, again)
	assert.Equal(t, map[entity.Coord]int{at(1, 1): playerB}, b.SnapshotLocks())
}

func TestBoard_IsFullAndScoreTally(t *testing.T) {
	b := New(2)

	claim := func(c entity.Coord, playerID int) {
		t.Helper()
		require.True(t, b.TryLock(c, playerID))
		require.True(t, b.Claim(c, playerID))
	}

	claim(at(0, 0), playerA)
	claim(at(0, 1), playerA)
	claim(at(1, 0), playerA)
	assert.False(t, b.IsFull())
	assert.Equal(t, map[int]int{playerA: 3}, b.ScoreTally())

	claim(at(1, 1), playerB)
	assert.True(t, b.IsFull())
	assert.Equal(t, map[int]int{playerA: 3, playerB: 1}, b.ScoreTally())
}

func TestBoard_Freeze(t *testing.T) {
	// Given: A holds a lock when the board is frozen
	b := New(2)
	require.True(t, b.TryLock(at(0, 0), playerA))

	// When: the board is frozen
	b.Freeze()

	// Then: nothing can be locked or claimed anymore
	assert.True(t, b.IsFrozen())
	assert.False(t, b.TryLock(at(1, 1), playerB))
	assert.False(t, b.Claim(at(0, 0), playerA))
	assert.Equal(t, 0, b.OwnedCount())
}

func TestBoard_TwoPlayerScenario(t *testing.T) {
	b := New(2)

	assert.True(t, b.TryLock(at(0, 0), playerA))
	assert.False(t, b.TryLock(at(0, 0), playerB))
	assert.True(t, b.Claim(at(0, 0), playerA))
	assert.Equal(t, playerA, b.SnapshotOwnership()[0][0])
	assert.False(t, b.TryLock(at(0, 0), playerB))
	assert.True(t, b.TryLock(at(0, 1), playerB))
	assert.False(t, b.TryLock(at(0, 1), playerA))
}
