package board

import (
	"sync"

	"github.com/rocketscienceinc/denyconquer-backend/internal/entity"
)

// Board owns square ownership and in-flight locks. Every operation takes the
// single board mutex for an O(1) check-and-set (snapshots and tallies scan the
// grid) and never does I/O while holding it.
type Board struct {
	mu sync.Mutex

	size   int
	owners [][]int
	locks  map[entity.Coord]int
	owned  int
	frozen bool
}

func New(size int) *Board {
	owners := make([][]int, size)
	for r := range owners {
		owners[r] = make([]int, size)
	}

	return &Board{
		size:   size,
		owners: owners,
		locks:  make(map[entity.Coord]int),
	}
}

func (that *Board) Size() int {
	return that.size
}

// Contains - reports whether the coordinate lies on the grid.
func (that *Board) Contains(c entity.Coord) bool {
	return c.Row >= 0 && c.Row < that.size && c.Col >= 0 && c.Col < that.size
}

// TryLock - reserves an open square for the player. Exactly one of several
// concurrent callers on the same square wins.
func (that *Board) TryLock(c entity.Coord, playerID int) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.frozen || !that.Contains(c) {
		return false
	}

	if that.owners[c.Row][c.Col] != entity.EmptyOwner {
		return false
	}

	if _, locked := that.locks[c]; locked {
		return false
	}

	that.locks[c] = playerID

	return true
}

// Claim - converts the player's lock into permanent ownership.
func (that *Board) Claim(c entity.Coord, playerID int) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.frozen {
		return false
	}

	holder, locked := that.locks[c]
	if !locked || holder != playerID {
		return false
	}

	delete(that.locks, c)
	that.owners[c.Row][c.Col] = playerID
	that.owned++

	return true
}

// ReleaseLock - returns a square locked by the player to open.
func (that *Board) ReleaseLock(c entity.Coord, playerID int) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	holder, locked := that.locks[c]
	if !locked || holder != playerID {
		return false
	}

	delete(that.locks, c)

	return true
}

// ReleaseAllLocks - opens every square locked by the player and returns them.
func (that *Board) ReleaseAllLocks(playerID int) []entity.Coord {
	that.mu.Lock()
	defer that.mu.Unlock()

	var released []entity.Coord
	for c, holder := range that.locks {
		if holder == playerID {
			delete(that.locks, c)
			released = append(released, c)
		}
	}

	return released
}

// Freeze - stops any further lock or claim from succeeding.
func (that *Board) Freeze() {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.frozen = true
}

func (that *Board) IsFrozen() bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.frozen
}

func (that *Board) IsFull() bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.owned == that.size*that.size
}

func (that *Board) OwnedCount() int {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.owned
}

// State - reports the state of a single square and the player attached to it.
func (that *Board) State(c entity.Coord) (entity.SquareState, int) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if !that.Contains(c) {
		return entity.SquareOpen, entity.EmptyOwner
	}

	if owner := that.owners[c.Row][c.Col]; owner != entity.EmptyOwner {
		return entity.SquareOwned, owner
	}

	if holder, locked := that.locks[c]; locked {
		return entity.SquareLocked, holder
	}

	return entity.SquareOpen, entity.EmptyOwner
}

// SnapshotOwnership - copy of the ownership grid, 0 for unowned squares.
func (that *Board) SnapshotOwnership() [][]int {
	that.mu.Lock()
	defer that.mu.Unlock()

	snapshot := make([][]int, that.size)
	for r, row := range that.owners {
		snapshot[r] = append([]int(nil), row...)
	}

	return snapshot
}

// SnapshotLocks - copy of the squares currently locked but not owned.
func (that *Board) SnapshotLocks() map[entity.Coord]int {
	that.mu.Lock()
	defer that.mu.Unlock()

	snapshot := make(map[entity.Coord]int, len(that.locks))
	for c, holder := range that.locks {
		snapshot[c] = holder
	}

	return snapshot
}

// ScoreTally - owned square count per player.
func (that *Board) ScoreTally() map[int]int {
	that.mu.Lock()
	defer that.mu.Unlock()

	scores := make(map[int]int)
	for _, row := range that.owners {
		for _, owner := range row {
			if owner != entity.EmptyOwner {
				scores[owner]++
			}
		}
	}

	return scores
}
