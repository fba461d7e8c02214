package broadcast

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/denyconquer-backend/internal/board"
	"github.com/rocketscienceinc/denyconquer-backend/internal/entity"
	"github.com/rocketscienceinc/denyconquer-backend/internal/registry"
)

var errBrokenPipe = errors.New("broken pipe")

type recordingConn struct {
	mu    sync.Mutex
	lines []string
	fail  bool
}

func (that *recordingConn) Send(line string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.fail {
		return errBrokenPipe
	}

	that.lines = append(that.lines, line)

	return nil
}

func (that *recordingConn) Lines() []string {
	that.mu.Lock()
	defer that.mu.Unlock()

	return append([]string(nil), that.lines...)
}

func newFixture(t *testing.T) (*Broadcaster, *registry.Registry, *board.Board) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := registry.New(4, nil)
	b := board.New(2)

	return New(logger, reg, b), reg, b
}

func TestBroadcaster_BroadcastAll(t *testing.T) {
	t.Run("Reaches everyone but the excluded connection", func(t *testing.T) {
		// Given: three registered connections
		bc, reg, _ := newFixture(t)
		a, b, c := &recordingConn{}, &recordingConn{}, &recordingConn{}
		for _, conn := range []*recordingConn{a, b, c} {
			_, err := reg.Register(conn, "")
			require.NoError(t, err)
		}

		// When: broadcasting with b excluded
		bc.BroadcastInfo("hello", b)

		// Then: a and c get it, b does not
		assert.Equal(t, []string{"INFO|hello"}, a.Lines())
		assert.Empty(t, b.Lines())
		assert.Equal(t, []string{"INFO|hello"}, c.Lines())
	})

	t.Run("A failing recipient does not block the others", func(t *testing.T) {
		bc, reg, _ := newFixture(t)
		broken, healthy := &recordingConn{fail: true}, &recordingConn{}
		_, err := reg.Register(broken, "broken")
		require.NoError(t, err)
		_, err = reg.Register(healthy, "healthy")
		require.NoError(t, err)

		bc.BroadcastTimer(30)

		assert.Equal(t, []string{"TIMER_UPDATE|30"}, healthy.Lines())
	})
}

func TestBroadcaster_SendTo(t *testing.T) {
	bc, _, _ := newFixture(t)
	conn := &recordingConn{}

	bc.SendTo(conn, "ERROR|oops")
	bc.SendTo(&recordingConn{fail: true}, "ERROR|swallowed")

	assert.Equal(t, []string{"ERROR|oops"}, conn.Lines())
}

func TestBroadcaster_Snapshots(t *testing.T) {
	// Given: one player who owns (0,1)
	bc, reg, b := newFixture(t)
	conn := &recordingConn{}
	player, err := reg.Register(conn, "Ann")
	require.NoError(t, err)

	c := entity.Coord{Row: 0, Col: 1}
	require.True(t, b.TryLock(c, player.ID))
	require.True(t, b.Claim(c, player.ID))

	// When: every snapshot is broadcast
	bc.BroadcastBoard()
	bc.BroadcastPlayers()
	bc.BroadcastScores()
	bc.BroadcastLock(entity.Coord{Row: 1, Col: 1}, player.ID)
	bc.BroadcastUnlock(entity.Coord{Row: 1, Col: 1})
	bc.BroadcastGameOver("Game Over! Ann wins with 1 squares!")

	// Then: the wire format matches the protocol
	assert.Equal(t, []string{
		"UPDATE_BOARD|[[0, 1], [0, 0]]",
		`UPDATE_PLAYERS|{1: {"name": "Ann", "color": "#FF0000"}}`,
		"UPDATE_SCORES|{1: 1}",
		"SQUARE_LOCKED|1|1|1",
		"SQUARE_UNLOCKED|1|1",
		"GAME_OVER|Game Over! Ann wins with 1 squares!",
	}, conn.Lines())
}
