package broadcast

import (
	"log/slog"

	"github.com/rocketscienceinc/denyconquer-backend/internal/entity"
	"github.com/rocketscienceinc/denyconquer-backend/internal/protocol"
	"github.com/rocketscienceinc/denyconquer-backend/internal/registry"
)

type recipients interface {
	Recipients() []registry.Recipient
	List() []entity.Player
}

type snapshots interface {
	SnapshotOwnership() [][]int
	ScoreTally() map[int]int
}

// Broadcaster fans messages out to every registered connection. Sends are
// best-effort: a failing recipient is logged and skipped, its own handler
// notices the broken transport on the read side.
type Broadcaster struct {
	logger  *slog.Logger
	players recipients
	board   snapshots
}

func New(logger *slog.Logger, players recipients, board snapshots) *Broadcaster {
	return &Broadcaster{
		logger:  logger.With("component", "broadcaster"),
		players: players,
		board:   board,
	}
}

// SendTo - delivers one message to one connection.
func (that *Broadcaster) SendTo(conn registry.Sender, line string) {
	if err := conn.Send(line); err != nil {
		that.logger.Warn("failed to send message", "error", err)
	}
}

// BroadcastAll - delivers the message to every registered connection except exclude.
func (that *Broadcaster) BroadcastAll(line string, exclude registry.Sender) {
	for _, recipient := range that.players.Recipients() {
		if exclude != nil && recipient.Conn == exclude {
			continue
		}

		if err := recipient.Conn.Send(line); err != nil {
			that.logger.Warn("failed to broadcast message", "playerID", recipient.Player.ID, "error", err)
		}
	}
}

func (that *Broadcaster) BroadcastBoard() {
	that.BroadcastAll(protocol.UpdateBoard(that.board.SnapshotOwnership()), nil)
}

func (that *Broadcaster) BroadcastPlayers() {
	that.BroadcastAll(protocol.UpdatePlayers(that.players.List()), nil)
}

func (that *Broadcaster) BroadcastScores() {
	that.BroadcastAll(protocol.UpdateScores(that.board.ScoreTally()), nil)
}

func (that *Broadcaster) BroadcastLock(c entity.Coord, playerID int) {
	that.BroadcastAll(protocol.SquareLocked(c, playerID), nil)
}

func (that *Broadcaster) BroadcastUnlock(c entity.Coord) {
	that.BroadcastAll(protocol.SquareUnlocked(c), nil)
}

func (that *Broadcaster) BroadcastTimer(secondsRemaining int) {
	that.BroadcastAll(protocol.TimerUpdate(secondsRemaining), nil)
}

func (that *Broadcaster) BroadcastGameOver(text string) {
	that.BroadcastAll(protocol.GameOver(text), nil)
}

func (that *Broadcaster) BroadcastInfo(text string, exclude registry.Sender) {
	that.BroadcastAll(protocol.Info(text), exclude)
}
