package usecase

import (
	"fmt"
	"log/slog"

	"github.com/rocketscienceinc/denyconquer-backend/internal/apperror"
	"github.com/rocketscienceinc/denyconquer-backend/internal/entity"
	"github.com/rocketscienceinc/denyconquer-backend/internal/protocol"
	"github.com/rocketscienceinc/denyconquer-backend/internal/registry"
)

type gameBoard interface {
	Size() int
	Contains(c entity.Coord) bool
	TryLock(c entity.Coord, playerID int) bool
	Claim(c entity.Coord, playerID int) bool
	ReleaseLock(c entity.Coord, playerID int) bool
	ReleaseAllLocks(playerID int) []entity.Coord
	SnapshotLocks() map[entity.Coord]int
}

type playerRegistry interface {
	Reserve(conn registry.Sender, requestedName string) (entity.Player, error)
	Activate(conn registry.Sender)
	Lookup(conn registry.Sender) (entity.Player, bool)
	Unregister(conn registry.Sender) (entity.Player, bool)
}

type broadcaster interface {
	SendTo(conn registry.Sender, line string)
	BroadcastBoard()
	BroadcastPlayers()
	BroadcastScores()
	BroadcastLock(c entity.Coord, playerID int)
	BroadcastUnlock(c entity.Coord)
	BroadcastInfo(text string, exclude registry.Sender)
}

type roundController interface {
	Status() entity.RoundStatus
	OnLockGranted()
	CheckEnd() bool
}

// GameManager applies player commands to the board and registry and fans the
// results out. Every transport drives the game through it.
type GameManager struct {
	logger *slog.Logger

	board       gameBoard
	players     playerRegistry
	broadcaster broadcaster
	round       roundController
}

func NewGameManager(logger *slog.Logger, board gameBoard, players playerRegistry, broadcaster broadcaster, round roundController) *GameManager {
	return &GameManager{
		logger: logger.With("component", "game_manager"),

		board:       board,
		players:     players,
		broadcaster: broadcaster,
		round:       round,
	}
}

// Join - registers the connection and brings every player up to date. The
// connection only joins broadcasts after WELCOME, so identity always comes first.
func (that *GameManager) Join(conn registry.Sender, name string) (entity.Player, error) {
	if that.round.Status().IsEnded() {
		return entity.Player{}, apperror.ErrRoundFinished
	}

	player, err := that.players.Reserve(conn, name)
	if err != nil {
		return entity.Player{}, fmt.Errorf("failed to register player: %w", err)
	}

	that.logger.Info("player joined", "playerID", player.ID, "name", player.Name)

	that.broadcaster.SendTo(conn, protocol.Welcome(player, that.board.Size()))
	that.players.Activate(conn)

	that.broadcaster.BroadcastPlayers()
	that.broadcaster.BroadcastBoard()
	that.broadcaster.BroadcastScores()

	for c, holder := range that.board.SnapshotLocks() {
		that.broadcaster.SendTo(conn, protocol.SquareLocked(c, holder))
	}

	that.broadcaster.BroadcastInfo(player.Name+" joined the game.", conn)

	return player, nil
}

// Lock - answers a lock request privately and announces a granted lock to everyone.
func (that *GameManager) Lock(conn registry.Sender, player entity.Player, c entity.Coord) error {
	if !that.board.Contains(c) {
		return fmt.Errorf("%w: %s", apperror.ErrOutOfRange, c)
	}

	if that.round.Status().IsEnded() || !that.board.TryLock(c, player.ID) {
		that.broadcaster.SendTo(conn, protocol.LockDenied(c))
		return nil
	}

	that.round.OnLockGranted()

	that.broadcaster.SendTo(conn, protocol.LockGranted(c))
	that.broadcaster.BroadcastLock(c, player.ID)

	return nil
}

// Claim - turns the player's lock into ownership and checks for the end of the round.
func (that *GameManager) Claim(conn registry.Sender, player entity.Player, c entity.Coord) error {
	if !that.board.Contains(c) {
		return fmt.Errorf("%w: %s", apperror.ErrOutOfRange, c)
	}

	if !that.board.Claim(c, player.ID) {
		that.broadcaster.SendTo(conn, protocol.Info(fmt.Sprintf("Claim denied for square %s.", c)))
		return nil
	}

	that.logger.Debug("square claimed", "playerID", player.ID, "square", c.String())

	that.broadcaster.BroadcastUnlock(c)
	that.broadcaster.BroadcastBoard()
	that.broadcaster.BroadcastScores()

	that.round.CheckEnd()

	return nil
}

// Release - gives up the player's lock. Releasing a lock the player does not hold is ignored.
func (that *GameManager) Release(player entity.Player, c entity.Coord) error {
	if !that.board.Contains(c) {
		return fmt.Errorf("%w: %s", apperror.ErrOutOfRange, c)
	}

	if that.board.ReleaseLock(c, player.ID) {
		that.broadcaster.BroadcastUnlock(c)
	}

	return nil
}

// Leave - releases the player's locks, then drops it from the registry. Safe to call repeatedly.
func (that *GameManager) Leave(conn registry.Sender) {
	player, ok := that.players.Lookup(conn)
	if !ok {
		return
	}

	for _, c := range that.board.ReleaseAllLocks(player.ID) {
		that.broadcaster.BroadcastUnlock(c)
	}

	if _, ok = that.players.Unregister(conn); !ok {
		return
	}

	that.logger.Info("player left", "playerID", player.ID, "name", player.Name)

	that.broadcaster.BroadcastInfo(player.Name+" left the game.", nil)
	that.broadcaster.BroadcastPlayers()
	that.broadcaster.BroadcastScores()
}
