package session

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/rocketscienceinc/denyconquer-backend/internal/apperror"
	"github.com/rocketscienceinc/denyconquer-backend/internal/entity"
	"github.com/rocketscienceinc/denyconquer-backend/internal/protocol"
	"github.com/rocketscienceinc/denyconquer-backend/internal/registry"
)

// Conn is one framed client connection: whole lines in, whole lines out.
type Conn interface {
	// ReadLine blocks until a complete line arrives. The newline is stripped.
	ReadLine() (string, error)
	// Send writes one line; safe for concurrent use.
	Send(line string) error
	// Close must be safe to call more than once.
	Close() error
	RemoteAddr() string
}

type gameManager interface {
	Join(conn registry.Sender, name string) (entity.Player, error)
	Lock(conn registry.Sender, player entity.Player, c entity.Coord) error
	Claim(conn registry.Sender, player entity.Player, c entity.Coord) error
	Release(player entity.Player, c entity.Coord) error
	Leave(conn registry.Sender)
}

type State int32

const (
	StateConnecting State = iota
	StateActive
	StateClosed
)

func (that State) String() string {
	switch that {
	case StateConnecting:
		return "connecting"
	case StateActive:
		return "active"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Options tune a single handler.
type Options struct {
	// CommandsPerSecond limits game commands per connection; 0 disables the limit.
	CommandsPerSecond float64
}

// Handler runs one connection through connecting, active and closed.
type Handler struct {
	logger *slog.Logger
	game   gameManager
	conn   Conn

	limiter  *rate.Limiter
	handlers map[string]func(cmd protocol.Command) error

	state     atomic.Int32
	player    entity.Player
	closeOnce sync.Once
}

func NewHandler(logger *slog.Logger, game gameManager, conn Conn, opts Options) *Handler {
	handler := &Handler{
		logger: logger.With("connID", uuid.NewString(), "remote", conn.RemoteAddr()),
		game:   game,
		conn:   conn,
	}

	if opts.CommandsPerSecond > 0 {
		burst := int(opts.CommandsPerSecond)
		if burst < 1 {
			burst = 1
		}
		handler.limiter = rate.NewLimiter(rate.Limit(opts.CommandsPerSecond), burst)
	}

	handler.handlers = map[string]func(protocol.Command) error{
		protocol.CmdLockRequest:  handler.handleLock,
		protocol.CmdClaimAttempt: handler.handleClaim,
		protocol.CmdReleaseLock:  handler.handleRelease,
	}

	return handler
}

func (that *Handler) State() State {
	return State(that.state.Load())
}

// Serve - blocks until the connection is closed by the peer, by DISCONNECT or by ctx.
func (that *Handler) Serve(ctx context.Context) {
	log := that.logger.With("method", "Serve")

	stop := context.AfterFunc(ctx, func() {
		_ = that.conn.Close()
	})
	defer stop()
	defer that.Close()

	if err := that.handshake(); err != nil {
		log.Info("handshake failed", "error", err)
		return
	}

	log = log.With("playerID", that.player.ID)

	for {
		line, err := that.readLine()
		if err != nil {
			log.Info("connection closed", "error", err)
			return
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		cmd, err := protocol.ParseCommand(line)
		if err != nil {
			log.Debug("malformed command", "line", line, "error", err)
			that.replyError(err)
			continue
		}

		if cmd.Name == protocol.CmdDisconnect {
			log.Info("player requested disconnect")
			return
		}

		if that.limiter != nil && !that.limiter.Allow() {
			that.replyError(apperror.ErrTooManyCommands)
			continue
		}

		handler, ok := that.handlers[cmd.Name]
		if !ok {
			that.replyError(apperror.ErrUnknownCommand)
			continue
		}

		if err = handler(cmd); err != nil {
			log.Debug("command rejected", "command", cmd.Name, "error", err)
			that.replyError(err)
		}
	}
}

func (that *Handler) handshake() error {
	line, err := that.readLine()
	if err != nil {
		return err
	}

	cmd, err := protocol.ParseCommand(line)
	if err != nil || cmd.Name != protocol.CmdConnect {
		that.send(protocol.Error("Invalid connection message."))
		return apperror.ErrInvalidHandshake
	}

	player, err := that.game.Join(that.conn, cmd.Text)
	if err != nil {
		that.replyError(err)
		return err
	}

	that.player = player

	if !that.state.CompareAndSwap(int32(StateConnecting), int32(StateActive)) {
		// closed while joining
		that.game.Leave(that.conn)
		return net.ErrClosed
	}

	return nil
}

// readLine - a line that does not decode ends the session like a dropped connection.
func (that *Handler) readLine() (string, error) {
	line, err := that.conn.ReadLine()
	if err != nil {
		return "", err
	}

	if !utf8.ValidString(line) {
		return "", apperror.ErrInvalidEncoding
	}

	return line, nil
}

func (that *Handler) handleLock(cmd protocol.Command) error {
	return that.game.Lock(that.conn, that.player, cmd.Coord)
}

func (that *Handler) handleClaim(cmd protocol.Command) error {
	return that.game.Claim(that.conn, that.player, cmd.Coord)
}

func (that *Handler) handleRelease(cmd protocol.Command) error {
	return that.game.Release(that.player, cmd.Coord)
}

// Close - releases the player's locks, leaves the registry and closes the
// transport. Only the first call has any effect.
func (that *Handler) Close() {
	that.closeOnce.Do(func() {
		wasActive := State(that.state.Swap(int32(StateClosed))) == StateActive
		if wasActive {
			that.game.Leave(that.conn)
		}

		if err := that.conn.Close(); err != nil {
			that.logger.Debug("failed to close connection", "error", err)
		}
	})
}

func (that *Handler) replyError(err error) {
	that.send(protocol.Error(errorText(err)))
}

func (that *Handler) send(line string) {
	if err := that.conn.Send(line); err != nil {
		that.logger.Debug("failed to send reply", "error", err)
	}
}

func errorText(err error) string {
	switch {
	case errors.Is(err, apperror.ErrServerFull):
		return "Server is full."
	case errors.Is(err, apperror.ErrRoundFinished):
		return "Round has finished."
	case errors.Is(err, apperror.ErrWrongArity):
		return "Wrong number of arguments."
	case errors.Is(err, apperror.ErrBadCoordinate):
		return "Coordinates must be integers."
	case errors.Is(err, apperror.ErrOutOfRange):
		return "Square is outside the grid."
	case errors.Is(err, apperror.ErrTooManyCommands):
		return "Too many commands."
	case errors.Is(err, apperror.ErrUnknownCommand):
		return "Unknown command."
	default:
		return "Invalid command."
	}
}
