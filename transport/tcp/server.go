package tcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/rocketscienceinc/denyconquer-backend/internal/entity"
	"github.com/rocketscienceinc/denyconquer-backend/internal/registry"
	"github.com/rocketscienceinc/denyconquer-backend/internal/session"
)

const acceptBackoff = 50 * time.Millisecond

type gameManager interface {
	Join(conn registry.Sender, name string) (entity.Player, error)
	Lock(conn registry.Sender, player entity.Player, c entity.Coord) error
	Claim(conn registry.Sender, player entity.Player, c entity.Coord) error
	Release(player entity.Player, c entity.Coord) error
	Leave(conn registry.Sender)
}

type Options struct {
	WriteTimeout      time.Duration
	CommandsPerSecond float64
}

// Server accepts raw TCP clients and runs a session handler per connection.
type Server struct {
	logger *slog.Logger
	game   gameManager
	opts   Options

	sessions sync.WaitGroup
}

func New(logger *slog.Logger, game gameManager, opts Options) *Server {
	return &Server{
		logger: logger.With("component", "tcp_server"),
		game:   game,
		opts:   opts,
	}
}

// Start - binds addr and serves until ctx is done.
func (that *Server) Start(ctx context.Context, addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	return that.Serve(ctx, listener)
}

// Serve - accepts connections from listener until ctx is done, then waits
// for every session to finish.
func (that *Server) Serve(ctx context.Context, listener net.Listener) error {
	log := that.logger.With("method", "Serve", "addr", listener.Addr().String())
	log.Info("accepting connections")

	stop := context.AfterFunc(ctx, func() {
		_ = listener.Close()
	})
	defer stop()
	defer that.sessions.Wait()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				log.Info("listener closed")
				return nil
			}

			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				log.Warn("temporary accept error", "error", err)
				time.Sleep(acceptBackoff)
				continue
			}

			return fmt.Errorf("failed to accept connection: %w", err)
		}

		that.sessions.Add(1)
		go func() {
			defer that.sessions.Done()
			that.serveConn(ctx, conn)
		}()
	}
}

func (that *Server) serveConn(ctx context.Context, conn net.Conn) {
	handler := session.NewHandler(
		that.logger,
		that.game,
		NewLineConn(conn, that.opts.WriteTimeout),
		session.Options{CommandsPerSecond: that.opts.CommandsPerSecond},
	)

	handler.Serve(ctx)
}
