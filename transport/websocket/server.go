package websocket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/denyconquer-backend/internal/entity"
	"github.com/rocketscienceinc/denyconquer-backend/internal/registry"
	"github.com/rocketscienceinc/denyconquer-backend/internal/session"
)

const shutdownTimeout = 5 * time.Second

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

// Server upgrades HTTP requests on /ws and runs the same session handler the
// TCP server uses.
type Server struct {
	logger   *slog.Logger
	game     gameManager
	opts     Options
	upgrader websocket.Upgrader

	// sessionsMu orders sessions.Add against the final sessions.Wait.
	sessionsMu sync.Mutex
	draining   bool
	sessions   sync.WaitGroup
}

func New(logger *slog.Logger, game gameManager, opts Options) *Server {
	return &Server{
		logger: logger.With("component", "websocket_server"),
		game:   game,
		opts:   opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(*http.Request) bool {
				return true
			},
		},
	}
}

// Handler - serves /ws; sessions live until their peer leaves or ctx is done.
func (that *Server) Handler(ctx context.Context) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		that.upgrade(ctx, w, r)
	})

	return mux
}

// Start - starts WebSocket server.
func (that *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           that.Handler(ctx),
		ReadHeaderTimeout: 10 * time.Second,
	}

	stop := context.AfterFunc(ctx, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		_ = srv.Shutdown(shutdownCtx)
	})
	defer stop()

	that.logger.Info("accepting websocket connections", "addr", addr)

	err := srv.ListenAndServe()

	that.drain()

	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// track - registers a hijacked session unless the server is already draining.
func (that *Server) track() bool {
	that.sessionsMu.Lock()
	defer that.sessionsMu.Unlock()

	if that.draining {
		return false
	}

	that.sessions.Add(1)

	return true
}

// drain - refuses new sessions and waits for the running ones.
func (that *Server) drain() {
	that.sessionsMu.Lock()
	that.draining = true
	that.sessionsMu.Unlock()

	that.sessions.Wait()
}

// upgrade - upgrades the connection to WebSocket.
func (that *Server) upgrade(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "upgrade")

	ws, err := that.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("failed to upgrade connection", "error", err)
		return
	}

	if !that.track() {
		log.Info("server is shutting down, dropping new connection")
		_ = ws.Close()
		return
	}
	defer that.sessions.Done()

	handler := session.NewHandler(
		that.logger,
		that.game,
		NewConn(ws, that.opts.WriteTimeout),
		session.Options{CommandsPerSecond: that.opts.CommandsPerSecond},
	)

	handler.Serve(ctx)
}
