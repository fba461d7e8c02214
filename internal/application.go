package application

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/rocketscienceinc/denyconquer-backend/internal/board"
	"github.com/rocketscienceinc/denyconquer-backend/internal/broadcast"
	"github.com/rocketscienceinc/denyconquer-backend/internal/config"
	"github.com/rocketscienceinc/denyconquer-backend/internal/registry"
	"github.com/rocketscienceinc/denyconquer-backend/internal/repository"
	"github.com/rocketscienceinc/denyconquer-backend/internal/repository/storage"
	"github.com/rocketscienceinc/denyconquer-backend/internal/round"
	"github.com/rocketscienceinc/denyconquer-backend/internal/usecase"
	"github.com/rocketscienceinc/denyconquer-backend/transport/rest"
	"github.com/rocketscienceinc/denyconquer-backend/transport/tcp"
	"github.com/rocketscienceinc/denyconquer-backend/transport/websocket"
)

// RunApp - runs the application until a signal arrives, the post-game grace
// period expires or a server fails.
func RunApp(ctx context.Context, logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)
	go func() {
		select {
		case sig := <-sigs:
			log.Info("Received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	var results repository.ResultRepository
	if conf.ArchiveEnabled() {
		redisStorage, err := storage.NewRedisStorage(ctx, conf.Redis.GetRedisAddr())
		if err != nil {
			return fmt.Errorf("could not connect to redis storage: %w", err)
		}

		defer func() {
			if err = redisStorage.Close(); err != nil {
				log.Error("could not close redis storage", "error", err)
			}
		}()

		results = repository.NewResultRepository(redisStorage.Connection)
		log.Info("Archiving round results", "redis", conf.Redis.GetRedisAddr())
	}

	gameBoard := board.New(conf.Game.GridSize)
	players := registry.New(conf.Game.MaxPlayers, conf.Game.Colors)
	broadcaster := broadcast.New(logger, players, gameBoard)

	roundOpts := round.Options{
		Duration:      conf.Game.RoundDuration,
		TimerInterval: conf.Game.TimerInterval,
		ShutdownGrace: conf.Game.ShutdownGrace,
		Shutdown:      cancel,
	}
	if results != nil {
		roundOpts.Archive = results
	}
	roundController := round.New(logger, gameBoard, players, broadcaster, roundOpts)

	gameManager := usecase.NewGameManager(logger, gameBoard, players, broadcaster, roundController)

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return roundController.Run(groupCtx)
	})

	group.Go(func() error {
		log.Info("Starting TCP server", "addr", conf.TCPAddr, "gridSize", conf.Game.GridSize, "maxPlayers", conf.Game.MaxPlayers)
		server := tcp.New(logger, gameManager, tcp.Options{
			WriteTimeout:      conf.Game.WriteTimeout,
			CommandsPerSecond: conf.Game.CommandsPerSecond,
		})
		if err := server.Start(groupCtx, conf.TCPAddr); err != nil {
			return fmt.Errorf("TCP server error: %w", err)
		}
		return nil
	})

	if conf.WSAddr != "" {
		group.Go(func() error {
			log.Info("Starting WebSocket server", "addr", conf.WSAddr)
			server := websocket.New(logger, gameManager, websocket.Options{
				WriteTimeout:      conf.Game.WriteTimeout,
				CommandsPerSecond: conf.Game.CommandsPerSecond,
			})
			if err := server.Start(groupCtx, conf.WSAddr); err != nil {
				return fmt.Errorf("WebSocket server error: %w", err)
			}
			return nil
		})
	}

	if conf.HTTPAddr != "" {
		group.Go(func() error {
			log.Info("Starting HTTP server", "addr", conf.HTTPAddr)
			status := usecase.NewStatusService(gameBoard, players, roundController, results)
			if err := rest.Start(groupCtx, logger, conf.HTTPAddr, rest.NewHandlers(logger, status)); err != nil {
				return fmt.Errorf("HTTP server error: %w", err)
			}
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return err
	}

	log.Info("Application context canceled, shutting down")

	return nil
}
