package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	app "github.com/rocketscienceinc/denyconquer-backend/internal"
	"github.com/rocketscienceinc/denyconquer-backend/internal/config"
	"github.com/rocketscienceinc/denyconquer-backend/internal/logger"
)

// main - is the entry point of the application. It initializes the configuration, logger, and runs the application.
func main() {
	defer func() {
		if err := recover(); err != nil {
			fmt.Fprintf(os.Stderr, "recovered from panic: %v\n", err)
			os.Exit(1)
		}
	}()

	conf := initConfig()
	log, closer := initLogger(conf)
	defer closer.Close()

	if err := app.RunApp(context.Background(), log, conf); err != nil {
		panic(fmt.Errorf("app run failed: %w", err))
	}
}

// initialize config.
func initConfig() *config.Config {
	path := os.Getenv("DC_CONFIG")
	if path == "" {
		baseDir, err := os.Getwd()
		if err != nil {
			panic(fmt.Errorf("failed to get current directory: %w", err))
		}
		path = filepath.Join(baseDir, "config.yml")
	}

	return config.MustLoad(path)
}

// initialize logger.
func initLogger(conf *config.Config) (*slog.Logger, io.Closer) {
	log, closer, err := logger.New(conf.LogLevel, conf.LogFile)
	if err != nil {
		panic(fmt.Errorf("failed to init logger: %w", err))
	}

	return log, closer
}
