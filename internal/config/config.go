package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/rocketscienceinc/denyconquer-backend/internal/entity"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	LogLevel string `yaml:"log-level" env:"DC_LOG_LEVEL" env-default:"info"`
	LogFile  string `yaml:"log-file" env:"DC_LOG_FILE"`

	TCPAddr  string `yaml:"tcp-addr" env:"DC_TCP_ADDR" env-default:":65433"`
	WSAddr   string `yaml:"ws-addr" env:"DC_WS_ADDR"`
	HTTPAddr string `yaml:"http-addr" env:"DC_HTTP_ADDR"`

	Game  Game  `yaml:"game"`
	Redis Redis `yaml:"redis"`
}

type Game struct {
	GridSize          int           `yaml:"grid-size" env:"DC_GRID_SIZE" env-default:"8"`
	MaxPlayers        int           `yaml:"max-players" env:"DC_MAX_PLAYERS" env-default:"4"`
	RoundDuration     time.Duration `yaml:"round-duration" env:"DC_ROUND_DURATION" env-default:"120s"`
	ShutdownGrace     time.Duration `yaml:"shutdown-grace" env:"DC_SHUTDOWN_GRACE" env-default:"10s"`
	TimerInterval     time.Duration `yaml:"timer-interval" env:"DC_TIMER_INTERVAL" env-default:"1s"`
	WriteTimeout      time.Duration `yaml:"write-timeout" env:"DC_WRITE_TIMEOUT" env-default:"5s"`
	CommandsPerSecond float64       `yaml:"commands-per-second" env:"DC_COMMANDS_PER_SECOND" env-default:"0"`
	Colors            []string      `yaml:"colors" env:"DC_COLORS"`
}

// Redis - an empty host disables result archiving.
type Redis struct {
	Host string `yaml:"host" env:"DC_REDIS_HOST"`
	Port string `yaml:"port" env:"DC_REDIS_PORT" env-default:"6379"`
}

// Load - reads path when it exists, then applies DC_* environment overrides.
func Load(path string) (*Config, error) {
	config := &Config{}

	var err error
	if _, statErr := os.Stat(path); statErr == nil {
		err = cleanenv.ReadConfig(path, config)
	} else {
		err = cleanenv.ReadEnv(config)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to load config: %w", err)
	}

	if len(config.Game.Colors) == 0 {
		config.Game.Colors = append([]string(nil), entity.DefaultPalette...)
	}

	if err = config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(err)
	}

	return config
}

func (that *Config) Validate() error {
	switch {
	case that.TCPAddr == "":
		return fmt.Errorf("%w: tcp-addr is required", ErrInvalidConfig)
	case that.Game.GridSize < 1:
		return fmt.Errorf("%w: grid-size must be positive, got %d", ErrInvalidConfig, that.Game.GridSize)
	case that.Game.MaxPlayers < 1:
		return fmt.Errorf("%w: max-players must be positive, got %d", ErrInvalidConfig, that.Game.MaxPlayers)
	case that.Game.RoundDuration <= 0:
		return fmt.Errorf("%w: round-duration must be positive", ErrInvalidConfig)
	case that.Game.ShutdownGrace < 0:
		return fmt.Errorf("%w: shutdown-grace must not be negative", ErrInvalidConfig)
	case that.Game.CommandsPerSecond < 0:
		return fmt.Errorf("%w: commands-per-second must not be negative", ErrInvalidConfig)
	case len(that.Game.Colors) == 0:
		return fmt.Errorf("%w: colors must not be empty", ErrInvalidConfig)
	}

	return nil
}

// ArchiveEnabled - whether finished rounds are written to redis.
func (that *Config) ArchiveEnabled() bool {
	return that.Redis.Host != ""
}

func (that *Redis) GetRedisAddr() string {
	return net.JoinHostPort(that.Host, that.Port)
}
