package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// ServerConfig is the process configuration of the standalone server.
type ServerConfig struct {
	Addr            string        `env:"BISCA_ADDR"             envDefault:":8080"`
	GameConfigPath  string        `env:"BISCA_GAME_CONFIG"`
	JWTSecret       string        `env:"BISCA_JWT_SECRET"`
	Bots            int           `env:"BISCA_BOTS"             envDefault:"0"`
	BotLevel        string        `env:"BISCA_BOT_LEVEL"        envDefault:"good"`
	LogLevel        string        `env:"BISCA_LOG_LEVEL"        envDefault:"info"`
	ShutdownTimeout time.Duration `env:"BISCA_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// LoadServerConfig parses ServerConfig from the environment.
func LoadServerConfig() (ServerConfig, error) {
	var c ServerConfig
	if err := ParseEnv(&c); err != nil {
		return c, err
	}
	if c.Bots < 0 {
		return c, fmt.Errorf("BISCA_BOTS must not be negative, got %d", c.Bots)
	}
	return c, nil
}
