package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"bisca/internal/app"
	"bisca/internal/domain"
)

// GameConfig holds the tunable rules of a match.
type GameConfig struct {
	StartingCards int `json:"starting_cards"`
	// OutboundQueueSize bounds the events buffered per connection before it is dropped.
	OutboundQueueSize int  `json:"outbound_queue_size"`
	AutoResolveTricks bool `json:"auto_resolve_tricks"`
	AutoAdvanceRounds bool `json:"auto_advance_rounds"`
	// BotNames are handed out to bots seated to fill the table.
	BotNames []string `json:"bot_names"`
}

const defaultOutboundQueueSize = 64

// DefaultGameConfig returns the rules used when no file is configured.
func DefaultGameConfig() GameConfig {
	return GameConfig{
		StartingCards:     domain.DefaultStartingCards,
		OutboundQueueSize: defaultOutboundQueueSize,
		AutoResolveTricks: true,
		AutoAdvanceRounds: true,
	}
}

// Options maps the config onto service options.
func (c GameConfig) Options() app.Options {
	return app.Options{
		AutoResolveTricks: c.AutoResolveTricks,
		AutoAdvanceRounds: c.AutoAdvanceRounds,
	}
}

// Validate rejects values the engine cannot run with.
func (c GameConfig) Validate() error {
	if c.StartingCards < 1 || c.StartingCards > domain.DeckSize {
		return fmt.Errorf("starting_cards must be between 1 and %d, got %d", domain.DeckSize, c.StartingCards)
	}
	if c.OutboundQueueSize < 1 {
		return fmt.Errorf("outbound_queue_size must be positive, got %d", c.OutboundQueueSize)
	}
	return nil
}

var (
	cfg      *GameConfig
	loadOnce sync.Once
	loadErr  error
)

// ReadGameConfig reads a JSON file over the defaults. Missing keys keep their defaults.
func ReadGameConfig(path string) (GameConfig, error) {
	c := DefaultGameConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("failed to read game config: %w", err)
	}
	if err := json.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("failed to unmarshal game config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return c, fmt.Errorf("invalid game config: %w", err)
	}
	return c, nil
}

// LoadGameConfig loads the game configuration from the given path.
func LoadGameConfig(path string) error {
	loadOnce.Do(func() {
		c, err := ReadGameConfig(path)
		if err != nil {
			loadErr = err
			return
		}
		cfg = &c
	})
	return loadErr
}

// GetGameConfig returns the global game configuration, or the defaults if none was loaded.
func GetGameConfig() GameConfig {
	if cfg == nil {
		return DefaultGameConfig()
	}
	return *cfg
}
