package nakama

import (
	"context"
	"database/sql"

	"github.com/heroiclabs/nakama-common/runtime"

	"bisca/internal/config"
)

const gameConfigPath = "data/game_config.json"

// InitModule wires RPCs and match handlers for Nakama runtime.
func InitModule(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, initializer runtime.Initializer) error {
	if err := config.LoadGameConfig(gameConfigPath); err != nil {
		logger.Warn("InitModule: Could not load game config, using defaults: %v", err)
	}

	if err := initializer.RegisterRpc(RpcIdFindMatch, RpcFindMatch); err != nil {
		return err
	}

	if err := initializer.RegisterMatch(MatchNameBisca, NewMatch); err != nil {
		return err
	}

	logger.Info("Bisca Go module loaded.")
	return nil
}
