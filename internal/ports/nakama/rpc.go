package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/heroiclabs/nakama-common/runtime"
)

// FindMatchResponse is the payload returned to clients looking for a table.
type FindMatchResponse struct {
	MatchID string `json:"match_id"`
	IsNew   bool   `json:"is_new"`
}

// FindMatchRequest optionally picks the rules of a newly created match.
type FindMatchRequest struct {
	StartingCards int `json:"starting_cards,omitempty"`
}

// findMatchQuery selects our matches that still accept joins.
var findMatchQuery = fmt.Sprintf("+label.open:T +label.game:%s", MatchLabelGame)

// RpcFindMatch searches for an available match with open seats.
// If an available match is found, it returns its ID.
// If no match is found, it creates a new match and returns its ID.
func RpcFindMatch(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)

	var req FindMatchRequest
	if payload != "" {
		if err := json.Unmarshal([]byte(payload), &req); err != nil {
			return "", runtime.NewError("invalid find_match payload", 3) // INVALID_ARGUMENT
		}
	}

	limit := 10
	authoritative := true
	matches, err := nk.MatchList(ctx, limit, authoritative, "", nil, nil, findMatchQuery)
	if err != nil {
		logger.Error("RpcFindMatch [User:%s]: Failed to list matches: %v", userID, err)
		return "", err
	}

	resp := FindMatchResponse{}
	if len(matches) > 0 {
		resp.MatchID = matches[0].MatchId
		logger.Info("RpcFindMatch [User:%s]: Found existing match %s", userID, resp.MatchID)
	} else {
		params := map[string]interface{}{}
		if req.StartingCards > 0 {
			params[paramStartingCards] = req.StartingCards
		}
		resp.MatchID, err = nk.MatchCreate(ctx, MatchNameBisca, params)
		if err != nil {
			logger.Error("RpcFindMatch [User:%s]: Failed to create match: %v", userID, err)
			return "", err
		}
		resp.IsNew = true
		logger.Info("RpcFindMatch [User:%s]: Created new match %s", userID, resp.MatchID)
	}

	b, err := json.Marshal(resp)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
