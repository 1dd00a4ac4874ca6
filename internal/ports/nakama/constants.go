package nakama

import "bisca/internal/app"

const (
	// RpcIdFindMatch is the Nakama RPC id clients call to find or create an open match.
	RpcIdFindMatch = "find_match"

	// MatchNameBisca is the authoritative match handler name registered with Nakama.
	MatchNameBisca = "bisca_match"

	// MatchLabelGame tags our matches in the shared match listing.
	MatchLabelGame = "bisca"
)

// Op codes for client messages and server events.
const (
	// Client -> Server
	OpStartMatch     int64 = 1
	OpPlayCard       int64 = 2
	OpMakePrediction int64 = 3
	OpEndTrick       int64 = 4
	OpNextRound      int64 = 5

	// Server -> Client events
	OpWelcome        int64 = 101 // send privately
	OpPlayerJoined   int64 = 102
	OpPlayerLeft     int64 = 103
	OpGameStarted    int64 = 104
	OpRoundStarted   int64 = 105
	OpCardPlayed     int64 = 106
	OpHandUpdated    int64 = 107 // send privately
	OpPredictionMade int64 = 108
	OpTurnEnded      int64 = 109
	OpRoundEnded     int64 = 110
	OpGameOver       int64 = 111
	OpError          int64 = 112 // send privately
)

var actionNames = map[int64]string{
	OpStartMatch:     "start_match",
	OpPlayCard:       "play_card",
	OpMakePrediction: "make_prediction",
	OpEndTrick:       "end_trick",
	OpNextRound:      "next_round",
}

var eventOpCodes = map[app.EventKind]int64{
	app.EventWelcome:        OpWelcome,
	app.EventPlayerJoined:   OpPlayerJoined,
	app.EventPlayerLeft:     OpPlayerLeft,
	app.EventGameStarted:    OpGameStarted,
	app.EventRoundStarted:   OpRoundStarted,
	app.EventCardPlayed:     OpCardPlayed,
	app.EventHandUpdated:    OpHandUpdated,
	app.EventPredictionMade: OpPredictionMade,
	app.EventTurnEnded:      OpTurnEnded,
	app.EventRoundEnded:     OpRoundEnded,
	app.EventGameOver:       OpGameOver,
	app.EventError:          OpError,
}
