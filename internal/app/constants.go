package app

import "bisca/internal/domain"

// Options tunes how much of the match flow the server drives on its own.
type Options struct {
	// AutoResolveTricks resolves a trick as soon as every seated player has played.
	AutoResolveTricks bool
	// AutoAdvanceRounds deals the next round right after a round is scored.
	// The final round always ends the match.
	AutoAdvanceRounds bool
}

// DefaultOptions lets the server drive tricks and rounds without client prompts.
func DefaultOptions() Options {
	return Options{AutoResolveTricks: true, AutoAdvanceRounds: true}
}

// ErrMalformedAction is reported for inbound messages that cannot be decoded.
var ErrMalformedAction = &domain.Error{Code: "malformed_action", Message: "malformed action"}
