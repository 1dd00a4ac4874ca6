package app

import "bisca/internal/domain"

// Action is a decoded inbound request. The set of actions is closed; Handle
// switches over every variant.
type Action interface {
	actionName() string
}

// StartMatch deals the first round.
type StartMatch struct{}

// PlayCard plays one card from the actor's hand into the current trick.
type PlayCard struct {
	Card domain.Card
}

// MakePrediction declares how many tricks the actor expects to win.
type MakePrediction struct {
	Value int
}

// EndTrick forces resolution of a full trick.
type EndTrick struct{}

// NextRound advances once the current round is over.
type NextRound struct{}

func (StartMatch) actionName() string     { return "start_match" }
func (PlayCard) actionName() string       { return "play_card" }
func (MakePrediction) actionName() string { return "make_prediction" }
func (EndTrick) actionName() string       { return "end_trick" }
func (NextRound) actionName() string      { return "next_round" }

// ActionName returns the wire name of a.
func ActionName(a Action) string {
	if a == nil {
		return ""
	}
	return a.actionName()
}
