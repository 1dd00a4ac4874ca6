package bot

import (
	"bisca/internal/bot/brain"
	"bisca/internal/domain"
)

// View is what a strategy may see when deciding: the agent's own hand and
// public table state.
type View struct {
	Hand        []domain.Card
	Trick       []domain.PlayedCard
	LeadingSuit *domain.Suit
	Players     int

	// Declared counts the other players who already predicted; DeclaredSum
	// is the total of their predictions.
	Declared    int
	DeclaredSum int

	// Prediction is the agent's own forecast, or -1 before it declares.
	Prediction int
	TricksWon  int

	Memory *brain.GameMemory
}

// LastToDeclare reports whether the agent's prediction completes the round.
func (v View) LastToDeclare() bool {
	return v.Declared == v.Players-1
}

// Need is the number of tricks still required to hit the prediction.
func (v View) Need() int {
	return v.Prediction - v.TricksWon
}

// Brain is the interface that all bot strategies must implement.
type Brain interface {
	// Predict returns a forecast between 0 and len(v.Hand).
	Predict(v View) int
	// ChooseCard returns a card from v.Hand.
	ChooseCard(v View) domain.Card
}
