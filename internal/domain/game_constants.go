package domain

const (
	// SuitCount is the number of suits in the Italian deck.
	SuitCount = 4
	// RankCount is the number of ranks per suit.
	RankCount = 10
	// DeckSize is the size of a full deck.
	DeckSize = SuitCount * RankCount

	// DefaultStartingCards is the first-round hand size when none is configured.
	DefaultStartingCards = 5
)
