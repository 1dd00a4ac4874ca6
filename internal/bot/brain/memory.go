package brain

import (
	"bisca/internal/domain"
)

// CardStatus represents what the bot knows about a specific card.
type CardStatus int

const (
	StatusUnknown CardStatus = iota // Undealt or in an opponent's hand
	StatusMine                      // In the bot's hand
	StatusPlayed                    // Already played this round
)

// GameMemory stores the bot's private view of the round.
type GameMemory struct {
	// DeckStatus tracks all 40 cards, indexed from weakest to strongest.
	DeckStatus [domain.DeckSize]CardStatus
}

// NewMemory initializes a fresh memory state.
func NewMemory() *GameMemory {
	return &GameMemory{}
}

// Reset clears the memory for a new round.
func (m *GameMemory) Reset() {
	for i := range m.DeckStatus {
		m.DeckStatus[i] = StatusUnknown
	}
}

// MarkPlayed records cards that reached the table.
func (m *GameMemory) MarkPlayed(cards ...domain.Card) {
	for _, c := range cards {
		m.DeckStatus[cardToIndex(c)] = StatusPlayed
	}
}

// UpdateHand marks hand as Mine. Cards that left the hand without being seen
// on the table go back to Unknown.
func (m *GameMemory) UpdateHand(hand []domain.Card) {
	for i, status := range m.DeckStatus {
		if status == StatusMine {
			m.DeckStatus[i] = StatusUnknown
		}
	}
	for _, c := range hand {
		m.DeckStatus[cardToIndex(c)] = StatusMine
	}
}

// IsBoss returns true if no stronger card can still show up from another player.
func (m *GameMemory) IsBoss(c domain.Card) bool {
	for i := cardToIndex(c) + 1; i < domain.DeckSize; i++ {
		if m.DeckStatus[i] == StatusUnknown {
			return false
		}
	}
	return true
}

// Unknown returns how many cards are still unaccounted for and how many of
// those outrank c.
func (m *GameMemory) Unknown(c domain.Card) (unknown, higher int) {
	idx := cardToIndex(c)
	for i, status := range m.DeckStatus {
		if status != StatusUnknown {
			continue
		}
		unknown++
		if i > idx {
			higher++
		}
	}
	return unknown, higher
}

// IsPlayed returns true if the card is already out of the round.
func (m *GameMemory) IsPlayed(c domain.Card) bool {
	return m.DeckStatus[cardToIndex(c)] == StatusPlayed
}

// cardToIndex orders cards by suit strength, then rank, matching domain.Beats.
func cardToIndex(c domain.Card) int {
	return (c.Suit.Strength()-1)*domain.RankCount + int(c.Rank)
}
