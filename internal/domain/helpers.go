package domain

// indexOfCard returns the position of target in cards.
func indexOfCard(cards []Card, target Card) (int, bool) {
	for i, c := range cards {
		if c == target {
			return i, true
		}
	}
	return -1, false
}

// RemoveCard removes one occurrence of card from hand and returns the updated hand.
func RemoveCard(hand []Card, card Card) ([]Card, bool) {
	idx, ok := indexOfCard(hand, card)
	if !ok {
		return hand, false
	}
	updated := make([]Card, 0, len(hand)-1)
	updated = append(updated, hand[:idx]...)
	updated = append(updated, hand[idx+1:]...)
	return updated, true
}

func copyCards(cards []Card) []Card {
	if cards == nil {
		return []Card{}
	}
	return append([]Card(nil), cards...)
}

func copyTrick(trick []PlayedCard) []PlayedCard {
	return append([]PlayedCard{}, trick...)
}
