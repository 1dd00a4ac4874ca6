package domain

// Beats reports whether card a beats card b in a trick led with leading.
//
// Suit strength decides first; within a suit the higher rank wins. The leading
// suit only breaks a tie between different suits of equal strength, which the
// fixed total order over four suits never produces.
func Beats(a, b Card, leading Suit) bool {
	sa, sb := a.Suit.Strength(), b.Suit.Strength()
	if sa != sb {
		return sa > sb
	}
	if a.Suit == b.Suit {
		return a.Rank > b.Rank
	}
	return a.Suit == leading && b.Suit != leading
}

// TrickWinner returns the index of the winning card, or -1 for an empty trick.
// The comparison is strict, so the earliest maximal card wins.
func TrickWinner(trick []PlayedCard, leading Suit) int {
	if len(trick) == 0 {
		return -1
	}
	best := 0
	for i := 1; i < len(trick); i++ {
		if Beats(trick[i].Card, trick[best].Card, leading) {
			best = i
		}
	}
	return best
}
