package domain

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand"
	"sort"
	"time"
)

// BuildDeck returns the 40-card deck in a fixed order: suits as listed in
// Suits, ranks ascending within each suit.
func BuildDeck() []Card {
	deck := make([]Card, 0, DeckSize)
	for _, s := range Suits {
		for r := Due; r <= Asso; r++ {
			deck = append(deck, Card{Suit: s, Rank: r})
		}
	}
	return deck
}

// ShuffleDeck returns a full deck shuffled with a freshly seeded source.
func ShuffleDeck() []Card {
	return ShuffleDeckWith(rand.New(rand.NewSource(newSeed())))
}

// ShuffleDeckWith returns a full deck shuffled with rng.
func ShuffleDeckWith(rng *rand.Rand) []Card {
	deck := BuildDeck()
	rng.Shuffle(len(deck), func(i, j int) { deck[i], deck[j] = deck[j], deck[i] })
	return deck
}

// newSeed reads a seed from crypto/rand, falling back to the clock.
func newSeed() int64 {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return time.Now().UnixNano()
	}
	return int64(binary.LittleEndian.Uint64(b[:]))
}

// HandSize is the per-player hand size of the given round.
func HandSize(roundNumber, startingCards int) int {
	return startingCards - (roundNumber - 1)
}

// DealRound deals one card at a time to each player in seating order until
// every hand holds the round's hand size. Dealt cards are removed from deck.
// A deck that cannot cover every hand is an error; nothing is consumed then.
func DealRound(deck *[]Card, numPlayers, roundNumber, startingCards int) ([][]Card, error) {
	handSize := HandSize(roundNumber, startingCards)
	if numPlayers < 1 || handSize < 1 {
		return nil, invariant("DealRound", "cannot deal %d cards to %d players", handSize, numPlayers)
	}
	if need := handSize * numPlayers; len(*deck) < need {
		return nil, ErrDeckExhausted.Detail("deck has %d cards, round %d needs %d", len(*deck), roundNumber, need)
	}

	hands := make([][]Card, numPlayers)
	for i := range hands {
		hands[i] = make([]Card, 0, handSize)
	}
	d := *deck
	for n := 0; n < handSize; n++ {
		for p := 0; p < numPlayers; p++ {
			hands[p] = append(hands[p], d[0])
			d = d[1:]
		}
	}
	*deck = d
	return hands, nil
}

// SortHand orders a hand by suit strength, then rank.
func SortHand(cards []Card) {
	sort.Slice(cards, func(i, j int) bool {
		return cardPower(cards[i]) < cardPower(cards[j])
	})
}

func cardPower(c Card) int {
	return c.Suit.Strength()*RankCount + int(c.Rank)
}
