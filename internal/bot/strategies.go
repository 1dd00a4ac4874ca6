package bot

import (
	"math"

	"bisca/internal/domain"
)

// EasyBot always bids zero and dumps cards that lose the trick when it can.
type EasyBot struct{}

func (b *EasyBot) Predict(v View) int {
	return 0
}

func (b *EasyBot) ChooseCard(v View) domain.Card {
	if best, ok := currentBest(v); ok {
		if c, ok := strongestLosing(v.Hand, best, v.LeadingSuit); ok {
			return c
		}
	}
	return weakest(v.Hand)
}

// GoodBot bids its expected trick count and then plays to hit it exactly.
type GoodBot struct {
	Tuning Tuning
}

func (b *GoodBot) Predict(v View) int {
	expected := 0.0
	for _, c := range v.Hand {
		expected += winChance(v, c)
	}
	p := int(math.Round(expected + b.Tuning.PredictBias))
	if p < 0 {
		p = 0
	}
	if p > len(v.Hand) {
		p = len(v.Hand)
	}
	return p
}

func (b *GoodBot) ChooseCard(v View) domain.Card {
	best, contested := currentBest(v)
	if v.Need() <= 0 {
		if contested {
			if c, ok := strongestLosing(v.Hand, best, v.LeadingSuit); ok {
				return c
			}
		}
		return weakest(v.Hand)
	}

	if !contested {
		// Lead with a sure winner, otherwise keep strength for later.
		strong := strongest(v.Hand)
		if winChance(v, strong) >= b.Tuning.SureWin {
			return strong
		}
		return weakest(v.Hand)
	}

	winner, ok := weakestWinning(v.Hand, best, v.LeadingSuit)
	if !ok {
		return weakest(v.Hand)
	}
	if len(v.Trick) == v.Players-1 || (v.Memory != nil && v.Memory.IsBoss(winner)) {
		return winner
	}
	return strongest(v.Hand)
}

// winChance estimates the odds that no opponent holds a card stronger than c.
func winChance(v View, c domain.Card) float64 {
	if v.Memory == nil {
		return 0
	}
	if v.Memory.IsBoss(c) {
		return 1
	}
	unknown, higher := v.Memory.Unknown(c)
	if unknown == 0 {
		return 1
	}
	opponents := v.Players - 1
	if opponents < 1 {
		return 1
	}
	return math.Pow(float64(unknown-higher)/float64(unknown), float64(opponents))
}

func currentBest(v View) (domain.Card, bool) {
	if len(v.Trick) == 0 || v.LeadingSuit == nil {
		return domain.Card{}, false
	}
	i := domain.TrickWinner(v.Trick, *v.LeadingSuit)
	return v.Trick[i].Card, true
}

func beats(a, b domain.Card, leading *domain.Suit) bool {
	lead := a.Suit
	if leading != nil {
		lead = *leading
	}
	return domain.Beats(a, b, lead)
}

func weakest(hand []domain.Card) domain.Card {
	w := hand[0]
	for _, c := range hand[1:] {
		if domain.Beats(w, c, w.Suit) {
			w = c
		}
	}
	return w
}

func strongest(hand []domain.Card) domain.Card {
	s := hand[0]
	for _, c := range hand[1:] {
		if domain.Beats(c, s, s.Suit) {
			s = c
		}
	}
	return s
}

func weakestWinning(hand []domain.Card, best domain.Card, leading *domain.Suit) (domain.Card, bool) {
	var winners []domain.Card
	for _, c := range hand {
		if beats(c, best, leading) {
			winners = append(winners, c)
		}
	}
	if len(winners) == 0 {
		return domain.Card{}, false
	}
	return weakest(winners), true
}

func strongestLosing(hand []domain.Card, best domain.Card, leading *domain.Suit) (domain.Card, bool) {
	var losers []domain.Card
	for _, c := range hand {
		if !beats(c, best, leading) {
			losers = append(losers, c)
		}
	}
	if len(losers) == 0 {
		return domain.Card{}, false
	}
	return strongest(losers), true
}
