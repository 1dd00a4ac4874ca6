package domain

import (
	"math/rand"
)

// Match is the authoritative state of one match. Its fields are only changed
// through the operations below; callers must serialize access.
type Match struct {
	phase         Phase
	round         int
	startingCards int
	deck          []Card
	players       []*Player
	trick         []PlayedCard
	leadingSuit   *Suit

	rng *rand.Rand
}

// NewMatch creates a match in the Forming phase. A nil rng reseeds every
// shuffle from crypto/rand.
func NewMatch(startingCards int, rng *rand.Rand) (*Match, error) {
	if startingCards < 1 || startingCards > DeckSize {
		return nil, invariant("NewMatch", "starting cards %d out of range 1..%d", startingCards, DeckSize)
	}
	return &Match{
		phase:         PhaseForming,
		round:         1,
		startingCards: startingCards,
		rng:           rng,
	}, nil
}

// Capacity is the largest number of players a full deck can serve in round one.
func (m *Match) Capacity() int {
	return DeckSize / m.startingCards
}

func (m *Match) Phase() Phase { return m.phase }
func (m *Match) Round() int { return m.round }
func (m *Match) StartingCards() int { return m.startingCards }
func (m *Match) PlayerCount() int { return len(m.players) }
func (m *Match) TrickSize() int { return len(m.trick) }
func (m *Match) DeckRemaining() int { return len(m.deck) }
func (m *Match) CurrentHandSize() int { return HandSize(m.round, m.startingCards) }

// LeadingSuit returns the suit of the first card of the trick, if any.
func (m *Match) LeadingSuit() (Suit, bool) {
	if m.leadingSuit == nil {
		return 0, false
	}
	return *m.leadingSuit, true
}

// PlayerIDs returns the seated player ids in seating order.
func (m *Match) PlayerIDs() []string {
	ids := make([]string, len(m.players))
	for i, p := range m.players {
		ids[i] = p.UserID
	}
	return ids
}

// HasPlayer reports whether id is seated.
func (m *Match) HasPlayer(id string) bool {
	return m.playerIndex(id) >= 0
}

// Hand returns a copy of the player's hand.
func (m *Match) Hand(id string) ([]Card, error) {
	p, err := m.player(id)
	if err != nil {
		return nil, err
	}
	return copyCards(p.Hand), nil
}

// Standings returns tricks won so far this round, in seating order.
func (m *Match) Standings() []Standing {
	out := make([]Standing, len(m.players))
	for i, p := range m.players {
		out[i] = Standing{UserID: p.UserID, TricksWon: p.TricksWon}
	}
	return out
}

// Snapshot copies the state visible to id.
func (m *Match) Snapshot(id string) Snapshot {
	snap := Snapshot{
		PlayerID:      id,
		Phase:         m.phase,
		Round:         m.round,
		StartingCards: m.startingCards,
		HandSize:      m.CurrentHandSize(),
		Hand:          []Card{},
		Players:       m.PlayerIDs(),
		Trick:         copyTrick(m.trick),
	}
	if m.leadingSuit != nil {
		s := *m.leadingSuit
		snap.LeadingSuit = &s
	}
	if p, err := m.player(id); err == nil {
		snap.Hand = copyCards(p.Hand)
	}
	return snap
}

// Join seats a new player. Only allowed while Forming.
func (m *Match) Join(id string) error {
	if id == "" {
		return invariant("Join", "empty player id")
	}
	if m.phase == PhaseFinished {
		return ErrMatchAlreadyOver
	}
	if m.HasPlayer(id) {
		return ErrDuplicatePlayer
	}
	if m.phase != PhaseForming {
		return ErrMatchInProgress
	}
	if len(m.players) >= m.Capacity() {
		return ErrMatchFull.Detail("match is full (%d players)", m.Capacity())
	}
	m.players = append(m.players, &Player{UserID: id, Hand: []Card{}})
	return nil
}

// Leave removes a player and purges their cards from the trick in progress.
// A match emptied this way stays alive but inert.
func (m *Match) Leave(id string) error {
	if m.phase == PhaseFinished {
		return ErrMatchAlreadyOver
	}
	idx := m.playerIndex(id)
	if idx < 0 {
		return ErrUnknownPlayer
	}
	m.players = append(m.players[:idx:idx], m.players[idx+1:]...)

	kept := m.trick[:0]
	for _, pc := range m.trick {
		if pc.UserID != id {
			kept = append(kept, pc)
		}
	}
	m.trick = kept
	if len(m.trick) == 0 {
		m.leadingSuit = nil
	}

	// Accepted predictions stand even if the remaining total now equals the
	// hand size; the last-declarer rule binds a declaration, not a departure.
	if m.phase == PhasePredicting && len(m.players) > 0 && m.predictionCount() == len(m.players) {
		m.phase = PhasePlaying
	}
	return nil
}

// StartMatch deals round one and opens predictions.
func (m *Match) StartMatch() error {
	switch m.phase {
	case PhaseForming:
	case PhaseFinished:
		return ErrMatchAlreadyOver
	default:
		return ErrMatchInProgress
	}
	if len(m.players) == 0 {
		return ErrNotEnoughPlayers
	}

	m.phase = PhaseDealing
	m.round = 1
	if err := m.dealRound(); err != nil {
		m.phase = PhaseForming
		return err
	}
	return nil
}

// MakePrediction records a player's forecast for the round. The last player
// to declare may not bring the total to the number of cards in hand.
func (m *Match) MakePrediction(id string, value int) error {
	if m.phase == PhaseFinished {
		return ErrMatchAlreadyOver
	}
	p, err := m.player(id)
	if err != nil {
		return err
	}
	if m.phase == PhaseForming {
		return ErrMatchNotStarted
	}
	if m.phase != PhasePredicting {
		return ErrPredictionsClosed
	}
	if p.Prediction != nil {
		return ErrAlreadyPredicted
	}

	handSize := len(p.Hand)
	if value < 0 || value > handSize {
		return ErrInvalidPrediction.Detail("prediction must be between 0 and %d", handSize)
	}

	made, sum := 0, 0
	for _, other := range m.players {
		if other.Prediction != nil {
			made++
			sum += *other.Prediction
		}
	}
	if made+1 == len(m.players) && sum+value == handSize {
		return ErrInvalidPrediction.Detail("last prediction cannot bring the total to %d", handSize)
	}

	v := value
	p.Prediction = &v
	if made+1 == len(m.players) {
		m.phase = PhasePlaying
	}
	return nil
}

// PlayCard moves a card from the player's hand into the current trick.
func (m *Match) PlayCard(id string, card Card) error {
	if m.phase == PhaseFinished {
		return ErrMatchAlreadyOver
	}
	p, err := m.player(id)
	if err != nil {
		return err
	}
	switch m.phase {
	case PhaseForming:
		return ErrMatchNotStarted
	case PhasePredicting:
		return ErrPredictionsPending
	}
	for _, pc := range m.trick {
		if pc.UserID == id {
			return ErrAlreadyPlayed
		}
	}

	hand, ok := RemoveCard(p.Hand, card)
	if !ok {
		return ErrCardNotInHand.Detail("%s is not in hand", card)
	}
	p.Hand = hand
	if len(m.trick) == 0 {
		s := card.Suit
		m.leadingSuit = &s
	}
	m.trick = append(m.trick, PlayedCard{UserID: id, Card: card})
	return nil
}

// TrickFull reports whether every seated player has a card in the trick.
func (m *Match) TrickFull() bool {
	return len(m.players) > 0 && len(m.trick) == len(m.players)
}

// ResolveTrick awards the current trick and clears it. An empty trick has no
// winner and returns "".
func (m *Match) ResolveTrick() (string, error) {
	if m.phase == PhaseFinished {
		return "", ErrMatchAlreadyOver
	}
	if len(m.trick) == 0 {
		return "", nil
	}
	if m.leadingSuit == nil {
		return "", invariant("ResolveTrick", "trick of %d cards has no leading suit", len(m.trick))
	}

	best := TrickWinner(m.trick, *m.leadingSuit)
	winner, err := m.player(m.trick[best].UserID)
	if err != nil {
		return "", invariant("ResolveTrick", "winner %q is not seated", m.trick[best].UserID)
	}
	winner.TricksWon++
	m.trick = nil
	m.leadingSuit = nil
	return winner.UserID, nil
}

// IsRoundOver reports whether every hand is empty.
func (m *Match) IsRoundOver() bool {
	for _, p := range m.players {
		if len(p.Hand) > 0 {
			return false
		}
	}
	return true
}

// ResolveRound scores the round. Predictions and trick counts are kept until
// the next deal.
func (m *Match) ResolveRound() ([]RoundOutcome, error) {
	if m.phase == PhaseFinished {
		return nil, ErrMatchAlreadyOver
	}
	if m.phase == PhaseForming {
		return nil, ErrMatchNotStarted
	}
	if !m.IsRoundOver() || len(m.trick) > 0 {
		return nil, ErrRoundNotOver
	}

	outcomes := make([]RoundOutcome, len(m.players))
	for i, p := range m.players {
		predicted := 0
		if p.Prediction != nil {
			predicted = *p.Prediction
		}
		outcomes[i] = RoundOutcome{
			UserID:     p.UserID,
			Prediction: predicted,
			TricksWon:  p.TricksWon,
			Success:    predicted == p.TricksWon,
		}
	}
	m.phase = PhaseRoundEnd
	return outcomes, nil
}

// AdvanceRound moves to the next, one-card-smaller round. After the final
// round it finishes the match instead of dealing and returns true.
func (m *Match) AdvanceRound() (bool, error) {
	if m.IsMatchOver() || m.phase == PhaseFinished {
		return false, ErrMatchAlreadyOver
	}
	if m.phase == PhaseForming {
		return false, ErrMatchNotStarted
	}
	if !m.IsRoundOver() || len(m.trick) > 0 {
		return false, ErrRoundNotOver
	}

	m.round++
	m.trick = nil
	m.leadingSuit = nil
	if m.IsMatchOver() {
		m.phase = PhaseFinished
		m.deck = nil
		return true, nil
	}
	if len(m.players) == 0 {
		m.phase = PhasePredicting
		return false, nil
	}

	m.phase = PhaseDealing
	if err := m.dealRound(); err != nil {
		m.round--
		m.phase = PhaseRoundEnd
		return false, err
	}
	return false, nil
}

// IsMatchOver reports whether every round has been played.
func (m *Match) IsMatchOver() bool {
	return m.round > m.startingCards
}

// dealRound reshuffles a full deck and deals the current round. State is only
// touched once the deal has succeeded.
func (m *Match) dealRound() error {
	var deck []Card
	if m.rng != nil {
		deck = ShuffleDeckWith(m.rng)
	} else {
		deck = ShuffleDeck()
	}
	hands, err := DealRound(&deck, len(m.players), m.round, m.startingCards)
	if err != nil {
		return err
	}
	for i, p := range m.players {
		p.Hand = hands[i]
		p.Prediction = nil
		p.TricksWon = 0
	}
	m.deck = deck
	m.trick = nil
	m.leadingSuit = nil
	m.phase = PhasePredicting
	return nil
}

func (m *Match) predictionCount() int {
	n := 0
	for _, p := range m.players {
		if p.Prediction != nil {
			n++
		}
	}
	return n
}

func (m *Match) playerIndex(id string) int {
	for i, p := range m.players {
		if p.UserID == id {
			return i
		}
	}
	return -1
}

func (m *Match) player(id string) (*Player, error) {
	idx := m.playerIndex(id)
	if idx < 0 {
		return nil, ErrUnknownPlayer
	}
	return m.players[idx], nil
}
