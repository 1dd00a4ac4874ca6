package domain

import (
	"errors"
	"math/rand"
	"reflect"
	"testing"
)

func newTestMatch(t *testing.T, startingCards int, ids ...string) *Match {
	t.Helper()
	m, err := NewMatch(startingCards, rand.New(rand.NewSource(42)))
	if err != nil {
		t.Fatalf("NewMatch() error: %v", err)
	}
	for _, id := range ids {
		if err := m.Join(id); err != nil {
			t.Fatalf("Join(%s) error: %v", id, err)
		}
	}
	return m
}

func predictAll(t *testing.T, m *Match) {
	t.Helper()
	sum := 0
	ids := m.PlayerIDs()
	for i, id := range ids {
		value := 0
		if i == len(ids)-1 && sum == m.CurrentHandSize() {
			value = 1
		}
		if err := m.MakePrediction(id, value); err != nil {
			t.Fatalf("MakePrediction(%s, %d) error: %v", id, value, err)
		}
		sum += value
	}
}

func handTotal(m *Match) int {
	total := 0
	for _, p := range m.players {
		total += len(p.Hand)
	}
	return total
}

func TestNewMatchRejectsBadStartingCards(t *testing.T) {
	for _, n := range []int{0, -1, DeckSize + 1} {
		if _, err := NewMatch(n, nil); !IsInvariant(err) {
			t.Fatalf("NewMatch(%d) error = %v, want invariant error", n, err)
		}
	}
}

func TestJoin(t *testing.T) {
	m := newTestMatch(t, 10, "a", "b")

	if err := m.Join("a"); !errors.Is(err, ErrDuplicatePlayer) {
		t.Fatalf("duplicate Join() error = %v, want ErrDuplicatePlayer", err)
	}
	for _, id := range []string{"c", "d"} {
		if err := m.Join(id); err != nil {
			t.Fatalf("Join(%s) error: %v", id, err)
		}
	}
	if err := m.Join("e"); !errors.Is(err, ErrMatchFull) {
		t.Fatalf("Join() past capacity error = %v, want ErrMatchFull", err)
	}

	if err := m.StartMatch(); err != nil {
		t.Fatalf("StartMatch() error: %v", err)
	}
	if err := m.Leave("d"); err != nil {
		t.Fatalf("Leave() error: %v", err)
	}
	if err := m.Join("late"); !errors.Is(err, ErrMatchInProgress) {
		t.Fatalf("Join() after start error = %v, want ErrMatchInProgress", err)
	}
}

func TestStartMatch(t *testing.T) {
	empty := newTestMatch(t, 5)
	if err := empty.StartMatch(); !errors.Is(err, ErrNotEnoughPlayers) {
		t.Fatalf("StartMatch() with no players error = %v, want ErrNotEnoughPlayers", err)
	}
	if empty.Phase() != PhaseForming {
		t.Fatalf("phase = %s, want forming", empty.Phase())
	}

	m := newTestMatch(t, 5, "a", "b", "c")
	if err := m.StartMatch(); err != nil {
		t.Fatalf("StartMatch() error: %v", err)
	}
	if m.Phase() != PhasePredicting || m.Round() != 1 {
		t.Fatalf("phase=%s round=%d, want predicting round 1", m.Phase(), m.Round())
	}
	if got := handTotal(m); got != 15 {
		t.Fatalf("dealt %d cards, want 15", got)
	}
	if m.DeckRemaining() != DeckSize-15 {
		t.Fatalf("deck remaining = %d, want %d", m.DeckRemaining(), DeckSize-15)
	}
	if err := m.StartMatch(); !errors.Is(err, ErrMatchInProgress) {
		t.Fatalf("second StartMatch() error = %v, want ErrMatchInProgress", err)
	}
}

func TestMakePredictionLastPlayerRule(t *testing.T) {
	m := newTestMatch(t, 5, "a", "b", "c")
	if err := m.StartMatch(); err != nil {
		t.Fatalf("StartMatch() error: %v", err)
	}

	if err := m.MakePrediction("a", 2); err != nil {
		t.Fatalf("MakePrediction(a) error: %v", err)
	}
	if err := m.MakePrediction("b", 1); err != nil {
		t.Fatalf("MakePrediction(b) error: %v", err)
	}
	if err := m.MakePrediction("c", 2); !errors.Is(err, ErrInvalidPrediction) {
		t.Fatalf("MakePrediction(c, 2) error = %v, want ErrInvalidPrediction", err)
	}
	if m.Phase() != PhasePredicting {
		t.Fatalf("rejected prediction changed phase to %s", m.Phase())
	}
	if err := m.MakePrediction("c", 3); err != nil {
		t.Fatalf("MakePrediction(c, 3) error: %v", err)
	}
	if m.Phase() != PhasePlaying {
		t.Fatalf("phase = %s, want playing after last prediction", m.Phase())
	}
}

func TestMakePredictionValidation(t *testing.T) {
	m := newTestMatch(t, 5, "a", "b")

	if err := m.MakePrediction("a", 1); !errors.Is(err, ErrMatchNotStarted) {
		t.Fatalf("MakePrediction() before start error = %v, want ErrMatchNotStarted", err)
	}
	if err := m.StartMatch(); err != nil {
		t.Fatalf("StartMatch() error: %v", err)
	}

	tests := []struct {
		name  string
		id    string
		value int
		want  error
	}{
		{name: "unknown player", id: "zz", value: 1, want: ErrUnknownPlayer},
		{name: "negative", id: "a", value: -1, want: ErrInvalidPrediction},
		{name: "more than hand", id: "a", value: 6, want: ErrInvalidPrediction},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := m.MakePrediction(tt.id, tt.value); !errors.Is(err, tt.want) {
				t.Fatalf("MakePrediction(%s, %d) error = %v, want %v", tt.id, tt.value, err, tt.want)
			}
		})
	}

	if err := m.MakePrediction("a", 0); err != nil {
		t.Fatalf("MakePrediction(a, 0) error: %v", err)
	}
	if err := m.MakePrediction("a", 1); !errors.Is(err, ErrAlreadyPredicted) {
		t.Fatalf("second prediction error = %v, want ErrAlreadyPredicted", err)
	}
	if err := m.MakePrediction("b", 0); err != nil {
		t.Fatalf("MakePrediction(b, 0) error: %v", err)
	}
	if err := m.MakePrediction("b", 0); !errors.Is(err, ErrPredictionsClosed) {
		t.Fatalf("prediction while playing error = %v, want ErrPredictionsClosed", err)
	}
}

func TestPlayCard(t *testing.T) {
	m := newTestMatch(t, 3, "a", "b")
	if err := m.PlayCard("a", Card{Denari, Asso}); !errors.Is(err, ErrMatchNotStarted) {
		t.Fatalf("PlayCard() before start error = %v, want ErrMatchNotStarted", err)
	}
	if err := m.StartMatch(); err != nil {
		t.Fatalf("StartMatch() error: %v", err)
	}

	handA, _ := m.Hand("a")
	if err := m.PlayCard("a", handA[0]); !errors.Is(err, ErrPredictionsPending) {
		t.Fatalf("PlayCard() before predictions error = %v, want ErrPredictionsPending", err)
	}
	predictAll(t, m)

	handB, _ := m.Hand("b")
	if err := m.PlayCard("a", handB[0]); !errors.Is(err, ErrCardNotInHand) {
		t.Fatalf("PlayCard() with foreign card error = %v, want ErrCardNotInHand", err)
	}
	if err := m.PlayCard("ghost", handA[0]); !errors.Is(err, ErrUnknownPlayer) {
		t.Fatalf("PlayCard() unknown player error = %v, want ErrUnknownPlayer", err)
	}

	if _, ok := m.LeadingSuit(); ok {
		t.Fatalf("leading suit set before any card")
	}
	if err := m.PlayCard("a", handA[0]); err != nil {
		t.Fatalf("PlayCard() error: %v", err)
	}
	if lead, ok := m.LeadingSuit(); !ok || lead != handA[0].Suit {
		t.Fatalf("leading suit = %v/%t, want %s", lead, ok, handA[0].Suit)
	}
	if err := m.PlayCard("a", handA[1]); !errors.Is(err, ErrAlreadyPlayed) {
		t.Fatalf("second card in trick error = %v, want ErrAlreadyPlayed", err)
	}
	if got, _ := m.Hand("a"); len(got) != 2 {
		t.Fatalf("hand size after play = %d, want 2", len(got))
	}
	if m.TrickFull() {
		t.Fatalf("trick full after one of two cards")
	}
	if err := m.PlayCard("b", handB[0]); err != nil {
		t.Fatalf("PlayCard(b) error: %v", err)
	}
	if !m.TrickFull() {
		t.Fatalf("trick not full after both players played")
	}
}

func TestResolveTrick(t *testing.T) {
	m := newTestMatch(t, 3, "a", "b", "c")
	m.phase = PhasePlaying

	winner, err := m.ResolveTrick()
	if err != nil || winner != "" {
		t.Fatalf("ResolveTrick() on empty trick = %q, %v; want no winner", winner, err)
	}

	lead := Coppe
	m.leadingSuit = &lead
	m.trick = []PlayedCard{
		{"a", Card{Coppe, Sette}},
		{"b", Card{Bastoni, Asso}},
		{"c", Card{Coppe, Re}},
	}
	winner, err = m.ResolveTrick()
	if err != nil {
		t.Fatalf("ResolveTrick() error: %v", err)
	}
	if winner != "c" {
		t.Fatalf("winner = %s, want c", winner)
	}
	if m.TrickSize() != 0 {
		t.Fatalf("trick not cleared")
	}
	if _, ok := m.LeadingSuit(); ok {
		t.Fatalf("leading suit not cleared")
	}

	won := 0
	for _, s := range m.Standings() {
		won += s.TricksWon
		if s.UserID == "c" && s.TricksWon != 1 {
			t.Fatalf("c tricks won = %d, want 1", s.TricksWon)
		}
	}
	if won != 1 {
		t.Fatalf("total tricks won = %d, want 1", won)
	}
}

func TestResolveRound(t *testing.T) {
	m := newTestMatch(t, 3, "zero", "exact", "over")
	m.phase = PhasePlaying
	predictions := map[string]int{"zero": 0, "exact": 2, "over": 3}
	won := map[string]int{"zero": 0, "exact": 2, "over": 1}
	for _, p := range m.players {
		v := predictions[p.UserID]
		p.Prediction = &v
		p.TricksWon = won[p.UserID]
	}

	outcomes, err := m.ResolveRound()
	if err != nil {
		t.Fatalf("ResolveRound() error: %v", err)
	}
	want := map[string]bool{"zero": true, "exact": true, "over": false}
	for _, o := range outcomes {
		if o.Success != want[o.UserID] {
			t.Fatalf("%s success = %t, want %t", o.UserID, o.Success, want[o.UserID])
		}
		if o.Success != (o.Prediction == o.TricksWon) {
			t.Fatalf("%s success disagrees with prediction %d / tricks %d", o.UserID, o.Prediction, o.TricksWon)
		}
	}
	if m.Phase() != PhaseRoundEnd {
		t.Fatalf("phase = %s, want round_end", m.Phase())
	}
	if *m.players[1].Prediction != 2 || m.players[1].TricksWon != 2 {
		t.Fatalf("ResolveRound() mutated predictions or tricks")
	}
}

func TestResolveRoundRequiresEmptyHands(t *testing.T) {
	m := newTestMatch(t, 3, "a", "b")
	if err := m.StartMatch(); err != nil {
		t.Fatalf("StartMatch() error: %v", err)
	}
	if _, err := m.ResolveRound(); !errors.Is(err, ErrRoundNotOver) {
		t.Fatalf("ResolveRound() error = %v, want ErrRoundNotOver", err)
	}
	if _, err := m.AdvanceRound(); !errors.Is(err, ErrRoundNotOver) {
		t.Fatalf("AdvanceRound() error = %v, want ErrRoundNotOver", err)
	}
}

func TestLeavePurgesTrick(t *testing.T) {
	m := newTestMatch(t, 3, "a", "b", "c")
	if err := m.StartMatch(); err != nil {
		t.Fatalf("StartMatch() error: %v", err)
	}
	predictAll(t, m)

	handA, _ := m.Hand("a")
	if err := m.PlayCard("a", handA[0]); err != nil {
		t.Fatalf("PlayCard() error: %v", err)
	}
	if err := m.Leave("a"); err != nil {
		t.Fatalf("Leave() error: %v", err)
	}
	if m.TrickSize() != 0 {
		t.Fatalf("trick size = %d, want 0 after leader left", m.TrickSize())
	}
	if _, ok := m.LeadingSuit(); ok {
		t.Fatalf("leading suit kept on an empty trick")
	}
	if m.HasPlayer("a") || m.PlayerCount() != 2 {
		t.Fatalf("player a still seated")
	}
	if err := m.Leave("a"); !errors.Is(err, ErrUnknownPlayer) {
		t.Fatalf("second Leave() error = %v, want ErrUnknownPlayer", err)
	}
}

func TestLeaveCompletesPredictions(t *testing.T) {
	m := newTestMatch(t, 4, "a", "b", "c")
	if err := m.StartMatch(); err != nil {
		t.Fatalf("StartMatch() error: %v", err)
	}
	if err := m.MakePrediction("a", 1); err != nil {
		t.Fatalf("MakePrediction(a) error: %v", err)
	}
	if err := m.MakePrediction("b", 1); err != nil {
		t.Fatalf("MakePrediction(b) error: %v", err)
	}
	if err := m.Leave("c"); err != nil {
		t.Fatalf("Leave(c) error: %v", err)
	}
	if m.Phase() != PhasePlaying {
		t.Fatalf("phase = %s, want playing once every remaining player predicted", m.Phase())
	}
}

func TestLeaveKeepsPredictionsMatchingHandSize(t *testing.T) {
	m := newTestMatch(t, 2, "a", "b", "c")
	if err := m.StartMatch(); err != nil {
		t.Fatalf("StartMatch() error: %v", err)
	}
	if err := m.MakePrediction("a", 1); err != nil {
		t.Fatalf("MakePrediction(a) error: %v", err)
	}
	if err := m.MakePrediction("b", 1); err != nil {
		t.Fatalf("MakePrediction(b) error: %v", err)
	}
	if err := m.Leave("c"); err != nil {
		t.Fatalf("Leave(c) error: %v", err)
	}
	if m.Phase() != PhasePlaying {
		t.Fatalf("phase = %s, want playing", m.Phase())
	}
	if err := m.MakePrediction("b", 0); !errors.Is(err, ErrPredictionsClosed) {
		t.Fatalf("MakePrediction(b) after leave error = %v, want ErrPredictionsClosed", err)
	}
	sum := 0
	for _, p := range m.players {
		if p.Prediction == nil {
			t.Fatalf("prediction of %s was cleared", p.UserID)
		}
		sum += *p.Prediction
	}
	if sum != m.CurrentHandSize() {
		t.Fatalf("prediction total = %d, want %d kept as declared", sum, m.CurrentHandSize())
	}
}

func TestRejectedOperationsLeaveStateUnchanged(t *testing.T) {
	m := newTestMatch(t, 3, "a", "b")
	if err := m.StartMatch(); err != nil {
		t.Fatalf("StartMatch() error: %v", err)
	}
	if err := m.MakePrediction("a", 1); err != nil {
		t.Fatalf("MakePrediction(a) error: %v", err)
	}
	if err := m.MakePrediction("b", 1); err != nil {
		t.Fatalf("MakePrediction(b) error: %v", err)
	}
	handA, _ := m.Hand("a")
	if err := m.PlayCard("a", handA[0]); err != nil {
		t.Fatalf("PlayCard(a) error: %v", err)
	}
	handA, _ = m.Hand("a")

	type state struct {
		A, B        Snapshot
		Standings   []Standing
		Deck, Trick int
	}
	capture := func() state {
		return state{
			A:         m.Snapshot("a"),
			B:         m.Snapshot("b"),
			Standings: m.Standings(),
			Deck:      m.DeckRemaining(),
			Trick:     m.TrickSize(),
		}
	}
	before := capture()

	rejected := []struct {
		name string
		call func() error
	}{
		{"play twice", func() error { return m.PlayCard("a", handA[0]) }},
		{"play foreign card", func() error { return m.PlayCard("b", handA[0]) }},
		{"play unknown player", func() error { return m.PlayCard("z", handA[0]) }},
		{"predict after close", func() error { return m.MakePrediction("a", 0) }},
		{"resolve round early", func() error { _, err := m.ResolveRound(); return err }},
		{"advance early", func() error { _, err := m.AdvanceRound(); return err }},
		{"join in progress", func() error { return m.Join("c") }},
		{"leave unknown", func() error { return m.Leave("z") }},
	}
	for _, tt := range rejected {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); !IsValidation(err) {
				t.Fatalf("error = %v, want validation error", err)
			}
			if after := capture(); !reflect.DeepEqual(before, after) {
				t.Fatalf("state changed:\nbefore %+v\nafter  %+v", before, after)
			}
		})
	}
}

func TestFullMatch(t *testing.T) {
	const startingCards = 4
	m := newTestMatch(t, startingCards, "a", "b", "c")
	if err := m.StartMatch(); err != nil {
		t.Fatalf("StartMatch() error: %v", err)
	}

	for !m.IsMatchOver() {
		round := m.Round()
		if got, want := handTotal(m), (startingCards-(round-1))*m.PlayerCount(); got != want {
			t.Fatalf("round %d: %d cards dealt, want %d", round, got, want)
		}
		predictAll(t, m)

		tricks := 0
		for !m.IsRoundOver() {
			for _, id := range m.PlayerIDs() {
				hand, _ := m.Hand(id)
				if err := m.PlayCard(id, hand[0]); err != nil {
					t.Fatalf("round %d: PlayCard(%s) error: %v", round, id, err)
				}
			}
			if _, err := m.ResolveTrick(); err != nil {
				t.Fatalf("round %d: ResolveTrick() error: %v", round, err)
			}
			tricks++
		}
		if tricks != startingCards-(round-1) {
			t.Fatalf("round %d: played %d tricks", round, tricks)
		}

		if _, err := m.ResolveRound(); err != nil {
			t.Fatalf("round %d: ResolveRound() error: %v", round, err)
		}
		finished, err := m.AdvanceRound()
		if err != nil {
			t.Fatalf("round %d: AdvanceRound() error: %v", round, err)
		}
		if finished != (round == startingCards) {
			t.Fatalf("round %d: finished = %t", round, finished)
		}
		if !finished {
			for _, p := range m.players {
				if p.Prediction != nil || p.TricksWon != 0 {
					t.Fatalf("round %d: player %s not reset", round, p.UserID)
				}
			}
		}
	}

	if m.Phase() != PhaseFinished || m.Round() != startingCards+1 {
		t.Fatalf("phase=%s round=%d, want finished at round %d", m.Phase(), m.Round(), startingCards+1)
	}
	if _, err := m.AdvanceRound(); !errors.Is(err, ErrMatchAlreadyOver) {
		t.Fatalf("AdvanceRound() after finish error = %v, want ErrMatchAlreadyOver", err)
	}
	if err := m.MakePrediction("a", 0); !errors.Is(err, ErrMatchAlreadyOver) {
		t.Fatalf("MakePrediction() after finish error = %v, want ErrMatchAlreadyOver", err)
	}
}

func TestErrorClassification(t *testing.T) {
	detailed := ErrCardNotInHand.Detail("%s is not in hand", Card{Denari, Asso})
	if !errors.Is(detailed, ErrCardNotInHand) {
		t.Fatalf("detailed error does not match its sentinel")
	}
	if !IsValidation(detailed) || IsInvariant(detailed) {
		t.Fatalf("detailed error misclassified")
	}
	inv := invariant("Op", "bad %d", 1)
	if IsValidation(inv) || !IsInvariant(inv) {
		t.Fatalf("invariant error misclassified")
	}
}
