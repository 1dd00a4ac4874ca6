package app

import (
	"errors"
	"math/rand"
	"reflect"
	"testing"

	"bisca/internal/domain"
)

func newTestService(t *testing.T, startingCards int, opts Options, ids ...string) *Service {
	t.Helper()
	match, err := domain.NewMatch(startingCards, rand.New(rand.NewSource(7)))
	if err != nil {
		t.Fatalf("NewMatch() error: %v", err)
	}
	svc := NewService(match, opts)
	for _, id := range ids {
		if _, err := svc.Join(id); err != nil {
			t.Fatalf("Join(%s) error: %v", id, err)
		}
	}
	return svc
}

func kinds(events []Event) []EventKind {
	out := make([]EventKind, len(events))
	for i, ev := range events {
		out[i] = ev.Kind
	}
	return out
}

func countKind(events []Event, kind EventKind) int {
	n := 0
	for _, ev := range events {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}

// startAndPredict starts the match and has everyone predict zero.
func startAndPredict(t *testing.T, svc *Service) {
	t.Helper()
	if _, err := svc.Handle("", StartMatch{}); err != nil {
		t.Fatalf("start error: %v", err)
	}
	predictRound(t, svc)
}

func predictRound(t *testing.T, svc *Service) {
	t.Helper()
	for _, id := range svc.match.PlayerIDs() {
		if _, err := svc.Handle(id, MakePrediction{Value: 0}); err != nil {
			t.Fatalf("predict %s error: %v", id, err)
		}
	}
}

// playTrick plays the first card of every hand in seating order.
func playTrick(t *testing.T, svc *Service) []Event {
	t.Helper()
	var events []Event
	for _, id := range svc.match.PlayerIDs() {
		hand, err := svc.match.Hand(id)
		if err != nil || len(hand) == 0 {
			t.Fatalf("hand of %s: %v (len %d)", id, err, len(hand))
		}
		evs, err := svc.Handle(id, PlayCard{Card: hand[0]})
		if err != nil {
			t.Fatalf("play %s error: %v", id, err)
		}
		events = append(events, evs...)
	}
	return events
}

func TestJoinWelcomesThenAnnounces(t *testing.T) {
	svc := newTestService(t, 5, DefaultOptions(), "u1")

	evs, err := svc.Join("u2")
	if err != nil {
		t.Fatalf("join error: %v", err)
	}
	if got, want := kinds(evs), []EventKind{EventWelcome, EventPlayerJoined}; !reflect.DeepEqual(got, want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	if !reflect.DeepEqual(evs[0].Recipients, []string{"u2"}) {
		t.Fatalf("welcome recipients = %v, want [u2]", evs[0].Recipients)
	}
	welcome := evs[0].Payload.(WelcomePayload)
	if welcome.PlayerID != "u2" || welcome.RoundNumber != 1 || welcome.StartingCards != 5 {
		t.Fatalf("welcome = %+v", welcome)
	}
	if !reflect.DeepEqual(welcome.Players, []string{"u1", "u2"}) {
		t.Fatalf("welcome players = %v", welcome.Players)
	}
	if !evs[1].Broadcast() {
		t.Fatalf("player_joined should be broadcast")
	}

	if _, err := svc.Join("u2"); !errors.Is(err, domain.ErrDuplicatePlayer) {
		t.Fatalf("duplicate join error = %v, want ErrDuplicatePlayer", err)
	}
}

func TestStartMatchDealsHands(t *testing.T) {
	svc := newTestService(t, 5, DefaultOptions(), "u1", "u2", "u3")

	evs, err := svc.Handle("u1", StartMatch{})
	if err != nil {
		t.Fatalf("start error: %v", err)
	}
	want := []EventKind{EventGameStarted, EventRoundStarted, EventHandUpdated, EventHandUpdated, EventHandUpdated}
	if got := kinds(evs); !reflect.DeepEqual(got, want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for _, ev := range evs[2:] {
		payload := ev.Payload.(HandUpdatedPayload)
		if len(payload.Hand) != 5 {
			t.Fatalf("hand size = %d, want 5", len(payload.Hand))
		}
		if !reflect.DeepEqual(ev.Recipients, []string{payload.PlayerID}) {
			t.Fatalf("hand of %s sent to %v", payload.PlayerID, ev.Recipients)
		}
	}

	if _, err := svc.Handle("u1", StartMatch{}); !errors.Is(err, domain.ErrMatchInProgress) {
		t.Fatalf("second start error = %v, want ErrMatchInProgress", err)
	}
}

func TestPlayCardAutoResolvesTrick(t *testing.T) {
	svc := newTestService(t, 3, DefaultOptions(), "u1", "u2")
	startAndPredict(t, svc)

	hand, _ := svc.match.Hand("u1")
	evs, err := svc.Handle("u1", PlayCard{Card: hand[0]})
	if err != nil {
		t.Fatalf("play error: %v", err)
	}
	if got, want := kinds(evs), []EventKind{EventCardPlayed, EventHandUpdated}; !reflect.DeepEqual(got, want) {
		t.Fatalf("events = %v, want %v", got, want)
	}

	hand, _ = svc.match.Hand("u2")
	evs, err = svc.Handle("u2", PlayCard{Card: hand[0]})
	if err != nil {
		t.Fatalf("play error: %v", err)
	}
	if countKind(evs, EventTurnEnded) != 1 {
		t.Fatalf("events = %v, want one turn_ended", kinds(evs))
	}
	ended := evs[len(evs)-1].Payload.(TurnEndedPayload)
	total := 0
	for _, st := range ended.Standings {
		total += st.TricksWon
	}
	if total != 1 || ended.WinnerID == "" {
		t.Fatalf("turn_ended = %+v", ended)
	}
}

func TestRoundFlowWithAutoAdvance(t *testing.T) {
	svc := newTestService(t, 2, DefaultOptions(), "u1", "u2")
	startAndPredict(t, svc)

	evs := playTrick(t, svc)
	if countKind(evs, EventRoundEnded) != 0 {
		t.Fatalf("round ended after the first of two tricks")
	}
	evs = playTrick(t, svc)
	want := []EventKind{EventRoundEnded, EventRoundStarted, EventHandUpdated, EventHandUpdated}
	if got := kinds(evs[len(evs)-len(want):]); !reflect.DeepEqual(got, want) {
		t.Fatalf("round end events = %v, want suffix %v", kinds(evs), want)
	}
	if svc.match.Round() != 2 || svc.match.Phase() != domain.PhasePredicting {
		t.Fatalf("round=%d phase=%s, want round 2 predicting", svc.match.Round(), svc.match.Phase())
	}

	predictRound(t, svc)
	evs = playTrick(t, svc)
	if got := kinds(evs[len(evs)-2:]); !reflect.DeepEqual(got, []EventKind{EventRoundEnded, EventGameOver}) {
		t.Fatalf("final events = %v", kinds(evs))
	}
	over := evs[len(evs)-1].Payload.(GameOverPayload)
	if len(over.Results) != 2 {
		t.Fatalf("game_over results = %+v", over.Results)
	}

	if _, err := svc.Handle("u1", NextRound{}); !errors.Is(err, domain.ErrMatchAlreadyOver) {
		t.Fatalf("next_round after game over error = %v, want ErrMatchAlreadyOver", err)
	}
	if _, err := svc.Handle("u1", MakePrediction{Value: 0}); !errors.Is(err, domain.ErrMatchAlreadyOver) {
		t.Fatalf("predict after game over error = %v, want ErrMatchAlreadyOver", err)
	}
}

func TestManualTrickAndRound(t *testing.T) {
	svc := newTestService(t, 2, Options{}, "u1", "u2")
	startAndPredict(t, svc)

	if _, err := svc.Handle("u1", EndTrick{}); !errors.Is(err, domain.ErrTrickNotFull) {
		t.Fatalf("end_trick on empty trick error = %v, want ErrTrickNotFull", err)
	}
	evs := playTrick(t, svc)
	if countKind(evs, EventTurnEnded) != 0 {
		t.Fatalf("trick resolved without end_trick")
	}
	if _, err := svc.Handle("u1", NextRound{}); !errors.Is(err, domain.ErrRoundNotOver) {
		t.Fatalf("next_round mid-round error = %v, want ErrRoundNotOver", err)
	}
	evs, err := svc.Handle("u2", EndTrick{})
	if err != nil {
		t.Fatalf("end_trick error: %v", err)
	}
	if got := kinds(evs); !reflect.DeepEqual(got, []EventKind{EventTurnEnded}) {
		t.Fatalf("end_trick events = %v", got)
	}

	playTrick(t, svc)
	evs, err = svc.Handle("u1", EndTrick{})
	if err != nil {
		t.Fatalf("end_trick error: %v", err)
	}
	if got := kinds(evs); !reflect.DeepEqual(got, []EventKind{EventTurnEnded, EventRoundEnded}) {
		t.Fatalf("last trick events = %v", got)
	}
	if svc.match.Phase() != domain.PhaseRoundEnd {
		t.Fatalf("phase = %s, want round_end", svc.match.Phase())
	}

	evs, err = svc.Handle("u1", NextRound{})
	if err != nil {
		t.Fatalf("next_round error: %v", err)
	}
	if got := kinds(evs); !reflect.DeepEqual(got, []EventKind{EventRoundStarted, EventHandUpdated, EventHandUpdated}) {
		t.Fatalf("next_round events = %v", got)
	}
	if svc.match.CurrentHandSize() != 1 {
		t.Fatalf("hand size = %d, want 1", svc.match.CurrentHandSize())
	}
}

func TestLeaveSettlesCompletedTrick(t *testing.T) {
	svc := newTestService(t, 3, DefaultOptions(), "u1", "u2", "u3")
	startAndPredict(t, svc)

	for _, id := range []string{"u1", "u2"} {
		hand, _ := svc.match.Hand(id)
		if _, err := svc.Handle(id, PlayCard{Card: hand[0]}); err != nil {
			t.Fatalf("play %s error: %v", id, err)
		}
	}
	evs, err := svc.Leave("u3")
	if err != nil {
		t.Fatalf("leave error: %v", err)
	}
	if got := kinds(evs); !reflect.DeepEqual(got, []EventKind{EventPlayerLeft, EventTurnEnded}) {
		t.Fatalf("leave events = %v", got)
	}
	if svc.match.TrickSize() != 0 {
		t.Fatalf("trick not cleared after settle")
	}
}

func TestErrorEvent(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorPayload
	}{
		{
			name: "validation",
			err:  domain.ErrCardNotInHand,
			want: ErrorPayload{Code: domain.CodeCardNotInHand, Message: "card not in hand"},
		},
		{
			name: "wrapped",
			err:  ErrMalformedAction.Detail("bad json"),
			want: ErrorPayload{Code: "malformed_action", Message: "bad json"},
		},
		{
			name: "internal",
			err:  errors.New("boom"),
			want: ErrorPayload{Message: "internal error"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := ErrorEvent("u1", tt.err)
			if ev.Kind != EventError || !reflect.DeepEqual(ev.Recipients, []string{"u1"}) {
				t.Fatalf("event = %+v", ev)
			}
			if got := ev.Payload.(ErrorPayload); got != tt.want {
				t.Fatalf("payload = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestLabel(t *testing.T) {
	svc := newTestService(t, 10, DefaultOptions(), "u1", "u2", "u3", "u4")
	if label := svc.Label(); label.Open || label.Players != 4 {
		t.Fatalf("full lobby label = %+v", label)
	}
	if _, err := svc.Leave("u4"); err != nil {
		t.Fatalf("leave error: %v", err)
	}
	if label := svc.Label(); !label.Open || label.Phase != domain.PhaseForming {
		t.Fatalf("open lobby label = %+v", label)
	}
}
