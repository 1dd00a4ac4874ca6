package app

import (
	"errors"
	"fmt"

	"bisca/internal/domain"
)

// Service contains the match use-cases. It owns one domain.Match and turns
// actions into engine calls and events. It is not safe for concurrent use;
// the hub serializes every call.
type Service struct {
	match *domain.Match
	opts  Options
}

// NewService constructs a Service over match.
func NewService(match *domain.Match, opts Options) *Service {
	return &Service{match: match, opts: opts}
}

// Label summarizes the match for listings.
type Label struct {
	Open    bool
	Phase   domain.Phase
	Players int
	Round   int
}

// Label reports whether the match still accepts joins and how full it is.
func (s *Service) Label() Label {
	return Label{
		Open:    s.match.Phase() == domain.PhaseForming && s.match.PlayerCount() < s.match.Capacity(),
		Phase:   s.match.Phase(),
		Players: s.match.PlayerCount(),
		Round:   s.match.Round(),
	}
}

// Snapshot returns the match as seen by playerID.
func (s *Service) Snapshot(playerID string) domain.Snapshot {
	return s.match.Snapshot(playerID)
}

// Join seats playerID, welcomes them and announces them to everyone.
func (s *Service) Join(playerID string) ([]Event, error) {
	if err := s.match.Join(playerID); err != nil {
		return nil, err
	}
	return []Event{
		{
			Kind:       EventWelcome,
			Payload:    welcomeFrom(s.match.Snapshot(playerID)),
			Recipients: []string{playerID},
		},
		{
			Kind:    EventPlayerJoined,
			Payload: PlayerJoinedPayload{ID: playerID},
		},
	}, nil
}

// Leave removes playerID and settles a trick their departure completed.
// A finished match keeps its final seating; the departure is still announced.
func (s *Service) Leave(playerID string) ([]Event, error) {
	events := []Event{{
		Kind:    EventPlayerLeft,
		Payload: PlayerLeftPayload{ID: playerID},
	}}
	if err := s.match.Leave(playerID); err != nil {
		if errors.Is(err, domain.ErrMatchAlreadyOver) {
			return events, nil
		}
		return nil, err
	}
	if s.opts.AutoResolveTricks && s.match.Phase() == domain.PhasePlaying && s.match.TrickFull() {
		more, err := s.finishTrick()
		if err != nil {
			return events, err
		}
		events = append(events, more...)
	}
	return events, nil
}

// Handle applies one action from actorID.
func (s *Service) Handle(actorID string, action Action) ([]Event, error) {
	switch a := action.(type) {
	case StartMatch:
		return s.startMatch()
	case PlayCard:
		return s.playCard(actorID, a.Card)
	case MakePrediction:
		return s.makePrediction(actorID, a.Value)
	case EndTrick:
		return s.endTrick()
	case NextRound:
		return s.nextRound()
	default:
		return nil, ErrMalformedAction.Detail("unsupported action %T", action)
	}
}

func (s *Service) startMatch() ([]Event, error) {
	if err := s.match.StartMatch(); err != nil {
		return nil, err
	}
	events := []Event{{
		Kind: EventGameStarted,
		Payload: GameStartedPayload{
			Players:       s.match.PlayerIDs(),
			StartingCards: s.match.StartingCards(),
		},
	}}
	return append(events, s.roundStarted()...), nil
}

func (s *Service) playCard(actorID string, card domain.Card) ([]Event, error) {
	if err := s.match.PlayCard(actorID, card); err != nil {
		return nil, err
	}
	events := []Event{
		{
			Kind:    EventCardPlayed,
			Payload: CardPlayedPayload{PlayerID: actorID, Card: card},
		},
		s.handUpdated(actorID),
	}
	if s.opts.AutoResolveTricks && s.match.TrickFull() {
		more, err := s.finishTrick()
		if err != nil {
			return events, err
		}
		events = append(events, more...)
	}
	return events, nil
}

func (s *Service) makePrediction(actorID string, value int) ([]Event, error) {
	if err := s.match.MakePrediction(actorID, value); err != nil {
		return nil, err
	}
	return []Event{{
		Kind:    EventPredictionMade,
		Payload: PredictionMadePayload{PlayerID: actorID, Prediction: value},
	}}, nil
}

func (s *Service) endTrick() ([]Event, error) {
	switch s.match.Phase() {
	case domain.PhaseFinished:
		return nil, domain.ErrMatchAlreadyOver
	case domain.PhaseForming:
		return nil, domain.ErrMatchNotStarted
	}
	if !s.match.TrickFull() {
		return nil, domain.ErrTrickNotFull.Detail("trick has %d of %d cards", s.match.TrickSize(), s.match.PlayerCount())
	}
	return s.finishTrick()
}

func (s *Service) nextRound() ([]Event, error) {
	if s.match.Phase() == domain.PhaseFinished || s.match.IsMatchOver() {
		return nil, domain.ErrMatchAlreadyOver
	}
	if s.match.Phase() == domain.PhaseForming {
		return nil, domain.ErrMatchNotStarted
	}
	if !s.roundSettled() {
		return nil, domain.ErrRoundNotOver
	}

	var events []Event
	var results []domain.RoundOutcome
	if s.match.Phase() != domain.PhaseRoundEnd {
		scored, err := s.scoreRound()
		if err != nil {
			return nil, err
		}
		events = append(events, scored)
		results = scored.Payload.(RoundEndedPayload).Results
	}
	more, err := s.advance(results)
	if err != nil {
		return events, err
	}
	return append(events, more...), nil
}

// finishTrick resolves a full trick and, when that empties every hand, scores
// the round and moves the match on.
func (s *Service) finishTrick() ([]Event, error) {
	winner, err := s.match.ResolveTrick()
	if err != nil {
		return nil, err
	}
	if winner == "" {
		return nil, nil
	}
	events := []Event{{
		Kind:    EventTurnEnded,
		Payload: TurnEndedPayload{WinnerID: winner, Standings: s.match.Standings()},
	}}
	if !s.roundSettled() {
		return events, nil
	}

	scored, err := s.scoreRound()
	if err != nil {
		return events, err
	}
	events = append(events, scored)

	final := s.match.Round() >= s.match.StartingCards()
	if !final && !s.opts.AutoAdvanceRounds {
		return events, nil
	}
	more, err := s.advance(scored.Payload.(RoundEndedPayload).Results)
	if err != nil {
		return events, err
	}
	return append(events, more...), nil
}

func (s *Service) scoreRound() (Event, error) {
	round := s.match.Round()
	results, err := s.match.ResolveRound()
	if err != nil {
		return Event{}, err
	}
	return Event{
		Kind:    EventRoundEnded,
		Payload: RoundEndedPayload{RoundNumber: round, Results: results},
	}, nil
}

// advance deals the next round, or ends the match after the final one.
// results are the outcomes reported with game_over.
func (s *Service) advance(results []domain.RoundOutcome) ([]Event, error) {
	finished, err := s.match.AdvanceRound()
	if err != nil {
		return nil, fmt.Errorf("advance round: %w", err)
	}
	if finished {
		if results == nil {
			results = []domain.RoundOutcome{}
		}
		return []Event{{Kind: EventGameOver, Payload: GameOverPayload{Results: results}}}, nil
	}
	return s.roundStarted(), nil
}

func (s *Service) roundStarted() []Event {
	events := make([]Event, 0, s.match.PlayerCount()+1)
	events = append(events, Event{
		Kind: EventRoundStarted,
		Payload: RoundStartedPayload{
			RoundNumber:   s.match.Round(),
			StartingCards: s.match.StartingCards(),
			HandSize:      s.match.CurrentHandSize(),
		},
	})
	for _, id := range s.match.PlayerIDs() {
		events = append(events, s.handUpdated(id))
	}
	return events
}

func (s *Service) handUpdated(playerID string) Event {
	hand, _ := s.match.Hand(playerID)
	return Event{
		Kind:       EventHandUpdated,
		Payload:    HandUpdatedPayload{PlayerID: playerID, Hand: hand},
		Recipients: []string{playerID},
	}
}

// roundSettled reports whether every hand is empty and no trick is pending.
// An empty match never settles.
func (s *Service) roundSettled() bool {
	return s.match.PlayerCount() > 0 && s.match.IsRoundOver() && s.match.TrickSize() == 0
}
