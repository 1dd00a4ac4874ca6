package bot

import (
	"bisca/internal/app"
	"bisca/internal/bot/brain"
	"bisca/internal/domain"
)

// Agent represents an autonomous bot player. It rebuilds its view of the
// match from the events a connection receives and answers with actions.
// An Agent is not safe for concurrent use.
type Agent struct {
	ID       string
	Name     string
	Strategy Brain

	memory      *brain.GameMemory
	players     []string
	hand        []domain.Card
	trick       []domain.PlayedCard
	leadingSuit *domain.Suit
	predictions map[string]int
	tricksWon   int
	phase       domain.Phase

	tried  int // last prediction sent, -1 when none is in flight
	played bool
}

// NewAgent builds an agent around strategy.
func NewAgent(id, name string, strategy Brain) *Agent {
	return &Agent{
		ID:          id,
		Name:        name,
		Strategy:    strategy,
		memory:      brain.NewMemory(),
		predictions: make(map[string]int),
		phase:       domain.PhaseForming,
		tried:       -1,
	}
}

// Observe folds ev into the agent's state and returns the action to take in
// response, if any.
func (a *Agent) Observe(ev app.Event) (app.Action, bool) {
	switch p := ev.Payload.(type) {
	case app.WelcomePayload:
		a.players = append([]string(nil), p.Players...)
		a.phase = p.Phase
		a.setHand(p.Hand)
		a.trick = append([]domain.PlayedCard(nil), p.Turn...)
		a.leadingSuit = p.LeadingSuit
		return nil, false

	case app.PlayerJoinedPayload:
		if p.ID != a.ID && !a.seated(p.ID) {
			a.players = append(a.players, p.ID)
		}
		return nil, false

	case app.PlayerLeftPayload:
		a.removePlayer(p.ID)
		return a.maybePlay()

	case app.GameStartedPayload:
		a.players = append([]string(nil), p.Players...)
		return nil, false

	case app.RoundStartedPayload:
		a.resetRound()
		a.phase = domain.PhasePredicting
		return nil, false

	case app.HandUpdatedPayload:
		if p.PlayerID != a.ID {
			return nil, false
		}
		a.setHand(p.Hand)
		if a.phase == domain.PhasePredicting {
			return a.maybePredict()
		}
		return nil, false

	case app.PredictionMadePayload:
		a.predictions[p.PlayerID] = p.Prediction
		if p.PlayerID == a.ID {
			a.tried = -1
		}
		if a.predictionsComplete() {
			a.phase = domain.PhasePlaying
		}
		if act, ok := a.maybePredict(); ok {
			return act, ok
		}
		return a.maybePlay()

	case app.CardPlayedPayload:
		if len(a.trick) == 0 {
			s := p.Card.Suit
			a.leadingSuit = &s
		}
		a.trick = append(a.trick, domain.PlayedCard{UserID: p.PlayerID, Card: p.Card})
		a.memory.MarkPlayed(p.Card)
		return a.maybePlay()

	case app.TurnEndedPayload:
		a.trick = nil
		a.leadingSuit = nil
		a.played = false
		for _, s := range p.Standings {
			if s.UserID == a.ID {
				a.tricksWon = s.TricksWon
			}
		}
		return a.maybePlay()

	case app.RoundEndedPayload:
		a.phase = domain.PhaseRoundEnd
		return nil, false

	case app.GameOverPayload:
		a.phase = domain.PhaseFinished
		return nil, false

	case app.ErrorPayload:
		return a.recover(p)
	}
	return nil, false
}

// Phase is the agent's belief about the match phase.
func (a *Agent) Phase() domain.Phase { return a.phase }

func (a *Agent) view() View {
	v := View{
		Hand:        a.hand,
		Trick:       a.trick,
		LeadingSuit: a.leadingSuit,
		Players:     len(a.players),
		Prediction:  -1,
		TricksWon:   a.tricksWon,
		Memory:      a.memory,
	}
	for id, value := range a.predictions {
		if id == a.ID {
			v.Prediction = value
			continue
		}
		v.Declared++
		v.DeclaredSum += value
	}
	return v
}

func (a *Agent) maybePredict() (app.Action, bool) {
	if a.phase != domain.PhasePredicting || a.tried >= 0 || len(a.hand) == 0 {
		return nil, false
	}
	if _, done := a.predictions[a.ID]; done {
		return nil, false
	}
	v := a.view()
	value := legalPrediction(a.Strategy.Predict(v), v)
	a.tried = value
	return app.MakePrediction{Value: value}, true
}

func (a *Agent) maybePlay() (app.Action, bool) {
	if a.phase != domain.PhasePlaying || a.played || len(a.hand) == 0 {
		return nil, false
	}
	if !a.predictionsComplete() {
		return nil, false
	}
	card := a.Strategy.ChooseCard(a.view())
	a.played = true
	return app.PlayCard{Card: card}, true
}

// recover reacts to a refused action. A prediction refused because another
// player declared first is retried with the closest legal value.
func (a *Agent) recover(p app.ErrorPayload) (app.Action, bool) {
	switch p.Code {
	case domain.CodeInvalidPrediction:
		if a.tried < 0 {
			return nil, false
		}
		value := a.tried + 1
		if value > len(a.hand) {
			value = a.tried - 1
		}
		if value < 0 {
			a.tried = -1
			return nil, false
		}
		a.tried = value
		return app.MakePrediction{Value: value}, true
	case domain.CodeAlreadyPredicted, domain.CodePredictionsClosed:
		a.tried = -1
	case domain.CodeCardNotInHand, domain.CodePredictionsPending:
		a.played = false
	}
	return nil, false
}

// legalPrediction nudges value off the one total the last declarer may not reach.
func legalPrediction(value int, v View) int {
	if !v.LastToDeclare() || v.DeclaredSum+value != len(v.Hand) {
		return value
	}
	if value > 0 {
		return value - 1
	}
	return value + 1
}

func (a *Agent) predictionsComplete() bool {
	if len(a.players) == 0 {
		return false
	}
	for _, id := range a.players {
		if _, ok := a.predictions[id]; !ok {
			return false
		}
	}
	return true
}

func (a *Agent) resetRound() {
	a.memory.Reset()
	a.hand = nil
	a.trick = nil
	a.leadingSuit = nil
	a.predictions = make(map[string]int)
	a.tricksWon = 0
	a.tried = -1
	a.played = false
}

func (a *Agent) setHand(hand []domain.Card) {
	a.hand = append([]domain.Card(nil), hand...)
	a.memory.UpdateHand(a.hand)
}

func (a *Agent) seated(id string) bool {
	for _, p := range a.players {
		if p == id {
			return true
		}
	}
	return false
}

func (a *Agent) removePlayer(id string) {
	for i, p := range a.players {
		if p == id {
			a.players = append(a.players[:i], a.players[i+1:]...)
			break
		}
	}
	delete(a.predictions, id)
	kept := a.trick[:0]
	for _, pc := range a.trick {
		if pc.UserID != id {
			kept = append(kept, pc)
		}
	}
	a.trick = kept
	if len(a.trick) == 0 {
		a.leadingSuit = nil
	}
	if a.phase == domain.PhasePredicting && a.predictionsComplete() {
		a.phase = domain.PhasePlaying
	}
}
