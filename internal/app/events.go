package app

import (
	"errors"

	"bisca/internal/domain"
)

// EventKind identifies emitted events for transport dispatch.
type EventKind string

const (
	EventWelcome        EventKind = "welcome"
	EventPlayerJoined   EventKind = "player_joined"
	EventPlayerLeft     EventKind = "player_left"
	EventGameStarted    EventKind = "game_started"
	EventRoundStarted   EventKind = "round_started"
	EventCardPlayed     EventKind = "card_played"
	EventHandUpdated    EventKind = "hand_updated"
	EventPredictionMade EventKind = "prediction_made"
	EventTurnEnded      EventKind = "turn_ended"
	EventRoundEnded     EventKind = "round_ended"
	EventGameOver       EventKind = "game_over"
	EventError          EventKind = "error"
)

// Event is an app event with optional targeted recipients.
type Event struct {
	Kind       EventKind
	Payload    any
	Recipients []string // user IDs; empty means broadcast
}

// Broadcast reports whether the event goes to every seated player.
func (e Event) Broadcast() bool {
	return len(e.Recipients) == 0
}

// WelcomePayload is the snapshot sent to a newly joined player.
type WelcomePayload struct {
	PlayerID      string              `json:"player_id"`
	Phase         domain.Phase        `json:"phase"`
	RoundNumber   int                 `json:"round_number"`
	StartingCards int                 `json:"starting_cards"`
	Hand          []domain.Card       `json:"hand"`
	Players       []string            `json:"players"`
	Turn          []domain.PlayedCard `json:"turn"`
	LeadingSuit   *domain.Suit        `json:"leading_suit,omitempty"`
}

type PlayerJoinedPayload struct {
	ID string `json:"id"`
}

type PlayerLeftPayload struct {
	ID string `json:"id"`
}

type GameStartedPayload struct {
	Players       []string `json:"players"`
	StartingCards int      `json:"starting_cards"`
}

type RoundStartedPayload struct {
	RoundNumber   int `json:"round_number"`
	StartingCards int `json:"starting_cards"`
	HandSize      int `json:"hand_size"`
}

type CardPlayedPayload struct {
	PlayerID string      `json:"player_id"`
	Card     domain.Card `json:"card"`
}

type HandUpdatedPayload struct {
	PlayerID string        `json:"player_id"`
	Hand     []domain.Card `json:"hand"`
}

type PredictionMadePayload struct {
	PlayerID   string `json:"player_id"`
	Prediction int    `json:"prediction"`
}

type TurnEndedPayload struct {
	WinnerID  string            `json:"winner_id"`
	Standings []domain.Standing `json:"standings"`
}

type RoundEndedPayload struct {
	RoundNumber int                   `json:"round_number"`
	Results     []domain.RoundOutcome `json:"results"`
}

type GameOverPayload struct {
	Results []domain.RoundOutcome `json:"results"`
}

type ErrorPayload struct {
	Code    domain.Code `json:"code,omitempty"`
	Message string      `json:"message"`
}

func welcomeFrom(s domain.Snapshot) WelcomePayload {
	return WelcomePayload{
		PlayerID:      s.PlayerID,
		Phase:         s.Phase,
		RoundNumber:   s.Round,
		StartingCards: s.StartingCards,
		Hand:          s.Hand,
		Players:       s.Players,
		Turn:          s.Trick,
		LeadingSuit:   s.LeadingSuit,
	}
}

// ErrorEvent builds the unicast error event for a failed request.
func ErrorEvent(recipient string, err error) Event {
	payload := ErrorPayload{Message: "internal error"}
	var domainErr *domain.Error
	if errors.As(err, &domainErr) {
		payload = ErrorPayload{Code: domainErr.Code, Message: domainErr.Message}
	}
	return Event{Kind: EventError, Payload: payload, Recipients: []string{recipient}}
}
