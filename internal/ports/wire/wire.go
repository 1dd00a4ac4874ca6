// Package wire is the JSON framing shared by the transports: inbound
// {"action": ...} requests and outbound {"event": ..., "data": ...} envelopes.
package wire

import (
	"bytes"
	"encoding/json"
	"strings"

	"bisca/internal/app"
	"bisca/internal/domain"
)

// Frame is one inbound request.
type Frame struct {
	Action     string       `json:"action"`
	Card       *CardFrame `json:"card,omitempty"`
	Prediction *int       `json:"prediction,omitempty"`
}

// CardFrame is a card as sent by a client. Both fields are required.
type CardFrame struct {
	Suit *domain.Suit `json:"suit"`
	Rank *domain.Rank `json:"rank"`
}

// Envelope is one outbound event.
type Envelope struct {
	Event app.EventKind `json:"event"`
	Data  any           `json:"data"`
}

// Older clients send start_game and end_turn.
var actionAliases = map[string]string{
	"start_game": "start_match",
	"end_turn":   "end_trick",
}

// DecodeAction parses a complete {"action": ...} frame.
func DecodeAction(data []byte) (app.Action, error) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, app.ErrMalformedAction.Detail("invalid frame: %v", err)
	}
	return f.ToAction()
}

// DecodeNamed parses an action body whose name travels out of band, as with
// Nakama op codes.
func DecodeNamed(name string, data []byte) (app.Action, error) {
	var f Frame
	if len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, app.ErrMalformedAction.Detail("invalid %s payload: %v", name, err)
		}
	}
	f.Action = name
	return f.ToAction()
}

// ToAction maps the frame onto the closed action set.
func (f Frame) ToAction() (app.Action, error) {
	name := strings.ToLower(strings.TrimSpace(f.Action))
	if alias, ok := actionAliases[name]; ok {
		name = alias
	}
	switch name {
	case "start_match":
		return app.StartMatch{}, nil
	case "play_card":
		if f.Card == nil {
			return nil, app.ErrMalformedAction.Detail("play_card requires a card")
		}
		if f.Card.Suit == nil || f.Card.Rank == nil {
			return nil, app.ErrMalformedAction.Detail("play_card requires both suit and rank")
		}
		return app.PlayCard{Card: domain.Card{Suit: *f.Card.Suit, Rank: *f.Card.Rank}}, nil
	case "make_prediction":
		if f.Prediction == nil {
			return nil, app.ErrMalformedAction.Detail("make_prediction requires a prediction")
		}
		return app.MakePrediction{Value: *f.Prediction}, nil
	case "end_trick":
		return app.EndTrick{}, nil
	case "next_round":
		return app.NextRound{}, nil
	case "":
		return nil, app.ErrMalformedAction.Detail("missing action")
	default:
		return nil, app.ErrMalformedAction.Detail("unknown action %q", f.Action)
	}
}

// EncodeEvent renders ev as an envelope.
func EncodeEvent(ev app.Event) ([]byte, error) {
	return json.Marshal(Envelope{Event: ev.Kind, Data: ev.Payload})
}

// EncodePayload renders only the event data, for transports that carry the
// event kind out of band.
func EncodePayload(ev app.Event) ([]byte, error) {
	return json.Marshal(ev.Payload)
}
