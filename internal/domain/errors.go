package domain

import (
	"errors"
	"fmt"
)

// Code is the machine-readable reason of a validation failure.
type Code string

const (
	CodeDuplicatePlayer    Code = "duplicate_player"
	CodeUnknownPlayer      Code = "unknown_player"
	CodeCardNotInHand      Code = "card_not_in_hand"
	CodeInvalidPrediction  Code = "invalid_prediction"
	CodeTrickNotFull       Code = "trick_not_full"
	CodeRoundNotOver       Code = "round_not_over"
	CodeMatchAlreadyOver   Code = "match_already_over"
	CodeMatchNotStarted    Code = "match_not_started"
	CodeMatchInProgress    Code = "match_in_progress"
	CodeMatchFull          Code = "match_full"
	CodeNotEnoughPlayers   Code = "not_enough_players"
	CodeAlreadyPredicted   Code = "already_predicted"
	CodePredictionsClosed  Code = "predictions_closed"
	CodePredictionsPending Code = "predictions_pending"
	CodeAlreadyPlayed      Code = "already_played"
	CodeDeckExhausted      Code = "deck_exhausted"
)

// Error is a recoverable validation failure. It never implies a state change.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches errors by code so detailed variants still satisfy errors.Is.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// Detail returns a copy of e with a more specific message.
func (e *Error) Detail(format string, args ...any) *Error {
	return &Error{Code: e.Code, Message: fmt.Sprintf(format, args...)}
}

var (
	ErrDuplicatePlayer    = &Error{Code: CodeDuplicatePlayer, Message: "player already in match"}
	ErrUnknownPlayer      = &Error{Code: CodeUnknownPlayer, Message: "player not found"}
	ErrCardNotInHand      = &Error{Code: CodeCardNotInHand, Message: "card not in hand"}
	ErrInvalidPrediction  = &Error{Code: CodeInvalidPrediction, Message: "invalid prediction"}
	ErrTrickNotFull       = &Error{Code: CodeTrickNotFull, Message: "trick is not complete"}
	ErrRoundNotOver       = &Error{Code: CodeRoundNotOver, Message: "current round is not over"}
	ErrMatchAlreadyOver   = &Error{Code: CodeMatchAlreadyOver, Message: "match is already over"}
	ErrMatchNotStarted    = &Error{Code: CodeMatchNotStarted, Message: "match not started"}
	ErrMatchInProgress    = &Error{Code: CodeMatchInProgress, Message: "match already in progress"}
	ErrMatchFull          = &Error{Code: CodeMatchFull, Message: "match is full"}
	ErrNotEnoughPlayers   = &Error{Code: CodeNotEnoughPlayers, Message: "not enough players to start"}
	ErrAlreadyPredicted   = &Error{Code: CodeAlreadyPredicted, Message: "prediction already made this round"}
	ErrPredictionsClosed  = &Error{Code: CodePredictionsClosed, Message: "predictions are closed for this round"}
	ErrPredictionsPending = &Error{Code: CodePredictionsPending, Message: "waiting for every player to predict"}
	ErrAlreadyPlayed      = &Error{Code: CodeAlreadyPlayed, Message: "card already played in this trick"}
	ErrDeckExhausted      = &Error{Code: CodeDeckExhausted, Message: "not enough cards left in deck"}
)

// InvariantError reports a state that prior validation should have made impossible.
type InvariantError struct {
	Op     string
	Detail string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("invariant violated in %s: %s", e.Op, e.Detail)
}

func invariant(op, format string, args ...any) error {
	return &InvariantError{Op: op, Detail: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a recoverable validation failure.
func IsValidation(err error) bool {
	var domainErr *Error
	return errors.As(err, &domainErr)
}

// IsInvariant reports whether err is a programmer-invariant violation.
func IsInvariant(err error) bool {
	var invErr *InvariantError
	return errors.As(err, &invErr)
}
