package domain

import (
	"fmt"
	"strings"
)

// Phase represents the lifecycle stage of a match.
type Phase string

const (
	// PhaseForming accepts joins; no cards are dealt yet.
	PhaseForming Phase = "forming"
	// PhaseDealing is the transient state while a fresh deck is dealt.
	PhaseDealing Phase = "dealing"
	// PhasePredicting waits for every seated player to declare a prediction.
	PhasePredicting Phase = "predicting"
	// PhasePlaying accepts cards into the current trick.
	PhasePlaying Phase = "playing"
	// PhaseRoundEnd is reached once the round has been scored.
	PhaseRoundEnd Phase = "round_end"
	// PhaseFinished is terminal.
	PhaseFinished Phase = "finished"
)

// Suit is one of the four Italian suits.
type Suit int32

const (
	Bastoni Suit = iota
	Spade
	Coppe
	Denari
)

// Suits lists the suits in deck-building order.
var Suits = [SuitCount]Suit{Denari, Coppe, Spade, Bastoni}

var suitNames = map[Suit]string{
	Denari:  "denari",
	Coppe:   "coppe",
	Spade:   "spade",
	Bastoni: "bastoni",
}

// Strength is the fixed suit ranking used before rank when comparing cards.
func (s Suit) Strength() int {
	switch s {
	case Denari:
		return 4
	case Coppe:
		return 3
	case Spade:
		return 2
	case Bastoni:
		return 1
	default:
		return 0
	}
}

func (s Suit) String() string {
	if name, ok := suitNames[s]; ok {
		return name
	}
	return fmt.Sprintf("suit(%d)", int32(s))
}

// MarshalText encodes the suit by name.
func (s Suit) MarshalText() ([]byte, error) {
	name, ok := suitNames[s]
	if !ok {
		return nil, fmt.Errorf("unknown suit %d", int32(s))
	}
	return []byte(name), nil
}

// UnmarshalText decodes a suit name, case-insensitively.
func (s *Suit) UnmarshalText(text []byte) error {
	want := strings.ToLower(strings.TrimSpace(string(text)))
	for suit, name := range suitNames {
		if name == want {
			*s = suit
			return nil
		}
	}
	return fmt.Errorf("unknown suit %q", string(text))
}

// Rank orders cards within a suit, Due lowest and Asso highest.
type Rank int32

const (
	Due Rank = iota
	Tre
	Quattro
	Cinque
	Sei
	Sette
	Fante
	Cavallo
	Re
	Asso
)

var rankNames = [RankCount]string{"due", "tre", "quattro", "cinque", "sei", "sette", "fante", "cavallo", "re", "asso"}

func (r Rank) valid() bool { return r >= Due && r <= Asso }

func (r Rank) String() string {
	if !r.valid() {
		return fmt.Sprintf("rank(%d)", int32(r))
	}
	return rankNames[r]
}

// MarshalText encodes the rank by name.
func (r Rank) MarshalText() ([]byte, error) {
	if !r.valid() {
		return nil, fmt.Errorf("unknown rank %d", int32(r))
	}
	return []byte(rankNames[r]), nil
}

// UnmarshalText decodes a rank name, case-insensitively.
func (r *Rank) UnmarshalText(text []byte) error {
	want := strings.ToLower(strings.TrimSpace(string(text)))
	for i, name := range rankNames {
		if name == want {
			*r = Rank(i)
			return nil
		}
	}
	return fmt.Errorf("unknown rank %q", string(text))
}

// Card is an immutable suit/rank pair. Equality is structural.
type Card struct {
	Suit Suit `json:"suit"`
	Rank Rank `json:"rank"`
}

func (c Card) String() string {
	return c.Rank.String() + " di " + c.Suit.String()
}

// PlayedCard is one entry of the trick in progress.
type PlayedCard struct {
	UserID string `json:"player_id"`
	Card   Card   `json:"card"`
}

// Player holds the domain state for a seated player.
type Player struct {
	UserID     string
	Hand       []Card
	Prediction *int
	TricksWon  int
}

// RoundOutcome is the scored result of one player's round.
type RoundOutcome struct {
	UserID     string `json:"player_id"`
	Prediction int    `json:"prediction"`
	TricksWon  int    `json:"tricks_won"`
	Success    bool   `json:"success"`
}

// Standing reports the per-player trick count of the round in progress.
type Standing struct {
	UserID    string `json:"player_id"`
	TricksWon int    `json:"tricks_won"`
}

// Snapshot is a copy of the match as seen by one player.
type Snapshot struct {
	PlayerID      string
	Phase         Phase
	Round         int
	StartingCards int
	HandSize      int
	Hand          []Card
	Players       []string
	Trick         []PlayedCard
	LeadingSuit   *Suit
}
