package game

import (
	"math/rand"

	"hanabi-server/matcherrors"
)

const (
	// MaxHintTokens is both the starting and the maximum number of hint tokens.
	MaxHintTokens = 8
	// MaxMistakes ends the match with a score of zero.
	MaxMistakes = 3
	// countdownNotStarted marks a final round that has not begun.
	countdownNotStarted = -1
)

// EndReason says why a match ended. The empty reason means it has not.
type EndReason string

const (
	EndNone          EndReason = ""
	EndMistakes      EndReason = "mistakes"
	EndPerfect       EndReason = "perfect"
	EndDeckExhausted EndReason = "deck_exhausted"
	EndAbandoned     EndReason = "abandoned"
)

// Resources is the shared state of a running match: the draw pile, the
// discard tray, the build board and the hint and mistake counters. Only the
// match goroutine mutates it.
type Resources struct {
	Deck       *Deck
	Tray       []Card
	Board      *Board
	HintTokens int
	Mistakes   int

	// FinalRoundCountdown is -1 until the deck runs out, then the number of
	// turns left before the match ends.
	FinalRoundCountdown int
}

// NewResources creates the resources for a fresh match with a shuffled deck.
func NewResources(rng *rand.Rand) *Resources {
	return NewResourcesWithDeck(NewDeck(rng))
}

// NewResourcesWithDeck creates resources around a prepared deck.
func NewResourcesWithDeck(deck *Deck) *Resources {
	return &Resources{
		Deck:                deck,
		Tray:                []Card{},
		Board:               NewBoard(),
		HintTokens:          MaxHintTokens,
		FinalRoundCountdown: countdownNotStarted,
	}
}

// SpendHint consumes one hint token.
func (r *Resources) SpendHint() error {
	if r.HintTokens <= 0 {
		return matcherrors.ErrNoHintTokens
	}
	r.HintTokens--
	return nil
}

// CanDiscard reports whether a discard would regain a token.
func (r *Resources) CanDiscard() bool {
	return r.HintTokens < MaxHintTokens
}

// RegainHint gives back one hint token.
func (r *Resources) RegainHint() error {
	if !r.CanDiscard() {
		return matcherrors.ErrHintTokensFull
	}
	r.HintTokens++
	return nil
}

// AddMistake records a failed play.
func (r *Resources) AddMistake() {
	if r.Mistakes < MaxMistakes {
		r.Mistakes++
	}
}

// Discard puts a card in the tray.
func (r *Resources) Discard(c Card) {
	r.Tray = append(r.Tray, c)
}

// FinalRound reports whether the countdown has started.
func (r *Resources) FinalRound() bool {
	return r.FinalRoundCountdown != countdownNotStarted
}

// CheckEnd runs once per completed turn and reports whether the match is
// over. It also starts and advances the final-round countdown, so it must not
// be called more than once per turn.
func (r *Resources) CheckEnd(playerCount int) EndReason {
	if r.Mistakes >= MaxMistakes {
		return EndMistakes
	}
	if r.Board.Complete() {
		return EndPerfect
	}
	if r.Deck.Empty() && r.FinalRoundCountdown == countdownNotStarted {
		r.FinalRoundCountdown = playerCount
		return EndNone
	}
	if r.FinalRoundCountdown > 0 {
		r.FinalRoundCountdown--
	}
	if r.FinalRoundCountdown == 0 {
		return EndDeckExhausted
	}
	return EndNone
}

// ClampCountdown keeps a running countdown within the number of players left.
func (r *Resources) ClampCountdown(playerCount int) {
	if r.FinalRound() && r.FinalRoundCountdown > playerCount {
		r.FinalRoundCountdown = playerCount
	}
}

// Score is the total played, or zero once the mistakes ran out.
func (r *Resources) Score() int {
	if r.Mistakes >= MaxMistakes {
		return 0
	}
	return r.Board.TotalPlayed()
}

// CardsAccountedFor counts every card in the deck, the hands, the tray and
// on the board. Outside of a single action it is always DeckSize.
func (r *Resources) CardsAccountedFor(hands ...*Hand) int {
	n := r.Deck.Len() + len(r.Tray) + r.Board.TotalPlayed()
	for _, h := range hands {
		n += h.Len()
	}
	return n
}
