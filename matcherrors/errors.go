package matcherrors

import "errors"

// Sentinel errors shared by the game, lobby and ws packages. The error text of
// the rule violations is sent to the acting player as the rejection reason.
var (
	ErrNotYourTurn     = errors.New("it is not your turn")
	ErrInvalidPosition = errors.New("no card at that position")
	ErrNoHintTokens    = errors.New("no hint tokens left")
	ErrHintTokensFull  = errors.New("hint tokens are already full")
	ErrInvalidTarget   = errors.New("hint target must be another player in the match")
	ErrInvalidColor    = errors.New("unknown color")
	ErrInvalidRank     = errors.New("rank must be between 1 and 5")

	ErrMatchStarted = errors.New("match already started")
	ErrMatchFull    = errors.New("match is full")
	ErrNotInMatch   = errors.New("player is not in this match")
)
