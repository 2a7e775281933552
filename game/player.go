package game

// Player is a seat in a match. Number is assigned on join and never reused
// within the match; turn order is the order of Match.Players.
type Player struct {
	Number int
	Name   string
	UserID string
	Ready  bool
	Hand   *Hand
	Send   chan []byte // reference to the client's send channel
}

// NewPlayer creates a Player with an empty hand.
func NewPlayer(number int, name string, send chan []byte) *Player {
	return &Player{
		Number: number,
		Name:   name,
		Hand:   &Hand{},
		Send:   send,
	}
}
