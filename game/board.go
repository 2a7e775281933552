package game

// Board holds the five build piles. Each pile is represented by the rank of
// its top card; 0 means nothing has been played in that color yet.
type Board struct {
	piles [len(Colors)]int
}

// NewBoard creates an empty board.
func NewBoard() *Board {
	return &Board{}
}

// TryPlay adds card to its pile if it is the next rank in sequence.
// On failure the board is unchanged; the caller decides where the card goes.
func (b *Board) TryPlay(card Card) bool {
	if card.Color < Red || card.Color > White {
		return false
	}
	if card.Rank != b.piles[card.Color]+1 {
		return false
	}
	b.piles[card.Color]++
	return true
}

// Pile returns the top rank of the pile for color c.
func (b *Board) Pile(c Color) int {
	return b.piles[c]
}

// TotalPlayed returns the number of cards successfully played, 0 to 25.
func (b *Board) TotalPlayed() int {
	total := 0
	for _, rank := range b.piles {
		total += rank
	}
	return total
}

// Complete reports whether every pile has reached MaxRank.
func (b *Board) Complete() bool {
	return b.TotalPlayed() == len(Colors)*MaxRank
}

// Piles returns a snapshot keyed by the color's protocol string.
func (b *Board) Piles() map[string]int {
	out := make(map[string]int, len(Colors))
	for _, c := range Colors {
		out[c.String()] = b.piles[c]
	}
	return out
}
