package game

import "hanabi-server/matcherrors"

// Hand is the ordered set of cards a player holds. Positions are slice
// indices: removing a card shifts the cards after it one position left, and
// a replacement is appended at the end.
type Hand struct {
	cards []Card
}

// HandSizeFor returns the starting hand size for a match with n players.
func HandSizeFor(n int) int {
	if n >= 4 {
		return 4
	}
	return 5
}

// Len returns the number of cards in the hand.
func (h *Hand) Len() int {
	return len(h.cards)
}

// Add appends a card to the end of the hand.
func (h *Hand) Add(c Card) {
	h.cards = append(h.cards, c)
}

// At returns the card at position pos.
func (h *Hand) At(pos int) (Card, error) {
	if pos < 0 || pos >= len(h.cards) {
		return Card{}, matcherrors.ErrInvalidPosition
	}
	return h.cards[pos], nil
}

// Remove takes the card at pos out of the hand.
func (h *Hand) Remove(pos int) (Card, error) {
	c, err := h.At(pos)
	if err != nil {
		return Card{}, err
	}
	h.cards = append(h.cards[:pos], h.cards[pos+1:]...)
	return c, nil
}

// PositionsByColor returns the positions of all cards of color c.
func (h *Hand) PositionsByColor(c Color) []int {
	positions := []int{}
	for i, card := range h.cards {
		if card.Color == c {
			positions = append(positions, i)
		}
	}
	return positions
}

// PositionsByRank returns the positions of all cards of rank r.
func (h *Hand) PositionsByRank(r int) []int {
	positions := []int{}
	for i, card := range h.cards {
		if card.Rank == r {
			positions = append(positions, i)
		}
	}
	return positions
}

// Cards returns a copy of the hand in position order.
func (h *Hand) Cards() []Card {
	cp := make([]Card, len(h.cards))
	copy(cp, h.cards)
	return cp
}

// TakeAll empties the hand and returns what it held.
func (h *Hand) TakeAll() []Card {
	cards := h.cards
	h.cards = nil
	return cards
}
