package game

import (
	"fmt"
	"math/rand"
	"strings"

	"hanabi-server/matcherrors"
)

// Color identifies one of the five suits.
type Color int

const (
	Red Color = iota
	Yellow
	Green
	Blue
	White
)

// Colors lists every suit in board order.
var Colors = [...]Color{Red, Yellow, Green, Blue, White}

// MaxRank is the highest rank of a suit.
const MaxRank = 5

// DeckSize is the number of cards in a full deck.
const DeckSize = 50

// ranksPerColor is the distribution of ranks within one suit.
var ranksPerColor = [...]int{1, 1, 1, 2, 2, 3, 3, 4, 4, 5}

// String returns the protocol string for a Color.
func (c Color) String() string {
	switch c {
	case Red:
		return "red"
	case Yellow:
		return "yellow"
	case Green:
		return "green"
	case Blue:
		return "blue"
	case White:
		return "white"
	default:
		return "unknown"
	}
}

// ParseColor converts a protocol string into a Color.
func ParseColor(s string) (Color, error) {
	for _, c := range Colors {
		if strings.EqualFold(s, c.String()) {
			return c, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", matcherrors.ErrInvalidColor, s)
}

// ValidRank reports whether r is a rank printed on a card.
func ValidRank(r int) bool {
	return r >= 1 && r <= MaxRank
}

// Card is an immutable color/rank pair. ID is stable for the whole match and
// unique within a deck, so a card can be followed as it moves between hands,
// the tray and the board.
type Card struct {
	ID    int
	Color Color
	Rank  int
}

func (c Card) String() string {
	return fmt.Sprintf("%s %d", c.Color, c.Rank)
}

// Deck is the draw pile. Cards are drawn from the end of the slice.
type Deck struct {
	cards []Card
}

// FullDeck returns the 50 cards of a deck in a fixed, unshuffled order.
func FullDeck() []Card {
	cards := make([]Card, 0, DeckSize)
	for _, color := range Colors {
		for _, rank := range ranksPerColor {
			cards = append(cards, Card{ID: len(cards), Color: color, Rank: rank})
		}
	}
	return cards
}

// NewDeck creates a full deck shuffled once with rng. A nil rng uses the
// package-level source.
func NewDeck(rng *rand.Rand) *Deck {
	cards := FullDeck()
	shuffle := rand.Shuffle
	if rng != nil {
		shuffle = rng.Shuffle
	}
	shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
	return &Deck{cards: cards}
}

// NewDeckFromCards creates a deck with a predetermined order. The last card
// is drawn first.
func NewDeckFromCards(cards []Card) *Deck {
	cp := make([]Card, len(cards))
	copy(cp, cards)
	return &Deck{cards: cp}
}

// Len returns the number of cards left to draw.
func (d *Deck) Len() int {
	return len(d.cards)
}

// Empty reports whether the deck has run out.
func (d *Deck) Empty() bool {
	return len(d.cards) == 0
}

// Draw removes and returns the top card. Callers must check Empty first;
// drawing from an empty deck is a bug and panics.
func (d *Deck) Draw() Card {
	n := len(d.cards)
	if n == 0 {
		panic("game: draw from empty deck")
	}
	card := d.cards[n-1]
	d.cards = d.cards[:n-1]
	return card
}
