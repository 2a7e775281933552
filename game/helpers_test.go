package game

import (
	"testing"

	"hanabi-server/config"
)

// recorded is one message seen by the recording transport. To is -1 for broadcasts.
type recorded struct {
	To        int
	Excluding []int
	Msg       Message
}

// recordingTransport is a test double for Transport that keeps every message.
type recordingTransport struct {
	msgs []recorded
}

func (r *recordingTransport) SendTo(player int, msg Message) {
	r.msgs = append(r.msgs, recorded{To: player, Msg: msg})
}

func (r *recordingTransport) Broadcast(msg Message, excluding ...int) {
	r.msgs = append(r.msgs, recorded{To: -1, Excluding: excluding, Msg: msg})
}

func (r *recordingTransport) reset() {
	r.msgs = nil
}

// types returns the message types in the order they were sent.
func (r *recordingTransport) types() []string {
	out := make([]string, len(r.msgs))
	for i, m := range r.msgs {
		out[i] = m.Msg.MessageType()
	}
	return out
}

// ofType returns all recorded messages with the given type.
func (r *recordingTransport) ofType(typ string) []recorded {
	var out []recorded
	for _, m := range r.msgs {
		if m.Msg.MessageType() == typ {
			out = append(out, m)
		}
	}
	return out
}

func testConfig() *config.Config {
	cfg := config.Defaults()
	cfg.TurnLimitSec = 0
	return cfg
}

var testNames = []string{"Alice", "Bob", "Carol", "Dave", "Erin"}

// c builds a card with no particular ID, for stacking decks.
func c(color Color, rank int) Card {
	return Card{Color: color, Rank: rank}
}

// stackDeck returns a full 50-card deck whose first draws are top, in order.
// Cards are taken from a real deck so IDs stay unique.
func stackDeck(t *testing.T, top ...Card) []Card {
	t.Helper()
	pool := FullDeck()
	drawn := make([]Card, 0, len(top))
	for _, want := range top {
		found := -1
		for i, card := range pool {
			if card.Color == want.Color && card.Rank == want.Rank {
				found = i
				break
			}
		}
		if found < 0 {
			t.Fatalf("stackDeck: no %v left in deck", want)
		}
		drawn = append(drawn, pool[found])
		pool = append(pool[:found], pool[found+1:]...)
	}
	deck := append([]Card{}, pool...)
	for i := len(drawn) - 1; i >= 0; i-- {
		deck = append(deck, drawn[i])
	}
	return deck
}

// newTestMatch seats n players, optionally with a stacked deck, without
// starting the match.
func newTestMatch(t *testing.T, n int, deck []Card) (*Match, *recordingTransport) {
	t.Helper()
	m := NewMatch("test-1", testConfig())
	rec := &recordingTransport{}
	m.Transport = rec
	if deck != nil {
		m.newResources = func() *Resources { return NewResourcesWithDeck(NewDeckFromCards(deck)) }
	}
	for i := 0; i < n; i++ {
		reply := make(chan error, 1)
		m.handle(Action{Type: ActionJoin, Player: i, Join: NewPlayer(i, testNames[i], nil), Reply: reply})
		if err := <-reply; err != nil {
			t.Fatalf("join %d: %v", i, err)
		}
	}
	return m, rec
}

// startTestMatch seats n players and has all of them signal ready.
func startTestMatch(t *testing.T, n int, deck []Card) (*Match, *recordingTransport) {
	t.Helper()
	m, rec := newTestMatch(t, n, deck)
	for i := 0; i < n; i++ {
		m.handle(Action{Type: ActionReady, Player: i})
	}
	if m.State != InProgress {
		t.Fatalf("expected match in progress, got %s", m.State)
	}
	rec.reset()
	return m, rec
}

func currentNumber(m *Match) int {
	return m.Players[m.Current].Number
}

// nextNumber returns the player after the turn-holder.
func nextNumber(m *Match) int {
	return m.Players[(m.Current+1)%len(m.Players)].Number
}

func assertConservation(t *testing.T, m *Match) {
	t.Helper()
	if got := m.Resources.CardsAccountedFor(m.hands()...); got != DeckSize {
		t.Fatalf("expected %d cards accounted for, got %d", DeckSize, got)
	}
}

func lastRejection(t *testing.T, rec *recordingTransport) recorded {
	t.Helper()
	rej := rec.ofType(TypeActionRejected)
	if len(rej) == 0 {
		t.Fatal("expected an action_rejected message")
	}
	return rej[len(rej)-1]
}

// positionOfID returns the current position of the card with a stable id, or -1.
func positionOfID(h *Hand, id int) int {
	for i, c := range h.Cards() {
		if c.ID == id {
			return i
		}
	}
	return -1
}
