package ai

import (
	"context"
	"encoding/json"
	"log/slog"
	"math/rand"
	"time"

	"hanabi-server/config"
	"hanabi-server/game"
)

// UserIDPrefix marks bot seats in stored results.
const UserIDPrefix = "ai:"

// knowledge is what hints have revealed about one card in a hand.
type knowledge struct {
	color string
	rank  int
}

// view is the table as a seated player sees it: every hand but its own, and
// everything hinted so far.
type view struct {
	me         int
	order      []int                   // player numbers in turn order
	hands      map[int][]game.CardView // other players' hands
	known      map[int][]knowledge     // hinted facts per player, by position
	piles      map[string]int
	hintTokens int
	deckCount  int
}

func newView(me int) *view {
	return &view{
		me:         me,
		hands:      make(map[int][]game.CardView),
		known:      make(map[int][]knowledge),
		piles:      make(map[string]int),
		hintTokens: game.MaxHintTokens,
		deckCount:  game.DeckSize,
	}
}

// apply updates the view from one outbound message. It returns the message type.
func (v *view) apply(data []byte) string {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return ""
	}

	switch envelope.Type {
	case game.TypeMatchStarted:
		var msg game.MatchStartedMsg
		if json.Unmarshal(data, &msg) != nil {
			break
		}
		size := game.HandSizeFor(len(msg.Players))
		v.order = v.order[:0]
		for _, p := range msg.Players {
			v.order = append(v.order, p.Number)
			v.known[p.Number] = make([]knowledge, size)
		}
	case game.TypeHandUpdate:
		var msg game.HandUpdateMsg
		if json.Unmarshal(data, &msg) == nil {
			v.hands[msg.Player] = msg.Cards
		}
	case game.TypeCardPlayed:
		var msg game.CardPlayedMsg
		if json.Unmarshal(data, &msg) == nil {
			v.removeKnown(msg.Player, msg.Card.Position)
		}
	case game.TypeCardDiscarded:
		var msg game.CardDiscardedMsg
		if json.Unmarshal(data, &msg) == nil {
			v.removeKnown(msg.Player, msg.Card.Position)
		}
	case game.TypeColorHintGiven:
		var msg game.ColorHintMsg
		if json.Unmarshal(data, &msg) != nil {
			break
		}
		k := v.known[msg.Target]
		for _, pos := range msg.Positions {
			if pos >= 0 && pos < len(k) {
				k[pos].color = msg.Color
			}
		}
	case game.TypeNumberHintGiven:
		var msg game.NumberHintMsg
		if json.Unmarshal(data, &msg) != nil {
			break
		}
		k := v.known[msg.Target]
		for _, pos := range msg.Positions {
			if pos >= 0 && pos < len(k) {
				k[pos].rank = msg.Rank
			}
		}
	case game.TypeResourceCounts:
		var msg game.ResourceCountsMsg
		if json.Unmarshal(data, &msg) == nil {
			v.hintTokens = msg.HintTokens
		}
	case game.TypeBoardState:
		var msg game.BoardStateMsg
		if json.Unmarshal(data, &msg) == nil {
			v.piles = msg.Piles
		}
	case game.TypeDeckRemaining:
		var msg game.DeckRemainingMsg
		if json.Unmarshal(data, &msg) == nil {
			v.deckCount = msg.Count
		}
	case game.TypePlayerLeft:
		var msg game.PlayerLeftMsg
		if json.Unmarshal(data, &msg) != nil {
			break
		}
		for i, n := range v.order {
			if n == msg.Player {
				v.order = append(v.order[:i], v.order[i+1:]...)
				break
			}
		}
		delete(v.hands, msg.Player)
		delete(v.known, msg.Player)
	}
	return envelope.Type
}

// removeKnown drops the facts for a card that left player's hand. The
// replacement, if the deck still had one, arrives at the end with nothing known.
func (v *view) removeKnown(player, pos int) {
	k := v.known[player]
	if pos < 0 || pos >= len(k) {
		return
	}
	k = append(k[:pos], k[pos+1:]...)
	if v.deckCount > 0 {
		k = append(k, knowledge{})
	}
	v.known[player] = k
}

// Run plays seat number in match m, reading the seat's outbound messages from
// send. It runs until the match ends, the channel is closed or ctx is cancelled.
func Run(ctx context.Context, send <-chan []byte, m *game.Match, number int, params *config.AIParams) {
	log := slog.With("tag", "ai", "name", params.Name, "match", m.ID)
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	v := newView(number)
	myTurn, retried := false, false

	for {
		var data []byte
		select {
		case <-ctx.Done():
			return
		case <-m.Done:
			return
		case d, ok := <-send:
			if !ok {
				return
			}
			data = d
		}

		var turnPlayer struct {
			Player int `json:"player"`
		}
		switch v.apply(data) {
		case game.TypeGameOver:
			log.Debug("match over, leaving")
			return
		case game.TypeTurnStarted:
			if json.Unmarshal(data, &turnPlayer) != nil {
				continue
			}
			myTurn, retried = turnPlayer.Player == number, false
			if !myTurn {
				continue
			}
			if !wait(ctx, m, delay(rng, params)) {
				return
			}
			a := decide(v, rng, params.HintChance)
			log.Debug("acting", "action", a.Type.String(), "position", a.Position, "target", a.Target, "color", a.Color, "rank", a.Rank)
			m.Submit(a)
		case game.TypeActionRejected:
			// One retry per turn; a second rejection waits for the turn timer.
			if !myTurn || retried {
				continue
			}
			retried = true
			a := fallback(v)
			log.Warn("action rejected, falling back", "action", a.Type.String())
			m.Submit(a)
		}
	}
}

// delay returns a human-like pause drawn from the profile's range.
func delay(rng *rand.Rand, params *config.AIParams) time.Duration {
	ms := params.DelayMinMS
	if params.DelayMaxMS > params.DelayMinMS {
		ms += rng.Intn(params.DelayMaxMS - params.DelayMinMS)
	}
	if ms < 0 {
		ms = 0
	}
	return time.Duration(ms) * time.Millisecond
}

// wait sleeps for d unless the match or ctx ends first.
func wait(ctx context.Context, m *game.Match, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	select {
	case <-time.After(d):
		return true
	case <-ctx.Done():
		return false
	case <-m.Done:
		return false
	}
}
