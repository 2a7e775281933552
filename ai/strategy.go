package ai

import (
	"math/rand"

	"hanabi-server/game"
)

// decide picks the bot's action for its turn. In order of preference it plays
// a card hints prove playable, hints someone about a playable card, discards
// its least-known card, or spends a hint because discarding is not allowed.
func decide(v *view, rng *rand.Rand, hintChance int) game.Action {
	for pos, k := range v.known[v.me] {
		if v.provenPlayable(k) {
			return game.Action{Type: game.ActionPlayCard, Player: v.me, Position: pos}
		}
	}

	if v.hintTokens > 0 && rng.Intn(100) < clampChance(hintChance) {
		if a, ok := v.usefulHint(); ok {
			return a
		}
	}

	if v.hintTokens < game.MaxHintTokens {
		return game.Action{Type: game.ActionDiscard, Player: v.me, Position: v.discardPosition()}
	}

	if a, ok := v.usefulHint(); ok {
		return a
	}
	return v.anyHint()
}

// fallback is an action that is legal whatever the bot misjudged: a hint
// while tokens remain, otherwise a discard of the first card.
func fallback(v *view) game.Action {
	if v.hintTokens > 0 && len(v.others()) > 0 {
		return v.anyHint()
	}
	return game.Action{Type: game.ActionDiscard, Player: v.me, Position: 0}
}

// provenPlayable reports whether hinted facts alone make the card playable.
func (v *view) provenPlayable(k knowledge) bool {
	if k.rank == 0 {
		return false
	}
	if k.color != "" {
		return v.piles[k.color]+1 == k.rank
	}
	for _, c := range game.Colors {
		if v.piles[c.String()]+1 != k.rank {
			return false
		}
	}
	return true
}

func (v *view) playable(c game.CardView) bool {
	return v.piles[c.Color]+1 == c.Rank
}

// others lists the other players in turn order, starting after the bot.
func (v *view) others() []int {
	me := -1
	for i, n := range v.order {
		if n == v.me {
			me = i
			break
		}
	}
	var out []int
	for i := 1; i < len(v.order); i++ {
		out = append(out, v.order[(me+i+len(v.order))%len(v.order)])
	}
	return out
}

// usefulHint finds a playable card its holder does not yet know is playable
// and names the missing fact: the rank alone when that already proves it,
// otherwise whichever of color and rank is still unknown.
func (v *view) usefulHint() (game.Action, bool) {
	for _, target := range v.others() {
		known := v.known[target]
		for pos, card := range v.hands[target] {
			if !v.playable(card) {
				continue
			}
			var k knowledge
			if pos < len(known) {
				k = known[pos]
			}
			if v.provenPlayable(k) {
				continue
			}
			byRank := knowledge{color: k.color, rank: card.Rank}
			switch {
			case k.rank == 0 && v.provenPlayable(byRank):
				return game.Action{Type: game.ActionNumberHint, Player: v.me, Target: target, Rank: card.Rank}, true
			case k.color == "":
				return game.Action{Type: game.ActionColorHint, Player: v.me, Target: target, Color: card.Color}, true
			default:
				return game.Action{Type: game.ActionNumberHint, Player: v.me, Target: target, Rank: card.Rank}, true
			}
		}
	}
	return game.Action{}, false
}

// anyHint names the rank of the next player's first card, or an empty color
// hint when that hand is unknown.
func (v *view) anyHint() game.Action {
	others := v.others()
	if len(others) == 0 {
		return game.Action{Type: game.ActionDiscard, Player: v.me, Position: 0}
	}
	target := others[0]
	if hand := v.hands[target]; len(hand) > 0 {
		return game.Action{Type: game.ActionNumberHint, Player: v.me, Target: target, Rank: hand[0].Rank}
	}
	return game.Action{Type: game.ActionColorHint, Player: v.me, Target: target, Color: game.Red.String()}
}

// discardPosition returns the oldest card nothing is known about, or the
// oldest card if every one has been hinted.
func (v *view) discardPosition() int {
	for pos, k := range v.known[v.me] {
		if k.color == "" && k.rank == 0 {
			return pos
		}
	}
	return 0
}

func clampChance(c int) int {
	if c < 0 {
		return 0
	}
	if c > 100 {
		return 100
	}
	return c
}
