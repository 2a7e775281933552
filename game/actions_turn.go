package game

import "hanabi-server/matcherrors"

// handleTurnAction validates and applies one of the four turn actions. An
// illegal action is rejected to the actor only and leaves the turn in place.
func (m *Match) handleTurnAction(a Action) {
	if !m.State.Playing() {
		m.log.Warn("turn action outside of play", "action", a.Type.String(), "player", a.Player, "state", m.State.String())
		return
	}
	idx := m.indexOf(a.Player)
	if idx < 0 {
		m.log.Warn("turn action from unseated player", "action", a.Type.String(), "player", a.Player)
		return
	}
	if idx != m.Current {
		m.reject(a.Player, matcherrors.ErrNotYourTurn)
		return
	}

	actor := m.Players[idx]
	var err error
	switch a.Type {
	case ActionPlayCard:
		err = m.playCard(actor, a.Position)
	case ActionDiscard:
		err = m.discard(actor, a.Position)
	case ActionColorHint:
		err = m.colorHint(actor, a.Target, a.Color)
	case ActionNumberHint:
		err = m.numberHint(actor, a.Target, a.Rank)
	}
	if err != nil {
		m.reject(actor.Number, err)
		return
	}
	m.endTurn()
}

func (m *Match) playCard(p *Player, pos int) error {
	card, err := p.Hand.Remove(pos)
	if err != nil {
		return err
	}

	success := m.Resources.Board.TryPlay(card)
	if !success {
		m.Resources.AddMistake()
		m.Resources.Discard(card)
	}
	m.Transport.Broadcast(CardPlayedMsg{
		Type:    TypeCardPlayed,
		Player:  p.Number,
		Card:    BuildCardView(card, pos),
		Success: success,
	})

	m.drawReplacement(p)
	m.broadcastDeckRemaining()
	m.broadcastHands()
	m.broadcastResourceCounts()
	return nil
}

func (m *Match) discard(p *Player, pos int) error {
	if !m.Resources.CanDiscard() {
		return matcherrors.ErrHintTokensFull
	}
	card, err := p.Hand.Remove(pos)
	if err != nil {
		return err
	}

	m.Resources.Discard(card)
	m.Transport.Broadcast(CardDiscardedMsg{Type: TypeCardDiscarded, Player: p.Number, Card: BuildCardView(card, pos)})

	m.drawReplacement(p)
	m.broadcastDeckRemaining()
	if err := m.Resources.RegainHint(); err != nil {
		// CanDiscard was checked above.
		m.log.Error("regaining hint token", "err", err)
	}
	m.broadcastHands()
	m.broadcastResourceCounts()
	return nil
}

func (m *Match) colorHint(p *Player, target int, colorName string) error {
	if m.Resources.HintTokens <= 0 {
		return matcherrors.ErrNoHintTokens
	}
	t, err := m.hintTarget(p, target)
	if err != nil {
		return err
	}
	color, err := ParseColor(colorName)
	if err != nil {
		return err
	}
	if err := m.Resources.SpendHint(); err != nil {
		return err
	}

	m.Transport.Broadcast(ColorHintMsg{
		Type:      TypeColorHintGiven,
		From:      p.Number,
		Target:    t.Number,
		Color:     color.String(),
		Positions: t.Hand.PositionsByColor(color),
	})
	m.broadcastResourceCounts()
	return nil
}

func (m *Match) numberHint(p *Player, target int, rank int) error {
	if m.Resources.HintTokens <= 0 {
		return matcherrors.ErrNoHintTokens
	}
	t, err := m.hintTarget(p, target)
	if err != nil {
		return err
	}
	if !ValidRank(rank) {
		return matcherrors.ErrInvalidRank
	}
	if err := m.Resources.SpendHint(); err != nil {
		return err
	}

	m.Transport.Broadcast(NumberHintMsg{
		Type:      TypeNumberHintGiven,
		From:      p.Number,
		Target:    t.Number,
		Rank:      rank,
		Positions: t.Hand.PositionsByRank(rank),
	})
	m.broadcastResourceCounts()
	return nil
}

func (m *Match) hintTarget(actor *Player, target int) (*Player, error) {
	t := m.playerByNumber(target)
	if t == nil || t == actor {
		return nil, matcherrors.ErrInvalidTarget
	}
	return t, nil
}

func (m *Match) drawReplacement(p *Player) {
	if m.Resources.Deck.Empty() {
		return
	}
	p.Hand.Add(m.Resources.Deck.Draw())
}
