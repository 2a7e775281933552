package game

import "hanabi-server/matcherrors"

func (m *Match) handleJoin(p *Player) error {
	if p == nil {
		return matcherrors.ErrNotInMatch
	}
	if m.State != WaitingForPlayers {
		return matcherrors.ErrMatchStarted
	}
	if len(m.Players) >= m.Config.MaxPlayers {
		return matcherrors.ErrMatchFull
	}
	if p.Hand == nil {
		p.Hand = &Hand{}
	}
	m.Players = append(m.Players, p)
	m.seatCount.Store(int32(len(m.Players)))
	m.log.Info("player joined", "player", p.Number, "name", p.Name, "seated", len(m.Players))

	m.Transport.SendTo(p.Number, JoinedMsg{Type: TypeJoined, MatchID: m.ID, YourNumber: p.Number})
	m.broadcastLobby()
	return nil
}

func (m *Match) handleReady(number int) {
	if m.State != WaitingForPlayers {
		m.log.Warn("ready outside of lobby", "player", number, "state", m.State.String())
		return
	}
	p := m.playerByNumber(number)
	if p == nil {
		m.log.Warn("ready from unseated player", "player", number)
		return
	}
	p.Ready = true
	m.broadcastLobby()
	m.maybeStart()
}

func (m *Match) allReady() bool {
	if len(m.Players) < m.Config.MinPlayers {
		return false
	}
	for _, p := range m.Players {
		if !p.Ready {
			return false
		}
	}
	return true
}

func (m *Match) maybeStart() {
	if m.allReady() {
		m.start()
	}
}

// handleLeave removes a player from turn order. The leaver gets its own
// player_left before the others do. A departing turn-holder hands the turn
// straight to the next remaining player; no turn is counted.
func (m *Match) handleLeave(number int) {
	idx := m.indexOf(number)
	if idx < 0 {
		return
	}
	p := m.Players[idx]
	left := PlayerLeftMsg{Type: TypePlayerLeft, Player: p.Number, Name: p.Name}
	m.Transport.SendTo(p.Number, left)

	m.Players = append(m.Players[:idx], m.Players[idx+1:]...)
	m.seatCount.Store(int32(len(m.Players)))
	m.log.Info("player left", "player", p.Number, "name", p.Name, "remaining", len(m.Players))

	switch {
	case m.State == WaitingForPlayers:
		m.Transport.Broadcast(left)
		if len(m.Players) == 0 {
			m.finish(EndAbandoned)
			return
		}
		m.broadcastLobby()
		m.maybeStart()

	case m.State.Playing():
		for _, c := range p.Hand.TakeAll() {
			m.Resources.Discard(c)
		}
		m.Transport.Broadcast(left)
		if len(m.Players) < 2 {
			m.finish(EndAbandoned)
			return
		}
		m.Resources.ClampCountdown(len(m.Players))

		switch {
		case idx < m.Current:
			m.Current--
		case idx == m.Current:
			if m.Current >= len(m.Players) {
				m.Current = 0
			}
			m.cancelTurnTimer()
			m.startTurn()
		}
	}
}
