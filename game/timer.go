package game

import "time"

// cancelTurnTimer closes the turn timer cancel channel so the timer goroutine exits. Safe if already nil.
func (m *Match) cancelTurnTimer() {
	if m.turnTimerCancel != nil {
		close(m.turnTimerCancel)
		m.turnTimerCancel = nil
	}
	m.turnEndsAt = time.Time{}
}

// startTurnTimer starts a timer for the current turn. If it expires, ActionTurnTimeout is sent.
// No-op if Config.TurnLimitSec <= 0. Cancels any existing turn timer first.
func (m *Match) startTurnTimer() {
	if m.Config.TurnLimitSec <= 0 {
		return
	}
	m.cancelTurnTimer()
	m.turnSeq++
	seq := m.turnSeq
	limit := time.Duration(m.Config.TurnLimitSec) * time.Second
	m.turnEndsAt = time.Now().Add(limit)
	m.turnTimerCancel = make(chan struct{})
	cancel := m.turnTimerCancel
	go func() {
		select {
		case <-time.After(limit):
			select {
			case m.Actions <- Action{Type: ActionTurnTimeout, turnSeq: seq}:
			case <-m.Done:
			}
		case <-cancel:
		}
	}()
}

// handleTurnTimeout passes the turn for a player who ran out of time.
func (m *Match) handleTurnTimeout(seq int) {
	// Timer may belong to a turn that already ended.
	if !m.State.Playing() || seq != m.turnSeq || m.turnTimerCancel == nil {
		return
	}
	m.cancelTurnTimer()
	p := m.Players[m.Current]
	m.log.Info("turn timed out", "player", p.Number)
	m.Transport.Broadcast(TurnTimeoutMsg{Type: TypeTurnTimeout, Player: p.Number})
	m.endTurn()
}
