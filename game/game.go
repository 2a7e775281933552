package game

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"hanabi-server/config"
	"hanabi-server/matcherrors"
)

// State is the phase of a match.
type State int

const (
	WaitingForPlayers State = iota
	InProgress
	FinalRound
	Ended
)

// String returns the protocol string for a State.
func (s State) String() string {
	switch s {
	case WaitingForPlayers:
		return "waiting_for_players"
	case InProgress:
		return "in_progress"
	case FinalRound:
		return "final_round"
	case Ended:
		return "ended"
	default:
		return "unknown"
	}
}

// Playing reports whether turns are being taken.
func (s State) Playing() bool {
	return s == InProgress || s == FinalRound
}

// ActionType enumerates the kinds of actions a match can process.
type ActionType int

const (
	ActionJoin ActionType = iota
	ActionReady
	ActionLeave
	ActionPlayCard
	ActionDiscard
	ActionColorHint
	ActionNumberHint
	ActionTurnTimeout // internal: fired when the turn deadline passes
)

// String returns a readable name for logs.
func (t ActionType) String() string {
	switch t {
	case ActionJoin:
		return "join"
	case ActionReady:
		return "ready"
	case ActionLeave:
		return "leave"
	case ActionPlayCard:
		return "play_card"
	case ActionDiscard:
		return "discard"
	case ActionColorHint:
		return "color_hint"
	case ActionNumberHint:
		return "number_hint"
	case ActionTurnTimeout:
		return "turn_timeout"
	default:
		return "unknown"
	}
}

// Action is one inbound request, queued into the match's action channel.
type Action struct {
	Type     ActionType
	Player   int    // number of the acting player
	Position int    // card position (PlayCard, Discard)
	Target   int    // number of the hinted player
	Color    string // hinted color (ColorHint)
	Rank     int    // hinted rank (NumberHint)

	Join  *Player    // seat to add (Join)
	Reply chan error // receives the join outcome; must be buffered

	turnSeq int
}

// MatchResult summarizes a finished match for persistence.
type MatchResult struct {
	MatchID     string
	PlayerNames []string
	UserIDs     []string
	Score       int
	Mistakes    int
	HintTokens  int
	Turns       int
	Reason      EndReason
	EndedAt     time.Time
}

// Match runs one Hanabi session. All state below is owned by the goroutine
// running Run; other goroutines interact only through Submit and Join.
type Match struct {
	ID        string
	Config    *config.Config
	Players   []*Player
	Current   int // index into Players of the turn-holder
	State     State
	Resources *Resources
	Turns     int

	Transport Transport

	Actions  chan Action
	Done     chan struct{}
	doneOnce sync.Once

	seatCount atomic.Int32 // len(Players), readable from any goroutine

	// OnGameEnd is called once when a started match ends.
	OnGameEnd func(MatchResult)

	newResources func() *Resources
	seated       []*Player // players at the moment of dealing, for the result

	turnEndsAt      time.Time
	turnTimerCancel chan struct{}
	turnSeq         int

	log *slog.Logger
}

// NewMatch creates a match waiting for players.
func NewMatch(id string, cfg *config.Config) *Match {
	m := &Match{
		ID:           id,
		Config:       cfg,
		State:        WaitingForPlayers,
		Actions:      make(chan Action, 64),
		Done:         make(chan struct{}),
		newResources: func() *Resources { return NewResources(nil) },
		log:          slog.With("tag", "match", "match", id),
	}
	m.Transport = channelTransport{m: m}
	return m
}

// Run is the match loop. It processes actions one at a time until the match
// ends or ctx is cancelled. It should be run as a goroutine.
func (m *Match) Run(ctx context.Context) {
	defer m.markDone()
	defer m.cancelTurnTimer()

	for {
		select {
		case <-ctx.Done():
			m.log.Info("shutdown signal received, stopping")
			return
		case action := <-m.Actions:
			m.handle(action)
			if m.State == Ended {
				return
			}
		}
	}
}

// markDone closes Done once. finish calls it before the game_over broadcast.
func (m *Match) markDone() {
	m.doneOnce.Do(func() { close(m.Done) })
}

// Submit queues an action. It returns false if the match is no longer running.
func (m *Match) Submit(a Action) bool {
	select {
	case <-m.Done:
		return false
	default:
	}
	select {
	case m.Actions <- a:
		return true
	case <-m.Done:
		return false
	}
}

// Finished reports whether the match has ended or its loop has stopped.
func (m *Match) Finished() bool {
	select {
	case <-m.Done:
		return true
	default:
		return false
	}
}

// SeatCount returns the number of players currently seated.
func (m *Match) SeatCount() int {
	return int(m.seatCount.Load())
}

// Join seats p and waits for the match to accept or refuse.
func (m *Match) Join(p *Player) error {
	reply := make(chan error, 1)
	if !m.Submit(Action{Type: ActionJoin, Player: p.Number, Join: p, Reply: reply}) {
		return matcherrors.ErrMatchStarted
	}
	select {
	case err := <-reply:
		return err
	case <-m.Done:
		select {
		case err := <-reply:
			return err
		default:
			return matcherrors.ErrMatchStarted
		}
	}
}

func (m *Match) handle(a Action) {
	switch a.Type {
	case ActionJoin:
		err := m.handleJoin(a.Join)
		if a.Reply != nil {
			a.Reply <- err
		}
	case ActionReady:
		m.handleReady(a.Player)
	case ActionLeave:
		m.handleLeave(a.Player)
	case ActionPlayCard, ActionDiscard, ActionColorHint, ActionNumberHint:
		m.handleTurnAction(a)
	case ActionTurnTimeout:
		m.handleTurnTimeout(a.turnSeq)
	default:
		m.log.Warn("ignoring unknown action", "action", int(a.Type))
	}
}

func (m *Match) playerByNumber(n int) *Player {
	for _, p := range m.Players {
		if p.Number == n {
			return p
		}
	}
	return nil
}

func (m *Match) indexOf(n int) int {
	for i, p := range m.Players {
		if p.Number == n {
			return i
		}
	}
	return -1
}

func (m *Match) hands() []*Hand {
	hands := make([]*Hand, len(m.Players))
	for i, p := range m.Players {
		hands[i] = p.Hand
	}
	return hands
}

func (m *Match) playerInfos() []PlayerInfo {
	infos := make([]PlayerInfo, len(m.Players))
	for i, p := range m.Players {
		infos[i] = PlayerInfo{Number: p.Number, Name: p.Name, Ready: p.Ready}
	}
	return infos
}

func (m *Match) reject(player int, err error) {
	m.log.Debug("action rejected", "player", player, "reason", err)
	m.Transport.SendTo(player, ActionRejectedMsg{Type: TypeActionRejected, Reason: err.Error()})
}

// start creates the resources, deals and hands the first turn to seat 0.
func (m *Match) start() {
	m.Resources = m.newResources()
	m.State = InProgress
	m.seated = append([]*Player(nil), m.Players...)

	m.Transport.Broadcast(MatchStartedMsg{Type: TypeMatchStarted, MatchID: m.ID, Players: m.playerInfos()})

	size := HandSizeFor(len(m.Players))
	for _, p := range m.Players {
		for i := 0; i < size; i++ {
			p.Hand.Add(m.Resources.Deck.Draw())
		}
	}
	m.log.Info("match started", "players", len(m.Players), "handSize", size)

	m.broadcastHands()
	m.broadcastDeckRemaining()
	m.broadcastResourceCounts()
	m.broadcastBoard()

	m.Current = 0
	m.startTurn()
}

// endTurn runs after every successfully applied action.
func (m *Match) endTurn() {
	m.Turns++
	m.cancelTurnTimer()

	m.broadcastBoard()
	actor := m.Players[m.Current]
	m.Transport.SendTo(actor.Number, TurnEndedMsg{Type: TypeTurnEnded, Player: actor.Number})

	if reason := m.Resources.CheckEnd(len(m.Players)); reason != EndNone {
		m.finish(reason)
		return
	}
	if m.Resources.FinalRound() {
		if m.State == InProgress {
			m.State = FinalRound
			m.log.Info("deck exhausted, final round started", "turnsLeft", m.Resources.FinalRoundCountdown)
		}
		m.broadcastDeckRemaining()
	}

	m.Current = (m.Current + 1) % len(m.Players)
	m.startTurn()
}

func (m *Match) startTurn() {
	m.startTurnTimer()
	msg := TurnStartedMsg{Type: TypeTurnStarted, Player: m.Players[m.Current].Number}
	if !m.turnEndsAt.IsZero() {
		msg.TurnEndsAtUnixMs = m.turnEndsAt.UnixMilli()
		msg.TurnCountdownShowSec = m.Config.TurnCountdownShowSec
	}
	m.Transport.Broadcast(msg)
}

func (m *Match) finish(reason EndReason) {
	m.cancelTurnTimer()
	m.State = Ended
	m.markDone()
	if m.Resources == nil {
		m.log.Info("match closed before dealing")
		return
	}
	score := m.Resources.Score()
	m.log.Info("match ended", "reason", string(reason), "score", score, "turns", m.Turns)
	m.Transport.Broadcast(GameOverMsg{Type: TypeGameOver, Score: score, Reason: string(reason)})

	if m.OnGameEnd != nil {
		m.OnGameEnd(m.result(reason))
	}
}

func (m *Match) result(reason EndReason) MatchResult {
	r := MatchResult{
		MatchID:    m.ID,
		Score:      m.Resources.Score(),
		Mistakes:   m.Resources.Mistakes,
		HintTokens: m.Resources.HintTokens,
		Turns:      m.Turns,
		Reason:     reason,
		EndedAt:    time.Now(),
	}
	for _, p := range m.seated {
		r.PlayerNames = append(r.PlayerNames, p.Name)
		r.UserIDs = append(r.UserIDs, p.UserID)
	}
	return r
}

func (m *Match) broadcastHands() {
	for _, p := range m.Players {
		m.Transport.Broadcast(HandUpdateMsg{Type: TypeHandUpdate, Player: p.Number, Cards: BuildHandView(p.Hand)}, p.Number)
	}
}

func (m *Match) broadcastDeckRemaining() {
	msg := DeckRemainingMsg{Type: TypeDeckRemaining, Count: m.Resources.Deck.Len()}
	if m.Resources.FinalRound() {
		left := m.Resources.FinalRoundCountdown
		msg.FinalRoundLeft = &left
	}
	m.Transport.Broadcast(msg)
}

func (m *Match) broadcastResourceCounts() {
	m.Transport.Broadcast(ResourceCountsMsg{
		Type:       TypeResourceCounts,
		Mistakes:   m.Resources.Mistakes,
		HintTokens: m.Resources.HintTokens,
	})
}

func (m *Match) broadcastBoard() {
	m.Transport.Broadcast(BoardStateMsg{
		Type:  TypeBoardState,
		Piles: m.Resources.Board.Piles(),
		Total: m.Resources.Board.TotalPlayed(),
	})
}

func (m *Match) broadcastLobby() {
	m.Transport.Broadcast(LobbyStateMsg{Type: TypeLobbyState, Players: m.playerInfos(), MinPlayers: m.Config.MinPlayers})
}
