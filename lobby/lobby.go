package lobby

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"hanabi-server/ai"
	"hanabi-server/config"
	"hanabi-server/game"
	"hanabi-server/matcherrors"
	"hanabi-server/storage"
)

const recordTimeout = 5 * time.Second

// Lobby hands out seats. It keeps one match open for joining at a time and
// opens a fresh one once that match starts or fills up.
type Lobby struct {
	ctx    context.Context
	config *config.Config
	store  storage.HistoryStore

	mu       sync.Mutex
	open     *game.Match
	nextSeat int

	// fillDelay is how long a lone player waits before bots take the
	// empty seats. Zero disables bots.
	fillDelay time.Duration

	// newMatchID is swapped in tests.
	newMatchID func() string
}

// New creates a lobby. Matches run until they end or ctx is cancelled.
// store may be nil, in which case results are only logged.
func New(ctx context.Context, cfg *config.Config, store storage.HistoryStore) *Lobby {
	return &Lobby{
		ctx:        ctx,
		config:     cfg,
		store:      store,
		fillDelay:  time.Duration(cfg.AIFillSec) * time.Second,
		newMatchID: uuid.NewString,
	}
}

// Seat joins a new player to the open match, opening another one if needed.
func (l *Lobby) Seat(name, userID string, send chan []byte) (*game.Match, *game.Player, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for attempt := 0; attempt < 2; attempt++ {
		if l.open == nil || l.open.Finished() {
			l.openMatch()
		}
		p := game.NewPlayer(l.nextSeat, name, send)
		p.UserID = userID
		err := l.open.Join(p)
		switch {
		case err == nil:
			l.nextSeat++
			return l.open, p, nil
		case errors.Is(err, matcherrors.ErrMatchStarted), errors.Is(err, matcherrors.ErrMatchFull):
			slog.Debug("open match unavailable, opening another", "tag", "lobby", "match", l.open.ID, "err", err)
			l.open = nil
		default:
			return nil, nil, err
		}
	}
	return nil, nil, matcherrors.ErrMatchFull
}

func (l *Lobby) openMatch() {
	m := game.NewMatch(l.newMatchID(), l.config)
	m.OnGameEnd = l.record
	l.open = m
	l.nextSeat = 0
	slog.Info("match opened", "tag", "lobby", "match", m.ID)
	go m.Run(l.ctx)
	if l.fillDelay > 0 && len(l.config.AIProfiles) > 0 {
		go l.fillAfter(m)
	}
}

// fillAfter seats bots in m once fillDelay has passed, if m is still open, has
// a player waiting and is short of MinPlayers. Seats given up by leavers count
// as empty.
func (l *Lobby) fillAfter(m *game.Match) {
	select {
	case <-time.After(l.fillDelay):
	case <-m.Done:
		return
	case <-l.ctx.Done():
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	seated := m.SeatCount()
	if l.open != m || m.Finished() || seated == 0 {
		return
	}
	for i := 0; seated < l.config.MinPlayers && i < len(l.config.AIProfiles); i++ {
		params := l.config.AIProfiles[i]
		send := make(chan []byte, 256)
		p := game.NewPlayer(l.nextSeat, params.Name, send)
		p.UserID = ai.UserIDPrefix + params.Name
		if err := m.Join(p); err != nil {
			slog.Debug("bot could not join", "tag", "lobby", "match", m.ID, "err", err)
			return
		}
		l.nextSeat++
		seated++
		slog.Info("bot seated", "tag", "lobby", "match", m.ID, "player", p.Number, "name", params.Name)
		go ai.Run(l.ctx, send, m, p.Number, &params)
		m.Submit(game.Action{Type: game.ActionReady, Player: p.Number})
	}
}

// record persists a finished match. It runs on the match goroutine.
func (l *Lobby) record(r game.MatchResult) {
	slog.Info("match result", "tag", "lobby", "match", r.MatchID, "score", r.Score, "reason", string(r.Reason), "players", len(r.PlayerNames))
	if l.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()
	if err := l.store.InsertMatchResult(ctx, ToRecord(r)); err != nil {
		slog.Error("storing match result", "tag", "lobby", "match", r.MatchID, "err", err)
	}
}

// ToRecord converts a match result into its stored form.
func ToRecord(r game.MatchResult) storage.MatchRecord {
	return storage.MatchRecord{
		ID:            r.MatchID,
		PlayedAt:      r.EndedAt.UTC().Format(time.RFC3339),
		PlayerNames:   r.PlayerNames,
		PlayerUserIDs: r.UserIDs,
		Score:         r.Score,
		Mistakes:      r.Mistakes,
		HintTokens:    r.HintTokens,
		Turns:         r.Turns,
		EndReason:     string(r.Reason),
	}
}
