package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
	perfectScore    = 25
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS hanabi_match (
	id              UUID PRIMARY KEY,
	played_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	player_names    TEXT[] NOT NULL,
	player_user_ids TEXT[] NOT NULL,
	score           INT NOT NULL,
	mistakes        SMALLINT NOT NULL,
	hint_tokens     SMALLINT NOT NULL,
	turns           INT NOT NULL,
	end_reason      TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_hanabi_match_played_at ON hanabi_match(played_at DESC);
CREATE INDEX IF NOT EXISTS idx_hanabi_match_user_ids ON hanabi_match USING GIN (player_user_ids);
`

// Store persists and retrieves finished matches.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore connects to Postgres and ensures the hanabi_match table exists.
// If databaseURL is empty, NewStore returns (nil, nil) and no persistence occurs.
func NewStore(ctx context.Context, databaseURL string) (*Store, error) {
	if databaseURL == "" {
		return nil, nil
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	for _, q := range strings.Split(strings.TrimSpace(createTableSQL), ";") {
		q = strings.TrimSpace(q)
		if q == "" {
			continue
		}
		if _, err := pool.Exec(ctx, q); err != nil {
			pool.Close()
			return nil, fmt.Errorf("creating schema: %w", err)
		}
	}
	slog.Info("connected to Postgres", "tag", "storage")
	return &Store{pool: pool}, nil
}

// Close closes the connection pool.
func (s *Store) Close() {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
}

// MatchRecord is one finished match as stored and served by the API.
type MatchRecord struct {
	ID            string   `json:"id"`
	PlayedAt      string   `json:"played_at"` // ISO8601
	PlayerNames   []string `json:"player_names"`
	PlayerUserIDs []string `json:"player_user_ids"`
	Score         int      `json:"score"`
	Mistakes      int      `json:"mistakes"`
	HintTokens    int      `json:"hint_tokens"`
	Turns         int      `json:"turns"`
	EndReason     string   `json:"end_reason"`
	YourIndex     *int     `json:"your_index,omitempty"` // set by ListByUserID
}

// Stats aggregates every stored match.
type Stats struct {
	Games        int     `json:"games"`
	AverageScore float64 `json:"average_score"`
	BestScore    int     `json:"best_score"`
	PerfectGames int     `json:"perfect_games"`
}

// matchUUID returns the match ID as a UUID, or a fresh one when id is not a UUID.
func matchUUID(id string) uuid.UUID {
	if u, err := uuid.Parse(id); err == nil {
		return u
	}
	return uuid.New()
}

// InsertMatchResult records a finished match. PlayedAt defaults to now.
func (s *Store) InsertMatchResult(ctx context.Context, r MatchRecord) error {
	if s == nil || s.pool == nil {
		return nil
	}
	playedAt := time.Now().UTC()
	if r.PlayedAt != "" {
		if t, err := time.Parse(time.RFC3339, r.PlayedAt); err == nil {
			playedAt = t
		}
	}
	userIDs := r.PlayerUserIDs
	if userIDs == nil {
		userIDs = make([]string, len(r.PlayerNames))
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO hanabi_match (id, played_at, player_names, player_user_ids, score, mistakes, hint_tokens, turns, end_reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		matchUUID(r.ID).String(), playedAt, r.PlayerNames, userIDs, r.Score, r.Mistakes, r.HintTokens, r.Turns, r.EndReason)
	if err != nil {
		return fmt.Errorf("inserting match %s: %w", r.ID, err)
	}
	return nil
}

const selectMatchColumns = `SELECT id::text, played_at, player_names, player_user_ids, score, mistakes, hint_tokens, turns, end_reason FROM hanabi_match`

func scanMatch(row pgx.CollectableRow) (MatchRecord, error) {
	var r MatchRecord
	var playedAt time.Time
	if err := row.Scan(&r.ID, &playedAt, &r.PlayerNames, &r.PlayerUserIDs, &r.Score, &r.Mistakes, &r.HintTokens, &r.Turns, &r.EndReason); err != nil {
		return MatchRecord{}, err
	}
	r.PlayedAt = playedAt.UTC().Format(time.RFC3339)
	return r, nil
}

// ListRecent returns matches ordered by played_at DESC.
func (s *Store) ListRecent(ctx context.Context, limit, offset int) ([]MatchRecord, error) {
	if s == nil || s.pool == nil {
		return []MatchRecord{}, nil
	}
	limit, offset = clampPage(limit, offset)
	rows, err := s.pool.Query(ctx, selectMatchColumns+`
		ORDER BY played_at DESC
		LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, err
	}
	out, err := pgx.CollectRows(rows, scanMatch)
	if err != nil {
		return nil, err
	}
	return nonNil(out), nil
}

// ListByUserID returns the matches a user played in, newest first, with
// your_index set to the user's seat.
func (s *Store) ListByUserID(ctx context.Context, userID string) ([]MatchRecord, error) {
	if s == nil || s.pool == nil || userID == "" {
		return []MatchRecord{}, nil
	}
	rows, err := s.pool.Query(ctx, selectMatchColumns+`
		WHERE $1 = ANY(player_user_ids)
		ORDER BY played_at DESC`,
		userID)
	if err != nil {
		return nil, err
	}
	out, err := pgx.CollectRows(rows, scanMatch)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].YourIndex = seatOf(out[i].PlayerUserIDs, userID)
	}
	return nonNil(out), nil
}

// GetStats aggregates all stored matches. A store without a database reports zeros.
func (s *Store) GetStats(ctx context.Context) (*Stats, error) {
	if s == nil || s.pool == nil {
		return &Stats{}, nil
	}
	var st Stats
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(AVG(score), 0)::float8, COALESCE(MAX(score), 0), COUNT(*) FILTER (WHERE score = $1)
		FROM hanabi_match`,
		perfectScore).Scan(&st.Games, &st.AverageScore, &st.BestScore, &st.PerfectGames)
	if err != nil {
		return nil, err
	}
	return &st, nil
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func seatOf(userIDs []string, userID string) *int {
	for i, id := range userIDs {
		if id == userID {
			seat := i
			return &seat
		}
	}
	return nil
}

func nonNil(recs []MatchRecord) []MatchRecord {
	if recs == nil {
		return []MatchRecord{}
	}
	return recs
}
