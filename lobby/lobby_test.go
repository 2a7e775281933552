package lobby

import (
	"context"
	"encoding/json"
	"reflect"
	"testing"
	"time"

	"hanabi-server/config"
	"hanabi-server/game"
	"hanabi-server/storage"
)

// fakeStore captures inserted records.
type fakeStore struct {
	inserted chan storage.MatchRecord
}

func newFakeStore() *fakeStore {
	return &fakeStore{inserted: make(chan storage.MatchRecord, 10)}
}

func (f *fakeStore) ListRecent(ctx context.Context, limit, offset int) ([]storage.MatchRecord, error) {
	return nil, nil
}

func (f *fakeStore) ListByUserID(ctx context.Context, userID string) ([]storage.MatchRecord, error) {
	return nil, nil
}

func (f *fakeStore) GetStats(ctx context.Context) (*storage.Stats, error) {
	return &storage.Stats{}, nil
}

func (f *fakeStore) InsertMatchResult(ctx context.Context, r storage.MatchRecord) error {
	f.inserted <- r
	return nil
}

func (f *fakeStore) Close() {}

func newTestLobby(t *testing.T, cfg *config.Config, store storage.HistoryStore) *Lobby {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return New(ctx, cfg, store)
}

func seat(t *testing.T, l *Lobby, name string) (*game.Match, *game.Player, chan []byte) {
	t.Helper()
	send := make(chan []byte, 256)
	m, p, err := l.Seat(name, "", send)
	if err != nil {
		t.Fatalf("seat %s: %v", name, err)
	}
	return m, p, send
}

// waitForType reads JSON messages from ch until one of type typ arrives.
func waitForType(t *testing.T, ch chan []byte, typ string) {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case data := <-ch:
			var msg struct {
				Type string `json:"type"`
			}
			if err := json.Unmarshal(data, &msg); err != nil {
				t.Fatalf("failed to unmarshal: %v", err)
			}
			if msg.Type == typ {
				return
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %s", typ)
		}
	}
}

func TestSeatFillsOneMatchAtATime(t *testing.T) {
	cfg := config.Defaults()
	cfg.MaxPlayers = 3
	l := newTestLobby(t, cfg, nil)

	m0, p0, send0 := seat(t, l, "Alice")
	m1, p1, _ := seat(t, l, "Bob")
	m2, p2, _ := seat(t, l, "Carol")
	m3, p3, _ := seat(t, l, "Dave")

	if m0 != m1 || m1 != m2 {
		t.Fatal("the first three players should share a match")
	}
	if p0.Number != 0 || p1.Number != 1 || p2.Number != 2 {
		t.Errorf("expected seats 0,1,2, got %d,%d,%d", p0.Number, p1.Number, p2.Number)
	}
	if m3 == m0 {
		t.Fatal("a full match must not take a fourth player")
	}
	if p3.Number != 0 {
		t.Errorf("expected seat 0 in the new match, got %d", p3.Number)
	}
	waitForType(t, send0, game.TypeJoined)
}

func TestSeatAfterStartOpensNewMatch(t *testing.T) {
	l := newTestLobby(t, config.Defaults(), nil)

	m, p0, send0 := seat(t, l, "Alice")
	_, p1, _ := seat(t, l, "Bob")
	m.Submit(game.Action{Type: game.ActionReady, Player: p0.Number})
	m.Submit(game.Action{Type: game.ActionReady, Player: p1.Number})
	waitForType(t, send0, game.TypeMatchStarted)

	next, p2, _ := seat(t, l, "Carol")
	if next == m {
		t.Fatal("a started match must not take new players")
	}
	if p2.Number != 0 {
		t.Errorf("expected seat 0, got %d", p2.Number)
	}
}

func TestFinishedMatchIsRecorded(t *testing.T) {
	store := newFakeStore()
	l := newTestLobby(t, config.Defaults(), store)
	l.newMatchID = func() string { return "match-1" }

	m, p0, send0 := seat(t, l, "Alice")
	_, p1, _ := seat(t, l, "Bob")
	m.Submit(game.Action{Type: game.ActionReady, Player: p0.Number})
	m.Submit(game.Action{Type: game.ActionReady, Player: p1.Number})
	waitForType(t, send0, game.TypeMatchStarted)

	m.Submit(game.Action{Type: game.ActionLeave, Player: p1.Number})

	select {
	case rec := <-store.inserted:
		if rec.ID != "match-1" || rec.EndReason != string(game.EndAbandoned) {
			t.Errorf("unexpected record %+v", rec)
		}
		if !reflect.DeepEqual(rec.PlayerNames, []string{"Alice", "Bob"}) {
			t.Errorf("expected both seated players in the record, got %v", rec.PlayerNames)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("match result was not stored")
	}
	select {
	case <-m.Done:
	case <-time.After(time.Second):
		t.Fatal("match loop did not stop")
	}
}

func TestBotsFillLonePlayer(t *testing.T) {
	cfg := config.Defaults()
	for i := range cfg.AIProfiles {
		cfg.AIProfiles[i].DelayMinMS, cfg.AIProfiles[i].DelayMaxMS = 0, 0
	}
	l := newTestLobby(t, cfg, nil)
	l.fillDelay = 20 * time.Millisecond

	m, p0, send0 := seat(t, l, "Alice")
	waitForType(t, send0, game.TypeJoined)
	m.Submit(game.Action{Type: game.ActionReady, Player: p0.Number})
	waitForType(t, send0, game.TypeMatchStarted)

	next, _, _ := seat(t, l, "Bob")
	if next == m {
		t.Fatal("the filled match should no longer be open")
	}
}

func TestBotsFillSeatGivenUpByLeaver(t *testing.T) {
	cfg := config.Defaults()
	for i := range cfg.AIProfiles {
		cfg.AIProfiles[i].DelayMinMS, cfg.AIProfiles[i].DelayMaxMS = 0, 0
	}
	l := newTestLobby(t, cfg, nil)
	l.fillDelay = 100 * time.Millisecond

	m, p0, send0 := seat(t, l, "Alice")
	_, p1, _ := seat(t, l, "Bob")
	m.Submit(game.Action{Type: game.ActionLeave, Player: p1.Number})
	waitForType(t, send0, game.TypePlayerLeft)
	if n := m.SeatCount(); n != 1 {
		t.Fatalf("expected 1 seat taken after Bob left, got %d", n)
	}
	m.Submit(game.Action{Type: game.ActionReady, Player: p0.Number})

	waitForType(t, send0, game.TypeMatchStarted)
	if n := m.SeatCount(); n != 2 {
		t.Errorf("expected Alice and one bot, got %d seats", n)
	}
}

func TestNoBotsWhenDisabled(t *testing.T) {
	l := newTestLobby(t, config.Defaults(), nil)
	if l.fillDelay != 0 {
		t.Fatalf("expected bots disabled by default, got delay %v", l.fillDelay)
	}
	m, _, _ := seat(t, l, "Alice")
	next, p, _ := seat(t, l, "Bob")
	if next != m || p.Number != 1 {
		t.Error("without bots the second player should take seat 1")
	}
}

func TestToRecord(t *testing.T) {
	ended := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	r := ToRecord(game.MatchResult{
		MatchID:     "m-1",
		PlayerNames: []string{"Alice", "Bob"},
		UserIDs:     []string{"u-1", ""},
		Score:       17,
		Mistakes:    1,
		HintTokens:  3,
		Turns:       40,
		Reason:      game.EndDeckExhausted,
		EndedAt:     ended,
	})
	want := storage.MatchRecord{
		ID:            "m-1",
		PlayedAt:      "2024-05-01T12:00:00Z",
		PlayerNames:   []string{"Alice", "Bob"},
		PlayerUserIDs: []string{"u-1", ""},
		Score:         17,
		Mistakes:      1,
		HintTokens:    3,
		Turns:         40,
		EndReason:     "deck_exhausted",
	}
	if !reflect.DeepEqual(r, want) {
		t.Errorf("got %+v\nwant %+v", r, want)
	}
}
