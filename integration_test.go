package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"hanabi-server/api"
	"hanabi-server/config"
	"hanabi-server/lobby"
	"hanabi-server/ws"
)

// setupTestServer creates a test HTTP server with the full server stack and no database.
func setupTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	cfg := config.Defaults()
	ctx, cancel := context.WithCancel(context.Background())

	lb := lobby.New(ctx, cfg, nil)
	hub := ws.NewHub(cfg, lb)
	go hub.Run(ctx)

	r := chi.NewRouter()
	r.Get("/ws", hub.ServeWS)
	api.NewHandler(cfg, nil).RegisterRoutes(r)

	server := httptest.NewServer(r)
	t.Cleanup(func() {
		cancel()
		server.Close()
	})
	return server
}

// connectWS creates a WebSocket connection to the test server.
func connectWS(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readMsg reads a JSON message from the WebSocket and returns it as a map.
func readMsg(t *testing.T, conn *websocket.Conn) map[string]interface{} {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("failed to read message: %v", err)
	}
	var msg map[string]interface{}
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("failed to unmarshal: %v\ndata: %s", err, string(data))
	}
	return msg
}

// readUntil reads messages until one of type typ arrives and returns it
// along with everything read before it.
func readUntil(t *testing.T, conn *websocket.Conn, typ string) (map[string]interface{}, []map[string]interface{}) {
	t.Helper()
	var skipped []map[string]interface{}
	for i := 0; i < 200; i++ {
		msg := readMsg(t, conn)
		if msg["type"] == typ {
			return msg, skipped
		}
		skipped = append(skipped, msg)
	}
	t.Fatalf("no %s message within 200 messages", typ)
	return nil, nil
}

// sendMsg sends a JSON message over the WebSocket.
func sendMsg(t *testing.T, conn *websocket.Conn, msg interface{}) {
	t.Helper()
	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		t.Fatalf("failed to write: %v", err)
	}
}

// startTwoPlayerMatch seats Alice then Bob and readies both. It returns once
// both have seen match_started.
func startTwoPlayerMatch(t *testing.T, server *httptest.Server) (*websocket.Conn, *websocket.Conn) {
	t.Helper()
	alice := connectWS(t, server)
	bob := connectWS(t, server)

	sendMsg(t, alice, map[string]string{"type": "set_name", "name": "Alice"})
	joined, _ := readUntil(t, alice, "joined")
	if joined["yourNumber"] != float64(0) {
		t.Fatalf("expected Alice in seat 0, got %v", joined["yourNumber"])
	}
	sendMsg(t, bob, map[string]string{"type": "set_name", "name": "Bob"})
	joined, _ = readUntil(t, bob, "joined")
	if joined["yourNumber"] != float64(1) {
		t.Fatalf("expected Bob in seat 1, got %v", joined["yourNumber"])
	}

	sendMsg(t, alice, map[string]string{"type": "ready"})
	sendMsg(t, bob, map[string]string{"type": "ready"})
	readUntil(t, alice, "match_started")
	readUntil(t, bob, "match_started")
	return alice, bob
}

func TestIntegration_MatchFlow(t *testing.T) {
	server := setupTestServer(t)
	alice, bob := startTwoPlayerMatch(t, server)

	// Alice sees Bob's hand but never her own.
	turn, before := readUntil(t, alice, "turn_started")
	if turn["player"] != float64(0) {
		t.Fatalf("expected Alice to start, got %v", turn["player"])
	}
	var bobsCards []interface{}
	for _, msg := range before {
		if msg["type"] != "hand_update" {
			continue
		}
		if msg["player"] == float64(0) {
			t.Fatal("Alice was sent her own hand")
		}
		bobsCards = msg["cards"].([]interface{})
	}
	if len(bobsCards) != 5 {
		t.Fatalf("expected Bob's 5 cards, got %d", len(bobsCards))
	}
	readUntil(t, bob, "turn_started")

	// Bob may not act on Alice's turn.
	sendMsg(t, bob, map[string]interface{}{"type": "discard", "position": 0})
	rej, _ := readUntil(t, bob, "action_rejected")
	if rej["reason"] != "it is not your turn" {
		t.Errorf("unexpected rejection %v", rej)
	}

	color := bobsCards[0].(map[string]interface{})["color"].(string)
	sendMsg(t, alice, map[string]interface{}{"type": "color_hint", "target": 1, "color": color})

	hint, _ := readUntil(t, bob, "color_hint_given")
	positions := hint["positions"].([]interface{})
	if len(positions) == 0 || positions[0] != float64(0) {
		t.Errorf("expected position 0 among the hinted cards, got %v", positions)
	}
	counts, _ := readUntil(t, bob, "resource_counts")
	if counts["hintTokens"] != float64(7) {
		t.Errorf("expected 7 hint tokens, got %v", counts["hintTokens"])
	}
	turn, _ = readUntil(t, bob, "turn_started")
	if turn["player"] != float64(1) {
		t.Errorf("expected Bob's turn, got %v", turn["player"])
	}
	ended, _ := readUntil(t, alice, "turn_ended")
	if ended["player"] != float64(0) {
		t.Errorf("unexpected turn_ended %v", ended)
	}
}

func TestIntegration_DisconnectAbandonsMatch(t *testing.T) {
	server := setupTestServer(t)
	alice, bob := startTwoPlayerMatch(t, server)

	bob.Close()

	left, _ := readUntil(t, alice, "player_left")
	if left["name"] != "Bob" {
		t.Errorf("expected Bob to leave, got %v", left)
	}
	over, _ := readUntil(t, alice, "game_over")
	if over["reason"] != "abandoned" || over["score"] != float64(0) {
		t.Errorf("unexpected game_over %v", over)
	}

	// Alice can go again and lands in a fresh lobby.
	sendMsg(t, alice, map[string]string{"type": "play_again"})
	joined, _ := readUntil(t, alice, "joined")
	if joined["yourNumber"] != float64(0) {
		t.Errorf("expected seat 0 in a new match, got %v", joined["yourNumber"])
	}
}

func TestIntegration_InvalidMessages(t *testing.T) {
	server := setupTestServer(t)
	conn := connectWS(t, server)

	sendMsg(t, conn, map[string]string{"type": "flip_card"})
	msg := readMsg(t, conn)
	if msg["type"] != "error" || !strings.Contains(msg["message"].(string), "Unknown message type") {
		t.Errorf("expected unknown type error, got %v", msg)
	}

	sendMsg(t, conn, map[string]interface{}{"type": "play_card", "position": 0})
	msg = readMsg(t, conn)
	if msg["type"] != "error" || msg["message"] != "You are not in a match." {
		t.Errorf("expected not-in-match error, got %v", msg)
	}
}

func TestIntegration_StatsEndpoint(t *testing.T) {
	server := setupTestServer(t)

	resp, err := http.Get(server.URL + "/api/stats")
	if err != nil {
		t.Fatalf("GET /api/stats: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var stats map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if stats["games"] != float64(0) {
		t.Errorf("expected no games without a database, got %v", stats["games"])
	}
}
