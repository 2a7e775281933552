package ws

import (
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
	"hanabi-server/auth"
	"hanabi-server/game"
	"hanabi-server/wsutil"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096
)

// Client is a middleman between the websocket connection and a match.
// Match and PlayerNum are only touched by the read goroutine.
type Client struct {
	Hub       *Hub
	Conn      *websocket.Conn
	Send      chan []byte
	Name      string
	UserID    string
	Match     *game.Match
	PlayerNum int

	limiter *rate.Limiter
	log     *slog.Logger
}

// NewClient creates a client for conn with its own inbound rate limit.
func NewClient(h *Hub, conn *websocket.Conn) *Client {
	limit := rate.Inf
	if h.Config.MessagesPerSecond > 0 {
		limit = rate.Limit(h.Config.MessagesPerSecond)
	}
	c := &Client{
		Hub:     h,
		Conn:    conn,
		Send:    make(chan []byte, 256),
		limiter: rate.NewLimiter(limit, h.Config.MessageBurst),
		log:     slog.With("tag", "ws"),
	}
	if conn != nil {
		c.log = c.log.With("remote", conn.RemoteAddr().String())
	}
	return c
}

// ReadPump pumps messages from the websocket connection to the match.
// It runs in its own goroutine per connection.
func (c *Client) ReadPump() {
	defer func() {
		c.leaveMatch()
		c.Hub.unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn("read error", "err", err)
			}
			break
		}

		c.handleMessage(message)
	}
}

// WritePump pumps messages from the send channel to the websocket connection.
// It runs in its own goroutine per connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleMessage(data []byte) {
	if !c.limiter.Allow() {
		c.log.Warn("rate limit exceeded, dropping message", "player", c.PlayerNum)
		c.sendError("Too many messages.")
		return
	}

	var envelope InboundEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		c.log.Debug("malformed message", "err", err)
		c.sendError("Invalid message format.")
		return
	}

	switch envelope.Type {
	case TypeAuth:
		c.handleAuth(envelope.Raw)
	case TypeSetName:
		c.handleSetName(envelope.Raw)
	case TypeReady:
		c.submit(game.Action{Type: game.ActionReady})
	case TypeQuit:
		c.leaveMatch()
	case TypePlayCard, TypeDiscard:
		c.handlePosition(envelope.Type, envelope.Raw)
	case TypeColorHint:
		c.handleColorHint(envelope.Raw)
	case TypeNumberHint:
		c.handleNumberHint(envelope.Raw)
	case TypePlayAgain:
		c.handlePlayAgain()
	default:
		c.log.Debug("unknown message type", "type", envelope.Type)
		c.sendError("Unknown message type: " + envelope.Type)
	}
}

func (c *Client) handleAuth(raw json.RawMessage) {
	var msg AuthMsg
	if err := json.Unmarshal(raw, &msg); err != nil || msg.Token == "" {
		c.sendError("Invalid auth message.")
		return
	}
	if c.Hub.Config.AuthBaseURL == "" {
		c.sendError("Server auth not configured.")
		return
	}
	if c.inMatch() {
		c.sendError("Cannot authenticate while in a match.")
		return
	}
	claims, err := c.Hub.Validate(c.Hub.Config.AuthBaseURL, msg.Token)
	if err != nil {
		c.log.Info("token rejected", "err", err)
		c.sendError("Invalid or expired token.")
		return
	}
	c.UserID = auth.UserIDFromClaims(claims)
	c.Name = auth.DisplayNameFromClaims(claims, c.Hub.Config.MaxNameLength)
	c.log = c.log.With("user", c.UserID)
	c.sendJSON(AuthOKMsg{Type: "auth_ok", Name: c.Name, UserID: c.UserID})
}

func (c *Client) handleSetName(raw json.RawMessage) {
	var msg SetNameMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.sendError("Invalid set_name message.")
		return
	}

	name := strings.TrimSpace(msg.Name)
	if n := utf8.RuneCountInString(name); n < 1 || n > c.Hub.Config.MaxNameLength {
		c.sendError("Name must be between 1 and " + strconv.Itoa(c.Hub.Config.MaxNameLength) + " characters.")
		return
	}

	if c.inMatch() {
		c.sendError("Cannot change name while in a match.")
		return
	}

	c.Name = name
	c.seat()
}

func (c *Client) handlePosition(typ string, raw json.RawMessage) {
	var msg PositionMsg
	if err := json.Unmarshal(raw, &msg); err != nil || msg.Position == nil {
		c.sendError("Invalid " + typ + " message.")
		return
	}
	action := game.Action{Type: game.ActionPlayCard, Position: *msg.Position}
	if typ == TypeDiscard {
		action.Type = game.ActionDiscard
	}
	c.submit(action)
}

func (c *Client) handleColorHint(raw json.RawMessage) {
	var msg ColorHintMsg
	if err := json.Unmarshal(raw, &msg); err != nil || msg.Target == nil {
		c.sendError("Invalid color_hint message.")
		return
	}
	c.submit(game.Action{Type: game.ActionColorHint, Target: *msg.Target, Color: msg.Color})
}

func (c *Client) handleNumberHint(raw json.RawMessage) {
	var msg NumberHintMsg
	if err := json.Unmarshal(raw, &msg); err != nil || msg.Target == nil || msg.Rank == nil {
		c.sendError("Invalid number_hint message.")
		return
	}
	c.submit(game.Action{Type: game.ActionNumberHint, Target: *msg.Target, Rank: *msg.Rank})
}

func (c *Client) handlePlayAgain() {
	if c.inMatch() {
		c.sendError("Cannot play again while in an active match.")
		return
	}
	if c.Name == "" {
		c.sendError("Set a name first.")
		return
	}
	c.seat()
}

// seat asks the lobby for a seat under the client's current name.
func (c *Client) seat() {
	m, p, err := c.Hub.Lobby.Seat(c.Name, c.UserID, c.Send)
	if err != nil {
		c.log.Error("seating failed", "name", c.Name, "err", err)
		c.sendError("Could not join a match.")
		return
	}
	c.Match = m
	c.PlayerNum = p.Number
	c.log.Info("seated", "match", m.ID, "player", p.Number, "name", c.Name)
}

func (c *Client) inMatch() bool {
	return c.Match != nil && !c.Match.Finished()
}

// submit forwards a in the client's name to its match.
func (c *Client) submit(a game.Action) {
	if !c.inMatch() {
		c.sendError("You are not in a match.")
		return
	}
	a.Player = c.PlayerNum
	c.Match.Submit(a)
}

// leaveMatch gives up the client's seat, if it has one.
func (c *Client) leaveMatch() {
	if c.Match == nil {
		return
	}
	if !c.Match.Finished() {
		c.Match.Submit(game.Action{Type: game.ActionLeave, Player: c.PlayerNum})
	}
	c.Match = nil
	c.PlayerNum = 0
}

func (c *Client) sendJSON(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		c.log.Error("marshaling message", "err", err)
		return
	}
	wsutil.SafeSend(c.Send, data)
}

func (c *Client) sendError(message string) {
	c.sendJSON(ErrorMsg{Type: "error", Message: message})
}
