package game

import (
	"encoding/json"
	"log/slog"

	"hanabi-server/wsutil"
)

// Transport delivers outbound messages to seated players, addressed by
// player number. Implementations must not block the match goroutine.
type Transport interface {
	SendTo(player int, msg Message)
	Broadcast(msg Message, excluding ...int)
}

// channelTransport writes JSON to each seated player's send channel.
type channelTransport struct {
	m *Match
}

func (t channelTransport) SendTo(player int, msg Message) {
	p := t.m.playerByNumber(player)
	if p == nil || p.Send == nil {
		return
	}
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("marshaling message", "tag", "match", "type", msg.MessageType(), "err", err)
		return
	}
	wsutil.SafeSend(p.Send, data)
}

func (t channelTransport) Broadcast(msg Message, excluding ...int) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("marshaling message", "tag", "match", "type", msg.MessageType(), "err", err)
		return
	}
	for _, p := range t.m.Players {
		if excluded(p.Number, excluding) || p.Send == nil {
			continue
		}
		wsutil.SafeSend(p.Send, data)
	}
}

func excluded(n int, list []int) bool {
	for _, x := range list {
		if x == n {
			return true
		}
	}
	return false
}
