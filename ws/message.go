package ws

import "encoding/json"

// InboundEnvelope is the generic envelope for all client-to-server messages.
// The Type field is used for routing; Raw holds the full JSON payload.
type InboundEnvelope struct {
	Type string          `json:"type"`
	Raw  json.RawMessage `json:"-"`
}

// UnmarshalJSON implements custom unmarshaling to capture the raw payload.
func (e *InboundEnvelope) UnmarshalJSON(data []byte) error {
	type typeOnly struct {
		Type string `json:"type"`
	}
	var t typeOnly
	if err := json.Unmarshal(data, &t); err != nil {
		return err
	}
	e.Type = t.Type
	e.Raw = json.RawMessage(data)
	return nil
}

// Inbound message types.
const (
	TypeAuth       = "auth"
	TypeSetName    = "set_name"
	TypeReady      = "ready"
	TypeQuit       = "quit"
	TypePlayCard   = "play_card"
	TypeDiscard    = "discard"
	TypeColorHint  = "color_hint"
	TypeNumberHint = "number_hint"
	TypePlayAgain  = "play_again"
)

// --- Client-to-Server message payloads ---

// AuthMsg carries a JWT. It is optional and, when sent, comes before set_name.
type AuthMsg struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

// SetNameMsg is sent by the client to declare a display name and take a seat.
type SetNameMsg struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

// PositionMsg is the payload of play_card and discard.
type PositionMsg struct {
	Type     string `json:"type"`
	Position *int   `json:"position"`
}

// ColorHintMsg asks to tell target about every card of one color.
type ColorHintMsg struct {
	Type   string `json:"type"`
	Target *int   `json:"target"`
	Color  string `json:"color"`
}

// NumberHintMsg asks to tell target about every card of one rank.
type NumberHintMsg struct {
	Type   string `json:"type"`
	Target *int   `json:"target"`
	Rank   *int   `json:"rank"`
}

// --- Server-to-Client messages ---

// ErrorMsg is sent when a message cannot be routed to a match at all.
type ErrorMsg struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// AuthOKMsg confirms a token was accepted.
type AuthOKMsg struct {
	Type   string `json:"type"`
	Name   string `json:"name"`
	UserID string `json:"userId"`
}
