package game

// Message is anything the match sends to players.
type Message interface {
	MessageType() string
}

// Outbound message types.
const (
	TypeJoined          = "joined"
	TypeLobbyState      = "lobby_state"
	TypeMatchStarted    = "match_started"
	TypeHandUpdate      = "hand_update"
	TypeCardPlayed      = "card_played"
	TypeCardDiscarded   = "card_discarded"
	TypeColorHintGiven  = "color_hint_given"
	TypeNumberHintGiven = "number_hint_given"
	TypeResourceCounts  = "resource_counts"
	TypeBoardState      = "board_state"
	TypeDeckRemaining   = "deck_remaining"
	TypeTurnStarted     = "turn_started"
	TypeTurnEnded       = "turn_ended"
	TypeTurnTimeout     = "turn_timeout"
	TypeActionRejected  = "action_rejected"
	TypeGameOver        = "game_over"
	TypePlayerLeft      = "player_left"
)

// CardView is the client-facing representation of a card in a hand.
type CardView struct {
	ID       int    `json:"id"`
	Position int    `json:"position"`
	Color    string `json:"color"`
	Rank     int    `json:"rank"`
}

// PlayerInfo identifies a seat.
type PlayerInfo struct {
	Number int    `json:"number"`
	Name   string `json:"name"`
	Ready  bool   `json:"ready"`
}

// JoinedMsg tells a player which seat they were given.
type JoinedMsg struct {
	Type       string `json:"type"`
	MatchID    string `json:"matchId"`
	YourNumber int    `json:"yourNumber"`
}

// LobbyStateMsg lists the seated players while the match waits to start.
type LobbyStateMsg struct {
	Type       string       `json:"type"`
	Players    []PlayerInfo `json:"players"`
	MinPlayers int          `json:"minPlayers"`
}

// MatchStartedMsg announces the players in turn order.
type MatchStartedMsg struct {
	Type    string       `json:"type"`
	MatchID string       `json:"matchId"`
	Players []PlayerInfo `json:"players"`
}

// HandUpdateMsg shows a player's hand to everyone except its owner.
type HandUpdateMsg struct {
	Type   string     `json:"type"`
	Player int        `json:"player"`
	Cards  []CardView `json:"cards"`
}

// CardPlayedMsg reports a play and whether it extended a pile.
type CardPlayedMsg struct {
	Type    string   `json:"type"`
	Player  int      `json:"player"`
	Card    CardView `json:"card"`
	Success bool     `json:"success"`
}

// CardDiscardedMsg reports a discard.
type CardDiscardedMsg struct {
	Type   string   `json:"type"`
	Player int      `json:"player"`
	Card   CardView `json:"card"`
}

// ColorHintMsg names the target's cards of one color.
type ColorHintMsg struct {
	Type      string `json:"type"`
	From      int    `json:"from"`
	Target    int    `json:"target"`
	Color     string `json:"color"`
	Positions []int  `json:"positions"`
}

// NumberHintMsg names the target's cards of one rank.
type NumberHintMsg struct {
	Type      string `json:"type"`
	From      int    `json:"from"`
	Target    int    `json:"target"`
	Rank      int    `json:"rank"`
	Positions []int  `json:"positions"`
}

// ResourceCountsMsg carries the mistake and hint counters.
type ResourceCountsMsg struct {
	Type       string `json:"type"`
	Mistakes   int    `json:"mistakes"`
	HintTokens int    `json:"hintTokens"`
}

// BoardStateMsg carries the top rank of every pile.
type BoardStateMsg struct {
	Type  string         `json:"type"`
	Piles map[string]int `json:"piles"`
	Total int            `json:"total"`
}

// DeckRemainingMsg carries the draw pile size and, once it is empty, the
// number of turns left.
type DeckRemainingMsg struct {
	Type           string `json:"type"`
	Count          int    `json:"count"`
	FinalRoundLeft *int   `json:"finalRoundLeft,omitempty"`
}

// TurnStartedMsg tells everyone whose turn it is.
type TurnStartedMsg struct {
	Type                 string `json:"type"`
	Player               int    `json:"player"`
	TurnEndsAtUnixMs     int64  `json:"turnEndsAtUnixMs,omitempty"`
	TurnCountdownShowSec int    `json:"turnCountdownShowSec,omitempty"`
}

// TurnEndedMsg is sent to the player whose turn just ended.
type TurnEndedMsg struct {
	Type   string `json:"type"`
	Player int    `json:"player"`
}

// TurnTimeoutMsg reports that the turn-holder ran out of time and passed.
type TurnTimeoutMsg struct {
	Type   string `json:"type"`
	Player int    `json:"player"`
}

// ActionRejectedMsg is sent only to the player whose action was illegal.
type ActionRejectedMsg struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

// GameOverMsg carries the final score.
type GameOverMsg struct {
	Type   string `json:"type"`
	Score  int    `json:"score"`
	Reason string `json:"reason"`
}

// PlayerLeftMsg reports a departure.
type PlayerLeftMsg struct {
	Type   string `json:"type"`
	Player int    `json:"player"`
	Name   string `json:"name"`
}

func (JoinedMsg) MessageType() string         { return TypeJoined }
func (LobbyStateMsg) MessageType() string     { return TypeLobbyState }
func (MatchStartedMsg) MessageType() string   { return TypeMatchStarted }
func (HandUpdateMsg) MessageType() string     { return TypeHandUpdate }
func (CardPlayedMsg) MessageType() string     { return TypeCardPlayed }
func (CardDiscardedMsg) MessageType() string  { return TypeCardDiscarded }
func (ColorHintMsg) MessageType() string      { return TypeColorHintGiven }
func (NumberHintMsg) MessageType() string     { return TypeNumberHintGiven }
func (ResourceCountsMsg) MessageType() string { return TypeResourceCounts }
func (BoardStateMsg) MessageType() string     { return TypeBoardState }
func (DeckRemainingMsg) MessageType() string  { return TypeDeckRemaining }
func (TurnStartedMsg) MessageType() string    { return TypeTurnStarted }
func (TurnEndedMsg) MessageType() string      { return TypeTurnEnded }
func (TurnTimeoutMsg) MessageType() string    { return TypeTurnTimeout }
func (ActionRejectedMsg) MessageType() string { return TypeActionRejected }
func (GameOverMsg) MessageType() string       { return TypeGameOver }
func (PlayerLeftMsg) MessageType() string     { return TypePlayerLeft }

// BuildCardView creates the client-facing view of card at position pos.
func BuildCardView(c Card, pos int) CardView {
	return CardView{ID: c.ID, Position: pos, Color: c.Color.String(), Rank: c.Rank}
}

// BuildHandView creates the client-facing view of a whole hand.
func BuildHandView(h *Hand) []CardView {
	cards := h.Cards()
	views := make([]CardView, len(cards))
	for i, c := range cards {
		views[i] = BuildCardView(c, i)
	}
	return views
}
