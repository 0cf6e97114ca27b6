package ws

import (
	"encoding/json"

	"tetrecs-server/game"
	"tetrecs-server/storage"
)

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

// --- Client-to-Server message payloads ---

// StartMsg begins a new session. Token is an optional JWT; when valid, the
// display name and user id come from its claims.
type StartMsg struct {
	Type  string `json:"type"`
	Name  string `json:"name"`
	Token string `json:"token,omitempty"`
}

// PlaceMsg places the current piece centred on (X, Y).
type PlaceMsg struct {
	Type string `json:"type"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
}

// RotateMsg rotates the current piece clockwise Turns times (negative turns rotate anticlockwise).
type RotateMsg struct {
	Type  string `json:"type"`
	Turns int    `json:"turns"`
}

// --- Server-to-Client messages ---

// ErrorMsg is sent when a client action is invalid.
type ErrorMsg struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// SessionStartedMsg confirms a new session.
type SessionStartedMsg struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId"`
	Rows      int    `json:"rows"`
	Cols      int    `json:"cols"`
}

// PieceChangedMsg announces a new current/next pair.
type PieceChangedMsg struct {
	Type    string         `json:"type"`
	Current game.PieceView `json:"current"`
	Next    game.PieceView `json:"next"`
}

// LinesClearedMsg lists the cells removed by a placement.
type LinesClearedMsg struct {
	Type  string       `json:"type"`
	Cells []game.Coord `json:"cells"`
}

// TickMsg announces a fresh countdown.
type TickMsg struct {
	Type    string `json:"type"`
	DelayMs int64  `json:"delayMs"`
}

// PlacementFailedMsg reports a rejected placement.
type PlacementFailedMsg struct {
	Type string `json:"type"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
}

// HintMsg carries the advisor's suggestion. Found is false when the piece fits nowhere.
type HintMsg struct {
	Type     string `json:"type"`
	Found    bool   `json:"found"`
	X        int    `json:"x"`
	Y        int    `json:"y"`
	Rotation int    `json:"rotation"`
	Lines    int    `json:"lines"`
	Blocks   int    `json:"blocks"`
}

// SessionOverMsg is the final message of a session.
type SessionOverMsg struct {
	Type        string                `json:"type"`
	Score       int                   `json:"score"`
	Level       int                   `json:"level"`
	Reason      string                `json:"reason"`
	Leaderboard []storage.ScoreRecord `json:"leaderboard"`
}
