package game

import "tetrecs-server/piece"

// PieceView is the client-facing representation of a piece.
// Rows are the mask top to bottom using '#' for occupied cells.
type PieceView struct {
	ID    int      `json:"id"`
	Name  string   `json:"name"`
	Value int      `json:"value"`
	Rows  []string `json:"rows"`
}

// StateMsg is the full session state sent to a client.
type StateMsg struct {
	Type             string    `json:"type"`
	SessionID        string    `json:"sessionId"`
	Phase            string    `json:"phase"`
	Rows             int       `json:"rows"`
	Cols             int       `json:"cols"`
	Cells            [][]int   `json:"cells"`
	Current          PieceView `json:"current"`
	Next             PieceView `json:"next"`
	Score            int       `json:"score"`
	Level            int       `json:"level"`
	Lives            int       `json:"lives"`
	Multiplier       int       `json:"multiplier"`
	DelayMs          int64     `json:"delayMs"`
	DeadlineAtUnixMs int64     `json:"deadlineAtUnixMs,omitempty"`
	Reason           string    `json:"reason,omitempty"`
}

// BuildPieceView creates a PieceView from a Piece.
func BuildPieceView(p piece.Piece) PieceView {
	return PieceView{
		ID:    int(p.ID),
		Name:  p.Name(),
		Value: p.Value,
		Rows:  p.Rows(),
	}
}

// BuildStateMsg returns the client view of a snapshot.
func BuildStateMsg(s Snapshot) StateMsg {
	msg := StateMsg{
		Type:       "state",
		SessionID:  s.ID,
		Phase:      s.Phase.String(),
		Current:    BuildPieceView(s.Current),
		Next:       BuildPieceView(s.Next),
		Score:      s.Score,
		Level:      s.Level,
		Lives:      s.Lives,
		Multiplier: s.Multiplier,
		DelayMs:    s.Delay.Milliseconds(),
		Reason:     s.Reason,
	}
	if s.Board != nil {
		msg.Rows = s.Board.Rows
		msg.Cols = s.Board.Cols
		msg.Cells = s.Board.Grid()
	}
	if s.Phase == Running && !s.DeadlineAt.IsZero() {
		msg.DeadlineAtUnixMs = s.DeadlineAt.UnixMilli()
	}
	return msg
}
