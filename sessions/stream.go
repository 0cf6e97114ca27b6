package sessions

import (
	"time"

	"tetrecs-server/game"
	"tetrecs-server/piece"
	"tetrecs-server/ws"
)

// streamTo returns an observer that forwards session events through send.
func streamTo(send func(v any)) game.Observer {
	return game.Observer{
		PieceChanged: func(current, next piece.Piece) {
			send(ws.PieceChangedMsg{
				Type:    "piece_changed",
				Current: game.BuildPieceView(current),
				Next:    game.BuildPieceView(next),
			})
		},
		LinesCleared: func(cells []game.Coord) {
			send(ws.LinesClearedMsg{Type: "lines_cleared", Cells: cells})
		},
		Tick: func(d time.Duration) {
			send(ws.TickMsg{Type: "tick", DelayMs: d.Milliseconds()})
		},
		PlacementFailed: func(x, y int) {
			send(ws.PlacementFailedMsg{Type: "placement_failed", X: x, Y: y})
		},
		Updated: func(s game.Snapshot) {
			send(game.BuildStateMsg(s))
		},
	}
}
