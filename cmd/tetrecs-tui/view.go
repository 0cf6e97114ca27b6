package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"tetrecs-server/game"
	"tetrecs-server/piece"
)

const cellWidth = 2

// palette is indexed by piece value (id+1); index 0 is unused.
var palette = [piece.Count + 1]lipgloss.Color{
	"", "#e74c3c", "#e67e22", "#f1c40f", "#2ecc71", "#1abc9c",
	"#3498db", "#9b59b6", "#ff6b81", "#7bed9f", "#70a1ff",
	"#eccc68", "#a4b0be", "#ff7f50", "#5352ed", "#2ed573",
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#f1c40f"))
	panelStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#a4b0be"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff7f50")).Italic(true)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#57606f"))
	emptyStyle  = lipgloss.NewStyle().Background(lipgloss.Color("#2f3542"))
	flashStyle  = lipgloss.NewStyle().Background(lipgloss.Color("#ffffff"))
	okGhost     = lipgloss.NewStyle().Background(lipgloss.Color("#2ed573"))
	badGhost    = lipgloss.NewStyle().Background(lipgloss.Color("#ff4757"))
	cursorStyle = lipgloss.NewStyle().Background(lipgloss.Color("#57606f"))
)

func block(style lipgloss.Style) string {
	return style.Render(strings.Repeat(" ", cellWidth))
}

func valueStyle(v int) lipgloss.Style {
	if v <= 0 || v >= len(palette) {
		return emptyStyle
	}
	return lipgloss.NewStyle().Background(palette[v])
}

func (m model) View() string {
	if m.snap.Board == nil {
		return "Starting…"
	}
	if m.over {
		return m.viewOver()
	}
	board := panelStyle.Render(m.viewBoard())
	side := lipgloss.JoinVertical(lipgloss.Left,
		m.viewStats(),
		"",
		labelStyle.Render("Current"),
		viewPiece(m.snap.Current),
		labelStyle.Render("Next"),
		viewPiece(m.snap.Next),
	)
	body := lipgloss.JoinHorizontal(lipgloss.Top, board, "  ", panelStyle.Render(side))
	help := helpStyle.Render("arrows aim · space place · e/q rotate · s swap · h hint · a autoplay · esc quit")
	parts := []string{titleStyle.Render("TetrECS"), body, m.viewCountdown()}
	if m.status != "" {
		parts = append(parts, statusStyle.Render(m.status))
	}
	parts = append(parts, help)
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m model) viewBoard() string {
	b := m.snap.Board
	ghost := make(map[game.Coord]bool)
	for _, c := range game.Footprint(m.snap.Current, m.cursorX, m.cursorY) {
		ghost[c] = true
	}
	ghostStyle := okGhost
	if !b.CanPlace(m.snap.Current, m.cursorX, m.cursorY) || time.Since(m.failedAt) < flashDuration {
		ghostStyle = badGhost
	}
	flashing := time.Now().Before(m.flashUntil)

	var sb strings.Builder
	for y := 0; y < b.Rows; y++ {
		for x := 0; x < b.Cols; x++ {
			c := game.Coord{X: x, Y: y}
			switch {
			case flashing && m.flash[c]:
				sb.WriteString(block(flashStyle))
			case ghost[c]:
				sb.WriteString(block(ghostStyle))
			case x == m.cursorX && y == m.cursorY:
				sb.WriteString(block(cursorStyle))
			default:
				sb.WriteString(block(valueStyle(b.Get(x, y))))
			}
		}
		if y < b.Rows-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

func viewPiece(p piece.Piece) string {
	var sb strings.Builder
	for y := 0; y < piece.Size; y++ {
		for x := 0; x < piece.Size; x++ {
			if p.Mask[x][y] {
				sb.WriteString(block(valueStyle(p.Value)))
			} else {
				sb.WriteString(strings.Repeat(" ", cellWidth))
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String() + labelStyle.Render(p.Name())
}

func (m model) viewStats() string {
	s := m.snap
	lives := strings.Repeat("♥ ", s.Lives)
	return strings.Join([]string{
		fmt.Sprintf("%s %d", labelStyle.Render("Score"), s.Score),
		fmt.Sprintf("%s %d", labelStyle.Render("Level"), s.Level),
		fmt.Sprintf("%s %s", labelStyle.Render("Lives"), lives),
		fmt.Sprintf("%s x%d", labelStyle.Render("Multiplier"), s.Multiplier),
	}, "\n")
}

// viewCountdown draws the remaining time until the current piece is discarded.
func (m model) viewCountdown() string {
	const width = 30
	s := m.snap
	if s.DeadlineAt.IsZero() || s.Delay <= 0 {
		return ""
	}
	left := time.Until(s.DeadlineAt)
	if left < 0 {
		left = 0
	}
	filled := int(float64(width) * float64(left) / float64(s.Delay))
	filled = min(max(filled, 0), width)
	color := lipgloss.Color("#2ed573")
	switch {
	case left < s.Delay/4:
		color = lipgloss.Color("#ff4757")
	case left < s.Delay/2:
		color = lipgloss.Color("#eccc68")
	}
	bar := lipgloss.NewStyle().Foreground(color).Render(strings.Repeat("█", filled)) +
		helpStyle.Render(strings.Repeat("░", width-filled))
	return fmt.Sprintf("%s %4.1fs", bar, left.Seconds())
}

func (m model) viewOver() string {
	lines := []string{
		titleStyle.Render("Game over"),
		fmt.Sprintf("%s %d   %s %d", labelStyle.Render("Score"), m.summary.Score, labelStyle.Render("Level"), m.summary.Level),
		"",
		labelStyle.Render("High scores"),
	}
	for i, r := range m.top {
		row := fmt.Sprintf("%2d. %-16s %6d", i+1, r.Name, r.Score)
		if r.Name == m.name && r.Score == m.summary.Score {
			row = titleStyle.Render(row)
		}
		lines = append(lines, row)
	}
	if m.saveErr != nil {
		lines = append(lines, statusStyle.Render("Could not save score: "+m.saveErr.Error()))
	}
	lines = append(lines, "", helpStyle.Render("enter to exit"))
	return panelStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}
