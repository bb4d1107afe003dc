package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/wricardo/sliding-block-game/game/editor"
	"github.com/wricardo/sliding-block-game/game/engine"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffcc00"))

	emptyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#444466"))

	winStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ff4444"))

	heldStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffff44"))

	cursorStyle = lipgloss.NewStyle().
			Reverse(true)

	exitStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00ff88"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#88ccff"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))

	hudBorderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444466")).
			Padding(0, 1)

	pieceColors = []lipgloss.Color{
		lipgloss.Color("#4488ff"),
		lipgloss.Color("#ff44ff"),
		lipgloss.Color("#00ccaa"),
		lipgloss.Color("#ff8800"),
		lipgloss.Color("#aaaaff"),
	}
)

const (
	playHelp = "arrows move • enter grab/release • r reset • tab edit • q quit"
	editHelp = "arrows move • space mode • z/x place • c clear • w/s grow/shrink • enter select • ctrl+s save • tab play • q quit"
)

// View renders the board with the HUD on the right.
func (m Model) View() string {
	if m.quitting {
		return "Goodbye! 👋\n"
	}

	var level *engine.Level
	var hud string
	held := engine.NoPiece
	if m.screen == screenEdit {
		level = m.editor.Level()
		hud = renderEditHUD(m.editor.GetState())
		if id, ok := m.editor.Selected(); ok {
			held = id
		}
	} else {
		level = m.engine.CurrentLevel()
		hud = renderPlayHUD(m.engine.GetState())
		if m.grabbed != nil {
			held = *m.grabbed
		}
	}

	board := renderBoard(level, m.cursor, held)
	body := lipgloss.JoinHorizontal(lipgloss.Top, board, "  ", hud)

	help := playHelp
	if m.screen == screenEdit {
		help = editHelp
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(level.Name),
		body,
		statusStyle.Render(m.status),
		helpStyle.Render(help),
	) + "\n"
}

// renderBoard draws one styled glyph per cell. The exit is marked to the
// right of the win row.
func renderBoard(level *engine.Level, cursor engine.Cell, held int) string {
	owner := make(map[engine.Cell]int)
	for _, p := range level.AllPieces() {
		if p.Length < 1 {
			continue
		}
		for _, c := range p.Cells() {
			owner[c] = p.ID
		}
	}

	var b strings.Builder
	for r := 0; r < level.Board.Rows; r++ {
		for c := 0; c < level.Board.Columns; c++ {
			cell := engine.Cell{Row: r, Col: c}
			glyph := string(engine.EmptyRune)
			style := emptyStyle

			if id, ok := owner[cell]; ok {
				glyph = string(engine.PieceRune(id))
				switch {
				case id == held:
					style = heldStyle
				case id == engine.WinPieceID:
					style = winStyle
				default:
					style = lipgloss.NewStyle().Foreground(pieceColor(id))
				}
			}
			if cell == cursor {
				style = style.Inherit(cursorStyle)
			}
			b.WriteString(style.Render(glyph))
			b.WriteString(" ")
		}
		if level.WinPiece.Length > 0 && r == level.WinPiece.Origin.Row {
			b.WriteString(exitStyle.Render("◀ exit"))
		}
		if r < level.Board.Rows-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func pieceColor(id int) lipgloss.Color {
	i := id % len(pieceColors)
	if i < 0 {
		i += len(pieceColors)
	}
	return pieceColors[i]
}

func renderPlayHUD(state *engine.GameState) string {
	lines := []string{
		fmt.Sprintf("Board: %dx%d", state.Board.Rows, state.Board.Columns),
		fmt.Sprintf("Moves: %d", state.CurrentMovesCount),
		fmt.Sprintf("Total: %d", state.TotalMoves),
	}
	if state.Solved {
		lines = append(lines, winStyle.Render("SOLVED"))
	}
	return hudBorderStyle.Render(strings.Join(lines, "\n"))
}

func renderEditHUD(state *editor.State) string {
	lines := []string{
		fmt.Sprintf("Board: %dx%d", state.Level.Board.Rows, state.Level.Board.Columns),
		fmt.Sprintf("Mode: %s", state.Mode),
		fmt.Sprintf("Pieces: %d", len(state.Level.Pieces)),
	}
	if state.Selected != nil {
		lines = append(lines, fmt.Sprintf("Selected: %d", *state.Selected))
	}
	if state.Valid {
		lines = append(lines, exitStyle.Render("playable"))
	} else {
		lines = append(lines, winStyle.Render("not playable"))
	}
	return hudBorderStyle.Render(strings.Join(lines, "\n"))
}
