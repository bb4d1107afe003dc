package engine

import "strings"

// Board rendering runes
const (
	EmptyRune = '.'
	WinRune   = '*'
)

// pieceRunes labels ordinary pieces in rendered boards, cycling when exhausted
const pieceRunes = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// PieceRune returns the label used for a piece id in rendered boards
func PieceRune(id int) rune {
	if id == WinPieceID {
		return WinRune
	}
	if id < 0 {
		id = -id
	}
	return rune(pieceRunes[(id-1+len(pieceRunes))%len(pieceRunes)])
}

// RenderBoard draws the level as text, row 0 first. Cells outside the board
// are dropped; overlapping pieces show the last one drawn.
func RenderBoard(level *Level) []string {
	if level == nil {
		return nil
	}
	rows := make([][]rune, level.Board.Rows)
	for r := range rows {
		rows[r] = []rune(strings.Repeat(string(EmptyRune), level.Board.Columns))
	}
	for _, piece := range level.AllPieces() {
		if piece.Length < 1 {
			continue
		}
		label := PieceRune(piece.ID)
		for _, c := range piece.Cells() {
			if level.Board.Contains(c) {
				rows[c.Row][c.Col] = label
			}
		}
	}
	lines := make([]string, len(rows))
	for i, r := range rows {
		lines[i] = string(r)
	}
	return lines
}

// DragSampleStep is the on-axis distance between generated drag samples
const DragSampleStep = 0.25

// SlidePath builds a pointer gesture that slides piece by cells along its
// axis: the pointer goes down at the center of the origin cell and moves in
// DragSampleStep samples, stopping one sample short of the full distance so
// the half-unit probe lands on the target cell in both directions. Negative
// cells slide toward lower indices. The distance is capped at MaxBoardSize.
func SlidePath(piece Piece, cells int) (Vec2, []Vec2) {
	start := piece.Origin.Center()
	if cells == 0 {
		return start, nil
	}

	sign := 1.0
	n := cells
	if cells < 0 {
		sign = -1.0
		if cells < -MaxBoardSize {
			n = MaxBoardSize
		} else {
			n = -cells
		}
	}
	if n > MaxBoardSize {
		n = MaxBoardSize
	}

	samples := int(float64(n)/DragSampleStep) - 1
	path := make([]Vec2, 0, samples)
	pos := start
	for i := 0; i < samples; i++ {
		pos = pos.Add(AxisVector(piece.Axis, sign*DragSampleStep))
		path = append(path, pos)
	}
	return start, path
}
