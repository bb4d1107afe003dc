package engine

import "sort"

// HasWon reports whether the win piece's far edge reaches the right boundary
func HasWon(winPiece Piece, board Board) bool {
	return winPiece.Origin.Col+winPiece.Length >= board.Columns
}

// ExitBlockers returns the ids of pieces covering a cell of the win row to the
// right of the win piece, in ascending order.
func ExitBlockers(level *Level) []int {
	win := level.WinPiece
	start := win.Origin.Col + win.Length
	var ids []int
	for _, p := range level.Pieces {
		for _, c := range p.Cells() {
			if c.Row == win.Origin.Row && c.Col >= start {
				ids = append(ids, p.ID)
				break
			}
		}
	}
	sort.Ints(ids)
	return ids
}
