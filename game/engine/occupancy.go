package engine

// Grid is a rows x columns occupancy matrix indexed [row][col]
type Grid [][]bool

// BuildOccupancy marks every cell covered by a piece of the level, win piece
// included, then clears the cells of the piece with id excludeID. Cells that
// fall off the board are ignored.
func BuildOccupancy(level *Level, excludeID int) Grid {
	board := level.Board
	grid := make(Grid, board.Rows)
	for i := range grid {
		grid[i] = make([]bool, board.Columns)
	}

	var excluded []Piece
	for _, piece := range level.AllPieces() {
		if piece.ID == excludeID {
			excluded = append(excluded, piece)
			continue
		}
		for _, c := range piece.Cells() {
			if board.Contains(c) {
				grid[c.Row][c.Col] = true
			}
		}
	}

	for _, piece := range excluded {
		for _, c := range piece.Cells() {
			if board.Contains(c) {
				grid[c.Row][c.Col] = false
			}
		}
	}

	return grid
}

// Occupied reports whether c is covered. Off-board cells report false.
func (g Grid) Occupied(c Cell) bool {
	if c.Row < 0 || c.Row >= len(g) {
		return false
	}
	if c.Col < 0 || c.Col >= len(g[c.Row]) {
		return false
	}
	return g[c.Row][c.Col]
}

// Count returns the number of occupied cells
func (g Grid) Count() int {
	count := 0
	for _, row := range g {
		for _, occupied := range row {
			if occupied {
				count++
			}
		}
	}
	return count
}
