package engine

// IsLegal reports whether piece may sit with its origin at candidate: every
// covered cell must be on the board and free in the occupancy grid.
func IsLegal(candidate Cell, piece Piece, occupancy Grid, board Board) bool {
	for _, c := range piece.CellsFrom(candidate) {
		if !board.Contains(c) || occupancy.Occupied(c) {
			return false
		}
	}
	return true
}
