package engine

// newTestLevel returns a 6x6 level, rendered:
//
//	..A..B
//	..A..B
//	**...B
//	......
//	......
//	CCC...
func newTestLevel() *Level {
	return &Level{
		Name:        "test",
		Description: "engine test level",
		Board:       Board{Rows: 6, Columns: 6},
		WinPiece:    Piece{ID: WinPieceID, Axis: Horizontal, Length: 2, Origin: Cell{Row: 2, Col: 0}},
		Pieces: []Piece{
			{ID: 1, Axis: Vertical, Length: 2, Origin: Cell{Row: 0, Col: 2}},
			{ID: 2, Axis: Vertical, Length: 3, Origin: Cell{Row: 0, Col: 5}},
			{ID: 3, Axis: Horizontal, Length: 3, Origin: Cell{Row: 5, Col: 0}},
		},
	}
}

// newOpenLevel returns a board with only the win piece
func newOpenLevel(rows, cols, winRow, winCol, winLength int) *Level {
	return &Level{
		Name:     "open",
		Board:    Board{Rows: rows, Columns: cols},
		WinPiece: Piece{ID: WinPieceID, Axis: Horizontal, Length: winLength, Origin: Cell{Row: winRow, Col: winCol}},
	}
}

// drag performs a full gesture and returns the release result
func drag(e *GameEngine, from Vec2, path []Vec2) ReleaseResult {
	if !e.PointerDown(from) {
		return ReleaseResult{}
	}
	for _, p := range path {
		e.PointerMove(p)
	}
	return e.PointerUp()
}

// overlapFree reports whether no two pieces of the level share a cell
func overlapFree(level *Level) bool {
	seen := make(map[Cell]bool)
	for _, p := range level.AllPieces() {
		for _, c := range p.Cells() {
			if seen[c] {
				return false
			}
			seen[c] = true
		}
	}
	return true
}
