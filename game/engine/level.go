package engine

import "fmt"

// ValidateLevel checks a level for playability: board size, unique ids,
// a horizontal win piece with the reserved id, every piece on the board,
// and no two pieces overlapping.
func ValidateLevel(level *Level) error {
	if level == nil {
		return fmt.Errorf("level validation: level is nil")
	}

	board := level.Board
	if board.Rows < MinBoardSize || board.Rows > MaxBoardSize {
		return fmt.Errorf("level validation: rows must be between %d and %d, got %d", MinBoardSize, MaxBoardSize, board.Rows)
	}
	if board.Columns < MinBoardSize || board.Columns > MaxBoardSize {
		return fmt.Errorf("level validation: columns must be between %d and %d, got %d", MinBoardSize, MaxBoardSize, board.Columns)
	}

	if level.WinPiece.ID != WinPieceID {
		return fmt.Errorf("level validation: win piece id must be %d, got %d", WinPieceID, level.WinPiece.ID)
	}
	if level.WinPiece.Axis != Horizontal {
		return fmt.Errorf("level validation: win piece must be horizontal, got %q", level.WinPiece.Axis)
	}

	seen := make(map[int]bool, len(level.Pieces)+1)
	owner := make(map[Cell]int)
	for _, piece := range level.AllPieces() {
		if seen[piece.ID] {
			return fmt.Errorf("level validation: duplicate piece id %d", piece.ID)
		}
		seen[piece.ID] = true
		if piece.ID == NoPiece {
			return fmt.Errorf("level validation: piece id %d is reserved", NoPiece)
		}

		if !piece.Axis.Valid() {
			return fmt.Errorf("level validation: piece %d has invalid axis %q", piece.ID, piece.Axis)
		}
		if piece.Length < 1 {
			return fmt.Errorf("level validation: piece %d must have length >= 1, got %d", piece.ID, piece.Length)
		}

		for _, c := range piece.Cells() {
			if !board.Contains(c) {
				return fmt.Errorf("level validation: piece %d covers (%d,%d) outside the %dx%d board",
					piece.ID, c.Row, c.Col, board.Rows, board.Columns)
			}
			if other, taken := owner[c]; taken {
				return fmt.Errorf("level validation: pieces %d and %d overlap at (%d,%d)", other, piece.ID, c.Row, c.Col)
			}
			owner[c] = piece.ID
		}
	}

	return nil
}
