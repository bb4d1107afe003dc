package solver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/sliding-block-game/game/engine"
)

// rushLevel needs piece 2 moved out of row 2 before the win piece can exit:
//
//	..A..B
//	..A..B
//	**...B
//	......
//	......
//	CCC...
func rushLevel() *engine.Level {
	return &engine.Level{
		Name:     "rush",
		Board:    engine.Board{Rows: 6, Columns: 6},
		WinPiece: engine.Piece{ID: engine.WinPieceID, Axis: engine.Horizontal, Length: 2, Origin: engine.Cell{Row: 2, Col: 0}},
		Pieces: []engine.Piece{
			{ID: 1, Axis: engine.Vertical, Length: 2, Origin: engine.Cell{Row: 0, Col: 2}},
			{ID: 2, Axis: engine.Vertical, Length: 3, Origin: engine.Cell{Row: 0, Col: 5}},
			{ID: 3, Axis: engine.Horizontal, Length: 3, Origin: engine.Cell{Row: 5, Col: 0}},
		},
	}
}

func TestSolve(t *testing.T) {
	level := rushLevel()
	sol, err := Solve(level, 0)
	require.NoError(t, err)
	assert.Equal(t, 7, sol.Steps)
	assert.Greater(t, sol.StatesExplored, 1)

	total := 0
	for _, m := range sol.Moves {
		if m.Cells < 0 {
			total -= m.Cells
		} else {
			total += m.Cells
		}
	}
	assert.Equal(t, sol.Steps, total)

	// replaying the moves as drags solves the level
	e, err := engine.NewEngine(level)
	require.NoError(t, err)
	for _, m := range sol.Moves {
		piece, ok := e.GetPiece(m.PieceID)
		require.True(t, ok)
		require.Equal(t, m.From, piece.Origin)

		start, path := engine.SlidePath(piece, m.Cells)
		require.True(t, e.PointerDown(start))
		for _, p := range path {
			e.PointerMove(p)
		}
		release := e.PointerUp()
		require.Equal(t, m.To, release.To, "move %+v", m)
	}
	assert.True(t, e.IsSolved())
}

func TestSolve_AlreadyWon(t *testing.T) {
	level := &engine.Level{
		Board:    engine.Board{Rows: 1, Columns: 3},
		WinPiece: engine.Piece{ID: 0, Axis: engine.Horizontal, Length: 1, Origin: engine.Cell{Row: 0, Col: 2}},
	}
	sol, err := Solve(level, 0)
	require.NoError(t, err)
	assert.Empty(t, sol.Moves)
	assert.Equal(t, 0, sol.Steps)
}

func TestSolve_Unsolvable(t *testing.T) {
	level := &engine.Level{
		Board:    engine.Board{Rows: 1, Columns: 3},
		WinPiece: engine.Piece{ID: 0, Axis: engine.Horizontal, Length: 1, Origin: engine.Cell{Row: 0, Col: 0}},
		Pieces: []engine.Piece{
			{ID: 1, Axis: engine.Vertical, Length: 1, Origin: engine.Cell{Row: 0, Col: 1}},
		},
	}
	_, err := Solve(level, 0)
	assert.ErrorIs(t, err, ErrUnsolvable)
}

func TestSolve_SearchLimit(t *testing.T) {
	_, err := Solve(rushLevel(), 2)
	assert.ErrorIs(t, err, ErrSearchLimit)
}

func TestSolve_InvalidLevel(t *testing.T) {
	level := rushLevel()
	level.WinPiece.Axis = engine.Vertical
	_, err := Solve(level, 0)
	assert.ErrorContains(t, err, "level validation")
}
