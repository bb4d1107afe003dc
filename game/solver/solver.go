// Package solver finds shortest solutions for sliding block levels.
//
// The search is a breadth-first walk over single-cell slides, legal under the
// same rules the play engine applies to a drag. Consecutive steps of one piece
// in one direction are merged into a single Move in the returned solution.
package solver

import (
	"errors"
	"fmt"

	"github.com/wricardo/sliding-block-game/game/engine"
)

var (
	// ErrUnsolvable is returned when every reachable position was explored
	ErrUnsolvable = errors.New("level is unsolvable")
	// ErrSearchLimit is returned when the state budget ran out first
	ErrSearchLimit = errors.New("search limit reached")
)

// DefaultMaxStates bounds the search when no limit is given
const DefaultMaxStates = 200000

// Move slides one piece by Cells along its axis. Negative Cells move toward
// lower indices.
type Move struct {
	PieceID int         `json:"piece_id"`
	From    engine.Cell `json:"from"`
	To      engine.Cell `json:"to"`
	Cells   int         `json:"cells"`
}

// Solution is a shortest sequence of moves
type Solution struct {
	Moves          []Move `json:"moves"`
	Steps          int    `json:"steps"`
	StatesExplored int    `json:"states_explored"`
}

type node struct {
	origins []engine.Cell
	parent  int
	piece   int
	from    engine.Cell
	to      engine.Cell
}

// Solve runs the search. maxStates <= 0 selects DefaultMaxStates.
func Solve(level *engine.Level, maxStates int) (*Solution, error) {
	if err := engine.ValidateLevel(level); err != nil {
		return nil, err
	}
	if maxStates <= 0 {
		maxStates = DefaultMaxStates
	}

	pieces := level.AllPieces()
	if engine.HasWon(pieces[0], level.Board) {
		return &Solution{Moves: []Move{}, StatesExplored: 1}, nil
	}

	start := make([]engine.Cell, len(pieces))
	for i, p := range pieces {
		start[i] = p.Origin
	}

	nodes := []node{{origins: start, parent: -1}}
	seen := map[string]bool{key(start): true}

	for head := 0; head < len(nodes); head++ {
		current := place(level, pieces, nodes[head].origins)
		for i, p := range current.AllPieces() {
			occupancy := engine.BuildOccupancy(current, p.ID)
			for _, d := range []int{-1, 1} {
				candidate := p.Origin
				if p.Axis == engine.Vertical {
					candidate.Row += d
				} else {
					candidate.Col += d
				}
				if !engine.IsLegal(candidate, p, occupancy, level.Board) {
					continue
				}

				next := make([]engine.Cell, len(pieces))
				copy(next, nodes[head].origins)
				next[i] = candidate
				k := key(next)
				if seen[k] {
					continue
				}
				seen[k] = true
				nodes = append(nodes, node{origins: next, parent: head, piece: i, from: p.Origin, to: candidate})

				if i == 0 {
					moved := p
					moved.Origin = candidate
					if engine.HasWon(moved, level.Board) {
						return build(nodes, pieces), nil
					}
				}
				if len(nodes) >= maxStates {
					return nil, fmt.Errorf("%w: explored %d states", ErrSearchLimit, len(nodes))
				}
			}
		}
	}

	return nil, fmt.Errorf("%w: explored %d states", ErrUnsolvable, len(nodes))
}

// place returns the level with every piece moved to the given origins
func place(level *engine.Level, pieces []engine.Piece, origins []engine.Cell) *engine.Level {
	out := level.Clone()
	out.WinPiece.Origin = origins[0]
	for i := range out.Pieces {
		out.Pieces[i].Origin = origins[i+1]
	}
	return out
}

func key(origins []engine.Cell) string {
	b := make([]byte, 0, len(origins)*2)
	for _, c := range origins {
		b = append(b, byte(c.Row), byte(c.Col))
	}
	return string(b)
}

// build walks back from the last node and merges runs of the same piece
func build(nodes []node, pieces []engine.Piece) *Solution {
	var steps []node
	for i := len(nodes) - 1; nodes[i].parent >= 0; i = nodes[i].parent {
		steps = append(steps, nodes[i])
	}

	sol := &Solution{Moves: []Move{}, Steps: len(steps), StatesExplored: len(nodes)}
	for i := len(steps) - 1; i >= 0; i-- {
		s := steps[i]
		p := pieces[s.piece]
		delta := distance(p.Axis, s.from, s.to)

		if n := len(sol.Moves); n > 0 {
			last := &sol.Moves[n-1]
			if last.PieceID == p.ID && (last.Cells > 0) == (delta > 0) {
				last.To = s.to
				last.Cells += delta
				continue
			}
		}
		sol.Moves = append(sol.Moves, Move{PieceID: p.ID, From: s.from, To: s.to, Cells: delta})
	}
	return sol
}

func distance(axis engine.Axis, from, to engine.Cell) int {
	if axis == engine.Vertical {
		return to.Row - from.Row
	}
	return to.Col - from.Col
}
