package main

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/wricardo/sliding-block-game/game/engine"
	"github.com/wricardo/sliding-block-game/game/solver"
)

// SolverStrategy plans a complete solution before execution and hands the
// moves out one at a time
type SolverStrategy struct {
	maxStates int
	plan      []solver.Move
	next      int
}

func NewSolverStrategy(maxStates int) *SolverStrategy {
	return &SolverStrategy{maxStates: maxStates}
}

// Plan searches a shortest solution from the given board
func (s *SolverStrategy) Plan(state *engine.GameState) error {
	s.Reset()

	level, err := levelFromState(state)
	if err != nil {
		return err
	}
	sol, err := solver.Solve(level, s.maxStates)
	if err != nil {
		return fmt.Errorf("plan %s: %w", state.LevelName, err)
	}

	s.plan = sol.Moves
	logrus.WithFields(logrus.Fields{
		"level":  state.LevelName,
		"moves":  len(sol.Moves),
		"states": sol.StatesExplored,
	}).Info("Solution planned")
	return nil
}

// NextMove returns the next planned move, false once the plan is used up
func (s *SolverStrategy) NextMove() (solver.Move, bool) {
	if s.next >= len(s.plan) {
		return solver.Move{}, false
	}
	m := s.plan[s.next]
	s.next++
	return m, true
}

// Remaining counts the moves not yet handed out
func (s *SolverStrategy) Remaining() int {
	return len(s.plan) - s.next
}

// Reset drops the current plan
func (s *SolverStrategy) Reset() {
	s.plan = nil
	s.next = 0
}

// levelFromState rebuilds a level from the pieces of a game state
func levelFromState(state *engine.GameState) (*engine.Level, error) {
	if state == nil {
		return nil, fmt.Errorf("no game state")
	}

	level := &engine.Level{
		Name:   state.LevelName,
		Board:  state.Board,
		Pieces: []engine.Piece{},
	}
	foundWin := false
	for _, v := range state.Pieces {
		p := engine.Piece{ID: v.ID, Axis: v.Axis, Length: v.Length, Origin: v.Cell}
		if v.ID == state.WinPieceID {
			level.WinPiece = p
			foundWin = true
			continue
		}
		level.Pieces = append(level.Pieces, p)
	}
	if !foundWin {
		return nil, fmt.Errorf("game state has no win piece")
	}
	return level, nil
}
