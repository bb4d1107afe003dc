// Package engine provides the core game logic for the sliding block puzzle.
//
// The engine package implements the game mechanics including:
//   - Level data model (board, axis-locked pieces, win piece)
//   - Occupancy grid built at the start of every drag
//   - Drag direction sensing over a bounded window of pointer offsets
//   - Axis-constrained legality checks against bounds and occupancy
//   - The win condition and its delayed, one-shot solved notification
//
// Core Types:
//
// The Engine interface defines the main contract for play operations,
// implemented by GameEngine. Level describes a puzzle, GameState is the
// presentation snapshot, and DragSession holds the ephemeral state of one
// pointer gesture.
//
// Coordinates:
//
// Positions are in board units, one unit per cell. A position's Y component
// selects the row and its X component the column, so Cell{Row, Col} comes
// from (floor(y), floor(x)). Pieces extend from their origin toward
// increasing row (vertical) or increasing column (horizontal).
//
// Usage:
//
//	gameEngine, err := engine.NewEngine(level)
//	if err != nil {
//		log.Fatal(err)
//	}
//	gameEngine.OnSolved(func(ev engine.SolvedEvent) { ... })
//
//	// Drag the piece under the pointer
//	if gameEngine.PointerDown(engine.Vec2{X: 3.5, Y: 2.5}) {
//		gameEngine.PointerMove(engine.Vec2{X: 3.75, Y: 2.5})
//		gameEngine.PointerUp()
//	}
//	state := gameEngine.GetState()
//
// Game Rules:
//
// Each piece slides only along its own axis and pieces never overlap. The
// puzzle is solved when the horizontal win piece reaches the right edge of
// the board. Illegal drag samples are dropped silently; releasing the
// pointer always keeps the last legal cell.
package engine
