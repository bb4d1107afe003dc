// Package editor implements level authoring for the sliding block puzzle.
//
// An Editor owns one Level and mutates it through discrete commands. Every
// command is atomic: it is either applied in full or rejected with no change.
// Commands never consult the occupancy grid, so overlapping pieces and pieces
// grown past the board edge are allowed while authoring. A level is checked
// with engine.ValidateLevel only when it leaves the editor.
//
// Modes:
//
// The editor has two modes toggled with the space key. In win mode the keys
// act on the win piece; in pieces mode they act on the selected piece.
//
//	win mode:    z place win piece, c clear it, w grow, s shrink
//	pieces mode: click select, z place vertical, x place horizontal,
//	             c remove selected, w grow, s shrink
//
// Usage:
//
//	ed, err := editor.New(6, 6)
//	if err != nil {
//		return err
//	}
//	ed.PlaceWinPiece(engine.Cell{Row: 2, Col: 0})
//	ed.GrowWinPiece()
//	id, _ := ed.PlacePiece(engine.Cell{Row: 0, Col: 3}, engine.Vertical)
//	ed.GrowPiece(id)
//	level := ed.Level()
package editor
