// Package levels loads, caches and saves puzzle levels.
//
// Levels are stored one per file in a directory. A level id is the file name
// without its extension; .json, .yaml and .yml are accepted, in that order
// of preference when several files share an id. Every level is validated
// with engine.ValidateLevel on load and on save. Saved levels are written
// as JSON.
//
// Level Format:
//
//	name: classic
//	description: Free the red car
//	board: {rows: 6, columns: 6}
//	win_piece: {id: 0, axis: horizontal, length: 2, origin: {row: 2, col: 0}}
//	pieces:
//	  - {id: 1, axis: vertical, length: 2, origin: {row: 0, col: 2}}
//
// Usage:
//
//	manager, err := levels.NewManager("levels")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	level, err := manager.LoadLevel("classic")
//	infos, err := manager.ListLevels()
//
//	// Pick up edits made on disk
//	err = manager.Watch(ctx, nil)
package levels
