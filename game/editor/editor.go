package editor

import (
	"errors"
	"fmt"

	"github.com/wricardo/sliding-block-game/game/engine"
)

// Mode selects which piece the key bindings act on
type Mode string

const (
	ModeWin    Mode = "win"
	ModePieces Mode = "pieces"
)

var (
	// ErrInvalidSize is returned for board dimensions outside the allowed range
	ErrInvalidSize = errors.New("invalid board size")
	// ErrUnknownCommand is returned by Apply for an unrecognised command name
	ErrUnknownCommand = errors.New("unknown editor command")
	// ErrInvalidCommand is returned by Apply for malformed arguments
	ErrInvalidCommand = errors.New("invalid editor command")
)

// DefaultLevelName names levels created from scratch
const DefaultLevelName = "untitled"

// Editor is a level authoring session. It is not safe for concurrent use.
type Editor struct {
	level    *engine.Level
	mode     Mode
	selected int
	hasSel   bool
	nextID   int
}

// New creates an editor with an empty rows x cols board
func New(rows, cols int) (*Editor, error) {
	if err := checkSize(rows, cols); err != nil {
		return nil, err
	}
	return &Editor{
		level: &engine.Level{
			Name:   DefaultLevelName,
			Board:  engine.Board{Rows: rows, Columns: cols},
			Pieces: []engine.Piece{},
		},
		mode:   ModeWin,
		nextID: 1,
	}, nil
}

// FromLevel opens an existing level for editing. The editor works on a copy.
func FromLevel(level *engine.Level) (*Editor, error) {
	if level == nil {
		return nil, fmt.Errorf("level cannot be nil")
	}
	if err := checkSize(level.Board.Rows, level.Board.Columns); err != nil {
		return nil, err
	}
	ed := &Editor{
		level: level.Clone(),
		mode:  ModeWin,
	}
	if ed.level.Pieces == nil {
		ed.level.Pieces = []engine.Piece{}
	}
	ed.nextID = nextPieceID(ed.level)
	return ed, nil
}

func checkSize(rows, cols int) error {
	if rows < engine.MinBoardSize || rows > engine.MaxBoardSize ||
		cols < engine.MinBoardSize || cols > engine.MaxBoardSize {
		return fmt.Errorf("%w: %dx%d, each side must be between %d and %d",
			ErrInvalidSize, rows, cols, engine.MinBoardSize, engine.MaxBoardSize)
	}
	return nil
}

func nextPieceID(level *engine.Level) int {
	next := engine.WinPieceID + 1
	for _, p := range level.Pieces {
		if p.ID >= next {
			next = p.ID + 1
		}
	}
	return next
}

// Mode returns the current key mode
func (e *Editor) Mode() Mode {
	return e.mode
}

// ToggleMode switches between win mode and pieces mode
func (e *Editor) ToggleMode() Mode {
	if e.mode == ModeWin {
		e.mode = ModePieces
	} else {
		e.mode = ModeWin
	}
	return e.mode
}

// SetName renames the level being edited
func (e *Editor) SetName(name string) {
	e.level.Name = name
}

// SetDescription changes the level description
func (e *Editor) SetDescription(desc string) {
	e.level.Description = desc
}

// Resize changes the board dimensions. When they differ from the current
// ones every piece is dropped and id allocation starts over.
func (e *Editor) Resize(rows, cols int) error {
	if err := checkSize(rows, cols); err != nil {
		return err
	}
	board := engine.Board{Rows: rows, Columns: cols}
	if board == e.level.Board {
		return nil
	}
	e.level.Board = board
	e.level.Pieces = []engine.Piece{}
	e.level.WinPiece = engine.Piece{}
	e.hasSel = false
	e.nextID = engine.WinPieceID + 1
	return nil
}

// HasWinPiece reports whether a win piece has been placed
func (e *Editor) HasWinPiece() bool {
	return e.level.WinPiece.Length >= 1
}

// PlaceWinPiece puts a new length-1 win piece at c, replacing any previous one
func (e *Editor) PlaceWinPiece(c engine.Cell) bool {
	if !e.level.Board.Contains(c) {
		return false
	}
	e.level.WinPiece = engine.Piece{
		ID:     engine.WinPieceID,
		Axis:   engine.Horizontal,
		Length: 1,
		Origin: c,
	}
	return true
}

// ClearWinPiece resets the win piece to the empty placeholder
func (e *Editor) ClearWinPiece() bool {
	e.level.WinPiece = engine.Piece{}
	return true
}

// GrowWinPiece lengthens the win piece by one cell
func (e *Editor) GrowWinPiece() bool {
	if !e.HasWinPiece() {
		return false
	}
	e.level.WinPiece.Length++
	return true
}

// ShrinkWinPiece shortens the win piece by one cell, never below one
func (e *Editor) ShrinkWinPiece() bool {
	if !e.HasWinPiece() || e.level.WinPiece.Length <= 1 {
		return false
	}
	e.level.WinPiece.Length--
	return true
}

// PlacePiece appends a length-1 piece at c and selects it
func (e *Editor) PlacePiece(c engine.Cell, axis engine.Axis) (int, bool) {
	if !e.level.Board.Contains(c) || !axis.Valid() {
		return 0, false
	}
	id := e.nextID
	e.nextID++
	e.level.Pieces = append(e.level.Pieces, engine.Piece{
		ID:     id,
		Axis:   axis,
		Length: 1,
		Origin: c,
	})
	e.selected, e.hasSel = id, true
	return id, true
}

// RemovePiece deletes the piece with the given id. Unknown ids are a no-op
// and report false.
func (e *Editor) RemovePiece(id int) bool {
	idx := e.indexOf(id)
	if idx < 0 {
		return false
	}
	e.level.Pieces = append(e.level.Pieces[:idx], e.level.Pieces[idx+1:]...)
	if e.hasSel && e.selected == id {
		e.hasSel = false
	}
	return true
}

// GrowPiece lengthens a piece by one cell
func (e *Editor) GrowPiece(id int) bool {
	idx := e.indexOf(id)
	if idx < 0 {
		return false
	}
	e.level.Pieces[idx].Length++
	return true
}

// ShrinkPiece shortens a piece by one cell, never below one
func (e *Editor) ShrinkPiece(id int) bool {
	idx := e.indexOf(id)
	if idx < 0 || e.level.Pieces[idx].Length <= 1 {
		return false
	}
	e.level.Pieces[idx].Length--
	return true
}

func (e *Editor) indexOf(id int) int {
	for i, p := range e.level.Pieces {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// Select makes the piece under c the selection. Pieces placed later win
// when several overlap. Selecting an empty cell clears the selection.
func (e *Editor) Select(c engine.Cell) bool {
	for i := len(e.level.Pieces) - 1; i >= 0; i-- {
		if e.level.Pieces[i].Covers(c) {
			e.selected, e.hasSel = e.level.Pieces[i].ID, true
			return true
		}
	}
	e.hasSel = false
	return false
}

// Selected returns the id of the selected piece
func (e *Editor) Selected() (int, bool) {
	return e.selected, e.hasSel
}

// Level returns a deep copy of the level being edited
func (e *Editor) Level() *engine.Level {
	return e.level.Clone()
}

// Validate checks whether the level is playable as it stands
func (e *Editor) Validate() error {
	return engine.ValidateLevel(e.level)
}

// State is the externally visible state of an editor
type State struct {
	Level           *engine.Level `json:"level"`
	Mode            Mode          `json:"mode"`
	Selected        *int          `json:"selected,omitempty"`
	HasWinPiece     bool          `json:"has_win_piece"`
	Rows            []string      `json:"rows"`
	Valid           bool          `json:"valid"`
	ValidationError string        `json:"validation_error,omitempty"`
}

// GetState returns a presentation snapshot of the editor
func (e *Editor) GetState() *State {
	state := &State{
		Level:       e.Level(),
		Mode:        e.mode,
		HasWinPiece: e.HasWinPiece(),
		Rows:        engine.RenderBoard(e.level),
		Valid:       true,
	}
	if e.hasSel {
		sel := e.selected
		state.Selected = &sel
	}
	if err := e.Validate(); err != nil {
		state.Valid = false
		state.ValidationError = err.Error()
	}
	return state
}

// Snapshot is the persistable form of an editor
type Snapshot struct {
	Level    *engine.Level `json:"level"`
	Mode     Mode          `json:"mode"`
	Selected *int          `json:"selected,omitempty"`
	NextID   int           `json:"next_id"`
}

// Snapshot captures the editor state
func (e *Editor) Snapshot() *Snapshot {
	s := &Snapshot{
		Level:  e.Level(),
		Mode:   e.mode,
		NextID: e.nextID,
	}
	if e.hasSel {
		sel := e.selected
		s.Selected = &sel
	}
	return s
}

// Restore rebuilds an editor from a snapshot
func Restore(s *Snapshot) (*Editor, error) {
	if s == nil || s.Level == nil {
		return nil, fmt.Errorf("snapshot is incomplete")
	}
	ed, err := FromLevel(s.Level)
	if err != nil {
		return nil, err
	}
	if s.Mode == ModePieces {
		ed.mode = ModePieces
	}
	if s.NextID > ed.nextID {
		ed.nextID = s.NextID
	}
	if s.Selected != nil && ed.indexOf(*s.Selected) >= 0 {
		ed.selected, ed.hasSel = *s.Selected, true
	}
	return ed, nil
}
