package engine

import (
	"fmt"
	"sort"
	"time"
)

// Engine provides the main interface for play operations
type Engine interface {
	// Pointer input, in board units
	PointerDown(pos Vec2) bool
	PointerMove(pos Vec2) StepResult
	PointerUp() ReleaseResult

	// Game state
	GetState() *GameState
	Reset() *GameState
	IsSolved() bool
	IsDragging() bool
	CurrentLevel() *Level
	GetPiece(id int) (Piece, bool)

	// History
	GetMoveHistory() []MoveHistoryEntry
	GetLastMove() *MoveHistoryEntry

	// Notifications
	OnSolved(fn func(SolvedEvent))
	SetSolveDelay(d time.Duration)
}

// pieceState is one entry of the piece arena
type pieceState struct {
	piece    Piece
	position Vec2
}

// GameEngine implements the Engine interface. It is not safe for concurrent
// use; callers serialize input events.
type GameEngine struct {
	initial *Level
	board   Board
	name    string

	pieces map[int]*pieceState
	order  []int

	drag    *DragSession
	solved  bool
	message string

	history      []MoveHistoryEntry
	totalMoves   int
	currentMoves int

	solveDelay time.Duration
	onSolved   func(SolvedEvent)
}

// NewEngine creates a play engine for a validated copy of level
func NewEngine(level *Level) (*GameEngine, error) {
	if level == nil {
		return nil, fmt.Errorf("level cannot be nil")
	}
	if err := ValidateLevel(level); err != nil {
		return nil, err
	}

	e := &GameEngine{
		initial:    level.Clone(),
		board:      level.Board,
		name:       level.Name,
		history:    []MoveHistoryEntry{},
		solveDelay: DefaultSolveDelay,
	}
	e.load(level)
	return e, nil
}

// load fills the piece arena from a level
func (e *GameEngine) load(level *Level) {
	e.pieces = make(map[int]*pieceState, len(level.Pieces)+1)
	e.order = make([]int, 0, len(level.Pieces)+1)
	for _, p := range level.AllPieces() {
		e.pieces[p.ID] = &pieceState{piece: p, position: p.Origin.Center()}
		e.order = append(e.order, p.ID)
	}
	e.drag = nil
	e.solved = false
	e.message = fmt.Sprintf("Slide piece %d off the right edge", WinPieceID)
}

// OnSolved registers the handler that receives the delayed solved notification
func (e *GameEngine) OnSolved(fn func(SolvedEvent)) {
	e.onSolved = fn
}

// SetSolveDelay changes the delay before the solved notification
func (e *GameEngine) SetSolveDelay(d time.Duration) {
	if d < 0 {
		d = 0
	}
	e.solveDelay = d
}

// PointerDown starts a drag on the piece under pos. It returns false when
// no piece is there, a drag is already active, or the level is solved.
func (e *GameEngine) PointerDown(pos Vec2) bool {
	if e.solved || e.drag != nil {
		return false
	}

	cell := CellAt(pos)
	for _, id := range e.order {
		ps := e.pieces[id]
		if ps.piece.Covers(cell) {
			e.drag = NewDragSession(e.CurrentLevel(), ps.piece, pos)
			return true
		}
	}
	return false
}

// PointerMove feeds one drag sample. Without an active drag it does nothing.
func (e *GameEngine) PointerMove(pos Vec2) StepResult {
	if e.drag == nil {
		return StepResult{}
	}
	ps := e.pieces[e.drag.PieceID]
	return e.drag.Step(&ps.piece, &ps.position, pos, e.board)
}

// ReleaseResult describes the end of a drag
type ReleaseResult struct {
	Released bool              `json:"released"`
	PieceID  int               `json:"piece_id"`
	From     Cell              `json:"from"`
	To       Cell              `json:"to"`
	Moved    bool              `json:"moved"`
	Solved   bool              `json:"solved"`
	Move     *MoveHistoryEntry `json:"move,omitempty"`
}

// PointerUp ends the drag, snapping the piece to the center of its cell, and
// evaluates the win condition.
func (e *GameEngine) PointerUp() ReleaseResult {
	if e.drag == nil {
		return ReleaseResult{}
	}

	ps := e.pieces[e.drag.PieceID]
	ps.position = ps.piece.Origin.Center()

	result := ReleaseResult{
		Released: true,
		PieceID:  ps.piece.ID,
		From:     e.drag.StartCell,
		To:       ps.piece.Origin,
	}
	e.drag = nil

	if result.From != result.To {
		result.Moved = true
		result.Move = e.addMoveToHistory(result.PieceID, result.From, result.To)
		e.message = fmt.Sprintf("Piece %d moved to (%d,%d)", result.PieceID, result.To.Row, result.To.Col)
	}

	result.Solved = e.checkWin()
	return result
}

// checkWin flips the engine into the solved state the first time the win
// piece reaches the edge and schedules the notification.
func (e *GameEngine) checkWin() bool {
	if e.solved {
		return true
	}
	win := e.pieces[WinPieceID].piece
	if !HasWon(win, e.board) {
		return false
	}

	e.solved = true
	e.message = fmt.Sprintf("Solved in %d moves!", e.currentMoves)

	event := SolvedEvent{
		LevelName:  e.name,
		TotalMoves: e.currentMoves,
		SolvedAt:   time.Now(),
	}
	if handler := e.onSolved; handler != nil {
		time.AfterFunc(e.solveDelay, func() { handler(event) })
	}
	return true
}

// addMoveToHistory appends to the cumulative and current-segment history
func (e *GameEngine) addMoveToHistory(pieceID int, from, to Cell) *MoveHistoryEntry {
	e.totalMoves++
	e.currentMoves++
	e.history = append(e.history, MoveHistoryEntry{
		PieceID:    pieceID,
		From:       from,
		To:         to,
		Timestamp:  time.Now().Unix(),
		MoveNumber: e.totalMoves,
	})
	return &e.history[len(e.history)-1]
}

// GetState returns a presentation snapshot of the engine
func (e *GameEngine) GetState() *GameState {
	state := &GameState{
		LevelName:         e.name,
		Board:             e.board,
		Pieces:            make([]PieceView, 0, len(e.order)),
		WinPieceID:        WinPieceID,
		Solved:            e.solved,
		Message:           e.message,
		MoveHistory:       e.GetMoveHistory(),
		TotalMoves:        e.totalMoves,
		CurrentMovesCount: e.currentMoves,
	}

	for _, id := range e.order {
		ps := e.pieces[id]
		view := PieceView{
			ID:       id,
			Axis:     ps.piece.Axis,
			Length:   ps.piece.Length,
			Cell:     ps.piece.Origin,
			Position: ps.position,
			IsWin:    id == WinPieceID,
		}
		if e.drag != nil && e.drag.PieceID == id {
			view.Dragging = true
			active := id
			state.ActivePiece = &active
		}
		state.Pieces = append(state.Pieces, view)
	}

	state.Rows = RenderBoard(e.CurrentLevel())
	return state
}

// Reset restores the initial level. Cumulative history survives.
func (e *GameEngine) Reset() *GameState {
	e.load(e.initial)
	e.currentMoves = 0
	return e.GetState()
}

// IsSolved reports whether the win piece has reached the edge
func (e *GameEngine) IsSolved() bool {
	return e.solved
}

// IsDragging reports whether a drag session is active
func (e *GameEngine) IsDragging() bool {
	return e.drag != nil
}

// ActivePieceID returns the id of the dragged piece
func (e *GameEngine) ActivePieceID() (int, bool) {
	if e.drag == nil {
		return 0, false
	}
	return e.drag.PieceID, true
}

// CurrentLevel returns the level with every piece at its current cell
func (e *GameEngine) CurrentLevel() *Level {
	level := &Level{
		Name:        e.initial.Name,
		Description: e.initial.Description,
		Board:       e.board,
		Pieces:      make([]Piece, 0, len(e.order)-1),
	}
	for _, id := range e.order {
		p := e.pieces[id].piece
		if id == WinPieceID {
			level.WinPiece = p
			continue
		}
		level.Pieces = append(level.Pieces, p)
	}
	return level
}

// InitialLevel returns a copy of the level the engine was created with
func (e *GameEngine) InitialLevel() *Level {
	return e.initial.Clone()
}

// GetPiece looks a piece up by id
func (e *GameEngine) GetPiece(id int) (Piece, bool) {
	ps, ok := e.pieces[id]
	if !ok {
		return Piece{}, false
	}
	return ps.piece, true
}

// PieceIDs returns the ids of all pieces in ascending order
func (e *GameEngine) PieceIDs() []int {
	ids := make([]int, len(e.order))
	copy(ids, e.order)
	sort.Ints(ids)
	return ids
}

// GetMoveHistory returns a copy of the cumulative move history
func (e *GameEngine) GetMoveHistory() []MoveHistoryEntry {
	out := make([]MoveHistoryEntry, len(e.history))
	copy(out, e.history)
	return out
}

// GetLastMove returns the last move made, or nil if no moves
func (e *GameEngine) GetLastMove() *MoveHistoryEntry {
	if len(e.history) == 0 {
		return nil
	}
	last := e.history[len(e.history)-1]
	return &last
}

// Snapshot is the persistable form of an engine
type Snapshot struct {
	Initial      *Level             `json:"initial"`
	Current      *Level             `json:"current"`
	MoveHistory  []MoveHistoryEntry `json:"move_history"`
	TotalMoves   int                `json:"total_moves"`
	CurrentMoves int                `json:"current_moves"`
	Solved       bool               `json:"solved"`
}

// Snapshot captures the engine between gestures. An active drag is not
// captured; restoring lands every piece on its committed cell.
func (e *GameEngine) Snapshot() *Snapshot {
	return &Snapshot{
		Initial:      e.initial.Clone(),
		Current:      e.CurrentLevel(),
		MoveHistory:  e.GetMoveHistory(),
		TotalMoves:   e.totalMoves,
		CurrentMoves: e.currentMoves,
		Solved:       e.solved,
	}
}

// RestoreEngine rebuilds an engine from a snapshot. The solved notification
// is not replayed.
func RestoreEngine(s *Snapshot) (*GameEngine, error) {
	if s == nil || s.Initial == nil || s.Current == nil {
		return nil, fmt.Errorf("snapshot is incomplete")
	}
	e, err := NewEngine(s.Initial)
	if err != nil {
		return nil, err
	}
	if err := ValidateLevel(s.Current); err != nil {
		return nil, fmt.Errorf("current level: %w", err)
	}
	if s.Current.Board != s.Initial.Board {
		return nil, fmt.Errorf("current board %dx%d does not match initial %dx%d",
			s.Current.Board.Rows, s.Current.Board.Columns, s.Initial.Board.Rows, s.Initial.Board.Columns)
	}

	if err := matchPieces(s.Initial, s.Current); err != nil {
		return nil, fmt.Errorf("current level: %w", err)
	}

	e.load(s.Current)
	e.history = append([]MoveHistoryEntry{}, s.MoveHistory...)
	e.totalMoves = s.TotalMoves
	e.currentMoves = s.CurrentMoves
	e.solved = s.Solved
	if e.solved {
		e.message = fmt.Sprintf("Solved in %d moves!", e.currentMoves)
	}
	return e, nil
}

// matchPieces checks that current holds the pieces of initial, each with the
// same axis and length and still on the line it slides along
func matchPieces(initial, current *Level) error {
	want := make(map[int]Piece, len(initial.Pieces)+1)
	for _, p := range initial.AllPieces() {
		want[p.ID] = p
	}
	got := current.AllPieces()
	if len(got) != len(want) {
		return fmt.Errorf("has %d pieces, expected %d", len(got), len(want))
	}

	for _, p := range got {
		orig, ok := want[p.ID]
		if !ok {
			return fmt.Errorf("piece %d is not in the initial level", p.ID)
		}
		if p.Axis != orig.Axis || p.Length != orig.Length {
			return fmt.Errorf("piece %d is %s length %d, expected %s length %d",
				p.ID, p.Axis, p.Length, orig.Axis, orig.Length)
		}
		if (p.Axis == Horizontal && p.Origin.Row != orig.Origin.Row) ||
			(p.Axis == Vertical && p.Origin.Col != orig.Origin.Col) {
			return fmt.Errorf("piece %d left its %s line", p.ID, p.Axis)
		}
	}
	return nil
}
