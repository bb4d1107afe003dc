package engine

import (
	"math"
	"time"
)

// Axis is the single direction a piece may slide along
type Axis string

const (
	Horizontal Axis = "horizontal"
	Vertical   Axis = "vertical"

	// Validation constants
	MinBoardSize = 1
	MaxBoardSize = 50

	// WinPieceID is the id reserved for the win piece of every level
	WinPieceID = 0
	// NoPiece matches no piece, so BuildOccupancy(level, NoPiece) keeps every cell
	NoPiece = -1

	// Drag resolution constants, in board units (one unit per cell)
	OffsetHistoryLimit = 20
	DirectionThreshold = 0.2
	ProbeStep          = 0.5

	// DefaultSolveDelay is the wait between solving and the solved notification
	DefaultSolveDelay = 2 * time.Second
)

// Valid reports whether a is one of the two known axes
func (a Axis) Valid() bool {
	return a == Horizontal || a == Vertical
}

// Cell is a grid coordinate. Row derives from the vertical (y) component of a
// board position and Col from the horizontal (x) component; pieces extend
// toward increasing Row (vertical) or increasing Col (horizontal) only.
type Cell struct {
	Row int `json:"row" yaml:"row"`
	Col int `json:"col" yaml:"col"`
}

// Center returns the board position at the middle of the cell
func (c Cell) Center() Vec2 {
	return Vec2{X: float64(c.Col) + 0.5, Y: float64(c.Row) + 0.5}
}

// Vec2 is a continuous position or displacement in board units
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns v + o
func (v Vec2) Add(o Vec2) Vec2 {
	return Vec2{X: v.X + o.X, Y: v.Y + o.Y}
}

// Sub returns v - o
func (v Vec2) Sub(o Vec2) Vec2 {
	return Vec2{X: v.X - o.X, Y: v.Y - o.Y}
}

// Along returns the component of v on the given axis
func (v Vec2) Along(axis Axis) float64 {
	if axis == Vertical {
		return v.Y
	}
	return v.X
}

// AxisVector returns a vector of length d pointing along axis
func AxisVector(axis Axis, d float64) Vec2 {
	if axis == Vertical {
		return Vec2{Y: d}
	}
	return Vec2{X: d}
}

// CellAt returns the cell containing a board position
func CellAt(pos Vec2) Cell {
	return Cell{
		Row: int(math.Floor(pos.Y)),
		Col: int(math.Floor(pos.X)),
	}
}

// Board holds the fixed dimensions of a level
type Board struct {
	Rows    int `json:"rows" yaml:"rows"`
	Columns int `json:"columns" yaml:"columns"`
}

// Contains reports whether the cell lies on the board
func (b Board) Contains(c Cell) bool {
	return c.Row >= 0 && c.Col >= 0 && c.Row < b.Rows && c.Col < b.Columns
}

// Extent is the number of cells the board spans along axis
func (b Board) Extent(axis Axis) int {
	if axis == Vertical {
		return b.Rows
	}
	return b.Columns
}

// Piece is a block that slides along a single axis
type Piece struct {
	ID     int  `json:"id" yaml:"id"`
	Axis   Axis `json:"axis" yaml:"axis"`
	Length int  `json:"length" yaml:"length"`
	Origin Cell `json:"origin" yaml:"origin"`
}

// CellsFrom returns the cells the piece would cover with its origin at c
func (p Piece) CellsFrom(c Cell) []Cell {
	cells := make([]Cell, 0, p.Length)
	for i := 0; i < p.Length; i++ {
		if p.Axis == Vertical {
			cells = append(cells, Cell{Row: c.Row + i, Col: c.Col})
		} else {
			cells = append(cells, Cell{Row: c.Row, Col: c.Col + i})
		}
	}
	return cells
}

// Cells returns the cells the piece currently covers
func (p Piece) Cells() []Cell {
	return p.CellsFrom(p.Origin)
}

// Covers reports whether the piece covers cell c
func (p Piece) Covers(c Cell) bool {
	if p.Axis == Vertical {
		return c.Col == p.Origin.Col && c.Row >= p.Origin.Row && c.Row < p.Origin.Row+p.Length
	}
	return c.Row == p.Origin.Row && c.Col >= p.Origin.Col && c.Col < p.Origin.Col+p.Length
}

// Level is a complete puzzle description
type Level struct {
	Name        string  `json:"name" yaml:"name"`
	Description string  `json:"description,omitempty" yaml:"description,omitempty"`
	Board       Board   `json:"board" yaml:"board"`
	Pieces      []Piece `json:"pieces" yaml:"pieces"`
	WinPiece    Piece   `json:"win_piece" yaml:"win_piece"`
}

// Clone returns a deep copy of the level
func (l *Level) Clone() *Level {
	if l == nil {
		return nil
	}
	clone := *l
	clone.Pieces = make([]Piece, len(l.Pieces))
	copy(clone.Pieces, l.Pieces)
	return &clone
}

// AllPieces returns the win piece followed by the other pieces
func (l *Level) AllPieces() []Piece {
	all := make([]Piece, 0, len(l.Pieces)+1)
	all = append(all, l.WinPiece)
	all = append(all, l.Pieces...)
	return all
}

// PieceView is the presentation state of one piece
type PieceView struct {
	ID       int  `json:"id"`
	Axis     Axis `json:"axis"`
	Length   int  `json:"length"`
	Cell     Cell `json:"cell"`
	Position Vec2 `json:"position"`
	IsWin    bool `json:"is_win,omitempty"`
	Dragging bool `json:"dragging,omitempty"`
}

// GameState is the externally visible state of a play session
type GameState struct {
	LevelName   string             `json:"level_name"`
	Board       Board              `json:"board"`
	Pieces      []PieceView        `json:"pieces"`
	WinPieceID  int                `json:"win_piece_id"`
	ActivePiece *int               `json:"active_piece,omitempty"`
	Solved      bool               `json:"solved"`
	Message     string             `json:"message"`
	MoveHistory []MoveHistoryEntry `json:"move_history"`
	TotalMoves  int                `json:"total_moves"`

	// CurrentMovesCount counts moves since the last reset; TotalMoves is cumulative.
	CurrentMovesCount int `json:"current_moves_count"`

	// Rows renders the board as text, one string per row
	Rows []string `json:"rows,omitempty"`
}

// MoveHistoryEntry records one committed drag that changed a piece's cell
type MoveHistoryEntry struct {
	PieceID    int   `json:"piece_id"`
	From       Cell  `json:"from"`
	To         Cell  `json:"to"`
	Timestamp  int64 `json:"timestamp"`
	MoveNumber int   `json:"move_number"`
}

// SolvedEvent is delivered once, after the solve delay, when a level is solved
type SolvedEvent struct {
	LevelName  string    `json:"level_name"`
	TotalMoves int       `json:"total_moves"`
	SolvedAt   time.Time `json:"solved_at"`
}
