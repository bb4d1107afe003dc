package engine

import "math"

// Direction is the resolved intent of a drag along a piece's axis
type Direction int

const (
	// Decreasing moves toward lower row/column indices
	Decreasing Direction = -1
	// Increasing moves toward higher row/column indices
	Increasing Direction = 1
)

func (d Direction) String() string {
	if d == Increasing {
		return "increasing"
	}
	return "decreasing"
}

// ResolveDirection sums the offset window, projects it on the axis and
// returns its sign. A projected magnitude at or below DirectionThreshold
// resolves to Decreasing.
func ResolveDirection(offsets []Vec2, axis Axis) Direction {
	var sum Vec2
	for _, o := range offsets {
		sum = sum.Add(o)
	}
	val := sum.Along(axis)
	if math.Abs(val) > DirectionThreshold {
		if val < 0 {
			return Decreasing
		}
		return Increasing
	}
	return Decreasing
}

// DragSession tracks one pointer gesture on one piece. It is created on
// pointer-down and discarded on pointer-up.
type DragSession struct {
	PieceID   int
	StartCell Cell

	occupancy   Grid
	offsets     []Vec2
	lastPointer Vec2
}

// NewDragSession starts a drag on piece with a freshly built occupancy grid
func NewDragSession(level *Level, piece Piece, pointer Vec2) *DragSession {
	return &DragSession{
		PieceID:     piece.ID,
		StartCell:   piece.Origin,
		occupancy:   BuildOccupancy(level, piece.ID),
		offsets:     make([]Vec2, 0, OffsetHistoryLimit),
		lastPointer: pointer,
	}
}

// Offsets returns a copy of the bounded offset history
func (d *DragSession) Offsets() []Vec2 {
	out := make([]Vec2, len(d.offsets))
	copy(out, d.offsets)
	return out
}

// Occupancy returns the grid the session checks moves against
func (d *DragSession) Occupancy() Grid {
	return d.occupancy
}

// StepResult describes the outcome of one pointer-move sample
type StepResult struct {
	Active    bool   `json:"active"`
	Accepted  bool   `json:"accepted"`
	PieceID   int    `json:"piece_id"`
	Direction string `json:"direction,omitempty"`
	Candidate Cell   `json:"candidate"`
	Cell      Cell   `json:"cell"`
	Position  Vec2   `json:"position"`
	Offset    Vec2   `json:"offset"`
}

// Step feeds the pointer position into the drag. The direction is sensed by
// probing half a unit from the piece's fractional position; on a legal probe
// the piece takes the probed cell and its position advances by the raw
// on-axis offset. An illegal probe leaves piece and session untouched.
func (d *DragSession) Step(piece *Piece, position *Vec2, pointer Vec2, board Board) StepResult {
	offset := pointer.Sub(d.lastPointer)

	window := append(d.Offsets(), offset)
	if len(window) > OffsetHistoryLimit {
		window = window[len(window)-OffsetHistoryLimit:]
	}

	dir := ResolveDirection(window, piece.Axis)
	probe := position.Add(AxisVector(piece.Axis, float64(dir)*ProbeStep))
	candidate := CellAt(probe)

	result := StepResult{
		Active:    true,
		PieceID:   piece.ID,
		Direction: dir.String(),
		Candidate: candidate,
		Offset:    offset,
	}

	if !IsLegal(candidate, *piece, d.occupancy, board) {
		result.Cell = piece.Origin
		result.Position = *position
		return result
	}

	d.offsets = window
	d.lastPointer = pointer
	piece.Origin = candidate
	*position = position.Add(AxisVector(piece.Axis, offset.Along(piece.Axis)))

	result.Accepted = true
	result.Cell = piece.Origin
	result.Position = *position
	return result
}
