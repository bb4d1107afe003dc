package service

import (
	"time"

	"github.com/wricardo/sliding-block-game/game/editor"
	"github.com/wricardo/sliding-block-game/game/engine"
)

// SessionInfo provides information about a session
type SessionInfo struct {
	ID             string            `json:"id"`
	Kind           SessionKind       `json:"kind"`
	LevelID        string            `json:"level_id"`
	CreatedAt      time.Time         `json:"created_at"`
	LastAccessedAt time.Time         `json:"last_accessed_at"`
	GameState      *engine.GameState `json:"game_state,omitempty"`
	EditorState    *editor.State     `json:"editor_state,omitempty"`
	Level          *engine.Level     `json:"level"`
}

// PointerResult contains the result of one pointer event
type PointerResult struct {
	Accepted  bool                  `json:"accepted"`
	Step      *engine.StepResult    `json:"step,omitempty"`
	Release   *engine.ReleaseResult `json:"release,omitempty"`
	GameState *engine.GameState     `json:"game_state"`
	Message   string                `json:"message"`
	Events    []GameEvent           `json:"events,omitempty"`
}

// SlideResult contains the result of sliding a piece by whole cells
type SlideResult struct {
	Success        bool              `json:"success"`
	PieceID        int               `json:"piece_id"`
	RequestedCells int               `json:"requested_cells"`
	MovedCells     int               `json:"moved_cells"`
	From           engine.Cell       `json:"from"`
	To             engine.Cell       `json:"to"`
	Blocked        bool              `json:"blocked,omitempty"`
	Solved         bool              `json:"solved"`
	GameState      *engine.GameState `json:"game_state"`
	Message        string            `json:"message"`
	Events         []GameEvent       `json:"events,omitempty"`
}

// EditorRequest describes a new editor session. A level id opens that level;
// otherwise an empty Rows x Columns board is created.
type EditorRequest struct {
	LevelID string `json:"level_id,omitempty"`
	Rows    int    `json:"rows,omitempty"`
	Columns int    `json:"columns,omitempty"`
}

// EditorResult contains the result of one editor command
type EditorResult struct {
	Result      *editor.Result `json:"result"`
	EditorState *editor.State  `json:"editor_state"`
}

// GameEvent represents an event that occurred during play
type GameEvent struct {
	Type      string    `json:"type"` // "move", "blocked", "solved", "reset"
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	PieceID   *int      `json:"piece_id,omitempty"`
}

// HistoryOptions configures move history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated move history
type HistoryResponse struct {
	Moves       []engine.MoveHistoryEntry `json:"moves"`
	TotalMoves  int                       `json:"total_moves"`
	Page        int                       `json:"page"`
	PageSize    int                       `json:"page_size"`
	TotalPages  int                       `json:"total_pages"`
	HasNext     bool                      `json:"has_next"`
	HasPrevious bool                      `json:"has_previous"`
}

// LevelInfo provides information about a stored level
type LevelInfo struct {
	Filename    string `json:"filename"`
	LevelID     string `json:"level_id"` // The identifier to use for session creation
	Name        string `json:"name"`     // Display name
	Description string `json:"description"`
	Rows        int    `json:"rows"`
	Columns     int    `json:"columns"`
	Pieces      int    `json:"pieces"`
}
