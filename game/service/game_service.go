package service

import (
	"context"
	"errors"
	"time"

	"github.com/wricardo/sliding-block-game/game/editor"
	"github.com/wricardo/sliding-block-game/game/engine"
)

var (
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionAlreadyExists = errors.New("session already exists")
	ErrLevelNotFound        = errors.New("level not found")
	ErrInvalidLevel         = errors.New("invalid level")
	ErrWrongSessionKind     = errors.New("wrong session kind")
	ErrInvalidSlide         = errors.New("invalid slide")
	ErrUnknownCommand       = editor.ErrUnknownCommand
	ErrInvalidCommand       = editor.ErrInvalidCommand
)

// GameService defines all game-related operations
type GameService interface {
	// Session Management
	CreateSession(ctx context.Context, levelID string) (*SessionInfo, error)
	CreateEditor(ctx context.Context, req EditorRequest) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Pointer input
	PointerDown(ctx context.Context, sessionID string, pos engine.Vec2) (*PointerResult, error)
	PointerMove(ctx context.Context, sessionID string, pos engine.Vec2) (*PointerResult, error)
	PointerUp(ctx context.Context, sessionID string) (*PointerResult, error)

	// Game Operations
	Slide(ctx context.Context, sessionID string, pieceID, cells int) (*SlideResult, error)
	Reset(ctx context.Context, sessionID string) (*engine.GameState, error)

	// Game State
	GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error)
	GetMoveHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error)

	// Editing
	EditorCommand(ctx context.Context, sessionID string, cmd editor.Command) (*EditorResult, error)
	PublishLevel(ctx context.Context, sessionID, levelID string) (*LevelInfo, error)

	// Levels
	ListLevels(ctx context.Context) ([]*LevelInfo, error)
	LoadLevel(ctx context.Context, levelID string) (*engine.Level, error)
	SaveLevel(ctx context.Context, levelID string, level *engine.Level) error
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id, levelID string, level *engine.Level) (*Session, error)
	CreateEditor(id, levelID string, ed *editor.Editor) (*Session, error)
	Get(id string) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
	Save(id string) error
}

// LevelManager handles level loading and storage
type LevelManager interface {
	LoadLevel(id string) (*engine.Level, error)
	ListLevels() ([]*LevelInfo, error)
	GetDefault() *engine.Level
	SaveLevel(id string, level *engine.Level) error
}

// Notifier receives pushes for clients watching a session
type Notifier interface {
	BroadcastState(sessionID string, state *engine.GameState)
	BroadcastEvent(sessionID string, event string, data interface{})
}

// SessionKind tells play sessions from editor sessions
type SessionKind string

const (
	KindPlay SessionKind = "play"
	KindEdit SessionKind = "edit"
)

// Session represents an active play or edit session. Exactly one of Engine
// and Editor is set, matching Kind.
type Session struct {
	ID             string
	Kind           SessionKind
	LevelID        string
	Engine         *engine.GameEngine
	Editor         *editor.Editor
	CreatedAt      time.Time
	LastAccessedAt time.Time

	// hooked is set once the solved handler is attached to Engine
	hooked bool
}
