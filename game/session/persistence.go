package session

import (
	"time"

	"github.com/wricardo/sliding-block-game/game/editor"
	"github.com/wricardo/sliding-block-game/game/engine"
	"github.com/wricardo/sliding-block-game/game/service"
)

// SessionPersistence defines the interface for persisting sessions
type SessionPersistence interface {
	// Save persists a session to storage
	Save(session *service.Session) error

	// Load retrieves a session from storage by ID
	Load(id string) (*service.Session, error)

	// Delete removes a session from storage
	Delete(id string) error

	// ListAll returns all persisted session IDs
	ListAll() ([]string, error)

	// Exists checks if a session exists in storage
	Exists(id string) bool
}

// PersistedSessionData represents the JSON structure for persisted sessions.
// Play sessions carry an engine snapshot, edit sessions an editor snapshot.
type PersistedSessionData struct {
	ID             string              `json:"id"`
	Kind           service.SessionKind `json:"kind"`
	LevelID        string              `json:"level_id"`
	CreatedAt      time.Time           `json:"created_at"`
	LastAccessedAt time.Time           `json:"last_accessed_at"`
	Engine         *engine.Snapshot    `json:"engine,omitempty"`
	Editor         *editor.Snapshot    `json:"editor,omitempty"`
}
