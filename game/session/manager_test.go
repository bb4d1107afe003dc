package session

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/wricardo/sliding-block-game/game/editor"
	"github.com/wricardo/sliding-block-game/game/engine"
	"github.com/wricardo/sliding-block-game/game/service"
)

func createTestLevel() *engine.Level {
	return &engine.Level{
		Name:        "Test Level",
		Description: "Test level",
		Board:       engine.Board{Rows: 4, Columns: 5},
		WinPiece:    engine.Piece{ID: 0, Axis: engine.Horizontal, Length: 2, Origin: engine.Cell{Row: 1, Col: 0}},
		Pieces: []engine.Piece{
			{ID: 1, Axis: engine.Vertical, Length: 2, Origin: engine.Cell{Row: 0, Col: 3}},
		},
	}
}

func slide(t *testing.T, eng *engine.GameEngine, pieceID, cells int) engine.ReleaseResult {
	t.Helper()
	piece, ok := eng.GetPiece(pieceID)
	if !ok {
		t.Fatalf("piece %d not found", pieceID)
	}
	start, path := engine.SlidePath(piece, cells)
	if !eng.PointerDown(start) {
		t.Fatalf("pointer down on piece %d refused", pieceID)
	}
	for _, p := range path {
		eng.PointerMove(p)
	}
	return eng.PointerUp()
}

func TestManager_Create(t *testing.T) {
	manager := NewManager()
	level := createTestLevel()

	t.Run("create with custom ID", func(t *testing.T) {
		session, err := manager.Create("test-session", "test", level)
		if err != nil {
			t.Fatalf("Failed to create session: %v", err)
		}
		if session.ID != "test-session" {
			t.Errorf("Expected session ID 'test-session', got '%s'", session.ID)
		}
		if session.Kind != service.KindPlay {
			t.Errorf("Expected play session, got %s", session.Kind)
		}
		if session.Engine == nil {
			t.Error("Expected engine to be initialized")
		}
		if session.LevelID != "test" {
			t.Errorf("Expected level ID 'test', got '%s'", session.LevelID)
		}
	})

	t.Run("create with auto-generated ID", func(t *testing.T) {
		session, err := manager.Create("", "test", level)
		if err != nil {
			t.Fatalf("Failed to create session: %v", err)
		}
		if len(session.ID) != 4 {
			t.Errorf("Expected 4-character session ID, got %q", session.ID)
		}
	})

	t.Run("duplicate session ID", func(t *testing.T) {
		_, err := manager.Create("test-session", "test", level)
		if err != ErrSessionAlreadyExists {
			t.Errorf("Expected ErrSessionAlreadyExists, got %v", err)
		}
	})

	t.Run("case-insensitive duplicate check", func(t *testing.T) {
		_, err := manager.Create("TEST-SESSION", "test", level)
		if err != ErrSessionAlreadyExists {
			t.Errorf("Expected ErrSessionAlreadyExists for case variant, got %v", err)
		}
	})

	t.Run("invalid session ID", func(t *testing.T) {
		_, err := manager.Create("../escape", "test", level)
		if err != ErrInvalidSessionID {
			t.Errorf("Expected ErrInvalidSessionID, got %v", err)
		}
	})

	t.Run("invalid level", func(t *testing.T) {
		invalid := createTestLevel()
		invalid.Pieces[0].Origin = engine.Cell{Row: 1, Col: 1}
		_, err := manager.Create("invalid-test", "test", invalid)
		if err == nil {
			t.Error("Expected error for overlapping pieces")
		}
	})
}

func TestManager_CreateEditor(t *testing.T) {
	manager := NewManager()

	ed, err := editor.New(5, 5)
	if err != nil {
		t.Fatalf("Failed to create editor: %v", err)
	}

	session, err := manager.CreateEditor("edit-1", "", ed)
	if err != nil {
		t.Fatalf("Failed to create edit session: %v", err)
	}
	if session.Kind != service.KindEdit || session.Editor != ed || session.Engine != nil {
		t.Errorf("Unexpected edit session: %+v", session)
	}

	if _, err := manager.CreateEditor("edit-2", "", nil); err == nil {
		t.Error("Expected error for nil editor")
	}
}

func TestManager_Get(t *testing.T) {
	manager := NewManager()

	created, _ := manager.Create("get-test", "test", createTestLevel())

	t.Run("get existing session", func(t *testing.T) {
		session, err := manager.Get("get-test")
		if err != nil {
			t.Fatalf("Failed to get session: %v", err)
		}
		if session != created {
			t.Errorf("Expected the created session")
		}
	})

	t.Run("case-insensitive get", func(t *testing.T) {
		session, err := manager.Get("GET-TEST")
		if err != nil {
			t.Fatalf("Failed to get session with different case: %v", err)
		}
		if session.ID != created.ID {
			t.Errorf("Expected same session regardless of case")
		}
	})

	t.Run("get non-existent session", func(t *testing.T) {
		_, err := manager.Get("non-existent")
		if err != ErrSessionNotFound {
			t.Errorf("Expected ErrSessionNotFound, got %v", err)
		}
	})
}

func TestManager_GetOrCreate(t *testing.T) {
	manager := NewManager()
	level := createTestLevel()

	first, err := manager.GetOrCreate("new-session", "test", level)
	if err != nil {
		t.Fatalf("Failed to get or create session: %v", err)
	}

	second, err := manager.GetOrCreate("new-session", "test", level)
	if err != nil {
		t.Fatalf("Failed to get existing session: %v", err)
	}
	if first != second {
		t.Error("Expected the existing session to be returned")
	}
}

func TestManager_Delete(t *testing.T) {
	manager := NewManager()
	level := createTestLevel()

	manager.Create("delete-test", "test", level)

	t.Run("delete existing session", func(t *testing.T) {
		if err := manager.Delete("delete-test"); err != nil {
			t.Fatalf("Failed to delete session: %v", err)
		}
		if _, err := manager.Get("delete-test"); err != ErrSessionNotFound {
			t.Error("Expected session to be deleted")
		}
	})

	t.Run("delete non-existent session", func(t *testing.T) {
		if err := manager.Delete("non-existent"); err != ErrSessionNotFound {
			t.Errorf("Expected ErrSessionNotFound, got %v", err)
		}
	})

	t.Run("case-insensitive delete", func(t *testing.T) {
		manager.Create("case-test", "test", level)
		if err := manager.Delete("CASE-TEST"); err != nil {
			t.Fatalf("Failed to delete with different case: %v", err)
		}
		if _, err := manager.Get("case-test"); err != ErrSessionNotFound {
			t.Error("Expected session to be deleted regardless of case")
		}
	})
}

func TestManager_List(t *testing.T) {
	manager := NewManager()
	level := createTestLevel()

	session1, _ := manager.Create("list-1", "test", level)
	session2, _ := manager.Create("list-2", "test", level)
	ed, _ := editor.New(3, 3)
	session3, _ := manager.CreateEditor("list-3", "", ed)

	sessions := manager.List()
	if len(sessions) != 3 {
		t.Errorf("Expected 3 sessions, got %d", len(sessions))
	}

	found := make(map[string]bool)
	for _, s := range sessions {
		found[s.ID] = true
	}
	for _, s := range []*service.Session{session1, session2, session3} {
		if !found[s.ID] {
			t.Errorf("Session %s not found in list", s.ID)
		}
	}
	if manager.Count() != 3 {
		t.Errorf("Expected count 3, got %d", manager.Count())
	}
}

func TestManager_CleanupExpired(t *testing.T) {
	manager := NewManager()
	level := createTestLevel()

	active, _ := manager.Create("active", "test", level)
	expired, _ := manager.Create("expired", "test", level)

	expired.LastAccessedAt = time.Now().Add(-2 * time.Hour)
	active.LastAccessedAt = time.Now()

	if deleted := manager.CleanupExpiredSessions(1 * time.Hour); deleted != 1 {
		t.Errorf("Expected 1 session to be deleted, got %d", deleted)
	}
	if _, err := manager.Get("expired"); err != ErrSessionNotFound {
		t.Error("Expected expired session to be deleted")
	}
	if _, err := manager.Get("active"); err != nil {
		t.Error("Expected active session to still exist")
	}
}

func TestManager_UpdateLastAccessed(t *testing.T) {
	manager := NewManager()

	session, _ := manager.Create("access-test", "test", createTestLevel())
	originalTime := session.LastAccessedAt

	time.Sleep(10 * time.Millisecond)

	if err := manager.UpdateLastAccessed("access-test"); err != nil {
		t.Fatalf("Failed to update last accessed: %v", err)
	}

	updated, _ := manager.Get("access-test")
	if !updated.LastAccessedAt.After(originalTime) {
		t.Error("Expected LastAccessedAt to be updated")
	}

	if err := manager.UpdateLastAccessed("missing"); err != ErrSessionNotFound {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
}

func TestManager_ConcurrentAccess(t *testing.T) {
	manager := NewManager()
	level := createTestLevel()

	var wg sync.WaitGroup
	errs := make(chan error, 100)

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			_, err := manager.Create(fmt.Sprintf("c-%d", id%50), "test", level)
			if err != nil && err != ErrSessionAlreadyExists {
				errs <- err
			}
			manager.Get(fmt.Sprintf("c-%d", id%50))
		}(i)
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("Unexpected error during concurrent access: %v", err)
	}
	if manager.Count() != 50 {
		t.Errorf("Expected 50 sessions, got %d", manager.Count())
	}
}

func TestManager_SessionIsolation(t *testing.T) {
	manager := NewManager()
	level := createTestLevel()

	session1, _ := manager.Create("iso-1", "test", level)
	session2, _ := manager.Create("iso-2", "test", level)

	if release := slide(t, session1.Engine, 1, 2); !release.Moved {
		t.Fatalf("Expected piece 1 to move, got %+v", release)
	}

	moved, _ := session1.Engine.GetPiece(1)
	untouched, _ := session2.Engine.GetPiece(1)
	if moved.Origin == untouched.Origin {
		t.Error("Sessions should have independent game state")
	}
	if untouched.Origin != (engine.Cell{Row: 0, Col: 3}) {
		t.Errorf("Session 2 should not be affected, piece at %+v", untouched.Origin)
	}
}

func TestManager_SessionIDGeneration(t *testing.T) {
	manager := NewManager()
	level := createTestLevel()

	generatedIDs := make(map[string]bool)
	for i := 0; i < 50; i++ {
		session, err := manager.Create("", "test", level)
		if err != nil {
			t.Fatalf("Failed to create session: %v", err)
		}
		if generatedIDs[session.ID] {
			t.Errorf("Duplicate session ID generated: %s", session.ID)
		}
		generatedIDs[session.ID] = true

		if len(session.ID) != 4 {
			t.Errorf("Expected 4-character ID, got %d", len(session.ID))
		}
	}
}

func TestManager_SessionIDSpaceExhausted(t *testing.T) {
	manager := NewManager()
	level := createTestLevel()

	for n := 0; n <= 0xffff; n++ {
		id := fmt.Sprintf("%04x", n)
		if id != "beef" {
			manager.sessions[id] = &service.Session{ID: id}
		}
	}

	session, err := manager.Create("", "test", level)
	if err != nil {
		t.Fatalf("Expected the last free ID, got error: %v", err)
	}
	if session.ID != "beef" {
		t.Errorf("Expected ID beef, got %s", session.ID)
	}

	_, err = manager.Create("", "test", level)
	if !errors.Is(err, ErrNoSessionIDs) {
		t.Errorf("Expected ErrNoSessionIDs, got %v", err)
	}
	if manager.Count() != 0x10000 {
		t.Errorf("Expected %d sessions, got %d", 0x10000, manager.Count())
	}
}
