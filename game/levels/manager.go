package levels

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/wricardo/sliding-block-game/game/engine"
	"github.com/wricardo/sliding-block-game/game/service"
)

var (
	ErrLevelNotFound = service.ErrLevelNotFound
	ErrInvalidLevel  = service.ErrInvalidLevel
)

// Extensions are tried in this order when resolving a level id
var Extensions = []string{".json", ".yaml", ".yml"}

// DefaultLevelID is loaded as the default level when present
const DefaultLevelID = "classic"

// Manager handles level loading and caching
type Manager struct {
	levelDir     string
	defaultLevel *engine.Level
	levels       map[string]*engine.Level
	mu           sync.RWMutex
}

// NewManager creates a new level manager
func NewManager(levelDir string) (*Manager, error) {
	if _, err := os.Stat(levelDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("level directory does not exist: %s", levelDir)
	}

	m := &Manager{
		levelDir: levelDir,
		levels:   make(map[string]*engine.Level),
	}

	if err := m.loadDefaultLevel(); err != nil {
		return nil, fmt.Errorf("failed to load default level: %w", err)
	}

	return m, nil
}

// Dir returns the directory levels are read from
func (m *Manager) Dir() string {
	return m.levelDir
}

// LoadLevel loads a level by id. Callers receive their own copy.
func (m *Manager) LoadLevel(id string) (*engine.Level, error) {
	if !validID(id) {
		return nil, fmt.Errorf("%w: %q", ErrLevelNotFound, id)
	}

	id = LevelID(id)

	m.mu.RLock()
	if level, exists := m.levels[id]; exists {
		m.mu.RUnlock()
		return level.Clone(), nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if level, exists := m.levels[id]; exists {
		return level.Clone(), nil
	}

	path, err := m.resolve(id)
	if err != nil {
		return nil, err
	}

	level, err := ReadLevelFile(path)
	if err != nil {
		return nil, err
	}
	if level.Name == "" {
		level.Name = id
	}

	m.levels[id] = level
	return level.Clone(), nil
}

// resolve finds the file backing a level id
func (m *Manager) resolve(id string) (string, error) {
	for _, ext := range Extensions {
		path := filepath.Join(m.levelDir, id+ext)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrLevelNotFound, id)
}

// ReadLevelFile parses and validates a JSON or YAML level file
func ReadLevelFile(path string) (*engine.Level, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrLevelNotFound, path)
		}
		return nil, fmt.Errorf("failed to read level file: %w", err)
	}

	level, err := ParseLevel(data, filepath.Ext(path))
	if err != nil {
		return nil, err
	}

	if err := engine.ValidateLevel(level); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidLevel, filepath.Base(path), err)
	}
	return level, nil
}

// ParseLevel decodes level data. ext selects the format: ".yaml" and ".yml"
// are YAML, anything else is JSON.
func ParseLevel(data []byte, ext string) (*engine.Level, error) {
	var level engine.Level
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &level); err != nil {
			return nil, fmt.Errorf("%w: failed to parse yaml: %v", ErrInvalidLevel, err)
		}
	default:
		if err := json.Unmarshal(data, &level); err != nil {
			return nil, fmt.Errorf("%w: failed to parse json: %v", ErrInvalidLevel, err)
		}
	}
	if level.Pieces == nil {
		level.Pieces = []engine.Piece{}
	}
	return &level, nil
}

// ListLevels returns information about all loadable levels, sorted by id.
// Files that fail to load are skipped.
func (m *Manager) ListLevels() ([]*service.LevelInfo, error) {
	entries, err := os.ReadDir(m.levelDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read level directory: %w", err)
	}

	seen := make(map[string]bool)
	levels := []*service.LevelInfo{}

	for _, entry := range entries {
		if entry.IsDir() || !IsLevelFile(entry.Name()) {
			continue
		}

		id := LevelID(entry.Name())
		if seen[id] {
			continue
		}
		seen[id] = true

		level, err := m.LoadLevel(id)
		if err != nil {
			continue
		}

		levels = append(levels, service.NewLevelInfo(id, entry.Name(), level))
	}

	sort.Slice(levels, func(i, j int) bool { return levels[i].LevelID < levels[j].LevelID })
	return levels, nil
}

// GetDefault returns the default level
func (m *Manager) GetDefault() *engine.Level {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultLevel.Clone()
}

// SetDefault sets the default level by id
func (m *Manager) SetDefault(id string) error {
	level, err := m.LoadLevel(id)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultLevel = level
	return nil
}

// Invalidate drops one level from the cache so the next load reads the file
func (m *Manager) Invalidate(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.levels, LevelID(id))
}

// RefreshCache reloads all cached levels from disk
func (m *Manager) RefreshCache() error {
	m.mu.Lock()
	m.levels = make(map[string]*engine.Level)
	m.mu.Unlock()

	return m.loadDefaultLevel()
}

// loadDefaultLevel picks classic, else the first listed level, else a
// built-in one
func (m *Manager) loadDefaultLevel() error {
	level, err := m.LoadLevel(DefaultLevelID)
	if err != nil {
		infos, listErr := m.ListLevels()
		if listErr != nil || len(infos) == 0 {
			level = MinimalLevel()
		} else if level, err = m.LoadLevel(infos[0].LevelID); err != nil {
			level = MinimalLevel()
		}
	}

	m.mu.Lock()
	m.defaultLevel = level
	m.mu.Unlock()
	return nil
}

// SaveLevel validates a level and writes it as JSON
func (m *Manager) SaveLevel(id string, level *engine.Level) error {
	if !validID(id) {
		return fmt.Errorf("%w: bad level id %q", ErrInvalidLevel, id)
	}
	id = LevelID(id)
	if err := engine.ValidateLevel(level); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidLevel, err)
	}

	data, err := json.MarshalIndent(level, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal level: %w", err)
	}

	path := filepath.Join(m.levelDir, id+".json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write level file: %w", err)
	}

	m.mu.Lock()
	m.levels[id] = level.Clone()
	m.mu.Unlock()

	return nil
}

// LevelID strips a known level extension from a file or level name
func LevelID(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	for _, ext := range Extensions {
		if strings.HasSuffix(strings.ToLower(name), ext) {
			return name[:len(name)-len(ext)]
		}
	}
	return name
}

// IsLevelFile reports whether path has a level file extension
func IsLevelFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// validID rejects empty ids and anything that could leave the level directory
func validID(id string) bool {
	id = strings.TrimSpace(id)
	if strings.ContainsAny(id, `/\`) {
		return false
	}
	id = LevelID(id)
	return id != "" && id != "." && id != ".."
}

// MinimalLevel is the built-in level used when the directory has none
func MinimalLevel() *engine.Level {
	return &engine.Level{
		Name:        "default",
		Description: "Move the blocker down, then slide out",
		Board:       engine.Board{Rows: 4, Columns: 4},
		WinPiece:    engine.Piece{ID: engine.WinPieceID, Axis: engine.Horizontal, Length: 2, Origin: engine.Cell{Row: 1, Col: 0}},
		Pieces: []engine.Piece{
			{ID: 1, Axis: engine.Vertical, Length: 2, Origin: engine.Cell{Row: 0, Col: 2}},
		},
	}
}

// Slug turns a display name into a level id: lower case letters and digits
// with single dashes between words.
func Slug(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
