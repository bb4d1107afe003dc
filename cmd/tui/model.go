package main

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/wricardo/sliding-block-game/game/editor"
	"github.com/wricardo/sliding-block-game/game/engine"
	"github.com/wricardo/sliding-block-game/game/levels"
)

type screen int

const (
	screenPlay screen = iota
	screenEdit
)

// solvedMsg carries the delayed solved notification from the engine.
type solvedMsg engine.SolvedEvent

// Model is the Bubbletea model for the terminal player and editor.
type Model struct {
	levels     *levels.Manager
	engine     *engine.GameEngine
	editor     *editor.Editor
	screen     screen
	cursor     engine.Cell
	grabbed    *int
	solved     chan engine.SolvedEvent
	solveDelay time.Duration
	status     string
	quitting   bool
}

// NewModel opens level for play. lm may be nil, which disables saving.
func NewModel(level *engine.Level, lm *levels.Manager, solveDelay time.Duration) (Model, error) {
	m := Model{
		levels:     lm,
		solved:     make(chan engine.SolvedEvent, 1),
		solveDelay: solveDelay,
	}
	if err := m.startPlay(level); err != nil {
		return Model{}, err
	}
	return m, nil
}

// NewEditorModel opens ed for editing
func NewEditorModel(ed *editor.Editor, lm *levels.Manager, solveDelay time.Duration) Model {
	return Model{
		levels:     lm,
		editor:     ed,
		screen:     screenEdit,
		solved:     make(chan engine.SolvedEvent, 1),
		solveDelay: solveDelay,
		status:     "Editing " + ed.Level().Name,
	}
}

func (m *Model) startPlay(level *engine.Level) error {
	eng, err := engine.NewEngine(level)
	if err != nil {
		return err
	}
	eng.SetSolveDelay(m.solveDelay)

	ch := m.solved
	eng.OnSolved(func(ev engine.SolvedEvent) {
		select {
		case ch <- ev:
		default:
		}
	})

	m.engine = eng
	m.screen = screenPlay
	m.grabbed = nil
	m.cursor = level.WinPiece.Origin
	m.status = eng.GetState().Message
	return nil
}

// Init starts listening for solved notifications.
func (m Model) Init() tea.Cmd {
	return waitForSolved(m.solved)
}

// Update handles key presses and engine notifications.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case solvedMsg:
		m.status = fmt.Sprintf("🎉 %s solved in %d moves", msg.LevelName, msg.TotalMoves)
		return m, waitForSolved(m.solved)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "q", "ctrl+c", "esc":
		m.quitting = true
		return m, tea.Quit
	case "tab":
		m.switchScreen()
		return m, nil
	}

	if dr, dc, ok := direction(key); ok {
		if m.screen == screenPlay && m.grabbed != nil {
			m.slideGrabbed(dr, dc)
		} else {
			m.moveCursor(dr, dc)
		}
		return m, nil
	}

	if m.screen == screenPlay {
		m.handlePlayKey(key)
	} else {
		m.handleEditKey(key)
	}
	return m, nil
}

func direction(key string) (int, int, bool) {
	switch key {
	case "up":
		return -1, 0, true
	case "down":
		return 1, 0, true
	case "left":
		return 0, -1, true
	case "right":
		return 0, 1, true
	}
	return 0, 0, false
}

func (m *Model) board() engine.Board {
	if m.screen == screenEdit {
		return m.editor.Level().Board
	}
	return m.engine.CurrentLevel().Board
}

func (m *Model) moveCursor(dr, dc int) {
	next := engine.Cell{Row: m.cursor.Row + dr, Col: m.cursor.Col + dc}
	if m.board().Contains(next) {
		m.cursor = next
	}
}

func (m *Model) handlePlayKey(key string) {
	switch key {
	case "enter", " ":
		if m.grabbed != nil {
			m.status = fmt.Sprintf("Released piece %d", *m.grabbed)
			m.grabbed = nil
			return
		}
		if m.engine.IsSolved() {
			m.status = "Level solved. Press r to play again"
			return
		}
		id, ok := pieceAt(m.engine.CurrentLevel(), m.cursor)
		if !ok {
			m.status = "No piece under the cursor"
			return
		}
		m.grabbed = &id
		m.status = fmt.Sprintf("Holding piece %d", id)
	case "r":
		m.engine.Reset()
		m.grabbed = nil
		m.cursor = m.engine.InitialLevel().WinPiece.Origin
		m.status = "Level reset"
	}
}

// slideGrabbed moves the held piece one cell, keeping the cursor on it
func (m *Model) slideGrabbed(dr, dc int) {
	piece, ok := m.engine.GetPiece(*m.grabbed)
	if !ok {
		m.grabbed = nil
		return
	}

	cells, along := dc, "left and right"
	if piece.Axis == engine.Vertical {
		cells, along = dr, "up and down"
	}
	if cells == 0 {
		m.status = fmt.Sprintf("Piece %d only slides %s", piece.ID, along)
		return
	}

	release := slide(m.engine, piece, cells)
	if !release.Moved {
		m.status = fmt.Sprintf("Piece %d is blocked", piece.ID)
		return
	}

	m.cursor.Row += release.To.Row - release.From.Row
	m.cursor.Col += release.To.Col - release.From.Col
	m.status = m.engine.GetState().Message
	logrus.WithFields(logrus.Fields{"piece": piece.ID, "from": release.From, "to": release.To}).Debug("Piece moved")

	if release.Solved {
		m.grabbed = nil
		if !m.board().Contains(m.cursor) {
			m.cursor = release.From
		}
	}
}

func (m *Model) handleEditKey(key string) {
	if key == "ctrl+s" {
		m.save()
		return
	}

	res, err := m.editor.HandleKey(key, m.cursor)
	if err != nil {
		m.status = err.Error()
		return
	}
	if res != nil {
		m.status = res.Message
	}
}

func (m *Model) save() {
	if m.levels == nil {
		m.status = "Cannot save: no level directory"
		return
	}
	level := m.editor.Level()
	id := levels.Slug(level.Name)
	if err := m.levels.SaveLevel(id, level); err != nil {
		m.status = "Cannot save: " + err.Error()
		return
	}
	logrus.WithField("level", id).Info("Level saved")
	m.status = fmt.Sprintf("Saved %s.json", id)
}

// switchScreen play-tests the edited level, or opens the played level in
// the editor.
func (m *Model) switchScreen() {
	if m.screen == screenPlay {
		ed, err := editor.FromLevel(m.engine.InitialLevel())
		if err != nil {
			m.status = "Cannot edit: " + err.Error()
			return
		}
		m.editor = ed
		m.screen = screenEdit
		m.grabbed = nil
		m.status = "Editing " + ed.Level().Name
		return
	}

	if err := m.editor.Validate(); err != nil {
		m.status = "Cannot play: " + err.Error()
		return
	}
	if err := m.startPlay(m.editor.Level()); err != nil {
		m.status = "Cannot play: " + err.Error()
	}
}

// pieceAt returns the piece covering c, the win piece first
func pieceAt(level *engine.Level, c engine.Cell) (int, bool) {
	for _, p := range level.AllPieces() {
		if p.Covers(c) {
			return p.ID, true
		}
	}
	return 0, false
}

// slide replays a whole-cell gesture through the drag resolver
func slide(eng *engine.GameEngine, piece engine.Piece, cells int) engine.ReleaseResult {
	start, path := engine.SlidePath(piece, cells)
	if !eng.PointerDown(start) {
		return engine.ReleaseResult{}
	}
	for _, p := range path {
		eng.PointerMove(p)
	}
	return eng.PointerUp()
}

func waitForSolved(ch <-chan engine.SolvedEvent) tea.Cmd {
	return func() tea.Msg {
		return solvedMsg(<-ch)
	}
}
