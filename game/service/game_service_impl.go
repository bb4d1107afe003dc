package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/wricardo/sliding-block-game/game/editor"
	"github.com/wricardo/sliding-block-game/game/engine"
)

// DefaultEditorSize is the board size of an editor opened without a level
const DefaultEditorSize = 6

// Option configures the game service
type Option func(*gameServiceImpl)

// WithNotifier sets the receiver of state pushes and solved events
func WithNotifier(n Notifier) Option {
	return func(s *gameServiceImpl) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithSolveDelay overrides the delay before the solved notification
func WithSolveDelay(d time.Duration) Option {
	return func(s *gameServiceImpl) {
		s.solveDelay = d
	}
}

// gameServiceImpl implements the GameService interface. A single mutex
// serializes every operation, so each engine sees one input event at a time.
type gameServiceImpl struct {
	sessions   SessionManager
	levels     LevelManager
	notifier   Notifier
	solveDelay time.Duration
	mu         sync.Mutex
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, levels LevelManager, opts ...Option) GameService {
	s := &gameServiceImpl{
		sessions:   sessions,
		levels:     levels,
		notifier:   nopNotifier{},
		solveDelay: engine.DefaultSolveDelay,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type nopNotifier struct{}

func (nopNotifier) BroadcastState(string, *engine.GameState)   {}
func (nopNotifier) BroadcastEvent(string, string, interface{}) {}

// CreateSession creates a new play session. An empty level id plays the
// default level.
func (s *gameServiceImpl) CreateSession(ctx context.Context, levelID string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var level *engine.Level
	if levelID != "" {
		var err error
		level, err = s.levels.LoadLevel(levelID)
		if err != nil {
			return nil, fmt.Errorf("failed to load level %s: %w", levelID, err)
		}
	} else {
		level = s.levels.GetDefault()
		levelID = "default"
	}

	// Let session manager generate a proper 4-character ID
	sess, err := s.sessions.Create("", levelID, level)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	s.hook(sess)

	logrus.WithFields(logrus.Fields{
		"session": sess.ID,
		"level":   levelID,
	}).Info("play session created")

	return s.info(sess), nil
}

// CreateEditor opens an edit session on a stored level or on an empty board
func (s *gameServiceImpl) CreateEditor(ctx context.Context, req EditorRequest) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ed *editor.Editor
	if req.LevelID != "" {
		level, err := s.levels.LoadLevel(req.LevelID)
		if err != nil {
			return nil, fmt.Errorf("failed to load level %s: %w", req.LevelID, err)
		}
		if ed, err = editor.FromLevel(level); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidLevel, err)
		}
	} else {
		rows, cols := req.Rows, req.Columns
		if rows == 0 && cols == 0 {
			rows, cols = DefaultEditorSize, DefaultEditorSize
		}
		var err error
		if ed, err = editor.New(rows, cols); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidLevel, err)
		}
	}

	sess, err := s.sessions.CreateEditor("", req.LevelID, ed)
	if err != nil {
		return nil, fmt.Errorf("failed to create editor session: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"session": sess.ID,
		"level":   req.LevelID,
	}).Info("editor session created")

	return s.info(sess), nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	s.touch(sessionID)

	return s.info(sess), nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		s.hook(sess)
		result = append(result, s.info(sess))
	}

	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sessions.Delete(sessionID); err != nil {
		return err
	}
	logrus.WithField("session", sessionID).Info("session deleted")
	return nil
}

// PointerDown starts a drag on the piece under pos
func (s *gameServiceImpl) PointerDown(ctx context.Context, sessionID string, pos engine.Vec2) (*PointerResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.playSession(sessionID)
	if err != nil {
		return nil, err
	}

	result := &PointerResult{Accepted: sess.Engine.PointerDown(pos)}
	if result.Accepted {
		id, _ := sess.Engine.ActivePieceID()
		result.Message = fmt.Sprintf("Dragging piece %d", id)
	} else {
		result.Message = "No piece to drag"
	}

	s.finish(sess, result)
	return result, nil
}

// PointerMove feeds one drag sample
func (s *gameServiceImpl) PointerMove(ctx context.Context, sessionID string, pos engine.Vec2) (*PointerResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.playSession(sessionID)
	if err != nil {
		return nil, err
	}

	step := sess.Engine.PointerMove(pos)
	result := &PointerResult{Accepted: step.Accepted, Step: &step}
	switch {
	case !step.Active:
		result.Message = "No active drag"
	case step.Accepted:
		result.Message = fmt.Sprintf("Piece %d at (%d,%d)", step.PieceID, step.Cell.Row, step.Cell.Col)
	default:
		result.Message = fmt.Sprintf("Piece %d blocked at (%d,%d)", step.PieceID, step.Cell.Row, step.Cell.Col)
	}

	s.finish(sess, result)
	return result, nil
}

// PointerUp ends the drag and commits the piece to its cell
func (s *gameServiceImpl) PointerUp(ctx context.Context, sessionID string) (*PointerResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.playSession(sessionID)
	if err != nil {
		return nil, err
	}

	release := sess.Engine.PointerUp()
	result := &PointerResult{
		Accepted: release.Released,
		Release:  &release,
		Events:   s.releaseEvents(sess, release),
	}
	if !release.Released {
		result.Message = "No active drag"
	}

	s.finish(sess, result)
	if release.Released {
		s.save(sessionID)
	}
	return result, nil
}

// Slide moves a piece by whole cells along its axis using a synthesized
// pointer gesture. Negative cells slide toward lower indices.
func (s *gameServiceImpl) Slide(ctx context.Context, sessionID string, pieceID, cells int) (*SlideResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.playSession(sessionID)
	if err != nil {
		return nil, err
	}

	eng := sess.Engine
	piece, ok := eng.GetPiece(pieceID)
	if !ok {
		return nil, fmt.Errorf("%w: piece %d not found", ErrInvalidSlide, pieceID)
	}
	if cells == 0 {
		return nil, fmt.Errorf("%w: cells must not be zero", ErrInvalidSlide)
	}
	if extent := eng.CurrentLevel().Board.Extent(piece.Axis); cells > extent || cells < -extent {
		return nil, fmt.Errorf("%w: cells must be within %d of zero for a %s piece", ErrInvalidSlide, extent, piece.Axis)
	}
	if eng.IsDragging() {
		return nil, fmt.Errorf("%w: a drag is in progress", ErrInvalidSlide)
	}

	result := &SlideResult{
		PieceID:        pieceID,
		RequestedCells: cells,
		From:           piece.Origin,
		To:             piece.Origin,
	}

	if eng.IsSolved() {
		result.Solved = true
		result.GameState = eng.GetState()
		result.Message = "Level already solved"
		return result, nil
	}

	start, path := engine.SlidePath(piece, cells)
	if !eng.PointerDown(start) {
		return nil, fmt.Errorf("%w: piece %d cannot be grabbed", ErrInvalidSlide, pieceID)
	}
	for _, p := range path {
		eng.PointerMove(p)
	}
	release := eng.PointerUp()

	result.To = release.To
	result.MovedCells = cellDistance(piece.Axis, release.From, release.To)
	result.Success = release.Moved
	result.Blocked = result.MovedCells != cells
	result.Solved = release.Solved
	result.Events = s.releaseEvents(sess, release)
	result.GameState = eng.GetState()

	switch {
	case result.Solved:
		result.Message = result.GameState.Message
	case result.Blocked:
		result.Message = fmt.Sprintf("Piece %d blocked after %d of %d cells", pieceID, abs(result.MovedCells), abs(cells))
		result.Events = append(result.Events, GameEvent{
			Type:      "blocked",
			Message:   result.Message,
			Timestamp: time.Now(),
			PieceID:   &pieceID,
		})
	default:
		result.Message = result.GameState.Message
	}

	s.touch(sessionID)
	s.notifier.BroadcastState(sess.ID, result.GameState)
	s.save(sessionID)
	return result, nil
}

// Reset restores the session's initial level
func (s *gameServiceImpl) Reset(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.playSession(sessionID)
	if err != nil {
		return nil, err
	}

	s.touch(sessionID)
	state := sess.Engine.Reset()
	s.notifier.BroadcastState(sess.ID, state)
	s.save(sessionID)

	return state, nil
}

// GetGameState retrieves the current game state
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.playSession(sessionID)
	if err != nil {
		return nil, err
	}

	s.touch(sessionID)
	return sess.Engine.GetState(), nil
}

// GetMoveHistory returns paginated move history
func (s *gameServiceImpl) GetMoveHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.playSession(sessionID)
	if err != nil {
		return nil, err
	}

	return paginate(sess.Engine.GetMoveHistory(), opts), nil
}

// EditorCommand applies one discrete command to an edit session
func (s *gameServiceImpl) EditorCommand(ctx context.Context, sessionID string, cmd editor.Command) (*EditorResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.editSession(sessionID)
	if err != nil {
		return nil, err
	}

	res, err := sess.Editor.Apply(cmd)
	if err != nil {
		return nil, err
	}

	s.touch(sessionID)
	s.save(sessionID)

	return &EditorResult{
		Result:      res,
		EditorState: sess.Editor.GetState(),
	}, nil
}

// PublishLevel validates the edited level and stores it under levelID. An
// empty id reuses the level the editor was opened on.
func (s *gameServiceImpl) PublishLevel(ctx context.Context, sessionID, levelID string) (*LevelInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.editSession(sessionID)
	if err != nil {
		return nil, err
	}

	if levelID == "" {
		levelID = sess.LevelID
	}
	if levelID == "" {
		return nil, fmt.Errorf("%w: level id is required", ErrInvalidLevel)
	}

	if err := sess.Editor.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLevel, err)
	}
	level := sess.Editor.Level()
	if err := s.levels.SaveLevel(levelID, level); err != nil {
		return nil, fmt.Errorf("failed to save level %s: %w", levelID, err)
	}

	sess.LevelID = levelID
	s.save(sessionID)

	logrus.WithFields(logrus.Fields{
		"session": sess.ID,
		"level":   levelID,
	}).Info("level published")

	return NewLevelInfo(levelID, levelID+".json", level), nil
}

// ListLevels returns the stored levels
func (s *gameServiceImpl) ListLevels(ctx context.Context) ([]*LevelInfo, error) {
	return s.levels.ListLevels()
}

// LoadLevel loads a specific level
func (s *gameServiceImpl) LoadLevel(ctx context.Context, levelID string) (*engine.Level, error) {
	return s.levels.LoadLevel(levelID)
}

// SaveLevel validates and stores a level
func (s *gameServiceImpl) SaveLevel(ctx context.Context, levelID string, level *engine.Level) error {
	if level == nil {
		return fmt.Errorf("%w: level cannot be nil", ErrInvalidLevel)
	}
	if err := engine.ValidateLevel(level); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidLevel, err)
	}
	return s.levels.SaveLevel(levelID, level)
}

// session looks a session up and attaches the solved handler to its engine
func (s *gameServiceImpl) session(id string) (*Session, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("session %s: %w", id, err)
	}
	s.hook(sess)
	return sess, nil
}

func (s *gameServiceImpl) playSession(id string) (*Session, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}
	if sess.Kind != KindPlay || sess.Engine == nil {
		return nil, fmt.Errorf("%w: session %s is an editor", ErrWrongSessionKind, sess.ID)
	}
	return sess, nil
}

func (s *gameServiceImpl) editSession(id string) (*Session, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}
	if sess.Kind != KindEdit || sess.Editor == nil {
		return nil, fmt.Errorf("%w: session %s is not an editor", ErrWrongSessionKind, sess.ID)
	}
	return sess, nil
}

// hook wires the engine's delayed solved notification to the notifier. The
// handler runs on a timer goroutine and only touches the notifier.
func (s *gameServiceImpl) hook(sess *Session) {
	if sess.hooked || sess.Engine == nil {
		return
	}
	sess.hooked = true

	id := sess.ID
	notifier := s.notifier
	sess.Engine.SetSolveDelay(s.solveDelay)
	sess.Engine.OnSolved(func(ev engine.SolvedEvent) {
		logrus.WithFields(logrus.Fields{
			"session": id,
			"level":   ev.LevelName,
			"moves":   ev.TotalMoves,
		}).Info("level solved")
		notifier.BroadcastEvent(id, "solved", ev)
	})
}

// finish attaches the state to a pointer result and pushes it
func (s *gameServiceImpl) finish(sess *Session, result *PointerResult) {
	s.touch(sess.ID)
	result.GameState = sess.Engine.GetState()
	if result.Message == "" {
		result.Message = result.GameState.Message
	}
	s.notifier.BroadcastState(sess.ID, result.GameState)
}

func (s *gameServiceImpl) releaseEvents(sess *Session, release engine.ReleaseResult) []GameEvent {
	var events []GameEvent
	now := time.Now()
	pieceID := release.PieceID

	if release.Moved {
		logrus.WithFields(logrus.Fields{
			"session": sess.ID,
			"piece":   release.PieceID,
			"from":    fmt.Sprintf("(%d,%d)", release.From.Row, release.From.Col),
			"to":      fmt.Sprintf("(%d,%d)", release.To.Row, release.To.Col),
		}).Info("drag committed")

		events = append(events, GameEvent{
			Type:      "move",
			Message:   fmt.Sprintf("Piece %d moved from (%d,%d) to (%d,%d)", pieceID, release.From.Row, release.From.Col, release.To.Row, release.To.Col),
			Timestamp: now,
			PieceID:   &pieceID,
		})
	}
	if release.Released && release.Solved {
		events = append(events, GameEvent{
			Type:      "solved",
			Message:   sess.Engine.GetState().Message,
			Timestamp: now,
			PieceID:   &pieceID,
		})
	}
	return events
}

func (s *gameServiceImpl) touch(id string) {
	if err := s.sessions.UpdateLastAccessed(id); err != nil {
		logrus.WithError(err).WithField("session", id).Debug("failed to update last access")
	}
}

func (s *gameServiceImpl) save(id string) {
	if err := s.sessions.Save(id); err != nil {
		logrus.WithError(err).WithField("session", id).Warn("failed to persist session")
	}
}

func (s *gameServiceImpl) info(sess *Session) *SessionInfo {
	info := &SessionInfo{
		ID:             sess.ID,
		Kind:           sess.Kind,
		LevelID:        sess.LevelID,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
	}
	switch {
	case sess.Engine != nil:
		info.GameState = sess.Engine.GetState()
		info.Level = sess.Engine.InitialLevel()
	case sess.Editor != nil:
		info.EditorState = sess.Editor.GetState()
		info.Level = sess.Editor.Level()
	}
	return info
}

// paginate slices history into one page. Defaults: page 1, 20 per page
// (at most 100), most recent first.
func paginate(history []engine.MoveHistoryEntry, opts HistoryOptions) *HistoryResponse {
	total := len(history)

	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Order != "asc" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if end > total {
		end = total
	}

	moves := []engine.MoveHistoryEntry{}
	if start < total {
		if opts.Order == "desc" {
			for i := total - 1 - start; i >= total-end; i-- {
				moves = append(moves, history[i])
			}
		} else {
			moves = append(moves, history[start:end]...)
		}
	}

	return &HistoryResponse{
		Moves:       moves,
		TotalMoves:  total,
		Page:        opts.Page,
		PageSize:    opts.Limit,
		TotalPages:  totalPages,
		HasNext:     opts.Page < totalPages,
		HasPrevious: opts.Page > 1,
	}
}

// NewLevelInfo summarizes a level for listings
func NewLevelInfo(id, filename string, level *engine.Level) *LevelInfo {
	return &LevelInfo{
		Filename:    filename,
		LevelID:     id,
		Name:        level.Name,
		Description: level.Description,
		Rows:        level.Board.Rows,
		Columns:     level.Board.Columns,
		Pieces:      len(level.Pieces) + 1,
	}
}

func cellDistance(axis engine.Axis, from, to engine.Cell) int {
	if axis == engine.Vertical {
		return to.Row - from.Row
	}
	return to.Col - from.Col
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
