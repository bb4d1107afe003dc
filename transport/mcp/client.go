package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/sliding-block-game/game/editor"
	"github.com/wricardo/sliding-block-game/game/engine"
	"github.com/wricardo/sliding-block-game/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Sliding Block Game",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Sliding Block Game - MCP Interface

This is a thin client that proxies all requests to the REST API server.

GAME OBJECTIVE:
Slide the win piece (*) to the right edge of the board. Every piece slides only
along its own axis and pieces never overlap.

AVAILABLE TOOLS:
- create_session / list_sessions / get_session: manage play sessions
- board_state: current board, pieces and move counts
- slide_piece: slide a piece a whole number of cells (negative = left/up)
- pointer_down / pointer_move / pointer_up: raw drag input in board units
- reset_game: restore the level's initial layout
- move_history: committed moves, paginated
- list_levels: available levels
- create_editor / editor_command / publish_level: build and publish levels
- game_instructions: rules, coordinates and editor commands

NOTE: The 'intent' parameter on slide_piece serves as rubber duck debugging - explain your reasoning!`),
	)

	c.registerTools()
}

func sessionProp() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID",
	}
}

func prop(kind, description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        kind,
		"description": description,
	}
}

func noArgs() mcp.ToolInputSchema {
	return mcp.ToolInputSchema{
		Type:       "object",
		Properties: map[string]interface{}{},
	}
}

func sessionOnly() mcp.ToolInputSchema {
	return mcp.ToolInputSchema{
		Type:       "object",
		Properties: map[string]interface{}{"session_id": sessionProp()},
		Required:   []string{"session_id"},
	}
}

func pointerArgs() mcp.ToolInputSchema {
	return mcp.ToolInputSchema{
		Type: "object",
		Properties: map[string]interface{}{
			"session_id": sessionProp(),
			"x":          prop("number", "Pointer X in board units (column + 0.5 is a cell center)"),
			"y":          prop("number", "Pointer Y in board units (row + 0.5 is a cell center)"),
		},
		Required: []string{"session_id", "x", "y"},
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new play session, optionally for a specific level",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"level_id": prop("string", "Level to play (optional, see list_levels)"),
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active sessions",
		InputSchema: noArgs(),
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details of a specific session",
		InputSchema: sessionOnly(),
	}, c.handleGetSession)

	// Play
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "board_state",
		Description: "Get the current board of a play session",
		InputSchema: sessionOnly(),
	}, c.handleBoardState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "slide_piece",
		Description: "Slide a piece along its axis by a whole number of cells. The piece stops early when blocked.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProp(),
				"piece_id":   prop("integer", "Piece to slide (0 is the win piece)"),
				"cells":      prop("integer", "Cells to slide; positive = right/down, negative = left/up"),
				"intent":     prop("string", "Brief explanation of the intent behind this move (serves as a rubber duck to help explain your reasoning)"),
			},
			Required: []string{"session_id", "piece_id", "cells"},
		},
	}, c.handleSlide)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "pointer_down",
		Description: "Press the pointer at a board position, grabbing the piece under it",
		InputSchema: pointerArgs(),
	}, c.handlePointerDown)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "pointer_move",
		Description: "Move the pointer while dragging",
		InputSchema: pointerArgs(),
	}, c.handlePointerMove)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "pointer_up",
		Description: "Release the pointer, snapping the dragged piece to its cell",
		InputSchema: sessionOnly(),
	}, c.handlePointerUp)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "reset_game",
		Description: "Reset the board to the level's initial layout",
		InputSchema: sessionOnly(),
	}, c.handleReset)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "move_history",
		Description: "Get move history for a session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProp(),
				"page":       prop("integer", "Page number"),
				"limit":      prop("integer", "Items per page"),
				"order": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"asc", "desc"},
					"description": "Oldest or newest first (default desc)",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleMoveHistory)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_levels",
		Description: "List available levels",
		InputSchema: noArgs(),
	}, c.handleListLevels)

	// Editing
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_editor",
		Description: "Start a level editor session, empty or from an existing level",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"level_id": prop("string", "Level to edit (optional)"),
				"rows":     prop("integer", "Rows of a new empty board (default 6)"),
				"columns":  prop("integer", "Columns of a new empty board (default 6)"),
			},
		},
	}, c.handleCreateEditor)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "editor_command",
		Description: "Apply one editor command",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProp(),
				"command": map[string]interface{}{
					"type":        "string",
					"enum":        editor.Commands,
					"description": "Editor command",
				},
				"row":      prop("integer", "Target row"),
				"col":      prop("integer", "Target column"),
				"axis":     map[string]interface{}{"type": "string", "enum": []string{string(engine.Horizontal), string(engine.Vertical)}},
				"piece_id": prop("integer", "Target piece (defaults to the selection)"),
				"rows":     prop("integer", "New row count for resize"),
				"columns":  prop("integer", "New column count for resize"),
				"text":     prop("string", "New level name for rename"),
			},
			Required: []string{"session_id", "command"},
		},
	}, c.handleEditorCommand)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "publish_level",
		Description: "Validate the edited level and save it to the level directory",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProp(),
				"level_id":   prop("string", "Level id to save under (defaults to the level being edited)"),
			},
			Required: []string{"session_id"},
		},
	}, c.handlePublishLevel)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get game rules, coordinates and editor commands",
		InputSchema: noArgs(),
	}, c.handleGameInstructions)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(method, path string, body interface{}, result interface{}) error {
	endpoint := c.baseURL + path

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest(method, endpoint, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func sessionPath(sessionID, suffix string) string {
	return "/api/sessions/" + url.PathEscape(sessionID) + suffix
}

// Argument helpers. JSON numbers arrive as float64.

func argString(args map[string]interface{}, key string) string {
	s, _ := args[key].(string)
	return s
}

func argFloat(args map[string]interface{}, key string) (float64, bool) {
	switch v := args[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	}
	return 0, false
}

func argInt(args map[string]interface{}, key string) (int, bool) {
	f, ok := argFloat(args, key)
	return int(f), ok
}

func textResult(text string) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(text), nil
}

func errorResult(err error) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultError(err.Error()), nil
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	body := map[string]string{}
	if levelID := argString(args, "level_id"); levelID != "" {
		body["level_id"] = levelID
	}

	var session service.SessionInfo
	if err := c.apiCall("POST", "/api/sessions", body, &session); err != nil {
		return errorResult(err)
	}

	return textResult(fmt.Sprintf("Created session: %s\nLevel: %s\n\n%s",
		session.ID, session.LevelID, formatGameState(session.GameState)))
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}

	if err := c.apiCall("GET", "/api/sessions", nil, &response); err != nil {
		return errorResult(err)
	}

	result := fmt.Sprintf("Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		result += fmt.Sprintf("- %s [%s] (Level: %s, Created: %s)\n",
			s.ID, s.Kind, s.LevelID, s.CreatedAt.Format("15:04:05"))
	}

	return textResult(result)
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := argString(request.GetArguments(), "session_id")

	var session service.SessionInfo
	if err := c.apiCall("GET", sessionPath(sessionID, ""), nil, &session); err != nil {
		return errorResult(err)
	}

	return textResult(formatSessionInfo(&session))
}

func (c *Client) handleBoardState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := argString(request.GetArguments(), "session_id")

	var state engine.GameState
	if err := c.apiCall("GET", sessionPath(sessionID, "/state"), nil, &state); err != nil {
		return errorResult(err)
	}

	return textResult(formatGameState(&state))
}

func (c *Client) handleSlide(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	sessionID := argString(args, "session_id")

	pieceID, ok := argInt(args, "piece_id")
	if !ok {
		return mcp.NewToolResultError("piece_id is required"), nil
	}
	cells, ok := argInt(args, "cells")
	if !ok {
		return mcp.NewToolResultError("cells is required"), nil
	}

	// Intent parameter serves as rubber duck debugging - we don't need to process it further
	_ = argString(args, "intent")

	body := map[string]int{
		"piece_id": pieceID,
		"cells":    cells,
	}

	var result service.SlideResult
	if err := c.apiCall("POST", sessionPath(sessionID, "/slide"), body, &result); err != nil {
		return errorResult(err)
	}

	return textResult(formatSlideResult(&result))
}

func (c *Client) pointer(request mcp.CallToolRequest, action string) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	sessionID := argString(args, "session_id")

	var body interface{}
	if action != "up" {
		x, okX := argFloat(args, "x")
		y, okY := argFloat(args, "y")
		if !okX || !okY {
			return mcp.NewToolResultError("x and y are required"), nil
		}
		body = engine.Vec2{X: x, Y: y}
	}

	var result service.PointerResult
	if err := c.apiCall("POST", sessionPath(sessionID, "/pointer/"+action), body, &result); err != nil {
		return errorResult(err)
	}

	return textResult(formatPointerResult(action, &result))
}

func (c *Client) handlePointerDown(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.pointer(request, "down")
}

func (c *Client) handlePointerMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.pointer(request, "move")
}

func (c *Client) handlePointerUp(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.pointer(request, "up")
}

func (c *Client) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := argString(request.GetArguments(), "session_id")

	var response struct {
		Message string            `json:"message"`
		State   *engine.GameState `json:"state"`
	}

	if err := c.apiCall("POST", sessionPath(sessionID, "/reset"), nil, &response); err != nil {
		return errorResult(err)
	}

	return textResult(fmt.Sprintf("%s\n\n%s", response.Message, formatGameState(response.State)))
}

func (c *Client) handleMoveHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	sessionID := argString(args, "session_id")

	params := url.Values{}
	if page, ok := argInt(args, "page"); ok {
		params.Set("page", fmt.Sprint(page))
	}
	if limit, ok := argInt(args, "limit"); ok {
		params.Set("limit", fmt.Sprint(limit))
	}
	if order := argString(args, "order"); order != "" {
		params.Set("order", order)
	}

	path := sessionPath(sessionID, "/history")
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var history service.HistoryResponse
	if err := c.apiCall("GET", path, nil, &history); err != nil {
		return errorResult(err)
	}

	return textResult(formatHistory(&history))
}

func (c *Client) handleListLevels(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var levels []service.LevelInfo
	if err := c.apiCall("GET", "/api/levels", nil, &levels); err != nil {
		return errorResult(err)
	}

	result := "Available Levels:\n\n"
	for _, level := range levels {
		result += fmt.Sprintf("• %s (%s)\n", level.LevelID, level.Name)
		if level.Description != "" {
			result += fmt.Sprintf("  %s\n", level.Description)
		}
		result += fmt.Sprintf("  Board: %dx%d, Pieces: %d\n\n", level.Rows, level.Columns, level.Pieces)
	}

	return textResult(result)
}

func (c *Client) handleCreateEditor(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	req := service.EditorRequest{LevelID: argString(args, "level_id")}
	req.Rows, _ = argInt(args, "rows")
	req.Columns, _ = argInt(args, "columns")

	var session service.SessionInfo
	if err := c.apiCall("POST", "/api/editors", req, &session); err != nil {
		return errorResult(err)
	}

	return textResult(fmt.Sprintf("Created editor session: %s\n\n%s",
		session.ID, formatEditorState(session.EditorState)))
}

func (c *Client) handleEditorCommand(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	sessionID := argString(args, "session_id")

	cmd := editor.Command{
		Name: argString(args, "command"),
		Axis: engine.Axis(argString(args, "axis")),
		Text: argString(args, "text"),
	}
	cmd.Row, _ = argInt(args, "row")
	cmd.Col, _ = argInt(args, "col")
	cmd.Rows, _ = argInt(args, "rows")
	cmd.Columns, _ = argInt(args, "columns")
	if id, ok := argInt(args, "piece_id"); ok {
		cmd.PieceID = &id
	}

	var result service.EditorResult
	path := "/api/editors/" + url.PathEscape(sessionID) + "/commands"
	if err := c.apiCall("POST", path, cmd, &result); err != nil {
		return errorResult(err)
	}

	var b strings.Builder
	if result.Result != nil {
		b.WriteString(result.Result.Message)
		if result.Result.PieceID != nil {
			b.WriteString(fmt.Sprintf(" (piece %d)", *result.Result.PieceID))
		}
		b.WriteString("\n\n")
	}
	b.WriteString(formatEditorState(result.EditorState))
	return textResult(b.String())
}

func (c *Client) handlePublishLevel(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	sessionID := argString(args, "session_id")

	body := map[string]string{}
	if levelID := argString(args, "level_id"); levelID != "" {
		body["level_id"] = levelID
	}

	var info service.LevelInfo
	path := "/api/editors/" + url.PathEscape(sessionID) + "/publish"
	if err := c.apiCall("POST", path, body, &info); err != nil {
		return errorResult(err)
	}

	return textResult(fmt.Sprintf("Published level %s (%s): %dx%d, %d pieces",
		info.LevelID, info.Name, info.Rows, info.Columns, info.Pieces))
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	instructions := `Sliding Block Game - Complete Instructions

GAME OBJECTIVE:
Get the win piece (*) to touch the right edge of the board. The level is solved
the moment its rightmost cell sits in the last column.

BOARD LEGEND:
• . - Empty cell
• * - Win piece (always id 0, always horizontal)
• A, B, C... - Other pieces; A is id 1, B is id 2 and so on
Rows are listed top to bottom; row 0 is the top row, column 0 the left column.

MOVEMENT RULES:
• Horizontal pieces slide left/right only; vertical pieces slide up/down only
• A piece moves one cell at a time and stops at the first occupied cell or the board edge
• Pieces never overlap and never leave the board
• A drag that ends on a different cell counts as one move

MOVEMENT COMMANDS:
• slide_piece {piece_id, cells}: positive cells = right/down, negative = left/up.
  If something is in the way the piece stops early; the result tells you how far it got.
• pointer_down / pointer_move / pointer_up: raw drag input. Coordinates are in
  board units: x = column, y = row, so the center of row 2, column 3 is (3.5, 2.5).

STRATEGY:
1. Read the row holding the win piece and list every piece blocking its path
2. For each blocker, work out which way it must slide to clear that row
3. Those moves may in turn be blocked; repeat the analysis recursively
4. Check board_state after each slide: blocked slides report moved_cells

EDITOR COMMANDS (editor sessions):
• toggle_mode - switch between win-piece mode and pieces mode
• place_win {row, col} - place the win piece
• clear_win / grow_win / shrink_win
• place_piece {row, col, axis} - add a piece (becomes the selection)
• select {row, col} - select the piece under a cell
• remove_piece / grow_piece / shrink_piece {piece_id?} - act on a piece or the selection
• resize {rows, columns} - change the board size (clears the level)
• rename {text} - set the level name
• publish_level - validate and save the level for play

VICTORY CONDITIONS:
The board reports solved once the win piece reaches the right edge. Input is
ignored after that until reset_game.

Good luck sliding!`

	return textResult(instructions)
}

// Formatting helpers

func formatSessionInfo(session *service.SessionInfo) string {
	header := fmt.Sprintf("Session: %s\nKind: %s\nLevel: %s\nCreated: %s\n\n",
		session.ID, session.Kind, session.LevelID,
		session.CreatedAt.Format("2006-01-02 15:04:05"))

	if session.Kind == service.KindEdit {
		return header + formatEditorState(session.EditorState)
	}
	return header + formatGameState(session.GameState)
}

func formatGameState(state *engine.GameState) string {
	if state == nil {
		return "No game state available"
	}

	var result strings.Builder

	result.WriteString(fmt.Sprintf("Level: %s | Board: %dx%d | Moves: %d (total %d)\n\n",
		state.LevelName, state.Board.Rows, state.Board.Columns,
		state.CurrentMovesCount, state.TotalMoves))

	for _, row := range state.Rows {
		result.WriteString(row + "\n")
	}

	result.WriteString("\nPieces:\n")
	for _, p := range state.Pieces {
		label := string(engine.PieceRune(p.ID))
		result.WriteString(fmt.Sprintf("  %s id=%d %s len=%d at (%d,%d)\n",
			label, p.ID, p.Axis, p.Length, p.Cell.Row, p.Cell.Col))
	}

	if state.ActivePiece != nil {
		result.WriteString(fmt.Sprintf("\nDragging piece %d\n", *state.ActivePiece))
	}

	if state.Solved {
		result.WriteString("\n🎉 SOLVED!")
	}

	if state.Message != "" {
		result.WriteString(fmt.Sprintf("\nMessage: %s", state.Message))
	}

	return result.String()
}

func formatEditorState(state *editor.State) string {
	if state == nil {
		return "No editor state available"
	}

	var result strings.Builder
	name := ""
	if state.Level != nil {
		name = state.Level.Name
	}
	result.WriteString(fmt.Sprintf("Editing: %s | Mode: %s", name, state.Mode))
	if state.Selected != nil {
		result.WriteString(fmt.Sprintf(" | Selected: %d", *state.Selected))
	}
	if !state.HasWinPiece {
		result.WriteString(" | no win piece yet")
	}
	result.WriteString("\n\n")

	for _, row := range state.Rows {
		result.WriteString(row + "\n")
	}
	return result.String()
}

func formatSlideResult(result *service.SlideResult) string {
	var b strings.Builder
	switch {
	case result.Success && !result.Blocked:
		b.WriteString("✓ Slide complete\n")
	case result.MovedCells > 0:
		b.WriteString("⚠ Slide blocked part way\n")
	default:
		b.WriteString("✗ Piece did not move\n")
	}

	b.WriteString(fmt.Sprintf("Piece %d: (%d,%d) -> (%d,%d), moved %d of %d cells\n",
		result.PieceID, result.From.Row, result.From.Col, result.To.Row, result.To.Col,
		result.MovedCells, result.RequestedCells))

	if result.Message != "" {
		b.WriteString(fmt.Sprintf("Message: %s\n", result.Message))
	}

	b.WriteString("\n")
	b.WriteString(formatGameState(result.GameState))
	return b.String()
}

func formatPointerResult(action string, result *service.PointerResult) string {
	var b strings.Builder
	status := "accepted"
	if !result.Accepted {
		status = "ignored"
	}
	b.WriteString(fmt.Sprintf("pointer_%s %s\n", action, status))

	if step := result.Step; step != nil && step.Active {
		if step.Accepted {
			b.WriteString(fmt.Sprintf("Piece %d stepped %s to (%d,%d)\n",
				step.PieceID, step.Direction, step.Cell.Row, step.Cell.Col))
		} else {
			b.WriteString(fmt.Sprintf("Piece %d held at (%d,%d)\n",
				step.PieceID, step.Cell.Row, step.Cell.Col))
		}
	}
	if rel := result.Release; rel != nil && rel.Released {
		if rel.Moved {
			b.WriteString(fmt.Sprintf("Piece %d moved (%d,%d) -> (%d,%d)\n",
				rel.PieceID, rel.From.Row, rel.From.Col, rel.To.Row, rel.To.Col))
		} else {
			b.WriteString(fmt.Sprintf("Piece %d returned to (%d,%d)\n",
				rel.PieceID, rel.To.Row, rel.To.Col))
		}
	}

	b.WriteString("\n")
	b.WriteString(formatGameState(result.GameState))
	return b.String()
}

func formatHistory(history *service.HistoryResponse) string {
	result := fmt.Sprintf("Move History (Page %d/%d) — Total (cumulative): %d\n\n",
		history.Page, history.TotalPages, history.TotalMoves)

	if len(history.Moves) == 0 {
		return result + "(no moves yet)"
	}

	for _, move := range history.Moves {
		result += fmt.Sprintf("%d. piece %d (%d,%d) -> (%d,%d)\n",
			move.MoveNumber, move.PieceID,
			move.From.Row, move.From.Col, move.To.Row, move.To.Col)
	}

	return result
}
