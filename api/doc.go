// Package api provides HTTP REST API handlers for the sliding block game.
//
// The api package implements:
//   - Session management endpoints for play and editor sessions
//   - Pointer input and whole-cell slides
//   - Paginated move history
//   - Level listing, loading and saving
//   - WebSocket upgrade handling
//
// Endpoints:
//
// Session Management:
//   - POST /api/sessions - Create a play session ({"level_id": "..."} optional)
//   - GET /api/sessions - List sessions (?sort=created|accessed&order=asc|desc&limit=N&kind=play|edit)
//   - GET /api/sessions/{id} - Get a session
//   - DELETE /api/sessions/{id} - Delete a session
//
// Play:
//   - GET /api/sessions/{id}/state - Current game state
//   - POST /api/sessions/{id}/pointer/down - {"x": 3.5, "y": 0.5}
//   - POST /api/sessions/{id}/pointer/move - {"x": 3.5, "y": 0.75}
//   - POST /api/sessions/{id}/pointer/up
//   - POST /api/sessions/{id}/slide - {"piece_id": 1, "cells": -2}
//   - POST /api/sessions/{id}/reset
//   - GET /api/sessions/{id}/history - ?page=1&limit=20&order=desc
//
// Editing:
//   - POST /api/editors - {"rows": 6, "columns": 6} or {"level_id": "classic"}
//   - POST /api/editors/{id}/commands - {"command": "place_piece", "row": 1, "col": 2, "axis": "vertical"}
//   - POST /api/editors/{id}/publish - {"level_id": "mine"}
//
// Levels:
//   - GET /api/levels - List levels
//   - GET /api/levels/{name} - Get a level
//   - POST /api/levels - Save a level (level_id defaults to a slug of its name)
//
// Pointer coordinates are in board units: one unit per cell, x along
// columns and y along rows, so the center of cell (row 0, col 3) is
// {"x": 3.5, "y": 0.5}.
//
// Error Handling:
//
// Errors are returned as JSON with an HTTP status derived from the
// service error: 404 for unknown sessions and levels, 409 for a play
// operation on an editor session or the reverse, 400 for invalid
// levels, slides and editor commands.
//
//	{
//	  "error": "error message"
//	}
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run()
//	server := api.NewServer(gameService, hub)
//	http.ListenAndServe(":8080", server)
package api
