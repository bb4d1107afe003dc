// Package mcp provides a Model Context Protocol server for the sliding block game.
//
// The mcp package implements:
//   - MCP server for AI agent integration
//   - Tool definitions for play, editing and level listing
//   - A thin proxy to the REST API, so agents and browsers share sessions
//
// MCP Tools:
//
// The package exposes the following tools for AI agents:
//   - create_session, list_sessions, get_session: play session management
//   - board_state: rendered board, pieces and move counts
//   - slide_piece: slide a piece by whole cells; stops early when blocked
//   - pointer_down, pointer_move, pointer_up: raw drag input in board units
//   - reset_game: restore the initial layout
//   - move_history: committed moves with pagination
//   - list_levels: available levels
//   - create_editor, editor_command, publish_level: level editing
//   - game_instructions: rules and coordinate conventions
//
// Transport Modes:
//
// The server supports two transport modes:
//   - Stdio: Direct stdio communication for local MCP clients
//   - HTTP: the /mcp endpoint of the game server
//
// Usage:
//
//	// Stdio mode
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
//
//	// HTTP mode
//	response := client.GetMCPServer().HandleMessage(ctx, body)
package mcp
