// Package websocket provides WebSocket transport for the sliding block game.
//
// The websocket package implements:
//   - Session-aware WebSocket connections
//   - State pushes after every processed input event
//   - The delayed solved event
//   - Streamed pointer input from clients
//
// Architecture:
//
// The package uses a hub-and-spoke model where a central Hub manages all
// WebSocket connections. Each client connection is handled by a read and a
// write goroutine. The Hub implements service.Notifier; broadcasts are queued
// without blocking and dropped with a warning when the queue is full.
//
// Message Protocol:
//
//   - Incoming: {"action": "pointer_down", "x": 3.5, "y": 0.5}
//     (pointer_move likewise, pointer_up takes no coordinates)
//   - Outgoing: {"session_id": "ab12", "event": "state_update", "game_state": {...}}
//     and {"session_id": "ab12", "event": "solved", "data": {...}}
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run()
//	defer hub.Stop()
//
//	gameService := service.NewGameService(sessions, levels, service.WithNotifier(hub))
//	hub.SetInputHandler(gameService)
package websocket
