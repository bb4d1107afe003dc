// Package service provides the business logic layer for the sliding block game.
//
// The service package implements:
//   - Play and editor session orchestration
//   - Pointer input routing and whole-cell slides
//   - Level publishing and storage access
//   - Move history pagination
//
// Core Interfaces:
//
// GameService is the main service interface providing high-level operations.
// SessionManager handles session creation, retrieval, and lifecycle.
// LevelManager loads, lists and stores levels. Notifier receives state
// pushes after each processed event and the delayed solved event.
//
// Architecture:
//
// The service layer sits between the transport layer (HTTP/WebSocket/MCP) and
// the engine and editor. Every operation runs under one lock, so pointer
// events for a session are applied one at a time regardless of which
// transport delivered them.
//
// Usage:
//
//	sessionMgr := session.NewManager()
//	levelMgr, _ := levels.NewManager("levels")
//	gameService := service.NewGameService(sessionMgr, levelMgr,
//		service.WithNotifier(hub))
//
//	info, err := gameService.CreateSession(ctx, "classic")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := gameService.Slide(ctx, info.ID, 1, 2)
package service
