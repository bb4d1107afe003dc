package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/wricardo/sliding-block-game/game/engine"
	"github.com/wricardo/sliding-block-game/game/service"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512

	// Pending broadcasts; further ones are dropped until the hub catches up.
	broadcastBuffer = 256

	// EventStateUpdate carries the full game state after each processed event
	EventStateUpdate = "state_update"
	// EventError reports a rejected client message back to its sender
	EventError = "error"
)

// Client actions
const (
	ActionPointerDown = "pointer_down"
	ActionPointerMove = "pointer_move"
	ActionPointerUp   = "pointer_up"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Message represents an outgoing WebSocket message
type Message struct {
	SessionID string            `json:"session_id"`
	GameState *engine.GameState `json:"game_state,omitempty"`
	Event     string            `json:"event,omitempty"`
	Data      interface{}       `json:"data,omitempty"`
}

// ClientMessage is pointer input streamed by a client, in board units
type ClientMessage struct {
	Action string  `json:"action"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

// InputHandler applies streamed pointer input to a session. The game service
// satisfies it; resulting state reaches clients through the hub's broadcasts.
type InputHandler interface {
	PointerDown(ctx context.Context, sessionID string, pos engine.Vec2) (*service.PointerResult, error)
	PointerMove(ctx context.Context, sessionID string, pos engine.Vec2) (*service.PointerResult, error)
	PointerUp(ctx context.Context, sessionID string) (*service.PointerResult, error)
}

// Client represents a WebSocket client
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	sessionID string
}

// Hub maintains the set of active clients and broadcasts messages. It
// implements service.Notifier.
type Hub struct {
	// Registered clients by session ID, owned by Run
	sessions map[string]map[*Client]bool
	mu       sync.RWMutex

	// Outbound messages for session clients
	broadcast chan *Message

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	input InputHandler
	done  chan struct{}
	once  sync.Once
}

var _ service.Notifier = (*Hub)(nil)

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	return &Hub{
		sessions:   make(map[string]map[*Client]bool),
		broadcast:  make(chan *Message, broadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// SetInputHandler routes client pointer messages to h. Without a handler
// client messages are ignored.
func (h *Hub) SetInputHandler(handler InputHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.input = handler
}

// Run starts the hub's event loop. It returns after Stop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastMessage(message)

		case <-h.done:
			h.closeAll()
			return
		}
	}
}

// Stop ends Run and disconnects every client
func (h *Hub) Stop() {
	h.once.Do(func() { close(h.done) })
}

// ServeWS handles WebSocket requests from clients
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, sessionID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logrus.WithError(err).WithField("session", sessionID).Warn("websocket upgrade failed")
		return
	}

	client := &Client{
		hub:       h,
		conn:      conn,
		send:      make(chan []byte, 256),
		sessionID: sessionID,
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	// Start client goroutines
	go client.writePump()
	go client.readPump()
}

// BroadcastState sends a game state update to all clients in a session
func (h *Hub) BroadcastState(sessionID string, state *engine.GameState) {
	h.enqueue(&Message{
		SessionID: sessionID,
		GameState: state,
		Event:     EventStateUpdate,
	})
}

// BroadcastEvent sends a custom event to all clients in a session
func (h *Hub) BroadcastEvent(sessionID string, event string, data interface{}) {
	h.enqueue(&Message{
		SessionID: sessionID,
		Event:     event,
		Data:      data,
	})
}

// enqueue never blocks the caller, which may hold the service lock
func (h *Hub) enqueue(message *Message) {
	select {
	case h.broadcast <- message:
	default:
		logrus.WithFields(logrus.Fields{
			"session": message.SessionID,
			"event":   message.Event,
		}).Warn("broadcast queue full, dropping message")
	}
}

// ClientCount returns the number of clients watching a session
func (h *Hub) ClientCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[sessionID])
}

// registerClient adds a client to a session
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.sessions[client.sessionID] == nil {
		h.sessions[client.sessionID] = make(map[*Client]bool)
	}
	h.sessions[client.sessionID][client] = true

	logrus.WithFields(logrus.Fields{
		"session": client.sessionID,
		"clients": len(h.sessions[client.sessionID]),
	}).Info("websocket client registered")
}

// unregisterClient removes a client from a session
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(client)
}

func (h *Hub) removeLocked(client *Client) {
	clients, ok := h.sessions[client.sessionID]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}

	delete(clients, client)
	close(client.send)

	// Clean up empty sessions
	if len(clients) == 0 {
		delete(h.sessions, client.sessionID)
	}

	logrus.WithFields(logrus.Fields{
		"session": client.sessionID,
		"clients": len(clients),
	}).Info("websocket client unregistered")
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, clients := range h.sessions {
		for client := range clients {
			h.removeLocked(client)
		}
	}
}

// broadcastMessage sends a message to all clients in a session
func (h *Hub) broadcastMessage(message *Message) {
	data, err := json.Marshal(message)
	if err != nil {
		logrus.WithError(err).WithField("session", message.SessionID).Error("failed to marshal broadcast message")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.sessions[message.SessionID] {
		select {
		case client.send <- data:
		default:
			// Client's send channel is full, drop it
			h.removeLocked(client)
		}
	}
}

// handleInput applies one client message. Errors go back to the sender only.
func (h *Hub) handleInput(c *Client, data []byte) {
	h.mu.RLock()
	handler := h.input
	h.mu.RUnlock()
	if handler == nil {
		return
	}

	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.reply(EventError, map[string]string{"error": "invalid message"})
		return
	}

	ctx := context.Background()
	pos := engine.Vec2{X: msg.X, Y: msg.Y}

	var err error
	switch msg.Action {
	case ActionPointerDown:
		_, err = handler.PointerDown(ctx, c.sessionID, pos)
	case ActionPointerMove:
		_, err = handler.PointerMove(ctx, c.sessionID, pos)
	case ActionPointerUp:
		_, err = handler.PointerUp(ctx, c.sessionID)
	default:
		err = fmt.Errorf("unknown action %q", msg.Action)
	}

	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"session": c.sessionID,
			"action":  msg.Action,
		}).Debug("websocket input rejected")
		c.reply(EventError, map[string]string{"error": err.Error()})
	}
}

// reply queues a message for this client only
func (c *Client) reply(event string, data interface{}) {
	payload, err := json.Marshal(&Message{SessionID: c.sessionID, Event: event, Data: data})
	if err != nil {
		return
	}

	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	// send is closed once the client is unregistered
	if !c.hub.sessions[c.sessionID][c] {
		return
	}
	select {
	case c.send <- payload:
	default:
	}
}

// readPump pumps messages from the WebSocket connection to the hub
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.WithError(err).WithField("session", c.sessionID).Warn("websocket read error")
			}
			break
		}
		c.hub.handleInput(c, data)
	}
}

// writePump pumps messages from the hub to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
