package websocket

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/microtask/microtask_backend/models"
)

// Message types sent over the socket
const (
	MessageTypeConnected    = "connected"
	MessageTypeNotification = "notification"
)

// Message is the JSON frame pushed to clients
type Message struct {
	Type         string               `json:"type"`
	Message      string               `json:"message"`
	Notification *models.Notification `json:"notification,omitempty"`
}

// Conn is the part of *websocket.Conn the hub writes to
type Conn interface {
	WriteJSON(v interface{}) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Client represents a connected WebSocket client
type Client struct {
	Email string
	Conn  Conn
	mu    sync.Mutex
}

func (c *Client) send(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.Conn.WriteJSON(v)
}

const writeWait = 10 * time.Second

// Hub tracks connected clients by email. One email may hold several
// connections (one per open tab).
type Hub struct {
	clients    map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's event loop and returns when ctx is done. It must be
// called at most once.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for email, set := range h.clients {
				for client := range set {
					client.Conn.Close()
				}
				delete(h.clients, email)
			}
			h.mu.Unlock()
			return
		case client := <-h.register:
			h.mu.Lock()
			set, ok := h.clients[client.Email]
			if !ok {
				set = make(map[*Client]bool)
				h.clients[client.Email] = set
			}
			set[client] = true
			h.mu.Unlock()
		case client := <-h.unregister:
			h.mu.Lock()
			if set, ok := h.clients[client.Email]; ok && set[client] {
				delete(set, client)
				if len(set) == 0 {
					delete(h.clients, client.Email)
				}
				client.Conn.Close()
			}
			h.mu.Unlock()
		}
	}
}

// Register adds client to the hub. After Run has returned the client's
// connection is closed instead and Register reports false.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		client.Conn.Close()
		return false
	}
}

// Unregister removes and closes client. It never blocks once Run has returned.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
		client.Conn.Close()
	}
}

// Connected reports how many sockets are open for email
func (h *Hub) Connected(email string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[email])
}

// SendToUser writes msg to every socket of email
func (h *Hub) SendToUser(email string, msg Message) error {
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients[email]))
	for client := range h.clients[email] {
		targets = append(targets, client)
	}
	h.mu.RUnlock()

	if len(targets) == 0 {
		return fmt.Errorf("user not connected")
	}

	var firstErr error
	for _, client := range targets {
		if err := client.send(msg); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Name implements services.Pusher
func (h *Hub) Name() string { return "websocket" }

// Push implements services.Pusher. Offline recipients are not an error;
// they read the stored notification later.
func (h *Hub) Push(_ context.Context, n models.Notification) error {
	if h.Connected(n.ToEmail) == 0 {
		return nil
	}
	return h.SendToUser(n.ToEmail, Message{
		Type:         MessageTypeNotification,
		Message:      n.Message,
		Notification: &n,
	})
}

var _ Conn = (*websocket.Conn)(nil)
