package websocket

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/microtask/microtask_backend/models"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Authenticator resolves the ?token= query parameter
type Authenticator interface {
	Authenticate(token string) (models.Identity, error)
}

// Handler upgrades authenticated requests and registers them with the hub
type Handler struct {
	hub      *Hub
	auth     Authenticator
	upgrader websocket.Upgrader
}

// NewHandler builds a Handler. An empty origins list accepts any origin.
func NewHandler(hub *Hub, auth Authenticator, origins []string) *Handler {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return &Handler{
		hub:  hub,
		auth: auth,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return len(allowed) == 0 || origin == "" || allowed[origin]
			},
		},
	}
}

// HandleWebSocket handles the WebSocket connection
func (h *Handler) HandleWebSocket(c echo.Context) error {
	id, err := h.auth.Authenticate(c.QueryParam("token"))
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid or expired token",
		})
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	client := &Client{Email: id.Email, Conn: conn}
	if !h.hub.Register(client) {
		return nil
	}

	if err := client.send(Message{Type: MessageTypeConnected, Message: "WebSocket connection established"}); err != nil {
		h.hub.Unregister(client)
		return nil
	}

	go h.readPump(conn, client)
	go h.pingPump(conn, client)
	return nil
}

// readPump drains client frames so pongs and close frames are processed
func (h *Handler) readPump(conn *websocket.Conn, client *Client) {
	defer h.hub.Unregister(client)

	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Handler) pingPump(conn *websocket.Conn, client *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for range ticker.C {
		client.mu.Lock()
		err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
		client.mu.Unlock()
		if err != nil {
			return
		}
	}
}
