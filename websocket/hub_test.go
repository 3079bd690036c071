package websocket

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/microtask/microtask_backend/models"
)

type tokenTable map[string]models.Identity

func (t tokenTable) Authenticate(token string) (models.Identity, error) {
	id, ok := t[token]
	if !ok {
		return models.Identity{}, errors.New("bad token")
	}
	return id, nil
}

func startServer(t *testing.T) (*Hub, string) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := NewHub()
	go hub.Run(ctx)

	handler := NewHandler(hub, tokenTable{"good": {Email: "w@x.io", Role: models.RoleWorker}}, nil)
	e := echo.New()
	e.GET("/api/ws", handler.HandleWebSocket)
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)

	return hub, "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws"
}

func TestHandshakeRequiresToken(t *testing.T) {
	_, url := startServer(t)

	_, resp, err := websocket.DefaultDialer.Dial(url+"?token=bad", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestPushReachesConnectedUser(t *testing.T) {
	hub, url := startServer(t)

	conn, _, err := websocket.DefaultDialer.Dial(url+"?token=good", nil)
	require.NoError(t, err)
	defer conn.Close()

	var hello Message
	require.NoError(t, conn.ReadJSON(&hello))
	assert.Equal(t, MessageTypeConnected, hello.Type)
	require.Eventually(t, func() bool { return hub.Connected("w@x.io") == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, hub.Push(context.Background(), models.Notification{
		ToEmail:     "w@x.io",
		Message:     "You have earned 20 coins",
		ActionRoute: "/dashboard/worker-home",
		Time:        time.Now(),
	}))

	var got Message
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, MessageTypeNotification, got.Type)
	require.NotNil(t, got.Notification)
	assert.Equal(t, "/dashboard/worker-home", got.Notification.ActionRoute)
}

func TestPushToOfflineUserIsNoop(t *testing.T) {
	hub := NewHub()
	assert.NoError(t, hub.Push(context.Background(), models.Notification{ToEmail: "nobody@x.io"}))
	assert.Error(t, hub.SendToUser("nobody@x.io", Message{}))
}

type fakeConn struct {
	mu     sync.Mutex
	closed bool
}

func (c *fakeConn) WriteJSON(interface{}) error      { return nil }
func (c *fakeConn) SetWriteDeadline(time.Time) error { return nil }

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func TestHubStopsAcceptingAfterShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub()
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	live := &fakeConn{}
	liveClient := &Client{Email: "w@x.io", Conn: live}
	require.True(t, hub.Register(liveClient))
	require.Eventually(t, func() bool { return hub.Connected("w@x.io") == 1 }, time.Second, 10*time.Millisecond)

	cancel()
	<-stopped
	assert.True(t, live.isClosed())
	assert.Zero(t, hub.Connected("w@x.io"))

	returned := make(chan struct{})
	late := &fakeConn{}
	go func() {
		hub.Unregister(liveClient)
		assert.False(t, hub.Register(&Client{Email: "w@x.io", Conn: late}))
		close(returned)
	}()
	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("hub calls blocked after shutdown")
	}
	assert.True(t, late.isClosed())
	assert.Zero(t, hub.Connected("w@x.io"))
}
