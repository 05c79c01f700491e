package realtime

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mamastoria/internal/models"
)

func hubServer(t *testing.T, hub *NotificationHub, userID int) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := hub.Upgrade(w, r)
		if err != nil {
			return
		}
		hub.Register(userID, conn)
		defer hub.Unregister(userID, conn)
		conn.Serve()
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dialHub(t *testing.T, hub *NotificationHub, userID int) *websocket.Conn {
	t.Helper()
	ws, _, err := websocket.DefaultDialer.Dial(hubServer(t, hub, userID), nil)
	require.NoError(t, err)
	t.Cleanup(func() { ws.Close() })

	require.Eventually(t, func() bool { return hub.Online(userID) == 1 }, time.Second, 10*time.Millisecond)
	return ws
}

func TestHubDeliversToOwnerOnly(t *testing.T) {
	hub := NewNotificationHub(nil)
	alice := dialHub(t, hub, 1)
	bob := dialHub(t, hub, 2)

	hub.Publish(1, &models.Notification{ID: 10, UserID: 1, Title: "New like"})

	var got models.Notification
	require.NoError(t, alice.SetReadDeadline(time.Now().Add(time.Second)))
	require.NoError(t, alice.ReadJSON(&got))
	assert.Equal(t, 10, got.ID)
	assert.Equal(t, "New like", got.Title)

	require.NoError(t, bob.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	_, _, err := bob.ReadMessage()
	assert.Error(t, err)
}

func TestHubUnregistersOnClose(t *testing.T) {
	hub := NewNotificationHub(nil)
	ws := dialHub(t, hub, 5)

	require.NoError(t, ws.Close())
	assert.Eventually(t, func() bool { return hub.Online(5) == 0 }, time.Second, 10*time.Millisecond)

	// публикация без соединений ничего не делает
	hub.Publish(5, &models.Notification{ID: 1})
}

func TestHubRejectsForeignOrigin(t *testing.T) {
	hub := NewNotificationHub([]string{"https://app.mamastoria.com"})
	url := hubServer(t, hub, 3)

	_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"https://evil.example"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Zero(t, hub.Online(3))

	ws, _, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"https://app.mamastoria.com"}})
	require.NoError(t, err)
	t.Cleanup(func() { ws.Close() })
	assert.Eventually(t, func() bool { return hub.Online(3) == 1 }, time.Second, 10*time.Millisecond)

	// клиент без Origin (мобильное приложение)
	bare, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { bare.Close() })
	assert.Eventually(t, func() bool { return hub.Online(3) == 2 }, time.Second, 10*time.Millisecond)
}
