package realtime

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"mamastoria/internal/models"
)

// NotificationHub раздаёт новые уведомления открытым соединениям пользователя.
type NotificationHub struct {
	mu       sync.RWMutex
	users    map[int]map[*Conn]struct{}
	upgrader *websocket.Upgrader
}

// NewNotificationHub: origins те же, что у CORS.
func NewNotificationHub(origins []string) *NotificationHub {
	return &NotificationHub{
		users:    make(map[int]map[*Conn]struct{}),
		upgrader: newUpgrader(origins),
	}
}

// Upgrade переводит запрос в websocket; чужой Origin получает 403.
func (h *NotificationHub) Upgrade(w http.ResponseWriter, r *http.Request) (*Conn, error) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}
	return &Conn{ws: ws, done: make(chan struct{})}, nil
}

func (h *NotificationHub) Register(userID int, conn *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.users[userID] == nil {
		h.users[userID] = make(map[*Conn]struct{})
	}
	h.users[userID][conn] = struct{}{}
}

func (h *NotificationHub) Unregister(userID int, conn *Conn) {
	h.mu.Lock()
	if conns, ok := h.users[userID]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.users, userID)
		}
	}
	h.mu.Unlock()
	_ = conn.Close()
}

// Online: число открытых соединений пользователя.
func (h *NotificationHub) Online(userID int) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users[userID])
}

func (h *NotificationHub) Publish(userID int, n *models.Notification) {
	h.mu.RLock()
	conns := make([]*Conn, 0, len(h.users[userID]))
	for conn := range h.users[userID] {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		if err := conn.WriteJSON(n); err != nil {
			log.Debug().Err(err).Int("user_id", userID).Msg("[realtime][publish] write failed")
		}
	}
}
