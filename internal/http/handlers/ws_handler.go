package handlers

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/ads-marketplace/tiktok-connector/internal/events"
	"github.com/ads-marketplace/tiktok-connector/internal/session"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// WSHub pushes connection-state and ad events to the browser tab of the
// user they belong to.
type WSHub struct {
	store       session.Store
	subscriber  events.Subscriber
	log         *zap.Logger
	mu          sync.Mutex
	connections map[string][]*websocket.Conn
}

func NewWSHub(store session.Store, subscriber events.Subscriber, log *zap.Logger) *WSHub {
	return &WSHub{
		store:       store,
		subscriber:  subscriber,
		log:         log,
		connections: make(map[string][]*websocket.Conn),
	}
}

func (h *WSHub) Start(ctx context.Context) error {
	return h.subscriber.Subscribe(ctx, events.StreamAds, func(event events.Event) {
		h.SendToUser(event.UserID, event)
	})
}

func (h *WSHub) SendToUser(userID string, event events.Event) {
	if userID == "" {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, conn := range h.connections[userID] {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.log.Debug("ws write failed", zap.String("user_id", userID), zap.Error(err))
		}
	}
}

// Connections returns the number of open sockets for userID.
func (h *WSHub) Connections(userID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.connections[userID])
}

// WSUpgradeMiddleware checks for websocket upgrade
func WSUpgradeMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}
}

func (h *WSHub) HandleWS(conn *websocket.Conn) {
	userID := conn.Query("userId")
	if userID == "" {
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"missing userId"}`))
		conn.Close()
		return
	}
	if _, ok := h.store.Get(userID); !ok {
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"Session not found. Please reconnect."}`))
		conn.Close()
		return
	}

	h.mu.Lock()
	h.connections[userID] = append(h.connections[userID], conn)
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		conns := h.connections[userID]
		for i, c := range conns {
			if c == conn {
				h.connections[userID] = append(conns[:i], conns[i+1:]...)
				break
			}
		}
		if len(h.connections[userID]) == 0 {
			delete(h.connections, userID)
		}
		h.mu.Unlock()
		conn.Close()
	}()

	// Read loop (keep alive / pings)
	for {
		_, _, err := conn.ReadMessage()
		if err != nil {
			break
		}
	}
}
