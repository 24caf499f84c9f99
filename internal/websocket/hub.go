package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"agora-be/internal/model"
	"agora-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const clusterChannel = "session_events"

// Hub fans session lifecycle messages out to connected participants. Clients
// are keyed by user so one user may hold several connections (multi-device).
// With redis configured, every publish is mirrored onto the cluster channel
// so peers on other instances receive it too.
type Hub struct {
	clients    map[uuid.UUID][]*Client
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex

	rdb    *redis.Client
	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID][]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		rdb:        rdb,
		logger:     log,
	}
}

func (h *Hub) Run() {
	if h.rdb != nil {
		go h.subscribeToCluster()
	}

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.UserID] = append(h.clients[client.UserID], client)
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.UserID]; ok {
				for i, c := range clients {
					if c == client {
						h.clients[client.UserID] = append(clients[:i], clients[i+1:]...)
						close(client.Send)
						break
					}
				}
				if len(h.clients[client.UserID]) == 0 {
					delete(h.clients, client.UserID)
				}
			}
			h.mu.Unlock()
		}
	}
}

// BroadcastEvent pushes a session lifecycle event (phase change, countdown,
// close) to every connected client. Sessions are global, so there is no
// per-room routing.
func (h *Hub) BroadcastEvent(eventType string, payload map[string]interface{}) {
	data, err := json.Marshal(map[string]interface{}{
		"type": "session_event",
		"code": eventType,
		"data": payload,
	})
	if err != nil {
		return
	}
	h.sendToAllLocal(data)
	h.mirror("*", data)
}

// Send delivers one notification to a single user's connections.
func (h *Hub) Send(userID uuid.UUID, notification model.Notification) {
	data, err := json.Marshal(map[string]interface{}{
		"type": "notification",
		"data": notification,
	})
	if err != nil {
		return
	}

	h.mu.RLock()
	clients := h.clients[userID]
	h.mu.RUnlock()
	for _, client := range clients {
		h.deliver(client, data)
	}
	h.mirror(userID.String(), data)
}

func (h *Hub) sendToAllLocal(data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, clients := range h.clients {
		for _, client := range clients {
			h.deliver(client, data)
		}
	}
}

// deliver never blocks: a client whose buffer is full is dropped.
func (h *Hub) deliver(client *Client, data []byte) {
	select {
	case client.Send <- data:
	default:
		h.logger.Warn("Hub", "client buffer full, dropping connection", map[string]interface{}{
			"user_id": client.UserID.String(),
		})
		go func() { h.unregister <- client }()
	}
}

func (h *Hub) mirror(target string, data []byte) {
	if h.rdb == nil {
		return
	}
	payload, err := json.Marshal(map[string]interface{}{
		"target_user_id": target,
		"message":        json.RawMessage(data),
	})
	if err != nil {
		return
	}
	if err := h.rdb.Publish(context.Background(), clusterChannel, payload).Err(); err != nil {
		h.logger.Warn("Hub", "cluster publish failed", map[string]interface{}{"error": err.Error()})
	}
}

// subscribeToCluster receives messages mirrored by peer instances and relays
// them to locally connected clients.
func (h *Hub) subscribeToCluster() {
	pubsub := h.rdb.Subscribe(context.Background(), clusterChannel)
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		var payload struct {
			TargetUserID string          `json:"target_user_id"`
			Message      json.RawMessage `json:"message"`
		}
		if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
			h.logger.Warn("Hub", "bad cluster message", map[string]interface{}{"error": err.Error()})
			continue
		}

		if payload.TargetUserID == "*" {
			h.sendToAllLocal(payload.Message)
			continue
		}
		uid, err := uuid.Parse(payload.TargetUserID)
		if err != nil {
			continue
		}
		h.mu.RLock()
		clients := h.clients[uid]
		h.mu.RUnlock()
		for _, client := range clients {
			h.deliver(client, payload.Message)
		}
	}
}
