package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"academic-auth-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const clusterChannel = "cluster_events"

const broadcastTarget = "*"

// Message is the frame written to every socket.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type clusterEnvelope struct {
	Origin       string          `json:"origin"`
	TargetUserID string          `json:"target_user_id"`
	Message      json.RawMessage `json:"message"`
}

// Hub keeps the sockets of every connected user (several per user for
// multiple tabs or devices) and relays frames published by other instances
// through Redis.
type Hub struct {
	clients    map[uuid.UUID][]*Client
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex

	rdb    *redis.Client
	origin string
	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[uuid.UUID][]*Client),
		rdb:        rdb,
		origin:     uuid.NewString(),
		logger:     log,
	}
}

// Run processes registrations until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	if h.rdb != nil {
		go h.subscribeToRedis(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.UserID] = append(h.clients[client.UserID], client)
			h.mu.Unlock()
			h.logger.Info("HUB", "Client registered", map[string]interface{}{"user_id": client.UserID})

		case client := <-h.unregister:
			h.remove(client)
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	clients, ok := h.clients[client.UserID]
	if !ok {
		return
	}
	for i, c := range clients {
		if c == client {
			h.clients[client.UserID] = append(clients[:i], clients[i+1:]...)
			close(client.Send)
			break
		}
	}
	if len(h.clients[client.UserID]) == 0 {
		delete(h.clients, client.UserID)
		h.logger.Info("HUB", "Client completely unregistered", map[string]interface{}{"user_id": client.UserID})
	}
}

// Connected reports whether the user has a socket on this instance.
func (h *Hub) Connected(userID uuid.UUID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID]) > 0
}

// Send delivers a typed frame to every socket of the user, locally and on
// the other instances.
func (h *Hub) Send(userID uuid.UUID, msgType string, payload interface{}) {
	data, err := json.Marshal(Message{Type: msgType, Data: payload})
	if err != nil {
		h.logger.Error("HUB", "Failed to encode message", map[string]interface{}{"type": msgType, "error": err.Error()})
		return
	}
	h.deliver(userID, data)
	h.publish(userID.String(), data)
}

// Broadcast delivers a typed frame to every connected socket.
func (h *Hub) Broadcast(msgType string, payload interface{}) {
	data, err := json.Marshal(Message{Type: msgType, Data: payload})
	if err != nil {
		h.logger.Error("HUB", "Failed to encode broadcast", map[string]interface{}{"type": msgType, "error": err.Error()})
		return
	}
	h.deliverAll(data)
	h.publish(broadcastTarget, data)
}

func (h *Hub) deliver(userID uuid.UUID, data []byte) {
	h.mu.RLock()
	clients := append([]*Client(nil), h.clients[userID]...)
	h.mu.RUnlock()
	for _, client := range clients {
		h.push(client, data)
	}
}

func (h *Hub) deliverAll(data []byte) {
	h.mu.RLock()
	var all []*Client
	for _, clients := range h.clients {
		all = append(all, clients...)
	}
	h.mu.RUnlock()
	for _, client := range all {
		h.push(client, data)
	}
}

// push never blocks; a client whose buffer is full is dropped.
func (h *Hub) push(client *Client, data []byte) {
	defer func() {
		// Send may have been closed by a concurrent unregister.
		_ = recover()
	}()
	select {
	case client.Send <- data:
	default:
		h.logger.Warn("HUB", "Client Send buffer full, dropping connection", map[string]interface{}{"user_id": client.UserID})
		go func() { h.unregister <- client }()
	}
}

func (h *Hub) publish(target string, data []byte) {
	if h.rdb == nil {
		return
	}
	payload, _ := json.Marshal(clusterEnvelope{Origin: h.origin, TargetUserID: target, Message: data})
	if err := h.rdb.Publish(context.Background(), clusterChannel, payload).Err(); err != nil {
		h.logger.Warn("HUB", "Redis publish failed", map[string]interface{}{"error": err.Error()})
	}
}

func (h *Hub) subscribeToRedis(ctx context.Context) {
	pubsub := h.rdb.Subscribe(ctx, clusterChannel)
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		var env clusterEnvelope
		if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
			h.logger.Warn("HUB", "Redis msg parse error", map[string]interface{}{"error": err.Error()})
			continue
		}
		if env.Origin == h.origin {
			continue
		}
		h.relay(env)
	}
}

func (h *Hub) relay(env clusterEnvelope) {
	if env.TargetUserID == broadcastTarget {
		h.deliverAll(env.Message)
		return
	}
	uid, err := uuid.Parse(env.TargetUserID)
	if err != nil {
		return
	}
	h.deliver(uid, env.Message)
}
