package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/cuongbtq/chauffer-be/internal/realtime"
)

// MessageType identifies a socket message
type MessageType string

const (
	// server to browser
	MessageToast             MessageType = "toast"
	MessageRequestPermission MessageType = "request_permission"
	MessageNotification      MessageType = "notification"
	MessagePong              MessageType = "pong"

	// browser to server
	MessagePermission MessageType = "permission"
	MessageMarkRead   MessageType = "mark_read"
	MessagePing       MessageType = "ping"
)

// Message is the JSON frame exchanged over the socket
type Message struct {
	Type         MessageType            `json:"type"`
	Notification *realtime.Notification `json:"notification,omitempty"`
	Permission   string                 `json:"permission,omitempty"`
	Timestamp    time.Time              `json:"timestamp"`
}

// Hub tracks open clients per user and fans notifications out to them
type Hub struct {
	clients    map[string]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
	logger     *slog.Logger
}

var _ realtime.Notifier = (*Hub)(nil)

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger.With(slog.String("component", "ws_hub")),
	}
}

// Run processes registrations until ctx is done, then closes every client
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	defer close(h.done)

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.userID] == nil {
				h.clients[client.userID] = make(map[*Client]struct{})
			}
			h.clients[client.userID][client] = struct{}{}
			h.mu.Unlock()
			h.logger.Info("Client registered",
				slog.String("client_id", client.id),
				slog.String("user_id", client.userID),
			)

		case client := <-h.unregister:
			h.remove(client)
			h.logger.Info("Client unregistered",
				slog.String("client_id", client.id),
				slog.String("user_id", client.userID),
			)

		case <-ticker.C:
			h.mu.RLock()
			users := len(h.clients)
			h.mu.RUnlock()
			h.logger.Debug("Hub stats", slog.Int("users", users))

		case <-ctx.Done():
			h.mu.Lock()
			for userID, clients := range h.clients {
				for client := range clients {
					close(client.send)
				}
				delete(h.clients, userID)
			}
			h.mu.Unlock()
			h.logger.Info("Hub stopped")
			return
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.clients[client.userID]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}
	delete(clients, client)
	if len(clients) == 0 {
		delete(h.clients, client.userID)
	}
	close(client.send)
}

// Register adds a client. It reports false once the hub has stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a client and closes its send channel
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Connected returns the number of open clients for a user
func (h *Hub) Connected(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

func (h *Hub) Toast(userID string, n realtime.Notification) {
	h.send(userID, &Message{Type: MessageToast, Notification: &n})
}

func (h *Hub) RequestPermission(userID string) {
	h.send(userID, &Message{Type: MessageRequestPermission})
}

func (h *Hub) SystemNotify(userID string, n realtime.Notification) {
	h.send(userID, &Message{Type: MessageNotification, Notification: &n})
}

func (h *Hub) send(userID string, message *Message) {
	message.Timestamp = time.Now()
	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("Failed to marshal message", slog.Any("error", err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[userID] {
		select {
		case client.send <- data:
		default:
			h.logger.Warn("Client send buffer full",
				slog.String("client_id", client.id),
				slog.String("type", string(message.Type)),
			)
		}
	}
}
