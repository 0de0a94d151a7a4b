package ws

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/cuongbtq/chauffer-be/internal/realtime"
)

const (
	defaultWriteWait      = 10 * time.Second
	defaultPongWait       = 60 * time.Second
	defaultMaxMessageSize = 4 * 1024
	defaultSendBuffer     = 256
)

// Options tune the socket pumps; zero values fall back to defaults
type Options struct {
	WriteWait      time.Duration
	PongWait       time.Duration
	MaxMessageSize int64
	SendBuffer     int
}

func (o Options) withDefaults() Options {
	if o.WriteWait <= 0 {
		o.WriteWait = defaultWriteWait
	}
	if o.PongWait <= 0 {
		o.PongWait = defaultPongWait
	}
	if o.MaxMessageSize <= 0 {
		o.MaxMessageSize = defaultMaxMessageSize
	}
	if o.SendBuffer <= 0 {
		o.SendBuffer = defaultSendBuffer
	}
	return o
}

func (o Options) pingPeriod() time.Duration {
	return (o.PongWait * 9) / 10
}

// Controls receives the decisions a browser reports over the socket
type Controls interface {
	SetPermission(userID string, p realtime.Permission)
	MarkAsRead(userID string)
}

// Client is one open socket of a signed-in user
type Client struct {
	id       string
	userID   string
	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte
	controls Controls
	opts     Options
	logger   *slog.Logger
}

func NewClient(hub *Hub, conn *websocket.Conn, userID string, controls Controls, opts Options, logger *slog.Logger) *Client {
	opts = opts.withDefaults()
	id := uuid.New().String()
	return &Client{
		id:       id,
		userID:   userID,
		hub:      hub,
		conn:     conn,
		send:     make(chan []byte, opts.SendBuffer),
		controls: controls,
		opts:     opts,
		logger:   logger.With(slog.String("client_id", id), slog.String("user_id", userID)),
	}
}

// ID identifies the client as the owner of its user's subscription
func (c *Client) ID() string {
	return c.id
}

// ReadPump reads browser messages until the connection fails, then unregisters the client
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(c.opts.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.opts.PongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.logger.Error("WebSocket read error", slog.Any("error", err))
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.logger.Warn("Invalid message format", slog.Any("error", err))
			continue
		}

		c.handleMessage(&msg)
	}
}

// WritePump writes queued messages and keeps the connection alive with pings
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.opts.pingPeriod())
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.Error("WebSocket write error", slog.Any("error", err))
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleMessage(msg *Message) {
	switch msg.Type {
	case MessagePermission:
		c.controls.SetPermission(c.userID, realtime.ParsePermission(msg.Permission))

	case MessageMarkRead:
		c.controls.MarkAsRead(c.userID)

	case MessagePing:
		data, _ := json.Marshal(&Message{Type: MessagePong, Timestamp: time.Now()})
		c.hub.mu.RLock()
		defer c.hub.mu.RUnlock()
		if _, ok := c.hub.clients[c.userID][c]; !ok {
			return
		}
		select {
		case c.send <- data:
		default:
		}

	default:
		c.logger.Warn("Unknown message type", slog.String("type", string(msg.Type)))
	}
}
