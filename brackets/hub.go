package brackets

import (
	"encoding/json"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Event names pushed to draw subscribers.
const (
	EventMatchUpdated   = "match_updated"
	EventBracketUpdated = "bracket_updated"
	EventSeedsUpdated   = "seeds_updated"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// Event is the wire format for draw updates.
type Event struct {
	Type    string      `json:"type"`
	DrawID  int         `json:"draw_id"`
	Payload interface{} `json:"payload"`
}

// Client is one websocket subscriber of a single draw.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	drawID int

	mu     sync.Mutex
	closed bool
}

// Hub fans draw events out to websocket subscribers. Clients are grouped
// into rooms keyed by draw id; a room disappears with its last client.
type Hub struct {
	register   chan *Client
	unregister chan *Client

	mu    sync.RWMutex
	rooms map[int]map[*Client]bool

	logger *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		rooms:      make(map[int]map[*Client]bool),
		logger:     logger,
	}
}

// NewClient wires an accepted websocket connection into the hub and starts
// its read and write pumps.
func (h *Hub) NewClient(conn *websocket.Conn, drawID int) *Client {
	c := &Client{
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, 16),
		drawID: drawID,
	}
	h.register <- c
	go c.writePump()
	go c.readPump()
	return c
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if _, ok := h.rooms[client.drawID]; !ok {
				h.rooms[client.drawID] = make(map[*Client]bool)
			}
			h.rooms[client.drawID][client] = true
			h.mu.Unlock()
			h.logger.Debug("ws client subscribed", slog.Int("draw_id", client.drawID))

		case client := <-h.unregister:
			h.mu.Lock()
			if room, ok := h.rooms[client.drawID]; ok && room[client] {
				client.shutdown()
				delete(room, client)
				if len(room) == 0 {
					delete(h.rooms, client.drawID)
				}
			}
			h.mu.Unlock()
			h.logger.Debug("ws client unsubscribed", slog.Int("draw_id", client.drawID))
		}
	}
}

// BroadcastDraw sends an event to every subscriber of a draw. Slow clients
// are skipped rather than blocked on.
func (h *Hub) BroadcastDraw(drawID int, eventType string, payload interface{}) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	room, ok := h.rooms[drawID]
	if !ok {
		return
	}

	data, err := json.Marshal(Event{Type: eventType, DrawID: drawID, Payload: payload})
	if err != nil {
		h.logger.Error("ws event marshal failed",
			slog.String("type", eventType),
			slog.Int("draw_id", drawID),
			slog.Any("error", err))
		return
	}

	for client := range room {
		client.mu.Lock()
		if !client.closed {
			select {
			case client.send <- data:
			default:
				h.logger.Warn("ws client send buffer full, dropping event",
					slog.Int("draw_id", drawID))
			}
		}
		client.mu.Unlock()
	}
}

func (c *Client) shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		close(c.send)
		c.closed = true
	}
}

// readPump drains inbound frames to keep pong handling alive. Subscribers
// are read-only; any payload they send is ignored.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Debug("ws read error",
					slog.String("draw", strconv.Itoa(c.drawID)),
					slog.Any("error", err))
			}
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
