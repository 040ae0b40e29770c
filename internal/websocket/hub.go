package websocket

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// MessageType represents the type of WebSocket message.
type MessageType string

const (
	// MessageTypeAvailabilityChanged tells search/availability views that
	// inventory for a train run changed and cached results should be
	// refetched.
	MessageTypeAvailabilityChanged MessageType = "availability_changed"
	MessageTypeBookingConfirmed    MessageType = "booking_confirmed"
	MessageTypeWaitlistPromoted    MessageType = "waitlist_promoted"
	MessageTypeHoldExpired         MessageType = "hold_expired"
)

// Message represents a WebSocket message for one train run.
type Message struct {
	Type       MessageType `json:"type"`
	RunID      string      `json:"runId"`
	CoachClass string      `json:"coachClass,omitempty"`
	BookingID  string      `json:"bookingId,omitempty"`
	Message    string      `json:"message,omitempty"`
	Timestamp  int64       `json:"timestamp"`
}

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Client represents a WebSocket client watching one train run.
type Client struct {
	hub   *Hub
	conn  *websocket.Conn
	send  chan []byte
	runID uuid.UUID
}

// Hub manages WebSocket connections per train run.
type Hub struct {
	clients    map[uuid.UUID]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan *Message
	mu         sync.RWMutex
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *Message, 256),
	}
}

// Run starts the hub's main loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.runID] == nil {
				h.clients[client.runID] = make(map[*Client]bool)
			}
			h.clients[client.runID][client] = true
			log.Printf("WebSocket: client registered for run %s (total: %d)", client.runID, len(h.clients[client.runID]))
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.runID]; ok {
				if _, ok := clients[client]; ok {
					delete(clients, client)
					close(client.send)
					if len(clients) == 0 {
						delete(h.clients, client.runID)
					}
				}
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			runID, err := uuid.Parse(message.RunID)
			if err != nil {
				log.Printf("WebSocket: invalid run ID in broadcast: %s", message.RunID)
				continue
			}

			data, err := json.Marshal(message)
			if err != nil {
				log.Printf("WebSocket: failed to marshal message: %v", err)
				continue
			}

			h.mu.RLock()
			clients := h.clients[runID]
			h.mu.RUnlock()

			for client := range clients {
				select {
				case client.send <- data:
				default:
					h.mu.Lock()
					delete(h.clients[runID], client)
					close(client.send)
					h.mu.Unlock()
				}
			}
		}
	}
}

// ServeWS upgrades an HTTP request to a WebSocket subscription on a run.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, runID uuid.UUID) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket: upgrade failed: %v", err)
		return
	}

	client := &Client{hub: h, conn: conn, send: make(chan []byte, 16), runID: runID}
	h.register <- client

	go client.writePump()
	go client.readPump()
}

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
		// Clients only listen; drain anything they send.
		if _, _, err := c.conn.ReadMessage(); err != nil {
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
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
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

// BroadcastAvailabilityChanged signals watchers that a class's inventory
// mutated and any displayed availability is stale.
func (h *Hub) BroadcastAvailabilityChanged(runID, coachClass string) {
	h.broadcast <- &Message{
		Type:       MessageTypeAvailabilityChanged,
		RunID:      runID,
		CoachClass: coachClass,
		Timestamp:  time.Now().UnixMilli(),
	}
}

// BroadcastBookingConfirmed notifies watchers that a booking was confirmed.
func (h *Hub) BroadcastBookingConfirmed(runID, coachClass, bookingID string) {
	h.broadcast <- &Message{
		Type:       MessageTypeBookingConfirmed,
		RunID:      runID,
		CoachClass: coachClass,
		BookingID:  bookingID,
		Timestamp:  time.Now().UnixMilli(),
	}
}

// BroadcastWaitlistPromoted notifies watchers that a waitlisted booking
// got seats.
func (h *Hub) BroadcastWaitlistPromoted(runID, coachClass, bookingID string) {
	h.broadcast <- &Message{
		Type:       MessageTypeWaitlistPromoted,
		RunID:      runID,
		CoachClass: coachClass,
		BookingID:  bookingID,
		Message:    "Waitlisted booking has been confirmed",
		Timestamp:  time.Now().UnixMilli(),
	}
}

// BroadcastHoldExpired notifies watchers that a hold lapsed and its seats
// are free again.
func (h *Hub) BroadcastHoldExpired(runID, coachClass, bookingID string) {
	h.broadcast <- &Message{
		Type:       MessageTypeHoldExpired,
		RunID:      runID,
		CoachClass: coachClass,
		BookingID:  bookingID,
		Message:    "Hold expired - seats are available again",
		Timestamp:  time.Now().UnixMilli(),
	}
}

// ClientCount returns the number of clients watching a run.
func (h *Hub) ClientCount(runID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[runID])
}
