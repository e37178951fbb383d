// Package notify delivers payment notifications to websocket clients grouped
// in rooms. A client joins the room id it generated before paying; the same id
// travels to the provider as the order's external reference and comes back
// with the payment, which is how a confirmation finds its buyer.
package notify

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/storefront/commerce-api/internal/api/metrics"
	"github.com/storefront/commerce-api/internal/core/domain"
)

const (
	defaultSendBuffer = 16

	// EventJoinRoom is sent by clients to subscribe to a room.
	EventJoinRoom = "joinRoom"
	// EventLeaveRoom is sent by clients to unsubscribe from a room.
	EventLeaveRoom = "leaveRoom"
	// EventNotifyPayment carries a domain.Notification to clients.
	EventNotifyPayment = "notifyPayment"
)

// Frame is the envelope of every websocket message.
type Frame struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Client is one registered connection. Frames for it are queued on Send until
// the hub drops it.
type Client struct {
	send   chan Frame
	rooms  map[string]struct{}
	closed bool
}

// Send returns the outbound queue. It is closed when the client is dropped.
func (c *Client) Send() <-chan Frame { return c.send }

// Hub is the room registry. Publish never blocks on a slow client: a client
// whose queue is full is dropped.
type Hub struct {
	mu         sync.RWMutex
	rooms      map[string]map[*Client]struct{}
	sendBuffer int
	log        zerolog.Logger
}

// NewHub creates an empty Hub. A non-positive sendBuffer uses defaultSendBuffer.
func NewHub(sendBuffer int, log zerolog.Logger) *Hub {
	if sendBuffer <= 0 {
		sendBuffer = defaultSendBuffer
	}
	return &Hub{
		rooms:      make(map[string]map[*Client]struct{}),
		sendBuffer: sendBuffer,
		log:        log,
	}
}

// Register creates a client that belongs to no room yet.
func (h *Hub) Register() *Client {
	metrics.HubSubscribers.Inc()
	return &Client{
		send:  make(chan Frame, h.sendBuffer),
		rooms: make(map[string]struct{}),
	}
}

// Join subscribes c to room. Joining twice is a no-op.
func (h *Hub) Join(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c.closed {
		return
	}
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Client]struct{})
		h.rooms[room] = members
	}
	members[c] = struct{}{}
	c.rooms[room] = struct{}{}
}

// Leave unsubscribes c from room.
func (h *Hub) Leave(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(c, room)
}

// Unregister removes c from every room and closes its queue. Safe to call more
// than once.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c.closed {
		return
	}
	for room := range c.rooms {
		h.leaveLocked(c, room)
	}
	c.closed = true
	close(c.send)
	metrics.HubSubscribers.Dec()
}

func (h *Hub) leaveLocked(c *Client, room string) {
	members := h.rooms[room]
	delete(members, c)
	if len(members) == 0 {
		delete(h.rooms, room)
	}
	delete(c.rooms, room)
}

// Publish delivers n to every client in room and returns how many received it.
func (h *Hub) Publish(room string, n domain.Notification) int {
	frame := Frame{Event: EventNotifyPayment, Data: n}

	var slow []*Client
	delivered := 0

	h.mu.RLock()
	for c := range h.rooms[room] {
		select {
		case c.send <- frame:
			delivered++
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.log.Warn().Str("room", room).Str("payment_id", n.PaymentID).Msg("dropping slow subscriber")
		h.Unregister(c)
	}
	return delivered
}

// Subscribers returns the number of clients currently in room.
func (h *Hub) Subscribers(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}
