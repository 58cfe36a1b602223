package realtime

import (
	"context"
	"log"
	"sync"
	"time"
)

// Topic is a table whose rows are watched
type Topic string

const (
	TopicMembers  Topic = "members"
	TopicSessions Topic = "sessions"
	TopicLogs     Topic = "logs"
)

// Op is the kind of row change
type Op string

const (
	OpInsert Op = "INSERT"
	OpUpdate Op = "UPDATE"
	OpDelete Op = "DELETE"
)

// Event is one row change. Seq is strictly increasing per hub.
type Event struct {
	Seq   uint64    `json:"seq"`
	Topic Topic     `json:"topic"`
	Op    Op        `json:"op"`
	ID    string    `json:"id"`
	At    time.Time `json:"at"`
}

// Batch is the answer to a feed read
type Batch struct {
	Events []Event `json:"events"`
	Head   uint64  `json:"head"`
	// Reset means the reader missed events (buffer overrun or a hub
	// restart) and must refetch everything.
	Reset bool `json:"reset"`
}

// Client is a connected stream reader
type Client struct {
	ID      string
	Phone   string
	Channel chan Event
}

// DefaultCapacity is how many events the hub remembers
const DefaultCapacity = 512

// Hub fans row changes out to stream clients and keeps a short history
// for long-poll readers
type Hub struct {
	mu       sync.RWMutex
	seq      uint64
	history  []Event
	capacity int
	wake     chan struct{}
	clients  map[string]*Client
	now      func() time.Time
}

// NewHub creates a hub remembering up to capacity events
func NewHub(capacity int) *Hub {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Hub{
		capacity: capacity,
		history:  make([]Event, 0, capacity),
		wake:     make(chan struct{}),
		clients:  make(map[string]*Client),
		now:      time.Now,
	}
}

// Publish records a change and wakes every reader
func (h *Hub) Publish(topic Topic, op Op, id string) Event {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.seq++
	ev := Event{Seq: h.seq, Topic: topic, Op: op, ID: id, At: h.now().UTC()}

	if len(h.history) == h.capacity {
		copy(h.history, h.history[1:])
		h.history = h.history[:h.capacity-1]
	}
	h.history = append(h.history, ev)

	close(h.wake)
	h.wake = make(chan struct{})

	for _, client := range h.clients {
		select {
		case client.Channel <- ev:
		default:
			// Client channel full, skip
			log.Printf("⚠️ Feed channel full for client %s, skipping", client.ID)
		}
	}
	return ev
}

// Head is the sequence number of the latest event
func (h *Hub) Head() uint64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.seq
}

// Since returns events after seq without blocking
func (h *Hub) Since(seq uint64) Batch {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.sinceLocked(seq)
}

func (h *Hub) sinceLocked(seq uint64) Batch {
	b := Batch{Events: []Event{}, Head: h.seq}
	if seq > h.seq {
		b.Reset = true
		return b
	}
	if len(h.history) > 0 && h.history[0].Seq > seq+1 {
		b.Reset = true
	}
	for _, ev := range h.history {
		if ev.Seq > seq {
			b.Events = append(b.Events, ev)
		}
	}
	return b
}

// Wait blocks until there are events after seq or ctx ends. On ctx end it
// returns an empty batch along with ctx.Err().
func (h *Hub) Wait(ctx context.Context, seq uint64) (Batch, error) {
	for {
		h.mu.RLock()
		b := h.sinceLocked(seq)
		wake := h.wake
		h.mu.RUnlock()

		if len(b.Events) > 0 || b.Reset {
			return b, nil
		}
		select {
		case <-wake:
		case <-ctx.Done():
			return b, ctx.Err()
		}
	}
}

// Register adds a stream client
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.ID] = client
	log.Printf("📡 Feed client registered: %s (%s) | total=%d", client.ID, client.Phone, len(h.clients))
}

// Unregister removes a stream client and closes its channel
func (h *Hub) Unregister(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if client, ok := h.clients[clientID]; ok {
		close(client.Channel)
		delete(h.clients, clientID)
		log.Printf("📡 Feed client unregistered: %s | total=%d", clientID, len(h.clients))
	}
}

// ClientCount returns the number of connected stream clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
