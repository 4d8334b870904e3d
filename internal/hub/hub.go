// Package hub tracks connected live clients and fans payloads out to them.
package hub

import (
	"sync"
	"time"

	"github.com/NanamiChiaki-7/Notiobsidian/internal/eventbus"
	"github.com/NanamiChiaki-7/Notiobsidian/pkg/logx"
)

// Client is one connected session. The hub owns the handle once added; a
// failed Send marks the client dead and the hub closes and drops it.
type Client interface {
	ID() string
	Send(payload []byte) error
	Close() error
}

// ClientEvent is published on the event bus when a client joins or leaves.
type ClientEvent struct {
	ID string    `json:"id"`
	At time.Time `json:"at"`
}

type Hub struct {
	log logx.Logger
	bus eventbus.Bus

	mu      sync.Mutex
	clients map[string]Client
}

func New(log logx.Logger, bus eventbus.Bus) *Hub {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Hub{
		log:     log,
		bus:     bus,
		clients: map[string]Client{},
	}
}

func (h *Hub) Add(c Client) {
	h.mu.Lock()
	h.clients[c.ID()] = c
	n := len(h.clients)
	h.mu.Unlock()

	h.log.Debug("client registered", logx.String("client", c.ID()), logx.Int("total", n))
	h.publish("client.connected", c.ID())
}

func (h *Hub) Remove(id string) {
	h.mu.Lock()
	_, ok := h.clients[id]
	delete(h.clients, id)
	n := len(h.clients)
	h.mu.Unlock()

	if ok {
		h.log.Debug("client unregistered", logx.String("client", id), logx.Int("total", n))
		h.publish("client.disconnected", id)
	}
}

func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Broadcast sends payload to every registered client and returns the number
// of successful deliveries. A failed send never aborts delivery to the
// rest: failed clients are collected during the pass and removed after it.
func (h *Hub) Broadcast(payload []byte) int {
	h.mu.Lock()
	snapshot := make([]Client, 0, len(h.clients))
	for _, c := range h.clients {
		snapshot = append(snapshot, c)
	}
	h.mu.Unlock()

	delivered := 0
	var failed []Client
	for _, c := range snapshot {
		if err := c.Send(payload); err != nil {
			h.log.Debug("send failed, dropping client", logx.String("client", c.ID()), logx.Err(err))
			failed = append(failed, c)
			continue
		}
		delivered++
	}

	// A send failure is a disconnect, not a retry.
	for _, c := range failed {
		h.Remove(c.ID())
		_ = c.Close()
	}
	return delivered
}

func (h *Hub) publish(typ, id string) {
	if h.bus == nil {
		return
	}
	now := time.Now()
	h.bus.Publish(eventbus.Event{Type: typ, Time: now, Data: ClientEvent{ID: id, At: now}})
}
