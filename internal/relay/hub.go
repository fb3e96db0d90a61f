package relay

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"

	"github.com/fieldops/tracker/internal/api/metrics"
)

// Conn is a single client connection attached to the hub. Implementations
// must tolerate Send being called from the hub goroutine while the connection
// is being torn down.
type Conn interface {
	// AgentID identifies the authenticated agent owning this connection.
	AgentID() string
	// Send writes one payload to the client.
	Send(payload json.RawMessage) error
	Close() error
}

// Hub keeps the local connection registry and fans incoming events out to
// the connections they address. Connections join the channel named after
// their own agent once, at registration.
type Hub struct {
	mu       sync.RWMutex
	channels map[string]map[Conn]struct{}
	logger   zerolog.Logger
}

func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		channels: make(map[string]map[Conn]struct{}),
		logger:   logger,
	}
}

// Join registers a connection under its agent channel.
func (h *Hub) Join(c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns, ok := h.channels[c.AgentID()]
	if !ok {
		conns = make(map[Conn]struct{})
		h.channels[c.AgentID()] = conns
	}
	conns[c] = struct{}{}
	metrics.RelayConnections.Inc()
}

// Leave removes a connection. Calling Leave for a connection that already
// left is a no-op.
func (h *Hub) Leave(c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns, ok := h.channels[c.AgentID()]
	if !ok {
		return
	}
	if _, member := conns[c]; !member {
		return
	}
	delete(conns, c)
	if len(conns) == 0 {
		delete(h.channels, c.AgentID())
	}
	metrics.RelayConnections.Dec()
}

// Deliver fans one event out to its audience. A failed send evicts the
// connection so a stuck client cannot wedge the hub.
func (h *Hub) Deliver(ev Event) {
	for _, c := range h.audience(ev.AgentID) {
		if err := c.Send(ev.Payload); err != nil {
			h.logger.Warn().Err(err).Str("agent", c.AgentID()).Msg("relay: evicting connection after failed send")
			h.Leave(c)
			_ = c.Close()
		}
	}
}

func (h *Hub) audience(agentID string) []Conn {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var out []Conn
	if agentID == "" {
		for _, conns := range h.channels {
			for c := range conns {
				out = append(out, c)
			}
		}
		return out
	}
	for c := range h.channels[agentID] {
		out = append(out, c)
	}
	return out
}

// ConnectionCount reports how many connections are registered on this
// instance.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for _, conns := range h.channels {
		n += len(conns)
	}
	return n
}

// Run consumes the backplane event stream until the context is cancelled or
// the stream closes.
func (h *Hub) Run(ctx context.Context, events <-chan Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			h.Deliver(ev)
		}
	}
}
