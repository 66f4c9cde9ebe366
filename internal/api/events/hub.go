package events

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/mcoot/votingroom/internal/dependencies/clock"
	"github.com/mcoot/votingroom/internal/model"
)

// message is one rendered event. version is the room version a room-updated
// event reports and zero for every other event.
type message struct {
	data    []byte
	version int64
}

// Hub fans room notifications out to every stream watching one room
type Hub struct {
	roomID  model.RoomID
	clients map[*Client]bool
	mu      sync.RWMutex
	logger  *slog.Logger

	register   chan *Client
	unregister chan *Client
	broadcast  chan message
	done       chan struct{}
	closeOnce  sync.Once
}

// NewHub creates a new Hub for a room
func NewHub(roomID model.RoomID, logger *slog.Logger) *Hub {
	return &Hub{
		roomID:     roomID,
		clients:    make(map[*Client]bool),
		logger:     logger.With(slog.String("room_id", string(roomID))),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan message, 64),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's event loop. It returns once the hub is closed.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("event stream opened",
				slog.String("remote", client.remote),
				slog.Int("streams", count))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			count := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("event stream closed",
				slog.String("remote", client.remote),
				slog.Duration("duration", time.Since(client.connectedAt)),
				slog.Int("streams", count))

		case msg := <-h.broadcast:
			h.fanOut(msg)

		case <-h.done:
			// Deliver anything queued before the close, such as a room-closed event
			h.drain()

			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return
		}
	}
}

func (h *Hub) drain() {
	for {
		select {
		case msg := <-h.broadcast:
			h.fanOut(msg)
		default:
			return
		}
	}
}

func (h *Hub) fanOut(msg message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		select {
		case client.send <- msg:
		default:
			// The next update carries a newer version, so a slow stream only
			// misses intermediate notifications.
			h.logger.Warn("event dropped, stream buffer full",
				slog.String("remote", client.remote))
		}
	}
}

// Register adds a client to the hub. It reports false if the hub has closed.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// BroadcastEvent queues a named event for every client without blocking
func (h *Hub) BroadcastEvent(eventName, data string) {
	h.publish(eventName, message{data: formatMessage(eventName, data)})
}

// BroadcastUpdate queues a room-updated event for the given room version.
// Streams that opened at that version or later skip it.
func (h *Hub) BroadcastUpdate(version int64, data string) {
	h.publish(EventRoomUpdated, message{data: formatMessage(EventRoomUpdated, data), version: version})
}

func (h *Hub) publish(eventName string, msg message) {
	select {
	case h.broadcast <- msg:
	default:
		h.logger.Warn("event dropped, hub buffer full", slog.String("event", eventName))
	}
}

// Close shuts down the hub and ends every stream. Safe to call more than once.
func (h *Hub) Close() {
	h.closeOnce.Do(func() {
		close(h.done)
	})
}

// ClientCount returns the number of open streams
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// formatMessage renders one server-sent event. Each data line gets its own
// "data: " prefix.
func formatMessage(eventName, data string) []byte {
	var b strings.Builder
	b.WriteString("event: ")
	b.WriteString(eventName)
	b.WriteByte('\n')

	data = strings.ReplaceAll(data, "\r\n", "\n")
	data = strings.TrimSuffix(data, "\n")
	for line := range strings.SplitSeq(data, "\n") {
		b.WriteString("data: ")
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	return []byte(b.String())
}

// HubManager owns one Hub per watched room
type HubManager struct {
	hubs   map[model.RoomID]*Hub
	mu     sync.RWMutex
	logger *slog.Logger
	closed bool
}

// NewHubManager creates a new HubManager
func NewHubManager(logger *slog.Logger) *HubManager {
	return &HubManager{
		hubs:   make(map[model.RoomID]*Hub),
		logger: logger.With(slog.String("component", "events")),
	}
}

// Subscribe registers a new stream for roomID, starting a hub if needed.
// It returns nil once the manager has been closed.
func (m *HubManager) Subscribe(roomID model.RoomID, remote string) *Client {
	for {
		hub := m.getOrCreateHub(roomID)
		if hub == nil {
			return nil
		}
		client := newClient(hub, remote)
		if hub.Register(client) {
			return client
		}
		m.forget(roomID, hub)
	}
}

// forget drops a closed hub so the next lookup starts a fresh one
func (m *HubManager) forget(roomID model.RoomID, hub *Hub) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.hubs[roomID] == hub {
		delete(m.hubs, roomID)
	}
}

func (m *HubManager) getOrCreateHub(roomID model.RoomID) *Hub {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	if hub, ok := m.hubs[roomID]; ok {
		return hub
	}

	hub := NewHub(roomID, m.logger)
	m.hubs[roomID] = hub
	go hub.Run()
	return hub
}

// GetHub returns the hub for a room, or nil if nobody is watching it
func (m *HubManager) GetHub(roomID model.RoomID) *Hub {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hubs[roomID]
}

// RemoveHub removes and closes a hub
func (m *HubManager) RemoveHub(roomID model.RoomID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if hub, ok := m.hubs[roomID]; ok {
		hub.Close()
		delete(m.hubs, roomID)
	}
}

// CleanupEmptyHubs removes hubs with no clients and returns how many it removed
func (m *HubManager) CleanupEmptyHubs() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, hub := range m.hubs {
		if hub.ClientCount() == 0 {
			hub.Close()
			delete(m.hubs, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of live hubs
func (m *HubManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.hubs)
}

// Close ends every open stream and refuses new subscriptions
func (m *HubManager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	for id, hub := range m.hubs {
		hub.Close()
		delete(m.hubs, id)
	}
}

// Run removes empty hubs on every interval. When ctx is cancelled every open
// stream is ended so server shutdown is not held up by idle watchers.
func (m *HubManager) Run(ctx context.Context, clk clock.Clock, interval time.Duration) {
	ticker := clk.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.Close()
			return
		case <-ticker.C():
			if n := m.CleanupEmptyHubs(); n > 0 {
				m.logger.Debug("empty hubs removed", slog.Int("removed", n))
			}
		}
	}
}
