package events

import (
	"net/http"
	"time"

	"github.com/mcoot/votingroom/internal/model"
)

const (
	// Time between keepalive comments
	pingPeriod = 30 * time.Second

	// Buffer size for outgoing messages
	sendBufferSize = 16
)

// Client is one open event stream
type Client struct {
	hub         *Hub
	remote      string
	send        chan message
	connectedAt time.Time
}

func newClient(hub *Hub, remote string) *Client {
	return &Client{
		hub:         hub,
		remote:      remote,
		send:        make(chan message, sendBufferSize),
		connectedAt: time.Now(),
	}
}

// Close detaches the client from its hub
func (c *Client) Close() {
	c.hub.Unregister(c)
}

// Serve streams events to the client until it disconnects or its hub closes.
// A room-updated event for initial is written first so the client starts from
// a known version; queued updates at or below that version are skipped, so the
// versions a stream reports strictly increase.
func Serve(w http.ResponseWriter, r *http.Request, client *Client, initial *model.Room) {
	defer client.Close()

	rc := http.NewResponseController(w)
	// Streams outlive the server's write timeout
	_ = rc.SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering
	w.WriteHeader(http.StatusOK)

	since := initial.Version
	if _, err := w.Write(Message(initial)); err != nil {
		return
	}
	if err := rc.Flush(); err != nil {
		return
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-client.send:
			if !ok {
				return
			}
			if msg.version != 0 && msg.version <= since {
				continue
			}
			if _, err := w.Write(msg.data); err != nil {
				return
			}
			_ = rc.Flush()

		case <-ticker.C:
			if _, err := w.Write([]byte(": keepalive\n\n")); err != nil {
				return
			}
			_ = rc.Flush()

		case <-r.Context().Done():
			return
		}
	}
}
