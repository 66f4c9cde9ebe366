package events

import (
	"encoding/json"
	"log/slog"

	"github.com/mcoot/votingroom/internal/model"
)

// Event names
const (
	EventRoomUpdated = "room-updated"
	EventRoomClosed  = "room-closed"
)

// Update is the payload of a room-updated event. It carries no ballots;
// watchers fetch their own snapshot when the version moves.
type Update struct {
	RoomID    string `json:"room_id"`
	Version   int64  `json:"version"`
	State     string `json:"state"`
	Players   int    `json:"players"`
	VotesCast int    `json:"votes_cast"`
}

// UpdateFor builds the room-updated payload for room
func UpdateFor(room *model.Room) Update {
	return Update{
		RoomID:    string(room.ID),
		Version:   room.Version,
		State:     string(room.State),
		Players:   len(room.Players),
		VotesCast: len(room.Votes),
	}
}

// Message renders a room-updated event for room
func Message(room *model.Room) []byte {
	data, _ := json.Marshal(UpdateFor(room))
	return formatMessage(EventRoomUpdated, string(data))
}

// Broadcaster publishes committed room changes to the room's watchers
type Broadcaster struct {
	hubManager *HubManager
	logger     *slog.Logger
}

// NewBroadcaster creates a new Broadcaster
func NewBroadcaster(hubManager *HubManager, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		hubManager: hubManager,
		logger:     logger.With(slog.String("component", "events-broadcaster")),
	}
}

// RoomChanged sends a room-updated event if anyone is watching the room
func (b *Broadcaster) RoomChanged(room *model.Room) {
	hub := b.hubManager.GetHub(room.ID)
	if hub == nil {
		return
	}

	data, err := json.Marshal(UpdateFor(room))
	if err != nil {
		b.logger.Error("failed to encode room update",
			slog.String("room_id", string(room.ID)),
			slog.String("error", err.Error()))
		return
	}
	hub.BroadcastUpdate(room.Version, string(data))
}

// RoomClosed tells watchers the room is gone and ends their streams
func (b *Broadcaster) RoomClosed(id model.RoomID) {
	hub := b.hubManager.GetHub(id)
	if hub == nil {
		return
	}

	data, _ := json.Marshal(map[string]string{"room_id": string(id)})
	hub.BroadcastEvent(EventRoomClosed, string(data))
	b.hubManager.RemoveHub(id)
}
