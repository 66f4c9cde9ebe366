package storage

import (
	"context"

	"github.com/mcoot/votingroom/internal/model"
)

// Storage defines the durability backend behind the room store.
// Implementations hold copies; callers never share a *model.Room with storage.
type Storage interface {
	SaveRoom(ctx context.Context, room *model.Room) error
	GetRoom(ctx context.Context, id model.RoomID) (*model.Room, error)
	DeleteRoom(ctx context.Context, id model.RoomID) error
	RoomExists(ctx context.Context, id model.RoomID) (bool, error)

	// TouchRoom extends the retention of a room without rewriting it
	TouchRoom(ctx context.Context, id model.RoomID) error
}
