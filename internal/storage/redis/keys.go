package redis

import (
	"fmt"

	"github.com/mcoot/votingroom/internal/model"
)

// Key prefix for all room data
const keyPrefix = "votingroom"

// roomKey returns the Redis key for a Room
func roomKey(id model.RoomID) string {
	return fmt.Sprintf("%s:room:%s", keyPrefix, id)
}
