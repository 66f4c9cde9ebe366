package room

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mcoot/votingroom/internal/dependencies/clock"
	"github.com/mcoot/votingroom/internal/dependencies/random"
	"github.com/mcoot/votingroom/internal/model"
	"github.com/mcoot/votingroom/internal/services/order"
)

// maxIDAttempts bounds retries when a generated room id collides
const maxIDAttempts = 3

// CreateParams describes a room to create
type CreateParams struct {
	RoomID             model.RoomID // Optional caller-chosen id
	CreatorFingerprint model.Fingerprint
	CreatorUsername    string
	Players            []string // Seat names seeded in order
	Settings           model.RoomSettings
}

// VoteResult is the outcome of a ballot
type VoteResult struct {
	Room *model.Room
	// Completed is true only for the call that moved the room to completed
	Completed bool
}

// Option modifies a single room operation
type Option func(*options)

type options struct {
	ifVersion *int64
}

// IfVersion rejects the operation with ErrVersionConflict unless the room is
// at the given version when the operation runs
func IfVersion(v int64) Option {
	return func(o *options) {
		o.ifVersion = &v
	}
}

// Controller implements the room state machine on top of the room store
type Controller struct {
	store      *Store
	orders     *order.Generator
	clock      clock.Clock
	random     random.Random
	minPlayers int
}

// NewController creates a new room Controller. minPlayers applies to rooms
// created without an explicit minimum.
func NewController(
	store *Store,
	orders *order.Generator,
	clock clock.Clock,
	random random.Random,
	minPlayers int,
) *Controller {
	return &Controller{
		store:      store,
		orders:     orders,
		clock:      clock,
		random:     random,
		minPlayers: max(minPlayers, 1),
	}
}

// CreateRoom creates a new room in the created state
func (c *Controller) CreateRoom(ctx context.Context, params CreateParams) (*model.Room, error) {
	if params.RoomID != "" && !model.ValidRoomID(params.RoomID) {
		return nil, model.ErrInvalidRoomID
	}

	settings := params.Settings
	if settings.MinPlayers <= 0 {
		settings.MinPlayers = c.minPlayers
	}

	now := c.clock.Now()
	room := &model.Room{
		State:              model.RoomStateCreated,
		Settings:           settings,
		CreatorFingerprint: params.CreatorFingerprint,
		CreatorUsername:    params.CreatorUsername,
		Players:            make([]model.Participant, 0, len(params.Players)),
		Votes:              make(map[model.Fingerprint]int),
		Version:            1,
		CreatedAt:          now,
		LastActivityAt:     now,
	}
	for _, name := range params.Players {
		room.Players = append(room.Players, model.Participant{Username: name})
	}

	if params.RoomID != "" {
		room.ID = params.RoomID
		if err := c.store.Insert(ctx, room); err != nil {
			return nil, err
		}
		return room.Clone(), nil
	}

	for range maxIDAttempts {
		id := model.RoomID(c.random.ID())
		if id == "" {
			return nil, fmt.Errorf("%w: empty room id generated", model.ErrInternal)
		}
		room.ID = id
		err := c.store.Insert(ctx, room)
		if errors.Is(err, model.ErrRoomAlreadyExists) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return room.Clone(), nil
	}

	return nil, fmt.Errorf("%w: could not allocate a unique room id", model.ErrInternal)
}

// GetRoom returns the current room snapshot
func (c *Controller) GetRoom(ctx context.Context, id model.RoomID) (*model.Room, error) {
	return c.store.Get(ctx, id)
}

// JoinRoom registers fp as a player. Existing players may rename themselves in
// any state; newcomers may only join before voting starts.
func (c *Controller) JoinRoom(ctx context.Context, id model.RoomID, fp model.Fingerprint, username string, opts ...Option) (*model.Room, error) {
	if fp == "" {
		return nil, model.ErrMissingFingerprint
	}

	return c.update(ctx, id, opts, func(room *model.Room, now time.Time) (bool, error) {
		if idx := room.PlayerIndex(fp); idx >= 0 {
			return rename(room, idx, username), nil
		}
		if room.State != model.RoomStateCreated {
			return false, model.ErrInvalidState
		}
		room.RegisterOrGet(fp, username, now)
		return true, nil
	})
}

// StartVoting moves a room from created to voting. Starting a room that is
// already voting is a no-op.
func (c *Controller) StartVoting(ctx context.Context, id model.RoomID, fp model.Fingerprint, opts ...Option) (*model.Room, error) {
	return c.update(ctx, id, opts, func(room *model.Room, _ time.Time) (bool, error) {
		if err := authorize(room, fp); err != nil {
			return false, err
		}

		switch room.State {
		case model.RoomStateVoting:
			return false, nil
		case model.RoomStateCompleted:
			return false, model.ErrInvalidState
		}

		if len(room.Players) < max(room.Settings.MinPlayers, 1) {
			return false, model.ErrEmptyRoom
		}

		room.State = model.RoomStateVoting
		clear(room.Votes)
		return true, nil
	})
}

// Vote records fp's ballot for playerIndex, registering fp as a player first if
// the room has not seen it. The room completes once every player has voted.
func (c *Controller) Vote(ctx context.Context, id model.RoomID, fp model.Fingerprint, playerIndex int, username string, opts ...Option) (*VoteResult, error) {
	if fp == "" {
		return nil, model.ErrMissingFingerprint
	}

	completed := false
	room, err := c.update(ctx, id, opts, func(room *model.Room, now time.Time) (bool, error) {
		if room.State != model.RoomStateVoting {
			return false, model.ErrInvalidState
		}
		if !room.ValidPlayerIndex(playerIndex) {
			return false, model.ErrInvalidPlayerIndex
		}

		idx, res := room.RegisterOrGet(fp, username, now)
		changed := res != model.RegisterExisting
		if res == model.RegisterExisting {
			changed = rename(room, idx, username)
		}

		if prev, ok := room.Votes[fp]; !ok || prev != playerIndex {
			room.Votes[fp] = playerIndex
			changed = true
		}

		if room.AllVoted() {
			room.State = model.RoomStateCompleted
			completed = true
			changed = true
		}
		return changed, nil
	})
	if err != nil {
		return nil, err
	}

	return &VoteResult{Room: room, Completed: completed}, nil
}

// ResetVoting discards every ballot and returns the room to voting. Players and
// the last generated order are kept.
func (c *Controller) ResetVoting(ctx context.Context, id model.RoomID, fp model.Fingerprint, opts ...Option) (*model.Room, error) {
	return c.update(ctx, id, opts, func(room *model.Room, _ time.Time) (bool, error) {
		if err := authorize(room, fp); err != nil {
			return false, err
		}
		if room.State == model.RoomStateCreated {
			return false, model.ErrInvalidState
		}
		if room.State == model.RoomStateVoting && len(room.Votes) == 0 {
			return false, nil
		}

		room.State = model.RoomStateVoting
		clear(room.Votes)
		return true, nil
	})
}

// GeneratePlayerOrder produces a fresh permutation of the current players
func (c *Controller) GeneratePlayerOrder(ctx context.Context, id model.RoomID, fp model.Fingerprint, opts ...Option) (*model.Room, error) {
	return c.update(ctx, id, opts, func(room *model.Room, _ time.Time) (bool, error) {
		if err := authorize(room, fp); err != nil {
			return false, err
		}
		if len(room.Players) == 0 {
			return false, model.ErrEmptyRoom
		}

		perm, err := c.orders.Generate(room.ID, room.OrderRound, len(room.Players))
		if err != nil {
			return false, err
		}
		room.Order = perm
		room.OrderRound++
		return true, nil
	})
}

// EvictRoom removes a room immediately. Removing a missing room succeeds.
func (c *Controller) EvictRoom(ctx context.Context, id model.RoomID) error {
	return c.store.Evict(ctx, id)
}

func (c *Controller) update(ctx context.Context, id model.RoomID, opts []Option, fn mutation) (*model.Room, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	return c.store.Update(ctx, id, func(room *model.Room, now time.Time) (bool, error) {
		if o.ifVersion != nil && *o.ifVersion != room.Version {
			return false, model.ErrVersionConflict
		}
		return fn(room, now)
	})
}

// authorize enforces creator-only controls when the room enables them
func authorize(room *model.Room, fp model.Fingerprint) error {
	if !room.Settings.CreatorControls {
		return nil
	}
	if fp == "" || fp != room.CreatorFingerprint {
		return model.ErrNotCreator
	}
	return nil
}

func rename(room *model.Room, idx int, username string) bool {
	if username == "" || room.Players[idx].Username == username {
		return false
	}
	room.Players[idx].Username = username
	return true
}

// RoomCount returns the number of live rooms
func (c *Controller) RoomCount() int {
	return c.store.Len()
}
