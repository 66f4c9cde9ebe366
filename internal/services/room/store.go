package room

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/semaphore"

	"github.com/mcoot/votingroom/internal/dependencies/clock"
	"github.com/mcoot/votingroom/internal/model"
	"github.com/mcoot/votingroom/internal/storage"
)

// StoreConfig holds room store sizing and lifecycle settings
type StoreConfig struct {
	Shards        int
	RoomTTL       time.Duration
	SweepInterval time.Duration
}

// DefaultStoreConfig returns sensible defaults for the room store
func DefaultStoreConfig() StoreConfig {
	return StoreConfig{
		Shards:        32,
		RoomTTL:       2 * time.Hour,
		SweepInterval: time.Minute,
	}
}

// session is the exclusive-access unit for one room.
// room and evicted are only read or written while holding sem. A session is
// published before its room is loaded or created; one whose room is still nil
// once sem is free was abandoned and dropped from its shard.
type session struct {
	sem     *semaphore.Weighted
	room    *model.Room
	evicted bool
}

type shard struct {
	mu       sync.RWMutex
	sessions map[model.RoomID]*session
}

// reserve returns the published session for id, or publishes an empty one.
// A new session comes back with its sem already held.
func (sh *shard) reserve(id model.RoomID) (*session, bool) {
	sh.mu.Lock()
	defer sh.mu.Unlock()

	if sess, ok := sh.sessions[id]; ok {
		return sess, false
	}
	sess := &session{sem: semaphore.NewWeighted(1)}
	sess.sem.TryAcquire(1)
	sh.sessions[id] = sess
	return sess, true
}

// drop unpublishes sess. Must be called while holding sess.sem.
func (sh *shard) drop(id model.RoomID, sess *session) {
	sh.mu.Lock()
	defer sh.mu.Unlock()

	if sh.sessions[id] == sess {
		delete(sh.sessions, id)
	}
}

// mutation applies an operation to a private copy of a room.
// It returns false when the operation left the room unchanged.
type mutation func(room *model.Room, now time.Time) (bool, error)

// Notifier is told about room changes after they are committed. Calls are made
// inside the room's exclusive section, so they arrive in version order; they
// must not block or retain the room.
type Notifier interface {
	RoomChanged(room *model.Room)
	RoomClosed(id model.RoomID)
}

type nopNotifier struct{}

func (nopNotifier) RoomChanged(*model.Room) {}
func (nopNotifier) RoomClosed(model.RoomID) {}

// Store is a sharded, concurrency-safe directory of live rooms. Every
// operation on a room runs inside that room's exclusive section and is
// written through to storage before it becomes visible.
type Store struct {
	shards   []*shard
	storage  storage.Storage
	clock    clock.Clock
	cfg      StoreConfig
	logger   *slog.Logger
	notifier Notifier
}

// NewStore creates a new room store
func NewStore(store storage.Storage, clk clock.Clock, cfg StoreConfig, logger *slog.Logger) *Store {
	if cfg.Shards <= 0 {
		cfg.Shards = DefaultStoreConfig().Shards
	}
	shards := make([]*shard, cfg.Shards)
	for i := range shards {
		shards[i] = &shard{sessions: make(map[model.RoomID]*session)}
	}
	return &Store{
		shards:   shards,
		storage:  store,
		clock:    clk,
		cfg:      cfg,
		logger:   logger,
		notifier: nopNotifier{},
	}
}

// SetNotifier installs n to receive committed changes. Call before the store
// is shared between goroutines.
func (s *Store) SetNotifier(n Notifier) {
	if n == nil {
		n = nopNotifier{}
	}
	s.notifier = n
}

func (s *Store) shardFor(id model.RoomID) *shard {
	return s.shards[xxhash.Sum64String(string(id))%uint64(len(s.shards))]
}

// Insert adds a newly constructed room. Fails with ErrRoomAlreadyExists if the
// id is live or still present in storage.
func (s *Store) Insert(ctx context.Context, room *model.Room) error {
	sh := s.shardFor(room.ID)
	for {
		sess, fresh, err := s.acquire(ctx, sh, room.ID)
		if err != nil {
			return err
		}
		if !fresh {
			evicted := sess.evicted
			sess.sem.Release(1)
			if evicted {
				continue
			}
			return model.ErrRoomAlreadyExists
		}

		err = s.create(ctx, room)
		if err == nil {
			sess.room = room.Clone()
		} else {
			sh.drop(room.ID, sess)
		}
		sess.sem.Release(1)
		return err
	}
}

func (s *Store) create(ctx context.Context, room *model.Room) error {
	exists, err := s.storage.RoomExists(ctx, room.ID)
	if err != nil {
		return fmt.Errorf("%w: check room: %v", model.ErrInternal, err)
	}
	if exists {
		return model.ErrRoomAlreadyExists
	}
	if err := s.storage.SaveRoom(ctx, room); err != nil {
		return fmt.Errorf("%w: save room: %v", model.ErrInternal, err)
	}
	return nil
}

// acquire returns the session for id with its sem held. The session is either
// filled in (possibly evicted) or, when the bool is true, newly published and
// empty for the caller to fill in or drop. The shard lock is never held while
// waiting or doing storage I/O.
func (s *Store) acquire(ctx context.Context, sh *shard, id model.RoomID) (*session, bool, error) {
	for {
		sh.mu.RLock()
		sess, ok := sh.sessions[id]
		sh.mu.RUnlock()

		if !ok {
			var fresh bool
			if sess, fresh = sh.reserve(id); fresh {
				return sess, true, nil
			}
		}

		if err := sess.sem.Acquire(ctx, 1); err != nil {
			return nil, false, err
		}
		if sess.room != nil || sess.evicted {
			return sess, false, nil
		}
		// abandoned load or insert
		sess.sem.Release(1)
	}
}

// open returns the live session for id with its sem held, rehydrating the room
// from storage on a miss
func (s *Store) open(ctx context.Context, id model.RoomID) (*session, error) {
	sh := s.shardFor(id)
	sess, fresh, err := s.acquire(ctx, sh, id)
	if err != nil {
		return nil, err
	}
	if !fresh {
		if sess.evicted {
			sess.sem.Release(1)
			return nil, model.ErrRoomNotFound
		}
		return sess, nil
	}

	room, err := s.storage.GetRoom(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrRoomNotFound) {
			// queued callers see the miss without reloading
			sess.evicted = true
			err = model.ErrRoomNotFound
		} else {
			err = fmt.Errorf("%w: load room: %v", model.ErrInternal, err)
		}
		sh.drop(id, sess)
		sess.sem.Release(1)
		return nil, err
	}

	sess.room = room
	s.logger.Debug("room rehydrated from storage", slog.String("room_id", string(id)))
	return sess, nil
}

// Update runs fn atomically against the room. The returned room is a copy.
// Abandoning ctx before the exclusive section is acquired leaves the room untouched.
func (s *Store) Update(ctx context.Context, id model.RoomID, fn mutation) (*model.Room, error) {
	sess, err := s.open(ctx, id)
	if err != nil {
		return nil, err
	}
	defer sess.sem.Release(1)

	now := s.clock.Now()
	work := sess.room.Clone()

	changed, err := fn(work, now)
	if err != nil {
		return nil, err
	}

	if !changed {
		sess.room.LastActivityAt = now
		if err := s.storage.TouchRoom(ctx, id); err != nil {
			s.logger.Warn("failed to touch room",
				slog.String("room_id", string(id)),
				slog.String("error", err.Error()),
			)
		}
		return sess.room.Clone(), nil
	}

	work.Version++
	work.LastActivityAt = now

	if err := s.storage.SaveRoom(ctx, work); err != nil {
		return nil, fmt.Errorf("%w: save room: %v", model.ErrInternal, err)
	}

	sess.room = work
	s.notifier.RoomChanged(work)
	return work.Clone(), nil
}

// Get returns a snapshot copy of the room and records the read as activity
func (s *Store) Get(ctx context.Context, id model.RoomID) (*model.Room, error) {
	return s.Update(ctx, id, func(*model.Room, time.Time) (bool, error) {
		return false, nil
	})
}

// Evict removes a room from the store and from storage. Idempotent.
// Waits for any in-flight operation on the room to finish first.
func (s *Store) Evict(ctx context.Context, id model.RoomID) error {
	sh := s.shardFor(id)
	sess, _, err := s.acquire(ctx, sh, id)
	if err != nil {
		return err
	}
	defer sess.sem.Release(1)

	if sess.evicted {
		return nil
	}
	return s.remove(ctx, sh, id, sess)
}

// remove deletes the room from storage before unpublishing its session, so a
// later load cannot bring it back. Must be called while holding sess.sem.
func (s *Store) remove(ctx context.Context, sh *shard, id model.RoomID, sess *session) error {
	sess.evicted = true
	err := s.storage.DeleteRoom(ctx, id)
	sh.drop(id, sess)
	s.notifier.RoomClosed(id)
	if err != nil {
		return fmt.Errorf("%w: delete room: %v", model.ErrInternal, err)
	}
	return nil
}

// Sweep evicts rooms idle for longer than the configured TTL and returns how
// many were evicted. Rooms whose exclusive section is busy are skipped until
// the next sweep.
func (s *Store) Sweep(ctx context.Context) int {
	cutoff := s.clock.Now().Add(-s.cfg.RoomTTL)
	evicted := 0

	for _, sh := range s.shards {
		sh.mu.RLock()
		ids := make([]model.RoomID, 0, len(sh.sessions))
		sessions := make([]*session, 0, len(sh.sessions))
		for id, sess := range sh.sessions {
			ids = append(ids, id)
			sessions = append(sessions, sess)
		}
		sh.mu.RUnlock()

		for i, sess := range sessions {
			if !sess.sem.TryAcquire(1) {
				continue
			}
			// rooms still loading hold sem; dropped sessions have no room
			if !sess.evicted && sess.room != nil && sess.room.LastActivityAt.Before(cutoff) {
				if err := s.remove(ctx, sh, ids[i], sess); err != nil {
					s.logger.Warn("failed to delete evicted room from storage",
						slog.String("room_id", string(ids[i])),
						slog.String("error", err.Error()),
					)
				}
				evicted++
				s.logger.Info("room evicted",
					slog.String("room_id", string(ids[i])),
					slog.Time("last_activity", sess.room.LastActivityAt),
				)
			}
			sess.sem.Release(1)
		}
	}

	return evicted
}

// Run sweeps on every SweepInterval until ctx is cancelled
func (s *Store) Run(ctx context.Context) {
	interval := s.cfg.SweepInterval
	if interval <= 0 {
		interval = DefaultStoreConfig().SweepInterval
	}
	ticker := s.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			if n := s.Sweep(ctx); n > 0 {
				s.logger.Info("sweep complete", slog.Int("evicted", n), slog.Int("live", s.Len()))
			}
		}
	}
}

// Len returns the number of live rooms
func (s *Store) Len() int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		n += len(sh.sessions)
		sh.mu.RUnlock()
	}
	return n
}
