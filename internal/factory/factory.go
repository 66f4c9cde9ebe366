package factory

import (
	"errors"
	"io"
	"log/slog"

	"github.com/mcoot/votingroom/internal/api/events"
	"github.com/mcoot/votingroom/internal/dependencies/clock"
	"github.com/mcoot/votingroom/internal/dependencies/random"
	"github.com/mcoot/votingroom/internal/services/order"
	"github.com/mcoot/votingroom/internal/services/room"
	"github.com/mcoot/votingroom/internal/storage"
	"github.com/mcoot/votingroom/internal/storage/memory"
	redisstorage "github.com/mcoot/votingroom/internal/storage/redis"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	OrderGenerator *order.Generator
	RoomStore      *room.Store
	RoomController *room.Controller

	// Hubs fans committed room changes out to event streams
	Hubs *events.HubManager
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// StoreConfig sizes the room store. Zero fields fall back to defaults.
	StoreConfig room.StoreConfig
	// MinPlayers is the default minimum players to start voting
	MinPlayers int
	// OrderMode selects random or seeded player orders
	OrderMode order.Mode
	// OrderSecret keys seeded player orders
	OrderSecret []byte
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	// Create storage based on type
	var store storage.Storage
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	return newWithDependencies(store, clock.New(), random.New(), cfg, logger), nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.Storage, clk clock.Clock, rnd random.Random, cfg Config, logger *slog.Logger) *App {
	storeCfg := withDefaults(cfg.StoreConfig)
	mode := cfg.OrderMode
	if mode == "" {
		mode = order.ModeRandom
	}

	orders := order.New(mode, rnd, cfg.OrderSecret)
	roomStore := room.NewStore(store, clk, storeCfg, logger)
	hubs := events.NewHubManager(logger)
	roomStore.SetNotifier(events.NewBroadcaster(hubs, logger))
	roomController := room.NewController(roomStore, orders, clk, rnd, cfg.MinPlayers)

	return &App{
		Storage:        store,
		Clock:          clk,
		Random:         rnd,
		OrderGenerator: orders,
		RoomStore:      roomStore,
		RoomController: roomController,
		Hubs:           hubs,
	}
}

// Close ends open event streams and releases storage resources held by the app
func (a *App) Close() error {
	a.Hubs.Close()
	if c, ok := a.Storage.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func withDefaults(cfg room.StoreConfig) room.StoreConfig {
	def := room.DefaultStoreConfig()
	if cfg.Shards <= 0 {
		cfg.Shards = def.Shards
	}
	if cfg.RoomTTL <= 0 {
		cfg.RoomTTL = def.RoomTTL
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = def.SweepInterval
	}
	return cfg
}
