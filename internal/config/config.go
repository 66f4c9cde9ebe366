package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/mcoot/votingroom/internal/services/order"
)

// EnvPrefix is prepended to every flag name to form its environment variable
const EnvPrefix = "VOTINGROOM"

// Storage backends
const (
	StorageMemory = "memory"
	StorageRedis  = "redis"
)

// Config holds server configuration
type Config struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	LogLevel        string

	Storage  string
	RedisURL string

	RoomTTL       time.Duration
	SweepInterval time.Duration
	Shards        int
	MinPlayers    int

	OrderMode   string
	OrderSecret string

	RateLimit  float64
	RateBurst  int
	CORSOrigin string
}

// Validate rejects unusable option combinations
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.Port)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}

	switch c.Storage {
	case StorageMemory:
	case StorageRedis:
		if c.RedisURL == "" {
			return errors.New("--redis-url is required when --storage=redis")
		}
	default:
		return fmt.Errorf("invalid storage %q (must be memory or redis)", c.Storage)
	}

	if c.RoomTTL <= 0 {
		return errors.New("--room-ttl must be positive")
	}
	if c.SweepInterval <= 0 {
		return errors.New("--sweep-interval must be positive")
	}
	if c.Shards < 1 {
		return errors.New("--shards must be at least 1")
	}
	if c.MinPlayers < 1 {
		return errors.New("--min-players must be at least 1")
	}

	mode, err := order.ParseMode(c.OrderMode)
	if err != nil {
		return err
	}
	if mode == order.ModeSeeded && c.OrderSecret == "" {
		return errors.New("--order-secret is required when --order-mode=seeded")
	}
	if len(c.OrderSecret) > 64 {
		return errors.New("--order-secret must be at most 64 bytes")
	}

	if c.RateLimit < 0 || c.RateBurst < 0 {
		return errors.New("--rate-limit and --rate-burst must not be negative")
	}
	return nil
}

// ParseLevel converts a log level name into a slog.Level
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return level, fmt.Errorf("invalid log level %q (must be debug, info, warn or error)", s)
	}
	return level, nil
}

// NewCommand builds the server command. run is invoked with a validated config.
func NewCommand(cfg *Config, run func(ctx context.Context, cfg *Config) error) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:   "votingroom",
		Short: "Serves shared voting rooms over a JSON HTTP API.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	fs := cmd.Flags()
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.Host, "host", "b", "", "address to bind to (env: VOTINGROOM_HOST)")
	fs.IntVarP(&cfg.Port, "port", "p", 8080, "port to listen on (env: VOTINGROOM_PORT)")
	fs.DurationVar(&cfg.ReadTimeout, "read-timeout", 15*time.Second, "HTTP read timeout (env: VOTINGROOM_READ_TIMEOUT)")
	fs.DurationVar(&cfg.WriteTimeout, "write-timeout", 15*time.Second, "HTTP write timeout (env: VOTINGROOM_WRITE_TIMEOUT)")
	fs.DurationVar(&cfg.IdleTimeout, "idle-timeout", 60*time.Second, "HTTP keep-alive idle timeout (env: VOTINGROOM_IDLE_TIMEOUT)")
	fs.DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout", 30*time.Second, "graceful shutdown timeout (env: VOTINGROOM_SHUTDOWN_TIMEOUT)")
	fs.StringVar(&cfg.LogLevel, "log-level", "info", "debug, info, warn or error (env: VOTINGROOM_LOG_LEVEL)")
	fs.StringVar(&cfg.Storage, "storage", StorageMemory, "room storage backend: memory or redis (env: VOTINGROOM_STORAGE)")
	fs.StringVar(&cfg.RedisURL, "redis-url", "", "redis connection URL (env: VOTINGROOM_REDIS_URL)")
	fs.DurationVar(&cfg.RoomTTL, "room-ttl", 2*time.Hour, "time before idle rooms are evicted (env: VOTINGROOM_ROOM_TTL)")
	fs.DurationVar(&cfg.SweepInterval, "sweep-interval", time.Minute, "how often idle rooms are swept (env: VOTINGROOM_SWEEP_INTERVAL)")
	fs.IntVar(&cfg.Shards, "shards", 32, "number of room store shards (env: VOTINGROOM_SHARDS)")
	fs.IntVar(&cfg.MinPlayers, "min-players", 1, "default minimum players needed to start voting (env: VOTINGROOM_MIN_PLAYERS)")
	fs.StringVar(&cfg.OrderMode, "order-mode", string(order.ModeRandom), "player order generation: random or seeded (env: VOTINGROOM_ORDER_MODE)")
	fs.StringVar(&cfg.OrderSecret, "order-secret", "", "key for seeded order generation (env: VOTINGROOM_ORDER_SECRET)")
	fs.Float64Var(&cfg.RateLimit, "rate-limit", 20, "requests per second allowed per caller, 0 disables (env: VOTINGROOM_RATE_LIMIT)")
	fs.IntVar(&cfg.RateBurst, "rate-burst", 40, "request burst allowed per caller (env: VOTINGROOM_RATE_BURST)")
	fs.StringVar(&cfg.CORSOrigin, "cors-origin", "*", "allowed CORS origin, empty disables (env: VOTINGROOM_CORS_ORIGIN)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
