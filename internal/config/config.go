package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage drivers supported by the durable store.
const (
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
)

// Config holds application level configuration loaded from environment and flags.
type Config struct {
	RunAddress      string
	StorageDriver   string
	DatabaseURI     string
	SQLitePath      string
	LogLevel        string
	ShutdownTimeout time.Duration

	CycleInterval   time.Duration
	ErrorBackoff    time.Duration
	MinStep         int
	MaxStep         int
	MinPause        time.Duration
	MaxPause        time.Duration
	RandomSeed      uint64
	RecoverStranded bool

	StatsSchedule    string
	CatalogCacheSize int

	KafkaBrokers []string
	KafkaTopic   string
}

const (
	defaultRunAddress       = ":8080"
	defaultStorageDriver    = StorageSQLite
	defaultSQLitePath       = "data/smm_database.db"
	defaultLogLevel         = "info"
	defaultShutdownTimeout  = 10 * time.Second
	defaultCycleInterval    = 5 * time.Second
	defaultErrorBackoff     = 10 * time.Second
	defaultMinStep          = 5
	defaultMaxStep          = 15
	defaultMinPause         = 500 * time.Millisecond
	defaultMaxPause         = 2 * time.Second
	defaultStatsSchedule    = "@every 30s"
	defaultCatalogCacheSize = 64
	defaultKafkaTopic       = "order-events"
)

// Load reads an optional .env file, then parses configuration from flags and
// environment variables.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return load(os.Args[1:], os.LookupEnv)
}

type envLookup func(string) (string, bool)

func load(args []string, lookup envLookup) (*Config, error) {
	env := envReader{lookup: lookup}
	cfg := &Config{
		RunAddress:       env.string("RUN_ADDRESS", defaultRunAddress),
		StorageDriver:    env.string("STORAGE_DRIVER", defaultStorageDriver),
		DatabaseURI:      env.string("DATABASE_URI", ""),
		SQLitePath:       env.string("SQLITE_PATH", defaultSQLitePath),
		LogLevel:         env.string("LOG_LEVEL", defaultLogLevel),
		ShutdownTimeout:  env.duration("SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
		CycleInterval:    env.duration("CYCLE_INTERVAL", defaultCycleInterval),
		ErrorBackoff:     env.duration("ERROR_BACKOFF", defaultErrorBackoff),
		MinStep:          env.int("PROGRESS_MIN_STEP", defaultMinStep),
		MaxStep:          env.int("PROGRESS_MAX_STEP", defaultMaxStep),
		MinPause:         env.duration("PROGRESS_MIN_PAUSE", defaultMinPause),
		MaxPause:         env.duration("PROGRESS_MAX_PAUSE", defaultMaxPause),
		RandomSeed:       env.uint("RANDOM_SEED", 0),
		RecoverStranded:  env.bool("RECOVER_STRANDED", true),
		StatsSchedule:    env.string("STATS_SCHEDULE", defaultStatsSchedule),
		CatalogCacheSize: env.int("CATALOG_CACHE_SIZE", defaultCatalogCacheSize),
		KafkaBrokers:     splitList(env.string("KAFKA_BROKERS", "")),
		KafkaTopic:       env.string("KAFKA_TOPIC", defaultKafkaTopic),
	}
	if err := errors.Join(env.errs...); err != nil {
		return nil, err
	}

	fs := flag.NewFlagSet("smmpanel", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		shutdownTimeoutStr = cfg.ShutdownTimeout.String()
		cycleIntervalStr   = cfg.CycleInterval.String()
		errorBackoffStr    = cfg.ErrorBackoff.String()
		minPauseStr        = cfg.MinPause.String()
		maxPauseStr        = cfg.MaxPause.String()
		kafkaBrokersStr    = strings.Join(cfg.KafkaBrokers, ",")
	)

	fs.StringVar(&cfg.RunAddress, "a", cfg.RunAddress, "HTTP server listen address")
	fs.StringVar(&cfg.StorageDriver, "storage", cfg.StorageDriver, "Storage driver: sqlite or postgres")
	fs.StringVar(&cfg.DatabaseURI, "d", cfg.DatabaseURI, "PostgreSQL DSN")
	fs.StringVar(&cfg.SQLitePath, "sqlite-path", cfg.SQLitePath, "SQLite database file")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error")
	fs.StringVar(&shutdownTimeoutStr, "shutdown-timeout", shutdownTimeoutStr, "Graceful shutdown timeout")
	fs.StringVar(&cycleIntervalStr, "cycle-interval", cycleIntervalStr, "Delay between engine cycles")
	fs.StringVar(&errorBackoffStr, "error-backoff", errorBackoffStr, "Delay after a failed engine cycle")
	fs.IntVar(&cfg.MinStep, "min-step", cfg.MinStep, "Minimum progress step")
	fs.IntVar(&cfg.MaxStep, "max-step", cfg.MaxStep, "Maximum progress step")
	fs.StringVar(&minPauseStr, "min-pause", minPauseStr, "Minimum pause between checkpoints")
	fs.StringVar(&maxPauseStr, "max-pause", maxPauseStr, "Maximum pause between checkpoints")
	fs.Uint64Var(&cfg.RandomSeed, "seed", cfg.RandomSeed, "Seed for progress randomness, 0 means time based")
	fs.BoolVar(&cfg.RecoverStranded, "recover-stranded", cfg.RecoverStranded, "Resume processing orders on startup")
	fs.StringVar(&cfg.StatsSchedule, "stats-schedule", cfg.StatsSchedule, "Cron spec of the order statistics job")
	fs.IntVar(&cfg.CatalogCacheSize, "catalog-cache", cfg.CatalogCacheSize, "Service catalog cache size")
	fs.StringVar(&kafkaBrokersStr, "kafka-brokers", kafkaBrokersStr, "Comma separated Kafka brokers for order events")
	fs.StringVar(&cfg.KafkaTopic, "kafka-topic", cfg.KafkaTopic, "Kafka topic for order events")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	var err error

	if cfg.ShutdownTimeout, err = time.ParseDuration(shutdownTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid shutdown timeout: %w", err)
	}
	if cfg.CycleInterval, err = time.ParseDuration(cycleIntervalStr); err != nil {
		return nil, fmt.Errorf("invalid cycle interval: %w", err)
	}
	if cfg.ErrorBackoff, err = time.ParseDuration(errorBackoffStr); err != nil {
		return nil, fmt.Errorf("invalid error backoff: %w", err)
	}
	if cfg.MinPause, err = time.ParseDuration(minPauseStr); err != nil {
		return nil, fmt.Errorf("invalid min pause: %w", err)
	}
	if cfg.MaxPause, err = time.ParseDuration(maxPauseStr); err != nil {
		return nil, fmt.Errorf("invalid max pause: %w", err)
	}
	cfg.KafkaBrokers = splitList(kafkaBrokersStr)

	cfg.normalize()

	switch cfg.StorageDriver {
	case StorageSQLite:
		if cfg.SQLitePath == "" {
			return nil, fmt.Errorf("sqlite path must be provided")
		}
	case StoragePostgres:
		if cfg.DatabaseURI == "" {
			return nil, fmt.Errorf("database URI must be provided for postgres storage")
		}
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}

	return cfg, nil
}

func (cfg *Config) normalize() {
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}
	if cfg.CycleInterval <= 0 {
		cfg.CycleInterval = defaultCycleInterval
	}
	if cfg.ErrorBackoff <= 0 {
		cfg.ErrorBackoff = defaultErrorBackoff
	}
	if cfg.MinStep <= 0 {
		cfg.MinStep = defaultMinStep
	}
	if cfg.MaxStep < cfg.MinStep {
		cfg.MaxStep = cfg.MinStep
	}
	if cfg.MinPause < 0 {
		cfg.MinPause = 0
	}
	if cfg.MaxPause < cfg.MinPause {
		cfg.MaxPause = cfg.MinPause
	}
	// Zero disables the catalog cache.
	if cfg.CatalogCacheSize < 0 {
		cfg.CatalogCacheSize = 0
	}
	if cfg.StatsSchedule == "" {
		cfg.StatsSchedule = defaultStatsSchedule
	}
	if cfg.KafkaTopic == "" {
		cfg.KafkaTopic = defaultKafkaTopic
	}
}

// envReader reads typed values from the environment and remembers every
// value that failed to parse.
type envReader struct {
	lookup envLookup
	errs   []error
}

func (r *envReader) raw(key string) (string, bool) {
	v, ok := r.lookup(key)
	return v, ok && v != ""
}

func (r *envReader) fail(key, v string, err error) {
	r.errs = append(r.errs, fmt.Errorf("invalid %s %q: %w", key, v, err))
}

func (r *envReader) string(key, def string) string {
	if v, ok := r.raw(key); ok {
		return v
	}
	return def
}

func (r *envReader) int(key string, def int) int {
	v, ok := r.raw(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.fail(key, v, err)
		return def
	}
	return n
}

func (r *envReader) uint(key string, def uint64) uint64 {
	v, ok := r.raw(key)
	if !ok {
		return def
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		r.fail(key, v, err)
		return def
	}
	return n
}

func (r *envReader) bool(key string, def bool) bool {
	v, ok := r.raw(key)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.fail(key, v, err)
		return def
	}
	return b
}

func (r *envReader) duration(key string, def time.Duration) time.Duration {
	v, ok := r.raw(key)
	if !ok {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.fail(key, v, err)
		return def
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
