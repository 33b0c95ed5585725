package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type InvalidationCfg struct {
	Enabled bool
	Brokers string
	Topic   string
	GroupID string
}

type Config struct {
	Addr            string
	LogLevel        string
	LogConsole      bool
	OverpassURL     string
	OverpassTimeout time.Duration
	TileRes         int
	CacheDriver     string // "lru" or "redis"
	CacheTTL        time.Duration
	CacheLRUSize    int
	RedisAddr       string
	PostgresDSN     string
	DEMDir          string
	MaxGridCells    int
	Invalidation    InvalidationCfg
}

func FromEnv() Config {
	res := getint("TILE_RES", 8)
	if res < 0 {
		res = 0
	}
	if res > 15 {
		res = 15
	}

	return Config{
		Addr:            getenv("ADDR", ":8090"),
		LogLevel:        getenv("LOG_LEVEL", "info"),
		LogConsole:      getbool("LOG_CONSOLE", false),
		OverpassURL:     getenv("OVERPASS_URL", "https://overpass-api.de/api/interpreter"),
		OverpassTimeout: getduration("OVERPASS_TIMEOUT", 180*time.Second),
		TileRes:         res,
		CacheDriver:     strings.ToLower(getenv("CACHE_DRIVER", "lru")),
		CacheTTL:        getduration("CACHE_TTL", 24*time.Hour),
		CacheLRUSize:    getint("CACHE_LRU_SIZE", 4096),
		RedisAddr:       getenv("REDIS_ADDR", "localhost:6379"),
		PostgresDSN:     getenv("POSTGRES_DSN", ""),
		DEMDir:          getenv("DEM_DIR", "data"),
		MaxGridCells:    getint("MAX_GRID_CELLS", 64_000_000),
		Invalidation: InvalidationCfg{
			Enabled: getbool("INVALIDATION_ENABLED", false),
			Brokers: getenv("KAFKA_BROKERS", "localhost:9092"),
			Topic:   getenv("KAFKA_TOPIC", "infra-invalidation"),
			GroupID: getenv("KAFKA_GROUP_ID", "tile-invalidator"),
		},
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "t", "true", "y", "yes":
			return true
		case "0", "f", "false", "n", "no":
			return false
		}
	}
	return def
}

func getduration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
