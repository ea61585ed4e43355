package config

import (
	"strings"
	"time"
)

// RedisConfig contains Redis configuration.
type RedisConfig struct {
	URI                string   `env:"URI"                  envDefault:"localhost:6379"`
	Password           string   `env:"PASSWORD"             envDefault:""`
	DB                 int      `env:"DB"                   envDefault:"0"`
	SentinelNodes      []string `env:"SENTINEL_NODES"       envDefault:"localhost:26379"`
	SentinelMasterName string   `env:"SENTINEL_MASTER_NAME" envDefault:"mymaster"`
	SentinelPassword   string   `env:"SENTINEL_PASSWORD"    envDefault:""`
	UseSentinel        bool     `env:"USE_SENTINEL"         envDefault:"false"`
	ClusterNodes       []string `env:"CLUSTER_NODES"        envDefault:""`
	UseCluster         bool     `env:"USE_CLUSTER"          envDefault:"false"`
}

// CacheBackend selects where cached API responses live.
type CacheBackend string

const (
	// CacheBackendMemory keeps entries in a process-local LRU.
	CacheBackendMemory CacheBackend = "memory"
	// CacheBackendRedis shares entries through Redis.
	CacheBackendRedis CacheBackend = "redis"
)

// CacheConfig controls caching of dashboard statistics.
type CacheConfig struct {
	Enabled bool         `env:"CACHE_ENABLED" envDefault:"false"`
	Backend CacheBackend `env:"CACHE_BACKEND" envDefault:"memory"`

	// StatsTTL is how long statistics responses stay cached.
	StatsTTL time.Duration `env:"CACHE_STATS_TTL" envDefault:"1m"`

	// LocalCapacity bounds the in-memory LRU.
	LocalCapacity int `env:"CACHE_LOCAL_CAPACITY" envDefault:"256"`
}

// Sanitize applies guardrails to cache configuration values.
func (c *CacheConfig) Sanitize() {
	switch CacheBackend(strings.ToLower(strings.TrimSpace(string(c.Backend)))) {
	case CacheBackendRedis:
		c.Backend = CacheBackendRedis
	default:
		c.Backend = CacheBackendMemory
	}
	if c.StatsTTL <= 0 {
		c.StatsTTL = time.Minute
	}
	if c.LocalCapacity <= 0 {
		c.LocalCapacity = 256
	}
}

// UsesRedis reports whether a Redis connection is needed.
func (c *CacheConfig) UsesRedis() bool {
	return c.Enabled && c.Backend == CacheBackendRedis
}
