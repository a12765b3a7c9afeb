package config

import "time"

// CacheConfig defines settings for the Redis response cache placed in front
// of the nearby-memo endpoint.  When Enabled is false or no Redis client is
// available the middleware passes requests straight through.  Methods lists
// the HTTP methods to cache, TTL bounds how stale a cached nearby result may
// be after a memo write, and MaxBodyBytes caps what is stored per entry.
type CacheConfig struct {
	Enabled      bool
	Methods      map[string]bool
	TTL          time.Duration
	KeyStrategy  string
	Prefix       string
	MaxBodyBytes int
}

// LoadCacheConfig reads CACHE_* variables.  Defaults keep entries short-lived
// because memo writes do not invalidate cached nearby pages.
func LoadCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:      envBool("CACHE_ENABLED", true),
		Methods:      parseMethods(envStr("CACHE_METHODS", "GET")),
		TTL:          envDur("CACHE_TTL", 15*time.Second),
		KeyStrategy:  envStr("CACHE_KEY_STRATEGY", "route_query"),
		Prefix:       envStr("CACHE_PREFIX", "placenote:cache"),
		MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
	}
}
