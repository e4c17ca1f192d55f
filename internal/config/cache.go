package config

import "time"

// CacheConfig tunes the Redis response cache in front of the public cinema
// listing.  Entries are purged whenever an admin approves a partner or
// archives a cinema, so TTL only bounds how long an idle listing lives.
type CacheConfig struct {
    Enabled      bool            // CACHE_ENABLED, default true
    Methods      map[string]bool // CACHE_METHODS, default GET
    TTL          time.Duration   // CACHE_TTL, default 2m
    KeyStrategy  string          // route | route_query | method_route | method_route_query
    Prefix       string          // CACHE_PREFIX, every key and Purge live under it
    MaxBodyBytes int             // larger responses are served but not stored
}

// LoadCacheConfig reads the CACHE_* variables.
func LoadCacheConfig() CacheConfig {
    cfg := CacheConfig{
        Enabled:      envBool("CACHE_ENABLED", true),
        Methods:      envSet("CACHE_METHODS", "GET"),
        TTL:          envDur("CACHE_TTL", 2*time.Minute),
        KeyStrategy:  envStr("CACHE_KEY_STRATEGY", "route_query"),
        Prefix:       envStr("CACHE_PREFIX", "popcornon:cache"),
        MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
    }
    if cfg.TTL <= 0 {
        cfg.Enabled = false
    }
    if cfg.MaxBodyBytes < 0 {
        cfg.MaxBodyBytes = 0
    }
    return cfg
}
