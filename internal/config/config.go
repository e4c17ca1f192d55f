package config // package config loads application configuration from environment variables

import (
    "log" // log is used to report configuration errors and halt execution
    "os"  // os provides access to environment variables
    "time"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Database settings are optional: when DB_HOST is
// empty the server runs against the in-memory dashboard source.
type Config struct {
    Env        string        // application environment (e.g. "dev", "prod")
    Port       string        // HTTP port to listen on
    DBUser     string        // database username
    DBPass     string        // database password (optional)
    DBHost     string        // database host address, empty disables MySQL
    DBPort     string        // database port number
    DBName     string        // database name
    JWTSecret  string        // secret used to sign JWTs
    AccessTTL  time.Duration // access token lifetime
    RefreshTTL time.Duration // refresh token lifetime
    BcryptCost int           // bcrypt cost for password hashing
    LogLevel   string        // zerolog level name
    LogFormat  string        // "console" or "json"
}

// HasDB reports whether MySQL settings were provided.
func (c Config) HasDB() bool { return c.DBHost != "" }

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
    cfg := Config{
        Env:        envStr("APP_ENV", "dev"),                         // environment (dev/test/prod)
        Port:       envStr("APP_PORT", "8080"),                       // port to bind the HTTP server
        DBUser:     envStr("DB_USER", "root"),                        // database user
        DBPass:     os.Getenv("DB_PASS"),                             // database password (empty allowed)
        DBHost:     os.Getenv("DB_HOST"),                             // database host
        DBPort:     envStr("DB_PORT", "3306"),                        // database port
        DBName:     envStr("DB_NAME", "popcornon"),                   // database name
        JWTSecret:  must("JWT_SECRET"),                               // secret used for signing JWTs
        AccessTTL:  envDur("ACCESS_TOKEN_TTL", 15*time.Minute),       // TTL for access tokens
        RefreshTTL: envDur("REFRESH_TOKEN_TTL", 7*24*time.Hour),      // TTL for refresh tokens
        BcryptCost: envInt("BCRYPT_COST", 12),                        // bcrypt cost factor
        LogLevel:   envStr("LOG_LEVEL", "info"),
        LogFormat:  envStr("LOG_FORMAT", "console"),
    }
    // older deployments configured the TTLs as whole minutes / days
    if m := envInt("ACCESS_TOKEN_TTL_MIN", 0); m > 0 {
        cfg.AccessTTL = time.Duration(m) * time.Minute
    }
    if d := envInt("REFRESH_TOKEN_TTL_DAYS", 0); d > 0 {
        cfg.RefreshTTL = time.Duration(d) * 24 * time.Hour
    }
    return cfg
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
    v, ok := os.LookupEnv(key)
    if !ok || v == "" {
        log.Fatalf("missing required env var: %s", key)
    }
    return v
}
