package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every environment driven setting. It is loaded once during
// boot and handed by reference to the components that need it; nothing else
// in the codebase reads the process environment.
type Config struct {
	Port    string
	GinMode string

	MongoURI    string
	MongoDBName string

	JWTSecret string
	TokenTTL  time.Duration

	AllowedOrigins []string

	// Redis backs the token blacklist; empty addr means in-memory fallback.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	RateLimitPerMinute int

	LogLevel      string
	LogPath       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
}

// Load reads .env (if present) and the environment into a Config.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:               getEnv("PORT", "5555"),
		GinMode:            getEnv("GIN_MODE", "debug"),
		MongoURI:           getEnv("MONGODB_URI", "mongodb://127.0.0.1:27017"),
		MongoDBName:        getEnv("MONGODB_DB", "blog"),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		TokenTTL:           getEnvDuration("TOKEN_TTL", 30*24*time.Hour),
		AllowedOrigins:     getEnvList("ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		RedisAddr:          os.Getenv("REDIS_ADDR"),
		RedisPassword:      os.Getenv("REDIS_PASSWORD"),
		RedisDB:            getEnvInt("REDIS_DB", 0),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogPath:            os.Getenv("LOG_PATH"),
		LogMaxSizeMB:       getEnvInt("LOG_MAX_SIZE_MB", 100),
		LogMaxBackups:      getEnvInt("LOG_MAX_BACKUPS", 3),
		LogMaxAgeDays:      getEnvInt("LOG_MAX_AGE_DAYS", 7),
	}

	if cfg.JWTSecret == "" {
		return nil, ErrMissingJWTSecret
	}
	return cfg, nil
}

// Release reports whether the process runs in a production-like mode, which
// controls how much internal error detail responses may carry.
func (c *Config) Release() bool {
	return c.GinMode == "release"
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getEnvList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
