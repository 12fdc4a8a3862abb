package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Port          string
	DatabaseURL   string
	RedisURL      string
	RedisPassword string
	RedisDB       int
	EnableRedis   bool
	JWTSecret     string
	LogLevel      string
	LogFormat     string // json | console
	AdminUserIDs  []uuid.UUID

	Match struct {
		GuardMaxAttempts int           // optimistic attempts per transition
		PairLockTTL      time.Duration // redis pair lock expiry
		PairLockWait     time.Duration // max wait for a pair lock
	}
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Info().Msg("no .env file found, using system environment variables")
	}

	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	guardAttempts, _ := strconv.Atoi(getEnv("GUARD_MAX_ATTEMPTS", "3"))
	enableRedis, _ := strconv.ParseBool(getEnv("ENABLE_REDIS", "true"))

	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       redisDB,
		EnableRedis:   enableRedis,
		JWTSecret:     os.Getenv("JWT_SECRET"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFormat:     getEnv("LOG_FORMAT", "json"),
		AdminUserIDs:  getUUIDs("ADMIN_USER_IDS"),
	}

	if guardAttempts <= 0 {
		guardAttempts = 3
	}
	cfg.Match.GuardMaxAttempts = guardAttempts
	cfg.Match.PairLockTTL = getDuration("PAIR_LOCK_TTL", 5*time.Second)
	cfg.Match.PairLockWait = getDuration("PAIR_LOCK_WAIT", 3*time.Second)

	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDuration accepts Go durations ("500ms", "5s")
func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		log.Warn().Str("key", key).Str("value", value).Msg("invalid duration, using default")
		return defaultValue
	}
	return d
}

// getUUIDs comma separated ids, invalid entries are skipped
func getUUIDs(key string) []uuid.UUID {
	var ids []uuid.UUID
	for _, part := range strings.Split(os.Getenv(key), ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := uuid.Parse(part)
		if err != nil {
			log.Warn().Str("key", key).Str("value", part).Msg("invalid user id, skipped")
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
