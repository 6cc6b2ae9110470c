package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port      string
	DSN       string
	JWTSecret string
	JWTTTLHrs int
	Env       string

	// Redis backs both the per-room send lock and the cross-instance broker.
	RedisURL string

	// How long a send waits for the room lock, and how long the lease is
	// held if the holder dies. The lease must outlive the expected write
	// latency by a wide margin.
	LockWait  time.Duration
	LockLease time.Duration
}

func Load() *Config {
	_ = godotenv.Load()
	ttl, err := strconv.Atoi(getEnv("JWT_TTL_HOURS", "24"))
	if err != nil {
		ttl = 24
	}

	c := &Config{
		Port:      getEnv("PORT", "8080"),
		DSN:       mustEnv("DB_DSN"),
		JWTSecret: mustEnv("JWT_SECRET"),
		JWTTTLHrs: ttl,
		Env:       getEnv("ENV", "dev"),
		RedisURL:  getEnv("REDIS_URL", "redis://127.0.0.1:6379"),
		LockWait:  durationEnv("LOCK_WAIT_MS", 3000),
		LockLease: durationEnv("LOCK_LEASE_MS", 10000),
	}
	log.Printf("config loaded: env=%s port=%s", c.Env, c.Port)
	return c
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func mustEnv(k string) string {
	v := os.Getenv(k)
	if v == "" {
		log.Fatalf("missing env: %s", k)
	}
	return v
}

func durationEnv(k string, defMillis int) time.Duration {
	ms, err := strconv.Atoi(getEnv(k, strconv.Itoa(defMillis)))
	if err != nil || ms <= 0 {
		ms = defMillis
	}
	return time.Duration(ms) * time.Millisecond
}
