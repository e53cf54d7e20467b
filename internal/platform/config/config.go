package config

import (
	"os"
	"strings"
	"time"
)

// Config captures process-level configuration so main stays lean.
type Config struct {
	Addr        string
	PostgresDSN string
	RedisURL    string

	// PersonCacheTTL bounds how long directory lookups may be served from
	// the Redis cache before going back to the store.
	PersonCacheTTL time.Duration

	Broker Broker
}

// Broker configures the pub/sub connection the message bridge maintains.
type Broker struct {
	Seeds    []string
	GroupID  string
	ClientID string

	// ScanTopic is the inbound topic scanners publish attendance events to.
	ScanTopic string

	// ResponseTopic is the default reply topic for engine-triggered error
	// notifications. Message-triggered replies use the topic tag carried by
	// the inbound message instead.
	ResponseTopic string

	// Reconnect policy after connection loss. When the attempts are
	// exhausted the bridge stays disconnected and requires a restart.
	ReconnectAttempts int
	ReconnectInterval time.Duration
}

// FromEnv builds a Config from environment variables with dev defaults.
func FromEnv() Config {
	addr := os.Getenv("ROLLCALL_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	seeds := []string{"localhost:9092"}
	if v := os.Getenv("BROKER_SEEDS"); v != "" {
		seeds = strings.Split(v, ",")
	}

	groupID := os.Getenv("BROKER_GROUP_ID")
	if groupID == "" {
		groupID = "rollcall"
	}

	scanTopic := os.Getenv("BROKER_SCAN_TOPIC")
	if scanTopic == "" {
		scanTopic = "attendance"
	}

	responseTopic := os.Getenv("BROKER_RESPONSE_TOPIC")
	if responseTopic == "" {
		responseTopic = "response"
	}

	return Config{
		Addr:           addr,
		PostgresDSN:    os.Getenv("POSTGRES_DSN"),
		RedisURL:       os.Getenv("REDIS_URL"),
		PersonCacheTTL: 5 * time.Minute,
		Broker: Broker{
			Seeds:             seeds,
			GroupID:           groupID,
			ClientID:          os.Getenv("BROKER_CLIENT_ID"),
			ScanTopic:         scanTopic,
			ResponseTopic:     responseTopic,
			ReconnectAttempts: 5,
			ReconnectInterval: 5 * time.Second,
		},
	}
}
