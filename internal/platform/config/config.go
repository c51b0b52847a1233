package config

import (
	"os"
	"strconv"
	"strings"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName string
	HTTPPort    string
	PostgresDSN string
	BusBrokers  []string

	BroadcastTopic         string
	SequencerQueueDepth    int
	VerifySecondPublicKey  bool
	EnableBroadcastRelay   bool
	EnableIdempotencySweep bool
}

func Load() (Config, error) {
	service := os.Getenv("SERVICE_NAME")
	if service == "" {
		service = "votary"
	}

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}

	var brokers []string
	for _, value := range strings.Split(os.Getenv("BUS_BROKERS"), ",") {
		value = strings.TrimSpace(value)
		if value != "" {
			brokers = append(brokers, value)
		}
	}
	if len(brokers) == 0 {
		brokers = []string{"localhost:9092"}
	}

	topic := strings.TrimSpace(os.Getenv("BROADCAST_TOPIC"))
	if topic == "" {
		topic = "transactions.vote.accepted"
	}

	return Config{
		ServiceName: service,
		HTTPPort:    port,
		PostgresDSN: os.Getenv("POSTGRES_DSN"),
		BusBrokers:  brokers,

		BroadcastTopic:         topic,
		SequencerQueueDepth:    envInt("SEQUENCER_QUEUE_DEPTH", 64),
		VerifySecondPublicKey:  envBool("VERIFY_SECOND_PUBLIC_KEY", false),
		EnableBroadcastRelay:   envBool("ENABLE_BROADCAST_RELAY", true),
		EnableIdempotencySweep: envBool("ENABLE_IDEMPOTENCY_SWEEP", true),
	}, nil
}

func envBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return fallback
	}
}

func envInt(name string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}
