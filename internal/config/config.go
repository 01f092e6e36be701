package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultImages must stay in sync with the client's public/img directory.
var DefaultImages = []string{
	"dance.png",
	"eagle.png",
	"garland.png",
	"gate.png",
	"half-moon.png",
	"parivrtta-trikonasana.png",
	"vrksasana.png",
	"warrior-I.png",
	"warrior-II.png",
	"bigtoepose.jpg",
	"chairpose.jpg",
}

type Config struct {
	Port              string
	DatabaseURL       string
	NatsURL           string
	NatsSubjectPrefix string
	TotalRounds       int
	MinRoundDuration  int // seconds
	MaxRoundDuration  int // seconds
	Images            []string
	SendBuffer        int
	WriteTimeout      time.Duration
	MessageRate       float64 // inbound messages per second per connection
	MessageBurst      int
	AllowedOrigins    []string // host patterns accepted on the WebSocket upgrade
	LogLevel          string
	LogFormat         string
}

// Load reads an optional .env file and then the process environment.
func Load() Config {
	// A missing .env is the normal case in production.
	_ = godotenv.Load()

	cfg := Config{
		Port:              getEnv("PORT", "8080"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		NatsURL:           os.Getenv("NATS_URL"),
		NatsSubjectPrefix: getEnv("NATS_SUBJECT_PREFIX", "poseparty"),
		TotalRounds:       getEnvInt("TOTAL_ROUNDS", 7),
		MinRoundDuration:  getEnvInt("MIN_ROUND_DURATION", 10),
		MaxRoundDuration:  getEnvInt("MAX_ROUND_DURATION", 20),
		Images:            getEnvList("IMAGE_NAMES", DefaultImages),
		SendBuffer:        getEnvInt("SEND_BUFFER", 16),
		WriteTimeout:      getEnvDuration("WRITE_TIMEOUT", 5*time.Second),
		MessageRate:       getEnvFloat("MESSAGE_RATE", 20),
		MessageBurst:      getEnvInt("MESSAGE_BURST", 40),
		AllowedOrigins:    getEnvList("ALLOWED_ORIGINS", []string{"*"}),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFormat:         getEnv("LOG_FORMAT", "console"),
	}
	return cfg
}

// Validate rejects configurations that would break a game mid-play, such as
// more rounds than distinct images.
func (c Config) Validate() error {
	if c.TotalRounds < 1 {
		return fmt.Errorf("TOTAL_ROUNDS must be positive, got %d", c.TotalRounds)
	}
	distinct := len(dedupe(c.Images))
	if distinct == 0 {
		return errors.New("IMAGE_NAMES must not be empty")
	}
	if c.TotalRounds > distinct {
		return fmt.Errorf("TOTAL_ROUNDS (%d) exceeds the distinct image pool (%d)", c.TotalRounds, distinct)
	}
	if c.MinRoundDuration < 1 || c.MaxRoundDuration < c.MinRoundDuration {
		return fmt.Errorf("invalid round duration range [%d, %d]", c.MinRoundDuration, c.MaxRoundDuration)
	}
	if c.SendBuffer < 1 {
		return fmt.Errorf("SEND_BUFFER must be positive, got %d", c.SendBuffer)
	}
	if c.WriteTimeout <= 0 {
		return fmt.Errorf("WRITE_TIMEOUT must be positive, got %s", c.WriteTimeout)
	}
	if c.MessageRate > 0 && c.MessageBurst < 1 {
		return fmt.Errorf("MESSAGE_BURST must be at least 1 when MESSAGE_RATE is set, got %d", c.MessageBurst)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return append([]string(nil), fallback...)
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return dedupe(out)
}

// dedupe keeps the first occurrence of each item, preserving order.
func dedupe(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}
