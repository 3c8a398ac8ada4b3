// Package config provides environment configuration for the book reader.
package config

import (
	"errors"
	"os"

	"github.com/joho/godotenv"
)

// Default endpoints for the PlayAI voice platform.
const (
	DefaultAPIBaseURL    = "https://api.play.ai/api/v1"
	DefaultTTSBaseURL    = "https://api.play.ai/v1"
	DefaultSocketBaseURL = "wss://api.play.ai/v1/talk"
	DefaultListenAddr    = ":8080"
)

// Config holds the service configuration, assembled from the environment.
type Config struct {
	// APIKey is the PlayAI API credential (PLAYAI_API_KEY).
	APIKey string

	// UserID is the PlayAI account identifier (PLAYAI_USER_ID).
	UserID string

	// APIBaseURL is the agent-management endpoint base.
	APIBaseURL string

	// TTSBaseURL is the speech-synthesis endpoint base.
	TTSBaseURL string

	// SocketBaseURL is the voice WebSocket endpoint base.
	SocketBaseURL string

	// ListenAddr is the HTTP server listen address.
	ListenAddr string

	// LogLevel is one of debug, info, warn, error.
	LogLevel string
}

// ErrMissingCredentials indicates the API key or user ID is not set.
var ErrMissingCredentials = errors.New("config: PLAYAI_API_KEY and PLAYAI_USER_ID are required")

// Load reads configuration from the environment. A .env file in the working
// directory is honored when present but is not required.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		APIKey:        os.Getenv("PLAYAI_API_KEY"),
		UserID:        os.Getenv("PLAYAI_USER_ID"),
		APIBaseURL:    envOr("PLAYAI_API_URL", DefaultAPIBaseURL),
		TTSBaseURL:    envOr("PLAYAI_TTS_URL", DefaultTTSBaseURL),
		SocketBaseURL: envOr("PLAYAI_SOCKET_URL", DefaultSocketBaseURL),
		ListenAddr:    envOr("LISTEN_ADDR", DefaultListenAddr),
		LogLevel:      envOr("LOG_LEVEL", "info"),
	}
}

// Validate checks that authenticated operations can be performed.
func (c Config) Validate() error {
	if c.APIKey == "" || c.UserID == "" {
		return ErrMissingCredentials
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
