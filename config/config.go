package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultAPIBaseURL   = "http://localhost:8000"
	defaultAPITimeoutMS = 5000
	defaultServerPort   = 3000
	defaultCookieName   = "refclient_token"
	sessionKeyBytes     = 32
)

type Config struct {
	Env        string
	ServerPort int
	LogLevel   string
	StateDir   string
	API        APIConfig
	Session    SessionConfig
}

// APIConfig describes the remote referendum API.
type APIConfig struct {
	BaseURL string
	Timeout time.Duration
}

// SessionConfig controls how browsers keep their bearer token.
type SessionConfig struct {
	CookieName string
	// Key is the hex-encoded 32-byte secretbox key sealing the token cookie.
	// Empty means a random key per process.
	Key    string
	Secure bool
}

func LoadConfig() Config {
	if os.Getenv("ENV") == "dev" {
		godotenv.Load()
	}

	apiConfig := APIConfig{
		BaseURL: strings.TrimRight(getEnv("API_BASE_URL", defaultAPIBaseURL), "/"),
		Timeout: time.Duration(getEnvInt("API_TIMEOUT_MS", defaultAPITimeoutMS)) * time.Millisecond,
	}

	sessionConfig := SessionConfig{
		CookieName: getEnv("SESSION_COOKIE", defaultCookieName),
		Key:        getEnv("SESSION_KEY", ""),
		Secure:     getEnvBool("COOKIE_SECURE", false),
	}

	return Config{
		Env:        getEnv("ENV", "production"),
		ServerPort: getEnvInt("SERVER_PORT", defaultServerPort),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		StateDir:   getEnv("STATE_DIR", defaultStateDir()),
		API:        apiConfig,
		Session:    sessionConfig,
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid API_BASE_URL %q", c.API.BaseURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("API_BASE_URL must use http or https, got %q", u.Scheme)
	}
	if c.API.Timeout <= 0 {
		return errors.New("API_TIMEOUT_MS must be positive")
	}
	if c.ServerPort < 0 || c.ServerPort > 65535 {
		return fmt.Errorf("invalid SERVER_PORT %d", c.ServerPort)
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid LOG_LEVEL %q", c.LogLevel)
	}
	if strings.TrimSpace(c.Session.CookieName) == "" {
		return errors.New("SESSION_COOKIE must not be empty")
	}
	if c.Session.Key != "" {
		if _, err := c.Session.KeyBytes(); err != nil {
			return err
		}
	}
	return nil
}

// KeyBytes decodes the session key. It returns nil, nil when no key is set.
func (s SessionConfig) KeyBytes() ([]byte, error) {
	if s.Key == "" {
		return nil, nil
	}
	key, err := hex.DecodeString(s.Key)
	if err != nil {
		return nil, fmt.Errorf("SESSION_KEY must be hex: %w", err)
	}
	if len(key) != sessionKeyBytes {
		return nil, fmt.Errorf("SESSION_KEY must decode to %d bytes, got %d", sessionKeyBytes, len(key))
	}
	return key, nil
}

func defaultStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".refclient"
	}
	return filepath.Join(home, ".refclient")
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(key); exists {
		var value int
		fmt.Sscanf(valueStr, "%d", &value)
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if valueStr, exists := os.LookupEnv(key); exists {
		switch strings.ToLower(strings.TrimSpace(valueStr)) {
		case "1", "true", "yes", "on":
			return true
		case "0", "false", "no", "off":
			return false
		}
	}
	return defaultValue
}
