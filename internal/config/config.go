package config

import (
	"crypto/rand"
	"encoding/base64"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port         string
	Env          string // deployment marker; "production" disables the implicit admin default
	DataDir      string
	DBPath       string
	AdminDir     string
	StaticDir    string
	SessionKey   []byte
	CookieSecure bool

	// AdminEnabled gates the whole admin surface. Explicitly enabled via
	// ADMIN_ACCESS_ENABLED=true, or implicitly on outside production.
	AdminEnabled bool

	// Admin rate limit: RateLimit requests per RateWindow per caller.
	RateWindow time.Duration
	RateLimit  int
}

func LoadConfig() (*Config, error) {
	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("Failed to load .env file", "error", err)
	}

	cfg := &Config{
		Port:         getEnv("PORT", "5506"),
		Env:          getEnv("ENV", "development"),
		DataDir:      getEnv("DATA_DIR", "./data"),
		DBPath:       getEnv("DB_PATH", "./shop.db"),
		AdminDir:     getEnv("ADMIN_DIR", "./admin"),
		StaticDir:    getEnv("STATIC_DIR", "./static"),
		CookieSecure: getEnv("COOKIE_SECURE", "false") == "true",
		RateWindow:   5 * time.Minute,
		RateLimit:    50,
	}

	cfg.AdminEnabled = os.Getenv("ADMIN_ACCESS_ENABLED") == "true" || cfg.Env != "production"
	if cfg.Env == "production" && !cfg.AdminEnabled {
		slog.Warn("Admin access disabled in production (ADMIN_ACCESS_ENABLED != true)")
	}

	// Session Key (critical for security)
	sessionKeyStr := os.Getenv("SESSION_KEY")
	if sessionKeyStr == "" {
		slog.Warn("SESSION_KEY environment variable not set. Generating a random key for development. Sessions will be invalid on restart. PLEASE SET SESSION_KEY IN PRODUCTION!")
		cfg.SessionKey = generateRandomBytes(32)
	} else {
		decodedKey, err := base64.StdEncoding.DecodeString(sessionKeyStr)
		if err != nil || len(decodedKey) < 32 {
			slog.Warn("SESSION_KEY is invalid or too short (min 32 bytes recommended). Generating a random key for development. PLEASE SET A SECURE SESSION_KEY IN PRODUCTION!")
			cfg.SessionKey = generateRandomBytes(32)
		} else {
			cfg.SessionKey = decodedKey
		}
	}

	// Make sure port is valid
	if _, err := strconv.Atoi(cfg.Port); err != nil {
		slog.Error("Invalid PORT environment variable. Falling back to default.", "PORT", os.Getenv("PORT"))
		cfg.Port = "5506"
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// generateRandomBytes generates a random byte slice of specified length
// Uses crypto/rand for secure random numbers.
func generateRandomBytes(n int) []byte {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		slog.Error("Failed to read random bytes", "error", err)
		// Fallback only prevents a panic; not for production use.
		fallbackKey := "fallback-insecure-key-" + strconv.FormatInt(time.Now().UnixNano(), 10)
		if len(fallbackKey) < n {
			paddedKey := make([]byte, n)
			copy(paddedKey, fallbackKey)
			return paddedKey
		}
		return []byte(fallbackKey)[:n]
	}
	return b
}
