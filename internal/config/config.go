package config

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

type Config struct {
	Port         string `env:"PORT,default=8585"`
	BaseURL      string `env:"BASE_URL,default=http://localhost:8585"`
	LogLevel     string `env:"LOG_LEVEL,default=info"`
	LogFormat    string `env:"LOG_FORMAT,default=text"`
	StaticDir    string `env:"STATIC_DIR,default=./static"`
	CookieDomain string `env:"COOKIE_DOMAIN"`
	CookieSecure bool   `env:"COOKIE_SECURE,default=false"`

	DBDriver string `env:"DB_DRIVER,default=sqlite"`
	DBDSN    string `env:"DB_DSN,default=file:shop2host.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"`

	SessionBackend       string        `env:"SESSION_BACKEND,default=sql"`
	SessionTTL           time.Duration `env:"SESSION_TTL,default=24h"`
	SessionPurgeInterval time.Duration `env:"SESSION_PURGE_INTERVAL,default=15m"`
	RedisAddr            string        `env:"REDIS_ADDR,default=localhost:6379"`
	RedisPassword        string        `env:"REDIS_PASSWORD"`
	RedisDB              int           `env:"REDIS_DB,default=0"`

	MailHost string `env:"MAIL_HOST"`
	MailPort int    `env:"MAIL_PORT,default=587"`
	MailUser string `env:"EMAIL"`
	MailPass string `env:"EMAIL_PASS"`
	MailFrom string `env:"MAIL_FROM"`

	RazorpayKeyID  string `env:"RAZORPAY_ID_KEY"`
	RazorpaySecret string `env:"RAZORPAY_SECRET_KEY"`
	Currency       string `env:"CURRENCY,default=INR"`

	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	AdminEmailsRaw     string `env:"ADMIN_EMAILS"`

	MediaBackend string `env:"MEDIA_BACKEND,default=local"`
	UploadDir    string `env:"UPLOAD_DIR,default=./static/uploads"`
	S3Bucket     string `env:"S3_BUCKET"`
	S3Region     string `env:"S3_REGION,default=us-east-1"`
	S3Endpoint   string `env:"S3_ENDPOINT"`
	S3AccessKey  string `env:"S3_ACCESS_KEY"`
	S3SecretKey  string `env:"S3_SECRET_KEY"`
	S3PublicURL  string `env:"S3_PUBLIC_URL"`

	PlansFile string `env:"PLANS_FILE"`

	RateLimitPerMinute int `env:"RATE_LIMIT_PER_MINUTE,default=20"`
	RateLimitBurst     int `env:"RATE_LIMIT_BURST,default=5"`

	SessionKeyRaw      string `env:"SESSION_KEY"`
	AdminSessionKeyRaw string `env:"ADMIN_SESSION_KEY"`
	CSRFKeyRaw         string `env:"CSRF_KEY"`

	SessionKey      []byte
	AdminSessionKey []byte
	CSRFKey         []byte
	AdminEmails     []string
}

func LoadConfig() (*Config, error) {
	// .env is optional; real environment variables win.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("Could not read .env file", "error", err)
	}

	cfg := &Config{}
	if err := envdecode.Decode(cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("decode environment: %w", err)
	}

	cfg.CSRFKey = decodeKey("CSRF_KEY", cfg.CSRFKeyRaw)
	cfg.SessionKey = decodeKey("SESSION_KEY", cfg.SessionKeyRaw)
	cfg.AdminSessionKey = decodeKey("ADMIN_SESSION_KEY", cfg.AdminSessionKeyRaw)
	cfg.AdminEmails = splitList(cfg.AdminEmailsRaw)

	// Make sure port is valid
	if _, err := strconv.Atoi(cfg.Port); err != nil {
		slog.Error("Invalid PORT environment variable. Falling back to default.", "PORT", cfg.Port)
		cfg.Port = "8585"
	}

	switch cfg.DBDriver {
	case "sqlite", "pgx":
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q (want sqlite or pgx)", cfg.DBDriver)
	}
	switch cfg.SessionBackend {
	case "sql", "redis":
	default:
		return nil, fmt.Errorf("unsupported SESSION_BACKEND %q (want sql or redis)", cfg.SessionBackend)
	}
	switch cfg.MediaBackend {
	case "local":
	case "s3":
		if cfg.S3Bucket == "" {
			return nil, errors.New("MEDIA_BACKEND=s3 requires S3_BUCKET")
		}
	default:
		return nil, fmt.Errorf("unsupported MEDIA_BACKEND %q (want local or s3)", cfg.MediaBackend)
	}

	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return cfg, nil
}

// IsAdminEmail reports whether email is on the ADMIN_EMAILS allowlist.
func (c *Config) IsAdminEmail(email string) bool {
	for _, e := range c.AdminEmails {
		if strings.EqualFold(e, email) {
			return true
		}
	}
	return false
}

// SlogLevel maps LOG_LEVEL onto a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// decodeKey reads a base64 secret. Missing or weak keys are replaced by a
// random one so development still works, at the cost of sessions not
// surviving a restart.
func decodeKey(name, raw string) []byte {
	if raw == "" {
		slog.Warn(name + " environment variable not set. Generating a random key for development. This key will change on each restart. PLEASE SET " + name + " IN PRODUCTION!")
		return generateRandomBytes(32)
	}
	decoded, err := base64.StdEncoding.DecodeString(raw)
	if err != nil || len(decoded) < 32 {
		slog.Warn(name + " is invalid or too short (min 32 bytes recommended). Generating a random key for development. PLEASE SET A SECURE " + name + " IN PRODUCTION!")
		return generateRandomBytes(32)
	}
	return decoded
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, strings.ToLower(p))
		}
	}
	return out
}

// generateRandomBytes generates a random byte slice of specified length
func generateRandomBytes(n int) []byte {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		slog.Error("Failed to read random bytes", "error", err)
		fallbackKey := "fallback-insecure-key-" + strconv.FormatInt(time.Now().UnixNano(), 10)
		padded := make([]byte, n)
		copy(padded, fallbackKey)
		return padded
	}
	return b
}
