package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server   ServerConfig
	Logger   LoggerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	OpenAI   OpenAIConfig
	Storage  StorageConfig
	Business BusinessConfig
}

type ServerConfig struct {
	AppEnv         string
	Port           string
	AllowedOrigins string
	PublicBaseURL  string
}

type LoggerConfig struct {
	Level    string
	Encoding string
}

type DatabaseConfig struct {
	URL      string
	MaxConns int
}

type AuthConfig struct {
	JWTSecret     string
	TokenTTL      time.Duration
	AdminEmail    string
	AdminPassword string
	AdminName     string
}

type OpenAIConfig struct {
	APIKey          string
	ChatModel       string
	VisionModel     string
	TranscribeModel string
}

type StorageConfig struct {
	UploadDir   string
	ImageBucket string
	MaxBytes    int64
}

// BusinessConfig carries shop-level settings that affect dates and phone numbers.
type BusinessConfig struct {
	ShopName    string
	Timezone    string
	CountryCode string
	Currency    string
}

// Development-only fallbacks. Validate rejects them outside development.
const (
	devJWTSecret     = "change-me-in-production"
	devAdminPassword = "admin123"
)

// LoadEnv reads the configuration from the environment. Callers load .env first.
func LoadEnv() *Config {
	return &Config{
		Server: ServerConfig{
			AppEnv:         getEnv("APP_ENV", "development"),
			Port:           getEnv("SERVER_PORT", "8080"),
			AllowedOrigins: getEnv("ALLOWED_ORIGINS", "*"),
			PublicBaseURL:  strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
		},
		Logger: LoggerConfig{
			Level:    getEnv("LOG_LEVEL", "info"),
			Encoding: getEnv("LOG_ENCODING", ""),
		},
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", ""),
			MaxConns: getEnvInt("DATABASE_MAX_CONNS", 10),
		},
		Auth: AuthConfig{
			JWTSecret:     getEnv("JWT_SECRET", devJWTSecret),
			TokenTTL:      time.Duration(getEnvInt("JWT_TTL_HOURS", 12)) * time.Hour,
			AdminEmail:    getEnv("ADMIN_EMAIL", "admin@qat.local"),
			AdminPassword: getEnv("ADMIN_PASSWORD", devAdminPassword),
			AdminName:     getEnv("ADMIN_NAME", "المدير"),
		},
		OpenAI: OpenAIConfig{
			APIKey:          getEnv("OPENAI_API_KEY", ""),
			ChatModel:       getEnv("OPENAI_CHAT_MODEL", "gpt-4o-mini"),
			VisionModel:     getEnv("OPENAI_VISION_MODEL", "gpt-4o"),
			TranscribeModel: getEnv("OPENAI_TRANSCRIBE_MODEL", "whisper-1"),
		},
		Storage: StorageConfig{
			UploadDir:   getEnv("UPLOAD_DIR", "uploads"),
			ImageBucket: getEnv("IMAGE_BUCKET", "ledger-images"),
			MaxBytes:    int64(getEnvInt("UPLOAD_MAX_MB", 10)) << 20,
		},
		Business: BusinessConfig{
			ShopName:    getEnv("SHOP_NAME", "محل القات"),
			Timezone:    getEnv("BUSINESS_TIMEZONE", "Asia/Aden"),
			CountryCode: getEnv("WHATSAPP_COUNTRY_CODE", "967"),
			Currency:    getEnv("CURRENCY", "ريال"),
		},
	}
}

// IsDevelopment reports whether the app runs with development defaults.
func (c *Config) IsDevelopment() bool {
	return c.Server.AppEnv == "development" || c.Server.AppEnv == "dev"
}

// Validate fails when a production deployment still relies on the
// development JWT secret or admin password.
func (c *Config) Validate() error {
	if c.IsDevelopment() {
		return nil
	}
	var missing []string
	if c.Auth.JWTSecret == devJWTSecret {
		missing = append(missing, "JWT_SECRET")
	}
	if c.Auth.AdminPassword == devAdminPassword {
		missing = append(missing, "ADMIN_PASSWORD")
	}
	if len(missing) > 0 {
		return fmt.Errorf("APP_ENV=%s requires %s to be set", c.Server.AppEnv, strings.Join(missing, " and "))
	}
	return nil
}

// Location resolves the business timezone, falling back to UTC when the
// zone database does not know it.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Business.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}
