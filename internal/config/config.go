package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"eventhub/internal/utils"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Auth      AuthConfig
	Session   SessionConfig
	Email     EmailConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
	Storage   StorageConfig
	Log       LogConfig
}

type ServerConfig struct {
	Port            string
	Host            string
	Env             string
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	Driver     string // "postgres" or "sqlite3"
	URL        string // Full database URL
	Host       string
	Port       int
	User       string
	Password   string
	DBName     string
	SSLMode    string
	SQLitePath string
}

type AuthConfig struct {
	JWTSecret        string
	JWTIssuer        string
	TokenTTL         time.Duration
	PasswordResetTTL time.Duration

	// argon2id cost; zero values use utils.DefaultArgon2Params
	PasswordMemoryKiB  int
	PasswordIterations int
}

// PasswordParams returns the argon2id settings for new password hashes
func (c AuthConfig) PasswordParams() utils.Argon2Params {
	return utils.Argon2Params{
		MemoryKiB:  uint32(c.PasswordMemoryKiB),
		Iterations: uint32(c.PasswordIterations),
	}
}

type SessionConfig struct {
	Secret string
	Name   string
}

type EmailConfig struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	FromEmail    string
	BaseURL      string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type RateLimitConfig struct {
	LoginAttempts int
	LoginWindow   time.Duration
}

// StorageConfig selects where uploaded event images live. R2 is used when
// its credentials are set; otherwise files go to UploadDir.
type StorageConfig struct {
	UploadDir     string
	PublicURL     string // base URL the server serves UploadDir under
	MaxImageBytes int
	R2            R2Config
}

type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	Region          string
	Endpoint        string
	PublicURL       string
}

// Enabled reports whether R2 credentials are configured
func (c R2Config) Enabled() bool {
	return c.AccessKeyID != "" && c.SecretAccessKey != "" && c.BucketName != ""
}

type LogConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	// Load .env files if they exist (try .env.local first, then .env)
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load(".env")

	config := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			Host:            getEnv("HOST", "localhost"),
			Env:             getEnv("ENV", "development"),
			ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Database: parseDatabaseConfig(),
		Auth: AuthConfig{
			JWTSecret:        getEnv("JWT_SECRET", "change-me-in-production"),
			JWTIssuer:        getEnv("JWT_ISSUER", "eventhub"),
			TokenTTL:         getEnvAsDuration("JWT_TTL", 7*24*time.Hour),
			PasswordResetTTL: getEnvAsDuration("PASSWORD_RESET_TTL", time.Hour),

			PasswordMemoryKiB:  getEnvAsInt("PASSWORD_HASH_MEMORY_KIB", 64*1024),
			PasswordIterations: getEnvAsInt("PASSWORD_HASH_ITERATIONS", 3),
		},
		Session: SessionConfig{
			Secret: getEnv("SESSION_SECRET", "your-secret-key-change-in-production"),
			Name:   getEnv("SESSION_NAME", "eventhub_session"),
		},
		Email: EmailConfig{
			SMTPHost:     getEnv("SMTP_HOST", ""),
			SMTPPort:     getEnvAsInt("SMTP_PORT", 587),
			SMTPUser:     getEnv("SMTP_USER", ""),
			SMTPPassword: getEnv("SMTP_PASSWORD", ""),
			FromEmail:    getEnv("FROM_EMAIL", "noreply@eventhub.local"),
			BaseURL:      getEnv("BASE_URL", "http://localhost:8080"),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
		RateLimit: RateLimitConfig{
			LoginAttempts: getEnvAsInt("LOGIN_RATE_LIMIT", 5),
			LoginWindow:   getEnvAsDuration("LOGIN_RATE_WINDOW", 15*time.Minute),
		},
		Storage: StorageConfig{
			UploadDir:     getEnv("UPLOAD_DIR", "uploads"),
			PublicURL:     getEnv("UPLOAD_BASE_URL", ""),
			MaxImageBytes: getEnvAsInt("MAX_IMAGE_BYTES", 5<<20),
			R2: R2Config{
				AccountID:       getEnv("R2_ACCOUNT_ID", ""),
				AccessKeyID:     getEnv("R2_ACCESS_KEY_ID", ""),
				SecretAccessKey: getEnv("R2_SECRET_ACCESS_KEY", ""),
				BucketName:      getEnv("R2_BUCKET_NAME", ""),
				Region:          getEnv("R2_REGION", "auto"),
				Endpoint:        getEnv("R2_ENDPOINT", ""),
				PublicURL:       getEnv("R2_PUBLIC_URL", ""),
			},
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", ""),
		},
	}

	if config.Storage.PublicURL == "" {
		config.Storage.PublicURL = fmt.Sprintf("http://%s/uploads", net.JoinHostPort(config.Server.Host, config.Server.Port))
	}

	return config, nil
}

// IsProduction reports whether the server runs with production defaults.
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

func parseDatabaseConfig() DatabaseConfig {
	driver := getEnv("DB_DRIVER", "postgres")
	sqlitePath := getEnv("SQLITE_PATH", "eventhub.db")

	// Check if DATABASE_URL is provided
	databaseURL := getEnv("DATABASE_URL", "")
	if databaseURL != "" {
		config := parseDatabaseURL(databaseURL)
		config.Driver = driver
		config.SQLitePath = sqlitePath
		return config
	}

	// Fall back to individual environment variables
	return DatabaseConfig{
		Driver:     driver,
		Host:       getEnv("DB_HOST", "localhost"),
		Port:       getEnvAsInt("DB_PORT", 5432),
		User:       getEnv("DB_USER", "postgres"),
		Password:   getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "eventhub"),
		SSLMode:    getEnv("DB_SSLMODE", "disable"),
		SQLitePath: sqlitePath,
	}
}

func parseDatabaseURL(databaseURL string) DatabaseConfig {
	config := DatabaseConfig{
		URL: databaseURL,
	}

	u, err := url.Parse(databaseURL)
	if err != nil {
		// If parsing fails, return the URL as-is
		return config
	}

	config.Host = u.Hostname()
	if u.Port() != "" {
		config.Port, _ = strconv.Atoi(u.Port())
	} else {
		config.Port = 5432
	}

	if u.User != nil {
		config.User = u.User.Username()
		config.Password, _ = u.User.Password()
	}

	config.DBName = strings.TrimPrefix(u.Path, "/")

	config.SSLMode = u.Query().Get("sslmode")
	if config.SSLMode == "" {
		config.SSLMode = "disable"
	}

	return config
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return defaultValue
	}
	return items
}
