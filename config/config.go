package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	CORS      CORSConfig
	Storage   StorageConfig
	GCS       GCSConfig
	S3        S3Config
	Redis     RedisConfig
	Line      LineConfig
	Upload    UploadConfig
	Scheduler SchedulerConfig
}

type ServerConfig struct {
	Port        string
	GinMode     string
	Environment string
}

type DatabaseConfig struct {
	URL      string // DATABASE_URL; takes precedence over discrete settings
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type JWTConfig struct {
	Secret             string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

// StorageConfig selects the object store backend: gcs, s3 or memory
type StorageConfig struct {
	Backend         string
	SignedURLExpiry time.Duration
}

type GCSConfig struct {
	ProjectID  string
	KeyFile    string
	BucketName string
}

type S3Config struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	BaseURL         string // CDN or S3-compatible endpoint URL
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
}

type LineConfig struct {
	ChannelAccessToken string
	DryRun             bool
	BaseURL            string
}

type UploadConfig struct {
	MaxBytes int64
}

type SchedulerConfig struct {
	BlobCleanupCron string
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("SERVER_PORT", "8080"),
			GinMode:     getEnv("GIN_MODE", "debug"),
			Environment: getEnv("ENVIRONMENT", "development"),
		},
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", ""),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "cleaning"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		JWT: JWTConfig{
			Secret:             getEnv("JWT_SECRET", "your-secret-key"),
			AccessTokenExpiry:  parseDuration(getEnv("JWT_ACCESS_TOKEN_EXPIRY", "24h"), 24*time.Hour),
			RefreshTokenExpiry: parseDuration(getEnv("JWT_REFRESH_TOKEN_EXPIRY", "168h"), 168*time.Hour),
		},
		CORS: CORSConfig{
			AllowedOrigins: parseSlice(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		},
		Storage: StorageConfig{
			Backend:         strings.ToLower(getEnv("STORAGE_BACKEND", "gcs")),
			SignedURLExpiry: parseDuration(getEnv("SIGNED_URL_EXPIRY", "15m"), 15*time.Minute),
		},
		GCS: GCSConfig{
			ProjectID:  getEnv("GOOGLE_CLOUD_PROJECT_ID", ""),
			KeyFile:    getEnv("GOOGLE_CLOUD_KEY_FILE", ""),
			BucketName: getEnv("GOOGLE_CLOUD_BUCKET_NAME", ""),
		},
		S3: S3Config{
			Region:          getEnv("AWS_REGION", "ap-northeast-1"),
			Bucket:          getEnv("AWS_S3_BUCKET", ""),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			BaseURL:         getEnv("AWS_S3_BASE_URL", ""),
		},
		Redis: RedisConfig{
			Enabled:  parseBool(getEnv("REDIS_ENABLED", "false")),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       parseInt(getEnv("REDIS_DB", "0"), 0),
		},
		Line: LineConfig{
			ChannelAccessToken: getEnv("LINE_CHANNEL_ACCESS_TOKEN", ""),
			DryRun:             parseBool(getEnv("LINE_DRY_RUN", "true")),
			BaseURL:            getEnv("LINE_API_BASE_URL", "https://api.line.me"),
		},
		Upload: UploadConfig{
			MaxBytes: int64(parseInt(getEnv("UPLOAD_MAX_BYTES", "10485760"), 10<<20)),
		},
		Scheduler: SchedulerConfig{
			BlobCleanupCron: getEnv("BLOB_CLEANUP_CRON", "*/5 * * * *"),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks settings that would otherwise fail late at first use
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "gcs":
		if c.GCS.BucketName == "" {
			return fmt.Errorf("GOOGLE_CLOUD_BUCKET_NAME is required for the gcs storage backend")
		}
	case "s3":
		if c.S3.Bucket == "" {
			return fmt.Errorf("AWS_S3_BUCKET is required for the s3 storage backend")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.Storage.Backend)
	}
	if c.Upload.MaxBytes <= 0 {
		return fmt.Errorf("UPLOAD_MAX_BYTES must be positive")
	}
	return nil
}

func (c *DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	duration, err := time.ParseDuration(s)
	if err != nil {
		log.Printf("Invalid duration %s, using default %s", s, fallback)
		return fallback
	}
	return duration
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false
	}
	return b
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Printf("Invalid integer %s, using default %d", s, fallback)
		return fallback
	}
	return n
}

func parseSlice(s string) []string {
	var result []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}
