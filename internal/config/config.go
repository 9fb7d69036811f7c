package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPass     string
	DBName     string
	ServerPort string
	Env        string

	// FileAccessURL is the base address of the external document service
	// (configuration key FileAccessUrl). FileAccessTimeout bounds every
	// request issued to it.
	FileAccessURL     string
	FileAccessTimeout time.Duration

	RedisURL         string
	CheckoutCacheTTL time.Duration

	MinioURL           string
	MinioUser          string
	MinioPassword      string
	MinioArchiveBucket string

	MaxFileSize       int64
	MaxFilesPerUpload int
	TempMaxAge        time.Duration
}

func LoadConfig() Config {
	checkoutTTL := getEnvAsDuration("CHECKOUT_CACHE_TTL", 30*time.Minute)
	fileAccessTimeout := getEnvAsDuration("FILE_ACCESS_TIMEOUT", 30*time.Second)
	tempMaxAge := getEnvAsDuration("TEMP_ATTACHMENT_MAX_AGE", 24*time.Hour)

	maxFileSize := getEnvAsInt64("MAX_FILE_SIZE", 50*1024*1024) // 50MB default
	maxFilesPerUpload := getEnvAsInt("MAX_FILES_PER_UPLOAD", 10)

	return Config{
		DBHost:     getEnv("DB_HOST", "postgres"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPass:     getEnv("DB_PASSWORD", "password"),
		DBName:     getEnv("DB_NAME", "db_inquiryfiles"),
		ServerPort: getEnv("SERVER_PORT", "8080"),
		Env:        getEnv("ENV", "dev"),

		FileAccessURL:     getEnv("FILE_ACCESS_URL", "http://fileaccess:8090"),
		FileAccessTimeout: fileAccessTimeout,

		RedisURL:         getEnv("REDIS_URL", "redis:6379"),
		CheckoutCacheTTL: checkoutTTL,

		MinioURL:           getEnv("MINIO_URL", "localhost:9000"),
		MinioUser:          getEnv("MINIO_USER", "minioadmin"),
		MinioPassword:      getEnv("MINIO_PASSWORD", "minioadmin"),
		MinioArchiveBucket: getEnv("MINIO_ARCHIVE_BUCKET", "inquiry-archive"),

		MaxFileSize:       maxFileSize,
		MaxFilesPerUpload: maxFilesPerUpload,
		TempMaxAge:        tempMaxAge,
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if v, err := strconv.Atoi(value); err == nil {
			return v
		}
	}
	return fallback
}

func getEnvAsInt64(key string, fallback int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		if v, err := strconv.ParseInt(value, 10, 64); err == nil {
			return v
		}
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if v, err := time.ParseDuration(value); err == nil {
			return v
		}
	}
	return fallback
}

func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		c.DBHost, c.DBUser, c.DBPass, c.DBName, c.DBPort,
	)
}
