package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	GinMode      string
	OpenAIAPIKey string

	// Local uploads directory and the URL path it is served under.
	UploadsDir        string
	UploadsPublicPath string

	// Remote object store settings. The S3 backend is only activated when
	// RemoteStorageConfigured reports a complete set.
	S3Endpoint      string
	S3Region        string
	S3Bucket        string
	S3AccessKey     string
	S3SecretKey     string
	S3KeyPrefix     string
	S3PublicBaseURL string

	SessionTTL    time.Duration
	AdminUsername string
	DebugErrors   bool
}

func Load() *Config {
	return &Config{
		DBDriver:   getEnv("DB_DRIVER", "mysql"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "diaryuser"),
		DBPassword: getEnv("DB_PASSWORD", "diarypassword"),
		DBName:     getEnv("DB_NAME", "voice_diary"),

		GinMode:      getEnv("GIN_MODE", "debug"),
		OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),

		UploadsDir:        getEnv("UPLOADS_DIR", "./uploads"),
		UploadsPublicPath: getEnv("UPLOADS_PUBLIC_PATH", "/uploads"),

		S3Endpoint:      getEnv("S3_ENDPOINT", ""),
		S3Region:        getEnv("S3_REGION", "us-east-1"),
		S3Bucket:        getEnv("S3_BUCKET", ""),
		S3AccessKey:     getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey:     getEnv("S3_SECRET_KEY", ""),
		S3KeyPrefix:     getEnv("S3_KEY_PREFIX", ""),
		S3PublicBaseURL: getEnv("S3_PUBLIC_BASE_URL", ""),

		SessionTTL:    time.Duration(getEnvInt("SESSION_TTL_HOURS", 720)) * time.Hour,
		AdminUsername: getEnv("ADMIN_USERNAME", ""),
		DebugErrors:   getEnvBool("DEBUG_ERRORS", false),
	}
}

// RemoteStorageConfigured reports whether a complete set of object-store
// settings is present. A partial set falls back to local disk.
func (c *Config) RemoteStorageConfigured() bool {
	return c.S3Endpoint != "" &&
		c.S3Bucket != "" &&
		c.S3AccessKey != "" &&
		c.S3SecretKey != "" &&
		c.S3PublicBaseURL != ""
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}
