package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"library-assessment/pkg/utils"
)

type Config struct {
	App     AppConfig
	Storage StorageConfig
	Session SessionConfig
}

type AppConfig struct {
	Port        string
	Environment string
	LogFilePath string
}

type StorageConfig struct {
	DBPath    string
	ExportDir string
}

type SessionConfig struct {
	TTL             time.Duration
	CleanupInterval time.Duration
	MaxUploadBytes  int
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}
	return FromEnv()
}

// FromEnv reads the configuration from the process environment only
func FromEnv() *Config {
	return &Config{
		App: AppConfig{
			Port:        getEnv("APP_PORT", "8080"),
			Environment: getEnv("GO_ENV", "development"),
			LogFilePath: getEnv("LOG_FILE_PATH", "logs/assessment.log"),
		},
		Storage: StorageConfig{
			DBPath:    getEnv("DB_PATH", "assessment.db"),
			ExportDir: getEnv("EXPORT_DIR", "output"),
		},
		Session: SessionConfig{
			TTL:             utils.ParseDuration(getEnv("SESSION_TTL", ""), time.Hour),
			CleanupInterval: utils.ParseDuration(getEnv("SESSION_CLEANUP_INTERVAL", ""), 10*time.Minute),
			MaxUploadBytes:  getEnvAsInt("MAX_UPLOAD_BYTES", 32<<20),
		},
	}
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}
