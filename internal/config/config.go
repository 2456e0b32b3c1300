package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type Config struct {
	Env    string
	DBType string
	DBPath string // sqlite file path or postgres DSN

	HTTPAddr  string
	RedisAddr string

	OpenedImageDir      string
	ProtectedImageDir   string
	OpenedImageGroup    string
	ProtectedImageGroup string

	PostPageSize int
	// SweepRetention is how long tombstoned image rows keep their files
	// before the sweeper purges them.
	SweepRetention time.Duration
}

func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		logrus.Debugf("no .env file loaded: %v", err)
	}

	return &Config{
		Env:                 getEnv("ENV", "dev"),
		DBType:              getEnv("DB_TYPE", "sqlite"),
		DBPath:              getEnv("DB_PATH", ".db/blog.db"),
		HTTPAddr:            getEnv("HTTP_ADDR", ":8030"),
		RedisAddr:           getEnv("REDIS_ADDR", "localhost:6379"),
		OpenedImageDir:      getEnv("OPENED_IMAGE_DIR", ".images/opened"),
		ProtectedImageDir:   getEnv("PROTECTED_IMAGE_DIR", ".images/protected"),
		OpenedImageGroup:    getEnv("OPENED_IMAGE_GROUP", ""),
		ProtectedImageGroup: getEnv("PROTECTED_IMAGE_GROUP", ""),
		PostPageSize:        getEnvInt("POST_PAGE_SIZE", 10),
		SweepRetention:      getEnvDuration("SWEEP_RETENTION", 30*24*time.Hour),
	}
}

func GetDb(cfg *Config) *gorm.DB {
	var (
		db  *gorm.DB
		err error
	)
	switch cfg.DBType {
	case "postgres":
		db, err = gorm.Open(postgres.Open(cfg.DBPath), &gorm.Config{})
	default:
		db, err = gorm.Open(sqlite.Open(cfg.DBPath), &gorm.Config{})
	}
	if err != nil {
		logrus.Fatalf("failed to connect database: %v", err)
	}

	return db
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}
