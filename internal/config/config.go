package config

import (
	"log/slog"
	"os"
	"strings"
)

type Config struct {
	Port         string
	LogLevel     slog.Level
	InventoryURL string
	Redis        *RedisConfig
	Store        *StoreConfig
	Scheduler    *SchedulerConfig
	Coordinator  *CoordinatorConfig
	Dispatch     *DispatchConfig
}

func Load() (*Config, error) {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	redisConfig, err := LoadRedisConfig()
	if err != nil {
		return nil, err
	}

	storeConfig, err := LoadStoreConfig()
	if err != nil {
		return nil, err
	}

	schedulerConfig, err := LoadSchedulerConfig()
	if err != nil {
		return nil, err
	}

	coordinatorConfig, err := LoadCoordinatorConfig()
	if err != nil {
		return nil, err
	}

	dispatchConfig, err := LoadDispatchConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Port:         port,
		LogLevel:     parseLogLevel(os.Getenv("LOG_LEVEL")),
		InventoryURL: os.Getenv("INVENTORY_URL"),
		Redis:        redisConfig,
		Store:        storeConfig,
		Scheduler:    schedulerConfig,
		Coordinator:  coordinatorConfig,
		Dispatch:     dispatchConfig,
	}, nil
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
