package config

import (
	"encoding/hex"
	"fmt"
	"time"
)

type StorageDriver string

const (
	StorageDriverMemory StorageDriver = "memory"
	StorageDriverFile   StorageDriver = "file"
	StorageDriverRedis  StorageDriver = "redis"
)

// StorageConfig selects the durable key-value store that holds bearer tokens
type StorageConfig interface {
	GetStorageDriver() StorageDriver
	GetStoragePath() string
	GetStorageKey() ([]byte, error)
	GetRedisAddr() string
	GetRedisPassword() string
	GetRedisDB() int
	GetRedisTTL() time.Duration
}

type Storage struct{}

var _ StorageConfig = Storage{}

func (Storage) GetStorageDriver() StorageDriver {
	return StorageDriver(GetEnv("STORAGE_DRIVER", string(StorageDriverMemory)))
}

func (Storage) GetStoragePath() string {
	return GetEnv("STORAGE_PATH", "./data/sessions.json")
}

// GetStorageKey returns the 32 byte sealing key for the file store, or nil when sealing is disabled.
func (Storage) GetStorageKey() ([]byte, error) {
	value := GetEnv("STORAGE_KEY", "")
	if value == "" {
		return nil, nil
	}
	key, err := hex.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("STORAGE_KEY must be hex encoded: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("STORAGE_KEY must be 32 bytes, got %d", len(key))
	}
	return key, nil
}

func (Storage) GetRedisAddr() string {
	return GetEnv("REDIS_ADDR", "localhost:6379")
}

func (Storage) GetRedisPassword() string {
	return GetEnv("REDIS_PASSWORD", "")
}

func (Storage) GetRedisDB() int {
	return GetInt("REDIS_DB", 0)
}

func (Storage) GetRedisTTL() time.Duration {
	return GetDuration("REDIS_TTL", 7*24*time.Hour)
}
