package config

import "time"

type Storage struct{}

var _ StorageConfig = Storage{}

// GetRedisAddr returns the Redis address. Empty selects in-memory storage.
func (Storage) GetRedisAddr() string {
	return GetEnv("REDIS_ADDR", "")
}

func (Storage) GetRedisPassword() string {
	return GetEnv("REDIS_PASSWORD", "")
}

func (Storage) GetStorageTTL() time.Duration {
	return GetDuration("STORAGE_TTL", 24*time.Hour)
}
