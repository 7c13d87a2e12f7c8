// internal/workers/matching/match-candidates/config.go
package matchcandidates

import "time"

type Config struct {
	Timeout      time.Duration
	DefaultLimit int
	PoolSize     int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:      30 * time.Second,
		DefaultLimit: 10,
		PoolSize:     100,
	}
}
