// internal/workers/learning/retrain-model/config.go
package retrainmodel

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		// Retrain walks the full sample window; give it room.
		Timeout: 5 * time.Minute,
	}
}
