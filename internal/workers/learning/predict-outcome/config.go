// internal/workers/learning/predict-outcome/config.go
package predictoutcome

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 30 * time.Second,
	}
}
