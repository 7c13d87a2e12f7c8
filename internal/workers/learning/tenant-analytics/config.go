// internal/workers/learning/tenant-analytics/config.go
package tenantanalytics

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 15 * time.Second,
	}
}
