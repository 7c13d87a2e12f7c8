// internal/workers/matching/batch-match/config.go
package batchmatch

import "time"

type Config struct {
	Timeout         time.Duration
	MaxBatchJobs    int
	BatchCandidates int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:         60 * time.Second,
		MaxBatchJobs:    10,
		BatchCandidates: 5,
	}
}
