// internal/workers/matching/batch-match/models.go
package batchmatch

import "matching-engine/internal/models"

type Input struct {
	JobIDs   []string `json:"jobIds"`
	TenantID string   `json:"tenantId,omitempty"`
}

type Output struct {
	Results map[string][]models.RankedMatch `json:"results"`
}
