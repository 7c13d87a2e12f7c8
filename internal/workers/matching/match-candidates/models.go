// internal/workers/matching/match-candidates/models.go
package matchcandidates

import "matching-engine/internal/models"

type Input struct {
	JobID        string   `json:"jobId"`
	CandidateIDs []string `json:"candidateIds,omitempty"`
	TenantID     string   `json:"tenantId,omitempty"`
	Limit        int      `json:"limit,omitempty"`
}

type Output struct {
	JobID   string               `json:"jobId"`
	Outcome models.Outcome       `json:"outcome"`
	Matches []models.RankedMatch `json:"matches"`
}
