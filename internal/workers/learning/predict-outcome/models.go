// internal/workers/learning/predict-outcome/models.go
package predictoutcome

type Input struct {
	CandidateID string `json:"candidateId"`
	JobID       string `json:"jobId"`
	TenantID    string `json:"tenantId,omitempty"`
}

type Output struct {
	PredictionID string  `json:"predictionId"`
	Score        float64 `json:"score"`
	DecisionType string  `json:"decisionType"`
	Confidence   float64 `json:"confidence"`
	ModelVersion string  `json:"modelVersion"`
}
