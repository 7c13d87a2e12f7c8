// internal/workers/learning/submit-feedback/models.go
package submitfeedback

type Input struct {
	PredictionID  string  `json:"predictionId,omitempty"`
	CandidateID   string  `json:"candidateId"`
	JobID         string  `json:"jobId"`
	TenantID      string  `json:"tenantId,omitempty"`
	ActualOutcome string  `json:"actualOutcome"`
	FeedbackScore float64 `json:"feedbackScore"`
	Source        string  `json:"source,omitempty"`
}

type Output struct {
	FeedbackID   string  `json:"feedbackId"`
	RewardSignal float64 `json:"rewardSignal"`
}
