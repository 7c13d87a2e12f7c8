// internal/models/learning.go
package models

import "time"

// DecisionType is the categorical recommendation derived from a score.
type DecisionType string

const (
	DecisionRecommend DecisionType = "recommend"
	DecisionReview    DecisionType = "review"
	DecisionReject    DecisionType = "reject"
)

// ActualOutcome is the real-world hiring outcome reported by HR.
type ActualOutcome string

const (
	OutcomeHired       ActualOutcome = "hired"
	OutcomeShortlisted ActualOutcome = "shortlisted"
	OutcomeRejected    ActualOutcome = "rejected"
)

// FeedbackSource identifies who reported the outcome.
type FeedbackSource string

const (
	SourceHR        FeedbackSource = "hr"
	SourceSystem    FeedbackSource = "system"
	SourceCandidate FeedbackSource = "candidate"
)

// BaselineModelVersion is the sentinel version stamped on predictions issued
// before the first retrain produces a real model version.
const BaselineModelVersion = "baseline"

// Prediction is the immutable record of one issued score/decision.
type Prediction struct {
	ID              string       `json:"id"`
	CandidateID     string       `json:"candidateId"`
	JobID           string       `json:"jobId"`
	PredictedScore  float64      `json:"predictedScore"`
	DecisionType    DecisionType `json:"decisionType"`
	ConfidenceLevel float64      `json:"confidenceLevel"`
	ModelVersion    string       `json:"modelVersion"`
	CreatedAt       time.Time    `json:"createdAt"`
}

// FeedbackEvent is one append-only outcome report. PredictionID is empty for
// unsolicited feedback that arrived without a prior prediction.
type FeedbackEvent struct {
	ID            string         `json:"id"`
	PredictionID  string         `json:"predictionId,omitempty"`
	CandidateID   string         `json:"candidateId"`
	JobID         string         `json:"jobId"`
	ActualOutcome ActualOutcome  `json:"actualOutcome"`
	FeedbackScore float64        `json:"feedbackScore"` // 1-5 scale
	RewardSignal  float64        `json:"rewardSignal"`  // derived, in [-1,1]
	Source        FeedbackSource `json:"source"`
	CreatedAt     time.Time      `json:"createdAt"`
}

// ModelVersion is an immutable snapshot of one retrain run. Only the retrain
// controller creates these.
type ModelVersion struct {
	Version             string    `json:"version"`
	Accuracy            float64   `json:"accuracy"`
	Precision           float64   `json:"precision"`
	Recall              float64   `json:"recall"`
	F1Score             float64   `json:"f1Score"`
	AverageReward       float64   `json:"averageReward"`
	TrainingSampleCount int       `json:"trainingSampleCount"`
	EvaluationDate      time.Time `json:"evaluationDate"`
}

// TrainingSample is a persisted snapshot consumed by the retrain controller.
type TrainingSample struct {
	ID                string        `json:"id"`
	CandidateFeatures string        `json:"candidateFeatures"` // JSON blob
	JobFeatures       string        `json:"jobFeatures"`       // JSON blob
	MatchingScore     float64       `json:"matchingScore"`
	ActualOutcome     ActualOutcome `json:"actualOutcome"`
	Reward            float64       `json:"reward"`
	CreatedAt         time.Time     `json:"createdAt"`
}

// TenantAnalytics aggregates learning-loop activity for one tenant (or all
// tenants when TenantID is empty).
type TenantAnalytics struct {
	TenantID         string         `json:"tenantId,omitempty"`
	TotalPredictions int            `json:"totalPredictions"`
	TotalFeedback    int            `json:"totalFeedback"`
	FeedbackRate     float64        `json:"feedbackRate"`
	AverageReward    float64        `json:"averageReward"`
	DecisionCounts   map[string]int `json:"decisionCounts"`
}
