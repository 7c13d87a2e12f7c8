// internal/workers/learning/retrain-model/models.go
package retrainmodel

type Input struct {
	RequestedBy string `json:"requestedBy,omitempty"`
}

type Output struct {
	Version             string  `json:"version"`
	Accuracy            float64 `json:"accuracy"`
	Precision           float64 `json:"precision"`
	Recall              float64 `json:"recall"`
	F1Score             float64 `json:"f1Score"`
	AverageReward       float64 `json:"averageReward"`
	TrainingSampleCount int     `json:"trainingSampleCount"`
	EvaluationDate      string  `json:"evaluationDate"`
}
