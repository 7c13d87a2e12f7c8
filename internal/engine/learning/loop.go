// internal/engine/learning/loop.go
package learning

import (
	"context"
	"encoding/json"
	"math"
	"time"

	commonerrors "matching-engine/internal/common/errors"
	"matching-engine/internal/common/logger"
	"matching-engine/internal/common/metrics"
	"matching-engine/internal/engine/composite"
	"matching-engine/internal/engine/weights"
	"matching-engine/internal/models"

	"github.com/google/uuid"
)

// Decision thresholds for the raw score.
const (
	recommendThreshold = 0.8
	reviewThreshold    = 0.5

	// High-satisfaction feedback forces the tenant's weights to recompute.
	highSatisfactionScore = 4.0

	minConfidence = 0.5
)

// PredictionStore persists and retrieves issued predictions.
type PredictionStore interface {
	Insert(ctx context.Context, p *models.Prediction) error
	GetByID(ctx context.Context, id string) (*models.Prediction, error)
	LatestForPair(ctx context.Context, candidateID, jobID string) (*models.Prediction, error)
}

// FeedbackStore appends feedback events.
type FeedbackStore interface {
	Insert(ctx context.Context, f *models.FeedbackEvent) error
}

// SampleStore persists training samples for the retrain controller.
type SampleStore interface {
	Insert(ctx context.Context, s *models.TrainingSample) error
}

// VersionReader exposes the latest published model version.
type VersionReader interface {
	Latest(ctx context.Context) (*models.ModelVersion, error)
}

// Loop drives the predict/feedback state machine for (candidate, job) pairs.
type Loop struct {
	scorer      *composite.Scorer
	learner     *weights.Learner
	predictions PredictionStore
	feedback    FeedbackStore
	samples     SampleStore
	versions    VersionReader
	logger      logger.Logger
}

func NewLoop(scorer *composite.Scorer, learner *weights.Learner, predictions PredictionStore, feedback FeedbackStore, samples SampleStore, versions VersionReader, log logger.Logger) *Loop {
	return &Loop{
		scorer:      scorer,
		learner:     learner,
		predictions: predictions,
		feedback:    feedback,
		samples:     samples,
		versions:    versions,
		logger:      log,
	}
}

// Predict scores the pair, derives a decision and confidence, and persists
// the prediction. Identical inputs under unchanged weight and model state
// produce the same score and decision; only the prediction id differs.
func (l *Loop) Predict(ctx context.Context, job models.JobProfile, candidate models.CandidateProfile, tenantID string) (*models.Prediction, error) {
	breakdown, err := l.scorer.Score(ctx, job, candidate, tenantID)
	if err != nil {
		return nil, err
	}

	prediction := &models.Prediction{
		ID:              uuid.New().String(),
		CandidateID:     candidate.ID,
		JobID:           job.ID,
		PredictedScore:  breakdown.TotalScore,
		DecisionType:    DecideFromScore(breakdown.TotalScore),
		ConfidenceLevel: ConfidenceFromScore(breakdown.TotalScore),
		ModelVersion:    l.currentModelVersion(ctx),
		CreatedAt:       time.Now().UTC(),
	}

	if err := l.predictions.Insert(ctx, prediction); err != nil {
		return nil, commonerrors.NewPredictionWriteFailedError(err)
	}

	metrics.PredictionsIssued.WithLabelValues(string(prediction.DecisionType)).Inc()
	return prediction, nil
}

// FeedbackRequest carries the fields submit_feedback accepts. PredictionID
// is optional; unsolicited feedback is stored without a prediction link.
type FeedbackRequest struct {
	PredictionID  string
	CandidateID   string
	JobID         string
	TenantID      string
	ActualOutcome models.ActualOutcome
	FeedbackScore float64
	Source        models.FeedbackSource
}

// SubmitFeedback appends a feedback event, snapshots a training sample, and
// invalidates the tenant's weight cache when the score marks high
// satisfaction.
func (l *Loop) SubmitFeedback(ctx context.Context, req FeedbackRequest, job *models.JobProfile, candidate *models.CandidateProfile) (*models.FeedbackEvent, error) {
	prediction := l.resolvePrediction(ctx, req)

	event := &models.FeedbackEvent{
		ID:            uuid.New().String(),
		CandidateID:   req.CandidateID,
		JobID:         req.JobID,
		ActualOutcome: req.ActualOutcome,
		FeedbackScore: req.FeedbackScore,
		RewardSignal:  RewardSignal(req.ActualOutcome, req.FeedbackScore),
		Source:        req.Source,
		CreatedAt:     time.Now().UTC(),
	}
	if prediction != nil {
		event.PredictionID = prediction.ID
	}

	if err := l.feedback.Insert(ctx, event); err != nil {
		return nil, commonerrors.NewFeedbackWriteFailedError(err)
	}
	metrics.FeedbackIngested.WithLabelValues(string(event.ActualOutcome), string(event.Source)).Inc()

	l.recordSample(ctx, event, prediction, job, candidate)

	if req.FeedbackScore >= highSatisfactionScore && req.TenantID != "" {
		if err := l.learner.Invalidate(ctx, req.TenantID); err != nil {
			l.logger.Warn("weight cache invalidation failed", map[string]interface{}{
				"tenant_id": req.TenantID,
				"error":     err.Error(),
			})
		}
	}

	return event, nil
}

func (l *Loop) resolvePrediction(ctx context.Context, req FeedbackRequest) *models.Prediction {
	if req.PredictionID != "" {
		p, err := l.predictions.GetByID(ctx, req.PredictionID)
		if err == nil {
			return p
		}
		l.logger.Warn("feedback references unknown prediction, storing unlinked", map[string]interface{}{
			"prediction_id": req.PredictionID,
		})
		return nil
	}
	p, err := l.predictions.LatestForPair(ctx, req.CandidateID, req.JobID)
	if err != nil {
		return nil
	}
	return p
}

// recordSample is best-effort: a failed snapshot must not fail the feedback
// write that already happened.
func (l *Loop) recordSample(ctx context.Context, event *models.FeedbackEvent, prediction *models.Prediction, job *models.JobProfile, candidate *models.CandidateProfile) {
	sample := &models.TrainingSample{
		ID:            uuid.New().String(),
		ActualOutcome: event.ActualOutcome,
		Reward:        event.RewardSignal,
		CreatedAt:     event.CreatedAt,
	}
	if prediction != nil {
		sample.MatchingScore = prediction.PredictedScore
	}
	if job != nil {
		if data, err := json.Marshal(job); err == nil {
			sample.JobFeatures = string(data)
		}
	}
	if candidate != nil {
		if data, err := json.Marshal(candidate); err == nil {
			sample.CandidateFeatures = string(data)
		}
	}

	if err := l.samples.Insert(ctx, sample); err != nil {
		l.logger.Warn("training sample write failed", map[string]interface{}{
			"feedback_id": event.ID,
			"error":       err.Error(),
		})
	}
}

func (l *Loop) currentModelVersion(ctx context.Context) string {
	if l.versions == nil {
		return models.BaselineModelVersion
	}
	latest, err := l.versions.Latest(ctx)
	if err != nil || latest == nil {
		return models.BaselineModelVersion
	}
	return latest.Version
}

// DecideFromScore maps a raw score onto the decision bands.
func DecideFromScore(score float64) models.DecisionType {
	switch {
	case score >= recommendThreshold:
		return models.DecisionRecommend
	case score >= reviewThreshold:
		return models.DecisionReview
	default:
		return models.DecisionReject
	}
}

// ConfidenceFromScore measures how far the score sits from the nearest
// decision boundary, normalized to [minConfidence, 1]. Scores near a
// boundary are low-confidence calls.
func ConfidenceFromScore(score float64) float64 {
	nearest := math.Min(math.Abs(score-recommendThreshold), math.Abs(score-reviewThreshold))
	// The farthest any score can sit from both boundaries is 0.5 (score 0).
	confidence := minConfidence + nearest
	if confidence > 1 {
		confidence = 1
	}
	return confidence
}

// RewardSignal derives the [-1,1] reward from an outcome and its 1-5 score.
// For equal scores, hired > shortlisted > rejected, and reward grows with
// the score within each outcome band.
func RewardSignal(outcome models.ActualOutcome, feedbackScore float64) float64 {
	normalized := feedbackScore / 5.0
	if normalized < 0 {
		normalized = 0
	}
	if normalized > 1 {
		normalized = 1
	}
	switch outcome {
	case models.OutcomeHired:
		return normalized
	case models.OutcomeShortlisted:
		return 0.5 * normalized
	case models.OutcomeRejected:
		return -normalized
	default:
		return 0
	}
}
