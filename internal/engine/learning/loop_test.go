// internal/engine/learning/loop_test.go
package learning

import (
	"context"
	"errors"
	"sync"
	"testing"

	commonerrors "matching-engine/internal/common/errors"
	"matching-engine/internal/common/logger"
	"matching-engine/internal/engine/composite"
	"matching-engine/internal/engine/culture"
	"matching-engine/internal/engine/scoring"
	"matching-engine/internal/engine/weights"
	"matching-engine/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noRatings struct{}

func (noRatings) CandidateCultureRatings(_ context.Context, _, _ string) ([]map[string]float64, error) {
	return nil, nil
}

type noStats struct{}

func (noStats) HighSatisfactionStats(_ context.Context, _ string, _ float64) (*weights.FeedbackStats, error) {
	return &weights.FeedbackStats{}, nil
}

type memPredictions struct {
	mu        sync.Mutex
	byID      map[string]*models.Prediction
	insertErr error
}

func newMemPredictions() *memPredictions {
	return &memPredictions{byID: make(map[string]*models.Prediction)}
}

func (m *memPredictions) Insert(_ context.Context, p *models.Prediction) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.byID[p.ID] = &cp
	return nil
}

func (m *memPredictions) GetByID(_ context.Context, id string) (*models.Prediction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.byID[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, errors.New("not found")
}

func (m *memPredictions) LatestForPair(_ context.Context, candidateID, jobID string) (*models.Prediction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest *models.Prediction
	for _, p := range m.byID {
		if p.CandidateID == candidateID && p.JobID == jobID {
			if latest == nil || p.CreatedAt.After(latest.CreatedAt) {
				latest = p
			}
		}
	}
	if latest == nil {
		return nil, errors.New("not found")
	}
	cp := *latest
	return &cp, nil
}

type memFeedback struct {
	mu     sync.Mutex
	events []*models.FeedbackEvent
}

func (m *memFeedback) Insert(_ context.Context, f *models.FeedbackEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *f
	m.events = append(m.events, &cp)
	return nil
}

type memSamples struct {
	mu      sync.Mutex
	samples []*models.TrainingSample
}

func (m *memSamples) Insert(_ context.Context, s *models.TrainingSample) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.samples = append(m.samples, &cp)
	return nil
}

type fixedVersions struct {
	latest *models.ModelVersion
}

func (f *fixedVersions) Latest(_ context.Context) (*models.ModelVersion, error) {
	return f.latest, nil
}

type loopEnv struct {
	loop        *Loop
	predictions *memPredictions
	feedback    *memFeedback
	samples     *memSamples
	versions    *fixedVersions
	weightCache *weights.MemoryProfileCache
}

func setupLoop(t *testing.T) *loopEnv {
	log := logger.NewTestLogger(t)
	weightCache := weights.NewMemoryProfileCache()
	learner := weights.NewLearner(noStats{}, weightCache, log)
	scorer := composite.NewScorer(scoring.NewFallbackStrategy(), culture.NewEstimator(noRatings{}, log), learner, log)

	env := &loopEnv{
		predictions: newMemPredictions(),
		feedback:    &memFeedback{},
		samples:     &memSamples{},
		versions:    &fixedVersions{},
		weightCache: weightCache,
	}
	env.loop = NewLoop(scorer, learner, env.predictions, env.feedback, env.samples, env.versions, log)
	return env
}

func loopJob() models.JobProfile {
	return models.JobProfile{
		ID:              "job-1",
		Title:           "Senior Python Developer",
		Requirements:    "python django",
		Location:        "Remote",
		ExperienceLevel: "senior",
		TenantID:        "tenant-1",
	}
}

func loopCandidate() models.CandidateProfile {
	return models.CandidateProfile{
		ID:              "cand-1",
		Skills:          "python django",
		ExperienceYears: 5,
		Location:        "Austin",
		TenantID:        "tenant-1",
	}
}

func TestLoop_Predict_Idempotent(t *testing.T) {
	env := setupLoop(t)
	ctx := context.Background()

	first, err := env.loop.Predict(ctx, loopJob(), loopCandidate(), "tenant-1")
	require.NoError(t, err)
	second, err := env.loop.Predict(ctx, loopJob(), loopCandidate(), "tenant-1")
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, first.PredictedScore, second.PredictedScore)
	assert.Equal(t, first.DecisionType, second.DecisionType)
	assert.Equal(t, first.ConfidenceLevel, second.ConfidenceLevel)
}

func TestLoop_Predict_BaselineModelVersion(t *testing.T) {
	env := setupLoop(t)

	p, err := env.loop.Predict(context.Background(), loopJob(), loopCandidate(), "tenant-1")
	require.NoError(t, err)
	assert.Equal(t, models.BaselineModelVersion, p.ModelVersion)
}

func TestLoop_Predict_UsesLatestModelVersion(t *testing.T) {
	env := setupLoop(t)
	env.versions.latest = &models.ModelVersion{Version: "v1.0.3"}

	p, err := env.loop.Predict(context.Background(), loopJob(), loopCandidate(), "tenant-1")
	require.NoError(t, err)
	assert.Equal(t, "v1.0.3", p.ModelVersion)
}

func TestLoop_Predict_WriteFailureSurfaces(t *testing.T) {
	env := setupLoop(t)
	env.predictions.insertErr = errors.New("disk full")

	_, err := env.loop.Predict(context.Background(), loopJob(), loopCandidate(), "tenant-1")
	require.Error(t, err)
	assert.Equal(t, commonerrors.ErrCodePredictionWriteFailed, commonerrors.CodeOf(err))
}

func TestDecideFromScore(t *testing.T) {
	tests := []struct {
		score    float64
		expected models.DecisionType
	}{
		{0.95, models.DecisionRecommend},
		{0.8, models.DecisionRecommend},
		{0.79, models.DecisionReview},
		{0.5, models.DecisionReview},
		{0.49, models.DecisionReject},
		{0.0, models.DecisionReject},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, DecideFromScore(tt.score), "score %.2f", tt.score)
	}
}

func TestConfidenceFromScore(t *testing.T) {
	// On a boundary the call is least confident.
	assert.InDelta(t, 0.5, ConfidenceFromScore(0.8), 1e-9)
	assert.InDelta(t, 0.5, ConfidenceFromScore(0.5), 1e-9)
	// Far from both boundaries the call is most confident.
	assert.InDelta(t, 1.0, ConfidenceFromScore(0.0), 1e-9)
	for _, score := range []float64{0, 0.25, 0.5, 0.65, 0.8, 0.9, 1} {
		c := ConfidenceFromScore(score)
		assert.GreaterOrEqual(t, c, 0.5)
		assert.LessOrEqual(t, c, 1.0)
	}
}

func TestRewardSignal_Monotonicity(t *testing.T) {
	for _, score := range []float64{1, 2.5, 4, 5} {
		hired := RewardSignal(models.OutcomeHired, score)
		shortlisted := RewardSignal(models.OutcomeShortlisted, score)
		rejected := RewardSignal(models.OutcomeRejected, score)

		assert.Greater(t, hired, shortlisted, "score %.1f", score)
		assert.Greater(t, shortlisted, rejected, "score %.1f", score)
		assert.LessOrEqual(t, hired, 1.0)
		assert.GreaterOrEqual(t, rejected, -1.0)
	}

	// Monotonic in feedback score within the hired band.
	assert.Greater(t, RewardSignal(models.OutcomeHired, 5), RewardSignal(models.OutcomeHired, 3))
}

func TestLoop_SubmitFeedback_Linked(t *testing.T) {
	env := setupLoop(t)
	ctx := context.Background()

	p, err := env.loop.Predict(ctx, loopJob(), loopCandidate(), "tenant-1")
	require.NoError(t, err)

	job := loopJob()
	candidate := loopCandidate()
	event, err := env.loop.SubmitFeedback(ctx, FeedbackRequest{
		PredictionID:  p.ID,
		CandidateID:   candidate.ID,
		JobID:         job.ID,
		TenantID:      "tenant-1",
		ActualOutcome: models.OutcomeHired,
		FeedbackScore: 5,
		Source:        models.SourceHR,
	}, &job, &candidate)
	require.NoError(t, err)

	assert.Equal(t, p.ID, event.PredictionID)
	assert.InDelta(t, 1.0, event.RewardSignal, 1e-9)
	require.Len(t, env.samples.samples, 1)
	assert.Equal(t, p.PredictedScore, env.samples.samples[0].MatchingScore)
	assert.NotEmpty(t, env.samples.samples[0].JobFeatures)
	assert.NotEmpty(t, env.samples.samples[0].CandidateFeatures)
}

func TestLoop_SubmitFeedback_Unsolicited(t *testing.T) {
	env := setupLoop(t)

	event, err := env.loop.SubmitFeedback(context.Background(), FeedbackRequest{
		CandidateID:   "cand-9",
		JobID:         "job-9",
		TenantID:      "tenant-1",
		ActualOutcome: models.OutcomeRejected,
		FeedbackScore: 2,
		Source:        models.SourceHR,
	}, nil, nil)
	require.NoError(t, err)

	assert.Empty(t, event.PredictionID)
	assert.InDelta(t, -0.4, event.RewardSignal, 1e-9)
	require.Len(t, env.feedback.events, 1)
}

func TestLoop_SubmitFeedback_HighScoreInvalidatesWeights(t *testing.T) {
	env := setupLoop(t)
	ctx := context.Background()

	_, err := env.loop.SubmitFeedback(ctx, FeedbackRequest{
		CandidateID:   "cand-1",
		JobID:         "job-1",
		TenantID:      "tenant-1",
		ActualOutcome: models.OutcomeHired,
		FeedbackScore: 4.5,
		Source:        models.SourceHR,
	}, nil, nil)
	require.NoError(t, err)

	version, err := env.weightCache.Version(ctx, "tenant-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)
}

func TestLoop_SubmitFeedback_LowScoreKeepsWeights(t *testing.T) {
	env := setupLoop(t)
	ctx := context.Background()

	_, err := env.loop.SubmitFeedback(ctx, FeedbackRequest{
		CandidateID:   "cand-1",
		JobID:         "job-1",
		TenantID:      "tenant-1",
		ActualOutcome: models.OutcomeShortlisted,
		FeedbackScore: 3,
		Source:        models.SourceHR,
	}, nil, nil)
	require.NoError(t, err)

	version, err := env.weightCache.Version(ctx, "tenant-1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), version)
}

func TestLoop_SubmitFeedback_FallsBackToLatestPrediction(t *testing.T) {
	env := setupLoop(t)
	ctx := context.Background()

	p, err := env.loop.Predict(ctx, loopJob(), loopCandidate(), "tenant-1")
	require.NoError(t, err)

	// No prediction id supplied; the pair's latest prediction is linked.
	event, err := env.loop.SubmitFeedback(ctx, FeedbackRequest{
		CandidateID:   "cand-1",
		JobID:         "job-1",
		TenantID:      "tenant-1",
		ActualOutcome: models.OutcomeShortlisted,
		FeedbackScore: 3,
		Source:        models.SourceSystem,
	}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, p.ID, event.PredictionID)
}
