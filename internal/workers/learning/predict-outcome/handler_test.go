// internal/workers/learning/predict-outcome/handler_test.go
package predictoutcome

import (
	"context"
	"testing"
	"time"

	commonerrors "matching-engine/internal/common/errors"
	"matching-engine/internal/common/logger"
	"matching-engine/internal/engine/composite"
	"matching-engine/internal/engine/culture"
	"matching-engine/internal/engine/learning"
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
	inserted []*models.Prediction
}

func (m *memPredictions) Insert(_ context.Context, p *models.Prediction) error {
	cp := *p
	m.inserted = append(m.inserted, &cp)
	return nil
}

func (m *memPredictions) GetByID(_ context.Context, _ string) (*models.Prediction, error) {
	return nil, commonerrors.NewInvalidInputError("not found")
}

func (m *memPredictions) LatestForPair(_ context.Context, _, _ string) (*models.Prediction, error) {
	return nil, commonerrors.NewInvalidInputError("not found")
}

type memFeedback struct{}

func (memFeedback) Insert(_ context.Context, _ *models.FeedbackEvent) error { return nil }

type memSamples struct{}

func (memSamples) Insert(_ context.Context, _ *models.TrainingSample) error { return nil }

type noVersions struct{}

func (noVersions) Latest(_ context.Context) (*models.ModelVersion, error) { return nil, nil }

type stubJobs struct {
	job *models.JobProfile
}

func (s *stubJobs) GetJob(_ context.Context, jobID string) (*models.JobProfile, error) {
	if s.job == nil {
		return nil, commonerrors.NewJobNotFoundError(jobID)
	}
	return s.job, nil
}

type stubCandidates struct {
	candidate *models.CandidateProfile
}

func (s *stubCandidates) GetCandidate(_ context.Context, candidateID string) (*models.CandidateProfile, error) {
	if s.candidate == nil {
		return nil, commonerrors.NewCandidateNotFoundError(candidateID)
	}
	return s.candidate, nil
}

func setupHandler(t *testing.T) (*Handler, *memPredictions) {
	log := logger.NewTestLogger(t)
	learner := weights.NewLearner(noStats{}, weights.NewMemoryProfileCache(), log)
	scorer := composite.NewScorer(scoring.NewFallbackStrategy(), culture.NewEstimator(noRatings{}, log), learner, log)
	predictions := &memPredictions{}
	loop := learning.NewLoop(scorer, learner, predictions, memFeedback{}, memSamples{}, noVersions{}, log)

	jobs := &stubJobs{job: &models.JobProfile{
		ID:              "job-1",
		Title:           "Senior Python Developer",
		Requirements:    "python django",
		Location:        "Remote",
		ExperienceLevel: "senior",
		TenantID:        "tenant-1",
	}}
	candidates := &stubCandidates{candidate: &models.CandidateProfile{
		ID:              "cand-1",
		Skills:          "python django",
		ExperienceYears: 6,
		Location:        "Remote",
		TenantID:        "tenant-1",
	}}

	config := &Config{Timeout: 30 * time.Second}
	return NewHandler(config, jobs, candidates, loop, log), predictions
}

func TestHandler_Execute(t *testing.T) {
	handler, predictions := setupHandler(t)

	output, err := handler.Execute(context.Background(), &Input{
		CandidateID: "cand-1",
		JobID:       "job-1",
		TenantID:    "tenant-1",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, output.PredictionID)
	assert.Greater(t, output.Score, 0.0)
	assert.Contains(t, []string{"recommend", "review", "reject"}, output.DecisionType)
	assert.GreaterOrEqual(t, output.Confidence, 0.5)
	assert.Equal(t, models.BaselineModelVersion, output.ModelVersion)

	// The prediction was persisted before the output was built.
	require.Len(t, predictions.inserted, 1)
	assert.Equal(t, output.PredictionID, predictions.inserted[0].ID)
}

func TestHandler_Execute_JobNotFound(t *testing.T) {
	handler, _ := setupHandler(t)
	handler.jobs = &stubJobs{}

	_, err := handler.Execute(context.Background(), &Input{CandidateID: "cand-1", JobID: "missing"})

	require.Error(t, err)
	assert.Equal(t, commonerrors.ErrCodeJobNotFound, commonerrors.CodeOf(err))
}

func TestHandler_Execute_CandidateNotFound(t *testing.T) {
	handler, _ := setupHandler(t)
	handler.candidates = &stubCandidates{}

	_, err := handler.Execute(context.Background(), &Input{CandidateID: "missing", JobID: "job-1"})

	require.Error(t, err)
	assert.Equal(t, commonerrors.ErrCodeCandidateNotFound, commonerrors.CodeOf(err))
}

func TestHandler_ParseInput(t *testing.T) {
	handler, _ := setupHandler(t)

	tests := []struct {
		name      string
		variables string
		wantErr   bool
	}{
		{
			name:      "valid",
			variables: `{"candidateId": "cand-1", "jobId": "job-1", "tenantId": "t1"}`,
		},
		{
			name:      "missing candidateId",
			variables: `{"jobId": "job-1"}`,
			wantErr:   true,
		},
		{
			name:      "missing jobId",
			variables: `{"candidateId": "cand-1"}`,
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input, err := handler.parseInput(tt.variables)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, commonerrors.ErrCodeInvalidInput, commonerrors.CodeOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "cand-1", input.CandidateID)
		})
	}
}
