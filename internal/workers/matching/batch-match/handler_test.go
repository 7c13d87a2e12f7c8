// internal/workers/matching/batch-match/handler_test.go
package batchmatch

import (
	"context"
	"fmt"
	"testing"
	"time"

	commonerrors "matching-engine/internal/common/errors"
	"matching-engine/internal/common/logger"
	"matching-engine/internal/engine/composite"
	"matching-engine/internal/engine/culture"
	"matching-engine/internal/engine/pipeline"
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

type stubJobs struct {
	jobs map[string]models.JobProfile
}

func (s *stubJobs) GetJobs(_ context.Context, jobIDs []string) ([]models.JobProfile, error) {
	var out []models.JobProfile
	for _, id := range jobIDs {
		if job, ok := s.jobs[id]; ok {
			out = append(out, job)
		}
	}
	return out, nil
}

type stubPool struct {
	candidates []models.CandidateProfile
	calls      int
}

func (s *stubPool) SearchPool(_ context.Context, _ string, _ models.JobProfile, size int) ([]models.CandidateProfile, error) {
	s.calls++
	if len(s.candidates) > size {
		return s.candidates[:size], nil
	}
	return s.candidates, nil
}

func createTestConfig() *Config {
	return &Config{
		Timeout:         60 * time.Second,
		MaxBatchJobs:    10,
		BatchCandidates: 5,
	}
}

func testPipeline(t *testing.T) *pipeline.Pipeline {
	log := logger.NewTestLogger(t)
	weightCache := weights.NewMemoryProfileCache()
	learner := weights.NewLearner(noStats{}, weightCache, log)
	scorer := composite.NewScorer(scoring.NewFallbackStrategy(), culture.NewEstimator(noRatings{}, log), learner, log)
	return pipeline.New(scorer, weightCache, nil, pipeline.Options{TopN: 3}, log)
}

func makeJobs(ids ...string) map[string]models.JobProfile {
	jobs := make(map[string]models.JobProfile, len(ids))
	for _, id := range ids {
		jobs[id] = models.JobProfile{
			ID:              id,
			Title:           "Backend Engineer",
			Requirements:    "go postgres kubernetes",
			Location:        "Remote",
			ExperienceLevel: "mid",
			TenantID:        "tenant-1",
		}
	}
	return jobs
}

func makeCandidates(n int) []models.CandidateProfile {
	candidates := make([]models.CandidateProfile, n)
	for i := range candidates {
		candidates[i] = models.CandidateProfile{
			ID:              fmt.Sprintf("cand-%03d", i),
			Skills:          "go postgres",
			ExperienceYears: 3 + i%5,
			Location:        "Remote",
			TenantID:        "tenant-1",
		}
	}
	return candidates
}

func TestHandler_Execute_BatchTooLarge(t *testing.T) {
	handler := NewHandler(createTestConfig(), &stubJobs{}, &stubPool{}, testPipeline(t), logger.NewTestLogger(t))

	ids := make([]string, 11)
	for i := range ids {
		ids[i] = fmt.Sprintf("job-%02d", i)
	}

	_, err := handler.Execute(context.Background(), &Input{JobIDs: ids, TenantID: "tenant-1"})

	require.Error(t, err)
	assert.Equal(t, commonerrors.ErrCodeInvalidInput, commonerrors.CodeOf(err))
	assert.Contains(t, err.Error(), "at most 10 jobs")
}

func TestHandler_Execute_OneEntryPerRequestedJob(t *testing.T) {
	jobs := makeJobs("job-1", "job-2", "job-3")
	pool := &stubPool{candidates: makeCandidates(8)}
	handler := NewHandler(createTestConfig(), &stubJobs{jobs: jobs}, pool, testPipeline(t), logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{
		JobIDs:   []string{"job-1", "job-2", "job-3", "job-missing"},
		TenantID: "tenant-1",
	})

	require.NoError(t, err)
	require.Len(t, output.Results, 4)
	for _, id := range []string{"job-1", "job-2", "job-3"} {
		matches := output.Results[id]
		assert.NotEmpty(t, matches, id)
		assert.LessOrEqual(t, len(matches), 3, id)
	}

	// Unknown ids come back empty rather than absent.
	missing, ok := output.Results["job-missing"]
	require.True(t, ok)
	assert.Empty(t, missing)

	// One pool lookup per existing job.
	assert.Equal(t, 3, pool.calls)
}

func TestHandler_Execute_DeduplicatesPool(t *testing.T) {
	jobs := makeJobs("job-1", "job-2")
	// Both jobs resolve the same candidates; the union must not double-score.
	pool := &stubPool{candidates: makeCandidates(4)}
	handler := NewHandler(createTestConfig(), &stubJobs{jobs: jobs}, pool, testPipeline(t), logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{
		JobIDs:   []string{"job-1", "job-2"},
		TenantID: "tenant-1",
	})

	require.NoError(t, err)
	for _, matches := range output.Results {
		seen := make(map[string]bool)
		for _, m := range matches {
			assert.False(t, seen[m.CandidateID], "candidate %s ranked twice", m.CandidateID)
			seen[m.CandidateID] = true
		}
	}
}

func TestHandler_ParseInput(t *testing.T) {
	handler := NewHandler(createTestConfig(), &stubJobs{}, &stubPool{}, testPipeline(t), logger.NewTestLogger(t))

	tests := []struct {
		name      string
		variables string
		wantErr   bool
	}{
		{
			name:      "valid",
			variables: `{"jobIds": ["job-1", "job-2"], "tenantId": "t1"}`,
		},
		{
			name:      "missing jobIds",
			variables: `{"tenantId": "t1"}`,
			wantErr:   true,
		},
		{
			name:      "empty jobIds",
			variables: `{"jobIds": []}`,
			wantErr:   true,
		},
		{
			name:      "blank id",
			variables: `{"jobIds": [""]}`,
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
			assert.Len(t, input.JobIDs, 2)
		})
	}
}
