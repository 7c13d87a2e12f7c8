// internal/engine/scoring/strategy_test.go
package scoring

import (
	"context"
	"errors"
	"testing"

	"matching-engine/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubProvider returns a fixed vector per text so similarity is predictable.
type stubProvider struct {
	vectors map[string][]float64
	err     error
}

func (s *stubProvider) Embed(_ context.Context, text string) ([]float64, error) {
	if s.err != nil {
		return nil, s.err
	}
	if v, ok := s.vectors[text]; ok {
		return v, nil
	}
	return []float64{1, 0, 0}, nil
}

func TestAdvancedStrategy_SkillsMatch_EmptySkills(t *testing.T) {
	strategy := NewAdvancedStrategy(&stubProvider{})

	job := models.JobProfile{Requirements: "Python, Django, PostgreSQL"}
	candidate := models.CandidateProfile{Skills: ""}

	score, err := strategy.SkillsMatch(context.Background(), job, candidate)
	require.NoError(t, err)
	assert.Equal(t, 0.0, score)
}

func TestAdvancedStrategy_SkillsMatch_EmptyRequirements(t *testing.T) {
	strategy := NewAdvancedStrategy(&stubProvider{})

	score, err := strategy.SkillsMatch(context.Background(),
		models.JobProfile{Requirements: "   "},
		models.CandidateProfile{Skills: "Python"})
	require.NoError(t, err)
	assert.Equal(t, 0.0, score)
}

func TestAdvancedStrategy_LocationMatch(t *testing.T) {
	strategy := NewAdvancedStrategy(&stubProvider{})

	tests := []struct {
		name     string
		jobLoc   string
		candLoc  string
		expected float64
	}{
		{name: "remote job always matches", jobLoc: "Remote (EU)", candLoc: "Lisbon", expected: 1.0},
		{name: "exact match", jobLoc: "Berlin", candLoc: "berlin", expected: 1.0},
		{name: "blank candidate is neutral", jobLoc: "Berlin", candLoc: "", expected: 0.5},
		{name: "blank job is neutral", jobLoc: "", candLoc: "Berlin", expected: 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, err := strategy.LocationMatch(context.Background(),
				models.JobProfile{Location: tt.jobLoc},
				models.CandidateProfile{Location: tt.candLoc})
			require.NoError(t, err)
			assert.Equal(t, tt.expected, score)
		})
	}
}

func TestAdvancedStrategy_SemanticSimilarity_ProviderError(t *testing.T) {
	strategy := NewAdvancedStrategy(&stubProvider{err: errors.New("connection refused")})

	_, err := strategy.SemanticSimilarity(context.Background(),
		models.JobProfile{Title: "Engineer"},
		models.CandidateProfile{Skills: "Go"})
	assert.Error(t, err)
}

func TestAdvancedStrategy_SemanticSimilarity_IdenticalVectors(t *testing.T) {
	provider := &stubProvider{vectors: map[string][]float64{}}
	strategy := NewAdvancedStrategy(provider)

	score, err := strategy.SemanticSimilarity(context.Background(),
		models.JobProfile{Title: "Backend Engineer"},
		models.CandidateProfile{Skills: "Go services"})
	require.NoError(t, err)
	assert.Equal(t, 1.0, score)
}

func TestFallbackStrategy_SkillsOverlap(t *testing.T) {
	strategy := NewFallbackStrategy()

	tests := []struct {
		name     string
		req      string
		skills   string
		expected float64
	}{
		{name: "full overlap", req: "python django", skills: "Python Django", expected: 1.0},
		{name: "partial overlap", req: "python django redis postgres", skills: "python redis", expected: 1.0},
		{name: "half overlap", req: "python django", skills: "python golang kubernetes docker", expected: 0.5},
		{name: "no overlap", req: "python", skills: "haskell", expected: 0.0},
		{name: "empty skills", req: "python", skills: "", expected: 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, err := strategy.SkillsMatch(context.Background(),
				models.JobProfile{Requirements: tt.req},
				models.CandidateProfile{Skills: tt.skills})
			require.NoError(t, err)
			assert.InDelta(t, tt.expected, score, 1e-9)
		})
	}
}

func TestFallbackStrategy_SeniorPythonRemoteScenario(t *testing.T) {
	strategy := NewFallbackStrategy()
	job := models.JobProfile{
		Title:           "Senior Python Developer",
		Requirements:    "Python",
		Location:        "Remote",
		ExperienceLevel: "senior",
	}
	candidate := models.CandidateProfile{
		Skills:          "Python, Flask",
		ExperienceYears: 5,
		Location:        "Austin",
	}

	location, err := strategy.LocationMatch(context.Background(), job, candidate)
	require.NoError(t, err)
	assert.Equal(t, 1.0, location)

	skills, err := strategy.SkillsMatch(context.Background(), job, candidate)
	require.NoError(t, err)
	assert.Greater(t, skills, 0.0)

	assert.Equal(t, 1.0, ExperienceMatch(job, candidate))
}
