// internal/engine/scoring/strategy.go
package scoring

import (
	"context"
	"strings"

	"matching-engine/internal/common/embedding"
	"matching-engine/internal/models"
)

// Strategy computes the text-derived component scores. Advanced uses the
// embedding provider; Fallback works lexically with no external calls. Both
// are chosen at construction time, never at call sites.
type Strategy interface {
	Name() string
	SemanticSimilarity(ctx context.Context, job models.JobProfile, candidate models.CandidateProfile) (float64, error)
	SkillsMatch(ctx context.Context, job models.JobProfile, candidate models.CandidateProfile) (float64, error)
	LocationMatch(ctx context.Context, job models.JobProfile, candidate models.CandidateProfile) (float64, error)
}

// AdvancedStrategy scores with embedding cosine similarity.
type AdvancedStrategy struct {
	provider embedding.Provider
}

func NewAdvancedStrategy(provider embedding.Provider) *AdvancedStrategy {
	return &AdvancedStrategy{provider: provider}
}

func (s *AdvancedStrategy) Name() string { return "advanced" }

// SemanticSimilarity embeds the full job text against the full candidate
// text. Negative cosine floors to 0.
func (s *AdvancedStrategy) SemanticSimilarity(ctx context.Context, job models.JobProfile, candidate models.CandidateProfile) (float64, error) {
	jv, err := s.provider.Embed(ctx, jobText(job))
	if err != nil {
		return 0, err
	}
	cv, err := s.provider.Embed(ctx, candidateText(candidate))
	if err != nil {
		return 0, err
	}
	return Clamp01(CosineSimilarity(jv, cv)), nil
}

// SkillsMatch compares the job requirements text to the candidate skills
// blob. Empty text on either side scores exactly 0.
func (s *AdvancedStrategy) SkillsMatch(ctx context.Context, job models.JobProfile, candidate models.CandidateProfile) (float64, error) {
	req := strings.TrimSpace(job.Requirements)
	skills := strings.TrimSpace(candidate.Skills)
	if req == "" || skills == "" {
		return 0, nil
	}

	rv, err := s.provider.Embed(ctx, req)
	if err != nil {
		return 0, err
	}
	sv, err := s.provider.Embed(ctx, skills)
	if err != nil {
		return 0, err
	}
	return Clamp01(CosineSimilarity(rv, sv)), nil
}

// LocationMatch is 1.0 for remote jobs or equal locations, neutral when
// either side is blank, and embedding similarity otherwise.
func (s *AdvancedStrategy) LocationMatch(ctx context.Context, job models.JobProfile, candidate models.CandidateProfile) (float64, error) {
	jobLoc := strings.TrimSpace(job.Location)
	candLoc := strings.TrimSpace(candidate.Location)

	if isRemote(jobLoc) {
		return 1.0, nil
	}
	if jobLoc == "" || candLoc == "" {
		return 0.5, nil
	}
	if strings.EqualFold(jobLoc, candLoc) {
		return 1.0, nil
	}

	jv, err := s.provider.Embed(ctx, jobLoc)
	if err != nil {
		return 0, err
	}
	cv, err := s.provider.Embed(ctx, candLoc)
	if err != nil {
		return 0, err
	}
	return Clamp01(CosineSimilarity(jv, cv)), nil
}

// FallbackStrategy scores lexically by token overlap. It keeps ranking
// available when no embedding provider is configured.
type FallbackStrategy struct{}

func NewFallbackStrategy() *FallbackStrategy {
	return &FallbackStrategy{}
}

func (s *FallbackStrategy) Name() string { return "fallback" }

func (s *FallbackStrategy) SemanticSimilarity(_ context.Context, job models.JobProfile, candidate models.CandidateProfile) (float64, error) {
	return tokenOverlap(jobText(job), candidateText(candidate)), nil
}

func (s *FallbackStrategy) SkillsMatch(_ context.Context, job models.JobProfile, candidate models.CandidateProfile) (float64, error) {
	req := strings.TrimSpace(job.Requirements)
	skills := strings.TrimSpace(candidate.Skills)
	if req == "" || skills == "" {
		return 0, nil
	}
	return tokenOverlap(req, skills), nil
}

func (s *FallbackStrategy) LocationMatch(_ context.Context, job models.JobProfile, candidate models.CandidateProfile) (float64, error) {
	jobLoc := strings.TrimSpace(job.Location)
	candLoc := strings.TrimSpace(candidate.Location)

	if isRemote(jobLoc) {
		return 1.0, nil
	}
	if jobLoc == "" || candLoc == "" {
		return 0.5, nil
	}
	if strings.EqualFold(jobLoc, candLoc) {
		return 1.0, nil
	}
	return tokenOverlap(jobLoc, candLoc), nil
}

// tokenOverlap is the share of the smaller token set found in the larger
// one. Punctuation-separated tokens are compared case-insensitively.
func tokenOverlap(a, b string) float64 {
	ta := tokenize(a)
	tb := tokenize(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	if len(tb) < len(ta) {
		ta, tb = tb, ta
	}

	larger := make(map[string]struct{}, len(tb))
	for _, tok := range tb {
		larger[tok] = struct{}{}
	}

	matched := 0
	seen := make(map[string]struct{}, len(ta))
	for _, tok := range ta {
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		if _, ok := larger[tok]; ok {
			matched++
		}
	}

	return Clamp01(float64(matched) / float64(len(seen)))
}

func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9') && r != '+' && r != '#'
	})
	out := fields[:0]
	for _, f := range fields {
		if len(f) > 1 || f == "c" || f == "r" {
			out = append(out, f)
		}
	}
	return out
}
