// internal/engine/composite/scorer.go
package composite

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	commonerrors "matching-engine/internal/common/errors"
	"matching-engine/internal/common/logger"
	"matching-engine/internal/common/metrics"
	"matching-engine/internal/engine/culture"
	"matching-engine/internal/engine/scoring"
	"matching-engine/internal/engine/weights"
	"matching-engine/internal/models"
)

const (
	// Cultural fit always carries this fixed share of the composite.
	culturalWeight = 0.1

	// neutralComponent replaces any text-derived component whose strategy
	// call failed, so one outage degrades the score instead of killing it.
	neutralComponent = 0.5

	// Display scale: raw [0,1] maps to [45,95] for presentation.
	displayBase  = 45.0
	displaySpan  = 50.0
	displayStep  = 0.8
	displayFloor = 0.0
)

// Scorer composes the five component scores into one weighted total using
// the tenant's learned weights.
type Scorer struct {
	strategy scoring.Strategy
	culture  *culture.Estimator
	learner  *weights.Learner
	logger   logger.Logger
}

func NewScorer(strategy scoring.Strategy, cultureEst *culture.Estimator, learner *weights.Learner, log logger.Logger) *Scorer {
	return &Scorer{
		strategy: strategy,
		culture:  cultureEst,
		learner:  learner,
		logger:   log,
	}
}

// Score computes the full breakdown for one (job, candidate) pair. Strategy
// failures never propagate as errors: the failed component falls back to
// neutral and the breakdown is flagged degraded.
func (s *Scorer) Score(ctx context.Context, job models.JobProfile, candidate models.CandidateProfile, tenantID string) (models.ScoreBreakdown, error) {
	start := time.Now()

	profile, err := s.learner.WeightsFor(ctx, tenantID)
	if err != nil {
		metrics.ScoresComputed.WithLabelValues(s.strategy.Name(), string(models.OutcomeFailed)).Inc()
		return models.ScoreBreakdown{}, err
	}

	breakdown := models.ScoreBreakdown{Weights: profile.Weights}

	breakdown.SemanticSimilarity = s.component(ctx, "semantic", &breakdown, func() (float64, error) {
		return s.strategy.SemanticSimilarity(ctx, job, candidate)
	})
	breakdown.SkillsMatch = s.component(ctx, "skills", &breakdown, func() (float64, error) {
		return s.strategy.SkillsMatch(ctx, job, candidate)
	})
	breakdown.LocationMatch = s.component(ctx, "location", &breakdown, func() (float64, error) {
		return s.strategy.LocationMatch(ctx, job, candidate)
	})
	breakdown.ExperienceMatch = scoring.Clamp01(scoring.ExperienceMatch(job, candidate))
	breakdown.CulturalFit = scoring.Clamp01(s.culture.Estimate(ctx, tenantID, candidate.ID))

	eff := profile.Weights.Effective()
	breakdown.TotalScore = scoring.Clamp01(
		breakdown.SemanticSimilarity*eff.Semantic +
			breakdown.ExperienceMatch*eff.Experience +
			breakdown.SkillsMatch*eff.Skills +
			breakdown.LocationMatch*eff.Location +
			breakdown.CulturalFit*culturalWeight)

	outcome := models.OutcomeOK
	if breakdown.Degraded {
		outcome = models.OutcomeDegraded
	}
	metrics.ScoresComputed.WithLabelValues(s.strategy.Name(), string(outcome)).Inc()
	metrics.ScoreDuration.WithLabelValues(s.strategy.Name()).Observe(time.Since(start).Seconds())

	return breakdown, nil
}

func (s *Scorer) component(ctx context.Context, name string, breakdown *models.ScoreBreakdown, fn func() (float64, error)) float64 {
	score, err := fn()
	if err != nil {
		stdErr := commonerrors.NewEmbeddingUnavailableError(err)
		s.logger.Warn("component scoring degraded to neutral", map[string]interface{}{
			"component":  name,
			"strategy":   s.strategy.Name(),
			"error_code": string(stdErr.Code),
			"error":      err.Error(),
		})
		breakdown.Degraded = true
		return neutralComponent
	}
	return scoring.Clamp01(score)
}

// Rank scores every candidate against the job and returns them best first.
// Ties on raw score break by candidate id so the order is reproducible.
func (s *Scorer) Rank(ctx context.Context, job models.JobProfile, candidates []models.CandidateProfile, tenantID string) ([]models.RankedMatch, error) {
	matches := make([]models.RankedMatch, 0, len(candidates))
	for _, candidate := range candidates {
		breakdown, err := s.Score(ctx, job, candidate, tenantID)
		if err != nil {
			return nil, err
		}
		matches = append(matches, models.RankedMatch{
			CandidateID: candidate.ID,
			Score:       breakdown.TotalScore,
			Breakdown:   breakdown,
			Reasoning:   buildReasoning(breakdown),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].CandidateID < matches[j].CandidateID
	})

	ApplyDisplayScores(matches)
	return matches, nil
}

// ApplyDisplayScores rescales raw scores for presentation and forces strict
// descent so adjacent rows never show the same number. Only the display
// value is adjusted; raw scores and ordering are untouched.
func ApplyDisplayScores(matches []models.RankedMatch) {
	for i := range matches {
		display := displayBase + matches[i].Score*displaySpan
		if i > 0 && display >= matches[i-1].DisplayScore {
			display = matches[i-1].DisplayScore - displayStep
		}
		if display < displayFloor {
			display = displayFloor
		}
		matches[i].DisplayScore = display
	}
}

func buildReasoning(b models.ScoreBreakdown) string {
	parts := []string{
		fmt.Sprintf("semantic %.2f", b.SemanticSimilarity),
		fmt.Sprintf("experience %.2f", b.ExperienceMatch),
		fmt.Sprintf("skills %.2f", b.SkillsMatch),
		fmt.Sprintf("location %.2f", b.LocationMatch),
		fmt.Sprintf("culture %.2f", b.CulturalFit),
	}
	reason := strings.Join(parts, ", ")
	if b.Degraded {
		reason += " (partial: semantic service unavailable)"
	}
	return reason
}
