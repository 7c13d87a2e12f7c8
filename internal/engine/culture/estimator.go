// internal/engine/culture/estimator.go
package culture

import (
	"context"

	"matching-engine/internal/common/logger"
)

// subRatings are the five behavioral dimensions HR can attach to feedback,
// each on a 0-5 scale.
var subRatings = []string{"integrity", "honesty", "discipline", "hard_work", "gratitude"}

const neutralScore = 0.5

// RatingsSource yields the historical culture ratings recorded against a
// candidate across a tenant's jobs. One map per feedback event; absent keys
// mean the rating was not filled in.
type RatingsSource interface {
	CandidateCultureRatings(ctx context.Context, tenantID, candidateID string) ([]map[string]float64, error)
}

// Estimator turns accumulated feedback ratings into a [0,1] cultural fit
// score.
type Estimator struct {
	source RatingsSource
	logger logger.Logger
}

func NewEstimator(source RatingsSource, log logger.Logger) *Estimator {
	return &Estimator{source: source, logger: log}
}

// Estimate averages the five sub-ratings over the candidate's feedback
// history with this tenant. Missing sub-ratings count as 0 contribution so
// partial records cannot inflate the score. No tenant or no history means
// neutral 0.5.
func (e *Estimator) Estimate(ctx context.Context, tenantID, candidateID string) float64 {
	if tenantID == "" || candidateID == "" {
		return neutralScore
	}

	records, err := e.source.CandidateCultureRatings(ctx, tenantID, candidateID)
	if err != nil {
		e.logger.Warn("culture ratings lookup failed, using neutral fit", map[string]interface{}{
			"tenantId":    tenantID,
			"candidateId": candidateID,
			"error":       err,
		})
		return neutralScore
	}
	if len(records) == 0 {
		return neutralScore
	}

	var total float64
	for _, record := range records {
		var sum float64
		for _, key := range subRatings {
			if v := record[key]; v > 0 {
				if v > 5 {
					v = 5
				}
				sum += v
			}
		}
		// each record normalizes over all five dimensions at full scale
		total += sum / (5.0 * 5.0)
	}

	score := total / float64(len(records))
	if score > 1 {
		score = 1
	}
	return score
}
