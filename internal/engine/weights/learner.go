// internal/engine/weights/learner.go
package weights

import (
	"context"
	"math"

	commonerrors "matching-engine/internal/common/errors"
	"matching-engine/internal/common/logger"
	"matching-engine/internal/common/metrics"
	"matching-engine/internal/models"
)

const (
	// minQualifyingSamples is the number of high-satisfaction feedback
	// records a tenant needs before its weights diverge from defaults.
	minQualifyingSamples = 3

	// qualifyingSatisfaction is the feedback score floor for a record to
	// count toward weight adaptation.
	qualifyingSatisfaction = 4.0

	weightEpsilon = 1e-6
)

// DefaultWeights returns the weight shares used for tenants with no
// qualifying feedback history. Shares sum to 1 and are scaled by the scorer
// before compositing.
func DefaultWeights() models.WeightVector {
	return models.WeightVector{
		Semantic:   0.40,
		Experience: 0.30,
		Skills:     0.20,
		Location:   0.10,
	}
}

// FeedbackStats summarizes a tenant's qualifying feedback history.
type FeedbackStats struct {
	QualifyingCount    int
	AvgSatisfaction    float64
	AvgExperienceHired float64
}

// FeedbackStatsSource provides aggregate feedback statistics per tenant.
type FeedbackStatsSource interface {
	HighSatisfactionStats(ctx context.Context, tenantID string, minScore float64) (*FeedbackStats, error)
}

// Learner derives per-tenant weight vectors from feedback history and keeps
// them in a ProfileCache. Recomputation is deterministic: the same stats
// always produce the same vector.
type Learner struct {
	stats  FeedbackStatsSource
	cache  ProfileCache
	logger logger.Logger
}

func NewLearner(stats FeedbackStatsSource, cache ProfileCache, log logger.Logger) *Learner {
	return &Learner{stats: stats, cache: cache, logger: log}
}

// WeightsFor returns the tenant's current weight profile, computing and
// caching it if absent. A cached profile that fails validation is discarded
// and recomputed rather than served.
func (l *Learner) WeightsFor(ctx context.Context, tenantID string) (*models.TenantWeightProfile, error) {
	if tenantID != "" {
		profile, ok, err := l.cache.Get(ctx, tenantID)
		if err != nil {
			l.logger.Warn("weight cache read failed, recomputing", map[string]interface{}{
				"tenant_id": tenantID,
				"error":     err.Error(),
			})
		} else if ok {
			if err := validateProfile(profile); err != nil {
				l.logger.Error("discarding corrupt weight profile", map[string]interface{}{
					"tenant_id": tenantID,
					"error":     err.Error(),
				})
				if invErr := l.cache.Invalidate(ctx, tenantID); invErr == nil {
					metrics.WeightCacheInvalidations.Inc()
				}
			} else {
				return profile, nil
			}
		}
	}

	profile, err := l.Recompute(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if tenantID != "" {
		if err := l.cache.Set(ctx, profile); err != nil {
			l.logger.Warn("weight cache write failed", map[string]interface{}{
				"tenant_id": tenantID,
				"error":     err.Error(),
			})
		}
	}
	return profile, nil
}

// Recompute derives a fresh weight profile from feedback statistics without
// touching the cache.
func (l *Learner) Recompute(ctx context.Context, tenantID string) (*models.TenantWeightProfile, error) {
	profile := &models.TenantWeightProfile{
		TenantID: tenantID,
		Weights:  DefaultWeights(),
	}

	if tenantID == "" || l.stats == nil {
		return profile, nil
	}

	stats, err := l.stats.HighSatisfactionStats(ctx, tenantID, qualifyingSatisfaction)
	if err != nil {
		return nil, commonerrors.NewQueryExecutionFailedError("feedback_stats", err)
	}
	if stats == nil || stats.QualifyingCount < minQualifyingSamples {
		return profile, nil
	}

	profile.Weights = adaptWeights(DefaultWeights(), stats)
	profile.AvgSatisfaction = stats.AvgSatisfaction
	profile.AvgExperienceHired = stats.AvgExperienceHired
	profile.FeedbackCount = stats.QualifyingCount

	version, err := l.cache.Version(ctx, tenantID)
	if err == nil {
		profile.Version = version
	}
	return profile, nil
}

// Invalidate drops the tenant's cached profile and bumps its version so
// batch results keyed on the old weights stop matching.
func (l *Learner) Invalidate(ctx context.Context, tenantID string) error {
	if tenantID == "" {
		return nil
	}
	if err := l.cache.Invalidate(ctx, tenantID); err != nil {
		return err
	}
	metrics.WeightCacheInvalidations.Inc()
	return nil
}

// adaptWeights applies the tenant's feedback signals to the default shares.
// Shifts move probability mass between components; the result is clamped to
// non-negative values and renormalized to sum to 1.
func adaptWeights(w models.WeightVector, stats *FeedbackStats) models.WeightVector {
	if stats.AvgSatisfaction > 4.5 {
		// Consistently satisfied tenants are matching well on skills
		// already. Redistribute a little toward experience and semantic fit.
		shift := math.Min(0.05, w.Skills)
		w.Skills -= shift
		w.Experience += shift / 2
		w.Semantic += shift / 2
	}

	if stats.AvgExperienceHired > 7 {
		shift := math.Min(0.10, w.Semantic)
		w.Semantic -= shift
		w.Experience += shift
	} else if stats.AvgExperienceHired > 0 && stats.AvgExperienceHired < 3 {
		shift := math.Min(0.10, w.Experience)
		w.Experience -= shift
		w.Skills += shift
	}

	return normalize(w)
}

func normalize(w models.WeightVector) models.WeightVector {
	w.Semantic = math.Max(0, w.Semantic)
	w.Experience = math.Max(0, w.Experience)
	w.Skills = math.Max(0, w.Skills)
	w.Location = math.Max(0, w.Location)

	sum := w.Sum()
	if sum < weightEpsilon {
		return DefaultWeights()
	}
	w.Semantic /= sum
	w.Experience /= sum
	w.Skills /= sum
	w.Location /= sum
	return w
}

func validateProfile(profile *models.TenantWeightProfile) error {
	if profile == nil {
		return commonerrors.NewWeightProfileCorruptError("", 0)
	}
	w := profile.Weights
	if w.Semantic < 0 || w.Experience < 0 || w.Skills < 0 || w.Location < 0 {
		return commonerrors.NewWeightProfileCorruptError(profile.TenantID, w.Sum())
	}
	if math.Abs(w.Sum()-1.0) > 0.01 {
		return commonerrors.NewWeightProfileCorruptError(profile.TenantID, w.Sum())
	}
	return nil
}
