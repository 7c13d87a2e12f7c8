// internal/engine/learning/analytics.go
package learning

import (
	"context"

	commonerrors "matching-engine/internal/common/errors"
	"matching-engine/internal/models"
)

// AnalyticsSource aggregates learning-loop counts from the store.
type AnalyticsSource interface {
	TenantAnalytics(ctx context.Context, tenantID string) (*models.TenantAnalytics, error)
}

// AnalyticsService answers the analytics and performance queries.
type AnalyticsService struct {
	source   AnalyticsSource
	versions VersionStore
}

func NewAnalyticsService(source AnalyticsSource, versions VersionStore) *AnalyticsService {
	return &AnalyticsService{source: source, versions: versions}
}

// Analytics returns the tenant's prediction and feedback aggregates. An
// empty tenant id aggregates across all tenants.
func (s *AnalyticsService) Analytics(ctx context.Context, tenantID string) (*models.TenantAnalytics, error) {
	analytics, err := s.source.TenantAnalytics(ctx, tenantID)
	if err != nil {
		return nil, commonerrors.NewQueryExecutionFailedError("tenant_analytics", err)
	}
	if analytics.TotalPredictions > 0 {
		analytics.FeedbackRate = float64(analytics.TotalFeedback) / float64(analytics.TotalPredictions)
	}
	return analytics, nil
}

// Performance returns the named model version, or the current one when the
// version argument is empty. Current means the most recent version whose
// accuracy is not degraded to zero.
func (s *AnalyticsService) Performance(ctx context.Context, version string) (*models.ModelVersion, error) {
	if version != "" {
		v, err := s.versions.Get(ctx, version)
		if err != nil {
			return nil, err
		}
		return v, nil
	}

	all, err := s.versions.List(ctx)
	if err != nil {
		return nil, commonerrors.NewQueryExecutionFailedError("model_versions", err)
	}
	for i := len(all) - 1; i >= 0; i-- {
		if all[i].Accuracy > 0 {
			v := all[i]
			return &v, nil
		}
	}
	return nil, commonerrors.NewInvalidInputError("no model versions have been published yet")
}
