// internal/store/postgres/analytics.go
package postgres

import (
	"context"
	"database/sql"

	commonerrors "matching-engine/internal/common/errors"
	"matching-engine/internal/models"
)

// AnalyticsStore aggregates learning-loop counts. Tenant scoping goes
// through job_profiles; an empty tenant id aggregates everything.
type AnalyticsStore struct {
	db *sql.DB
}

func NewAnalyticsStore(db *sql.DB) *AnalyticsStore {
	return &AnalyticsStore{db: db}
}

const analyticsCountsQuery = `
	SELECT
		(SELECT COUNT(*) FROM predictions p JOIN job_profiles j ON j.id = p.job_id
		 WHERE $1 = '' OR j.tenant_id = $1),
		(SELECT COUNT(*) FROM feedback_events f JOIN job_profiles j ON j.id = f.job_id
		 WHERE $1 = '' OR j.tenant_id = $1),
		(SELECT COALESCE(AVG(f.reward_signal), 0) FROM feedback_events f JOIN job_profiles j ON j.id = f.job_id
		 WHERE $1 = '' OR j.tenant_id = $1)`

const decisionCountsQuery = `
	SELECT p.decision_type, COUNT(*)
	FROM predictions p
	JOIN job_profiles j ON j.id = p.job_id
	WHERE $1 = '' OR j.tenant_id = $1
	GROUP BY p.decision_type`

func (s *AnalyticsStore) TenantAnalytics(ctx context.Context, tenantID string) (*models.TenantAnalytics, error) {
	analytics := &models.TenantAnalytics{
		TenantID:       tenantID,
		DecisionCounts: make(map[string]int),
	}

	err := s.db.QueryRowContext(ctx, analyticsCountsQuery, tenantID).Scan(
		&analytics.TotalPredictions, &analytics.TotalFeedback, &analytics.AverageReward,
	)
	if err != nil {
		return nil, commonerrors.NewQueryExecutionFailedError("analytics_counts", err)
	}

	rows, err := s.db.QueryContext(ctx, decisionCountsQuery, tenantID)
	if err != nil {
		return nil, commonerrors.NewQueryExecutionFailedError("decision_counts", err)
	}
	defer rows.Close()

	for rows.Next() {
		var decision string
		var count int
		if err := rows.Scan(&decision, &count); err != nil {
			return nil, commonerrors.NewQueryExecutionFailedError("scan_decision_counts", err)
		}
		analytics.DecisionCounts[decision] = count
	}
	if err := rows.Err(); err != nil {
		return nil, commonerrors.NewQueryExecutionFailedError("iterate_decision_counts", err)
	}
	return analytics, nil
}
