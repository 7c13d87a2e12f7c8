// internal/store/postgres/feedback.go
package postgres

import (
	"context"
	"database/sql"

	commonerrors "matching-engine/internal/common/errors"
	"matching-engine/internal/engine/weights"
	"matching-engine/internal/models"
)

// FeedbackStore appends feedback events and serves the aggregates consumed
// by the weight learner and cultural fit estimator. Tenant scoping goes
// through the job that was matched.
type FeedbackStore struct {
	db *sql.DB
}

func NewFeedbackStore(db *sql.DB) *FeedbackStore {
	return &FeedbackStore{db: db}
}

const insertFeedbackQuery = `
	INSERT INTO feedback_events (id, prediction_id, candidate_id, job_id, actual_outcome, feedback_score, reward_signal, source, created_at)
	VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6, $7, $8, $9)`

func (s *FeedbackStore) Insert(ctx context.Context, f *models.FeedbackEvent) error {
	_, err := s.db.ExecContext(ctx, insertFeedbackQuery,
		f.ID, f.PredictionID, f.CandidateID, f.JobID,
		string(f.ActualOutcome), f.FeedbackScore, f.RewardSignal, string(f.Source), f.CreatedAt,
	)
	return err
}

const highSatisfactionStatsQuery = `
	SELECT COUNT(*),
	       COALESCE(AVG(f.feedback_score), 0),
	       COALESCE(AVG(c.experience_years) FILTER (WHERE f.actual_outcome = 'hired'), 0)
	FROM feedback_events f
	JOIN job_profiles j ON j.id = f.job_id
	JOIN candidate_profiles c ON c.id = f.candidate_id
	WHERE j.tenant_id = $1 AND f.feedback_score >= $2`

// HighSatisfactionStats aggregates the tenant's qualifying feedback for
// weight adaptation.
func (s *FeedbackStore) HighSatisfactionStats(ctx context.Context, tenantID string, minScore float64) (*weights.FeedbackStats, error) {
	var stats weights.FeedbackStats
	err := s.db.QueryRowContext(ctx, highSatisfactionStatsQuery, tenantID, minScore).Scan(
		&stats.QualifyingCount, &stats.AvgSatisfaction, &stats.AvgExperienceHired,
	)
	if err != nil {
		return nil, commonerrors.NewQueryExecutionFailedError("high_satisfaction_stats", err)
	}
	return &stats, nil
}

const cultureRatingsQuery = `
	SELECT f.integrity_rating, f.honesty_rating, f.discipline_rating, f.hard_work_rating, f.gratitude_rating
	FROM feedback_events f
	JOIN job_profiles j ON j.id = f.job_id
	WHERE j.tenant_id = $1 AND f.candidate_id = $2
	ORDER BY f.created_at`

// CandidateCultureRatings returns one map per feedback event holding the
// behavioral sub-ratings HR filled in. Null columns are omitted from the
// map.
func (s *FeedbackStore) CandidateCultureRatings(ctx context.Context, tenantID, candidateID string) ([]map[string]float64, error) {
	rows, err := s.db.QueryContext(ctx, cultureRatingsQuery, tenantID, candidateID)
	if err != nil {
		return nil, commonerrors.NewQueryExecutionFailedError("culture_ratings", err)
	}
	defer rows.Close()

	var ratings []map[string]float64
	for rows.Next() {
		var integrity, honesty, discipline, hardWork, gratitude sql.NullFloat64
		if err := rows.Scan(&integrity, &honesty, &discipline, &hardWork, &gratitude); err != nil {
			return nil, commonerrors.NewQueryExecutionFailedError("scan_culture_ratings", err)
		}
		record := make(map[string]float64, 5)
		put(record, "integrity", integrity)
		put(record, "honesty", honesty)
		put(record, "discipline", discipline)
		put(record, "hard_work", hardWork)
		put(record, "gratitude", gratitude)
		ratings = append(ratings, record)
	}
	if err := rows.Err(); err != nil {
		return nil, commonerrors.NewQueryExecutionFailedError("iterate_culture_ratings", err)
	}
	return ratings, nil
}

func put(record map[string]float64, key string, val sql.NullFloat64) {
	if val.Valid {
		record[key] = val.Float64
	}
}
