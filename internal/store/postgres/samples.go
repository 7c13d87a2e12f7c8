// internal/store/postgres/samples.go
package postgres

import (
	"context"
	"database/sql"
	"time"

	commonerrors "matching-engine/internal/common/errors"
	"matching-engine/internal/models"
)

// SampleStore persists training samples for the retrain controller.
type SampleStore struct {
	db *sql.DB
}

func NewSampleStore(db *sql.DB) *SampleStore {
	return &SampleStore{db: db}
}

const insertSampleQuery = `
	INSERT INTO training_samples (id, candidate_features, job_features, matching_score, actual_outcome, reward, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)`

func (s *SampleStore) Insert(ctx context.Context, sample *models.TrainingSample) error {
	_, err := s.db.ExecContext(ctx, insertSampleQuery,
		sample.ID, sample.CandidateFeatures, sample.JobFeatures,
		sample.MatchingScore, string(sample.ActualOutcome), sample.Reward, sample.CreatedAt,
	)
	return err
}

const listSamplesSinceQuery = `
	SELECT id, candidate_features, job_features, matching_score, actual_outcome, reward, created_at
	FROM training_samples
	WHERE created_at > $1
	ORDER BY created_at`

// ListSince returns samples created after the given time, oldest first, so
// the retrain controller's holdout split is stable.
func (s *SampleStore) ListSince(ctx context.Context, since time.Time) ([]models.TrainingSample, error) {
	rows, err := s.db.QueryContext(ctx, listSamplesSinceQuery, since)
	if err != nil {
		return nil, commonerrors.NewQueryExecutionFailedError("list_samples", err)
	}
	defer rows.Close()

	var samples []models.TrainingSample
	for rows.Next() {
		var sample models.TrainingSample
		var outcome string
		if err := rows.Scan(
			&sample.ID, &sample.CandidateFeatures, &sample.JobFeatures,
			&sample.MatchingScore, &outcome, &sample.Reward, &sample.CreatedAt,
		); err != nil {
			return nil, commonerrors.NewQueryExecutionFailedError("scan_sample", err)
		}
		sample.ActualOutcome = models.ActualOutcome(outcome)
		samples = append(samples, sample)
	}
	if err := rows.Err(); err != nil {
		return nil, commonerrors.NewQueryExecutionFailedError("iterate_samples", err)
	}
	return samples, nil
}
