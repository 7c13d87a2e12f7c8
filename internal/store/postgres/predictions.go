// internal/store/postgres/predictions.go
package postgres

import (
	"context"
	"database/sql"

	commonerrors "matching-engine/internal/common/errors"
	"matching-engine/internal/models"
)

// PredictionStore persists issued predictions. Rows are never updated.
type PredictionStore struct {
	db *sql.DB
}

func NewPredictionStore(db *sql.DB) *PredictionStore {
	return &PredictionStore{db: db}
}

const insertPredictionQuery = `
	INSERT INTO predictions (id, candidate_id, job_id, predicted_score, decision_type, confidence_level, model_version, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

func (s *PredictionStore) Insert(ctx context.Context, p *models.Prediction) error {
	_, err := s.db.ExecContext(ctx, insertPredictionQuery,
		p.ID, p.CandidateID, p.JobID, p.PredictedScore,
		string(p.DecisionType), p.ConfidenceLevel, p.ModelVersion, p.CreatedAt,
	)
	return err
}

const getPredictionQuery = `
	SELECT id, candidate_id, job_id, predicted_score, decision_type, confidence_level, model_version, created_at
	FROM predictions
	WHERE id = $1`

func (s *PredictionStore) GetByID(ctx context.Context, id string) (*models.Prediction, error) {
	return s.scanOne(s.db.QueryRowContext(ctx, getPredictionQuery, id))
}

const latestForPairQuery = `
	SELECT id, candidate_id, job_id, predicted_score, decision_type, confidence_level, model_version, created_at
	FROM predictions
	WHERE candidate_id = $1 AND job_id = $2
	ORDER BY created_at DESC
	LIMIT 1`

func (s *PredictionStore) LatestForPair(ctx context.Context, candidateID, jobID string) (*models.Prediction, error) {
	return s.scanOne(s.db.QueryRowContext(ctx, latestForPairQuery, candidateID, jobID))
}

func (s *PredictionStore) scanOne(row *sql.Row) (*models.Prediction, error) {
	var p models.Prediction
	var decision string
	err := row.Scan(
		&p.ID, &p.CandidateID, &p.JobID, &p.PredictedScore,
		&decision, &p.ConfidenceLevel, &p.ModelVersion, &p.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, commonerrors.NewQueryExecutionFailedError("get_prediction", err)
	}
	p.DecisionType = models.DecisionType(decision)
	return &p, nil
}
