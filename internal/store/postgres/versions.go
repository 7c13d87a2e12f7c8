// internal/store/postgres/versions.go
package postgres

import (
	"context"
	"database/sql"

	commonerrors "matching-engine/internal/common/errors"
	"matching-engine/internal/models"
)

// VersionStore persists model versions. Rows are insert-only.
type VersionStore struct {
	db *sql.DB
}

func NewVersionStore(db *sql.DB) *VersionStore {
	return &VersionStore{db: db}
}

const insertVersionQuery = `
	INSERT INTO model_versions (version, accuracy, precision_score, recall, f1_score, average_reward, training_sample_count, evaluation_date)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

func (s *VersionStore) Insert(ctx context.Context, v *models.ModelVersion) error {
	_, err := s.db.ExecContext(ctx, insertVersionQuery,
		v.Version, v.Accuracy, v.Precision, v.Recall, v.F1Score,
		v.AverageReward, v.TrainingSampleCount, v.EvaluationDate,
	)
	return err
}

const selectVersionColumns = `
	SELECT version, accuracy, precision_score, recall, f1_score, average_reward, training_sample_count, evaluation_date
	FROM model_versions`

// Latest returns the most recently evaluated version, or nil when no retrain
// has run yet.
func (s *VersionStore) Latest(ctx context.Context) (*models.ModelVersion, error) {
	row := s.db.QueryRowContext(ctx, selectVersionColumns+` ORDER BY evaluation_date DESC LIMIT 1`)
	v, err := scanVersion(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return v, err
}

func (s *VersionStore) Get(ctx context.Context, version string) (*models.ModelVersion, error) {
	row := s.db.QueryRowContext(ctx, selectVersionColumns+` WHERE version = $1`, version)
	v, err := scanVersion(row)
	if err == sql.ErrNoRows {
		return nil, commonerrors.NewInvalidInputError("unknown model version: " + version)
	}
	return v, err
}

// List returns all versions ordered oldest first.
func (s *VersionStore) List(ctx context.Context) ([]models.ModelVersion, error) {
	rows, err := s.db.QueryContext(ctx, selectVersionColumns+` ORDER BY evaluation_date`)
	if err != nil {
		return nil, commonerrors.NewQueryExecutionFailedError("list_versions", err)
	}
	defer rows.Close()

	var versions []models.ModelVersion
	for rows.Next() {
		var v models.ModelVersion
		if err := rows.Scan(
			&v.Version, &v.Accuracy, &v.Precision, &v.Recall, &v.F1Score,
			&v.AverageReward, &v.TrainingSampleCount, &v.EvaluationDate,
		); err != nil {
			return nil, commonerrors.NewQueryExecutionFailedError("scan_version", err)
		}
		versions = append(versions, v)
	}
	if err := rows.Err(); err != nil {
		return nil, commonerrors.NewQueryExecutionFailedError("iterate_versions", err)
	}
	return versions, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanVersion(row rowScanner) (*models.ModelVersion, error) {
	var v models.ModelVersion
	err := row.Scan(
		&v.Version, &v.Accuracy, &v.Precision, &v.Recall, &v.F1Score,
		&v.AverageReward, &v.TrainingSampleCount, &v.EvaluationDate,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, commonerrors.NewQueryExecutionFailedError("get_version", err)
	}
	return &v, nil
}
