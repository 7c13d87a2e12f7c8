// internal/store/postgres/candidates.go
package postgres

import (
	"context"
	"database/sql"

	commonerrors "matching-engine/internal/common/errors"
	"matching-engine/internal/models"

	"github.com/lib/pq"
)

// CandidateStore reads candidate profiles.
type CandidateStore struct {
	db *sql.DB
}

func NewCandidateStore(db *sql.DB) *CandidateStore {
	return &CandidateStore{db: db}
}

const getCandidateQuery = `
	SELECT id, skills, experience_years, seniority, education, location, tenant_id
	FROM candidate_profiles
	WHERE id = $1`

func (s *CandidateStore) GetCandidate(ctx context.Context, candidateID string) (*models.CandidateProfile, error) {
	var candidate models.CandidateProfile
	err := s.db.QueryRowContext(ctx, getCandidateQuery, candidateID).Scan(
		&candidate.ID, &candidate.Skills, &candidate.ExperienceYears,
		&candidate.Seniority, &candidate.Education, &candidate.Location, &candidate.TenantID,
	)
	if err == sql.ErrNoRows {
		return nil, commonerrors.NewCandidateNotFoundError(candidateID)
	}
	if err != nil {
		return nil, commonerrors.NewQueryExecutionFailedError("get_candidate", err)
	}
	return &candidate, nil
}

const listCandidatesQuery = `
	SELECT id, skills, experience_years, seniority, education, location, tenant_id
	FROM candidate_profiles
	WHERE id = ANY($1)`

func (s *CandidateStore) GetCandidates(ctx context.Context, candidateIDs []string) ([]models.CandidateProfile, error) {
	rows, err := s.db.QueryContext(ctx, listCandidatesQuery, pq.Array(candidateIDs))
	if err != nil {
		return nil, commonerrors.NewQueryExecutionFailedError("list_candidates", err)
	}
	defer rows.Close()
	return scanCandidates(rows)
}

const tenantPoolQuery = `
	SELECT id, skills, experience_years, seniority, education, location, tenant_id
	FROM candidate_profiles
	WHERE tenant_id = $1 OR tenant_id = ''
	ORDER BY id
	LIMIT $2`

// TenantPool lists candidates visible to a tenant, including the global
// pool, up to limit. Used as the fallback when search is unavailable.
func (s *CandidateStore) TenantPool(ctx context.Context, tenantID string, limit int) ([]models.CandidateProfile, error) {
	rows, err := s.db.QueryContext(ctx, tenantPoolQuery, tenantID, limit)
	if err != nil {
		return nil, commonerrors.NewQueryExecutionFailedError("tenant_pool", err)
	}
	defer rows.Close()
	return scanCandidates(rows)
}

func scanCandidates(rows *sql.Rows) ([]models.CandidateProfile, error) {
	var candidates []models.CandidateProfile
	for rows.Next() {
		var candidate models.CandidateProfile
		if err := rows.Scan(
			&candidate.ID, &candidate.Skills, &candidate.ExperienceYears,
			&candidate.Seniority, &candidate.Education, &candidate.Location, &candidate.TenantID,
		); err != nil {
			return nil, commonerrors.NewQueryExecutionFailedError("scan_candidate", err)
		}
		candidates = append(candidates, candidate)
	}
	if err := rows.Err(); err != nil {
		return nil, commonerrors.NewQueryExecutionFailedError("iterate_candidates", err)
	}
	return candidates, nil
}
