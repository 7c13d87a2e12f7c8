// internal/store/postgres/jobs.go
package postgres

import (
	"context"
	"database/sql"

	commonerrors "matching-engine/internal/common/errors"
	"matching-engine/internal/models"

	"github.com/lib/pq"
)

// JobStore reads job profiles.
type JobStore struct {
	db *sql.DB
}

func NewJobStore(db *sql.DB) *JobStore {
	return &JobStore{db: db}
}

const getJobQuery = `
	SELECT id, title, description, requirements, department, location, experience_level, tenant_id
	FROM job_profiles
	WHERE id = $1`

func (s *JobStore) GetJob(ctx context.Context, jobID string) (*models.JobProfile, error) {
	var job models.JobProfile
	err := s.db.QueryRowContext(ctx, getJobQuery, jobID).Scan(
		&job.ID, &job.Title, &job.Description, &job.Requirements,
		&job.Department, &job.Location, &job.ExperienceLevel, &job.TenantID,
	)
	if err == sql.ErrNoRows {
		return nil, commonerrors.NewJobNotFoundError(jobID)
	}
	if err != nil {
		return nil, commonerrors.NewQueryExecutionFailedError("get_job", err)
	}
	return &job, nil
}

const listJobsQuery = `
	SELECT id, title, description, requirements, department, location, experience_level, tenant_id
	FROM job_profiles
	WHERE id = ANY($1)`

// GetJobs fetches the given jobs in one round trip. Unknown ids are simply
// absent from the result.
func (s *JobStore) GetJobs(ctx context.Context, jobIDs []string) ([]models.JobProfile, error) {
	rows, err := s.db.QueryContext(ctx, listJobsQuery, pq.Array(jobIDs))
	if err != nil {
		return nil, commonerrors.NewQueryExecutionFailedError("list_jobs", err)
	}
	defer rows.Close()

	var jobs []models.JobProfile
	for rows.Next() {
		var job models.JobProfile
		if err := rows.Scan(
			&job.ID, &job.Title, &job.Description, &job.Requirements,
			&job.Department, &job.Location, &job.ExperienceLevel, &job.TenantID,
		); err != nil {
			return nil, commonerrors.NewQueryExecutionFailedError("scan_job", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, commonerrors.NewQueryExecutionFailedError("iterate_jobs", err)
	}
	return jobs, nil
}
