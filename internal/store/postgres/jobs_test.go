// internal/store/postgres/jobs_test.go
package postgres

import (
	"context"
	"database/sql"
	"testing"

	commonerrors "matching-engine/internal/common/errors"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

var jobColumns = []string{"id", "title", "description", "requirements", "department", "location", "experience_level", "tenant_id"}

func TestJobStore_GetJob(t *testing.T) {
	db, mock := setupMockDB(t)

	mock.ExpectQuery(`SELECT id, title, description, requirements, department, location, experience_level, tenant_id\s+FROM job_profiles\s+WHERE id = \$1`).
		WithArgs("job-1").
		WillReturnRows(sqlmock.NewRows(jobColumns).
			AddRow("job-1", "Senior Python Developer", "Build things", "python django", "Engineering", "Remote", "senior", "tenant-1"))

	store := NewJobStore(db)
	job, err := store.GetJob(context.Background(), "job-1")

	require.NoError(t, err)
	assert.Equal(t, "Senior Python Developer", job.Title)
	assert.Equal(t, "senior", job.ExperienceLevel)
	assert.Equal(t, "tenant-1", job.TenantID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJobStore_GetJob_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)

	mock.ExpectQuery(`SELECT id, title, description, requirements, department, location, experience_level, tenant_id\s+FROM job_profiles\s+WHERE id = \$1`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	store := NewJobStore(db)
	_, err := store.GetJob(context.Background(), "missing")

	require.Error(t, err)
	assert.Equal(t, commonerrors.ErrCodeJobNotFound, commonerrors.CodeOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJobStore_GetJobs(t *testing.T) {
	db, mock := setupMockDB(t)

	ids := []string{"job-1", "job-2", "job-3"}
	mock.ExpectQuery(`SELECT id, title, description, requirements, department, location, experience_level, tenant_id\s+FROM job_profiles\s+WHERE id = ANY\(\$1\)`).
		WithArgs(pq.Array(ids)).
		WillReturnRows(sqlmock.NewRows(jobColumns).
			AddRow("job-1", "Backend Engineer", "", "go postgres", "", "Berlin", "mid", "tenant-1").
			AddRow("job-2", "Data Engineer", "", "python spark", "", "Remote", "senior", "tenant-1"))

	store := NewJobStore(db)
	jobs, err := store.GetJobs(context.Background(), ids)

	// Unknown ids are absent, not an error.
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "job-1", jobs[0].ID)
	assert.Equal(t, "job-2", jobs[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
