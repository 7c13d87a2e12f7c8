// internal/engine/learning/retrain_test.go
package learning

import (
	"context"
	"sync"
	"testing"
	"time"

	commonerrors "matching-engine/internal/common/errors"
	"matching-engine/internal/common/logger"
	"matching-engine/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memVersions struct {
	mu       sync.Mutex
	versions []models.ModelVersion
}

func (m *memVersions) Insert(_ context.Context, v *models.ModelVersion) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.versions = append(m.versions, *v)
	return nil
}

func (m *memVersions) Latest(_ context.Context) (*models.ModelVersion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.versions) == 0 {
		return nil, nil
	}
	cp := m.versions[len(m.versions)-1]
	return &cp, nil
}

func (m *memVersions) Get(_ context.Context, version string) (*models.ModelVersion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.versions {
		if v.Version == version {
			cp := v
			return &cp, nil
		}
	}
	return nil, commonerrors.NewInvalidInputError("unknown model version " + version)
}

func (m *memVersions) List(_ context.Context) ([]models.ModelVersion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.ModelVersion, len(m.versions))
	copy(out, m.versions)
	return out, nil
}

type memSampleLister struct {
	samples []models.TrainingSample

	// When set, ListSince closes entered once and parks until block closes.
	entered     chan struct{}
	enteredOnce sync.Once
	block       chan struct{}
}

func (m *memSampleLister) ListSince(_ context.Context, since time.Time) ([]models.TrainingSample, error) {
	if m.entered != nil {
		m.enteredOnce.Do(func() { close(m.entered) })
	}
	if m.block != nil {
		<-m.block
	}
	var out []models.TrainingSample
	for _, s := range m.samples {
		if s.CreatedAt.After(since) {
			out = append(out, s)
		}
	}
	return out, nil
}

func makeSamples(n int, score float64, outcome models.ActualOutcome, reward float64) []models.TrainingSample {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	samples := make([]models.TrainingSample, n)
	for i := range samples {
		samples[i] = models.TrainingSample{
			ID:            string(rune('a' + i)),
			MatchingScore: score,
			ActualOutcome: outcome,
			Reward:        reward,
			CreatedAt:     base.Add(time.Duration(i) * time.Minute),
		}
	}
	return samples
}

func TestRetrain_PublishesSequencedVersions(t *testing.T) {
	versions := &memVersions{}
	lister := &memSampleLister{samples: makeSamples(10, 0.9, models.OutcomeHired, 0.8)}
	controller := NewRetrainController(lister, versions, logger.NewTestLogger(t))
	ctx := context.Background()

	first, err := controller.Retrain(ctx)
	require.NoError(t, err)
	assert.Equal(t, "v1.0.1", first.Version)
	assert.Equal(t, 10, first.TrainingSampleCount)

	// All new samples land after the first evaluation date.
	later := makeSamples(6, 0.9, models.OutcomeHired, 0.8)
	for i := range later {
		later[i].CreatedAt = first.EvaluationDate.Add(time.Duration(i+1) * time.Minute)
	}
	lister.samples = later

	second, err := controller.Retrain(ctx)
	require.NoError(t, err)
	assert.Equal(t, "v1.0.2", second.Version)
	assert.Equal(t, 6, second.TrainingSampleCount)

	// Versions are append-only; the first record is untouched.
	all, err := versions.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "v1.0.1", all[0].Version)
}

func TestRetrain_SkipsUnderMinimumSamples(t *testing.T) {
	versions := &memVersions{}
	lister := &memSampleLister{samples: makeSamples(4, 0.9, models.OutcomeHired, 0.8)}
	controller := NewRetrainController(lister, versions, logger.NewTestLogger(t))

	_, err := controller.Retrain(context.Background())
	require.Error(t, err)
	assert.Equal(t, commonerrors.ErrCodeInvalidInput, commonerrors.CodeOf(err))

	all, err := versions.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestRetrain_SkipReturnsLatestWhenPublished(t *testing.T) {
	versions := &memVersions{}
	lister := &memSampleLister{samples: makeSamples(5, 0.9, models.OutcomeHired, 0.8)}
	controller := NewRetrainController(lister, versions, logger.NewTestLogger(t))
	ctx := context.Background()

	published, err := controller.Retrain(ctx)
	require.NoError(t, err)

	// Nothing new since the publish; the run is a no-op and reports the
	// current version.
	got, err := controller.Retrain(ctx)
	require.NoError(t, err)
	assert.Equal(t, published.Version, got.Version)

	all, err := versions.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestRetrain_ConcurrentRunRejected(t *testing.T) {
	versions := &memVersions{}
	lister := &memSampleLister{
		samples: makeSamples(10, 0.9, models.OutcomeHired, 0.8),
		entered: make(chan struct{}),
		block:   make(chan struct{}),
	}
	controller := NewRetrainController(lister, versions, logger.NewTestLogger(t))
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := controller.Retrain(ctx)
		done <- err
	}()

	// The first run holds the lock while parked inside ListSince.
	<-lister.entered
	_, err := controller.Retrain(ctx)
	require.Error(t, err)
	assert.Equal(t, commonerrors.ErrCodeRetrainInProgress, commonerrors.CodeOf(err))

	close(lister.block)
	require.NoError(t, <-done)
}

func TestEvaluate_Metrics(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	mk := func(i int, score float64, outcome models.ActualOutcome, reward float64) models.TrainingSample {
		return models.TrainingSample{
			MatchingScore: score,
			ActualOutcome: outcome,
			Reward:        reward,
			CreatedAt:     base.Add(time.Duration(i) * time.Minute),
		}
	}

	// 10 samples, holdout = last 2: one true positive, one false positive.
	samples := []models.TrainingSample{
		mk(0, 0.9, models.OutcomeHired, 1.0),
		mk(1, 0.9, models.OutcomeHired, 1.0),
		mk(2, 0.3, models.OutcomeRejected, -0.4),
		mk(3, 0.3, models.OutcomeRejected, -0.4),
		mk(4, 0.6, models.OutcomeShortlisted, 0.3),
		mk(5, 0.6, models.OutcomeShortlisted, 0.3),
		mk(6, 0.9, models.OutcomeHired, 1.0),
		mk(7, 0.3, models.OutcomeRejected, -0.4),
		mk(8, 0.9, models.OutcomeHired, 1.0),
		mk(9, 0.85, models.OutcomeRejected, -0.2),
	}

	version := &models.ModelVersion{}
	evaluate(samples, version)

	assert.InDelta(t, 0.5, version.Accuracy, 1e-9)
	assert.InDelta(t, 0.5, version.Precision, 1e-9)
	assert.InDelta(t, 1.0, version.Recall, 1e-9)
	assert.InDelta(t, 2.0/3.0, version.F1Score, 1e-9)
	assert.InDelta(t, 0.32, version.AverageReward, 1e-9)
}

func TestEvaluate_SingleSampleHoldout(t *testing.T) {
	samples := makeSamples(5, 0.9, models.OutcomeHired, 1.0)
	version := &models.ModelVersion{}
	evaluate(samples, version)

	assert.InDelta(t, 1.0, version.Accuracy, 1e-9)
	assert.InDelta(t, 1.0, version.Precision, 1e-9)
	assert.InDelta(t, 1.0, version.Recall, 1e-9)
	assert.InDelta(t, 1.0, version.F1Score, 1e-9)
	assert.InDelta(t, 1.0, version.AverageReward, 1e-9)
}

func TestVersionSequence(t *testing.T) {
	assert.Equal(t, 1, versionSequence("v1.0.1"))
	assert.Equal(t, 12, versionSequence("v1.0.12"))
	assert.Equal(t, 0, versionSequence(models.BaselineModelVersion))
	assert.Equal(t, 0, versionSequence("garbage"))
}
