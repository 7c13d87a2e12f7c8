// internal/engine/learning/retrain.go
package learning

import (
	"context"
	"fmt"
	"sync"
	"time"

	commonerrors "matching-engine/internal/common/errors"
	"matching-engine/internal/common/logger"
	"matching-engine/internal/common/metrics"
	"matching-engine/internal/models"
)

const (
	// holdoutFraction of samples (ordered by creation time) is reserved for
	// evaluation; the rest is the training window.
	holdoutFraction = 0.2

	// minRetrainSamples below which a retrain run is a no-op.
	minRetrainSamples = 5
)

// SampleLister pulls accumulated training samples for retraining.
type SampleLister interface {
	ListSince(ctx context.Context, since time.Time) ([]models.TrainingSample, error)
}

// VersionStore persists and reads model versions. Versions are immutable
// after insert.
type VersionStore interface {
	Insert(ctx context.Context, v *models.ModelVersion) error
	Latest(ctx context.Context) (*models.ModelVersion, error)
	Get(ctx context.Context, version string) (*models.ModelVersion, error)
	List(ctx context.Context) ([]models.ModelVersion, error)
}

// RetrainController produces new model versions from accumulated samples.
// It is the sole writer of ModelVersion records and serializes runs: at most
// one retrain is in flight at any time.
type RetrainController struct {
	samples  SampleLister
	versions VersionStore
	logger   logger.Logger

	inFlight sync.Mutex
}

func NewRetrainController(samples SampleLister, versions VersionStore, log logger.Logger) *RetrainController {
	return &RetrainController{samples: samples, versions: versions, logger: log}
}

// Retrain evaluates all samples accumulated since the last version and
// publishes a new ModelVersion. A concurrent call is rejected, never queued
// silently.
func (c *RetrainController) Retrain(ctx context.Context) (*models.ModelVersion, error) {
	if !c.inFlight.TryLock() {
		metrics.RetrainRuns.WithLabelValues("rejected").Inc()
		return nil, commonerrors.NewRetrainInProgressError()
	}
	defer c.inFlight.Unlock()

	latest, err := c.versions.Latest(ctx)
	if err != nil {
		metrics.RetrainRuns.WithLabelValues("failed").Inc()
		return nil, commonerrors.NewQueryExecutionFailedError("latest_model_version", err)
	}

	var since time.Time
	sequence := 1
	if latest != nil {
		since = latest.EvaluationDate
		sequence = versionSequence(latest.Version) + 1
	}

	samples, err := c.samples.ListSince(ctx, since)
	if err != nil {
		metrics.RetrainRuns.WithLabelValues("failed").Inc()
		return nil, commonerrors.NewQueryExecutionFailedError("training_samples", err)
	}
	if len(samples) < minRetrainSamples {
		metrics.RetrainRuns.WithLabelValues("skipped").Inc()
		c.logger.Info("retrain skipped, not enough new samples", map[string]interface{}{
			"sample_count": len(samples),
			"minimum":      minRetrainSamples,
		})
		if latest != nil {
			return latest, nil
		}
		return nil, commonerrors.NewInvalidInputError(fmt.Sprintf("need at least %d samples to retrain, have %d", minRetrainSamples, len(samples)))
	}

	version := &models.ModelVersion{
		Version:             fmt.Sprintf("v1.0.%d", sequence),
		TrainingSampleCount: len(samples),
		EvaluationDate:      time.Now().UTC(),
	}
	evaluate(samples, version)

	if err := c.versions.Insert(ctx, version); err != nil {
		metrics.RetrainRuns.WithLabelValues("failed").Inc()
		return nil, commonerrors.NewQueryExecutionFailedError("insert_model_version", err)
	}

	metrics.RetrainRuns.WithLabelValues("completed").Inc()
	c.logger.Info("model version published", map[string]interface{}{
		"version":  version.Version,
		"accuracy": version.Accuracy,
		"f1":       version.F1Score,
		"samples":  version.TrainingSampleCount,
	})
	return version, nil
}

// evaluate computes classification metrics on the held-out tail of the
// sample window. A sample is a predicted positive when its recorded score
// clears the recommend threshold; the actual positive is a hire.
func evaluate(samples []models.TrainingSample, version *models.ModelVersion) {
	holdout := int(float64(len(samples)) * holdoutFraction)
	if holdout < 1 {
		holdout = 1
	}
	eval := samples[len(samples)-holdout:]

	var tp, fp, tn, fn int
	var rewardSum float64
	for _, s := range samples {
		rewardSum += s.Reward
	}
	for _, s := range eval {
		predictedHire := s.MatchingScore >= recommendThreshold
		actualHire := s.ActualOutcome == models.OutcomeHired
		switch {
		case predictedHire && actualHire:
			tp++
		case predictedHire && !actualHire:
			fp++
		case !predictedHire && actualHire:
			fn++
		default:
			tn++
		}
	}

	version.AverageReward = rewardSum / float64(len(samples))
	version.Accuracy = ratio(tp+tn, tp+tn+fp+fn)
	version.Precision = ratio(tp, tp+fp)
	version.Recall = ratio(tp, tp+fn)
	if version.Precision+version.Recall > 0 {
		version.F1Score = 2 * version.Precision * version.Recall / (version.Precision + version.Recall)
	}
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

// versionSequence parses the trailing integer of a "v1.0.N" label. Unknown
// labels (including the baseline sentinel) restart the sequence at 0.
func versionSequence(label string) int {
	var n int
	if _, err := fmt.Sscanf(label, "v1.0.%d", &n); err != nil {
		return 0
	}
	return n
}
