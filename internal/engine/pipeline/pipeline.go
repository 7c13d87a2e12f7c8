// internal/engine/pipeline/pipeline.go
package pipeline

import (
	"context"
	"sort"
	"sync"

	"matching-engine/internal/common/logger"
	"matching-engine/internal/common/metrics"
	"matching-engine/internal/engine/composite"
	"matching-engine/internal/engine/weights"
	"matching-engine/internal/models"
)

// Options bound the pipeline's fan-out. Zero values fall back to defaults.
type Options struct {
	ChunkSize int
	PoolSize  int
	TopN      int
}

const (
	defaultChunkSize = 50
	defaultPoolSize  = 4
	defaultTopN      = 10
)

func (o Options) withDefaults() Options {
	if o.ChunkSize <= 0 {
		o.ChunkSize = defaultChunkSize
	}
	if o.PoolSize <= 0 {
		o.PoolSize = defaultPoolSize
	}
	if o.TopN <= 0 {
		o.TopN = defaultTopN
	}
	return o
}

// Pipeline fans batch scoring out across candidate chunks with a bounded
// worker pool and caches completed result sets.
type Pipeline struct {
	scorer  *composite.Scorer
	weights weights.ProfileCache
	cache   ResultCache
	opts    Options
	logger  logger.Logger
}

func New(scorer *composite.Scorer, weightCache weights.ProfileCache, resultCache ResultCache, opts Options, log logger.Logger) *Pipeline {
	return &Pipeline{
		scorer:  scorer,
		weights: weightCache,
		cache:   resultCache,
		opts:    opts.withDefaults(),
		logger:  log,
	}
}

type chunkTask struct {
	job   models.JobProfile
	chunk []models.CandidateProfile
}

type chunkResult struct {
	jobID   string
	matches []models.RankedMatch
}

// BatchMatch scores every candidate against every job and returns the top-N
// per job. A cache hit for the same inputs under the same tenant weight
// version skips scoring entirely. The result is all-or-nothing: any chunk
// failure fails the batch.
func (p *Pipeline) BatchMatch(ctx context.Context, tenantID string, jobs []models.JobProfile, candidates []models.CandidateProfile) (map[string][]models.RankedMatch, error) {
	result := make(map[string][]models.RankedMatch, len(jobs))
	if len(jobs) == 0 {
		return result, nil
	}

	key, err := p.cacheKey(ctx, tenantID, jobs, candidates)
	if err == nil && p.cache != nil {
		cached, ok, cacheErr := p.cache.Get(ctx, key)
		if cacheErr != nil {
			p.logger.Warn("batch cache read failed", map[string]interface{}{"error": cacheErr.Error()})
		} else if ok {
			metrics.BatchCacheHits.WithLabelValues("hit").Inc()
			return cached, nil
		}
		metrics.BatchCacheHits.WithLabelValues("miss").Inc()
	}

	tasks := p.buildTasks(jobs, candidates)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	sem := make(chan struct{}, p.opts.PoolSize)
	results := make([]chunkResult, len(tasks))

	for i, task := range tasks {
		wg.Add(1)
		sem <- struct{}{}
		go func(idx int, t chunkTask) {
			defer wg.Done()
			defer func() { <-sem }()

			matches, err := p.scorer.Rank(ctx, t.job, t.chunk, tenantID)
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return
			}
			results[idx] = chunkResult{jobID: t.job.ID, matches: matches}
		}(i, task)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}

	for _, r := range results {
		result[r.jobID] = append(result[r.jobID], r.matches...)
	}
	for jobID := range result {
		result[jobID] = p.finalize(result[jobID])
	}
	// Jobs with no candidates still get an entry, just an empty one.
	for _, job := range jobs {
		if _, ok := result[job.ID]; !ok {
			result[job.ID] = []models.RankedMatch{}
		}
	}

	if p.cache != nil && key != "" {
		if err := p.cache.Set(ctx, key, result); err != nil {
			p.logger.Warn("batch cache write failed", map[string]interface{}{"error": err.Error()})
		}
	}
	return result, nil
}

func (p *Pipeline) buildTasks(jobs []models.JobProfile, candidates []models.CandidateProfile) []chunkTask {
	var tasks []chunkTask
	for _, job := range jobs {
		for start := 0; start < len(candidates); start += p.opts.ChunkSize {
			end := start + p.opts.ChunkSize
			if end > len(candidates) {
				end = len(candidates)
			}
			tasks = append(tasks, chunkTask{job: job, chunk: candidates[start:end]})
		}
	}
	return tasks
}

// finalize re-sorts merged chunk results by raw score, truncates to top-N,
// and reapplies the display rescaling over the final ordering.
func (p *Pipeline) finalize(matches []models.RankedMatch) []models.RankedMatch {
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].CandidateID < matches[j].CandidateID
	})
	if len(matches) > p.opts.TopN {
		matches = matches[:p.opts.TopN]
	}
	composite.ApplyDisplayScores(matches)
	return matches
}

func (p *Pipeline) cacheKey(ctx context.Context, tenantID string, jobs []models.JobProfile, candidates []models.CandidateProfile) (string, error) {
	version, err := p.weights.Version(ctx, tenantID)
	if err != nil {
		return "", err
	}
	jobIDs := make([]string, len(jobs))
	for i, j := range jobs {
		jobIDs[i] = j.ID
	}
	candidateIDs := make([]string, len(candidates))
	for i, c := range candidates {
		candidateIDs[i] = c.ID
	}
	return Fingerprint(jobIDs, candidateIDs, tenantID, version), nil
}
