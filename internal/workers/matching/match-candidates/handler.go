// internal/workers/matching/match-candidates/handler.go
package matchcandidates

import (
	"context"
	"encoding/json"
	"fmt"

	commonerrors "matching-engine/internal/common/errors"
	"matching-engine/internal/common/logger"
	"matching-engine/internal/engine/composite"
	"matching-engine/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/xeipuuv/gojsonschema"
)

const TaskType = "match-candidates"

var inputSchema = map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"jobId"},
	"properties": map[string]interface{}{
		"jobId":        map[string]interface{}{"type": "string", "minLength": 1},
		"candidateIds": map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
		"tenantId":     map[string]interface{}{"type": "string"},
		"limit":        map[string]interface{}{"type": "integer", "minimum": 1, "maximum": 100},
	},
}

// JobSource fetches the job being matched.
type JobSource interface {
	GetJob(ctx context.Context, jobID string) (*models.JobProfile, error)
}

// CandidateSource fetches the candidates to rank.
type CandidateSource interface {
	GetCandidates(ctx context.Context, candidateIDs []string) ([]models.CandidateProfile, error)
	TenantPool(ctx context.Context, tenantID string, limit int) ([]models.CandidateProfile, error)
}

// PoolSearch narrows the tenant pool by relevance to the job. Optional; the
// postgres pool is the fallback when the index is down or absent.
type PoolSearch interface {
	SearchPool(ctx context.Context, tenantID string, job models.JobProfile, size int) ([]models.CandidateProfile, error)
}

type Handler struct {
	config     *Config
	jobs       JobSource
	candidates CandidateSource
	search     PoolSearch
	scorer     *composite.Scorer
	errHandler *commonerrors.ErrorHandler
	logger     logger.Logger
}

func NewHandler(config *Config, jobs JobSource, candidates CandidateSource, search PoolSearch, scorer *composite.Scorer, log logger.Logger) *Handler {
	return &Handler{
		config:     config,
		jobs:       jobs,
		candidates: candidates,
		search:     search,
		scorer:     scorer,
		errHandler: commonerrors.NewErrorHandler(log),
		logger:     log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	input, err := parseInput(job.Variables)
	if err != nil {
		h.errHandler.HandleJobError(ctx, client, job, err)
		return
	}

	output, err := h.Execute(ctx, input)
	if err != nil {
		h.errHandler.HandleJobError(ctx, client, job, err)
		return
	}

	h.completeJob(client, job, output)
}

// Execute ranks the job's candidates and returns the top matches.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	job, err := h.jobs.GetJob(ctx, input.JobID)
	if err != nil {
		return nil, err
	}

	candidates, err := h.loadCandidates(ctx, input, *job)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return &Output{JobID: input.JobID, Outcome: models.OutcomeEmpty, Matches: []models.RankedMatch{}}, nil
	}

	matches, err := h.scorer.Rank(ctx, *job, candidates, input.TenantID)
	if err != nil {
		return nil, err
	}

	limit := input.Limit
	if limit <= 0 {
		limit = h.config.DefaultLimit
	}
	if len(matches) > limit {
		matches = matches[:limit]
	}

	outcome := models.OutcomeOK
	for _, m := range matches {
		if m.Breakdown.Degraded {
			outcome = models.OutcomeDegraded
			break
		}
	}

	h.logger.Info("candidates ranked", map[string]interface{}{
		"jobId":      input.JobID,
		"tenantId":   input.TenantID,
		"candidates": len(candidates),
		"returned":   len(matches),
		"outcome":    string(outcome),
	})

	return &Output{JobID: input.JobID, Outcome: outcome, Matches: matches}, nil
}

func (h *Handler) loadCandidates(ctx context.Context, input *Input, job models.JobProfile) ([]models.CandidateProfile, error) {
	if len(input.CandidateIDs) > 0 {
		return h.candidates.GetCandidates(ctx, input.CandidateIDs)
	}
	if h.search != nil {
		found, err := h.search.SearchPool(ctx, input.TenantID, job, h.config.PoolSize)
		if err == nil {
			return found, nil
		}
		h.logger.Warn("candidate search unavailable, using stored pool", map[string]interface{}{
			"jobId": job.ID,
			"error": err.Error(),
		})
	}
	return h.candidates.TenantPool(ctx, input.TenantID, h.config.PoolSize)
}

func parseInput(variables string) (*Input, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(variables), &raw); err != nil {
		return nil, commonerrors.NewInvalidInputError(fmt.Sprintf("parse input: %v", err))
	}

	result, err := gojsonschema.Validate(gojsonschema.NewGoLoader(inputSchema), gojsonschema.NewGoLoader(raw))
	if err != nil {
		return nil, commonerrors.NewInvalidInputError(fmt.Sprintf("schema validation: %v", err))
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return nil, commonerrors.NewInvalidInputError(fmt.Sprintf("invalid input: %v", errs))
	}

	var input Input
	if err := json.Unmarshal([]byte(variables), &input); err != nil {
		return nil, commonerrors.NewInvalidInputError(fmt.Sprintf("parse input: %v", err))
	}
	return &input, nil
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	_, err = cmd.Send(context.Background())
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}
