// internal/workers/matching/batch-match/handler.go
package batchmatch

import (
	"context"
	"encoding/json"
	"fmt"

	commonerrors "matching-engine/internal/common/errors"
	"matching-engine/internal/common/logger"
	"matching-engine/internal/engine/pipeline"
	"matching-engine/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/xeipuuv/gojsonschema"
)

const TaskType = "batch-match"

var inputSchema = map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"jobIds"},
	"properties": map[string]interface{}{
		"jobIds": map[string]interface{}{
			"type":     "array",
			"minItems": 1,
			"items":    map[string]interface{}{"type": "string", "minLength": 1},
		},
		"tenantId": map[string]interface{}{"type": "string"},
	},
}

// JobSource fetches job profiles in bulk.
type JobSource interface {
	GetJobs(ctx context.Context, jobIDs []string) ([]models.JobProfile, error)
}

// CandidatePoolSource narrows the candidate set considered per job. The
// production implementation is the search index; the postgres pool is the
// fallback.
type CandidatePoolSource interface {
	SearchPool(ctx context.Context, tenantID string, job models.JobProfile, size int) ([]models.CandidateProfile, error)
}

type Handler struct {
	config     *Config
	jobs       JobSource
	pool       CandidatePoolSource
	pipeline   *pipeline.Pipeline
	errHandler *commonerrors.ErrorHandler
	logger     logger.Logger
}

func NewHandler(config *Config, jobs JobSource, pool CandidatePoolSource, p *pipeline.Pipeline, log logger.Logger) *Handler {
	return &Handler{
		config:     config,
		jobs:       jobs,
		pool:       pool,
		pipeline:   p,
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

	input, err := h.parseInput(job.Variables)
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

// Execute ranks a tenant's candidate pool against every requested job.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if len(input.JobIDs) > h.config.MaxBatchJobs {
		return nil, commonerrors.NewInvalidInputError(
			fmt.Sprintf("batch accepts at most %d jobs, got %d", h.config.MaxBatchJobs, len(input.JobIDs)))
	}

	jobs, err := h.jobs.GetJobs(ctx, input.JobIDs)
	if err != nil {
		return nil, err
	}

	candidates, err := h.gatherCandidates(ctx, input.TenantID, jobs)
	if err != nil {
		return nil, err
	}

	results, err := h.pipeline.BatchMatch(ctx, input.TenantID, jobs, candidates)
	if err != nil {
		return nil, err
	}

	// Requested jobs that do not exist still get an empty entry so the
	// caller sees one result per requested id.
	for _, jobID := range input.JobIDs {
		if _, ok := results[jobID]; !ok {
			results[jobID] = []models.RankedMatch{}
		}
	}

	h.logger.Info("batch match completed", map[string]interface{}{
		"tenantId":   input.TenantID,
		"jobs":       len(jobs),
		"candidates": len(candidates),
	})

	return &Output{Results: results}, nil
}

// gatherCandidates unions each job's best-matching candidates into the
// shared scoring pool, deduplicated by id.
func (h *Handler) gatherCandidates(ctx context.Context, tenantID string, jobs []models.JobProfile) ([]models.CandidateProfile, error) {
	seen := make(map[string]struct{})
	var candidates []models.CandidateProfile
	for _, job := range jobs {
		found, err := h.pool.SearchPool(ctx, tenantID, job, h.config.BatchCandidates)
		if err != nil {
			return nil, err
		}
		for _, c := range found {
			if _, ok := seen[c.ID]; ok {
				continue
			}
			seen[c.ID] = struct{}{}
			candidates = append(candidates, c)
		}
	}
	return candidates, nil
}

func (h *Handler) parseInput(variables string) (*Input, error) {
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
