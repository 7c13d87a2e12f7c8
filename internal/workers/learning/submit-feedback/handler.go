// internal/workers/learning/submit-feedback/handler.go
package submitfeedback

import (
	"context"
	"encoding/json"
	"fmt"

	commonerrors "matching-engine/internal/common/errors"
	"matching-engine/internal/common/logger"
	"matching-engine/internal/engine/learning"
	"matching-engine/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/xeipuuv/gojsonschema"
)

const TaskType = "submit-feedback"

var inputSchema = map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"candidateId", "jobId", "actualOutcome", "feedbackScore"},
	"properties": map[string]interface{}{
		"predictionId":  map[string]interface{}{"type": "string"},
		"candidateId":   map[string]interface{}{"type": "string", "minLength": 1},
		"jobId":         map[string]interface{}{"type": "string", "minLength": 1},
		"tenantId":      map[string]interface{}{"type": "string"},
		"actualOutcome": map[string]interface{}{"type": "string", "enum": []interface{}{"hired", "shortlisted", "rejected"}},
		"feedbackScore": map[string]interface{}{"type": "number", "minimum": 1, "maximum": 5},
		"source":        map[string]interface{}{"type": "string", "enum": []interface{}{"hr", "system", "candidate"}},
	},
}

// JobSource and CandidateSource feed the training sample snapshot. Lookups
// are best effort; feedback is never rejected because a profile is missing.
type JobSource interface {
	GetJob(ctx context.Context, jobID string) (*models.JobProfile, error)
}

type CandidateSource interface {
	GetCandidate(ctx context.Context, candidateID string) (*models.CandidateProfile, error)
}

type Handler struct {
	config     *Config
	jobs       JobSource
	candidates CandidateSource
	loop       *learning.Loop
	errHandler *commonerrors.ErrorHandler
	logger     logger.Logger
}

func NewHandler(config *Config, jobs JobSource, candidates CandidateSource, loop *learning.Loop, log logger.Logger) *Handler {
	return &Handler{
		config:     config,
		jobs:       jobs,
		candidates: candidates,
		loop:       loop,
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

// Execute records the outcome report and returns the derived reward.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	source := models.FeedbackSource(input.Source)
	if source == "" {
		source = models.SourceHR
	}

	var job *models.JobProfile
	if j, err := h.jobs.GetJob(ctx, input.JobID); err == nil {
		job = j
	}
	var candidate *models.CandidateProfile
	if c, err := h.candidates.GetCandidate(ctx, input.CandidateID); err == nil {
		candidate = c
	}

	tenantID := input.TenantID
	if tenantID == "" && job != nil {
		tenantID = job.TenantID
	}

	event, err := h.loop.SubmitFeedback(ctx, learning.FeedbackRequest{
		PredictionID:  input.PredictionID,
		CandidateID:   input.CandidateID,
		JobID:         input.JobID,
		TenantID:      tenantID,
		ActualOutcome: models.ActualOutcome(input.ActualOutcome),
		FeedbackScore: input.FeedbackScore,
		Source:        source,
	}, job, candidate)
	if err != nil {
		return nil, err
	}

	h.logger.Info("feedback recorded", map[string]interface{}{
		"feedbackId":  event.ID,
		"candidateId": input.CandidateID,
		"jobId":       input.JobID,
		"outcome":     input.ActualOutcome,
		"reward":      event.RewardSignal,
	})

	return &Output{FeedbackID: event.ID, RewardSignal: event.RewardSignal}, nil
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
