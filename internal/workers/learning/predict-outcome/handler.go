// internal/workers/learning/predict-outcome/handler.go
package predictoutcome

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

const TaskType = "predict-outcome"

var inputSchema = map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"candidateId", "jobId"},
	"properties": map[string]interface{}{
		"candidateId": map[string]interface{}{"type": "string", "minLength": 1},
		"jobId":       map[string]interface{}{"type": "string", "minLength": 1},
		"tenantId":    map[string]interface{}{"type": "string"},
	},
}

// JobSource fetches the job being predicted against.
type JobSource interface {
	GetJob(ctx context.Context, jobID string) (*models.JobProfile, error)
}

// CandidateSource fetches the candidate being predicted.
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

// Execute issues a prediction for the (candidate, job) pair.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	job, err := h.jobs.GetJob(ctx, input.JobID)
	if err != nil {
		return nil, err
	}
	candidate, err := h.candidates.GetCandidate(ctx, input.CandidateID)
	if err != nil {
		return nil, err
	}

	prediction, err := h.loop.Predict(ctx, *job, *candidate, input.TenantID)
	if err != nil {
		return nil, err
	}

	h.logger.Info("prediction issued", map[string]interface{}{
		"predictionId": prediction.ID,
		"candidateId":  input.CandidateID,
		"jobId":        input.JobID,
		"decision":     string(prediction.DecisionType),
	})

	return &Output{
		PredictionID: prediction.ID,
		Score:        prediction.PredictedScore,
		DecisionType: string(prediction.DecisionType),
		Confidence:   prediction.ConfidenceLevel,
		ModelVersion: prediction.ModelVersion,
	}, nil
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
