// internal/workers/learning/retrain-model/handler.go
package retrainmodel

import (
	"context"
	"encoding/json"
	"time"

	commonerrors "matching-engine/internal/common/errors"
	"matching-engine/internal/common/logger"
	"matching-engine/internal/engine/learning"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "retrain-model"

type Handler struct {
	config     *Config
	controller *learning.RetrainController
	errHandler *commonerrors.ErrorHandler
	logger     logger.Logger
}

func NewHandler(config *Config, controller *learning.RetrainController, log logger.Logger) *Handler {
	return &Handler{
		config:     config,
		controller: controller,
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

	var input Input
	_ = json.Unmarshal([]byte(job.Variables), &input)

	output, err := h.Execute(ctx, &input)
	if err != nil {
		h.errHandler.HandleJobError(ctx, client, job, err)
		return
	}

	h.completeJob(client, job, output)
}

// Execute runs one retrain cycle and returns the published version.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	version, err := h.controller.Retrain(ctx)
	if err != nil {
		return nil, err
	}

	h.logger.Info("retrain completed", map[string]interface{}{
		"version":     version.Version,
		"accuracy":    version.Accuracy,
		"samples":     version.TrainingSampleCount,
		"requestedBy": input.RequestedBy,
	})

	return &Output{
		Version:             version.Version,
		Accuracy:            version.Accuracy,
		Precision:           version.Precision,
		Recall:              version.Recall,
		F1Score:             version.F1Score,
		AverageReward:       version.AverageReward,
		TrainingSampleCount: version.TrainingSampleCount,
		EvaluationDate:      version.EvaluationDate.Format(time.RFC3339),
	}, nil
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
