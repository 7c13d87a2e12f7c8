// internal/workers/learning/tenant-analytics/handler.go
package tenantanalytics

import (
	"context"
	"encoding/json"
	"fmt"

	commonerrors "matching-engine/internal/common/errors"
	"matching-engine/internal/common/logger"
	"matching-engine/internal/engine/learning"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "tenant-analytics"

type Handler struct {
	config     *Config
	analytics  *learning.AnalyticsService
	errHandler *commonerrors.ErrorHandler
	logger     logger.Logger
}

func NewHandler(config *Config, analytics *learning.AnalyticsService, log logger.Logger) *Handler {
	return &Handler{
		config:     config,
		analytics:  analytics,
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
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.errHandler.HandleJobError(ctx, client, job,
			commonerrors.NewInvalidInputError(fmt.Sprintf("parse input: %v", err)))
		return
	}

	output, err := h.Execute(ctx, &input)
	if err != nil {
		h.errHandler.HandleJobError(ctx, client, job, err)
		return
	}

	h.completeJob(client, job, output)
}

// Execute aggregates learning-loop counts for the tenant and, on request,
// the model performance snapshot.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	analytics, err := h.analytics.Analytics(ctx, input.TenantID)
	if err != nil {
		return nil, err
	}

	output := &Output{Analytics: analytics}
	if input.IncludePerformance || input.ModelVersion != "" {
		performance, err := h.analytics.Performance(ctx, input.ModelVersion)
		if err != nil {
			return nil, err
		}
		output.Performance = performance
	}

	return output, nil
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
