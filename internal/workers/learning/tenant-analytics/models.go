// internal/workers/learning/tenant-analytics/models.go
package tenantanalytics

import "matching-engine/internal/models"

type Input struct {
	TenantID     string `json:"tenantId,omitempty"`
	ModelVersion string `json:"modelVersion,omitempty"`
	// IncludePerformance attaches the model version metrics to the output.
	IncludePerformance bool `json:"includePerformance,omitempty"`
}

type Output struct {
	Analytics   *models.TenantAnalytics `json:"analytics"`
	Performance *models.ModelVersion    `json:"performance,omitempty"`
}
