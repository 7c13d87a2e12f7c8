// internal/store/elastic/candidates.go
package elastic

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	commonerrors "matching-engine/internal/common/errors"
	"matching-engine/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// CandidateSearch queries the candidate index for a tenant's pool, relevance
// ranked against a job's text. Used by the batch pipeline to narrow the
// per-job candidate set before scoring.
type CandidateSearch struct {
	client *elasticsearch.Client
	index  string
}

func NewCandidateSearch(client *elasticsearch.Client, index string) *CandidateSearch {
	return &CandidateSearch{client: client, index: index}
}

type candidateDoc struct {
	ID              string `json:"id"`
	Skills          string `json:"skills"`
	ExperienceYears int    `json:"experienceYears"`
	Seniority       string `json:"seniority"`
	Education       string `json:"education"`
	Location        string `json:"location"`
	TenantID        string `json:"tenantId"`
}

// SearchPool returns up to size candidates visible to the tenant, best
// lexical match against the job text first. Candidates in the global pool
// (empty tenant id) are always visible.
func (s *CandidateSearch) SearchPool(ctx context.Context, tenantID string, job models.JobProfile, size int) ([]models.CandidateProfile, error) {
	queryText := strings.TrimSpace(strings.Join([]string{job.Title, job.Requirements, job.Description}, " "))

	boolQuery := map[string]interface{}{
		"filter": []interface{}{
			map[string]interface{}{
				"bool": map[string]interface{}{
					"should": []interface{}{
						map[string]interface{}{"term": map[string]interface{}{"tenantId": tenantID}},
						map[string]interface{}{"term": map[string]interface{}{"tenantId": ""}},
					},
				},
			},
		},
	}
	if queryText != "" {
		boolQuery["must"] = []interface{}{
			map[string]interface{}{
				"multi_match": map[string]interface{}{
					"query":  queryText,
					"fields": []string{"skills^3", "seniority^2", "education", "location"},
					"type":   "best_fields",
				},
			},
		}
	}

	body, _ := json.Marshal(map[string]interface{}{
		"query": map[string]interface{}{"bool": boolQuery},
	})

	req := esapi.SearchRequest{
		Index: []string{s.index},
		Body:  strings.NewReader(string(body)),
		Size:  &size,
	}

	res, err := req.Do(ctx, s.client)
	if err != nil {
		return nil, commonerrors.NewSearchQueryFailedError(err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, commonerrors.NewSearchQueryFailedError(fmt.Errorf("search query failed: %s", res.String()))
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source candidateDoc `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, commonerrors.NewSearchQueryFailedError(err)
	}

	candidates := make([]models.CandidateProfile, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		doc := hit.Source
		candidates = append(candidates, models.CandidateProfile{
			ID:              doc.ID,
			Skills:          doc.Skills,
			ExperienceYears: doc.ExperienceYears,
			Seniority:       doc.Seniority,
			Education:       doc.Education,
			Location:        doc.Location,
			TenantID:        doc.TenantID,
		})
	}
	return candidates, nil
}
