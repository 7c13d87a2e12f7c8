// internal/models/profile.go
package models

// JobProfile is the read-only job requisition record supplied by the
// surrounding platform. Instances are immutable once scored against; a
// reposted job carries a new ID.
type JobProfile struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Description     string `json:"description"`
	Requirements    string `json:"requirements"`
	Department      string `json:"department,omitempty"`
	Location        string `json:"location"`
	ExperienceLevel string `json:"experienceLevel"`
	TenantID        string `json:"tenantId"`
}

// CandidateProfile is the read-only candidate record. TenantID is empty for
// candidates in the global pool.
type CandidateProfile struct {
	ID              string `json:"id"`
	Skills          string `json:"skills"`
	ExperienceYears int    `json:"experienceYears"`
	Seniority       string `json:"seniority,omitempty"`
	Education       string `json:"education,omitempty"`
	Location        string `json:"location"`
	TenantID        string `json:"tenantId,omitempty"`
}
