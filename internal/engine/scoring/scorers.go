// internal/engine/scoring/scorers.go
package scoring

import (
	"math"
	"strings"

	"matching-engine/internal/models"
)

// experienceBand maps a job experience-level label to an expected
// years-of-experience range. First substring match wins.
type experienceBand struct {
	label    string
	minYears int
	maxYears int
}

var experienceBands = []experienceBand{
	{"entry", 0, 2},
	{"junior", 1, 3},
	{"mid", 2, 5},
	{"senior", 4, 8},
	{"lead", 6, 15},
	{"principal", 8, 20},
}

// Clamp01 bounds a component score to [0,1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// CosineSimilarity computes the cosine of the angle between two vectors.
// Returns 0 for mismatched or zero-magnitude inputs.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// ExperienceMatch scores how well a candidate's years of experience fit the
// job's experience-level band. Inside the band scores 1.0; below decays by
// 0.2 per missing year (floor 0.3); above decays by 0.1 per extra year
// (floor 0.7, overqualification is a mild penalty). Unknown labels are
// neutral.
func ExperienceMatch(job models.JobProfile, candidate models.CandidateProfile) float64 {
	label := strings.ToLower(job.ExperienceLevel)
	years := candidate.ExperienceYears
	if years < 0 {
		years = 0
	}

	for _, band := range experienceBands {
		if !strings.Contains(label, band.label) {
			continue
		}
		switch {
		case years >= band.minYears && years <= band.maxYears:
			return 1.0
		case years < band.minYears:
			gap := float64(band.minYears - years)
			return math.Max(0.3, 1.0-0.2*gap)
		default:
			excess := float64(years - band.maxYears)
			return math.Max(0.7, 1.0-0.1*excess)
		}
	}

	return 0.5
}

// jobText is the canonical job-side text for semantic comparison.
func jobText(job models.JobProfile) string {
	return strings.TrimSpace(job.Title + " " + job.Description + " " + job.Requirements)
}

// candidateText is the canonical candidate-side text for semantic comparison.
func candidateText(candidate models.CandidateProfile) string {
	return strings.TrimSpace(candidate.Skills + " " + candidate.Seniority + " " + candidate.Education)
}

// isRemote reports whether a job location admits any candidate location.
func isRemote(location string) bool {
	return strings.Contains(strings.ToLower(location), "remote")
}
