// internal/models/scoring.go
package models

// Outcome classifies a scoring result so callers can branch on quality
// without unwinding errors.
type Outcome string

const (
	OutcomeOK       Outcome = "ok"
	OutcomeDegraded Outcome = "degraded" // one or more components fell back to neutral
	OutcomeEmpty    Outcome = "empty"    // nothing to match, not a fault
	OutcomeFailed   Outcome = "failed"
)

// WeightVector holds the four learnable component weights. Cultural fit is
// not part of the vector; it always carries the fixed remainder share.
type WeightVector struct {
	Semantic   float64 `json:"semantic"`
	Experience float64 `json:"experience"`
	Skills     float64 `json:"skills"`
	Location   float64 `json:"location"`
}

// Sum returns the total learnable weight mass. Valid profiles keep this at
// or below 0.9 so cultural fit retains its reserved share.
func (w WeightVector) Sum() float64 {
	return w.Semantic + w.Experience + w.Skills + w.Location
}

// Effective scales the normalized shares down to the learnable mass actually
// applied during compositing. Cultural fit owns the remaining 0.1.
func (w WeightVector) Effective() WeightVector {
	const learnableMass = 0.9
	return WeightVector{
		Semantic:   w.Semantic * learnableMass,
		Experience: w.Experience * learnableMass,
		Skills:     w.Skills * learnableMass,
		Location:   w.Location * learnableMass,
	}
}

// ScoreBreakdown carries the five component scores (each in [0,1]), the
// weight vector used, and the weighted total.
type ScoreBreakdown struct {
	SemanticSimilarity float64      `json:"semanticSimilarity"`
	ExperienceMatch    float64      `json:"experienceMatch"`
	SkillsMatch        float64      `json:"skillsMatch"`
	LocationMatch      float64      `json:"locationMatch"`
	CulturalFit        float64      `json:"culturalFit"`
	Weights            WeightVector `json:"weights"`
	TotalScore         float64      `json:"totalScore"`
	Degraded           bool         `json:"degraded,omitempty"`
}

// RankedMatch is one entry of a ranking response. DisplayScore is the
// rescaled, strictly-descending presentation value; Score is the raw total
// used for decisions.
type RankedMatch struct {
	CandidateID  string         `json:"candidateId"`
	Score        float64        `json:"score"`
	DisplayScore float64        `json:"displayScore"`
	Breakdown    ScoreBreakdown `json:"breakdown"`
	Reasoning    string         `json:"reasoning,omitempty"`
}

// TenantWeightProfile is the cached output of the adaptive weight learner.
type TenantWeightProfile struct {
	TenantID           string       `json:"tenantId"`
	Weights            WeightVector `json:"weights"`
	AvgSatisfaction    float64      `json:"avgSatisfaction"`
	AvgExperienceHired float64      `json:"avgExperienceOfHires"`
	FeedbackCount      int          `json:"feedbackCount"`
	Version            int64        `json:"version"`
}
