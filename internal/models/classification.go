package models

// Classification status constants
const (
	StatusClassified       = "classified"
	StatusInsufficientData = "insufficient_data"
)

// Confidence constants
const (
	ConfidenceHigh = "high"
	ConfidenceLow  = "low"
)

// Reasons a classification could not be made
const (
	ReasonNoEvents      = "no_events"
	ReasonNoTrustEvents = "no_trust_events"
)

// AxisScores are the raw axis values the rules were evaluated on
type AxisScores struct {
	Trust          float64 `json:"trust"`
	Sophistication float64 `json:"sophistication"`
	Variance       float64 `json:"variance"`
}

// Classification is the result of running the ordered rules over a FeatureVector
type Classification struct {
	Status             string                `json:"status"`
	Archetype          Archetype             `json:"archetype,omitempty"`
	Rule               string                `json:"rule,omitempty"`
	RuleExplanation    string                `json:"rule_explanation,omitempty"`
	Confidence         string                `json:"confidence"`
	InsufficientReason string                `json:"insufficient_reason,omitempty"`
	AxisScores         AxisScores            `json:"axis_scores"`
	Affinity           map[Archetype]float64 `json:"affinity,omitempty"`
	Description        string                `json:"description,omitempty"`
}

// IsClassified returns true if an archetype was assigned
func (c Classification) IsClassified() bool {
	return c.Status == StatusClassified
}
