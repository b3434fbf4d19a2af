package models

import (
	"errors"
	"fmt"
)

// SophisticationBreakdown shows how the sophistication score was assembled
type SophisticationBreakdown struct {
	AgentRate       float64 `json:"agent_rate"`
	AgentScore      float64 `json:"agent_score"`
	DistinctClasses int     `json:"distinct_classes"`
	VocabularySize  int     `json:"vocabulary_size"`
	DiversityScore  float64 `json:"diversity_score"`
	MeanDepth       float64 `json:"mean_depth"`
	DepthScore      float64 `json:"depth_score"`
}

// FeatureVector is the per-user (or per-session) input to the classifier.
// TrustLevel must not be read when TrustDefined is false.
type FeatureVector struct {
	TrustLevel     float64 `json:"trust_level"`
	TrustDefined   bool    `json:"trust_defined"`
	Sophistication float64 `json:"sophistication"`
	Variance       float64 `json:"variance"`

	Breakdown SophisticationBreakdown `json:"sophistication_breakdown"`

	ContextsObserved int `json:"contexts_observed"`
	ContextsScored   int `json:"contexts_scored"`

	// Supplementary measures; reported, never used by the classification rules
	OverallAcceptance  float64 `json:"overall_acceptance"`
	HighRiskAcceptance float64 `json:"high_risk_acceptance"`
	LowRiskAcceptance  float64 `json:"low_risk_acceptance"`
	MeanDecisionTimeMS float64 `json:"mean_decision_time_ms"`
	SnapJudgmentRate   float64 `json:"snap_judgment_rate"`
	SessionTrustStdDev float64 `json:"session_trust_stddev"`

	Commands CommandBreakdown `json:"command_breakdown"`
	Trend    TemporalTrend    `json:"temporal_trend"`
	Arc      SessionArc       `json:"session_arc"`

	Sessions    int `json:"sessions"`
	Events      int `json:"events"`
	TrustEvents int `json:"trust_events"`

	LowConfidence bool `json:"low_confidence"`
}

// Validate checks the range invariants of the axes
func (v FeatureVector) Validate() error {
	var errs []error
	check := func(name string, x float64) {
		if x < 0 || x > 1 {
			errs = append(errs, fmt.Errorf("%s %g outside [0,1]", name, x))
		}
	}
	if v.TrustDefined {
		check("trust_level", v.TrustLevel)
	}
	check("sophistication", v.Sophistication)
	check("variance", v.Variance)
	if v.TrustEvents > v.Events {
		errs = append(errs, fmt.Errorf("trust_events %d exceeds events %d", v.TrustEvents, v.Events))
	}
	return errors.Join(errs...)
}
