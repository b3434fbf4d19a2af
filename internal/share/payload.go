// Package share builds the anonymous aggregate that a user may opt to
// publish and sends it. Only numeric and categorical fields can leave the
// machine: every payload is checked against an embedded JSON Schema that
// forbids unknown properties.
package share

import (
	"encoding/json"
	"errors"
	"math"

	"github.com/TheApexWu/suzerain/internal/models"
)

// SchemaVersion is the payload format version
const SchemaVersion = 1

// ErrNothingToShare is returned for reports with no events
var ErrNothingToShare = errors.New("no analysed events to share")

// Summary is how much data the profile is based on
type Summary struct {
	Sessions int `json:"sessions"`
	Events   int `json:"events"`
	Contexts int `json:"contexts"`
}

// Governance holds acceptance measures
type Governance struct {
	// TrustLevel is nil when no trust-tool events were seen
	TrustLevel         *float64 `json:"trust_level"`
	OverallAcceptance  float64  `json:"overall_acceptance"`
	HighRiskAcceptance float64  `json:"high_risk_acceptance"`
	LowRiskAcceptance  float64  `json:"low_risk_acceptance"`
	SnapJudgmentRate   float64  `json:"snap_judgment_rate"`
}

// Sophistication holds the sophistication score and its inputs
type Sophistication struct {
	Score           float64 `json:"score"`
	AgentRate       float64 `json:"agent_rate"`
	DistinctClasses int     `json:"distinct_classes"`
	MeanDepth       float64 `json:"mean_depth"`
}

// Classification is the categorical outcome
type Classification struct {
	Status     string  `json:"status"`
	Archetype  string  `json:"archetype,omitempty"`
	Rule       string  `json:"rule,omitempty"`
	Confidence string  `json:"confidence"`
	Variance   float64 `json:"variance"`
}

// Payload is exactly what is sent when sharing
type Payload struct {
	SchemaVersion  int            `json:"schema_version"`
	ClientVersion  string         `json:"client_version"`
	Summary        Summary        `json:"summary"`
	Governance     Governance     `json:"governance"`
	Sophistication Sophistication `json:"sophistication"`
	Classification Classification `json:"classification"`
}

// FromReport extracts the shareable aggregate of a report. Values are
// rounded so the payload cannot fingerprint exact event counts per tool.
func FromReport(r *models.Report, clientVersion string) (*Payload, error) {
	if r.Summary.TotalEvents == 0 {
		return nil, ErrNothingToShare
	}
	f := r.Features
	c := r.Classification

	p := &Payload{
		SchemaVersion: SchemaVersion,
		ClientVersion: clientVersion,
		Summary: Summary{
			Sessions: r.Summary.SessionsAnalyzed,
			Events:   r.Summary.TotalEvents,
			Contexts: r.Summary.DistinctContexts,
		},
		Governance: Governance{
			OverallAcceptance:  round(f.OverallAcceptance, 3),
			HighRiskAcceptance: round(f.HighRiskAcceptance, 3),
			LowRiskAcceptance:  round(f.LowRiskAcceptance, 3),
			SnapJudgmentRate:   round(f.SnapJudgmentRate, 3),
		},
		Sophistication: Sophistication{
			Score:           round(f.Sophistication, 2),
			AgentRate:       round(f.Breakdown.AgentRate, 3),
			DistinctClasses: f.Breakdown.DistinctClasses,
			MeanDepth:       round(f.Breakdown.MeanDepth, 0),
		},
		Classification: Classification{
			Status:     c.Status,
			Archetype:  string(c.Archetype),
			Rule:       c.Rule,
			Confidence: c.Confidence,
			Variance:   round(f.Variance, 2),
		},
	}
	if f.TrustDefined {
		trust := round(f.TrustLevel, 3)
		p.Governance.TrustLevel = &trust
	}
	return p, nil
}

// JSON renders the payload as indented JSON
func (p *Payload) JSON() ([]byte, error) {
	return json.MarshalIndent(p, "", "  ")
}

func round(x float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(x*scale) / scale
}
