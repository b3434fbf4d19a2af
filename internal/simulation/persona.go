// Package simulation generates synthetic governance sessions from
// parameterised personas. Sessions feed the same feature engine and
// classifier as real logs, which makes it possible to check that a
// persona's archetype is recovered.
package simulation

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/TheApexWu/suzerain/internal/models"
)

// ErrInvalidPersona is wrapped by every ParameterError
var ErrInvalidPersona = errors.New("invalid simulation parameters")

// ParameterError reports an out-of-range persona or run parameter
type ParameterError struct {
	Persona string
	Field   string
	Value   float64
	Reason  string
}

func (e *ParameterError) Error() string {
	if e.Persona == "" {
		return fmt.Sprintf("%s = %v: %s", e.Field, e.Value, e.Reason)
	}
	return fmt.Sprintf("persona %q: %s = %v: %s", e.Persona, e.Field, e.Value, e.Reason)
}

func (e *ParameterError) Unwrap() error {
	return ErrInvalidPersona
}

// ContextSwitching splits a persona's sessions between trusted and
// untrusted project contexts with different shell acceptance.
type ContextSwitching struct {
	HighTrustBashProb float64 `json:"high_trust_bash_prob"`
	LowTrustBashProb  float64 `json:"low_trust_bash_prob"`
}

// Persona is the parameter set that drives session generation
type Persona struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	Description string `json:"description"`

	BashAcceptanceProb     float64 `json:"bash_acceptance_prob"`
	HighRiskAcceptanceProb float64 `json:"high_risk_acceptance_prob"`
	LowRiskAcceptanceProb  float64 `json:"low_risk_acceptance_prob"`

	UsesAgents       bool    `json:"uses_agents"`
	AgentProbability float64 `json:"agent_probability"`

	MeanSessionDepth    int   `json:"mean_session_depth"`
	ToolDiversityTarget int   `json:"tool_diversity_target"`
	MeanDecisionTimeMS  int64 `json:"mean_decision_time_ms"`

	ContextSwitching *ContextSwitching `json:"context_switching,omitempty"`

	// ExpectedArchetype is what the classifier should recover, if known
	ExpectedArchetype models.Archetype `json:"expected_archetype,omitempty"`
}

// Validate checks every probability lies in [0,1] and every size is positive
func (p Persona) Validate() error {
	type prob struct {
		field string
		value float64
	}
	probs := []prob{
		{"bash_acceptance_prob", p.BashAcceptanceProb},
		{"high_risk_acceptance_prob", p.HighRiskAcceptanceProb},
		{"low_risk_acceptance_prob", p.LowRiskAcceptanceProb},
		{"agent_probability", p.AgentProbability},
	}
	if cs := p.ContextSwitching; cs != nil {
		probs = append(probs,
			prob{"high_trust_bash_prob", cs.HighTrustBashProb},
			prob{"low_trust_bash_prob", cs.LowTrustBashProb},
		)
	}
	for _, pr := range probs {
		if math.IsNaN(pr.value) || pr.value < 0 || pr.value > 1 {
			return &ParameterError{Persona: p.Name, Field: pr.field, Value: pr.value, Reason: "must be within [0, 1]"}
		}
	}

	if p.MeanSessionDepth < 1 {
		return &ParameterError{Persona: p.Name, Field: "mean_session_depth", Value: float64(p.MeanSessionDepth), Reason: "must be positive"}
	}
	if p.ToolDiversityTarget < 1 {
		return &ParameterError{Persona: p.Name, Field: "tool_diversity_target", Value: float64(p.ToolDiversityTarget), Reason: "must be positive"}
	}
	if p.MeanDecisionTimeMS < 0 {
		return &ParameterError{Persona: p.Name, Field: "mean_decision_time_ms", Value: float64(p.MeanDecisionTimeMS), Reason: "must not be negative"}
	}
	if p.ExpectedArchetype != "" && !p.ExpectedArchetype.Valid() {
		return fmt.Errorf("persona %q: %w: unknown expected archetype %q", p.Name, ErrInvalidPersona, p.ExpectedArchetype)
	}
	return nil
}

// catalogue holds the built-in personas, keyed by Persona.Key
var catalogue = []Persona{
	{
		Key: "junior_dev", Name: "Junior Developer",
		Description:        "New to AI tools, trusts everything, shallow sessions",
		BashAcceptanceProb: 0.95, HighRiskAcceptanceProb: 0.95, LowRiskAcceptanceProb: 1.0,
		MeanSessionDepth: 15, ToolDiversityTarget: 3, MeanDecisionTimeMS: 300,
		ExpectedArchetype: models.ArchetypeDelegator,
	},
	{
		Key: "hobbyist", Name: "Hobbyist",
		Description:        "Casual side-project user with quick questions and high trust",
		BashAcceptanceProb: 0.98, HighRiskAcceptanceProb: 0.98, LowRiskAcceptanceProb: 1.0,
		MeanSessionDepth: 8, ToolDiversityTarget: 2, MeanDecisionTimeMS: 200,
		ExpectedArchetype: models.ArchetypeDelegator,
	},
	{
		Key: "copilot_refugee", Name: "Copilot Refugee",
		Description:        "Used to inline completion, still learning the agent workflow",
		BashAcceptanceProb: 0.85, HighRiskAcceptanceProb: 0.9, LowRiskAcceptanceProb: 1.0,
		MeanSessionDepth: 25, ToolDiversityTarget: 4, MeanDecisionTimeMS: 800,
	},
	{
		Key: "senior_swe", Name: "Senior Software Engineer",
		Description:        "Experienced, uses agents, deep sessions, moderate caution",
		BashAcceptanceProb: 0.7, HighRiskAcceptanceProb: 0.85, LowRiskAcceptanceProb: 1.0,
		UsesAgents: true, AgentProbability: 0.15,
		MeanSessionDepth: 150, ToolDiversityTarget: 9, MeanDecisionTimeMS: 1500,
	},
	{
		Key: "staff_engineer", Name: "Staff Engineer",
		Description:        "Orchestrates complex tasks with heavy agent usage",
		BashAcceptanceProb: 0.65, HighRiskAcceptanceProb: 0.8, LowRiskAcceptanceProb: 1.0,
		UsesAgents: true, AgentProbability: 0.25,
		MeanSessionDepth: 250, ToolDiversityTarget: 11, MeanDecisionTimeMS: 2000,
		ExpectedArchetype: models.ArchetypeStrategist,
	},
	{
		Key: "devops_sre", Name: "DevOps / SRE",
		Description:        "Heavy shell user with an operational mindset and fast decisions",
		BashAcceptanceProb: 0.8, HighRiskAcceptanceProb: 0.85, LowRiskAcceptanceProb: 1.0,
		UsesAgents: true, AgentProbability: 0.1,
		MeanSessionDepth: 80, ToolDiversityTarget: 6, MeanDecisionTimeMS: 600,
	},
	{
		Key: "agent_orchestrator", Name: "Agent Orchestrator",
		Description:        "Trusts the shell and hands work to sub-agents across long, varied sessions",
		BashAcceptanceProb: 0.92, HighRiskAcceptanceProb: 0.9, LowRiskAcceptanceProb: 1.0,
		UsesAgents: true, AgentProbability: 0.2,
		MeanSessionDepth: 150, ToolDiversityTarget: 9, MeanDecisionTimeMS: 1000,
		ExpectedArchetype: models.ArchetypeCouncil,
	},
	{
		Key: "steady_maintainer", Name: "Steady Maintainer",
		Description:        "Works through short, focused sessions without agents and approves about half of shell commands",
		BashAcceptanceProb: 0.6, HighRiskAcceptanceProb: 0.8, LowRiskAcceptanceProb: 1.0,
		MeanSessionDepth: 30, ToolDiversityTarget: 4, MeanDecisionTimeMS: 2500,
		ExpectedArchetype: models.ArchetypeConstitutionalist,
	},
	{
		Key: "security_engineer", Name: "Security Engineer",
		Description:        "Very cautious with the shell, reviews everything, slow",
		BashAcceptanceProb: 0.3, HighRiskAcceptanceProb: 0.5, LowRiskAcceptanceProb: 0.95,
		MeanSessionDepth: 40, ToolDiversityTarget: 5, MeanDecisionTimeMS: 5000,
		ExpectedArchetype: models.ArchetypeGuardian,
	},
	{
		Key: "compliance_reviewer", Name: "Compliance Reviewer",
		Description:        "Reads a lot, rarely writes, very selective",
		BashAcceptanceProb: 0.4, HighRiskAcceptanceProb: 0.6, LowRiskAcceptanceProb: 1.0,
		MeanSessionDepth: 30, ToolDiversityTarget: 4, MeanDecisionTimeMS: 3000,
		ExpectedArchetype: models.ArchetypeGuardian,
	},
	{
		Key: "paranoid_senior", Name: "Paranoid Senior Dev",
		Description:        "Experienced but distrustful, rejects most shell commands",
		BashAcceptanceProb: 0.25, HighRiskAcceptanceProb: 0.6, LowRiskAcceptanceProb: 1.0,
		UsesAgents: true, AgentProbability: 0.05,
		MeanSessionDepth: 100, ToolDiversityTarget: 8, MeanDecisionTimeMS: 4000,
	},
	{
		Key: "prod_oncall", Name: "Production On-Call",
		Description:        "Cautious in production, fast in development",
		BashAcceptanceProb: 0.5, HighRiskAcceptanceProb: 0.7, LowRiskAcceptanceProb: 1.0,
		UsesAgents: true, AgentProbability: 0.12,
		MeanSessionDepth: 70, ToolDiversityTarget: 7, MeanDecisionTimeMS: 2500,
		ContextSwitching:  &ContextSwitching{HighTrustBashProb: 0.95, LowTrustBashProb: 0.2},
		ExpectedArchetype: models.ArchetypeAdaptive,
	},
	{
		Key: "context_switcher", Name: "Context Switcher",
		Description:        "Full trust on maintenance work, almost none on active development",
		BashAcceptanceProb: 0.5, HighRiskAcceptanceProb: 0.8, LowRiskAcceptanceProb: 1.0,
		UsesAgents: true, AgentProbability: 0.1,
		MeanSessionDepth: 100, ToolDiversityTarget: 8, MeanDecisionTimeMS: 2000,
		ContextSwitching:  &ContextSwitching{HighTrustBashProb: 1.0, LowTrustBashProb: 0.05},
		ExpectedArchetype: models.ArchetypeAdaptive,
	},
	{
		Key: "project_guardian", Name: "Project Guardian",
		Description:        "Trusts familiar projects, cautious on new codebases",
		BashAcceptanceProb: 0.6, HighRiskAcceptanceProb: 0.75, LowRiskAcceptanceProb: 1.0,
		UsesAgents: true, AgentProbability: 0.08,
		MeanSessionDepth: 60, ToolDiversityTarget: 6, MeanDecisionTimeMS: 1800,
		ContextSwitching: &ContextSwitching{HighTrustBashProb: 0.9, LowTrustBashProb: 0.3},
	},
}

// Personas returns the built-in catalogue sorted by key
func Personas() []Persona {
	out := make([]Persona, len(catalogue))
	copy(out, catalogue)
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// LookupPersona finds a built-in persona by key
func LookupPersona(key string) (Persona, bool) {
	for _, p := range catalogue {
		if p.Key == key {
			return p, true
		}
	}
	return Persona{}, false
}
