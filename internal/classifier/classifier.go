// Package classifier assigns a FeatureVector to one of six governance
// archetypes using an ordered list of threshold rules. The first rule that
// matches wins; the order is part of the contract.
package classifier

import (
	"fmt"
	"math"

	"github.com/TheApexWu/suzerain/internal/config"
	"github.com/TheApexWu/suzerain/internal/models"
)

// Rule ids, in evaluation order
const (
	RuleAdaptive          = "adaptive-variance"
	RuleDelegator         = "delegator"
	RuleCouncil           = "council"
	RuleGuardian          = "guardian"
	RuleStrategist        = "strategist"
	RuleConstitutionalist = "constitutionalist-fallback"
)

// Rule describes one entry of the ordered rule list
type Rule struct {
	Priority    int              `json:"priority"`
	ID          string           `json:"id"`
	Archetype   models.Archetype `json:"archetype"`
	Condition   string           `json:"condition"`
	Explanation string           `json:"explanation"`
}

// Classifier evaluates the ordered rules against configured thresholds
type Classifier struct {
	th config.Thresholds
}

// New creates a classifier. Thresholds are expected to be validated.
func New(th config.Thresholds) *Classifier {
	return &Classifier{th: th}
}

// Rules lists the rules in the order they are evaluated
func (c *Classifier) Rules() []Rule {
	th := c.th
	return []Rule{
		{1, RuleAdaptive, models.ArchetypeAdaptive,
			fmt.Sprintf("variance >= %.2f", th.AdaptiveVarianceMin),
			"Trust differs sharply between project contexts."},
		{2, RuleDelegator, models.ArchetypeDelegator,
			fmt.Sprintf("trust > %.2f and sophistication < %.2f", th.DelegatorTrustMin, th.SophisticationSplit),
			"Accepts nearly every shell command without advanced tooling."},
		{3, RuleCouncil, models.ArchetypeCouncil,
			fmt.Sprintf("trust > %.2f and sophistication >= %.2f", th.CouncilTrustMin, th.SophisticationSplit),
			"High trust combined with agents, broad tooling or long sessions."},
		{4, RuleGuardian, models.ArchetypeGuardian,
			fmt.Sprintf("trust < %.2f and sophistication < %.2f", th.GuardianTrustMax, th.SophisticationSplit),
			"Rejects shell commands often and keeps tooling simple."},
		{5, RuleStrategist, models.ArchetypeStrategist,
			fmt.Sprintf("trust < %.2f and sophistication >= %.2f", th.StrategistTrustMax, th.SophisticationSplit),
			"Selective trust paired with sophisticated tooling."},
		{6, RuleConstitutionalist, models.ArchetypeConstitutionalist,
			"otherwise",
			"Moderate, consistent policy that no sharper rule captures."},
	}
}

// match runs the rules as a literal if-chain and returns the archetype and rule id
func (c *Classifier) match(trust, soph, variance float64) (models.Archetype, string) {
	th := c.th
	if variance >= th.AdaptiveVarianceMin {
		return models.ArchetypeAdaptive, RuleAdaptive
	}
	if trust > th.DelegatorTrustMin && soph < th.SophisticationSplit {
		return models.ArchetypeDelegator, RuleDelegator
	}
	if trust > th.CouncilTrustMin && soph >= th.SophisticationSplit {
		return models.ArchetypeCouncil, RuleCouncil
	}
	if trust < th.GuardianTrustMax && soph < th.SophisticationSplit {
		return models.ArchetypeGuardian, RuleGuardian
	}
	if trust < th.StrategistTrustMax && soph >= th.SophisticationSplit {
		return models.ArchetypeStrategist, RuleStrategist
	}
	return models.ArchetypeConstitutionalist, RuleConstitutionalist
}

// Classify assigns an archetype. A vector with no events or no trust-tool
// events yields an insufficient_data result instead of a guess.
func (c *Classifier) Classify(v models.FeatureVector) models.Classification {
	result := models.Classification{
		AxisScores: models.AxisScores{
			Trust:          v.TrustLevel,
			Sophistication: v.Sophistication,
			Variance:       v.Variance,
		},
		Confidence: models.ConfidenceHigh,
	}
	if v.LowConfidence {
		result.Confidence = models.ConfidenceLow
	}

	switch {
	case v.Events == 0:
		result.Status = models.StatusInsufficientData
		result.InsufficientReason = models.ReasonNoEvents
		result.Confidence = models.ConfidenceLow
		return result
	case !v.TrustDefined:
		result.Status = models.StatusInsufficientData
		result.InsufficientReason = models.ReasonNoTrustEvents
		result.Confidence = models.ConfidenceLow
		return result
	}

	archetype, ruleID := c.match(v.TrustLevel, v.Sophistication, v.Variance)
	result.Status = models.StatusClassified
	result.Archetype = archetype
	result.Rule = ruleID
	result.Description = archetype.Description()
	result.RuleExplanation = c.explain(ruleID, v)
	result.Affinity = Affinity(v.TrustLevel, v.Sophistication, v.Variance)
	return result
}

// explain renders the rule that fired with the values it fired on
func (c *Classifier) explain(ruleID string, v models.FeatureVector) string {
	for _, r := range c.Rules() {
		if r.ID != ruleID {
			continue
		}
		return fmt.Sprintf("rule %d (%s): %s [trust=%.2f sophistication=%.2f variance=%.2f]. %s",
			r.Priority, r.ID, r.Condition, v.TrustLevel, v.Sophistication, v.Variance, r.Explanation)
	}
	return ""
}

// Affinity returns normalised soft scores of every archetype. They are for
// display only and never decide the archetype.
func Affinity(trust, soph, variance float64) map[models.Archetype]float64 {
	steady := 1 - variance
	scores := map[models.Archetype]float64{
		models.ArchetypeAdaptive:          variance,
		models.ArchetypeDelegator:         trust * (1 - soph) * steady,
		models.ArchetypeCouncil:           trust * soph * steady,
		models.ArchetypeGuardian:          (1 - trust) * (1 - soph) * steady,
		models.ArchetypeStrategist:        (1 - math.Abs(trust-0.5)) * soph * steady,
		models.ArchetypeConstitutionalist: (1 - math.Abs(trust-0.7)) * (1 - math.Abs(soph-0.5)) * steady,
	}

	total := 0.0
	for _, s := range scores {
		total += s
	}
	for a, s := range scores {
		if total > 0 {
			scores[a] = s / total
		} else {
			scores[a] = 1.0 / float64(len(scores))
		}
	}
	return scores
}
