package display

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/TheApexWu/suzerain/internal/models"
)

const barWidth = 20

var archetypeColors = map[models.Archetype]color.Attribute{
	models.ArchetypeAdaptive:          color.FgMagenta,
	models.ArchetypeDelegator:         color.FgGreen,
	models.ArchetypeCouncil:           color.FgCyan,
	models.ArchetypeGuardian:          color.FgRed,
	models.ArchetypeStrategist:        color.FgBlue,
	models.ArchetypeConstitutionalist: color.FgYellow,
}

// ArchetypeLabel renders an archetype name in its colour
func ArchetypeLabel(a models.Archetype, colored bool) string {
	if a == "" {
		return "-"
	}
	attr, ok := archetypeColors[a]
	if !ok {
		return string(a)
	}
	return painter(colored).paint(string(a), attr, color.Bold)
}

// Profile writes the human-readable governance profile of a report
func Profile(out io.Writer, r *models.Report, colored bool) {
	p := painter(colored)
	f := r.Features
	c := r.Classification
	s := r.Summary

	fmt.Fprintln(out, p.paint("Governance profile", color.Bold))
	sessions := fmt.Sprintf("%d", s.SessionsAnalyzed)
	if s.EmptySessionsSkipped > 0 {
		sessions += fmt.Sprintf(" (%d empty skipped)", s.EmptySessionsSkipped)
	}
	row(out, "Sessions analysed", sessions)
	row(out, "Events", fmt.Sprintf("%d across %d contexts", s.TotalEvents, s.DistinctContexts))
	fmt.Fprintln(out)

	if !c.IsClassified() {
		row(out, "Archetype", p.paint("insufficient data", color.FgYellow)+" ("+insufficientText(c.InsufficientReason)+")")
	} else {
		row(out, "Archetype", fmt.Sprintf("%s  (%s confidence)", ArchetypeLabel(c.Archetype, colored), c.Confidence))
		row(out, "", c.Description)
		row(out, "Rule", c.RuleExplanation)
	}
	fmt.Fprintln(out)

	if f.TrustDefined {
		row(out, "Trust", fmt.Sprintf("%s  %.2f", Bar(f.TrustLevel, barWidth), f.TrustLevel))
	} else {
		row(out, "Trust", "n/a (no trust-tool decisions)")
	}
	row(out, "Sophistication", fmt.Sprintf("%s  %.2f", Bar(f.Sophistication, barWidth), f.Sophistication))
	row(out, "Variance", fmt.Sprintf("%s  %.2f  (%d of %d contexts scored)",
		Bar(f.Variance, barWidth), f.Variance, f.ContextsScored, f.ContextsObserved))

	if f.Events > 0 {
		fmt.Fprintln(out)
		row(out, "Acceptance", fmt.Sprintf("%.0f%% overall, %.0f%% high risk, %.0f%% low risk",
			100*f.OverallAcceptance, 100*f.HighRiskAcceptance, 100*f.LowRiskAcceptance))
		row(out, "Decision time", fmt.Sprintf("%.0f ms mean, %.0f%% snap judgments",
			f.MeanDecisionTimeMS, 100*f.SnapJudgmentRate))
		b := f.Breakdown
		row(out, "Working style", fmt.Sprintf("%.1f%% agent spawns, %d/%d tool classes, %.0f calls per session",
			100*b.AgentRate, b.DistinctClasses, b.VocabularySize, b.MeanDepth))

		if text := commandText(f.Commands); text != "" {
			row(out, "Shell commands", text)
		}
		if len(f.Trend.Periods) > 0 {
			row(out, "Trend", trendText(f.Trend))
		}
		if f.Arc.Defined {
			row(out, "Session arc", fmt.Sprintf("%s: %.0f%% in the first %d decisions, %.0f%% in the last %d (%d sessions)",
				f.Arc.Shape, 100*f.Arc.FirstRate, f.Arc.Window, 100*f.Arc.LastRate, f.Arc.Window, f.Arc.SessionsAnalyzed))
		}
	}

	if len(c.Affinity) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "  Affinity")
		for _, a := range rankAffinity(c.Affinity) {
			fmt.Fprintf(out, "    %-18s %s  %.0f%%\n", a, Bar(c.Affinity[a], barWidth), 100*c.Affinity[a])
		}
	}
}

// commandText lists acceptance per command category that saw decisions
func commandText(b models.CommandBreakdown) string {
	var parts []string
	for _, category := range models.CommandCategories {
		count := b.Get(category)
		if rate, ok := count.Rate(); ok {
			parts = append(parts, fmt.Sprintf("%s %.0f%% of %d",
				strings.ReplaceAll(string(category), "_", "-"), 100*rate, count.Total()))
		}
	}
	return strings.Join(parts, ", ")
}

func trendText(t models.TemporalTrend) string {
	first := t.Periods[0]
	if len(t.Periods) == 1 {
		return fmt.Sprintf("%.0f%% trust over %d days, too short for a weekly trend", 100*first.Rate, t.SpanDays)
	}
	last := t.Periods[len(t.Periods)-1]
	return fmt.Sprintf("%s, %.0f%% to %.0f%% over %d weeks", t.Direction, 100*first.Rate, 100*last.Rate, len(t.Periods))
}

func row(out io.Writer, label, value string) {
	fmt.Fprintf(out, "  %-18s %s\n", label, value)
}

func insufficientText(reason string) string {
	switch reason {
	case models.ReasonNoEvents:
		return "no tool decisions found"
	case models.ReasonNoTrustEvents:
		return "no trust-tool decisions found"
	default:
		return reason
	}
}

// rankAffinity orders archetypes by descending affinity, ties in rule order
func rankAffinity(aff map[models.Archetype]float64) []models.Archetype {
	ranked := make([]models.Archetype, 0, len(aff))
	for _, a := range models.Archetypes {
		if _, ok := aff[a]; ok {
			ranked = append(ranked, a)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return aff[ranked[i]] > aff[ranked[j]]
	})
	return ranked
}

// QualityWarning summarises data-quality warnings of a run, if any
func QualityWarning(s models.ReportSummary) (Warning, bool) {
	if len(s.Warnings) == 0 {
		return Warning{}, false
	}
	kinds := make([]string, 0, len(s.Warnings))
	total := 0
	for kind, n := range s.Warnings {
		kinds = append(kinds, kind)
		total += n
	}
	sort.Strings(kinds)

	items := make([]string, len(kinds))
	for i, kind := range kinds {
		items[i] = fmt.Sprintf("%s: %d", strings.ReplaceAll(kind, "_", " "), s.Warnings[kind])
	}
	return Warning{
		Title:      fmt.Sprintf("%d log records were skipped or adjusted", total),
		Items:      items,
		Suggestion: "run with --log-level debug for details",
	}, true
}
