// Package features derives the three classification axes (trust,
// sophistication, cross-context variance) and supplementary behavioral
// measures from governance events.
package features

import (
	"math"
	"sort"

	"github.com/TheApexWu/suzerain/internal/behavioral"
	"github.com/TheApexWu/suzerain/internal/config"
	"github.com/TheApexWu/suzerain/internal/models"
)

// minSessionsForStdDev is the number of scored sessions needed before the
// per-session trust spread is reported
const minSessionsForStdDev = 3

// Session is the feature engine's unit of input
type Session struct {
	ID      string
	Context string
	Events  []behavioral.Event
}

// FromParsed converts parser output, dropping empty sessions.
// It returns the number of sessions dropped.
func FromParsed(parsed []*behavioral.ParsedSession) ([]Session, int) {
	sessions := make([]Session, 0, len(parsed))
	empty := 0
	for _, p := range parsed {
		if p.Empty() {
			empty++
			continue
		}
		sessions = append(sessions, Session{ID: p.ID, Context: p.Context, Events: p.Events})
	}
	return sessions, empty
}

// Engine computes FeatureVectors. It is stateless after construction and
// safe for concurrent use.
type Engine struct {
	cfg        config.FeatureConfig
	trustTools map[string]bool
	highRisk   map[string]bool
	lowRisk    map[string]bool
	vocabulary map[string]bool
	weights    [3]float64
}

// NewEngine builds an engine from a validated feature configuration
func NewEngine(cfg config.FeatureConfig) *Engine {
	e := &Engine{
		cfg:        cfg,
		trustTools: toSet(cfg.TrustTools),
		highRisk:   toSet(cfg.RiskTiers.High),
		lowRisk:    toSet(cfg.RiskTiers.Low),
		vocabulary: toSet(cfg.Vocabulary()),
	}

	s := cfg.Sophistication
	sum := s.AgentWeight + s.DiversityWeight + s.DepthWeight
	if sum > 0 {
		e.weights = [3]float64{s.AgentWeight / sum, s.DiversityWeight / sum, s.DepthWeight / sum}
	}
	return e
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}

// ratio counts accepted events out of a total
type ratio struct {
	accepted int
	total    int
}

func (r *ratio) add(accepted bool) {
	r.total++
	if accepted {
		r.accepted++
	}
}

func (r ratio) rate() float64 {
	if r.total == 0 {
		return 0
	}
	return float64(r.accepted) / float64(r.total)
}

// ComputeSession computes the feature vector of a single session
func (e *Engine) ComputeSession(s Session) models.FeatureVector {
	return e.Compute([]Session{s})
}

// Compute aggregates sessions into one FeatureVector. Sessions without
// events are ignored. The result is a pure function of the input.
func (e *Engine) Compute(sessions []Session) models.FeatureVector {
	var (
		vec         models.FeatureVector
		overall     ratio
		trust       ratio
		high        ratio
		low         ratio
		agentEvents int
		snap        int
		decisionMS  int64
		classes     = make(map[string]bool)
		byContext   = make(map[string]*ratio)
		bySession   []ratio
		contexts    = make(map[string]bool)
		timeline    []decision
		arcs        [][]decision
	)

	for _, s := range sessions {
		if len(s.Events) == 0 {
			continue
		}
		vec.Sessions++
		contexts[s.Context] = true

		var (
			sessionTrust     ratio
			sessionDecisions []decision
		)
		for _, ev := range s.Events {
			class := ev.ToolClass
			if class == "" {
				class = e.cfg.ToolClass(ev.ToolName)
			}

			overall.add(ev.Accepted)
			if class == config.ClassAgent {
				agentEvents++
			}
			if e.vocabulary[class] {
				classes[class] = true
			}
			if e.highRisk[ev.ToolName] {
				high.add(ev.Accepted)
			}
			if e.lowRisk[ev.ToolName] {
				low.add(ev.Accepted)
			}
			if e.trustTools[ev.ToolName] {
				trust.add(ev.Accepted)
				sessionTrust.add(ev.Accepted)
				r, ok := byContext[s.Context]
				if !ok {
					r = &ratio{}
					byContext[s.Context] = r
				}
				r.add(ev.Accepted)

				d := decision{at: ev.Timestamp, accepted: ev.Accepted}
				sessionDecisions = append(sessionDecisions, d)
				if !ev.Timestamp.IsZero() {
					timeline = append(timeline, d)
				}
			}
			if ev.CommandCategory != "" {
				vec.Commands.Record(ev.CommandCategory, ev.Accepted, ev.Rejected)
			}

			decisionMS += ev.DecisionTimeMS
			if ev.DecisionTimeMS < e.cfg.SnapJudgmentMS {
				snap++
			}
		}
		bySession = append(bySession, sessionTrust)
		arcs = append(arcs, sessionDecisions)
	}

	vec.Events = overall.total
	vec.TrustEvents = trust.total
	vec.ContextsObserved = len(contexts)
	vec.LowConfidence = vec.Events < e.cfg.MinEvents
	if vec.Events == 0 {
		return vec
	}

	if trust.total > 0 {
		vec.TrustDefined = true
		vec.TrustLevel = trust.rate()
	}

	vec.Breakdown = e.sophistication(agentEvents, len(classes), vec.Events, vec.Sessions)
	b := vec.Breakdown
	vec.Sophistication = clip(e.weights[0]*b.AgentScore + e.weights[1]*b.DiversityScore + e.weights[2]*b.DepthScore)

	vec.Variance, vec.ContextsScored = e.variance(byContext)

	vec.OverallAcceptance = overall.rate()
	vec.HighRiskAcceptance = high.rate()
	vec.LowRiskAcceptance = low.rate()
	vec.MeanDecisionTimeMS = float64(decisionMS) / float64(vec.Events)
	vec.SnapJudgmentRate = float64(snap) / float64(vec.Events)
	vec.SessionTrustStdDev = e.sessionSpread(bySession)
	vec.Trend = e.trend(timeline)
	vec.Arc = e.arc(arcs)

	return vec
}

// sophistication combines agent use, tool-class diversity and session depth
func (e *Engine) sophistication(agentEvents, distinct, events, sessions int) models.SophisticationBreakdown {
	s := e.cfg.Sophistication
	b := models.SophisticationBreakdown{
		AgentRate:       float64(agentEvents) / float64(events),
		DistinctClasses: distinct,
		VocabularySize:  len(e.vocabulary),
		MeanDepth:       float64(events) / float64(sessions),
	}
	b.AgentScore = clip(b.AgentRate / s.AgentRateCeiling)
	if b.VocabularySize > 0 {
		b.DiversityScore = clip(float64(distinct) / float64(b.VocabularySize))
	}
	// Depth is log-scaled: 4 calls and 1000 calls are the default endpoints
	b.DepthScore = clip((math.Log(b.MeanDepth) - math.Log(s.DepthFloor)) / (math.Log(s.DepthCeiling) - math.Log(s.DepthFloor)))
	return b
}

// variance is the range of per-context trust over contexts with enough
// trust events, scaled by the configured range ceiling
func (e *Engine) variance(byContext map[string]*ratio) (float64, int) {
	var rates []float64
	for _, r := range byContext {
		if r.total >= e.cfg.Variance.MinContextTrustEvents {
			rates = append(rates, r.rate())
		}
	}
	if len(rates) < 2 {
		return 0, len(rates)
	}
	sort.Float64s(rates)
	spread := rates[len(rates)-1] - rates[0]
	return clip(spread / e.cfg.Variance.RangeCeiling), len(rates)
}

// sessionSpread is the sample standard deviation of per-session trust
func (e *Engine) sessionSpread(sessions []ratio) float64 {
	var rates []float64
	for _, r := range sessions {
		if r.total >= e.cfg.Variance.MinContextTrustEvents {
			rates = append(rates, r.rate())
		}
	}
	if len(rates) < minSessionsForStdDev {
		return 0
	}
	return StdDev(rates)
}

// StdDev returns the sample standard deviation, 0 for fewer than two values
func StdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	mean := 0.0
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))

	ss := 0.0
	for _, x := range xs {
		ss += (x - mean) * (x - mean)
	}
	return math.Sqrt(ss / float64(len(xs)-1))
}

func clip(x float64) float64 {
	if math.IsNaN(x) || x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
