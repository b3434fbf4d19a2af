package models

import "time"

// CommandCategory groups shell commands by how much they can change
type CommandCategory string

const (
	CommandDestructive   CommandCategory = "destructive"
	CommandStateChanging CommandCategory = "state_changing"
	CommandReadOnly      CommandCategory = "read_only"
	CommandUnknown       CommandCategory = "unknown"
)

// CommandCategories lists the categories from most to least dangerous,
// with unknown last.
var CommandCategories = []CommandCategory{
	CommandDestructive,
	CommandStateChanging,
	CommandReadOnly,
	CommandUnknown,
}

// DecisionCount tallies accepted and rejected decisions. Plain tool
// failures are neither.
type DecisionCount struct {
	Accepted int `json:"accepted"`
	Rejected int `json:"rejected"`
}

// Total is accepted plus rejected
func (d DecisionCount) Total() int {
	return d.Accepted + d.Rejected
}

// Rate returns the acceptance rate; ok is false when nothing was decided.
func (d DecisionCount) Rate() (rate float64, ok bool) {
	if d.Total() == 0 {
		return 0, false
	}
	return float64(d.Accepted) / float64(d.Total()), true
}

// CommandBreakdown counts shell decisions per command category
type CommandBreakdown struct {
	Destructive   DecisionCount `json:"destructive"`
	StateChanging DecisionCount `json:"state_changing"`
	ReadOnly      DecisionCount `json:"read_only"`
	Unknown       DecisionCount `json:"unknown"`
}

// Get returns the count for a category; unrecognised categories count as unknown.
func (b CommandBreakdown) Get(c CommandCategory) DecisionCount {
	return *b.slot(c)
}

// Record counts one decision under c
func (b *CommandBreakdown) Record(c CommandCategory, accepted, rejected bool) {
	slot := b.slot(c)
	switch {
	case accepted:
		slot.Accepted++
	case rejected:
		slot.Rejected++
	}
}

// Total is the number of decisions across categories
func (b CommandBreakdown) Total() int {
	return b.Destructive.Total() + b.StateChanging.Total() + b.ReadOnly.Total() + b.Unknown.Total()
}

func (b *CommandBreakdown) slot(c CommandCategory) *DecisionCount {
	switch c {
	case CommandDestructive:
		return &b.Destructive
	case CommandStateChanging:
		return &b.StateChanging
	case CommandReadOnly:
		return &b.ReadOnly
	default:
		return &b.Unknown
	}
}

// TrendDirection is the sign of a change in trust over time
type TrendDirection string

const (
	TrendIncreasing TrendDirection = "increasing"
	TrendDecreasing TrendDirection = "decreasing"
	TrendStable     TrendDirection = "stable"
)

// PeriodRate is trust-tool acceptance over one period
type PeriodRate struct {
	Start  time.Time `json:"start"`
	Rate   float64   `json:"rate"`
	Events int       `json:"events"`
}

// TemporalTrend follows trust-tool acceptance week by week. Data spanning
// less than a week is reported as a single period.
type TemporalTrend struct {
	Periods   []PeriodRate   `json:"periods,omitempty"`
	SpanDays  int            `json:"span_days"`
	Magnitude float64        `json:"magnitude"`
	Direction TrendDirection `json:"direction,omitempty"`
}

// ArcShape describes how trust moves within a session
type ArcShape string

const (
	ArcWarmup   ArcShape = "warmup"
	ArcCooldown ArcShape = "cooldown"
	ArcFlat     ArcShape = "flat"
)

// SessionArc compares acceptance of the first and last Window trust-tool
// decisions of each long enough session. Rates are only meaningful when
// Defined is true.
type SessionArc struct {
	Window           int      `json:"window"`
	SessionsAnalyzed int      `json:"sessions_analyzed"`
	Defined          bool     `json:"defined"`
	FirstRate        float64  `json:"first_rate"`
	LastRate         float64  `json:"last_rate"`
	Magnitude        float64  `json:"magnitude"`
	Shape            ArcShape `json:"shape,omitempty"`
}
