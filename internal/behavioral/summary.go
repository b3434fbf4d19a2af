package behavioral

// Decision time buckets, in display order
const (
	BucketUnder500ms = "<500ms"
	Bucket500msTo2s  = "500ms-2s"
	Bucket2sTo10s    = "2s-10s"
	Bucket10sTo60s   = "10s-60s"
	BucketOver60s    = ">=60s"
)

// DecisionBuckets lists the bucket names in ascending order
var DecisionBuckets = []string{BucketUnder500ms, Bucket500msTo2s, Bucket2sTo10s, Bucket10sTo60s, BucketOver60s}

// SessionSummary aggregates one session. Built once by Summarize and never
// mutated afterwards.
type SessionSummary struct {
	SessionID string
	Context   string

	ToolCounts       map[string]int
	AcceptanceByTool map[string]float64

	Accepted int
	Rejected int
	Errors   int

	MeanDecisionTimeMS       float64
	DecisionTimeDistribution map[string]int

	// Depth is the number of events in the session
	Depth int
}

// Summarize builds the SessionSummary of a session's events
func Summarize(sessionID, context string, events []Event) SessionSummary {
	s := SessionSummary{
		SessionID:                sessionID,
		Context:                  context,
		ToolCounts:               make(map[string]int),
		AcceptanceByTool:         make(map[string]float64),
		DecisionTimeDistribution: make(map[string]int, len(DecisionBuckets)),
		Depth:                    len(events),
	}
	for _, bucket := range DecisionBuckets {
		s.DecisionTimeDistribution[bucket] = 0
	}

	accepted := make(map[string]int)
	var totalMS int64
	for _, e := range events {
		s.ToolCounts[e.ToolName]++
		switch {
		case e.Accepted:
			s.Accepted++
			accepted[e.ToolName]++
		case e.Rejected:
			s.Rejected++
		default:
			s.Errors++
		}
		totalMS += e.DecisionTimeMS
		s.DecisionTimeDistribution[DecisionBucket(e.DecisionTimeMS)]++
	}

	for tool, n := range s.ToolCounts {
		s.AcceptanceByTool[tool] = float64(accepted[tool]) / float64(n)
	}
	if len(events) > 0 {
		s.MeanDecisionTimeMS = float64(totalMS) / float64(len(events))
	}
	return s
}

// DecisionBucket returns the distribution bucket of a decision time
func DecisionBucket(ms int64) string {
	switch {
	case ms < 500:
		return BucketUnder500ms
	case ms < 2000:
		return Bucket500msTo2s
	case ms < 10000:
		return Bucket2sTo10s
	case ms < 60000:
		return Bucket10sTo60s
	default:
		return BucketOver60s
	}
}

// AcceptanceRate returns accepted events over all events, 0 for an empty session
func (s SessionSummary) AcceptanceRate() float64 {
	if s.Depth == 0 {
		return 0
	}
	return float64(s.Accepted) / float64(s.Depth)
}
