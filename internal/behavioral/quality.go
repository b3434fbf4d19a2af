package behavioral

import (
	"fmt"
	"sort"
)

// WarningKind classifies a data-quality problem found while parsing
type WarningKind string

const (
	// WarnUnmatchedRequest: a tool_use never received a tool_result
	WarnUnmatchedRequest WarningKind = "unmatched_request"
	// WarnOrphanResponse: a tool_result references an unknown tool_use
	WarnOrphanResponse WarningKind = "orphan_response"
	// WarnMalformedRecord: the line is not valid JSON
	WarnMalformedRecord WarningKind = "malformed_record"
	// WarnMissingField: a record lacks a field it needs
	WarnMissingField WarningKind = "missing_field"
	// WarnNegativeDecisionTime: the response predates the request
	WarnNegativeDecisionTime WarningKind = "negative_decision_time"
	// WarnMissingTimestamp: request or response timestamp absent or unparseable
	WarnMissingTimestamp WarningKind = "missing_timestamp"
)

// Warning is a non-fatal parsing problem. Detail never contains tool input or output.
type Warning struct {
	Kind      WarningKind
	SessionID string
	Line      int
	Detail    string
}

func (w Warning) String() string {
	return fmt.Sprintf("session %s line %d: %s (%s)", w.SessionID, w.Line, w.Kind, w.Detail)
}

// DataQuality counts warnings by kind
type DataQuality map[WarningKind]int

// Add counts one warning
func (q DataQuality) Add(kind WarningKind) {
	q[kind]++
}

// Merge adds every count of other into q
func (q DataQuality) Merge(other DataQuality) {
	for kind, n := range other {
		q[kind] += n
	}
}

// Total returns the number of warnings across kinds
func (q DataQuality) Total() int {
	total := 0
	for _, n := range q {
		total += n
	}
	return total
}

// ByName returns the counts keyed by plain strings, for reports.
func (q DataQuality) ByName() map[string]int {
	if len(q) == 0 {
		return nil
	}
	out := make(map[string]int, len(q))
	for kind, n := range q {
		out[string(kind)] = n
	}
	return out
}

// Kinds returns the warning kinds present, sorted
func (q DataQuality) Kinds() []WarningKind {
	kinds := make([]WarningKind, 0, len(q))
	for kind := range q {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}
