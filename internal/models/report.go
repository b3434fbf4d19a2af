package models

import (
	"encoding/json"
	"time"
)

// ReportSummary counts what went into a report. It carries no raw tool
// content, paths, commands or project names.
type ReportSummary struct {
	SessionsAnalyzed     int            `json:"sessions_analyzed"`
	EmptySessionsSkipped int            `json:"empty_sessions_skipped"`
	TotalEvents          int            `json:"total_events"`
	DistinctContexts     int            `json:"distinct_contexts"`
	Warnings             map[string]int `json:"data_quality_warnings,omitempty"`
}

// Report is the output contract of an analysis run
type Report struct {
	RunID          string         `json:"run_id,omitempty"`
	Version        string         `json:"version"`
	GeneratedAt    time.Time      `json:"generated_at"`
	Summary        ReportSummary  `json:"summary"`
	Features       FeatureVector  `json:"features"`
	Classification Classification `json:"classification"`
}

// JSON renders the report as indented JSON
func (r *Report) JSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}
