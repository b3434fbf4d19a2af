package behavioral

import (
	"testing"
)

func TestSummarize(t *testing.T) {
	events := []Event{
		{ToolName: "Bash", Accepted: true, DecisionTimeMS: 100},
		{ToolName: "Bash", Rejected: true, DecisionTimeMS: 1500},
		{ToolName: "Bash", DecisionTimeMS: 3000},
		{ToolName: "Read", Accepted: true, DecisionTimeMS: 20000},
		{ToolName: "Read", Accepted: true, DecisionTimeMS: 90000},
	}

	s := Summarize("s1", "c1", events)

	if s.Depth != 5 {
		t.Errorf("Depth = %d, want 5", s.Depth)
	}
	if s.ToolCounts["Bash"] != 3 || s.ToolCounts["Read"] != 2 {
		t.Errorf("ToolCounts = %v", s.ToolCounts)
	}
	if got := s.AcceptanceByTool["Bash"]; got != 1.0/3.0 {
		t.Errorf("AcceptanceByTool[Bash] = %v, want 1/3", got)
	}
	if got := s.AcceptanceByTool["Read"]; got != 1.0 {
		t.Errorf("AcceptanceByTool[Read] = %v, want 1", got)
	}
	if s.Accepted != 3 || s.Rejected != 1 || s.Errors != 1 {
		t.Errorf("Accepted/Rejected/Errors = %d/%d/%d, want 3/1/1", s.Accepted, s.Rejected, s.Errors)
	}
	if s.MeanDecisionTimeMS != 22920 {
		t.Errorf("MeanDecisionTimeMS = %v, want 22920", s.MeanDecisionTimeMS)
	}
	for _, bucket := range DecisionBuckets {
		if s.DecisionTimeDistribution[bucket] != 1 {
			t.Errorf("bucket %s = %d, want 1", bucket, s.DecisionTimeDistribution[bucket])
		}
	}
	if got := s.AcceptanceRate(); got != 0.6 {
		t.Errorf("AcceptanceRate() = %v, want 0.6", got)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize("s", "c", nil)
	if s.Depth != 0 || s.MeanDecisionTimeMS != 0 || s.AcceptanceRate() != 0 {
		t.Errorf("unexpected summary of empty session: %+v", s)
	}
	if len(s.DecisionTimeDistribution) != len(DecisionBuckets) {
		t.Errorf("every bucket should be present, got %v", s.DecisionTimeDistribution)
	}
}

func TestDecisionBucketBoundaries(t *testing.T) {
	tests := []struct {
		ms   int64
		want string
	}{
		{0, BucketUnder500ms},
		{499, BucketUnder500ms},
		{500, Bucket500msTo2s},
		{1999, Bucket500msTo2s},
		{2000, Bucket2sTo10s},
		{10000, Bucket10sTo60s},
		{59999, Bucket10sTo60s},
		{60000, BucketOver60s},
	}
	for _, tt := range tests {
		if got := DecisionBucket(tt.ms); got != tt.want {
			t.Errorf("DecisionBucket(%d) = %q, want %q", tt.ms, got, tt.want)
		}
	}
}

func TestDataQuality(t *testing.T) {
	q := make(DataQuality)
	q.Add(WarnOrphanResponse)
	q.Add(WarnOrphanResponse)

	other := DataQuality{WarnMalformedRecord: 3}
	q.Merge(other)

	if q.Total() != 5 {
		t.Errorf("Total() = %d, want 5", q.Total())
	}
	kinds := q.Kinds()
	if len(kinds) != 2 || kinds[0] != WarnMalformedRecord {
		t.Errorf("Kinds() = %v", kinds)
	}
	if byName := q.ByName(); byName["orphan_response"] != 2 {
		t.Errorf("ByName() = %v", byName)
	}
	if (DataQuality{}).ByName() != nil {
		t.Error("ByName() of empty quality should be nil")
	}
}

func TestProjectContextIsStableAndOpaque(t *testing.T) {
	a := ProjectContext("-Users-alex-shop")
	if a != ProjectContext("-Users-alex-shop") {
		t.Error("ProjectContext must be deterministic")
	}
	if a == ProjectContext("-Users-alex-infra") {
		t.Error("different projects should hash differently")
	}
	if len(a) != 12 {
		t.Errorf("len = %d, want 12", len(a))
	}
}
