package features

import (
	"testing"
	"time"

	"github.com/TheApexWu/suzerain/internal/behavioral"
	"github.com/TheApexWu/suzerain/internal/config"
	"github.com/TheApexWu/suzerain/internal/models"
)

var monday = time.Date(2025, time.January, 6, 9, 0, 0, 0, time.UTC)

// bashRun builds Bash events one minute apart from start. Each byte of
// outcomes is y (accepted) or n (rejected).
func bashRun(start time.Time, outcomes string) []behavioral.Event {
	events := make([]behavioral.Event, len(outcomes))
	for i := range outcomes {
		accepted := outcomes[i] == 'y'
		events[i] = behavioral.Event{
			ToolName:  "Bash",
			ToolClass: config.ClassShell,
			Accepted:  accepted,
			Rejected:  !accepted,
			Timestamp: start.Add(time.Duration(i) * time.Minute),
		}
	}
	return events
}

func TestCommandBreakdown(t *testing.T) {
	events := []behavioral.Event{
		{ToolName: "Bash", ToolClass: config.ClassShell, Accepted: true, CommandCategory: models.CommandReadOnly},
		{ToolName: "Bash", ToolClass: config.ClassShell, Accepted: true, CommandCategory: models.CommandReadOnly},
		{ToolName: "Bash", ToolClass: config.ClassShell, Rejected: true, CommandCategory: models.CommandDestructive},
		{ToolName: "Bash", ToolClass: config.ClassShell, Accepted: true, CommandCategory: models.CommandDestructive},
		// plain failure: neither accepted nor rejected
		{ToolName: "Bash", ToolClass: config.ClassShell, CommandCategory: models.CommandStateChanging},
		{ToolName: "Bash", ToolClass: config.ClassShell, Accepted: true},
		{ToolName: "Read", ToolClass: config.ClassRead, Accepted: true},
	}

	vec := defaultEngine().ComputeSession(Session{ID: "s", Context: "c", Events: events})
	b := vec.Commands

	tests := []struct {
		category     models.CommandCategory
		wantAccepted int
		wantRejected int
	}{
		{models.CommandReadOnly, 2, 0},
		{models.CommandDestructive, 1, 1},
		{models.CommandStateChanging, 0, 0},
		{models.CommandUnknown, 0, 0},
	}
	for _, tt := range tests {
		got := b.Get(tt.category)
		if got.Accepted != tt.wantAccepted || got.Rejected != tt.wantRejected {
			t.Errorf("%s = %+v, want %d accepted %d rejected", tt.category, got, tt.wantAccepted, tt.wantRejected)
		}
	}
	if b.Total() != 4 {
		t.Errorf("Total() = %d, want 4", b.Total())
	}
	if rate, ok := b.Get(models.CommandDestructive).Rate(); !ok || rate != 0.5 {
		t.Errorf("destructive rate = %v (ok=%v), want 0.5", rate, ok)
	}
	if _, ok := b.Get(models.CommandStateChanging).Rate(); ok {
		t.Error("state_changing rate should be undefined")
	}
}

func TestTemporalTrend(t *testing.T) {
	week := 7 * 24 * time.Hour

	tests := []struct {
		name          string
		sessions      [][]behavioral.Event
		wantPeriods   int
		wantDirection models.TrendDirection
		wantMagnitude float64
	}{
		{
			name:          "less than a week is one period",
			sessions:      [][]behavioral.Event{bashRun(monday, "yyyn"), bashRun(monday.Add(48*time.Hour), "ynyy")},
			wantPeriods:   1,
			wantDirection: models.TrendStable,
		},
		{
			name: "rising acceptance",
			sessions: [][]behavioral.Event{
				bashRun(monday, "yyyynnnnnn"),
				bashRun(monday.Add(week), "yyy"),
				bashRun(monday.Add(2*week), "yyyyyyyyyn"),
			},
			wantPeriods:   2,
			wantDirection: models.TrendIncreasing,
			wantMagnitude: 0.5,
		},
		{
			name: "falling acceptance",
			sessions: [][]behavioral.Event{
				bashRun(monday, "yyyyyyyyyy"),
				bashRun(monday.Add(week), "yyynnnnnnn"),
			},
			wantPeriods:   2,
			wantDirection: models.TrendDecreasing,
			wantMagnitude: -0.7,
		},
		{
			name: "small change is stable",
			sessions: [][]behavioral.Event{
				bashRun(monday, "yyyyyyyynn"),
				bashRun(monday.Add(week), "yyyyyyyyyn"),
			},
			wantPeriods:   2,
			wantDirection: models.TrendStable,
			wantMagnitude: 0.1,
		},
		{
			name: "no timestamps",
			sessions: [][]behavioral.Event{
				calls("Bash", 10, 5, 100),
			},
			wantPeriods:   0,
			wantDirection: models.TrendStable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var sessions []Session
			for i, events := range tt.sessions {
				sessions = append(sessions, Session{ID: string(rune('a' + i)), Context: "c", Events: events})
			}
			trend := defaultEngine().Compute(sessions).Trend

			if len(trend.Periods) != tt.wantPeriods {
				t.Fatalf("periods = %+v, want %d", trend.Periods, tt.wantPeriods)
			}
			if trend.Direction != tt.wantDirection {
				t.Errorf("Direction = %s, want %s", trend.Direction, tt.wantDirection)
			}
			if !approx(trend.Magnitude, tt.wantMagnitude) {
				t.Errorf("Magnitude = %v, want %v", trend.Magnitude, tt.wantMagnitude)
			}
		})
	}
}

func TestTemporalTrendPeriods(t *testing.T) {
	sessions := []Session{
		{ID: "a", Context: "c", Events: bashRun(monday.Add(26*time.Hour), "yyyynnnnnn")},
		{ID: "b", Context: "c", Events: bashRun(monday.Add(15*24*time.Hour), "yyyyyyyyyn")},
	}
	trend := defaultEngine().Compute(sessions).Trend

	if trend.SpanDays != 14 {
		t.Errorf("SpanDays = %d, want 14", trend.SpanDays)
	}
	want := []time.Time{
		time.Date(2025, time.January, 6, 0, 0, 0, 0, time.UTC),
		time.Date(2025, time.January, 20, 0, 0, 0, 0, time.UTC),
	}
	for i, p := range trend.Periods {
		if !p.Start.Equal(want[i]) {
			t.Errorf("period %d starts %s, want %s", i, p.Start, want[i])
		}
		if p.Events != 10 {
			t.Errorf("period %d events = %d, want 10", i, p.Events)
		}
	}
}

func TestWeekStart(t *testing.T) {
	tests := []struct {
		in   time.Time
		want time.Time
	}{
		{time.Date(2025, time.January, 6, 9, 0, 0, 0, time.UTC), time.Date(2025, time.January, 6, 0, 0, 0, 0, time.UTC)},
		{time.Date(2025, time.January, 12, 23, 59, 0, 0, time.UTC), time.Date(2025, time.January, 6, 0, 0, 0, 0, time.UTC)},
		{time.Date(2025, time.January, 13, 0, 0, 0, 0, time.UTC), time.Date(2025, time.January, 13, 0, 0, 0, 0, time.UTC)},
		{time.Date(2025, time.January, 1, 12, 0, 0, 0, time.UTC), time.Date(2024, time.December, 30, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		if got := weekStart(tt.in); !got.Equal(tt.want) {
			t.Errorf("weekStart(%s) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func reversed(events []behavioral.Event) []behavioral.Event {
	out := make([]behavioral.Event, len(events))
	for i, ev := range events {
		out[len(events)-1-i] = ev
	}
	return out
}

func TestSessionArc(t *testing.T) {
	warm := "yyynnnnnnn" + "yyyyyyyyyn"
	cool := "yyyyyyyyyy" + "yynnnnnnnn"
	flat := "yyyyynnnnn" + "yyyyyynnnn"

	tests := []struct {
		name         string
		runs         []string
		wantDefined  bool
		wantAnalyzed int
		wantShape    models.ArcShape
		wantFirst    float64
		wantLast     float64
	}{
		{"warmup", []string{warm, warm, warm}, true, 3, models.ArcWarmup, 0.3, 0.9},
		{"cooldown", []string{cool, cool, cool}, true, 3, models.ArcCooldown, 1.0, 0.2},
		{"flat", []string{flat, flat, flat}, true, 3, models.ArcFlat, 0.5, 0.6},
		{"too few sessions", []string{warm, warm}, false, 2, models.ArcFlat, 0, 0},
		{"short sessions ignored", []string{warm, warm, warm, "yyyyyyyyyyyyyyyyyyy"}, true, 3, models.ArcWarmup, 0.3, 0.9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var sessions []Session
			for i, run := range tt.runs {
				events := bashRun(monday.Add(time.Duration(i)*time.Hour), run)
				// order in the slice must not matter
				sessions = append(sessions, Session{ID: string(rune('a' + i)), Context: "c", Events: reversed(events)})
			}
			arc := defaultEngine().Compute(sessions).Arc

			if arc.Defined != tt.wantDefined || arc.SessionsAnalyzed != tt.wantAnalyzed {
				t.Fatalf("arc = %+v, want defined=%v analyzed=%d", arc, tt.wantDefined, tt.wantAnalyzed)
			}
			if arc.Window != 10 {
				t.Errorf("Window = %d, want 10", arc.Window)
			}
			if arc.Shape != tt.wantShape {
				t.Errorf("Shape = %s, want %s", arc.Shape, tt.wantShape)
			}
			if !approx(arc.FirstRate, tt.wantFirst) || !approx(arc.LastRate, tt.wantLast) {
				t.Errorf("rates = %v -> %v, want %v -> %v", arc.FirstRate, arc.LastRate, tt.wantFirst, tt.wantLast)
			}
		})
	}
}
