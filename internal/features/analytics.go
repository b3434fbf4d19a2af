package features

import (
	"sort"
	"time"

	"github.com/TheApexWu/suzerain/internal/models"
)

// decision is one trust-tool outcome with its time
type decision struct {
	at       time.Time
	accepted bool
}

func byTime(ds []decision) {
	sort.SliceStable(ds, func(i, j int) bool { return ds[i].at.Before(ds[j].at) })
}

func acceptance(ds []decision) float64 {
	var r ratio
	for _, d := range ds {
		r.add(d.accepted)
	}
	return r.rate()
}

// shifted is 1 or -1 when delta moves past the shift threshold, else 0
func (e *Engine) shifted(delta float64) int {
	threshold := e.cfg.Analytics.ShiftThreshold
	switch {
	case delta > threshold:
		return 1
	case delta < -threshold:
		return -1
	default:
		return 0
	}
}

// weekStart truncates t to Monday 00:00 UTC
func weekStart(t time.Time) time.Time {
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return day.AddDate(0, 0, -((int(day.Weekday()) + 6) % 7))
}

// trend buckets timestamped trust-tool decisions by week. Weeks with too
// few decisions are left out; data spanning less than a week becomes one
// period.
func (e *Engine) trend(ds []decision) models.TemporalTrend {
	trend := models.TemporalTrend{Direction: models.TrendStable}
	if len(ds) == 0 {
		return trend
	}
	byTime(ds)

	first, last := ds[0].at, ds[len(ds)-1].at
	trend.SpanDays = int(last.Sub(first).Hours()/24) + 1

	if trend.SpanDays < 7 {
		day := first.UTC().Truncate(24 * time.Hour)
		trend.Periods = []models.PeriodRate{{Start: day, Rate: acceptance(ds), Events: len(ds)}}
		return trend
	}

	weeks := make(map[time.Time][]decision)
	var starts []time.Time
	for _, d := range ds {
		w := weekStart(d.at)
		if _, seen := weeks[w]; !seen {
			starts = append(starts, w)
		}
		weeks[w] = append(weeks[w], d)
	}
	sort.Slice(starts, func(i, j int) bool { return starts[i].Before(starts[j]) })

	for _, w := range starts {
		week := weeks[w]
		if len(week) < e.cfg.Analytics.MinEventsPerWeek {
			continue
		}
		trend.Periods = append(trend.Periods, models.PeriodRate{Start: w, Rate: acceptance(week), Events: len(week)})
	}

	if len(trend.Periods) >= 2 {
		trend.Magnitude = trend.Periods[len(trend.Periods)-1].Rate - trend.Periods[0].Rate
		switch e.shifted(trend.Magnitude) {
		case 1:
			trend.Direction = models.TrendIncreasing
		case -1:
			trend.Direction = models.TrendDecreasing
		}
	}
	return trend
}

// arc compares the first and last window of trust-tool decisions within
// each session that has at least two windows of them.
func (e *Engine) arc(sessions [][]decision) models.SessionArc {
	n := e.cfg.Analytics.ArcWindow
	arc := models.SessionArc{Window: n, Shape: models.ArcFlat}
	if n < 1 {
		return arc
	}

	var firstSum, lastSum float64
	for _, ds := range sessions {
		if len(ds) < 2*n {
			continue
		}
		byTime(ds)
		firstSum += acceptance(ds[:n])
		lastSum += acceptance(ds[len(ds)-n:])
		arc.SessionsAnalyzed++
	}
	if arc.SessionsAnalyzed == 0 || arc.SessionsAnalyzed < e.cfg.Analytics.ArcMinSessions {
		return arc
	}

	arc.Defined = true
	arc.FirstRate = firstSum / float64(arc.SessionsAnalyzed)
	arc.LastRate = lastSum / float64(arc.SessionsAnalyzed)
	arc.Magnitude = arc.LastRate - arc.FirstRate
	switch e.shifted(arc.Magnitude) {
	case 1:
		arc.Shape = models.ArcWarmup
	case -1:
		arc.Shape = models.ArcCooldown
	}
	return arc
}
