// Package analytics holds the read-only aggregation functions computed
// over a date-bounded set of focus sessions. Everything here is pure;
// fetching the rows is the analytics service's job.
package analytics

import (
	"time"

	"focalAPI/internal/types/focus"
)

// CompletionRate returns completed/total as a percentage, 0 when empty.
func CompletionRate(sessions []*focus.Focus) float64 {
	if len(sessions) == 0 {
		return 0
	}
	completed := 0
	for _, s := range sessions {
		if s.State() == focus.StateCompleted {
			completed++
		}
	}
	return float64(completed) / float64(len(sessions)) * 100
}

// HourlyHistogram buckets sessions by the hour of day they started.
func HourlyHistogram(sessions []*focus.Focus) map[int]int {
	hist := make(map[int]int)
	for _, s := range sessions {
		hist[s.StartedAt.Hour()]++
	}
	return hist
}

// MostProductiveHour returns the busiest bucket. Ties go to the earliest
// hour so the answer is stable across runs.
func MostProductiveHour(hist map[int]int) (hour, count int, ok bool) {
	hour = -1
	for h := 0; h < 24; h++ {
		if c := hist[h]; c > count {
			hour, count = h, c
		}
	}
	return hour, count, hour >= 0
}

// EnergyDistribution counts sessions per energy level, omitting sessions
// with no recorded level.
func EnergyDistribution(sessions []*focus.Focus) map[focus.EnergyLevel]int {
	dist := make(map[focus.EnergyLevel]int)
	for _, s := range sessions {
		if s.EnergyLevel != nil {
			dist[*s.EnergyLevel]++
		}
	}
	return dist
}

type DayCompletion struct {
	Date      string  `json:"date"` // YYYY-MM-DD
	Total     int     `json:"total"`
	Completed int     `json:"completed"`
	Rate      float64 `json:"rate"`
}

// DailySeries produces one entry per calendar day in [start,end], in
// order, with zero-session days filled in at rate 0. The result always
// has exactly end-start+1 entries.
func DailySeries(sessions []*focus.Focus, start, end time.Time) []DayCompletion {
	type tally struct{ total, completed int }
	byDay := make(map[string]*tally)
	for _, s := range sessions {
		key := s.Date.Format(focus.DateLayout)
		t, exists := byDay[key]
		if !exists {
			t = &tally{}
			byDay[key] = t
		}
		t.total++
		if s.State() == focus.StateCompleted {
			t.completed++
		}
	}

	var series []DayCompletion
	for d := dayOf(start); !d.After(dayOf(end)); d = d.AddDate(0, 0, 1) {
		key := d.Format(focus.DateLayout)
		entry := DayCompletion{Date: key}
		if t, exists := byDay[key]; exists {
			entry.Total = t.total
			entry.Completed = t.completed
			entry.Rate = float64(t.completed) / float64(t.total) * 100
		}
		series = append(series, entry)
	}
	return series
}

type WeeklySummary struct {
	WeekStart         string          `json:"week_start"` // Monday, YYYY-MM-DD
	WeekEnd           string          `json:"week_end"`
	Total             int             `json:"total"`
	Completed         int             `json:"completed"`
	Rate              float64         `json:"rate"`
	MostProductiveDay string          `json:"most_productive_day"` // empty when no sessions
	Days              []DayCompletion `json:"days"`
}

// WeekStart rotates to the Monday of the week containing t. time.Weekday
// numbers Sunday as 0, so Sunday maps to an offset of 6.
func WeekStart(t time.Time) time.Time {
	offset := int(t.Weekday()) - 1
	if t.Weekday() == time.Sunday {
		offset = 6
	}
	return dayOf(t).AddDate(0, 0, -offset)
}

// WeeklyFromSessions summarises the Monday-start week containing now.
// The most productive day is the one with the most completed sessions,
// earliest day winning ties.
func WeeklyFromSessions(sessions []*focus.Focus, now time.Time) WeeklySummary {
	start := WeekStart(now)
	end := start.AddDate(0, 0, 6)
	days := DailySeries(sessions, start, end)

	summary := WeeklySummary{
		WeekStart: start.Format(focus.DateLayout),
		WeekEnd:   end.Format(focus.DateLayout),
		Days:      days,
	}

	best := 0
	for _, d := range days {
		summary.Total += d.Total
		summary.Completed += d.Completed
		if d.Completed > best {
			best = d.Completed
			summary.MostProductiveDay = d.Date
		}
	}
	if summary.Total > 0 {
		summary.Rate = float64(summary.Completed) / float64(summary.Total) * 100
	}
	return summary
}

func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
