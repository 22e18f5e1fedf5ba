package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"focalAPI/internal/types/focus"
)

func day(s string) time.Time {
	t, err := time.Parse(focus.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func session(date string, startHour int, completed bool, energy *focus.EnergyLevel) *focus.Focus {
	d := day(date)
	f := &focus.Focus{
		Date:        d,
		StartedAt:   d.Add(time.Duration(startHour) * time.Hour),
		EnergyLevel: energy,
	}
	if completed {
		done := f.StartedAt.Add(time.Hour)
		f.CompletedAt = &done
	}
	return f
}

func TestCompletionRate(t *testing.T) {
	assert.Equal(t, float64(0), CompletionRate(nil))

	sessions := []*focus.Focus{
		session("2024-03-10", 9, true, nil),
		session("2024-03-10", 11, true, nil),
		session("2024-03-10", 14, false, nil),
		session("2024-03-10", 16, false, nil),
	}
	assert.InDelta(t, 50.0, CompletionRate(sessions), 0.001)
}

func TestMostProductiveHour_TieGoesToEarliest(t *testing.T) {
	hist := map[int]int{9: 3, 14: 3, 20: 1}

	hour, count, ok := MostProductiveHour(hist)
	require.True(t, ok)
	assert.Equal(t, 9, hour)
	assert.Equal(t, 3, count)
}

func TestMostProductiveHour_Empty(t *testing.T) {
	_, _, ok := MostProductiveHour(map[int]int{})
	assert.False(t, ok)
}

func TestEnergyDistribution_SkipsMissing(t *testing.T) {
	high := focus.EnergyHigh
	low := focus.EnergyLow
	sessions := []*focus.Focus{
		session("2024-03-10", 9, true, &high),
		session("2024-03-10", 11, true, &high),
		session("2024-03-10", 14, false, &low),
		session("2024-03-10", 16, false, nil),
	}

	dist := EnergyDistribution(sessions)
	assert.Equal(t, 2, dist[focus.EnergyHigh])
	assert.Equal(t, 1, dist[focus.EnergyLow])
	assert.Equal(t, 0, dist[focus.EnergyMedium])
}

func TestDailySeries_FillsGaps(t *testing.T) {
	sessions := []*focus.Focus{
		session("2024-03-10", 9, true, nil),
		session("2024-03-10", 11, false, nil),
		session("2024-03-12", 10, true, nil),
	}

	series := DailySeries(sessions, day("2024-03-09"), day("2024-03-13"))

	// One entry per calendar day, inclusive of both ends.
	require.Len(t, series, 5)

	assert.Equal(t, "2024-03-09", series[0].Date)
	assert.Equal(t, 0, series[0].Total)

	assert.Equal(t, "2024-03-10", series[1].Date)
	assert.Equal(t, 2, series[1].Total)
	assert.Equal(t, 1, series[1].Completed)
	assert.InDelta(t, 50.0, series[1].Rate, 0.001)

	assert.Equal(t, "2024-03-11", series[2].Date)
	assert.Equal(t, 0, series[2].Total)

	assert.Equal(t, "2024-03-12", series[3].Date)
	assert.Equal(t, 1, series[3].Completed)

	assert.Equal(t, "2024-03-13", series[4].Date)
}

func TestWeekStart_MondayRotation(t *testing.T) {
	// 2024-03-10 is a Sunday; its week starts Monday 2024-03-04.
	assert.Equal(t, day("2024-03-04"), WeekStart(day("2024-03-10")))
	// A Monday is its own week start.
	assert.Equal(t, day("2024-03-04"), WeekStart(day("2024-03-04")))
	// Midweek.
	assert.Equal(t, day("2024-03-04"), WeekStart(day("2024-03-07")))
	// The next Monday rolls over.
	assert.Equal(t, day("2024-03-11"), WeekStart(day("2024-03-11")))
}

func TestWeeklyFromSessions(t *testing.T) {
	sessions := []*focus.Focus{
		session("2024-03-05", 9, true, nil),  // Tuesday
		session("2024-03-05", 14, true, nil), // Tuesday
		session("2024-03-07", 10, true, nil), // Thursday
		session("2024-03-07", 15, false, nil),
	}

	summary := WeeklyFromSessions(sessions, day("2024-03-07"))

	assert.Equal(t, "2024-03-04", summary.WeekStart)
	assert.Equal(t, "2024-03-10", summary.WeekEnd)
	require.Len(t, summary.Days, 7)
	assert.Equal(t, 4, summary.Total)
	assert.Equal(t, 3, summary.Completed)
	assert.InDelta(t, 75.0, summary.Rate, 0.001)
	assert.Equal(t, "2024-03-05", summary.MostProductiveDay)
}

func TestWeeklyFromSessions_TieGoesToEarliestDay(t *testing.T) {
	sessions := []*focus.Focus{
		session("2024-03-05", 9, true, nil),
		session("2024-03-07", 10, true, nil),
	}

	summary := WeeklyFromSessions(sessions, day("2024-03-07"))
	assert.Equal(t, "2024-03-05", summary.MostProductiveDay)
}

func TestWeeklyFromSessions_EmptyWeek(t *testing.T) {
	summary := WeeklyFromSessions(nil, day("2024-03-07"))

	assert.Equal(t, 0, summary.Total)
	assert.Equal(t, float64(0), summary.Rate)
	assert.Empty(t, summary.MostProductiveDay)
	require.Len(t, summary.Days, 7)
}
