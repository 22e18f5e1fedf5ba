package streak

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestAdvance_FirstCompletion(t *testing.T) {
	today := day("2024-03-10")
	next := Advance(nil, today)

	assert.Equal(t, 1, next.CurrentStreak)
	assert.Equal(t, 1, next.LongestStreak)
	assert.Equal(t, 1, next.TotalFocusesCompleted)
	require.NotNil(t, next.LastFocusDate)
	assert.True(t, next.LastFocusDate.Equal(today))
}

func TestAdvance_SameDayIsIdempotentForStreak(t *testing.T) {
	today := day("2024-03-10")
	first := Advance(nil, today)
	second := Advance(&first, today)

	assert.Equal(t, 1, second.CurrentStreak)
	assert.Equal(t, 1, second.LongestStreak)
	assert.Equal(t, 2, second.TotalFocusesCompleted)
}

func TestAdvance_ConsecutiveDayIncrements(t *testing.T) {
	st := Advance(nil, day("2024-03-10"))
	st = Advance(&st, day("2024-03-11"))

	assert.Equal(t, 2, st.CurrentStreak)
	assert.Equal(t, 2, st.LongestStreak)
}

func TestAdvance_GapResets(t *testing.T) {
	st := Advance(nil, day("2024-03-10"))
	st = Advance(&st, day("2024-03-11"))

	// Skipping 2024-03-12 drops the current streak back to 1 but keeps
	// the longest.
	st = Advance(&st, day("2024-03-13"))

	assert.Equal(t, 1, st.CurrentStreak)
	assert.Equal(t, 2, st.LongestStreak)
	assert.Equal(t, 3, st.TotalFocusesCompleted)
	assert.True(t, st.LastFocusDate.Equal(day("2024-03-13")))
}

func TestAdvance_LongestNeverDecreases(t *testing.T) {
	st := Advance(nil, day("2024-01-01"))
	for _, d := range []string{"2024-01-02", "2024-01-03", "2024-01-04"} {
		st = Advance(&st, day(d))
	}
	assert.Equal(t, 4, st.CurrentStreak)
	assert.Equal(t, 4, st.LongestStreak)

	st = Advance(&st, day("2024-02-01"))
	assert.Equal(t, 1, st.CurrentStreak)
	assert.Equal(t, 4, st.LongestStreak)

	st = Advance(&st, day("2024-02-02"))
	assert.Equal(t, 2, st.CurrentStreak)
	assert.Equal(t, 4, st.LongestStreak)
}

func TestAdvance_MissingLastDateRestarts(t *testing.T) {
	prev := Streak{CurrentStreak: 5, LongestStreak: 7, TotalFocusesCompleted: 20}
	next := Advance(&prev, day("2024-03-10"))

	assert.Equal(t, 1, next.CurrentStreak)
	assert.Equal(t, 7, next.LongestStreak)
	assert.Equal(t, 21, next.TotalFocusesCompleted)
}

func TestAdvance_IgnoresTimeOfDay(t *testing.T) {
	late := time.Date(2024, 3, 10, 23, 55, 0, 0, time.UTC)
	early := time.Date(2024, 3, 11, 0, 5, 0, 0, time.UTC)

	st := Advance(nil, late)
	st = Advance(&st, early)

	assert.Equal(t, 2, st.CurrentStreak)
}
