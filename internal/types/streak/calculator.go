package streak

import "time"

// Advance computes the streak row after a focus completion on "today".
// Day comparisons are calendar-day comparisons: completing any number of
// sessions on the same day leaves current_streak unchanged.
//
// prev == nil means the user has no streak row yet; the returned value is
// the initial row (streaks of 1, total of 1).
func Advance(prev *Streak, today time.Time) Streak {
	today = Day(today)

	if prev == nil {
		return Streak{
			CurrentStreak:         1,
			LongestStreak:         1,
			LastFocusDate:         &today,
			TotalFocusesCompleted: 1,
		}
	}

	next := *prev

	switch {
	case prev.LastFocusDate == nil:
		// A row without a last date restarts the streak.
		next.CurrentStreak = 1
	case sameDay(*prev.LastFocusDate, today):
		// Idempotent same-day completion.
	case daysBetween(*prev.LastFocusDate, today) == 1:
		next.CurrentStreak = prev.CurrentStreak + 1
	default:
		next.CurrentStreak = 1
	}

	if next.CurrentStreak > next.LongestStreak {
		next.LongestStreak = next.CurrentStreak
	}
	next.LastFocusDate = &today
	next.TotalFocusesCompleted = prev.TotalFocusesCompleted + 1

	return next
}

// Day truncates a timestamp to its calendar day in its own location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sameDay(a, b time.Time) bool {
	return Day(a).Equal(Day(b))
}

func daysBetween(from, to time.Time) int {
	return int(Day(to).Sub(Day(from)).Hours() / 24)
}
