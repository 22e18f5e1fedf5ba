package streak

import (
	"time"

	"github.com/google/uuid"
)

// Streak holds one row per user. Created lazily on the first focus
// completion, never deleted by the application.
type Streak struct {
	ID                    uuid.UUID  `json:"id" db:"id"`
	UserID                uuid.UUID  `json:"user_id" db:"user_id"`
	CurrentStreak         int        `json:"current_streak" db:"current_streak"`
	LongestStreak         int        `json:"longest_streak" db:"longest_streak"`
	LastFocusDate         *time.Time `json:"last_focus_date" db:"last_focus_date"`
	TotalFocusesCompleted int        `json:"total_focuses_completed" db:"total_focuses_completed"`
	CreatedAt             time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at" db:"updated_at"`
}
