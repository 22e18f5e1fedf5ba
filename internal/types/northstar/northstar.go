package northstar

import (
	"time"

	"github.com/google/uuid"
)

// FreeTierLimit caps non-archived goals for non-premium accounts.
// Enforced by a count check at creation time, not a database constraint.
const FreeTierLimit = 3

type NorthStar struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	UserID       uuid.UUID  `json:"user_id" db:"user_id"`
	Title        string     `json:"title" db:"title"`
	Description  *string    `json:"description" db:"description"`
	TargetDate   *time.Time `json:"target_date" db:"target_date"`
	DisplayOrder int        `json:"display_order" db:"display_order"`
	CompletedAt  *time.Time `json:"completed_at" db:"completed_at"`
	ArchivedAt   *time.Time `json:"archived_at" db:"archived_at"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// Active goals are neither archived nor completed.
func (n *NorthStar) Active() bool {
	return n.ArchivedAt == nil && n.CompletedAt == nil
}

type CreateNorthStarRequest struct {
	Title       string  `json:"title" validate:"required"`
	Description *string `json:"description,omitempty"`
	TargetDate  *string `json:"target_date,omitempty"` // YYYY-MM-DD
}

type UpdateNorthStarRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	TargetDate  *string `json:"target_date,omitempty"`
}
