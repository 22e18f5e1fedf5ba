package later

import (
	"time"

	"github.com/google/uuid"
)

type Action string

const (
	ActionConverted Action = "converted"
	ActionArchived  Action = "archived"
	ActionDeleted   Action = "deleted"
)

func ValidAction(s string) bool {
	switch Action(s) {
	case ActionConverted, ActionArchived, ActionDeleted:
		return true
	}
	return false
}

// LaterItem is a quick-capture inbox note. Once ProcessedAt is set the
// item drops out of active inbox views but stays around for history.
type LaterItem struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	UserID      uuid.UUID  `json:"user_id" db:"user_id"`
	Content     string     `json:"content" db:"content"`
	Date        time.Time  `json:"date" db:"date"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	ProcessedAt *time.Time `json:"processed_at" db:"processed_at"`
	ActionTaken *Action    `json:"action_taken" db:"action_taken"`
}

type CreateLaterItemRequest struct {
	Content string `json:"content" validate:"required"`
	Date    string `json:"date,omitempty"` // YYYY-MM-DD, defaults to today
}

// ProcessLaterItemRequest triages an item. Action "converted" requires
// FocusID: the item's content becomes a checkpoint on that focus.
type ProcessLaterItemRequest struct {
	Action  string  `json:"action" validate:"required"`
	FocusID *string `json:"focus_id,omitempty"`
}
