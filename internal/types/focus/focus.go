package focus

import (
	"time"

	"github.com/google/uuid"
)

// DateLayout is the day-bucket key format used across the API.
// Focus.Date, LaterItem.Date and CalendarEvent.EventDate are all
// bucketed by this ISO form.
const DateLayout = "2006-01-02"

// FreeTierCheckpointLimit caps checkpoints per focus for non-premium
// accounts, enforced by a count check at insert time.
const FreeTierCheckpointLimit = 10

type EnergyLevel string

const (
	EnergyHigh   EnergyLevel = "high"
	EnergyMedium EnergyLevel = "medium"
	EnergyLow    EnergyLevel = "low"
)

func ValidEnergyLevel(s string) bool {
	switch EnergyLevel(s) {
	case EnergyHigh, EnergyMedium, EnergyLow:
		return true
	}
	return false
}

// State is the explicit lifecycle state of a focus session. Completion
// is decided here and nowhere else, instead of every call site testing
// CompletedAt for nil on its own.
type State string

const (
	StateCreated   State = "created"
	StateCompleted State = "completed"
)

type Focus struct {
	ID            uuid.UUID    `json:"id" db:"id"`
	UserID        uuid.UUID    `json:"user_id" db:"user_id"`
	NorthStarID   *uuid.UUID   `json:"north_star_id" db:"north_star_id"`
	SessionNumber int          `json:"session_number" db:"session_number"`
	Date          time.Time    `json:"date" db:"date"`
	Title         string       `json:"title" db:"title"`
	Description   *string      `json:"description" db:"description"`
	EnergyLevel   *EnergyLevel `json:"energy_level" db:"energy_level"`
	StartedAt     time.Time    `json:"started_at" db:"started_at"`
	CompletedAt   *time.Time   `json:"completed_at" db:"completed_at"`
	CreatedAt     time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at" db:"updated_at"`
}

func (f *Focus) State() State {
	if f.CompletedAt != nil {
		return StateCompleted
	}
	return StateCreated
}

type Checkpoint struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	FocusID      uuid.UUID  `json:"focus_id" db:"focus_id"`
	Title        string     `json:"title" db:"title"`
	DisplayOrder int        `json:"display_order" db:"display_order"`
	CompletedAt  *time.Time `json:"completed_at" db:"completed_at"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
}

func (c *Checkpoint) Completed() bool {
	return c.CompletedAt != nil
}

type FocusWithCheckpoints struct {
	Focus
	Checkpoints []*Checkpoint `json:"checkpoints"`
}

type CreateFocusRequest struct {
	Title       string  `json:"title" validate:"required"`
	Description *string `json:"description,omitempty"`
	NorthStarID *string `json:"north_star_id,omitempty"`
	EnergyLevel *string `json:"energy_level,omitempty"`
	Date        string  `json:"date,omitempty"` // YYYY-MM-DD, defaults to today
}

type UpdateFocusRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	EnergyLevel *string `json:"energy_level,omitempty"`
}

type AddCheckpointRequest struct {
	Title string `json:"title" validate:"required"`
}

// ToggleCheckpointResponse reports the checkpoint after the flip plus the
// parent focus, so the client sees an auto-completion cascade in the same
// round trip.
type ToggleCheckpointResponse struct {
	Checkpoint    *Checkpoint `json:"checkpoint"`
	Focus         *Focus      `json:"focus"`
	AutoCompleted bool        `json:"auto_completed"`
}
