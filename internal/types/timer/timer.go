package timer

import (
	"time"

	"github.com/google/uuid"
)

type TimerType string

const (
	TypeFocus      TimerType = "focus"
	TypeCheckpoint TimerType = "checkpoint"
	TypeBreak      TimerType = "break"
)

func ValidTimerType(s string) bool {
	switch TimerType(s) {
	case TypeFocus, TypeCheckpoint, TypeBreak:
		return true
	}
	return false
}

// Preset durations in minutes. "custom" carries its own duration.
const (
	PresetShort  = "25"
	PresetLong   = "50"
	PresetDeep   = "90"
	PresetCustom = "custom"
)

const (
	DefaultFocusSeconds = 25 * 60
	DefaultBreakSeconds = 5 * 60
)

// TimerSession is the persisted record of a countdown. It is written
// best-effort alongside the in-memory timer, which remains the source
// of truth for the running countdown.
type TimerSession struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	UserID          uuid.UUID  `json:"user_id" db:"user_id"`
	TargetID        *uuid.UUID `json:"target_id" db:"target_id"` // focus or checkpoint
	TimerType       TimerType  `json:"timer_type" db:"timer_type"`
	Preset          *string    `json:"preset" db:"preset"`
	DurationSeconds int        `json:"duration_seconds" db:"duration_seconds"`
	StartedAt       time.Time  `json:"started_at" db:"started_at"`
	CompletedAt     *time.Time `json:"completed_at" db:"completed_at"`
}

type Preferences struct {
	UserID          uuid.UUID `json:"user_id" db:"user_id"`
	FocusSeconds    int       `json:"focus_seconds" db:"focus_seconds"`
	BreakSeconds    int       `json:"break_seconds" db:"break_seconds"`
	AutoStartBreaks bool      `json:"auto_start_breaks" db:"auto_start_breaks"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

type StartTimerRequest struct {
	TargetID        *string `json:"target_id,omitempty"`
	TimerType       string  `json:"timer_type" validate:"required"`
	Preset          *string `json:"preset,omitempty"`
	DurationSeconds int     `json:"duration_seconds,omitempty"`
}

type UpdatePreferencesRequest struct {
	FocusSeconds    *int  `json:"focus_seconds,omitempty"`
	BreakSeconds    *int  `json:"break_seconds,omitempty"`
	AutoStartBreaks *bool `json:"auto_start_breaks,omitempty"`
}
