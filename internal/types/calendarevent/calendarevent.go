package calendarevent

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventMeeting     EventType = "meeting"
	EventDeadline    EventType = "deadline"
	EventReminder    EventType = "reminder"
	EventAppointment EventType = "appointment"
)

func ValidEventType(s string) bool {
	switch EventType(s) {
	case EventMeeting, EventDeadline, EventReminder, EventAppointment:
		return true
	}
	return false
}

// CalendarEvent is user-owned. LinkedFocusID is a weak reference:
// deleting the linked focus does not cascade to the event.
type CalendarEvent struct {
	ID            uuid.UUID  `json:"id" db:"id"`
	UserID        uuid.UUID  `json:"user_id" db:"user_id"`
	Title         string     `json:"title" db:"title"`
	Description   *string    `json:"description" db:"description"`
	EventType     EventType  `json:"event_type" db:"event_type"`
	EventDate     time.Time  `json:"event_date" db:"event_date"`
	EventTime     *string    `json:"event_time" db:"event_time"` // HH:MM
	Duration      *int       `json:"duration" db:"duration"`     // minutes
	IsCompleted   bool       `json:"is_completed" db:"is_completed"`
	LinkedFocusID *uuid.UUID `json:"linked_focus_id" db:"linked_focus_id"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}

type CreateEventRequest struct {
	Title         string  `json:"title" validate:"required"`
	Description   *string `json:"description,omitempty"`
	EventType     string  `json:"event_type" validate:"required"`
	EventDate     string  `json:"event_date" validate:"required"` // YYYY-MM-DD
	EventTime     *string `json:"event_time,omitempty"`
	Duration      *int    `json:"duration,omitempty"`
	LinkedFocusID *string `json:"linked_focus_id,omitempty"`
}

type UpdateEventRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	EventType   *string `json:"event_type,omitempty"`
	EventDate   *string `json:"event_date,omitempty"`
	EventTime   *string `json:"event_time,omitempty"`
	Duration    *int    `json:"duration,omitempty"`
}

type MonthResponse struct {
	Year   int              `json:"year"`
	Month  int              `json:"month"`
	Events []*CalendarEvent `json:"events"`
}
