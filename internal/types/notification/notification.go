package notification

import (
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationStreakRisk    NotificationType = "streak_risk"
	NotificationEventReminder NotificationType = "event_reminder"
	NotificationGoalDeadline  NotificationType = "goal_deadline"
)

type Notification struct {
	ID        uuid.UUID        `json:"id" db:"id"`
	UserID    uuid.UUID        `json:"user_id" db:"user_id"`
	Type      NotificationType `json:"type" db:"type"`
	Title     string           `json:"title" db:"title"`
	Message   string           `json:"message" db:"message"`
	IsRead    bool             `json:"is_read" db:"is_read"`
	Data      map[string]any   `json:"data" db:"data"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`
}

type DeviceToken struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	Token     string    `json:"token" db:"token"`
	Platform  string    `json:"platform" db:"platform"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type Preferences struct {
	UserID          uuid.UUID `json:"user_id" db:"user_id"`
	PushEnabled     bool      `json:"push_enabled" db:"push_enabled"`
	StreakReminders bool      `json:"streak_reminders" db:"streak_reminders"`
	EventReminders  bool      `json:"event_reminders" db:"event_reminders"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

type CreateNotificationRequest struct {
	UserID  uuid.UUID        `json:"user_id" validate:"required"`
	Type    NotificationType `json:"type" validate:"required"`
	Title   string           `json:"title" validate:"required"`
	Message string           `json:"message" validate:"required"`
	Data    map[string]any   `json:"data,omitempty"`
}

type RegisterDeviceRequest struct {
	Token    string `json:"token" validate:"required"`
	Platform string `json:"platform" validate:"required,oneof=ios android web"`
}

type UpdatePreferencesRequest struct {
	PushEnabled     *bool `json:"push_enabled,omitempty"`
	StreakReminders *bool `json:"streak_reminders,omitempty"`
	EventReminders  *bool `json:"event_reminders,omitempty"`
}

type ListResponse struct {
	Notifications []*Notification `json:"notifications"`
	UnreadCount   int             `json:"unread_count"`
}
