package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"focalAPI/internal/types/notification"
)

type NotificationService struct {
	db         *pgxpool.Pool
	dispatcher *NotificationDispatcher
}

func NewNotificationService(db *pgxpool.Pool) *NotificationService {
	service := &NotificationService{db: db}
	service.dispatcher = NewNotificationDispatcher(service)
	return service
}

func (s *NotificationService) Dispatcher() *NotificationDispatcher {
	return s.dispatcher
}

const notificationColumns = `id, user_id, type, title, message, is_read, data, created_at`

// CreateNotification stores a notification and queues it for push
// delivery when the user's preferences allow it.
func (s *NotificationService) CreateNotification(ctx context.Context, req *notification.CreateNotificationRequest) (*notification.Notification, error) {
	query := `
	INSERT INTO notifications (id, user_id, type, title, message, data, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, NOW())
	RETURNING ` + notificationColumns

	notif, err := scanNotification(s.db.QueryRow(ctx, query, uuid.New(), req.UserID, req.Type, req.Title, req.Message, req.Data))
	if err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	prefs, err := s.getPreferencesByUserID(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get notification preferences: %w", err)
	}
	if prefs.PushEnabled {
		s.dispatcher.Dispatch(notif)
	}
	return notif, nil
}

func (s *NotificationService) GetNotifications(ctx context.Context, clerkID string, limit int) (*notification.ListResponse, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	if limit <= 0 || limit > 100 {
		limit = 50
	}

	rows, err := s.db.Query(ctx, `
		SELECT `+notificationColumns+`
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch notifications: %w", err)
	}
	defer rows.Close()

	notifications := []*notification.Notification{}
	for rows.Next() {
		notif, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, notif)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notifications: %w", err)
	}

	var unread int
	err = s.db.QueryRow(ctx, `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND is_read = FALSE`, userID).Scan(&unread)
	if err != nil {
		return nil, fmt.Errorf("failed to count unread notifications: %w", err)
	}

	return &notification.ListResponse{
		Notifications: notifications,
		UnreadCount:   unread,
	}, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, clerkID string, notificationID uuid.UUID) error {
	result, err := s.db.Exec(ctx, `
		UPDATE notifications SET is_read = TRUE
		WHERE id = $1 AND user_id = (SELECT id FROM users WHERE clerk_id = $2)
	`, notificationID, clerkID)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("notification not found")
	}
	return nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, clerkID string) error {
	_, err := s.db.Exec(ctx, `
		UPDATE notifications SET is_read = TRUE
		WHERE user_id = (SELECT id FROM users WHERE clerk_id = $1) AND is_read = FALSE
	`, clerkID)
	if err != nil {
		return fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return nil
}

func (s *NotificationService) RegisterDevice(ctx context.Context, clerkID string, req *notification.RegisterDeviceRequest) (*notification.DeviceToken, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	query := `
	INSERT INTO device_tokens (id, user_id, token, platform, created_at)
	VALUES ($1, $2, $3, $4, NOW())
	ON CONFLICT (user_id, token) DO UPDATE SET platform = $4
	RETURNING id, user_id, token, platform, created_at`

	token := &notification.DeviceToken{}
	err = s.db.QueryRow(ctx, query, uuid.New(), userID, req.Token, req.Platform).
		Scan(&token.ID, &token.UserID, &token.Token, &token.Platform, &token.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to register device: %w", err)
	}
	return token, nil
}

func (s *NotificationService) UnregisterDevice(ctx context.Context, clerkID, token string) error {
	_, err := s.db.Exec(ctx, `
		DELETE FROM device_tokens
		WHERE token = $1 AND user_id = (SELECT id FROM users WHERE clerk_id = $2)
	`, token, clerkID)
	if err != nil {
		return fmt.Errorf("failed to unregister device: %w", err)
	}
	return nil
}

func (s *NotificationService) getDeviceTokens(ctx context.Context, userID uuid.UUID) ([]notification.DeviceToken, error) {
	rows, err := s.db.Query(ctx, `SELECT id, user_id, token, platform, created_at FROM device_tokens WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch device tokens: %w", err)
	}
	defer rows.Close()

	var tokens []notification.DeviceToken
	for rows.Next() {
		var t notification.DeviceToken
		if err := rows.Scan(&t.ID, &t.UserID, &t.Token, &t.Platform, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan device token: %w", err)
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}

func (s *NotificationService) GetPreferences(ctx context.Context, clerkID string) (*notification.Preferences, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}
	return s.getPreferencesByUserID(ctx, userID)
}

func (s *NotificationService) getPreferencesByUserID(ctx context.Context, userID uuid.UUID) (*notification.Preferences, error) {
	prefs := &notification.Preferences{
		UserID:          userID,
		PushEnabled:     true,
		StreakReminders: true,
		EventReminders:  true,
	}
	err := s.db.QueryRow(ctx, `
		SELECT push_enabled, streak_reminders, event_reminders, updated_at
		FROM notification_preferences WHERE user_id = $1
	`, userID).Scan(&prefs.PushEnabled, &prefs.StreakReminders, &prefs.EventReminders, &prefs.UpdatedAt)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to get notification preferences: %w", err)
	}
	return prefs, nil
}

func (s *NotificationService) UpdatePreferences(ctx context.Context, clerkID string, req *notification.UpdatePreferencesRequest) (*notification.Preferences, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	query := `
	INSERT INTO notification_preferences (user_id, push_enabled, streak_reminders, event_reminders, updated_at)
	VALUES ($1, COALESCE($2, TRUE), COALESCE($3, TRUE), COALESCE($4, TRUE), NOW())
	ON CONFLICT (user_id) DO UPDATE SET
		push_enabled = COALESCE($2, notification_preferences.push_enabled),
		streak_reminders = COALESCE($3, notification_preferences.streak_reminders),
		event_reminders = COALESCE($4, notification_preferences.event_reminders),
		updated_at = NOW()
	RETURNING user_id, push_enabled, streak_reminders, event_reminders, updated_at`

	prefs := &notification.Preferences{}
	err = s.db.QueryRow(ctx, query, userID, req.PushEnabled, req.StreakReminders, req.EventReminders).
		Scan(&prefs.UserID, &prefs.PushEnabled, &prefs.StreakReminders, &prefs.EventReminders, &prefs.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to update notification preferences: %w", err)
	}
	return prefs, nil
}

// NotifyStreakAtRisk creates streak_risk notifications for users who
// have an active streak but no completed focus today. At most one
// reminder per user per day. A missing preferences row means the
// defaults apply, and the default for streak reminders is on.
func (s *NotificationService) NotifyStreakAtRisk(ctx context.Context) (int, error) {
	rows, err := s.db.Query(ctx, `
		SELECT s.user_id, s.current_streak
		FROM streaks s
		LEFT JOIN notification_preferences p ON p.user_id = s.user_id
		WHERE COALESCE(p.streak_reminders, TRUE)
		  AND s.current_streak > 0
		  AND s.last_focus_date = CURRENT_DATE - 1
		  AND NOT EXISTS (
			SELECT 1 FROM notifications n
			WHERE n.user_id = s.user_id AND n.type = 'streak_risk' AND n.created_at::date = CURRENT_DATE
		  )
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to find streaks at risk: %w", err)
	}
	defer rows.Close()

	type atRisk struct {
		userID uuid.UUID
		streak int
	}
	var targets []atRisk
	for rows.Next() {
		var t atRisk
		if err := rows.Scan(&t.userID, &t.streak); err != nil {
			return 0, fmt.Errorf("failed to scan streak at risk: %w", err)
		}
		targets = append(targets, t)
	}
	if err = rows.Err(); err != nil {
		return 0, fmt.Errorf("error iterating streaks at risk: %w", err)
	}

	count := 0
	for _, t := range targets {
		_, err := s.CreateNotification(ctx, &notification.CreateNotificationRequest{
			UserID:  t.userID,
			Type:    notification.NotificationStreakRisk,
			Title:   "Your streak is at risk",
			Message: fmt.Sprintf("Complete a focus today to keep your %d-day streak alive.", t.streak),
			Data:    map[string]any{"current_streak": t.streak},
		})
		if err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// NotifyUpcomingEvents creates event_reminder notifications for events
// happening tomorrow, once per event. As with streak reminders, users
// without a saved preferences row get the on-by-default behavior.
func (s *NotificationService) NotifyUpcomingEvents(ctx context.Context) (int, error) {
	rows, err := s.db.Query(ctx, `
		SELECT e.id, e.user_id, e.title, e.event_date
		FROM calendar_events e
		LEFT JOIN notification_preferences p ON p.user_id = e.user_id
		WHERE COALESCE(p.event_reminders, TRUE)
		  AND e.event_date = CURRENT_DATE + 1
		  AND NOT e.is_completed
		  AND NOT EXISTS (
			SELECT 1 FROM notifications n
			WHERE n.user_id = e.user_id AND n.type = 'event_reminder' AND n.data->>'event_id' = e.id::text
		  )
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to find upcoming events: %w", err)
	}
	defer rows.Close()

	type upcoming struct {
		id     uuid.UUID
		userID uuid.UUID
		title  string
		date   time.Time
	}
	var events []upcoming
	for rows.Next() {
		var e upcoming
		if err := rows.Scan(&e.id, &e.userID, &e.title, &e.date); err != nil {
			return 0, fmt.Errorf("failed to scan upcoming event: %w", err)
		}
		events = append(events, e)
	}
	if err = rows.Err(); err != nil {
		return 0, fmt.Errorf("error iterating upcoming events: %w", err)
	}

	count := 0
	for _, e := range events {
		_, err := s.CreateNotification(ctx, &notification.CreateNotificationRequest{
			UserID:  e.userID,
			Type:    notification.NotificationEventReminder,
			Title:   "Event tomorrow",
			Message: fmt.Sprintf("%s is scheduled for tomorrow.", e.title),
			Data:    map[string]any{"event_id": e.id.String()},
		})
		if err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func scanNotification(row pgx.Row) (*notification.Notification, error) {
	notif := &notification.Notification{}
	err := row.Scan(
		&notif.ID,
		&notif.UserID,
		&notif.Type,
		&notif.Title,
		&notif.Message,
		&notif.IsRead,
		&notif.Data,
		&notif.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return notif, nil
}
