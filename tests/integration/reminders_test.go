package integration

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"focalAPI/internal/types/calendarevent"
	"focalAPI/internal/types/focus"
	"focalAPI/internal/types/notification"
	"focalAPI/internal/types/user"
	"focalAPI/services"
	"focalAPI/tests/helpers"
)

func seedReminderUser(t *testing.T, ctx context.Context, userService *services.UserService, suffix string) *user.User {
	t.Helper()
	u, err := userService.CreateUser(ctx, &user.CreateUserRequest{
		ClerkID:   "user_test_" + suffix + "_" + time.Now().Format("20060102150405"),
		Email:     "test" + suffix + "@example.com",
		Username:  "test" + suffix,
		FirstName: "Test",
		LastName:  "Reminder",
	})
	require.NoError(t, err)
	return u
}

// A user who never saved notification preferences gets reminders by
// default; the scan must not require a preferences row.
func TestNotifyStreakAtRisk_NoPreferencesRow(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	userService := services.NewUserService(pool)
	notificationService := services.NewNotificationService(pool)
	defer notificationService.Dispatcher().Stop()

	ctx := context.Background()
	u := seedReminderUser(t, ctx, userService, "atrisk")

	_, err := pool.Exec(ctx, `
		INSERT INTO streaks (id, user_id, current_streak, longest_streak, last_focus_date, total_focuses_completed, created_at, updated_at)
		VALUES ($1, $2, 3, 5, CURRENT_DATE - 1, 12, NOW(), NOW())
	`, uuid.New(), u.ID)
	require.NoError(t, err)

	_, err = notificationService.NotifyStreakAtRisk(ctx)
	require.NoError(t, err)

	var count int
	err = pool.QueryRow(ctx, `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND type = 'streak_risk'`, u.ID).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// The scan is idempotent per day.
	_, err = notificationService.NotifyStreakAtRisk(ctx)
	require.NoError(t, err)
	err = pool.QueryRow(ctx, `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND type = 'streak_risk'`, u.ID).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestNotifyStreakAtRisk_RespectsOptOut(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	userService := services.NewUserService(pool)
	notificationService := services.NewNotificationService(pool)
	defer notificationService.Dispatcher().Stop()

	ctx := context.Background()
	u := seedReminderUser(t, ctx, userService, "optout")

	off := false
	_, err := notificationService.UpdatePreferences(ctx, u.ClerkID, &notification.UpdatePreferencesRequest{
		StreakReminders: &off,
	})
	require.NoError(t, err)

	_, err = pool.Exec(ctx, `
		INSERT INTO streaks (id, user_id, current_streak, longest_streak, last_focus_date, total_focuses_completed, created_at, updated_at)
		VALUES ($1, $2, 3, 5, CURRENT_DATE - 1, 12, NOW(), NOW())
	`, uuid.New(), u.ID)
	require.NoError(t, err)

	_, err = notificationService.NotifyStreakAtRisk(ctx)
	require.NoError(t, err)

	var count int
	err = pool.QueryRow(ctx, `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND type = 'streak_risk'`, u.ID).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestNotifyUpcomingEvents_NoPreferencesRow(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	userService := services.NewUserService(pool)
	calendarService := services.NewCalendarService(pool)
	notificationService := services.NewNotificationService(pool)
	defer notificationService.Dispatcher().Stop()

	ctx := context.Background()
	u := seedReminderUser(t, ctx, userService, "events")

	tomorrow := time.Now().UTC().AddDate(0, 0, 1).Format(focus.DateLayout)
	event, err := calendarService.CreateEvent(ctx, u.ClerkID, &calendarevent.CreateEventRequest{
		Title:     "Quarterly review",
		EventType: string(calendarevent.EventMeeting),
		EventDate: tomorrow,
	})
	require.NoError(t, err)

	_, err = notificationService.NotifyUpcomingEvents(ctx)
	require.NoError(t, err)

	var count int
	err = pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM notifications
		WHERE user_id = $1 AND type = 'event_reminder' AND data->>'event_id' = $2
	`, u.ID, event.ID.String()).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// One reminder per event.
	_, err = notificationService.NotifyUpcomingEvents(ctx)
	require.NoError(t, err)
	err = pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM notifications
		WHERE user_id = $1 AND type = 'event_reminder' AND data->>'event_id' = $2
	`, u.ID, event.ID.String()).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
