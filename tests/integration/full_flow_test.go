package integration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"focalAPI/internal/types/focus"
	"focalAPI/internal/types/user"
	"focalAPI/services"
	"focalAPI/tests/helpers"
)

// TestFocusLifecycle walks a full day: create a focus, add checkpoints,
// toggle them all, and verify the auto-completion cascade plus the
// streak update.
func TestFocusLifecycle(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	userService := services.NewUserService(pool)
	streakService := services.NewStreakService(pool)
	focusService := services.NewFocusService(pool, streakService)

	ctx := context.Background()
	clerkID := "user_test_flow_" + time.Now().Format("20060102150405")

	_, err := userService.CreateUser(ctx, &user.CreateUserRequest{
		ClerkID:   clerkID,
		Email:     "testflow@example.com",
		Username:  "testflow",
		FirstName: "Test",
		LastName:  "Flow",
	})
	require.NoError(t, err)

	// Create two focuses on the same day; session numbers must be 1, 2.
	first, err := focusService.CreateFocus(ctx, clerkID, &focus.CreateFocusRequest{Title: "Morning deep work"})
	require.NoError(t, err)
	assert.Equal(t, 1, first.SessionNumber)
	assert.Equal(t, focus.StateCreated, first.State())

	second, err := focusService.CreateFocus(ctx, clerkID, &focus.CreateFocusRequest{Title: "Afternoon review"})
	require.NoError(t, err)
	assert.Equal(t, 2, second.SessionNumber)

	// Checkpoints get consecutive display orders.
	cp1, err := focusService.AddCheckpoint(ctx, clerkID, first.ID, "Outline")
	require.NoError(t, err)
	cp2, err := focusService.AddCheckpoint(ctx, clerkID, first.ID, "Draft")
	require.NoError(t, err)
	assert.Greater(t, cp2.DisplayOrder, cp1.DisplayOrder)

	// Toggling one of two checkpoints must not complete the focus.
	resp, err := focusService.ToggleCheckpoint(ctx, clerkID, cp1.ID)
	require.NoError(t, err)
	assert.True(t, resp.Checkpoint.Completed())
	assert.False(t, resp.AutoCompleted)
	assert.Equal(t, focus.StateCreated, resp.Focus.State())

	// Toggling the last open checkpoint cascades into completion.
	resp, err = focusService.ToggleCheckpoint(ctx, clerkID, cp2.ID)
	require.NoError(t, err)
	assert.True(t, resp.AutoCompleted)
	assert.Equal(t, focus.StateCompleted, resp.Focus.State())

	// The streak row reflects the completion.
	st, err := streakService.GetStreak(ctx, clerkID)
	require.NoError(t, err)
	assert.Equal(t, 1, st.CurrentStreak)
	assert.Equal(t, 1, st.TotalFocusesCompleted)

	// Un-toggling a checkpoint reopens the focus.
	resp, err = focusService.ToggleCheckpoint(ctx, clerkID, cp2.ID)
	require.NoError(t, err)
	assert.False(t, resp.Checkpoint.Completed())
	assert.Equal(t, focus.StateCreated, resp.Focus.State())

	// The streak is never decremented by a revert.
	st, err = streakService.GetStreak(ctx, clerkID)
	require.NoError(t, err)
	assert.Equal(t, 1, st.CurrentStreak)

	// Completing again on the same day is idempotent for the streak.
	_, st2, err := focusService.CompleteFocus(ctx, clerkID, first.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, st2.CurrentStreak)
	assert.Equal(t, 2, st2.TotalFocusesCompleted)

	// Cancelling removes the focus and its checkpoints.
	require.NoError(t, focusService.CancelFocus(ctx, clerkID, second.ID))
	_, err = focusService.GetFocus(ctx, clerkID, second.ID)
	assert.Error(t, err)
}

func TestCompleteFocus_Twice(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	userService := services.NewUserService(pool)
	streakService := services.NewStreakService(pool)
	focusService := services.NewFocusService(pool, streakService)

	ctx := context.Background()
	clerkID := "user_test_twice_" + time.Now().Format("20060102150405")

	_, err := userService.CreateUser(ctx, &user.CreateUserRequest{
		ClerkID:   clerkID,
		Email:     "testtwice@example.com",
		Username:  "testtwice",
		FirstName: "Test",
		LastName:  "Twice",
	})
	require.NoError(t, err)

	f, err := focusService.CreateFocus(ctx, clerkID, &focus.CreateFocusRequest{Title: "One shot"})
	require.NoError(t, err)

	_, _, err = focusService.CompleteFocus(ctx, clerkID, f.ID)
	require.NoError(t, err)

	// A second completion fails instead of double counting.
	_, _, err = focusService.CompleteFocus(ctx, clerkID, f.ID)
	assert.Error(t, err)
}

// A focus completed explicitly stays completed through checkpoint
// toggles; only the auto-completion cascade is reverted by an un-toggle.
func TestManualCompletionSurvivesCheckpointToggle(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	userService := services.NewUserService(pool)
	streakService := services.NewStreakService(pool)
	focusService := services.NewFocusService(pool, streakService)

	ctx := context.Background()
	clerkID := "user_test_manual_" + time.Now().Format("20060102150405")

	_, err := userService.CreateUser(ctx, &user.CreateUserRequest{
		ClerkID:   clerkID,
		Email:     "testmanual@example.com",
		Username:  "testmanual",
		FirstName: "Test",
		LastName:  "Manual",
	})
	require.NoError(t, err)

	f, err := focusService.CreateFocus(ctx, clerkID, &focus.CreateFocusRequest{Title: "Ship the release"})
	require.NoError(t, err)
	cp, err := focusService.AddCheckpoint(ctx, clerkID, f.ID, "Write changelog")
	require.NoError(t, err)

	// Complete the focus while its checkpoint is still open.
	_, _, err = focusService.CompleteFocus(ctx, clerkID, f.ID)
	require.NoError(t, err)

	resp, err := focusService.ToggleCheckpoint(ctx, clerkID, cp.ID)
	require.NoError(t, err)
	assert.False(t, resp.AutoCompleted)
	assert.Equal(t, focus.StateCompleted, resp.Focus.State())

	// Un-toggling must not flip an explicit completion back to created.
	resp, err = focusService.ToggleCheckpoint(ctx, clerkID, cp.ID)
	require.NoError(t, err)
	assert.False(t, resp.Checkpoint.Completed())
	assert.Equal(t, focus.StateCompleted, resp.Focus.State())
}

// The day view with no date parameter lists the same bucket new focuses
// are created into, resolved through the user's stored timezone.
func TestGetFocusesByDate_ZeroDateUsesUserTimezone(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	userService := services.NewUserService(pool)
	streakService := services.NewStreakService(pool)
	focusService := services.NewFocusService(pool, streakService)

	ctx := context.Background()
	clerkID := "user_test_tzday_" + time.Now().Format("20060102150405")

	_, err := userService.CreateUser(ctx, &user.CreateUserRequest{
		ClerkID:   clerkID,
		Email:     "testtzday@example.com",
		Username:  "testtzday",
		FirstName: "Test",
		LastName:  "Day",
	})
	require.NoError(t, err)

	// UTC+14: for most of the UTC day this timezone is already on the
	// next calendar date, so a UTC-based default would miss the focus.
	tz := "Pacific/Kiritimati"
	_, err = userService.UpdateProfileByClerkID(ctx, clerkID, &user.UpdateProfileRequest{Timezone: &tz})
	require.NoError(t, err)

	f, err := focusService.CreateFocus(ctx, clerkID, &focus.CreateFocusRequest{Title: "Morning pages"})
	require.NoError(t, err)

	focuses, err := focusService.GetFocusesByDate(ctx, clerkID, time.Time{})
	require.NoError(t, err)
	require.Len(t, focuses, 1)
	assert.Equal(t, f.ID, focuses[0].ID)
}
