package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"focalAPI/handlers"
	"focalAPI/internal/types/user"
	"focalAPI/middleware"
	"focalAPI/services"
	"focalAPI/tests/helpers"
)

func TestGetProfile_Authenticated(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	userService := services.NewUserService(pool)
	userHandler := handlers.NewUserHandler(userService)

	clerkID := "user_test_" + time.Now().Format("20060102150405")
	ctx := context.Background()

	createReq := &user.CreateUserRequest{
		ClerkID:   clerkID,
		Email:     "testauth@example.com",
		Username:  "testauth",
		FirstName: "Test",
		LastName:  "Auth",
		ImageURL:  "https://example.com/image.jpg",
	}

	createdUser, err := userService.CreateUser(ctx, createReq)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/user", nil)

	// Simulate successful auth middleware by seeding the context.
	ctx = context.WithValue(req.Context(), middleware.ClerkIDKey, clerkID)
	req = req.WithContext(ctx)

	rr := httptest.NewRecorder()
	userHandler.GetProfile(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var response user.User
	err = json.Unmarshal(rr.Body.Bytes(), &response)
	require.NoError(t, err)

	assert.Equal(t, createdUser.ID, response.ID)
	assert.Equal(t, clerkID, response.ClerkID)
	assert.Equal(t, "testauth@example.com", response.Email)
}

func TestGetProfile_Unauthenticated(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	userService := services.NewUserService(pool)
	userHandler := handlers.NewUserHandler(userService)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/user", nil)
	rr := httptest.NewRecorder()

	userHandler.GetProfile(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	var response map[string]string
	err := json.Unmarshal(rr.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.Contains(t, response["error"], "not authenticated")
}

func TestCreateFocus_Unauthenticated(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	streakService := services.NewStreakService(pool)
	focusService := services.NewFocusService(pool, streakService)
	focusHandler := handlers.NewFocusHandler(focusService, streakService)

	body := `{"title": "Write report"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/focuses", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()

	focusHandler.CreateFocus(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestUpdateProfile_SetsTimezone(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	userService := services.NewUserService(pool)
	userHandler := handlers.NewUserHandler(userService)

	clerkID := "user_test_tz_" + time.Now().Format("20060102150405")
	ctx := context.Background()

	_, err := userService.CreateUser(ctx, &user.CreateUserRequest{
		ClerkID:   clerkID,
		Email:     "testtz@example.com",
		Username:  "testtz",
		FirstName: "Test",
		LastName:  "Zone",
	})
	require.NoError(t, err)

	updateData := `{"timezone": "Europe/Sofia"}`
	req := httptest.NewRequest(http.MethodPut, "/api/v1/user/update-profile", strings.NewReader(updateData))
	req.Header.Set("Content-Type", "application/json")
	ctx = context.WithValue(req.Context(), middleware.ClerkIDKey, clerkID)
	req = req.WithContext(ctx)

	rr := httptest.NewRecorder()
	userHandler.UpdateProfile(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var response user.User
	err = json.Unmarshal(rr.Body.Bytes(), &response)
	require.NoError(t, err)
	require.NotNil(t, response.Timezone)
	assert.Equal(t, "Europe/Sofia", *response.Timezone)
}

func TestUpdateProfile_RejectsBadTimezone(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	userService := services.NewUserService(pool)
	userHandler := handlers.NewUserHandler(userService)

	clerkID := "user_test_badtz_" + time.Now().Format("20060102150405")
	ctx := context.Background()

	_, err := userService.CreateUser(ctx, &user.CreateUserRequest{
		ClerkID:   clerkID,
		Email:     "testbadtz@example.com",
		Username:  "testbadtz",
		FirstName: "Test",
		LastName:  "Zone",
	})
	require.NoError(t, err)

	updateData := `{"timezone": "Not/AZone"}`
	req := httptest.NewRequest(http.MethodPut, "/api/v1/user/update-profile", strings.NewReader(updateData))
	req.Header.Set("Content-Type", "application/json")
	ctx = context.WithValue(req.Context(), middleware.ClerkIDKey, clerkID)
	req = req.WithContext(ctx)

	rr := httptest.NewRecorder()
	userHandler.UpdateProfile(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
