package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"focalAPI/internal/types/focus"
	"focalAPI/internal/types/streak"
	"focalAPI/middleware"
	"focalAPI/services"
)

type FocusHandler struct {
	focusService  *services.FocusService
	streakService *services.StreakService
}

func NewFocusHandler(focusService *services.FocusService, streakService *services.StreakService) *FocusHandler {
	return &FocusHandler{
		focusService:  focusService,
		streakService: streakService,
	}
}

func (h *FocusHandler) CreateFocus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req focus.CreateFocusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	f, err := h.focusService.CreateFocus(ctx, clerkID, &req)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, f)
}

// GetFocusesByDate serves the day view. The date query parameter is
// YYYY-MM-DD and defaults to today in the user's timezone when absent.
func (h *FocusHandler) GetFocusesByDate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var date time.Time
	if dateParam := r.URL.Query().Get("date"); dateParam != "" {
		parsed, err := time.Parse(focus.DateLayout, dateParam)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD")
			return
		}
		date = parsed
	}

	focuses, err := h.focusService.GetFocusesByDate(ctx, clerkID, date)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, focuses)
}

func (h *FocusHandler) GetFocus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	focusID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid focus id")
		return
	}

	f, err := h.focusService.GetFocus(ctx, clerkID, focusID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, f)
}

func (h *FocusHandler) UpdateFocus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	focusID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid focus id")
		return
	}

	var req focus.UpdateFocusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	f, err := h.focusService.UpdateFocus(ctx, clerkID, focusID, &req)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, f)
}

func (h *FocusHandler) CompleteFocus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	focusID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid focus id")
		return
	}

	f, st, err := h.focusService.CompleteFocus(ctx, clerkID, focusID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	middleware.CountFocusCompletion()

	respondWithJSON(w, http.StatusOK, struct {
		Focus  *focus.Focus   `json:"focus"`
		Streak *streak.Streak `json:"streak"`
	}{Focus: f, Streak: st})
}

func (h *FocusHandler) CancelFocus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	focusID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid focus id")
		return
	}

	if err := h.focusService.CancelFocus(ctx, clerkID, focusID); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Focus cancelled successfully"})
}

func (h *FocusHandler) AddCheckpoint(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	focusID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid focus id")
		return
	}

	var req focus.AddCheckpointRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	cp, err := h.focusService.AddCheckpoint(ctx, clerkID, focusID, req.Title)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, cp)
}

func (h *FocusHandler) ToggleCheckpoint(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	checkpointID, err := uuid.Parse(mux.Vars(r)["checkpointId"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid checkpoint id")
		return
	}

	resp, err := h.focusService.ToggleCheckpoint(ctx, clerkID, checkpointID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	if resp.AutoCompleted {
		middleware.CountFocusCompletion()
	}

	respondWithJSON(w, http.StatusOK, resp)
}

func (h *FocusHandler) GetStreak(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	st, err := h.streakService.GetStreak(ctx, clerkID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, st)
}
