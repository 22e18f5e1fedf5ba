package handlers

import (
	"context"
	"net/http"
	"time"

	"focalAPI/internal/types/focus"
	"focalAPI/middleware"
	"focalAPI/services"
)

type AnalyticsHandler struct {
	analyticsService *services.AnalyticsService
}

func NewAnalyticsHandler(analyticsService *services.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{
		analyticsService: analyticsService,
	}
}

// parseRange reads start/end query parameters, defaulting to the last
// 30 days.
func parseRange(r *http.Request) (time.Time, time.Time, error) {
	now := time.Now().UTC().Truncate(24 * time.Hour)
	start := now.AddDate(0, 0, -29)
	end := now

	if s := r.URL.Query().Get("start"); s != "" {
		parsed, err := time.Parse(focus.DateLayout, s)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		start = parsed
	}
	if e := r.URL.Query().Get("end"); e != "" {
		parsed, err := time.Parse(focus.DateLayout, e)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		end = parsed
	}
	return start, end, nil
}

func (h *AnalyticsHandler) GetProductivityStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	start, end, err := parseRange(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid date range, expected YYYY-MM-DD")
		return
	}

	stats, err := h.analyticsService.GetProductivityStats(ctx, clerkID, start, end)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, stats)
}

func (h *AnalyticsHandler) GetDailySeries(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	start, end, err := parseRange(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid date range, expected YYYY-MM-DD")
		return
	}

	series, err := h.analyticsService.GetDailySeries(ctx, clerkID, start, end)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, series)
}

func (h *AnalyticsHandler) GetWeeklySummary(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	summary, err := h.analyticsService.GetWeeklySummary(ctx, clerkID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, summary)
}
