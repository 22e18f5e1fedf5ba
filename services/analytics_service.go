package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"focalAPI/internal/analytics"
	"focalAPI/internal/types/focus"
)

// AnalyticsService fetches date-bounded focus rows and hands them to the
// pure aggregators in internal/analytics.
type AnalyticsService struct {
	db *pgxpool.Pool
}

func NewAnalyticsService(db *pgxpool.Pool) *AnalyticsService {
	return &AnalyticsService{db: db}
}

type ProductivityStats struct {
	Start              string                      `json:"start"`
	End                string                      `json:"end"`
	Total              int                         `json:"total"`
	Completed          int                         `json:"completed"`
	CompletionRate     float64                     `json:"completion_rate"`
	MostProductiveHour *int                        `json:"most_productive_hour"`
	HourlyHistogram    map[int]int                 `json:"hourly_histogram"`
	EnergyDistribution map[focus.EnergyLevel]int   `json:"energy_distribution"`
}

// GetProductivityStats aggregates the caller's sessions over [start,end].
func (s *AnalyticsService) GetProductivityStats(ctx context.Context, clerkID string, start, end time.Time) (*ProductivityStats, error) {
	sessions, err := s.fetchSessions(ctx, clerkID, start, end)
	if err != nil {
		return nil, err
	}

	completed := 0
	for _, sess := range sessions {
		if sess.State() == focus.StateCompleted {
			completed++
		}
	}

	hist := analytics.HourlyHistogram(sessions)
	stats := &ProductivityStats{
		Start:              start.Format(focus.DateLayout),
		End:                end.Format(focus.DateLayout),
		Total:              len(sessions),
		Completed:          completed,
		CompletionRate:     analytics.CompletionRate(sessions),
		HourlyHistogram:    hist,
		EnergyDistribution: analytics.EnergyDistribution(sessions),
	}
	if hour, _, ok := analytics.MostProductiveHour(hist); ok {
		stats.MostProductiveHour = &hour
	}
	return stats, nil
}

func (s *AnalyticsService) GetDailySeries(ctx context.Context, clerkID string, start, end time.Time) ([]analytics.DayCompletion, error) {
	sessions, err := s.fetchSessions(ctx, clerkID, start, end)
	if err != nil {
		return nil, err
	}
	return analytics.DailySeries(sessions, start, end), nil
}

// GetWeeklySummary summarises the Monday-start week containing today in
// the caller's timezone.
func (s *AnalyticsService) GetWeeklySummary(ctx context.Context, clerkID string) (*analytics.WeeklySummary, error) {
	var timezone *string
	err := s.db.QueryRow(ctx, `SELECT timezone FROM users WHERE clerk_id = $1`, clerkID).Scan(&timezone)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	today := todayIn(timezone)
	start := analytics.WeekStart(today)
	end := start.AddDate(0, 0, 6)

	sessions, err := s.fetchSessions(ctx, clerkID, start, end)
	if err != nil {
		return nil, err
	}

	summary := analytics.WeeklyFromSessions(sessions, today)
	return &summary, nil
}

func (s *AnalyticsService) fetchSessions(ctx context.Context, clerkID string, start, end time.Time) ([]*focus.Focus, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	if end.Before(start) {
		return nil, fmt.Errorf("end date %s is before start date %s", end.Format(focus.DateLayout), start.Format(focus.DateLayout))
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, north_star_id, session_number, date, title, description, energy_level, started_at, completed_at, created_at, updated_at
		FROM focuses
		WHERE user_id = $1 AND date >= $2 AND date <= $3
		ORDER BY date, session_number
	`, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch focuses: %w", err)
	}
	defer rows.Close()

	var sessions []*focus.Focus
	for rows.Next() {
		f := &focus.Focus{}
		err := rows.Scan(&f.ID, &f.UserID, &f.NorthStarID, &f.SessionNumber, &f.Date, &f.Title,
			&f.Description, &f.EnergyLevel, &f.StartedAt, &f.CompletedAt, &f.CreatedAt, &f.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan focus: %w", err)
		}
		sessions = append(sessions, f)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating focuses: %w", err)
	}

	if sessions == nil {
		sessions = []*focus.Focus{}
	}
	return sessions, nil
}
