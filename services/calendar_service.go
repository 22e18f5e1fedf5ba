package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"focalAPI/internal/types/calendarevent"
)

type CalendarService struct {
	db *pgxpool.Pool
}

func NewCalendarService(db *pgxpool.Pool) *CalendarService {
	return &CalendarService{db: db}
}

const eventColumns = `id, user_id, title, description, event_type, event_date, event_time, duration, is_completed, linked_focus_id, created_at, updated_at`

func (s *CalendarService) CreateEvent(ctx context.Context, clerkID string, req *calendarevent.CreateEventRequest) (*calendarevent.CalendarEvent, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	if req.Title == "" {
		return nil, fmt.Errorf("title is required")
	}
	if !calendarevent.ValidEventType(req.EventType) {
		return nil, fmt.Errorf("invalid event type: %s", req.EventType)
	}

	eventDate, err := parseDay(req.EventDate)
	if err != nil {
		return nil, err
	}

	// linked_focus_id is a weak reference; verify it belongs to the
	// caller at link time, but nothing cascades if the focus later
	// disappears.
	var linkedFocusID *uuid.UUID
	if req.LinkedFocusID != nil {
		parsed, err := uuid.Parse(*req.LinkedFocusID)
		if err != nil {
			return nil, fmt.Errorf("invalid focus id: %s", *req.LinkedFocusID)
		}
		var exists bool
		err = s.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM focuses WHERE id = $1 AND user_id = $2)`, parsed, userID).Scan(&exists)
		if err != nil {
			return nil, fmt.Errorf("failed to check focus: %w", err)
		}
		if !exists {
			return nil, fmt.Errorf("focus not found")
		}
		linkedFocusID = &parsed
	}

	query := `
	INSERT INTO calendar_events (id, user_id, title, description, event_type, event_date, event_time, duration, linked_focus_id, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
	RETURNING ` + eventColumns

	e, err := scanEvent(s.db.QueryRow(ctx, query, uuid.New(), userID, req.Title, req.Description, req.EventType, eventDate, req.EventTime, req.Duration, linkedFocusID))
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar event: %w", err)
	}
	return e, nil
}

// GetEventsByMonth lists a month's events ordered by date and time.
func (s *CalendarService) GetEventsByMonth(ctx context.Context, clerkID string, year, month int) (*calendarevent.MonthResponse, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	startDate := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	endDate := startDate.AddDate(0, 1, -1)

	events, err := s.queryEvents(ctx, userID, startDate, endDate)
	if err != nil {
		return nil, err
	}

	return &calendarevent.MonthResponse{
		Year:   year,
		Month:  month,
		Events: events,
	}, nil
}

func (s *CalendarService) GetEventsByDate(ctx context.Context, clerkID string, date time.Time) ([]*calendarevent.CalendarEvent, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}
	return s.queryEvents(ctx, userID, date, date)
}

func (s *CalendarService) queryEvents(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]*calendarevent.CalendarEvent, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+eventColumns+`
		FROM calendar_events
		WHERE user_id = $1 AND event_date >= $2 AND event_date <= $3
		ORDER BY event_date, event_time NULLS LAST
	`, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch calendar events: %w", err)
	}
	defer rows.Close()

	var events []*calendarevent.CalendarEvent
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan calendar event: %w", err)
		}
		events = append(events, e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating calendar events: %w", err)
	}

	if events == nil {
		events = []*calendarevent.CalendarEvent{}
	}
	return events, nil
}

func (s *CalendarService) UpdateEvent(ctx context.Context, clerkID string, eventID uuid.UUID, req *calendarevent.UpdateEventRequest) (*calendarevent.CalendarEvent, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	if req.EventType != nil && !calendarevent.ValidEventType(*req.EventType) {
		return nil, fmt.Errorf("invalid event type: %s", *req.EventType)
	}

	var eventDate *time.Time
	if req.EventDate != nil {
		parsed, err := parseDay(*req.EventDate)
		if err != nil {
			return nil, err
		}
		eventDate = &parsed
	}

	query := `
	UPDATE calendar_events
	SET
		title = COALESCE($3, title),
		description = COALESCE($4, description),
		event_type = COALESCE($5, event_type),
		event_date = COALESCE($6, event_date),
		event_time = COALESCE($7, event_time),
		duration = COALESCE($8, duration),
		updated_at = NOW()
	WHERE id = $1 AND user_id = $2
	RETURNING ` + eventColumns

	e, err := scanEvent(s.db.QueryRow(ctx, query, eventID, userID, req.Title, req.Description, req.EventType, eventDate, req.EventTime, req.Duration))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("calendar event not found")
		}
		return nil, fmt.Errorf("failed to update calendar event: %w", err)
	}
	return e, nil
}

func (s *CalendarService) ToggleEventCompleted(ctx context.Context, clerkID string, eventID uuid.UUID) (*calendarevent.CalendarEvent, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	query := `
	UPDATE calendar_events
	SET is_completed = NOT is_completed, updated_at = NOW()
	WHERE id = $1 AND user_id = $2
	RETURNING ` + eventColumns

	e, err := scanEvent(s.db.QueryRow(ctx, query, eventID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("calendar event not found")
		}
		return nil, fmt.Errorf("failed to toggle calendar event: %w", err)
	}
	return e, nil
}

func (s *CalendarService) DeleteEvent(ctx context.Context, clerkID string, eventID uuid.UUID) error {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return fmt.Errorf("user not found: %w", err)
	}

	result, err := s.db.Exec(ctx, `DELETE FROM calendar_events WHERE id = $1 AND user_id = $2`, eventID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete calendar event: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("calendar event not found")
	}
	return nil
}

func scanEvent(row pgx.Row) (*calendarevent.CalendarEvent, error) {
	e := &calendarevent.CalendarEvent{}
	err := row.Scan(
		&e.ID,
		&e.UserID,
		&e.Title,
		&e.Description,
		&e.EventType,
		&e.EventDate,
		&e.EventTime,
		&e.Duration,
		&e.IsCompleted,
		&e.LinkedFocusID,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return e, nil
}
