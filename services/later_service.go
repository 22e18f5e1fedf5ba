package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"focalAPI/internal/types/later"
)

type LaterService struct {
	db           *pgxpool.Pool
	focusService *FocusService
}

func NewLaterService(db *pgxpool.Pool, focusService *FocusService) *LaterService {
	return &LaterService{db: db, focusService: focusService}
}

const laterColumns = `id, user_id, content, date, created_at, processed_at, action_taken`

func (s *LaterService) CreateItem(ctx context.Context, clerkID string, req *later.CreateLaterItemRequest) (*later.LaterItem, error) {
	var userID uuid.UUID
	var timezone *string
	err := s.db.QueryRow(ctx, `SELECT id, timezone FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID, &timezone)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	if req.Content == "" {
		return nil, fmt.Errorf("content is required")
	}

	date := todayIn(timezone)
	if req.Date != "" {
		if date, err = parseDay(req.Date); err != nil {
			return nil, err
		}
	}

	query := `
	INSERT INTO later_items (id, user_id, content, date, created_at)
	VALUES ($1, $2, $3, $4, NOW())
	RETURNING ` + laterColumns

	item, err := scanLaterItem(s.db.QueryRow(ctx, query, uuid.New(), userID, req.Content, date))
	if err != nil {
		return nil, fmt.Errorf("failed to create later item: %w", err)
	}
	return item, nil
}

// GetActiveItems lists unprocessed items, newest first.
func (s *LaterService) GetActiveItems(ctx context.Context, clerkID string) ([]*later.LaterItem, error) {
	return s.listItems(ctx, clerkID, `AND processed_at IS NULL`)
}

// GetHistory lists processed items, for the archive view.
func (s *LaterService) GetHistory(ctx context.Context, clerkID string) ([]*later.LaterItem, error) {
	return s.listItems(ctx, clerkID, `AND processed_at IS NOT NULL`)
}

func (s *LaterService) listItems(ctx context.Context, clerkID, filter string) ([]*later.LaterItem, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	rows, err := s.db.Query(ctx, `SELECT `+laterColumns+` FROM later_items WHERE user_id = $1 `+filter+` ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch later items: %w", err)
	}
	defer rows.Close()

	var items []*later.LaterItem
	for rows.Next() {
		item, err := scanLaterItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan later item: %w", err)
		}
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating later items: %w", err)
	}

	if items == nil {
		items = []*later.LaterItem{}
	}
	return items, nil
}

// ProcessItem triages an inbox item. "converted" turns the content into
// a checkpoint on the given focus; "archived" and "deleted" just record
// the outcome. Processed items stay in the table for history either
// way.
func (s *LaterService) ProcessItem(ctx context.Context, clerkID string, itemID uuid.UUID, req *later.ProcessLaterItemRequest) (*later.LaterItem, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	if !later.ValidAction(req.Action) {
		return nil, fmt.Errorf("invalid action: %s", req.Action)
	}
	action := later.Action(req.Action)

	var content string
	var processedAt *time.Time
	err = s.db.QueryRow(ctx, `SELECT content, processed_at FROM later_items WHERE id = $1 AND user_id = $2`, itemID, userID).Scan(&content, &processedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("later item not found")
		}
		return nil, fmt.Errorf("failed to get later item: %w", err)
	}
	if processedAt != nil {
		return nil, fmt.Errorf("later item already processed")
	}

	if action == later.ActionConverted {
		if req.FocusID == nil {
			return nil, fmt.Errorf("focus_id is required to convert a later item")
		}
		focusID, err := uuid.Parse(*req.FocusID)
		if err != nil {
			return nil, fmt.Errorf("invalid focus id: %s", *req.FocusID)
		}
		if _, err := s.focusService.AddCheckpoint(ctx, clerkID, focusID, content); err != nil {
			return nil, err
		}
	}

	query := `
	UPDATE later_items
	SET processed_at = NOW(), action_taken = $3
	WHERE id = $1 AND user_id = $2
	RETURNING ` + laterColumns

	item, err := scanLaterItem(s.db.QueryRow(ctx, query, itemID, userID, action))
	if err != nil {
		return nil, fmt.Errorf("failed to process later item: %w", err)
	}
	return item, nil
}

func scanLaterItem(row pgx.Row) (*later.LaterItem, error) {
	item := &later.LaterItem{}
	err := row.Scan(
		&item.ID,
		&item.UserID,
		&item.Content,
		&item.Date,
		&item.CreatedAt,
		&item.ProcessedAt,
		&item.ActionTaken,
	)
	if err != nil {
		return nil, err
	}
	return item, nil
}
