package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"focalAPI/internal/types/northstar"
)

type NorthStarService struct {
	db *pgxpool.Pool
}

func NewNorthStarService(db *pgxpool.Pool) *NorthStarService {
	return &NorthStarService{db: db}
}

const northStarColumns = `id, user_id, title, description, target_date, display_order, completed_at, archived_at, created_at, updated_at`

// CreateNorthStar adds a goal. Free-tier accounts are capped at
// three non-archived goals; the cap is a count check here, not a
// database constraint.
func (s *NorthStarService) CreateNorthStar(ctx context.Context, clerkID string, req *northstar.CreateNorthStarRequest) (*northstar.NorthStar, error) {
	var userID uuid.UUID
	var isPremium bool
	err := s.db.QueryRow(ctx, `SELECT id, is_premium FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID, &isPremium)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	if req.Title == "" {
		return nil, fmt.Errorf("title is required")
	}

	if !isPremium {
		var count int
		err = s.db.QueryRow(ctx, `SELECT COUNT(*) FROM north_stars WHERE user_id = $1 AND archived_at IS NULL`, userID).Scan(&count)
		if err != nil {
			return nil, fmt.Errorf("failed to count north stars: %w", err)
		}
		if count >= northstar.FreeTierLimit {
			return nil, fmt.Errorf("free tier limit reached: at most %d active north stars, archive one or upgrade", northstar.FreeTierLimit)
		}
	}

	var targetDate *time.Time
	if req.TargetDate != nil {
		parsed, err := parseDay(*req.TargetDate)
		if err != nil {
			return nil, err
		}
		targetDate = &parsed
	}

	query := `
	INSERT INTO north_stars (id, user_id, title, description, target_date, display_order, created_at, updated_at)
	VALUES (
		$1, $2, $3, $4, $5,
		(SELECT COALESCE(MAX(display_order), -1) + 1 FROM north_stars WHERE user_id = $2),
		NOW(), NOW()
	)
	RETURNING ` + northStarColumns

	n, err := scanNorthStar(s.db.QueryRow(ctx, query, uuid.New(), userID, req.Title, req.Description, targetDate))
	if err != nil {
		return nil, fmt.Errorf("failed to create north star: %w", err)
	}
	return n, nil
}

// GetActiveNorthStars lists goals that are neither archived nor
// completed, in display order.
func (s *NorthStarService) GetActiveNorthStars(ctx context.Context, clerkID string) ([]*northstar.NorthStar, error) {
	return s.listNorthStars(ctx, clerkID, `AND archived_at IS NULL AND completed_at IS NULL`)
}

// GetAllNorthStars includes archived and completed goals, for history
// views.
func (s *NorthStarService) GetAllNorthStars(ctx context.Context, clerkID string) ([]*northstar.NorthStar, error) {
	return s.listNorthStars(ctx, clerkID, ``)
}

func (s *NorthStarService) listNorthStars(ctx context.Context, clerkID, filter string) ([]*northstar.NorthStar, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	rows, err := s.db.Query(ctx, `SELECT `+northStarColumns+` FROM north_stars WHERE user_id = $1 `+filter+` ORDER BY display_order`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch north stars: %w", err)
	}
	defer rows.Close()

	var goals []*northstar.NorthStar
	for rows.Next() {
		n, err := scanNorthStar(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan north star: %w", err)
		}
		goals = append(goals, n)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating north stars: %w", err)
	}

	if goals == nil {
		goals = []*northstar.NorthStar{}
	}
	return goals, nil
}

func (s *NorthStarService) UpdateNorthStar(ctx context.Context, clerkID string, goalID uuid.UUID, req *northstar.UpdateNorthStarRequest) (*northstar.NorthStar, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	var targetDate *time.Time
	if req.TargetDate != nil {
		parsed, err := parseDay(*req.TargetDate)
		if err != nil {
			return nil, err
		}
		targetDate = &parsed
	}

	query := `
	UPDATE north_stars
	SET
		title = COALESCE($3, title),
		description = COALESCE($4, description),
		target_date = COALESCE($5, target_date),
		updated_at = NOW()
	WHERE id = $1 AND user_id = $2
	RETURNING ` + northStarColumns

	n, err := scanNorthStar(s.db.QueryRow(ctx, query, goalID, userID, req.Title, req.Description, targetDate))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("north star not found")
		}
		return nil, fmt.Errorf("failed to update north star: %w", err)
	}
	return n, nil
}

func (s *NorthStarService) CompleteNorthStar(ctx context.Context, clerkID string, goalID uuid.UUID) (*northstar.NorthStar, error) {
	return s.setNorthStarTimestamp(ctx, clerkID, goalID, "completed_at")
}

func (s *NorthStarService) ArchiveNorthStar(ctx context.Context, clerkID string, goalID uuid.UUID) (*northstar.NorthStar, error) {
	return s.setNorthStarTimestamp(ctx, clerkID, goalID, "archived_at")
}

func (s *NorthStarService) setNorthStarTimestamp(ctx context.Context, clerkID string, goalID uuid.UUID, column string) (*northstar.NorthStar, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	query := `
	UPDATE north_stars
	SET ` + column + ` = NOW(), updated_at = NOW()
	WHERE id = $1 AND user_id = $2
	RETURNING ` + northStarColumns

	n, err := scanNorthStar(s.db.QueryRow(ctx, query, goalID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("north star not found")
		}
		return nil, fmt.Errorf("failed to update north star: %w", err)
	}
	return n, nil
}

func (s *NorthStarService) DeleteNorthStar(ctx context.Context, clerkID string, goalID uuid.UUID) error {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return fmt.Errorf("user not found: %w", err)
	}

	result, err := s.db.Exec(ctx, `DELETE FROM north_stars WHERE id = $1 AND user_id = $2`, goalID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete north star: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("north star not found")
	}
	return nil
}

// ReorderNorthStars rewrites display_order to match the given id order.
// IDs not owned by the caller are ignored by the ownership filter.
func (s *NorthStarService) ReorderNorthStars(ctx context.Context, clerkID string, orderedIDs []uuid.UUID) error {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return fmt.Errorf("user not found: %w", err)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for i, id := range orderedIDs {
		if _, err := tx.Exec(ctx, `
			UPDATE north_stars SET display_order = $3, updated_at = NOW()
			WHERE id = $1 AND user_id = $2
		`, id, userID, i); err != nil {
			return fmt.Errorf("failed to reorder north stars: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit reorder: %w", err)
	}
	return nil
}

func scanNorthStar(row pgx.Row) (*northstar.NorthStar, error) {
	n := &northstar.NorthStar{}
	err := row.Scan(
		&n.ID,
		&n.UserID,
		&n.Title,
		&n.Description,
		&n.TargetDate,
		&n.DisplayOrder,
		&n.CompletedAt,
		&n.ArchivedAt,
		&n.CreatedAt,
		&n.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return n, nil
}
