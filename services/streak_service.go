package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"focalAPI/internal/types/streak"
)

type StreakService struct {
	db *pgxpool.Pool
}

func NewStreakService(db *pgxpool.Pool) *StreakService {
	return &StreakService{db: db}
}

// GetStreak returns the user's streak row, or a zeroed streak when the
// user has never completed a focus (the row is created lazily).
func (s *StreakService) GetStreak(ctx context.Context, clerkID string) (*streak.Streak, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	row, err := scanStreak(s.db.QueryRow(ctx, streakSelect+` WHERE user_id = $1`, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &streak.Streak{UserID: userID}, nil
		}
		return nil, fmt.Errorf("failed to get streak: %w", err)
	}
	return row, nil
}

const streakSelect = `
	SELECT id, user_id, current_streak, longest_streak, last_focus_date, total_focuses_completed, created_at, updated_at
	FROM streaks`

// AdvanceTx applies the streak calculator inside the caller's
// transaction, so a focus completion and its streak update commit or
// fail together. The row is locked for the duration of the transaction.
func (s *StreakService) AdvanceTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID, today time.Time) (*streak.Streak, error) {
	prev, err := scanStreak(tx.QueryRow(ctx, streakSelect+` WHERE user_id = $1 FOR UPDATE`, userID))
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to lock streak row: %w", err)
	}
	if errors.Is(err, pgx.ErrNoRows) {
		prev = nil
	}

	next := streak.Advance(prev, today)

	if prev == nil {
		row, err := scanStreak(tx.QueryRow(ctx, `
			INSERT INTO streaks (id, user_id, current_streak, longest_streak, last_focus_date, total_focuses_completed, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
			RETURNING id, user_id, current_streak, longest_streak, last_focus_date, total_focuses_completed, created_at, updated_at
		`, uuid.New(), userID, next.CurrentStreak, next.LongestStreak, next.LastFocusDate, next.TotalFocusesCompleted))
		if err != nil {
			return nil, fmt.Errorf("failed to create streak: %w", err)
		}
		return row, nil
	}

	row, err := scanStreak(tx.QueryRow(ctx, `
		UPDATE streaks
		SET current_streak = $2, longest_streak = $3, last_focus_date = $4, total_focuses_completed = $5, updated_at = NOW()
		WHERE user_id = $1
		RETURNING id, user_id, current_streak, longest_streak, last_focus_date, total_focuses_completed, created_at, updated_at
	`, userID, next.CurrentStreak, next.LongestStreak, next.LastFocusDate, next.TotalFocusesCompleted))
	if err != nil {
		return nil, fmt.Errorf("failed to update streak: %w", err)
	}
	return row, nil
}

func scanStreak(row pgx.Row) (*streak.Streak, error) {
	st := &streak.Streak{}
	err := row.Scan(
		&st.ID,
		&st.UserID,
		&st.CurrentStreak,
		&st.LongestStreak,
		&st.LastFocusDate,
		&st.TotalFocusesCompleted,
		&st.CreatedAt,
		&st.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return st, nil
}
