package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"focalAPI/internal/types/focus"
	"focalAPI/internal/types/streak"
)

type FocusService struct {
	db            *pgxpool.Pool
	streakService *StreakService
}

func NewFocusService(db *pgxpool.Pool, streakService *StreakService) *FocusService {
	return &FocusService{db: db, streakService: streakService}
}

const focusColumns = `id, user_id, north_star_id, session_number, date, title, description, energy_level, started_at, completed_at, created_at, updated_at`

// resolveUser maps a Clerk ID to the internal user row. Every operation
// goes through this first; a missing user means the caller is not
// authenticated against this system.
func (s *FocusService) resolveUser(ctx context.Context, clerkID string) (uuid.UUID, *string, bool, error) {
	var userID uuid.UUID
	var timezone *string
	var isPremium bool
	err := s.db.QueryRow(ctx, `SELECT id, timezone, is_premium FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID, &timezone, &isPremium)
	if err != nil {
		return uuid.Nil, nil, false, fmt.Errorf("user not found: %w", err)
	}
	return userID, timezone, isPremium, nil
}

// CreateFocus inserts a new session. The session number is the next
// ordinal for that user and day, computed inside the INSERT so two
// concurrent creations cannot read the same max; the unique
// (user_id, date, session_number) index backs this up.
func (s *FocusService) CreateFocus(ctx context.Context, clerkID string, req *focus.CreateFocusRequest) (*focus.Focus, error) {
	userID, timezone, _, err := s.resolveUser(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	if req.Title == "" {
		return nil, fmt.Errorf("title is required")
	}

	var energy *focus.EnergyLevel
	if req.EnergyLevel != nil {
		if !focus.ValidEnergyLevel(*req.EnergyLevel) {
			return nil, fmt.Errorf("invalid energy level: %s", *req.EnergyLevel)
		}
		e := focus.EnergyLevel(*req.EnergyLevel)
		energy = &e
	}

	date := todayIn(timezone)
	if req.Date != "" {
		if date, err = parseDay(req.Date); err != nil {
			return nil, err
		}
	}

	var northStarID *uuid.UUID
	if req.NorthStarID != nil {
		parsed, err := uuid.Parse(*req.NorthStarID)
		if err != nil {
			return nil, fmt.Errorf("invalid north star id: %s", *req.NorthStarID)
		}
		var exists bool
		err = s.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM north_stars WHERE id = $1 AND user_id = $2)`, parsed, userID).Scan(&exists)
		if err != nil {
			return nil, fmt.Errorf("failed to check north star: %w", err)
		}
		if !exists {
			return nil, fmt.Errorf("north star not found")
		}
		northStarID = &parsed
	}

	query := `
	INSERT INTO focuses (id, user_id, north_star_id, session_number, date, title, description, energy_level, started_at, created_at, updated_at)
	VALUES (
		$1, $2, $3,
		(SELECT COALESCE(MAX(session_number), 0) + 1 FROM focuses WHERE user_id = $2 AND date = $4),
		$4, $5, $6, $7, NOW(), NOW(), NOW()
	)
	RETURNING ` + focusColumns

	f, err := scanFocus(s.db.QueryRow(ctx, query, uuid.New(), userID, northStarID, date, req.Title, req.Description, energy))
	if err != nil {
		return nil, fmt.Errorf("failed to create focus session: %w", err)
	}
	return f, nil
}

// GetFocusesByDate lists a day's sessions with their checkpoints,
// ordered by session number. A zero date means today in the user's
// timezone, the same day bucket CreateFocus defaults to.
func (s *FocusService) GetFocusesByDate(ctx context.Context, clerkID string, date time.Time) ([]*focus.FocusWithCheckpoints, error) {
	userID, timezone, _, err := s.resolveUser(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	if date.IsZero() {
		date = todayIn(timezone)
	}

	rows, err := s.db.Query(ctx, `SELECT `+focusColumns+` FROM focuses WHERE user_id = $1 AND date = $2 ORDER BY session_number`, userID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch focus sessions: %w", err)
	}
	defer rows.Close()

	var result []*focus.FocusWithCheckpoints
	var ids []uuid.UUID
	byID := make(map[uuid.UUID]*focus.FocusWithCheckpoints)
	for rows.Next() {
		f, err := scanFocus(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan focus: %w", err)
		}
		fc := &focus.FocusWithCheckpoints{Focus: *f, Checkpoints: []*focus.Checkpoint{}}
		result = append(result, fc)
		ids = append(ids, f.ID)
		byID[f.ID] = fc
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating focus sessions: %w", err)
	}

	if len(ids) > 0 {
		cpRows, err := s.db.Query(ctx, `
			SELECT id, focus_id, title, display_order, completed_at, created_at
			FROM checkpoints
			WHERE focus_id = ANY($1)
			ORDER BY display_order
		`, ids)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch checkpoints: %w", err)
		}
		defer cpRows.Close()

		for cpRows.Next() {
			cp := &focus.Checkpoint{}
			if err := cpRows.Scan(&cp.ID, &cp.FocusID, &cp.Title, &cp.DisplayOrder, &cp.CompletedAt, &cp.CreatedAt); err != nil {
				return nil, fmt.Errorf("failed to scan checkpoint: %w", err)
			}
			if fc, exists := byID[cp.FocusID]; exists {
				fc.Checkpoints = append(fc.Checkpoints, cp)
			}
		}
		if err = cpRows.Err(); err != nil {
			return nil, fmt.Errorf("error iterating checkpoints: %w", err)
		}
	}

	if result == nil {
		result = []*focus.FocusWithCheckpoints{}
	}
	return result, nil
}

func (s *FocusService) GetFocus(ctx context.Context, clerkID string, focusID uuid.UUID) (*focus.FocusWithCheckpoints, error) {
	userID, _, _, err := s.resolveUser(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	f, err := scanFocus(s.db.QueryRow(ctx, `SELECT `+focusColumns+` FROM focuses WHERE id = $1 AND user_id = $2`, focusID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("focus not found")
		}
		return nil, fmt.Errorf("failed to get focus: %w", err)
	}

	fc := &focus.FocusWithCheckpoints{Focus: *f, Checkpoints: []*focus.Checkpoint{}}

	rows, err := s.db.Query(ctx, `
		SELECT id, focus_id, title, display_order, completed_at, created_at
		FROM checkpoints WHERE focus_id = $1 ORDER BY display_order
	`, f.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch checkpoints: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		cp := &focus.Checkpoint{}
		if err := rows.Scan(&cp.ID, &cp.FocusID, &cp.Title, &cp.DisplayOrder, &cp.CompletedAt, &cp.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan checkpoint: %w", err)
		}
		fc.Checkpoints = append(fc.Checkpoints, cp)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating checkpoints: %w", err)
	}

	return fc, nil
}

func (s *FocusService) UpdateFocus(ctx context.Context, clerkID string, focusID uuid.UUID, req *focus.UpdateFocusRequest) (*focus.Focus, error) {
	userID, _, _, err := s.resolveUser(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	var energy *focus.EnergyLevel
	if req.EnergyLevel != nil {
		if !focus.ValidEnergyLevel(*req.EnergyLevel) {
			return nil, fmt.Errorf("invalid energy level: %s", *req.EnergyLevel)
		}
		e := focus.EnergyLevel(*req.EnergyLevel)
		energy = &e
	}

	query := `
	UPDATE focuses
	SET
		title = COALESCE($3, title),
		description = COALESCE($4, description),
		energy_level = COALESCE($5, energy_level),
		updated_at = NOW()
	WHERE id = $1 AND user_id = $2
	RETURNING ` + focusColumns

	f, err := scanFocus(s.db.QueryRow(ctx, query, focusID, userID, req.Title, req.Description, energy))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("focus not found")
		}
		return nil, fmt.Errorf("failed to update focus: %w", err)
	}
	return f, nil
}

// CompleteFocus marks the session complete and advances the streak in
// one transaction, so the session can never end up completed without
// its streak update (or vice versa).
func (s *FocusService) CompleteFocus(ctx context.Context, clerkID string, focusID uuid.UUID) (*focus.Focus, *streak.Streak, error) {
	userID, timezone, _, err := s.resolveUser(ctx, clerkID)
	if err != nil {
		return nil, nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	f, st, err := s.completeFocusTx(ctx, tx, userID, focusID, todayIn(timezone), false)
	if err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to commit focus completion: %w", err)
	}
	return f, st, nil
}

// completeFocusTx marks the focus complete and advances the streak. The
// auto flag records whether the completion came from the checkpoint
// cascade; only those completions are reverted when a checkpoint is
// un-toggled later.
func (s *FocusService) completeFocusTx(ctx context.Context, tx pgx.Tx, userID, focusID uuid.UUID, today time.Time, auto bool) (*focus.Focus, *streak.Streak, error) {
	f, err := scanFocus(tx.QueryRow(ctx, `
		UPDATE focuses
		SET completed_at = NOW(), auto_completed = $3, updated_at = NOW()
		WHERE id = $1 AND user_id = $2 AND completed_at IS NULL
		RETURNING `+focusColumns, focusID, userID, auto))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, fmt.Errorf("focus not found or already completed")
		}
		return nil, nil, fmt.Errorf("failed to complete focus: %w", err)
	}

	st, err := s.streakService.AdvanceTx(ctx, tx, userID, today)
	if err != nil {
		return nil, nil, err
	}
	return f, st, nil
}

// CancelFocus deletes the session and its checkpoints in one
// transaction; no orphaned checkpoints, no half-cancelled focus.
func (s *FocusService) CancelFocus(ctx context.Context, clerkID string, focusID uuid.UUID) error {
	userID, _, _, err := s.resolveUser(ctx, clerkID)
	if err != nil {
		return err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		DELETE FROM checkpoints
		WHERE focus_id = (SELECT id FROM focuses WHERE id = $1 AND user_id = $2)
	`, focusID, userID); err != nil {
		return fmt.Errorf("failed to delete checkpoints: %w", err)
	}

	result, err := tx.Exec(ctx, `DELETE FROM focuses WHERE id = $1 AND user_id = $2`, focusID, userID)
	if err != nil {
		return fmt.Errorf("failed to cancel focus: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("focus not found")
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit focus cancellation: %w", err)
	}
	return nil
}

// AddCheckpoint appends a checkpoint with the next display order.
func (s *FocusService) AddCheckpoint(ctx context.Context, clerkID string, focusID uuid.UUID, title string) (*focus.Checkpoint, error) {
	userID, _, isPremium, err := s.resolveUser(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	if title == "" {
		return nil, fmt.Errorf("title is required")
	}

	var exists bool
	err = s.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM focuses WHERE id = $1 AND user_id = $2)`, focusID, userID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check focus: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("focus not found")
	}

	if !isPremium {
		var count int
		err = s.db.QueryRow(ctx, `SELECT COUNT(*) FROM checkpoints WHERE focus_id = $1`, focusID).Scan(&count)
		if err != nil {
			return nil, fmt.Errorf("failed to count checkpoints: %w", err)
		}
		if count >= focus.FreeTierCheckpointLimit {
			return nil, fmt.Errorf("free tier limit reached: a focus can have at most %d checkpoints", focus.FreeTierCheckpointLimit)
		}
	}

	cp := &focus.Checkpoint{}
	query := `
	INSERT INTO checkpoints (id, focus_id, title, display_order, created_at)
	VALUES (
		$1, $2, $3,
		(SELECT COALESCE(MAX(display_order), -1) + 1 FROM checkpoints WHERE focus_id = $2),
		NOW()
	)
	RETURNING id, focus_id, title, display_order, completed_at, created_at
	`
	err = s.db.QueryRow(ctx, query, uuid.New(), focusID, title).Scan(
		&cp.ID, &cp.FocusID, &cp.Title, &cp.DisplayOrder, &cp.CompletedAt, &cp.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to add checkpoint: %w", err)
	}
	return cp, nil
}

// ToggleCheckpoint flips a checkpoint between done and not done.
//
// When the flip leaves every checkpoint of the focus complete (and
// there is at least one), the parent focus is completed in the same
// transaction, streak update included. When the flip un-completes a
// checkpoint of an auto-completed focus, the focus reverts to
// incomplete so a toggle-and-toggle-back leaves things exactly as they
// were. A focus completed explicitly stays completed. The streak is
// never decremented on revert: completions already counted stay
// counted.
func (s *FocusService) ToggleCheckpoint(ctx context.Context, clerkID string, checkpointID uuid.UUID) (*focus.ToggleCheckpointResponse, error) {
	userID, timezone, _, err := s.resolveUser(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Lock the parent focus so a concurrent toggle on a sibling
	// checkpoint serializes with this cascade decision.
	var focusID uuid.UUID
	err = tx.QueryRow(ctx, `
		SELECT f.id
		FROM checkpoints c
		JOIN focuses f ON f.id = c.focus_id
		WHERE c.id = $1 AND f.user_id = $2
		FOR UPDATE OF f
	`, checkpointID, userID).Scan(&focusID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("checkpoint not found")
		}
		return nil, fmt.Errorf("failed to look up checkpoint: %w", err)
	}

	cp := &focus.Checkpoint{}
	err = tx.QueryRow(ctx, `
		UPDATE checkpoints
		SET completed_at = CASE WHEN completed_at IS NULL THEN NOW() ELSE NULL END
		WHERE id = $1
		RETURNING id, focus_id, title, display_order, completed_at, created_at
	`, checkpointID).Scan(&cp.ID, &cp.FocusID, &cp.Title, &cp.DisplayOrder, &cp.CompletedAt, &cp.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to toggle checkpoint: %w", err)
	}

	var total, remaining int
	err = tx.QueryRow(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE completed_at IS NULL)
		FROM checkpoints WHERE focus_id = $1
	`, focusID).Scan(&total, &remaining)
	if err != nil {
		return nil, fmt.Errorf("failed to count checkpoints: %w", err)
	}

	f, err := scanFocus(tx.QueryRow(ctx, `SELECT `+focusColumns+` FROM focuses WHERE id = $1`, focusID))
	if err != nil {
		return nil, fmt.Errorf("failed to get focus: %w", err)
	}

	resp := &focus.ToggleCheckpointResponse{Checkpoint: cp}

	switch {
	case cp.Completed() && total > 0 && remaining == 0 && f.State() == focus.StateCreated:
		f, _, err = s.completeFocusTx(ctx, tx, userID, focusID, todayIn(timezone), true)
		if err != nil {
			return nil, err
		}
		resp.AutoCompleted = true

	case !cp.Completed() && f.State() == focus.StateCompleted:
		// Only cascade completions are reverted; the WHERE clause
		// leaves an explicitly completed focus untouched.
		reopened, err := scanFocus(tx.QueryRow(ctx, `
			UPDATE focuses SET completed_at = NULL, auto_completed = FALSE, updated_at = NOW()
			WHERE id = $1 AND auto_completed
			RETURNING `+focusColumns, focusID))
		switch {
		case err == nil:
			f = reopened
		case errors.Is(err, pgx.ErrNoRows):
		default:
			return nil, fmt.Errorf("failed to reopen focus: %w", err)
		}
	}

	resp.Focus = f

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit checkpoint toggle: %w", err)
	}

	if resp.AutoCompleted {
		log.Printf("ToggleCheckpoint: focus %s auto-completed for user %s", focusID, clerkID)
	}
	return resp, nil
}

func scanFocus(row pgx.Row) (*focus.Focus, error) {
	f := &focus.Focus{}
	err := row.Scan(
		&f.ID,
		&f.UserID,
		&f.NorthStarID,
		&f.SessionNumber,
		&f.Date,
		&f.Title,
		&f.Description,
		&f.EnergyLevel,
		&f.StartedAt,
		&f.CompletedAt,
		&f.CreatedAt,
		&f.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return f, nil
}
