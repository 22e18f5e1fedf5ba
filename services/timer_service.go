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

	"focalAPI/internal/timer"
	timertypes "focalAPI/internal/types/timer"
)

// TimerService fronts the in-memory countdown store and persists
// timer_sessions rows for history. The store is injected after
// construction because its callbacks need the service's preference
// lookups.
type TimerService struct {
	db    *pgxpool.Pool
	store *timer.Store
}

func NewTimerService(db *pgxpool.Pool) *TimerService {
	return &TimerService{db: db}
}

func (s *TimerService) SetStore(store *timer.Store) {
	s.store = store
}

// BreakConfig is the store callback consulted when a focus countdown
// hits zero. The key is the owner's clerk id.
func (s *TimerService) BreakConfig(key string) (int, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	prefs, err := s.GetPreferences(ctx, key)
	if err != nil {
		log.Printf("BreakConfig: falling back to defaults: %v", err)
		return timertypes.DefaultBreakSeconds, false
	}
	return prefs.BreakSeconds, prefs.AutoStartBreaks
}

// RecordFinish marks the persisted session row completed when its
// countdown reaches zero. Best effort; the in-memory timer already
// finished.
func (s *TimerService) RecordFinish(st timer.State) {
	if st.SessionID == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if _, err := s.db.Exec(ctx, `UPDATE timer_sessions SET completed_at = NOW() WHERE id = $1`, *st.SessionID); err != nil {
		log.Printf("RecordFinish: failed to mark timer session %s: %v", *st.SessionID, err)
	}
}

func (s *TimerService) StartTimer(ctx context.Context, clerkID string, req *timertypes.StartTimerRequest) (timer.State, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return timer.State{}, fmt.Errorf("user not found: %w", err)
	}

	if !timertypes.ValidTimerType(req.TimerType) {
		return timer.State{}, fmt.Errorf("invalid timer type: %s", req.TimerType)
	}
	timerType := timertypes.TimerType(req.TimerType)

	duration, err := s.resolveDuration(ctx, clerkID, timerType, req)
	if err != nil {
		return timer.State{}, err
	}

	var targetID *uuid.UUID
	if req.TargetID != nil {
		parsed, err := uuid.Parse(*req.TargetID)
		if err != nil {
			return timer.State{}, fmt.Errorf("invalid target id: %s", *req.TargetID)
		}
		targetID = &parsed
	}

	// History row is best effort. The countdown starts regardless.
	var sessionID *uuid.UUID
	id := uuid.New()
	_, err = s.db.Exec(ctx, `
		INSERT INTO timer_sessions (id, user_id, target_id, timer_type, preset, duration_seconds, started_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
	`, id, userID, targetID, timerType, req.Preset, duration)
	if err != nil {
		log.Printf("StartTimer: failed to persist timer session: %v", err)
	} else {
		sessionID = &id
	}

	return s.store.Start(clerkID, timerType, req.Preset, targetID, sessionID, duration)
}

func (s *TimerService) resolveDuration(ctx context.Context, clerkID string, timerType timertypes.TimerType, req *timertypes.StartTimerRequest) (int, error) {
	if req.Preset != nil {
		switch *req.Preset {
		case timertypes.PresetShort:
			return 25 * 60, nil
		case timertypes.PresetLong:
			return 50 * 60, nil
		case timertypes.PresetDeep:
			return 90 * 60, nil
		case timertypes.PresetCustom:
			if req.DurationSeconds <= 0 {
				return 0, fmt.Errorf("custom preset requires a positive duration_seconds")
			}
			return req.DurationSeconds, nil
		default:
			return 0, fmt.Errorf("invalid preset: %s", *req.Preset)
		}
	}
	if req.DurationSeconds > 0 {
		return req.DurationSeconds, nil
	}

	prefs, err := s.GetPreferences(ctx, clerkID)
	if err != nil {
		return 0, err
	}
	if timerType == timertypes.TypeBreak {
		return prefs.BreakSeconds, nil
	}
	return prefs.FocusSeconds, nil
}

func (s *TimerService) PauseTimer(clerkID string) (timer.State, error) {
	return s.store.Pause(clerkID)
}

func (s *TimerService) ResumeTimer(clerkID string) (timer.State, error) {
	return s.store.Resume(clerkID)
}

// StopTimer halts the countdown early. The persisted row keeps a null
// completed_at, which is how an abandoned session reads in history.
func (s *TimerService) StopTimer(clerkID string) (timer.State, error) {
	return s.store.Stop(clerkID)
}

func (s *TimerService) GetTimer(clerkID string) (timer.State, bool) {
	return s.store.Get(clerkID)
}

func (s *TimerService) StartBreak(ctx context.Context, clerkID string) (timer.State, error) {
	prefs, err := s.GetPreferences(ctx, clerkID)
	if err != nil {
		return timer.State{}, err
	}
	return s.store.StartBreakNow(clerkID, prefs.BreakSeconds)
}

// GetPreferences returns stored preferences, or the defaults when the
// user has never saved any.
func (s *TimerService) GetPreferences(ctx context.Context, clerkID string) (*timertypes.Preferences, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	prefs := &timertypes.Preferences{
		UserID:       userID,
		FocusSeconds: timertypes.DefaultFocusSeconds,
		BreakSeconds: timertypes.DefaultBreakSeconds,
	}
	err = s.db.QueryRow(ctx, `
		SELECT focus_seconds, break_seconds, auto_start_breaks, updated_at
		FROM timer_preferences WHERE user_id = $1
	`, userID).Scan(&prefs.FocusSeconds, &prefs.BreakSeconds, &prefs.AutoStartBreaks, &prefs.UpdatedAt)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to get timer preferences: %w", err)
	}
	return prefs, nil
}

func (s *TimerService) UpdatePreferences(ctx context.Context, clerkID string, req *timertypes.UpdatePreferencesRequest) (*timertypes.Preferences, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	if req.FocusSeconds != nil && *req.FocusSeconds <= 0 {
		return nil, fmt.Errorf("focus_seconds must be positive")
	}
	if req.BreakSeconds != nil && *req.BreakSeconds <= 0 {
		return nil, fmt.Errorf("break_seconds must be positive")
	}

	query := `
	INSERT INTO timer_preferences (user_id, focus_seconds, break_seconds, auto_start_breaks, updated_at)
	VALUES ($1, COALESCE($2, $4), COALESCE($3, $5), COALESCE($6, FALSE), NOW())
	ON CONFLICT (user_id) DO UPDATE SET
		focus_seconds = COALESCE($2, timer_preferences.focus_seconds),
		break_seconds = COALESCE($3, timer_preferences.break_seconds),
		auto_start_breaks = COALESCE($6, timer_preferences.auto_start_breaks),
		updated_at = NOW()
	RETURNING user_id, focus_seconds, break_seconds, auto_start_breaks, updated_at`

	prefs := &timertypes.Preferences{}
	err = s.db.QueryRow(ctx, query, userID, req.FocusSeconds, req.BreakSeconds,
		timertypes.DefaultFocusSeconds, timertypes.DefaultBreakSeconds, req.AutoStartBreaks,
	).Scan(&prefs.UserID, &prefs.FocusSeconds, &prefs.BreakSeconds, &prefs.AutoStartBreaks, &prefs.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to update timer preferences: %w", err)
	}
	return prefs, nil
}

// GetTimerHistory lists the most recent persisted sessions, newest
// first.
func (s *TimerService) GetTimerHistory(ctx context.Context, clerkID string, limit int) ([]*timertypes.TimerSession, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	if limit <= 0 || limit > 100 {
		limit = 20
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, target_id, timer_type, preset, duration_seconds, started_at, completed_at
		FROM timer_sessions
		WHERE user_id = $1
		ORDER BY started_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch timer sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*timertypes.TimerSession
	for rows.Next() {
		ts := &timertypes.TimerSession{}
		if err := rows.Scan(&ts.ID, &ts.UserID, &ts.TargetID, &ts.TimerType, &ts.Preset, &ts.DurationSeconds, &ts.StartedAt, &ts.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan timer session: %w", err)
		}
		sessions = append(sessions, ts)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating timer sessions: %w", err)
	}

	if sessions == nil {
		sessions = []*timertypes.TimerSession{}
	}
	return sessions, nil
}
