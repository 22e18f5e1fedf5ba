// Package timer implements the in-memory countdown store. The store is
// an explicitly constructed instance with its own lifecycle (built in
// main, Close on shutdown) rather than package-level state, so tests and
// multiple instances behave predictably. Database timer-session rows are
// written best-effort by the timer service; a countdown keeps running
// even when that write fails.
package timer

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	timertypes "focalAPI/internal/types/timer"
)

// autoBreakDelay is the fixed pause between a finished focus timer and
// the break timer it auto-starts.
const autoBreakDelay = 3 * time.Second

// State is a snapshot of one countdown.
type State struct {
	Key           string               `json:"key"`
	TargetID      *uuid.UUID           `json:"target_id,omitempty"`
	SessionID     *uuid.UUID           `json:"session_id,omitempty"`
	TimerType     timertypes.TimerType `json:"timer_type"`
	Preset        *string              `json:"preset,omitempty"`
	TotalDuration int                  `json:"total_duration"`
	CurrentTime   int                  `json:"current_time"`
	IsRunning     bool                 `json:"is_running"`
	IsPaused      bool                 `json:"is_paused"`
}

// BreakConfigFunc reports the break duration and whether breaks should
// auto-start for the owner of a key. Consulted when a focus timer hits
// zero.
type BreakConfigFunc func(key string) (seconds int, autoStart bool)

// FinishFunc is invoked (outside the store lock) whenever a countdown
// reaches zero.
type FinishFunc func(st State)

type Store struct {
	mu     sync.Mutex
	timers map[string]*State

	breakConfig BreakConfigFunc
	onFinish    FinishFunc
	onStart     func(st State)

	ticker   *time.Ticker
	stopChan chan struct{}
	wg       sync.WaitGroup
	pending  map[string]*time.Timer // scheduled auto-breaks
	closed   bool
}

func NewStore(breakConfig BreakConfigFunc, onStart func(st State), onFinish FinishFunc) *Store {
	s := &Store{
		timers:      make(map[string]*State),
		breakConfig: breakConfig,
		onStart:     onStart,
		onFinish:    onFinish,
		stopChan:    make(chan struct{}),
		pending:     make(map[string]*time.Timer),
	}

	s.ticker = time.NewTicker(time.Second)
	s.wg.Add(1)
	go s.run()

	return s
}

func (s *Store) run() {
	defer s.wg.Done()
	for {
		select {
		case <-s.ticker.C:
			s.Tick()
		case <-s.stopChan:
			return
		}
	}
}

// Close stops the tick loop and cancels any scheduled auto-breaks.
func (s *Store) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	for key, t := range s.pending {
		t.Stop()
		delete(s.pending, key)
	}
	s.mu.Unlock()

	s.ticker.Stop()
	close(s.stopChan)
	s.wg.Wait()
}

// Start begins a countdown under key, replacing any existing timer for
// that key. A pending auto-break for the key is cancelled.
func (s *Store) Start(key string, timerType timertypes.TimerType, preset *string, targetID, sessionID *uuid.UUID, durationSeconds int) (State, error) {
	if durationSeconds <= 0 {
		return State{}, fmt.Errorf("timer duration must be positive, got %d", durationSeconds)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if t, exists := s.pending[key]; exists {
		t.Stop()
		delete(s.pending, key)
	}

	st := &State{
		Key:           key,
		TargetID:      targetID,
		SessionID:     sessionID,
		TimerType:     timerType,
		Preset:        preset,
		TotalDuration: durationSeconds,
		CurrentTime:   durationSeconds,
		IsRunning:     true,
	}
	s.timers[key] = st
	return *st, nil
}

func (s *Store) Pause(key string) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, exists := s.timers[key]
	if !exists || !st.IsRunning {
		return State{}, fmt.Errorf("no running timer for %s", key)
	}
	st.IsPaused = true
	return *st, nil
}

func (s *Store) Resume(key string) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, exists := s.timers[key]
	if !exists || !st.IsRunning {
		return State{}, fmt.Errorf("no running timer for %s", key)
	}
	st.IsPaused = false
	return *st, nil
}

// Stop halts and removes the countdown without treating it as finished.
func (s *Store) Stop(key string) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, exists := s.timers[key]
	if !exists {
		return State{}, fmt.Errorf("no timer for %s", key)
	}
	st.IsRunning = false
	delete(s.timers, key)
	return *st, nil
}

func (s *Store) Get(key string) (State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, exists := s.timers[key]
	if !exists {
		return State{}, false
	}
	return *st, true
}

// Tick advances every running, unpaused countdown by one second. It is
// called once per second by the internal loop and directly by tests.
func (s *Store) Tick() {
	s.mu.Lock()
	var finished []State
	for key, st := range s.timers {
		if !st.IsRunning || st.IsPaused {
			continue
		}
		st.CurrentTime--
		if st.CurrentTime <= 0 {
			st.CurrentTime = 0
			st.IsRunning = false
			finished = append(finished, *st)
			delete(s.timers, key)
		}
	}
	for _, st := range finished {
		if st.TimerType == timertypes.TypeFocus && s.breakConfig != nil {
			if seconds, autoStart := s.breakConfig(st.Key); autoStart && seconds > 0 && !s.closed {
				s.scheduleBreakLocked(st.Key, seconds)
			}
		}
	}
	s.mu.Unlock()

	if s.onFinish != nil {
		for _, st := range finished {
			s.onFinish(st)
		}
	}
}

func (s *Store) scheduleBreakLocked(key string, seconds int) {
	if t, exists := s.pending[key]; exists {
		t.Stop()
	}
	s.pending[key] = time.AfterFunc(autoBreakDelay, func() {
		s.mu.Lock()
		delete(s.pending, key)
		closed := s.closed
		s.mu.Unlock()
		if closed {
			return
		}
		st, err := s.Start(key, timertypes.TypeBreak, nil, nil, nil, seconds)
		if err != nil {
			return
		}
		if s.onStart != nil {
			s.onStart(st)
		}
	})
}

// StartBreakNow skips the auto-break delay; used by tests and by an
// explicit "start break" action.
func (s *Store) StartBreakNow(key string, seconds int) (State, error) {
	return s.Start(key, timertypes.TypeBreak, nil, nil, nil, seconds)
}
