package timer

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	timertypes "focalAPI/internal/types/timer"
)

func newTestStore(breakConfig BreakConfigFunc, onFinish FinishFunc) *Store {
	s := NewStore(breakConfig, nil, onFinish)
	// The internal one-second loop is irrelevant here; tests drive Tick
	// directly.
	return s
}

func TestStartAndGet(t *testing.T) {
	s := newTestStore(nil, nil)
	defer s.Close()

	st, err := s.Start("user_1", timertypes.TypeFocus, nil, nil, nil, 1500)
	require.NoError(t, err)
	assert.Equal(t, 1500, st.TotalDuration)
	assert.Equal(t, 1500, st.CurrentTime)
	assert.True(t, st.IsRunning)

	got, exists := s.Get("user_1")
	require.True(t, exists)
	assert.Equal(t, st, got)

	_, exists = s.Get("user_2")
	assert.False(t, exists)
}

func TestStart_RejectsNonPositiveDuration(t *testing.T) {
	s := newTestStore(nil, nil)
	defer s.Close()

	_, err := s.Start("user_1", timertypes.TypeFocus, nil, nil, nil, 0)
	assert.Error(t, err)
}

func TestTick_Decrements(t *testing.T) {
	s := newTestStore(nil, nil)
	defer s.Close()

	_, err := s.Start("user_1", timertypes.TypeFocus, nil, nil, nil, 3)
	require.NoError(t, err)

	s.Tick()
	st, _ := s.Get("user_1")
	assert.Equal(t, 2, st.CurrentTime)
}

func TestTick_PausedTimerDoesNotMove(t *testing.T) {
	s := newTestStore(nil, nil)
	defer s.Close()

	_, err := s.Start("user_1", timertypes.TypeFocus, nil, nil, nil, 3)
	require.NoError(t, err)

	_, err = s.Pause("user_1")
	require.NoError(t, err)

	s.Tick()
	s.Tick()

	st, _ := s.Get("user_1")
	assert.Equal(t, 3, st.CurrentTime)

	_, err = s.Resume("user_1")
	require.NoError(t, err)

	s.Tick()
	st, _ = s.Get("user_1")
	assert.Equal(t, 2, st.CurrentTime)
}

func TestTick_FinishRemovesAndNotifies(t *testing.T) {
	var mu sync.Mutex
	var finished []State

	s := newTestStore(nil, func(st State) {
		mu.Lock()
		finished = append(finished, st)
		mu.Unlock()
	})
	defer s.Close()

	_, err := s.Start("user_1", timertypes.TypeCheckpoint, nil, nil, nil, 2)
	require.NoError(t, err)

	s.Tick()
	s.Tick()

	_, exists := s.Get("user_1")
	assert.False(t, exists)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, finished, 1)
	assert.Equal(t, 0, finished[0].CurrentTime)
	assert.False(t, finished[0].IsRunning)
	assert.Equal(t, timertypes.TypeCheckpoint, finished[0].TimerType)
}

func TestStop_DoesNotNotifyFinish(t *testing.T) {
	var mu sync.Mutex
	count := 0

	s := newTestStore(nil, func(State) {
		mu.Lock()
		count++
		mu.Unlock()
	})
	defer s.Close()

	_, err := s.Start("user_1", timertypes.TypeFocus, nil, nil, nil, 10)
	require.NoError(t, err)

	st, err := s.Stop("user_1")
	require.NoError(t, err)
	assert.False(t, st.IsRunning)

	_, exists := s.Get("user_1")
	assert.False(t, exists)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 0, count)
}

func TestPause_NoTimer(t *testing.T) {
	s := newTestStore(nil, nil)
	defer s.Close()

	_, err := s.Pause("user_1")
	assert.Error(t, err)
	_, err = s.Resume("user_1")
	assert.Error(t, err)
	_, err = s.Stop("user_1")
	assert.Error(t, err)
}

func TestAutoBreak_AfterFocusFinish(t *testing.T) {
	breakConfig := func(key string) (int, bool) { return 300, true }

	s := newTestStore(breakConfig, nil)
	defer s.Close()

	_, err := s.Start("user_1", timertypes.TypeFocus, nil, nil, nil, 1)
	require.NoError(t, err)

	s.Tick()

	_, exists := s.Get("user_1")
	assert.False(t, exists)

	// The break starts after the fixed delay.
	require.Eventually(t, func() bool {
		st, exists := s.Get("user_1")
		return exists && st.TimerType == timertypes.TypeBreak
	}, 5*time.Second, 50*time.Millisecond)

	st, _ := s.Get("user_1")
	assert.Equal(t, 300, st.TotalDuration)
}

func TestAutoBreak_DisabledByConfig(t *testing.T) {
	breakConfig := func(key string) (int, bool) { return 300, false }

	s := newTestStore(breakConfig, nil)
	defer s.Close()

	_, err := s.Start("user_1", timertypes.TypeFocus, nil, nil, nil, 1)
	require.NoError(t, err)

	s.Tick()

	time.Sleep(autoBreakDelay + 500*time.Millisecond)
	_, exists := s.Get("user_1")
	assert.False(t, exists)
}

func TestAutoBreak_NotForBreakTimers(t *testing.T) {
	breakConfig := func(key string) (int, bool) { return 300, true }

	s := newTestStore(breakConfig, nil)
	defer s.Close()

	_, err := s.Start("user_1", timertypes.TypeBreak, nil, nil, nil, 1)
	require.NoError(t, err)

	s.Tick()

	time.Sleep(autoBreakDelay + 500*time.Millisecond)
	_, exists := s.Get("user_1")
	assert.False(t, exists)
}

func TestStartBreakNow(t *testing.T) {
	s := newTestStore(nil, nil)
	defer s.Close()

	st, err := s.StartBreakNow("user_1", 300)
	require.NoError(t, err)
	assert.Equal(t, timertypes.TypeBreak, st.TimerType)
	assert.Equal(t, 300, st.TotalDuration)
}

func TestStart_ReplacesExistingTimer(t *testing.T) {
	s := newTestStore(nil, nil)
	defer s.Close()

	_, err := s.Start("user_1", timertypes.TypeFocus, nil, nil, nil, 1500)
	require.NoError(t, err)

	st, err := s.Start("user_1", timertypes.TypeFocus, nil, nil, nil, 3000)
	require.NoError(t, err)
	assert.Equal(t, 3000, st.TotalDuration)

	got, _ := s.Get("user_1")
	assert.Equal(t, 3000, got.TotalDuration)
}
