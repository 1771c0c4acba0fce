package util

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

type TimerState struct {
	name         string
	lastDuration time.Duration

	totalDuration  time.Duration
	executionCount int64

	minDuration time.Duration
	maxDuration time.Duration
}

func (t *TimerState) Count() int64 {
	return t.executionCount
}

func (t *TimerState) Last() time.Duration {
	return t.lastDuration
}

func (t *TimerState) Average() time.Duration {
	if t.executionCount == 0 {
		return 0
	}
	return t.totalDuration / time.Duration(t.executionCount)
}

func (t *TimerState) String() string {
	return fmt.Sprintf("%s last: %.2fms, avg: %.2fms, min: %.2fms, max: %.2fms (%d runs)",
		t.name, ms(t.lastDuration), ms(t.Average()), ms(t.minDuration), ms(t.maxDuration), t.executionCount)
}

func ms(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000.0
}

// Timer keeps named phase timings in the order they were first started.
type Timer struct {
	mutex      sync.Mutex
	states     map[string]*TimerState
	timerNames []string
}

func NewTimer() *Timer {
	return &Timer{
		states: make(map[string]*TimerState),
	}
}

// GetState returns a copy of the named state, nil if it never ran.
func (t *Timer) GetState(name string) *TimerState {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	state, ok := t.states[name]
	if !ok {
		return nil
	}
	copied := *state
	return &copied
}

func (t *Timer) String() string {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	var str strings.Builder
	for _, name := range t.timerNames {
		str.WriteString(t.states[name].String())
		str.WriteByte('\n')
	}
	return str.String()
}

// Start begins one measurement, the returned func stops it and returns the elapsed time.
func (t *Timer) Start(name string) func() time.Duration {
	start := time.Now()
	return func() time.Duration {
		elapsed := time.Since(start)
		t.mutex.Lock()
		defer t.mutex.Unlock()
		state, ok := t.states[name]
		if !ok {
			t.timerNames = append(t.timerNames, name)
			state = &TimerState{name: name, minDuration: elapsed, maxDuration: elapsed}
			t.states[name] = state
		}
		state.lastDuration = elapsed
		state.totalDuration += elapsed
		state.executionCount++
		state.minDuration = min(state.minDuration, elapsed)
		state.maxDuration = max(state.maxDuration, elapsed)
		return elapsed
	}
}
