// Package timer implements the Pomodoro study timer.
package timer

import "sync"

// Event is what a tick produced
type Event int

const (
	EventNone Event = iota
	EventTick
	EventPomodoroCompleted
	EventRestCompleted
)

// State is a snapshot of the timer
type State struct {
	Minutes    int  `json:"minutes"`
	Seconds    int  `json:"seconds"`
	IsRunning  bool `json:"isRunning"`
	IsPomodoro bool `json:"isPomodoro"`
}

// Timer counts down a pomodoro phase, then a rest phase, and repeats.
// It does not own a clock: the caller drives it with Tick once per second.
type Timer struct {
	mu              sync.Mutex
	pomodoroMinutes int
	restMinutes     int
	remaining       int // seconds
	running         bool
	pomodoro        bool
}

// New creates a stopped timer at the start of a pomodoro phase
func New(pomodoroMinutes, restMinutes int) *Timer {
	if pomodoroMinutes <= 0 {
		pomodoroMinutes = 25
	}
	if restMinutes <= 0 {
		restMinutes = 5
	}

	return &Timer{
		pomodoroMinutes: pomodoroMinutes,
		restMinutes:     restMinutes,
		remaining:       pomodoroMinutes * 60,
		pomodoro:        true,
	}
}

// Start resumes the countdown
func (t *Timer) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.running = true
}

// Pause stops the countdown without changing the remaining time
func (t *Timer) Pause() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.running = false
}

// Reset stops the timer and starts a new pomodoro phase.
// minutes > 0 also changes the pomodoro length.
func (t *Timer) Reset(minutes int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if minutes > 0 {
		t.pomodoroMinutes = minutes
	}
	t.running = false
	t.pomodoro = true
	t.remaining = t.pomodoroMinutes * 60
}

// Tick advances a running timer by one second
func (t *Timer) Tick() Event {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.running {
		return EventNone
	}

	if t.remaining > 0 {
		t.remaining--
	}
	if t.remaining > 0 {
		return EventTick
	}

	if t.pomodoro {
		t.pomodoro = false
		t.remaining = t.restMinutes * 60
		return EventPomodoroCompleted
	}

	t.pomodoro = true
	t.remaining = t.pomodoroMinutes * 60
	return EventRestCompleted
}

// State returns a snapshot of the timer
func (t *Timer) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()

	return State{
		Minutes:    t.remaining / 60,
		Seconds:    t.remaining % 60,
		IsRunning:  t.running,
		IsPomodoro: t.pomodoro,
	}
}
