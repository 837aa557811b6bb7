// Package pomodoro is a countdown timer that records a session each time it
// runs down to zero.
package pomodoro

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

const (
	MinMinutes     = 5
	MaxMinutes     = 120
	DefaultMinutes = 30
)

// Presets are offered next to the custom duration.
var Presets = []int{25, 30, 45, 60}

var (
	ErrRunning    = errors.New("duration cannot change while the timer is running")
	ErrOutOfRange = fmt.Errorf("choose between %d and %d minutes", MinMinutes, MaxMinutes)
)

type Timer struct {
	mu         sync.Mutex
	minutes    int
	remaining  time.Duration
	running    bool
	onComplete func()
}

// New returns a stopped timer. onComplete may be nil and is called without the
// timer's lock held.
func New(minutes int, onComplete func()) (*Timer, error) {
	if err := ValidateMinutes(minutes); err != nil {
		return nil, err
	}
	return &Timer{
		minutes:    minutes,
		remaining:  time.Duration(minutes) * time.Minute,
		onComplete: onComplete,
	}, nil
}

func ValidateMinutes(minutes int) error {
	if minutes < MinMinutes || minutes > MaxMinutes {
		return ErrOutOfRange
	}
	return nil
}

// SetMinutes changes the duration and resets the countdown.
func (t *Timer) SetMinutes(minutes int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		return ErrRunning
	}
	if err := ValidateMinutes(minutes); err != nil {
		return err
	}
	t.minutes = minutes
	t.remaining = time.Duration(minutes) * time.Minute
	return nil
}

func (t *Timer) Minutes() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.minutes
}

// Toggle starts a stopped timer or pauses a running one and reports the new
// running state.
func (t *Timer) Toggle() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.running = !t.running
	return t.running
}

func (t *Timer) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.running = false
	t.remaining = time.Duration(t.minutes) * time.Minute
}

func (t *Timer) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

func (t *Timer) Remaining() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.remaining
}

// Tick advances a running timer by step. When the countdown reaches zero the
// timer stops, resets to its full duration and the completion callback fires.
func (t *Timer) Tick(step time.Duration) bool {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return false
	}
	if t.remaining > step {
		t.remaining -= step
		t.mu.Unlock()
		return false
	}
	t.running = false
	t.remaining = time.Duration(t.minutes) * time.Minute
	done := t.onComplete
	t.mu.Unlock()

	if done != nil {
		done()
	}
	return true
}

// Run ticks once per interval until ctx is cancelled. onTick, when set, is
// called after every tick so a UI can redraw.
func (t *Timer) Run(ctx context.Context, interval time.Duration, onTick func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !t.Running() {
				continue
			}
			t.Tick(interval)
			if onTick != nil {
				onTick()
			}
		}
	}
}

// Format renders d as MM:SS, rounding partial seconds up.
func Format(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	seconds := int((d + time.Second - 1) / time.Second)
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
