// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package generation

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"storybook/internal/models"
)

// State is a step of the local generation lifecycle.
type State string

const (
	StateIdle       State = "idle"
	StateProcessing State = "processing"
	StateGenerating State = "generating"
	StateComplete   State = "complete"
	StateError      State = "error"
)

// ErrInvalidTransition is returned for moves the lifecycle does not allow.
var ErrInvalidTransition = errors.New("invalid generation state transition")

// Snapshot is a read-only copy of a session.
type Snapshot struct {
	State        State                `json:"state"`
	Progress     int                  `json:"progress"`
	Error        string               `json:"error,omitempty"`
	GenerationID string               `json:"generation_id,omitempty"`
	ChildName    string               `json:"child_name,omitempty"`
	Theme        models.ThemeSnapshot `json:"theme"`
	StartedAt    *time.Time           `json:"started_at,omitempty"`
	Item         *models.HistoryItem  `json:"item,omitempty"`
}

// Session holds the one local generation a client may run at a time.
//
//	idle -> processing -> generating -> complete
//	processing | generating -> error
//	any -> idle (Reset)
//	idle | complete | error -> processing (Restart)
//
// Progress never decreases between Begin and Reset.
type Session struct {
	mu       sync.Mutex
	snap     Snapshot
	now      func() time.Time
	finished time.Time
}

// NewSession returns an idle session.
func NewSession() *Session {
	return &Session{snap: Snapshot{State: StateIdle}, now: time.Now}
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.snap
	if s.snap.Item != nil {
		item := *s.snap.Item
		out.Item = &item
	}
	return out
}

// Busy reports whether a generation is in flight.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.State == StateProcessing || s.snap.State == StateGenerating
}

// Begin starts a generation from idle with progress 0.
func (s *Session) Begin(id, childName string, theme models.ThemeSnapshot, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap.State != StateIdle {
		return s.invalid(StateProcessing)
	}
	s.start(id, childName, theme, now)
	return nil
}

// Restart starts a generation from idle, complete or error, discarding
// any finished result. It returns models.ErrBusy while one is in flight.
func (s *Session) Restart(id, childName string, theme models.ThemeSnapshot, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.snap.State {
	case StateIdle, StateComplete, StateError:
	default:
		return fmt.Errorf("%w: %s", models.ErrBusy, s.snap.State)
	}
	s.start(id, childName, theme, now)
	return nil
}

// Expired reports whether the session finished before cutoff. Idle and
// running sessions never expire.
func (s *Session) Expired(cutoff time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap.State != StateComplete && s.snap.State != StateError {
		return false
	}
	return s.finished.Before(cutoff)
}

func (s *Session) start(id, childName string, theme models.ThemeSnapshot, now time.Time) {
	started := now
	s.finished = time.Time{}
	s.snap = Snapshot{
		State:        StateProcessing,
		GenerationID: id,
		ChildName:    childName,
		Theme:        theme,
		StartedAt:    &started,
	}
}

// Advance records a progress milestone while processing or generating.
func (s *Session) Advance(progress int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap.State != StateProcessing && s.snap.State != StateGenerating {
		return fmt.Errorf("%w: advance while %s", ErrInvalidTransition, s.snap.State)
	}
	return s.setProgress(progress)
}

// EnterGenerating moves from processing to generating at progress.
func (s *Session) EnterGenerating(progress int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap.State != StateProcessing {
		return s.invalid(StateGenerating)
	}
	if err := s.setProgress(progress); err != nil {
		return err
	}
	s.snap.State = StateGenerating
	return nil
}

// Complete finishes a generation, forcing progress to 100.
func (s *Session) Complete(item models.HistoryItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap.State != StateGenerating {
		return s.invalid(StateComplete)
	}
	s.snap.State = StateComplete
	s.snap.Progress = 100
	s.snap.Item = &item
	s.finished = s.now()
	return nil
}

// Fail records err and freezes progress where it stopped.
func (s *Session) Fail(err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap.State != StateProcessing && s.snap.State != StateGenerating {
		return s.invalid(StateError)
	}
	s.snap.State = StateError
	s.snap.Error = err.Error()
	s.finished = s.now()
	return nil
}

// Reset discards everything and returns to idle.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = Snapshot{State: StateIdle}
	s.finished = time.Time{}
}

func (s *Session) setProgress(p int) error {
	if p < s.snap.Progress || p > 100 {
		return fmt.Errorf("%w: progress %d after %d", ErrInvalidTransition, p, s.snap.Progress)
	}
	s.snap.Progress = p
	return nil
}

func (s *Session) invalid(to State) error {
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.snap.State, to)
}
