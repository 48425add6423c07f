// Copyright 2026 The monado-sub011 Authors. All rights reserved.

package session

import "sync"

// State is the compositor's advertised state, in ascending order.
type State int

const (
	StateIdle State = iota
	StateReady
	StatePrepared
	StateVisible
	StateFocused
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateReady:
		return "READY"
	case StatePrepared:
		return "PREPARED"
	case StateVisible:
		return "VISIBLE"
	case StateFocused:
		return "FOCUSED"
	}
	return "STATE_UNKNOWN"
}

// Event is one compositor state change.
type Event struct {
	State State
}

// eventMachine walks the advertised state toward its goal one step
// per poll, never skipping intermediate states. A healthy target
// climbs toward FOCUSED; a failed one falls back to READY.
type eventMachine struct {
	mu      sync.Mutex
	current State
	goal    State
}

// targetOK records the target's health and adjusts the goal.
// Failure never drops below READY; clients keep their swapchains
// and frames are dropped until recreation succeeds.
func (m *eventMachine) targetOK(ok bool) {
	m.mu.Lock()
	if ok {
		m.goal = StateFocused
	} else if m.goal > StateReady {
		m.goal = StateReady
	}
	m.mu.Unlock()
}

// poll emits at most one state change.
func (m *eventMachine) poll() (Event, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch {
	case m.current < m.goal:
		m.current++
	case m.current > m.goal:
		m.current--
	default:
		return Event{}, false
	}
	return Event{State: m.current}, true
}

// state returns the currently advertised state.
func (m *eventMachine) state() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}
