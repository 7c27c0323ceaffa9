// Package state tracks the application session lifecycle and fans out
// change notifications to registered listeners.
package state

import (
	"sync"

	"murmur/log"
)

// State is the session lifecycle position.
type State int

const (
	Initializing State = iota
	Ready
	Processing
	Error
	ShuttingDown
)

func (s State) String() string {
	switch s {
	case Initializing:
		return "INITIALIZING"
	case Ready:
		return "READY"
	case Processing:
		return "PROCESSING"
	case Error:
		return "ERROR"
	case ShuttingDown:
		return "SHUTTING_DOWN"
	default:
		return "UNKNOWN"
	}
}

// CanTransitionTo reports whether moving to next is legal. Self-transitions
// are always rejected; ShuttingDown is terminal.
func (s State) CanTransitionTo(next State) bool {
	if next == s {
		return false
	}
	switch s {
	case Initializing:
		return next == Ready || next == Error
	case Ready:
		return next == Processing || next == ShuttingDown
	case Processing:
		return next == Ready || next == Error
	case Error:
		return next == ShuttingDown
	default:
		return false
	}
}

// Listener observes accepted transitions.
type Listener func(previous, next State)

// Manager holds the single current state and validates every transition
// against the fixed table.
type Manager struct {
	mu        sync.Mutex
	current   State
	listeners map[int]Listener
	nextID    int
}

func NewManager() *Manager {
	return &Manager{
		current:   Initializing,
		listeners: make(map[int]Listener),
	}
}

func (m *Manager) Current() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// TransitionTo attempts a transition. An illegal request is rejected with a
// logged warning, not an error; callers must check the return value. On an
// accepted transition every listener is invoked synchronously; a panicking
// listener is recovered and logged and cannot abort the transition or
// starve the others.
func (m *Manager) TransitionTo(next State) bool {
	m.mu.Lock()
	previous := m.current
	if !previous.CanTransitionTo(next) {
		m.mu.Unlock()
		log.Warnf("invalid state transition: %s -> %s", previous, next)
		return false
	}
	m.current = next
	listeners := make([]Listener, 0, len(m.listeners))
	for _, l := range m.listeners {
		listeners = append(listeners, l)
	}
	m.mu.Unlock()

	log.StateChange(previous.String(), next.String())
	for _, l := range listeners {
		notify(l, previous, next)
	}
	return true
}

func notify(l Listener, previous, next State) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("state listener panic on %s -> %s: %v", previous, next, r)
		}
	}()
	l(previous, next)
}

// AddListener registers a listener and returns an id for removal.
func (m *Manager) AddListener(l Listener) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	m.listeners[m.nextID] = l
	return m.nextID
}

func (m *Manager) RemoveListener(id int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.listeners, id)
}

func (m *Manager) IsReady() bool        { return m.Current() == Ready }
func (m *Manager) IsProcessing() bool   { return m.Current() == Processing }
func (m *Manager) HasError() bool       { return m.Current() == Error }
func (m *Manager) IsShuttingDown() bool { return m.Current() == ShuttingDown }
