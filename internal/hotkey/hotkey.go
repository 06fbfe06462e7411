// Package hotkey provides a global push-to-talk key combo using gohook.
// It supports "hold" mode (press to start, release to stop) and
// "toggle" mode (press to start, press again to stop).
package hotkey

import (
	"context"
	"fmt"
	"sync"

	hook "github.com/robotn/gohook"
)

// EventType indicates whether recording should start or stop.
type EventType int

const (
	// EventStart signals that the hotkey was activated (start recording).
	EventStart EventType = iota
	// EventStop signals that the hotkey was deactivated (stop recording).
	EventStop
)

func (t EventType) String() string {
	switch t {
	case EventStart:
		return "start"
	case EventStop:
		return "stop"
	default:
		return fmt.Sprintf("EventType(%d)", int(t))
	}
}

// Event is emitted on the channel returned by Events.
type Event struct {
	Type EventType
}

// Modes.
const (
	ModeHold   = "hold"
	ModeToggle = "toggle"
)

// Listener manages a global hotkey and emits start/stop events.
type Listener struct {
	keys []string
	mode string
	ch   chan Event

	mu     sync.Mutex
	active bool // toggle mode: currently between start and stop
}

// NewListener creates a Listener for the given key combo and mode.
// keys should be lowercase key names (e.g., ["ctrl", "shift", "r"]).
func NewListener(keys []string, mode string) *Listener {
	return &Listener{
		keys: keys,
		mode: mode,
		ch:   make(chan Event, 16),
	}
}

// Events returns the channel that receives hotkey events.
// The channel is closed when Run returns.
func (l *Listener) Events() <-chan Event {
	return l.ch
}

// Run listens for the hotkey until ctx is cancelled. It blocks; run it in a
// goroutine.
func (l *Listener) Run(ctx context.Context) {
	defer close(l.ch)

	switch l.mode {
	case ModeToggle:
		hook.Register(hook.KeyDown, l.keys, func(hook.Event) { l.emit(l.toggle()) })
	default:
		hook.Register(hook.KeyDown, l.keys, func(hook.Event) { l.emit(EventStart) })
		hook.Register(hook.KeyUp, l.keys, func(hook.Event) { l.emit(EventStop) })
	}

	evChan := hook.Start()
	go func() {
		<-ctx.Done()
		hook.End()
	}()
	<-hook.Process(evChan)
}

// toggle flips the toggle-mode state and returns the event to emit.
func (l *Listener) toggle() EventType {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.active = !l.active
	if l.active {
		return EventStart
	}
	return EventStop
}

// emit never blocks the hook thread; events are dropped if nobody reads.
func (l *Listener) emit(t EventType) {
	select {
	case l.ch <- Event{Type: t}:
	default:
	}
}
