package core

import "sync"

// System internal event codes.
type SystemEventCode int

const (
	// Shuts the application down on the next frame.
	EVENT_CODE_APPLICATION_QUIT SystemEventCode = 0x01

	// Resized/resolution changed from the OS.
	/* Context usage:
	 * width  = data.WindowWidth
	 * height = data.WindowHeight
	 */
	EVENT_CODE_RESIZED SystemEventCode = 0x02

	MAX_EVENT_CODE SystemEventCode = 0xFF
)

type EventContext struct {
	Type         SystemEventCode
	WindowWidth  uint32
	WindowHeight uint32
}

// Should return true if handled.
type FnOnEvent func(sender interface{}, data EventContext) bool

type registeredEvent struct {
	listener interface{}
	callback FnOnEvent
}

type eventCodeEntry struct {
	events []*registeredEvent
}

// State structure.
type eventSystemState struct {
	// Lookup table for event codes.
	registered [MAX_EVENT_CODE + 1]eventCodeEntry
}

var onceEvent sync.Once
var isInitialized bool = false
var eventState *eventSystemState = nil

func EventSystemInitialize() bool {
	if isInitialized {
		return false
	}
	onceEvent.Do(func() {
		eventState = &eventSystemState{}
	})
	isInitialized = true
	return true
}

func EventSystemShutdown() error {
	// Free the events arrays. Any objects pointed to should be destroyed on their own.
	for i := 0; i <= int(MAX_EVENT_CODE); i++ {
		if len(eventState.registered[i].events) != 0 {
			eventState.registered[i].events = nil
		}
	}
	isInitialized = false
	return nil
}

// EventRegister registers to listen for events sent with the provided code.
// Duplicate listener registrations for the same code are rejected.
func EventRegister(code SystemEventCode, listener interface{}, onEvent FnOnEvent) bool {
	if !isInitialized {
		return false
	}
	for _, e := range eventState.registered[code].events {
		if e.listener == listener {
			return false
		}
	}
	event := &registeredEvent{
		listener: listener,
		callback: onEvent,
	}
	eventState.registered[code].events = append(eventState.registered[code].events, event)
	return true
}

// EventUnregister stops listening for events sent with the provided code.
// Returns false if no matching registration is found.
func EventUnregister(code SystemEventCode, listener interface{}) bool {
	if !isInitialized {
		return false
	}
	events := eventState.registered[code].events
	for i, e := range events {
		if e.listener == listener {
			eventState.registered[code].events = append(events[:i], events[i+1:]...)
			return true
		}
	}
	return false
}

// EventFire fires an event to listeners of the given code. If a handler
// returns true, the event is considered handled and is not passed on to any
// more listeners.
func EventFire(sender interface{}, data EventContext) bool {
	if !isInitialized {
		return false
	}
	for _, e := range eventState.registered[data.Type].events {
		if e.callback(sender, data) {
			// Message has been handled, do not send to other listeners.
			return true
		}
	}
	return false
}
