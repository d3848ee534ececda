package core

import "testing"

type countingListener struct {
	calls  int
	handle bool
}

func (c *countingListener) onEvent(sender interface{}, data EventContext) bool {
	c.calls++
	return c.handle
}

func setupEventSystem(t *testing.T) {
	t.Helper()
	EventSystemInitialize()
	t.Cleanup(func() {
		EventSystemShutdown()
	})
}

func TestEventRegisterAndFire(t *testing.T) {
	setupEventSystem(t)

	listener := &countingListener{}
	if !EventRegister(EVENT_CODE_RESIZED, listener, listener.onEvent) {
		t.Fatal("registration failed")
	}

	EventFire(nil, EventContext{Type: EVENT_CODE_RESIZED, WindowWidth: 640, WindowHeight: 480})
	if listener.calls != 1 {
		t.Errorf("listener called %d times, want 1", listener.calls)
	}

	// Other codes do not reach this listener.
	EventFire(nil, EventContext{Type: EVENT_CODE_APPLICATION_QUIT})
	if listener.calls != 1 {
		t.Errorf("listener called %d times after unrelated event, want 1", listener.calls)
	}
}

func TestEventDuplicateRegistrationRejected(t *testing.T) {
	setupEventSystem(t)

	listener := &countingListener{}
	if !EventRegister(EVENT_CODE_RESIZED, listener, listener.onEvent) {
		t.Fatal("registration failed")
	}
	if EventRegister(EVENT_CODE_RESIZED, listener, listener.onEvent) {
		t.Error("duplicate registration must be rejected")
	}
}

func TestEventHandledStopsPropagation(t *testing.T) {
	setupEventSystem(t)

	first := &countingListener{handle: true}
	second := &countingListener{}
	EventRegister(EVENT_CODE_APPLICATION_QUIT, first, first.onEvent)
	EventRegister(EVENT_CODE_APPLICATION_QUIT, second, second.onEvent)

	if !EventFire(nil, EventContext{Type: EVENT_CODE_APPLICATION_QUIT}) {
		t.Error("handled event must report true")
	}
	if first.calls != 1 {
		t.Errorf("first listener called %d times, want 1", first.calls)
	}
	if second.calls != 0 {
		t.Errorf("second listener called %d times, want 0 after the event was handled", second.calls)
	}
}

func TestEventUnregister(t *testing.T) {
	setupEventSystem(t)

	listener := &countingListener{}
	EventRegister(EVENT_CODE_RESIZED, listener, listener.onEvent)
	if !EventUnregister(EVENT_CODE_RESIZED, listener) {
		t.Fatal("unregister failed")
	}

	EventFire(nil, EventContext{Type: EVENT_CODE_RESIZED})
	if listener.calls != 0 {
		t.Errorf("listener called %d times after unregister, want 0", listener.calls)
	}

	if EventUnregister(EVENT_CODE_RESIZED, listener) {
		t.Error("unregistering twice must fail")
	}
}
