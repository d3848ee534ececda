package renderer

import (
	"fmt"
	"testing"
)

type mockMarker struct {
	done     bool
	released int
}

func (m *mockMarker) Done() bool { return m.done }
func (m *mockMarker) Release()   { m.released++ }

type mockBackend struct {
	width, height uint32

	recreateErr error
	acquireErr  error
	submitErr   error
	presentErr  error

	recreates     int
	acquires      int
	submits       int
	presents      int
	lastRecreateW uint32
	lastRecreateH uint32

	lastVertices [3]Vertex
	lastMarker   *mockMarker
}

func (b *mockBackend) Dimensions() (uint32, uint32) { return b.width, b.height }

func (b *mockBackend) RecreateChain(width, height uint32) error {
	b.recreates++
	b.lastRecreateW = width
	b.lastRecreateH = height
	return b.recreateErr
}

func (b *mockBackend) Acquire() (uint32, error) {
	b.acquires++
	return 0, b.acquireErr
}

func (b *mockBackend) Submit(imageIndex uint32, vertices [3]Vertex) error {
	b.submits++
	b.lastVertices = vertices
	return b.submitErr
}

func (b *mockBackend) Present(imageIndex uint32) (Marker, error) {
	b.presents++
	if b.presentErr != nil {
		return nil, b.presentErr
	}
	b.lastMarker = &mockMarker{}
	return b.lastMarker, nil
}

func (b *mockBackend) CompletedMarker() Marker { return &mockMarker{done: true} }

func newTestLoop(b *mockBackend) *Loop {
	return NewLoop(b, func() float64 { return 2.5 })
}

func TestTickDrawsOneFrame(t *testing.T) {
	backend := &mockBackend{width: 800, height: 600}
	loop := newTestLoop(backend)

	if err := loop.Tick(); err != nil {
		t.Fatalf("tick failed: %v", err)
	}
	if backend.acquires != 1 || backend.submits != 1 || backend.presents != 1 {
		t.Errorf("acquire/submit/present = %d/%d/%d, want 1/1/1", backend.acquires, backend.submits, backend.presents)
	}
	if backend.recreates != 0 {
		t.Errorf("unexpected chain recreation")
	}
	want := TriangleAt(2.5)
	if backend.lastVertices != want {
		t.Errorf("submitted vertices %v, want %v", backend.lastVertices, want)
	}
}

func TestTickRecreatesChainWhenRequested(t *testing.T) {
	backend := &mockBackend{width: 1024, height: 768}
	loop := newTestLoop(backend)

	loop.RequestRecreate()
	if err := loop.Tick(); err != nil {
		t.Fatalf("tick failed: %v", err)
	}
	if backend.recreates != 1 {
		t.Fatalf("recreates = %d, want 1", backend.recreates)
	}
	if backend.submits != 1 {
		t.Errorf("submits = %d, want 1 after successful recreation", backend.submits)
	}

	// The request is consumed; the next tick draws without rebuilding.
	if err := loop.Tick(); err != nil {
		t.Fatalf("tick failed: %v", err)
	}
	if backend.recreates != 1 {
		t.Errorf("recreates = %d after second tick, want still 1", backend.recreates)
	}
}

func TestRepeatedRecreationUsesSameDimensions(t *testing.T) {
	backend := &mockBackend{width: 800, height: 600}
	loop := newTestLoop(backend)

	for i := 0; i < 2; i++ {
		loop.RequestRecreate()
		if err := loop.Tick(); err != nil {
			t.Fatalf("tick %d failed: %v", i, err)
		}
		if backend.lastRecreateW != 800 || backend.lastRecreateH != 600 {
			t.Errorf("recreation %d used %dx%d, want 800x600", i, backend.lastRecreateW, backend.lastRecreateH)
		}
	}
	if backend.recreates != 2 {
		t.Errorf("recreates = %d, want 2", backend.recreates)
	}
	if backend.submits != 2 {
		t.Errorf("submits = %d, want one draw after each recreation", backend.submits)
	}
}

func TestTickSkipsOnUnsupportedExtent(t *testing.T) {
	backend := &mockBackend{width: 800, height: 0, recreateErr: ErrUnsupportedExtent}
	loop := newTestLoop(backend)

	loop.RequestRecreate()
	if err := loop.Tick(); err != nil {
		t.Fatalf("unsupported extent must not be fatal, got: %v", err)
	}
	if backend.acquires != 0 || backend.submits != 0 || backend.presents != 0 {
		t.Errorf("tick must be skipped entirely, got acquire/submit/present = %d/%d/%d",
			backend.acquires, backend.submits, backend.presents)
	}

	// The flag stays set until a recreation succeeds.
	backend.recreateErr = nil
	backend.height = 600
	if err := loop.Tick(); err != nil {
		t.Fatalf("tick failed: %v", err)
	}
	if backend.recreates != 2 {
		t.Errorf("recreates = %d, want 2", backend.recreates)
	}
	if backend.submits != 1 {
		t.Errorf("submits = %d, want 1 once the extent is accepted", backend.submits)
	}
}

func TestTickRecreateFailureIsFatal(t *testing.T) {
	backend := &mockBackend{width: 800, height: 600, recreateErr: fmt.Errorf("device lost")}
	loop := newTestLoop(backend)

	loop.RequestRecreate()
	if err := loop.Tick(); err == nil {
		t.Fatal("expected a fatal error from a failed chain recreation")
	}
}

func TestTickAcquireOutOfDateDefersFrame(t *testing.T) {
	backend := &mockBackend{width: 800, height: 600, acquireErr: ErrChainOutOfDate}
	loop := newTestLoop(backend)

	if err := loop.Tick(); err != nil {
		t.Fatalf("out-of-date at acquire must not be fatal, got: %v", err)
	}
	if backend.submits != 0 || backend.presents != 0 {
		t.Errorf("no draw may happen on an out-of-date chain")
	}

	// The next tick rebuilds the chain before acquiring again.
	backend.acquireErr = nil
	if err := loop.Tick(); err != nil {
		t.Fatalf("tick failed: %v", err)
	}
	if backend.recreates != 1 {
		t.Errorf("recreates = %d, want 1", backend.recreates)
	}
	if backend.submits != 1 {
		t.Errorf("submits = %d, want 1", backend.submits)
	}
}

func TestTickAcquireSuboptimalStillDraws(t *testing.T) {
	backend := &mockBackend{width: 800, height: 600, acquireErr: ErrChainSuboptimal}
	loop := newTestLoop(backend)

	if err := loop.Tick(); err != nil {
		t.Fatalf("suboptimal at acquire must not be fatal, got: %v", err)
	}
	if backend.submits != 1 || backend.presents != 1 {
		t.Errorf("suboptimal image must still be drawn, got submit/present = %d/%d", backend.submits, backend.presents)
	}

	// The chain refresh happens on the following tick.
	backend.acquireErr = nil
	if err := loop.Tick(); err != nil {
		t.Fatalf("tick failed: %v", err)
	}
	if backend.recreates != 1 {
		t.Errorf("recreates = %d, want 1", backend.recreates)
	}
}

func TestTickAcquireFailureIsFatal(t *testing.T) {
	backend := &mockBackend{width: 800, height: 600, acquireErr: fmt.Errorf("device lost")}
	loop := newTestLoop(backend)

	if err := loop.Tick(); err == nil {
		t.Fatal("expected a fatal error from a failed acquire")
	}
}

func TestTickSubmitFailureIsFatal(t *testing.T) {
	backend := &mockBackend{width: 800, height: 600, submitErr: fmt.Errorf("out of device memory")}
	loop := newTestLoop(backend)

	if err := loop.Tick(); err == nil {
		t.Fatal("expected a fatal error from a failed submit")
	}
}

func TestTickPresentOutOfDateRecreatesNextTick(t *testing.T) {
	backend := &mockBackend{width: 800, height: 600, presentErr: ErrChainOutOfDate}
	loop := newTestLoop(backend)

	if err := loop.Tick(); err != nil {
		t.Fatalf("out-of-date at present must not be fatal, got: %v", err)
	}

	backend.presentErr = nil
	if err := loop.Tick(); err != nil {
		t.Fatalf("tick failed: %v", err)
	}
	if backend.recreates != 1 {
		t.Errorf("recreates = %d, want 1", backend.recreates)
	}
}

func TestTickPresentFailureDropsFrame(t *testing.T) {
	backend := &mockBackend{width: 800, height: 600, presentErr: fmt.Errorf("surface lost")}
	loop := newTestLoop(backend)

	if err := loop.Tick(); err != nil {
		t.Fatalf("a failed flush drops the frame, got fatal error: %v", err)
	}

	// The loop keeps running afterwards.
	backend.presentErr = nil
	if err := loop.Tick(); err != nil {
		t.Fatalf("tick failed: %v", err)
	}
	if backend.recreates != 0 {
		t.Errorf("a dropped frame must not force a chain rebuild")
	}
}

func TestSingleFrameInFlight(t *testing.T) {
	backend := &mockBackend{width: 800, height: 600}
	loop := newTestLoop(backend)

	if err := loop.Tick(); err != nil {
		t.Fatalf("tick failed: %v", err)
	}
	first := backend.lastMarker

	// Unfinished work is held, not released.
	if err := loop.Tick(); err != nil {
		t.Fatalf("tick failed: %v", err)
	}
	if first.released != 0 {
		t.Errorf("marker released while its work was still pending")
	}

	// Once the work completes the next tick reclaims it.
	second := backend.lastMarker
	second.done = true
	if err := loop.Tick(); err != nil {
		t.Fatalf("tick failed: %v", err)
	}
	if second.released != 1 {
		t.Errorf("marker released %d times, want 1", second.released)
	}
}
