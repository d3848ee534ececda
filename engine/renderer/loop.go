package renderer

import (
	"errors"
	"fmt"

	"github.com/spaghettifunk/trigon/engine/core"
)

// Marker is an opaque handle for GPU work submitted on a previous tick that
// is not yet known to be complete. The loop owns exactly one at a time.
type Marker interface {
	// Done is a non-blocking completion check.
	Done() bool
	// Release reclaims per-frame resources proven complete. Only called
	// after Done reports true.
	Release()
}

// Backend is the capability surface the render loop drives. The Vulkan
// implementation lives in the vulkan package; tests substitute a mock.
type Backend interface {
	// Dimensions reports the window's current physical pixel size.
	Dimensions() (uint32, uint32)
	// RecreateChain replaces the presentation chain and its frame targets at
	// the given size. Returns ErrUnsupportedExtent when the surface rejects
	// the dimensions.
	RecreateChain(width, height uint32) error
	// Acquire blocks until the next presentable image index is available.
	// Returns ErrChainOutOfDate when the chain must be recreated first, or
	// ErrChainSuboptimal together with a valid index when the image is still
	// usable this tick.
	Acquire() (uint32, error)
	// Submit uploads the vertices into fresh transient storage and records
	// and submits the draw for the image, sequenced after both the previous
	// frame's marker and this tick's acquisition signal.
	Submit(imageIndex uint32, vertices [3]Vertex) error
	// Present queues presentation of the image and returns the new in-flight
	// marker. Returns ErrChainOutOfDate when the flush reports the chain
	// stale.
	Present(imageIndex uint32) (Marker, error)
	// CompletedMarker returns a trivially-already-complete marker.
	CompletedMarker() Marker
}

// Loop holds the mutable per-iteration state of the render loop: the resize
// flag and the single in-flight marker. It is owned and driven by the engine;
// there are no package-level singletons.
type Loop struct {
	backend       Backend
	now           func() float64
	inFlight      Marker
	needsRecreate bool
}

func NewLoop(backend Backend, now func() float64) *Loop {
	if now == nil {
		now = core.EpochSeconds
	}
	return &Loop{
		backend:  backend,
		now:      now,
		inFlight: backend.CompletedMarker(),
	}
}

// RequestRecreate flags the presentation chain for recreation on the next
// tick. Called on window resize.
func (l *Loop) RequestRecreate() {
	l.needsRecreate = true
}

// Tick runs one redraw opportunity through the state machine:
// cleanup, conditional chain rebuild, acquire, geometry, upload/record/submit,
// present. A non-nil return is fatal; every recoverable condition is absorbed
// by deferring to the next tick.
func (l *Loop) Tick() error {
	// Reclaim resources from the previous frame if it has finished.
	if l.inFlight.Done() {
		l.inFlight.Release()
	}

	if l.needsRecreate {
		width, height := l.backend.Dimensions()
		if err := l.backend.RecreateChain(width, height); err != nil {
			if errors.Is(err, ErrUnsupportedExtent) {
				// Skip this tick entirely and retry on the next one.
				core.LogDebug("chain dimensions %dx%d unsupported, skipping tick", width, height)
				return nil
			}
			return fmt.Errorf("failed to recreate presentation chain: %w", err)
		}
		l.needsRecreate = false
	}

	imageIndex, err := l.backend.Acquire()
	if err != nil {
		if errors.Is(err, ErrChainOutOfDate) {
			l.needsRecreate = true
			return nil
		}
		if errors.Is(err, ErrChainSuboptimal) {
			// Still usable this frame; refresh the chain on the next tick.
			l.needsRecreate = true
		} else {
			return fmt.Errorf("failed to acquire next image: %w", err)
		}
	}

	vertices := TriangleAt(l.now())

	if err := l.backend.Submit(imageIndex, vertices); err != nil {
		return fmt.Errorf("failed to submit frame: %w", err)
	}

	marker, err := l.backend.Present(imageIndex)
	switch {
	case err == nil:
		l.inFlight = marker
	case errors.Is(err, ErrChainOutOfDate):
		l.needsRecreate = true
		l.inFlight = l.backend.CompletedMarker()
	default:
		// Drop the frame and carry on.
		core.LogError("failed to flush frame: %s", err.Error())
		l.inFlight = l.backend.CompletedMarker()
	}

	return nil
}
