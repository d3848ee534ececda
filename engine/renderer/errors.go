package renderer

import "errors"

// The recoverable half of the error taxonomy. Everything the backend returns
// that does not match one of these is fatal and terminates the process.
var (
	// ErrChainOutOfDate means the presentation chain is no longer compatible
	// with the surface and must be recreated before further use.
	ErrChainOutOfDate = errors.New("presentation chain out of date")
	// ErrChainSuboptimal means the acquired image is still usable this frame
	// but the chain should be recreated soon.
	ErrChainSuboptimal = errors.New("presentation chain suboptimal")
	// ErrUnsupportedExtent means the surface rejected the requested chain
	// dimensions; the tick is skipped and recreation retried next tick.
	ErrUnsupportedExtent = errors.New("unsupported presentation chain extent")
)
