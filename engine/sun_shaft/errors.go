package sun_shaft

import "errors"

var (
	// ErrAllocation is returned when the working or temporary buffers of a frame cannot be acquired.
	// The frame is rendered without the effect.
	ErrAllocation = errors.New("sun_shaft: buffer allocation failed")

	// ErrNoActiveCamera is returned when a frame has no camera to project the sun through.
	ErrNoActiveCamera = errors.New("sun_shaft: no active camera")

	// ErrNoColorTarget is returned when a frame has no color target to composite onto.
	ErrNoColorTarget = errors.New("sun_shaft: no color target")

	// ErrBuffersReleased is returned when working buffers are released more than once.
	ErrBuffersReleased = errors.New("sun_shaft: working buffers already released")

	errUnknownExtraction = errors.New("unknown extraction mode")
	errUnknownBlendMode  = errors.New("unknown blend mode")
	errUnknownDivider    = errors.New("unknown resolution divider")
)
