// Package render_target hands out temporary color targets for multi-pass effects.
//
// Targets are lightweight handles. The pool only does the bookkeeping: which
// handles exist, which descriptor they were created with and which are checked
// out. Backends lazily create their own storage per handle, and a released
// handle is only ever handed out again for an identical descriptor, so that
// storage stays valid across reuse.
package render_target

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

var (
	// ErrInvalidDescriptor is returned when a descriptor has a non-positive size or an unknown format.
	ErrInvalidDescriptor = errors.New("render_target: invalid descriptor")

	// ErrUnknownHandle is returned when releasing a target the pool never handed out or already took back.
	ErrUnknownHandle = errors.New("render_target: unknown or already released handle")

	// ErrPoolExhausted is returned when the pool's capacity limit would be exceeded.
	ErrPoolExhausted = errors.New("render_target: pool exhausted")
)

// Format is the pixel format of a target.
type Format int

const (
	// FormatDefault is the 8-bit-per-channel LDR color format.
	FormatDefault Format = iota

	// FormatDefaultHDR is the half-float RGBA color format.
	FormatDefaultHDR

	// FormatARGB32 is the explicit 8-bit-per-channel RGBA format.
	FormatARGB32

	// FormatR32Float is a single channel 32-bit float format used for depth.
	FormatR32Float

	formatCount
)

func (f Format) String() string {
	switch f {
	case FormatDefault:
		return "default"
	case FormatDefaultHDR:
		return "default_hdr"
	case FormatARGB32:
		return "argb32"
	case FormatR32Float:
		return "r32float"
	default:
		return fmt.Sprintf("format(%d)", int(f))
	}
}

// IsHDR reports whether the format stores values outside [0, 1].
func (f Format) IsHDR() bool {
	return f == FormatDefaultHDR || f == FormatR32Float
}

// Filter is the sampling filter used when a target is read by a pass.
type Filter int

const (
	FilterBilinear Filter = iota
	FilterPoint
)

// Descriptor describes the storage of a target.
type Descriptor struct {
	Width     int
	Height    int
	Format    Format
	Filter    Filter
	DepthBits int
}

// Validate checks the descriptor for a positive size and a known format.
//
// Returns:
//   - error: ErrInvalidDescriptor wrapped with the offending values, or nil
func (d Descriptor) Validate() error {
	if d.Width <= 0 || d.Height <= 0 {
		return fmt.Errorf("%w: size %dx%d", ErrInvalidDescriptor, d.Width, d.Height)
	}
	if d.Format < 0 || d.Format >= formatCount {
		return fmt.Errorf("%w: %s", ErrInvalidDescriptor, d.Format)
	}
	if d.DepthBits < 0 {
		return fmt.Errorf("%w: depth bits %d", ErrInvalidDescriptor, d.DepthBits)
	}
	return nil
}

// Handle identifies a target within one pool. The zero handle is never issued.
type Handle uint64

// Target is a value reference to pool-managed storage.
type Target struct {
	Handle     Handle
	Name       string
	Descriptor Descriptor
	External   bool
}

// IsValid reports whether t refers to a target issued by a pool.
func (t Target) IsValid() bool {
	return t.Handle != 0
}

func (t Target) String() string {
	return fmt.Sprintf("%s#%d(%dx%d %s)", t.Name, t.Handle, t.Descriptor.Width, t.Descriptor.Height, t.Descriptor.Format)
}

type poolImpl struct {
	mu *sync.Mutex

	next     Handle
	capacity int
	logger   *zap.Logger

	targets     map[Handle]Target
	checkedOut  map[Handle]bool
	free        map[Descriptor][]Handle
	allocations int
}

// Pool manages temporary and external render targets.
type Pool interface {
	// GetTemporary checks out a temporary target matching d.
	// A previously released target with an identical descriptor is reused when available.
	//
	// Parameters:
	//   - d: the descriptor of the target
	//
	// Returns:
	//   - Target: the checked out target
	//   - error: ErrInvalidDescriptor or ErrPoolExhausted
	GetTemporary(d Descriptor) (Target, error)

	// ReleaseTemporary returns a checked out target to the pool.
	// Releasing an external target, an unknown handle or a target twice is an error.
	//
	// Parameters:
	//   - t: the target to release
	//
	// Returns:
	//   - error: ErrUnknownHandle if t is not currently checked out
	ReleaseTemporary(t Target) error

	// External registers a long-lived target owned by the caller, such as a camera color or depth buffer.
	// External targets never count as outstanding and cannot be released.
	//
	// Parameters:
	//   - name: a debug name for the target
	//   - d: the descriptor of the target
	//
	// Returns:
	//   - Target: the registered target
	//   - error: ErrInvalidDescriptor if d is invalid
	External(name string, d Descriptor) (Target, error)

	// Lookup resolves a handle to its target.
	//
	// Parameters:
	//   - h: the handle to resolve
	//
	// Returns:
	//   - Target: the target registered under h
	//   - bool: false if h is unknown
	Lookup(h Handle) (Target, bool)

	// Outstanding returns the number of temporary targets currently checked out.
	//
	// Returns:
	//   - int: the checked out count
	Outstanding() int

	// Allocations returns the number of distinct temporary targets ever created by the pool.
	//
	// Returns:
	//   - int: the allocation count
	Allocations() int
}

var _ Pool = &poolImpl{}

// NewPool creates an empty render target pool.
//
// Parameters:
//   - options: functional options to configure the pool
//
// Returns:
//   - Pool: the new pool
func NewPool(options ...PoolBuilderOption) Pool {
	p := &poolImpl{
		mu:         &sync.Mutex{},
		logger:     zap.NewNop(),
		targets:    make(map[Handle]Target),
		checkedOut: make(map[Handle]bool),
		free:       make(map[Descriptor][]Handle),
	}
	for _, option := range options {
		option(p)
	}
	return p
}

func (p *poolImpl) GetTemporary(d Descriptor) (Target, error) {
	if err := d.Validate(); err != nil {
		return Target{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.capacity > 0 && len(p.checkedOut) >= p.capacity {
		return Target{}, fmt.Errorf("%w: %d targets checked out", ErrPoolExhausted, len(p.checkedOut))
	}

	if free := p.free[d]; len(free) > 0 {
		h := free[len(free)-1]
		p.free[d] = free[:len(free)-1]
		p.checkedOut[h] = true
		return p.targets[h], nil
	}

	t := p.mint("temporary", d, false)
	p.checkedOut[t.Handle] = true
	p.allocations++
	p.logger.Debug("allocated temporary target",
		zap.Uint64("handle", uint64(t.Handle)),
		zap.Int("width", d.Width),
		zap.Int("height", d.Height),
		zap.Stringer("format", d.Format),
	)
	return t, nil
}

func (p *poolImpl) ReleaseTemporary(t Target) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.checkedOut[t.Handle] {
		return fmt.Errorf("%w: %s", ErrUnknownHandle, t)
	}
	delete(p.checkedOut, t.Handle)
	d := p.targets[t.Handle].Descriptor
	p.free[d] = append(p.free[d], t.Handle)
	return nil
}

func (p *poolImpl) External(name string, d Descriptor) (Target, error) {
	if err := d.Validate(); err != nil {
		return Target{}, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mint(name, d, true), nil
}

func (p *poolImpl) Lookup(h Handle) (Target, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	t, ok := p.targets[h]
	return t, ok
}

func (p *poolImpl) Outstanding() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.checkedOut)
}

func (p *poolImpl) Allocations() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.allocations
}

// mint registers a new handle.
// Caller must hold the mutex.
func (p *poolImpl) mint(name string, d Descriptor, external bool) Target {
	p.next++
	t := Target{Handle: p.next, Name: name, Descriptor: d, External: external}
	p.targets[t.Handle] = t
	return t
}
