package render_target

import "go.uber.org/zap"

// PoolBuilderOption is a functional option for configuring a Pool.
type PoolBuilderOption func(*poolImpl)

// WithCapacity limits how many temporary targets may be checked out at once.
// Zero means unlimited.
//
// Parameters:
//   - n: the maximum number of checked out targets
//
// Returns:
//   - PoolBuilderOption: functional option to set the capacity
func WithCapacity(n int) PoolBuilderOption {
	return func(p *poolImpl) {
		p.capacity = n
	}
}

// WithLogger sets the logger used for allocation events.
//
// Parameters:
//   - logger: the zap logger
//
// Returns:
//   - PoolBuilderOption: functional option to set the logger
func WithLogger(logger *zap.Logger) PoolBuilderOption {
	return func(p *poolImpl) {
		if logger != nil {
			p.logger = logger.Named("render_target")
		}
	}
}
