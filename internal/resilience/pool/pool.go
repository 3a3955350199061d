// Package pool provides a bounded pool of reusable resources with blocking
// acquisition and safe release. It is used to limit concurrent use of expensive
// handles such as database connections to external services.
package pool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// ErrResourceExhausted is returned by Acquire when the pool is at capacity and
// no resource was released within the configured wait timeout.
var ErrResourceExhausted = errors.New("resource pool exhausted")

// ErrPoolClosed is returned by Acquire after Close has been called.
var ErrPoolClosed = errors.New("resource pool closed")

// Factory creates a new resource. It is supplied by the caller; the pool never
// hard-codes how resources are constructed. A factory error propagates to the
// Acquire caller unchanged and leaves the pool's accounting untouched.
type Factory[T any] func(ctx context.Context) (T, error)

// Reset restores a resource to a reusable state before it re-enters the idle
// set, for example by rolling back a pending transaction. A reset error causes
// the resource to be disposed instead of re-pooled.
type Reset[T any] func(T) error

// Disposer closes a resource for good.
type Disposer[T any] func(T) error

// Config holds the pool's sizing and timing parameters.
type Config struct {
	// MaxSize is the maximum number of live resources, idle or checked out.
	MaxSize int

	// AcquireTimeout is how long Acquire waits for a release once the pool
	// is at capacity before failing with ErrResourceExhausted.
	AcquireTimeout time.Duration
}

// DefaultConfig returns the default pool configuration.
func DefaultConfig() Config {
	return Config{
		MaxSize:        10,
		AcquireTimeout: 5 * time.Second,
	}
}

// Stats is a point-in-time snapshot of the pool's accounting.
type Stats struct {
	// Active is the number of live resources, idle or checked out.
	Active int
	// Idle is the number of resources waiting in the pool.
	Idle int
	// Capacity is the configured maximum.
	Capacity int
}

// Pool is a bounded collection of reusable resources. Idle resources are owned
// by the pool; a checked-out resource is owned by exactly one caller until it
// is released. The invariant active <= capacity holds at all times.
type Pool[T any] struct {
	factory Factory[T]
	reset   Reset[T]
	dispose Disposer[T]

	idle chan T

	mu     sync.Mutex
	active int
	closed bool

	cfg    Config
	logger *slog.Logger
}

// Option configures optional pool behavior.
type Option[T any] func(*Pool[T])

// WithReset installs the reset hook run on every release.
func WithReset[T any](fn Reset[T]) Option[T] {
	return func(p *Pool[T]) { p.reset = fn }
}

// WithDisposer installs the hook used to close broken or drained resources.
func WithDisposer[T any](fn Disposer[T]) Option[T] {
	return func(p *Pool[T]) { p.dispose = fn }
}

// WithLogger sets the logger used for disposal warnings.
func WithLogger[T any](logger *slog.Logger) Option[T] {
	return func(p *Pool[T]) { p.logger = logger }
}

// New creates a pool that constructs resources with the given factory.
func New[T any](cfg Config, factory Factory[T], opts ...Option[T]) (*Pool[T], error) {
	if cfg.MaxSize <= 0 {
		return nil, fmt.Errorf("pool: max size must be positive, got %d", cfg.MaxSize)
	}
	if cfg.AcquireTimeout <= 0 {
		return nil, fmt.Errorf("pool: acquire timeout must be positive, got %v", cfg.AcquireTimeout)
	}
	if factory == nil {
		return nil, errors.New("pool: factory is required")
	}

	p := &Pool[T]{
		factory: factory,
		idle:    make(chan T, cfg.MaxSize),
		cfg:     cfg,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Acquire returns a resource for exclusive use by the caller. An idle resource
// is handed off immediately; otherwise a new one is constructed while capacity
// allows. At capacity, Acquire blocks until a resource is released, the wait
// timeout elapses (ErrResourceExhausted), or ctx is done.
func (p *Pool[T]) Acquire(ctx context.Context) (T, error) {
	var zero T

	select {
	case res := <-p.idle:
		return res, nil
	default:
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return zero, ErrPoolClosed
	}
	if p.active < p.cfg.MaxSize {
		p.active++
		p.mu.Unlock()

		res, err := p.factory(ctx)
		if err != nil {
			p.mu.Lock()
			p.active--
			p.mu.Unlock()
			return zero, err
		}
		return res, nil
	}
	p.mu.Unlock()

	timer := time.NewTimer(p.cfg.AcquireTimeout)
	defer timer.Stop()

	select {
	case res := <-p.idle:
		return res, nil
	case <-timer.C:
		return zero, ErrResourceExhausted
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Release returns a checked-out resource to the pool. The resource is first
// reset; if the reset fails the resource is disposed and the pool shrinks by
// one, leaving room for Acquire to construct a replacement. Release never
// blocks and never re-pools a resource known to be broken.
func (p *Pool[T]) Release(res T) {
	if p.reset != nil {
		if err := p.reset(res); err != nil {
			p.logger.Warn("pool resource failed reset, disposing",
				slog.Any("error", err))
			p.discard(res)
			return
		}
	}

	// The closed check and the idle send happen under one lock, so a Close
	// running concurrently either drains this resource or leaves it to the
	// discard below. Released to an unlocked channel it could slip into idle
	// after Close finished draining and never be disposed.
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.discard(res)
		return
	}
	select {
	case p.idle <- res:
		p.mu.Unlock()
	default:
		p.mu.Unlock()
		// Idle channel capacity equals MaxSize, so this only happens if a
		// caller releases a resource the pool no longer accounts for.
		p.discard(res)
	}
}

// discard closes a resource and removes it from the active count.
func (p *Pool[T]) discard(res T) {
	if p.dispose != nil {
		if err := p.dispose(res); err != nil {
			p.logger.Warn("pool resource dispose failed", slog.Any("error", err))
		}
	}
	p.mu.Lock()
	p.active--
	p.mu.Unlock()
}

// Stats returns a snapshot of the pool's accounting.
func (p *Pool[T]) Stats() Stats {
	p.mu.Lock()
	active := p.active
	p.mu.Unlock()
	return Stats{
		Active:   active,
		Idle:     len(p.idle),
		Capacity: p.cfg.MaxSize,
	}
}

// Close disposes all idle resources and rejects further Acquire calls.
// Resources still checked out are disposed as they are released.
func (p *Pool[T]) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	for {
		select {
		case res := <-p.idle:
			p.discard(res)
		default:
			return
		}
	}
}
