// Package resource arbitrates shared capacity between models: how many
// training or rebuild jobs may run at once, and how fast snapshot
// traffic may move. A nil *Controller is valid and enforces nothing.
package resource

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

type options struct {
	maxConcurrentTrainings int64
	ioRateLimitBytesPerSec int64
}

// Option configures a Controller.
type Option func(*options)

// WithMaxConcurrentTrainings caps how many training jobs may hold a
// slot at once. Values below 1 fall back to 1.
func WithMaxConcurrentTrainings(n int) Option {
	return func(o *options) {
		o.maxConcurrentTrainings = int64(n)
	}
}

// WithIORateLimit caps snapshot IO throughput in bytes per second.
// Zero means unlimited.
func WithIORateLimit(bytesPerSec int) Option {
	return func(o *options) {
		o.ioRateLimitBytesPerSec = int64(bytesPerSec)
	}
}

// Controller manages training concurrency and snapshot IO throughput.
type Controller struct {
	trainSem  *semaphore.Weighted // nil if unlimited
	ioLimiter *rate.Limiter       // nil if unlimited

	active atomic.Int64
}

// NewController creates a controller. Without options it allows one
// training job at a time and does not throttle IO.
func NewController(optFns ...Option) *Controller {
	opts := options{
		maxConcurrentTrainings: 1,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.maxConcurrentTrainings < 1 {
		opts.maxConcurrentTrainings = 1
	}

	c := &Controller{
		trainSem: semaphore.NewWeighted(opts.maxConcurrentTrainings),
	}

	if opts.ioRateLimitBytesPerSec > 0 {
		c.ioLimiter = rate.NewLimiter(rate.Limit(opts.ioRateLimitBytesPerSec), int(opts.ioRateLimitBytesPerSec))
	}

	return c
}

// Noop returns a controller that never blocks.
func Noop() *Controller {
	return &Controller{}
}

// AcquireTrainSlot blocks until a training slot is free or ctx is
// canceled.
func (c *Controller) AcquireTrainSlot(ctx context.Context) error {
	if c == nil || c.trainSem == nil {
		return nil
	}

	if err := c.trainSem.Acquire(ctx, 1); err != nil {
		return err
	}

	c.active.Add(1)
	return nil
}

// TryAcquireTrainSlot reserves a training slot without blocking.
func (c *Controller) TryAcquireTrainSlot() bool {
	if c == nil || c.trainSem == nil {
		return true
	}

	if !c.trainSem.TryAcquire(1) {
		return false
	}

	c.active.Add(1)
	return true
}

// ReleaseTrainSlot returns a previously acquired slot.
func (c *Controller) ReleaseTrainSlot() {
	if c == nil || c.trainSem == nil {
		return
	}

	c.trainSem.Release(1)
	c.active.Add(-1)
}

// ActiveTrainings returns the number of slots currently held.
func (c *Controller) ActiveTrainings() int64 {
	if c == nil {
		return 0
	}
	return c.active.Load()
}

// ThrottleIO waits until the IO budget allows n more bytes. WaitN
// rejects requests larger than the burst, so large transfers wait in
// burst-sized chunks.
func (c *Controller) ThrottleIO(ctx context.Context, n int) error {
	if c == nil || c.ioLimiter == nil {
		return nil
	}

	burst := c.ioLimiter.Burst()
	for n > 0 {
		chunk := n
		if chunk > burst {
			chunk = burst
		}
		if err := c.ioLimiter.WaitN(ctx, chunk); err != nil {
			return err
		}
		n -= chunk
	}
	return nil
}
