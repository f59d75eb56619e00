package resource

import (
	"context"
	"io"
)

// ThrottledWriter wraps an io.Writer with the controller's IO budget.
type ThrottledWriter struct {
	ctx context.Context
	c   *Controller
	w   io.Writer
}

// NewThrottledWriter creates a writer whose throughput is charged
// against c.
func NewThrottledWriter(ctx context.Context, c *Controller, w io.Writer) *ThrottledWriter {
	return &ThrottledWriter{
		ctx: ctx,
		c:   c,
		w:   w,
	}
}

func (t *ThrottledWriter) Write(p []byte) (int, error) {
	if err := t.c.ThrottleIO(t.ctx, len(p)); err != nil {
		return 0, err
	}
	return t.w.Write(p)
}

// ThrottledReader wraps an io.Reader with the controller's IO budget.
type ThrottledReader struct {
	ctx context.Context
	c   *Controller
	r   io.Reader
}

// NewThrottledReader creates a reader whose throughput is charged
// against c.
func NewThrottledReader(ctx context.Context, c *Controller, r io.Reader) *ThrottledReader {
	return &ThrottledReader{
		ctx: ctx,
		c:   c,
		r:   r,
	}
}

// Read charges for the full buffer up front since the byte count is
// unknown until the read returns.
func (t *ThrottledReader) Read(p []byte) (int, error) {
	if err := t.c.ThrottleIO(t.ctx, len(p)); err != nil {
		return 0, err
	}
	return t.r.Read(p)
}
