package resource

import (
	"context"
	"io"
)

// ThrottledWriter applies the controller's IO limit to every write.
type ThrottledWriter struct {
	ctx context.Context
	w   io.Writer
	rc  *Controller
}

// NewThrottledWriter wraps w with the controller's IO limit.
func NewThrottledWriter(ctx context.Context, w io.Writer, rc *Controller) *ThrottledWriter {
	return &ThrottledWriter{ctx: ctx, w: w, rc: rc}
}

func (w *ThrottledWriter) Write(p []byte) (int, error) {
	if err := w.rc.AcquireIO(w.ctx, len(p)); err != nil {
		return 0, err
	}
	return w.w.Write(p)
}

// ThrottledReader applies the controller's IO limit to every read.
// The budget is charged for the buffer size before reading.
type ThrottledReader struct {
	ctx context.Context
	r   io.Reader
	rc  *Controller
}

// NewThrottledReader wraps r with the controller's IO limit.
func NewThrottledReader(ctx context.Context, r io.Reader, rc *Controller) *ThrottledReader {
	return &ThrottledReader{ctx: ctx, r: r, rc: rc}
}

func (r *ThrottledReader) Read(p []byte) (int, error) {
	if err := r.rc.AcquireIO(r.ctx, len(p)); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}
