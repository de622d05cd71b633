package limitio

import (
	"context"
	"io"

	"golang.org/x/time/rate"
)

// Writer is an io.Writer with an optional bandwidth limit
type Writer struct {
	ctx     context.Context
	w       io.Writer
	limiter *rate.Limiter
}

// NewWriter returns a writer that implements io.Writer with rate limiting.
// Waiting for the limiter stops with an error when ctx is done.
func NewWriter(ctx context.Context, w io.Writer) *Writer {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Writer{
		ctx: ctx,
		w:   w,
	}
}

// SetRateLimit sets rate limit (bytes/sec) to the writer. A limit of zero or less removes it.
func (s *Writer) SetRateLimit(bytesPerSec float64, burst int) {
	if bytesPerSec <= 0 {
		s.limiter = nil
		return
	}
	if burst <= 0 {
		burst = 1024
	}
	s.limiter = rate.NewLimiter(rate.Limit(bytesPerSec), burst)
}

// Write writes bytes from p.
func (s *Writer) Write(p []byte) (int, error) {
	if s.limiter == nil {
		return s.w.Write(p)
	}
	// ask for a burst of data
	err := s.limiter.WaitN(s.ctx, s.limiter.Burst())
	if err != nil {
		return 0, err
	}
	// write all data
	n, err := s.w.Write(p)
	if err != nil {
		return n, err
	}
	// then wait for the tokens to allow the time needed for writing it all
	left := n - s.limiter.Burst() // remove first burst
	for left > 0 {
		singleWrite := left
		if singleWrite > s.limiter.Burst() {
			singleWrite = s.limiter.Burst()
		}
		err = s.limiter.WaitN(s.ctx, singleWrite)
		if err != nil {
			return n, err
		}
		left -= singleWrite
	}
	return n, nil
}
