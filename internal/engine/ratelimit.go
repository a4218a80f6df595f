package engine

import (
	"context"
	"io"
	"os"

	"golang.org/x/time/rate"
)

const bwBurst = 1 << 20

// NewBWLimiter builds a token-bucket limiter for the given bytes/sec rate.
// The burst is capped at 1MB so a single large write cannot overshoot the rate.
func NewBWLimiter(bytesPerSec int64) *rate.Limiter {
	burst := int64(bwBurst)
	if bytesPerSec < burst {
		burst = bytesPerSec
	}
	return rate.NewLimiter(rate.Limit(bytesPerSec), int(burst))
}

// copyWithLimit copies src into dst through the limiter. The throttled path
// always uses buffered read/write: kernel offload copies the whole file in
// one syscall, which defeats pacing.
func copyWithLimit(ctx context.Context, srcPath string, dst *os.File, limiter *rate.Limiter) (int64, error) {
	src, err := os.Open(srcPath)
	if err != nil {
		return 0, err
	}
	defer src.Close()

	// Reads must never exceed the limiter's burst: WaitN rejects requests
	// larger than the bucket outright, so sub-1MB/s limits need a smaller
	// buffer than the default chunk size.
	bufSize := bwBurst
	if b := limiter.Burst(); b < bufSize {
		bufSize = b
	}

	var total int64
	buf := make([]byte, bufSize)
	for {
		n, rerr := src.Read(buf)
		if n > 0 {
			if err := limiter.WaitN(ctx, n); err != nil {
				return total, err
			}
			wn, werr := dst.Write(buf[:n])
			total += int64(wn)
			if werr != nil {
				return total, werr
			}
		}
		if rerr == io.EOF {
			return total, nil
		}
		if rerr != nil {
			return total, rerr
		}
	}
}
