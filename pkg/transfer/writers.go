package transfer

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/glorpus-work/wabbaget/internal/logger"
	"golang.org/x/time/rate"
)

// limitedWriter is an io.Writer throttled by a token bucket counting bytes.
type limitedWriter struct {
	ctx     context.Context
	w       io.Writer
	limiter *rate.Limiter
}

func (lw *limitedWriter) Write(p []byte) (int, error) {
	written := 0
	for len(p) > 0 {
		n := min(len(p), lw.limiter.Burst())
		if err := lw.limiter.WaitN(lw.ctx, n); err != nil {
			return written, err
		}
		m, err := lw.w.Write(p[:n])
		written += m
		if err != nil {
			return written, err
		}
		p = p[n:]
	}
	return written, nil
}

// progressWriter is an io.Writer, logging download progress at
// most once per second.
type progressWriter struct {
	w           io.Writer
	name        string
	transferred int64
	total       int64
	startTime   time.Time
	lastLog     time.Time
}

func (pw *progressWriter) Write(p []byte) (int, error) {
	n, err := pw.w.Write(p)
	pw.transferred += int64(n)

	if time.Since(pw.lastLog) >= time.Second {
		pw.lastLog = time.Now()
		pw.log("downloading")
	}

	return n, err
}

func (pw *progressWriter) log(msg string) {
	elapsed := time.Since(pw.startTime)
	fields := logger.Fields{
		"file":        pw.name,
		"elapsed":     elapsed.Round(time.Millisecond).String(),
		"transferred": pw.transferred,
	}
	if pw.total > 0 {
		fields["total"] = pw.total
		fields["progress"] = fmt.Sprintf("%.1f%%", float64(pw.transferred)/float64(pw.total)*100)
	}
	if secs := elapsed.Seconds(); secs > 0 {
		fields["mbps"] = fmt.Sprintf("%.2f", float64(pw.transferred)/secs/(1024*1024))
	}
	logger.Info(msg, fields)
}
