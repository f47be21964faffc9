package handlers

import (
	"io"
	"sync/atomic"
	"time"
)

// throughputWriter counts what a streamed response has written and when the
// first byte went out.
type throughputWriter struct {
	w           io.Writer
	firstByteNs int64
	bytes       int64
}

func newThroughputWriter(w io.Writer) *throughputWriter { return &throughputWriter{w: w} }

func (t *throughputWriter) Write(p []byte) (int, error) {
	if atomic.LoadInt64(&t.firstByteNs) == 0 {
		atomic.CompareAndSwapInt64(&t.firstByteNs, 0, time.Now().UnixNano())
	}
	n, err := t.w.Write(p)
	atomic.AddInt64(&t.bytes, int64(n))
	return n, err
}

func (t *throughputWriter) FirstByteAt() time.Time {
	ns := atomic.LoadInt64(&t.firstByteNs)
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}

func (t *throughputWriter) Bytes() int64 { return atomic.LoadInt64(&t.bytes) }
