package tools

import (
	"bytes"
	"io"
	"sync"
)

// MaxBufferedOutput bounds the unread output kept per stream. Output
// written while the buffer is full is dropped.
const MaxBufferedOutput = 4 << 20

// outputBuffer collects a process stream so the process never blocks on a
// reader that is absent. Reads block until data arrives or the writer
// side is closed.
type outputBuffer struct {
	mu      sync.Mutex
	cond    *sync.Cond
	buf     bytes.Buffer
	limit   int
	eof     bool
	discard bool
}

func newOutputBuffer(limit int) *outputBuffer {
	b := &outputBuffer{limit: limit}
	b.cond = sync.NewCond(&b.mu)
	return b
}

func (b *outputBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.discard {
		if room := b.limit - b.buf.Len(); room > 0 {
			b.buf.Write(p[:min(len(p), room)])
			b.cond.Broadcast()
		}
	}
	return len(p), nil
}

func (b *outputBuffer) Read(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for b.buf.Len() == 0 && !b.eof && !b.discard {
		b.cond.Wait()
	}
	if b.buf.Len() > 0 {
		return b.buf.Read(p)
	}
	return 0, io.EOF
}

// Close ends the reader side; later output is discarded.
func (b *outputBuffer) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.discard = true
	b.buf.Reset()
	b.cond.Broadcast()
	return nil
}

// closeWrite marks the end of the stream. Buffered data stays readable.
func (b *outputBuffer) closeWrite() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.eof = true
	b.cond.Broadcast()
}
