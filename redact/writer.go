package redact

import (
	"bytes"
	"io"
	"sync"
)

var _ io.Writer = &Writer{}

// Writer applies redactions to everything written through it before passing it on to the underlying writer.
// Input is buffered until a full line is available so that a value split across two Write calls is still
// matched. Each line is redacted on its own and keeps its line ending. Call Flush to emit a trailing partial line.
type Writer struct {
	mu         sync.Mutex
	w          io.Writer
	redactions []*Redact
	buf        []byte
}

// NewWriter wraps w. Redactions are applied in order, as with ApplyMany.
func NewWriter(w io.Writer, redactions ...*Redact) *Writer {
	return &Writer{
		w:          w,
		redactions: redactions,
	}
}

// Write buffers p and forwards every complete line, redacted. The returned count always refers to p.
func (rw *Writer) Write(p []byte) (int, error) {
	rw.mu.Lock()
	defer rw.mu.Unlock()

	rw.buf = append(rw.buf, p...)
	i := bytes.LastIndexByte(rw.buf, '\n')
	if i < 0 {
		return len(p), nil
	}

	var redacted []byte
	for lines := rw.buf[:i+1]; len(lines) > 0; {
		n := bytes.IndexByte(lines, '\n') + 1
		redacted = append(redacted, redactLine(rw.redactions, lines[:n])...)
		lines = lines[n:]
	}
	_, err := rw.w.Write(redacted)
	// Lines are dropped from the buffer even on error so that a failed write is not retried with every later one.
	rw.buf = append(rw.buf[:0], rw.buf[i+1:]...)
	if err != nil {
		return 0, err
	}
	return len(p), nil
}

// Flush redacts and writes any buffered partial line.
func (rw *Writer) Flush() error {
	rw.mu.Lock()
	defer rw.mu.Unlock()

	if len(rw.buf) == 0 {
		return nil
	}
	_, err := rw.w.Write(applyAll(rw.redactions, rw.buf))
	rw.buf = rw.buf[:0]
	return err
}
