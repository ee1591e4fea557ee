package utils

import (
	"bytes"
	"sync"
)

// LineWriter is an io.Writer that splits its input into lines and calls emit
// once per line, without the trailing newline. Carriage returns before the
// newline are stripped. When maxLen is positive, lines longer than maxLen are
// emitted in maxLen-sized chunks so that a process that never writes a newline
// can't grow the buffer without bound.
type LineWriter struct {
	mu     sync.Mutex
	buf    bytes.Buffer
	maxLen int
	emit   func([]byte) error
}

// NewLimitedLineWriter returns a LineWriter that emits at most maxLen bytes at a
// time.
func NewLimitedLineWriter(maxLen int, emit func([]byte) error) *LineWriter {
	return &LineWriter{
		maxLen: maxLen,
		emit:   emit,
	}
}

// Write implements io.Writer.
func (w *LineWriter) Write(p []byte) (n int, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	n = len(p)

	for len(p) > 0 {
		idx := bytes.IndexByte(p, '\n')
		if idx == -1 {
			w.buf.Write(p)
			return n, w.drainLong()
		}

		w.buf.Write(p[:idx])
		if err := w.drainLong(); err != nil {
			return n, err
		}
		if err := w.flush(); err != nil {
			return n, err
		}

		p = p[idx+1:]
	}

	return n, nil
}

// Close emits any buffered partial line.
func (w *LineWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.buf.Len() == 0 {
		return nil
	}
	return w.flush()
}

func (w *LineWriter) flush() error {
	line := bytes.TrimSuffix(w.buf.Bytes(), []byte{'\r'})
	err := w.emit(line)
	w.buf.Reset()
	return err
}

func (w *LineWriter) drainLong() error {
	if w.maxLen <= 0 {
		return nil
	}
	for w.buf.Len() > w.maxLen {
		if err := w.emit(w.buf.Next(w.maxLen)); err != nil {
			return err
		}
	}
	return nil
}
