package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// ErrInputCancelled is returned when a read is abandoned because its context
// ended. It wraps context.Canceled so callers classify it as a cancellation.
var ErrInputCancelled = fmt.Errorf("input canceled: %w", context.Canceled)

type lineResult struct {
	err  error
	line string
}

// LineReader reads trimmed lines from an input that may block, such as a
// terminal, without tying the caller to the read. A single goroutine scans
// the input on first use and hands lines over one at a time.
type LineReader struct {
	scanner *bufio.Scanner
	lines   chan lineResult
	start   sync.Once
}

// NewLineReader creates a reader over r.
func NewLineReader(r io.Reader) *LineReader {
	return &LineReader{
		scanner: bufio.NewScanner(r),
		lines:   make(chan lineResult),
	}
}

func (r *LineReader) scan() {
	defer close(r.lines)

	for r.scanner.Scan() {
		r.lines <- lineResult{line: r.scanner.Text()}
	}
	err := r.scanner.Err()
	if err == nil {
		err = io.EOF
	}
	r.lines <- lineResult{err: err}
}

// ReadLine returns the next line with surrounding whitespace removed. A final
// line without a newline is returned normally; after it ReadLine reports
// io.EOF. When ctx ends first, ErrInputCancelled is returned and the line, if
// one arrives later, is kept for the next call.
func (r *LineReader) ReadLine(ctx context.Context) (string, error) {
	if ctx.Err() != nil {
		return "", ErrInputCancelled
	}
	r.start.Do(func() { go r.scan() })

	select {
	case <-ctx.Done():
		return "", ErrInputCancelled
	case res, ok := <-r.lines:
		if !ok {
			return "", io.EOF
		}
		return strings.TrimSpace(res.line), res.err
	}
}
