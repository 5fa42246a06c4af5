package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Confirmer asks yes/no questions on a terminal.
type Confirmer struct {
	reader *LineReader
	writer io.Writer
}

// NewConfirmer reads answers from r and writes prompts to w.
func NewConfirmer(r io.Reader, w io.Writer) *Confirmer {
	return &Confirmer{reader: NewLineReader(r), writer: w}
}

// Confirm prints prompt and reports whether the answer was yes. Anything
// other than y or yes, including end of input, counts as no.
func (c *Confirmer) Confirm(ctx context.Context, prompt string) (bool, error) {
	if _, err := fmt.Fprint(c.writer, FormatPrompt(prompt+" [y/N]")); err != nil {
		return false, fmt.Errorf("failed to write prompt: %w", err)
	}

	answer, err := c.reader.ReadLine(ctx)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		return false, err
	}

	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
