package cli

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/schollz/progressbar/v3"
)

// ImportProgress draws a progress bar for a bulk import. Report matches the
// ledger's per-row progress callback.
type ImportProgress struct {
	writer io.Writer
	bar    *progressbar.ProgressBar
	mu     sync.Mutex
}

// NewImportProgress creates a progress reporter writing to w.
func NewImportProgress(w io.Writer) *ImportProgress {
	return &ImportProgress{writer: w}
}

// Report records that done of total rows have been applied.
func (p *ImportProgress) Report(done, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	// A retried import starts again from the first row.
	if p.bar == nil || done == 1 {
		p.bar = p.newBar(total)
	}
	if err := p.bar.Set(done); err != nil {
		slog.Warn("Failed to update progress bar", "error", err)
	}
}

func (p *ImportProgress) newBar(total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(p.writer),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]Importing rows...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			if _, err := fmt.Fprintln(p.writer); err != nil {
				slog.Warn("Failed to write newline after progress bar", "error", err)
			}
		}),
	)
}
