package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
)

// InterruptHandler turns SIGINT/SIGTERM into context cancellation and prints
// a notice describing what happened to the work in flight.
type InterruptHandler struct {
	out         io.Writer
	signals     chan os.Signal
	detail      string
	interrupted atomic.Bool
}

// NewInterruptHandler writes its notice to out, or stderr when out is nil.
// detail is printed under the notice when non-empty.
func NewInterruptHandler(out io.Writer, detail string) *InterruptHandler {
	if out == nil {
		out = os.Stderr
	}
	return &InterruptHandler{
		out:     out,
		detail:  detail,
		signals: make(chan os.Signal, 1),
	}
}

// Watch returns a context canceled on the first interrupt. The returned stop
// func releases the signal handler and cancels the context.
func (h *InterruptHandler) Watch(parent context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(parent)
	signal.Notify(h.signals, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(h.signals)
		select {
		case <-h.signals:
			if h.interrupted.CompareAndSwap(false, true) {
				h.notify()
			}
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

func (h *InterruptHandler) notify() {
	msg := "\n" + FormatWarning("Interrupted!") + "\n"
	if h.detail != "" {
		msg += FormatInfo(h.detail) + "\n"
	}
	_, _ = fmt.Fprint(h.out, msg)
}

// Interrupted reports whether a signal arrived.
func (h *InterruptHandler) Interrupted() bool {
	return h.interrupted.Load()
}
