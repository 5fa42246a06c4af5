package cli

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineReader_ReadLine(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "single line", input: "y\n", want: []string{"y"}},
		{name: "surrounding whitespace", input: "  delete it \t\n", want: []string{"delete it"}},
		{name: "crlf", input: "yes\r\n", want: []string{"yes"}},
		{name: "blank line", input: "\n", want: []string{""}},
		{name: "final line without newline", input: "n", want: []string{"n"}},
		{name: "several lines", input: "one\ntwo\nthree\n", want: []string{"one", "two", "three"}},
		{name: "empty input", input: "", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := NewLineReader(strings.NewReader(tt.input))
			ctx := context.Background()

			for _, want := range tt.want {
				got, err := reader.ReadLine(ctx)
				require.NoError(t, err)
				assert.Equal(t, want, got)
			}

			_, err := reader.ReadLine(ctx)
			assert.ErrorIs(t, err, io.EOF)

			_, err = reader.ReadLine(ctx)
			assert.ErrorIs(t, err, io.EOF, "reads after the end keep reporting EOF")
		})
	}
}

func TestLineReader_Cancellation(t *testing.T) {
	t.Run("already canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := NewLineReader(strings.NewReader("y\n")).ReadLine(ctx)
		assert.ErrorIs(t, err, ErrInputCancelled)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("canceled while waiting keeps the late line", func(t *testing.T) {
		pr, pw := io.Pipe()
		defer func() { _ = pr.Close() }()

		reader := NewLineReader(pr)

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		_, err := reader.ReadLine(ctx)
		assert.ErrorIs(t, err, ErrInputCancelled)

		go func() {
			_, _ = io.WriteString(pw, "late answer\n")
			_ = pw.Close()
		}()

		got, err := reader.ReadLine(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "late answer", got)
	})
}
