package cli

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfirmer_Confirm(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{name: "y", input: "y\n", want: true},
		{name: "yes any case", input: "  YES \n", want: true},
		{name: "no", input: "n\n", want: false},
		{name: "empty answer", input: "\n", want: false},
		{name: "other text", input: "maybe\n", want: false},
		{name: "end of input", input: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			confirmer := NewConfirmer(strings.NewReader(tt.input), &out)

			got, err := confirmer.Confirm(context.Background(), "Delete category Food?")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Contains(t, out.String(), "Delete category Food? [y/N]")
		})
	}
}

func TestConfirmer_Canceled(t *testing.T) {
	pr, pw := io.Pipe()
	defer func() { _ = pw.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got, err := NewConfirmer(pr, io.Discard).Confirm(ctx, "Continue?")
	assert.ErrorIs(t, err, ErrInputCancelled)
	assert.False(t, got)
}
