package errors

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.New(slog.NewTextHandler(io.Discard, nil)))

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"nil error", nil, 0},
		{"validation", ValidationError("two regions").Build(), 2},
		{"snapshot mismatch", SnapshotError("mismatch").Build(), 3},
		{"missing artifact", NotFoundError("no output file").Build(), 4},
		{"decode", DecodeError("bad bytes").Build(), 6},
		{"config", ConfigError("bad config").Build(), 7},
		{"engine", EngineError("build failed").Build(), 11},
		{"wrapped classified", fmt.Errorf("outer: %w", NotFoundError("gone").Build()), 4},
		{"unclassified", fmt.Errorf("plain"), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, adapter.ExitCodeFor(tt.err))
		})
	}
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	quiet := NewCLIErrorAdapter(false, nil)
	verbose := NewCLIErrorAdapter(true, nil)

	internal := InternalError("boom").Build()
	require.Equal(t, "Internal error occurred (use -v for details)", quiet.FormatError(internal))
	require.Equal(t, internal.Error(), verbose.FormatError(internal))

	missing := NotFoundError("no output file exists").Build()
	require.Contains(t, quiet.FormatError(missing), "no output file exists")

	require.Equal(t, "Error: plain", quiet.FormatError(fmt.Errorf("plain")))
	require.Empty(t, quiet.FormatError(nil))
}

func TestCLIErrorAdapter_HandleError(t *testing.T) {
	var out, logs bytes.Buffer
	adapter := NewCLIErrorAdapter(false, slog.New(slog.NewTextHandler(&logs, nil)))
	adapter.out = &out
	code := -1
	adapter.exit = func(c int) { code = c }

	adapter.HandleError(NotFoundError("no output file exists").WithContext("path", "/x/index.html").Build())

	require.Equal(t, 4, code)
	require.Contains(t, out.String(), "no output file exists")
	require.Contains(t, logs.String(), "category=not_found")
	require.Contains(t, logs.String(), "path=/x/index.html")
}
