package fixture

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 5, 17, 9, 30, 0, 0, time.UTC)

func writeFile(t *testing.T, dir, name string, data []byte) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o600))
}

func TestLoader_Load(t *testing.T) {
	dir := t.TempDir()
	notFound := `{"error":"NOT_FOUND","message":"Application not found"}`
	writeFile(t, dir, "updateApplicationStatus/put-update-application-status-notfound.json", []byte(notFound))

	l := NewLoader(dir)
	body, ok := l.Load("updateApplicationStatus/put-update-application-status-notfound.json")
	assert.True(t, ok)
	assert.Equal(t, notFound, body)
}

func TestLoader_Load_AbsolutePath(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "abs.json", []byte(`{}`))

	l := NewLoader("/nonexistent")
	body, ok := l.Load(filepath.Join(dir, "abs.json"))
	assert.True(t, ok)
	assert.Equal(t, `{}`, body)
}

func TestLoader_Load_StripsBOM(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bom.json", append([]byte{0xEF, 0xBB, 0xBF}, []byte(`{"a":1}`)...))
	// UTF-16LE with BOM
	writeFile(t, dir, "utf16.json", []byte{0xFF, 0xFE, '{', 0, '}', 0})

	l := NewLoader(dir)

	body, ok := l.Load("bom.json")
	assert.True(t, ok)
	assert.Equal(t, `{"a":1}`, body)

	body, ok = l.Load("utf16.json")
	assert.True(t, ok)
	assert.Equal(t, `{}`, body)
}

func TestLoader_Load_Fallback(t *testing.T) {
	tests := []struct {
		name string
		file string
	}{
		{"missing file", "createApplication/post-create-application-conflict.json"},
		{"path traversal", "../secrets.json"},
		{"directory", "."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&logs, nil))
			l := NewLoader(t.TempDir(), WithLogger(logger), WithClock(func() time.Time { return fixedNow }))

			body, ok := l.Load(tt.file)
			assert.False(t, ok)

			var got Fallback
			require.NoError(t, json.Unmarshal([]byte(body), &got))
			assert.Equal(t, NewFallback(tt.file, fixedNow), got)
			assert.Contains(t, logs.String(), "failed to load response file")
			assert.Contains(t, logs.String(), "level=ERROR")
		})
	}
}

func TestNewFallback(t *testing.T) {
	at := time.Date(2024, 5, 17, 11, 30, 0, 123000000, time.FixedZone("CEST", 2*3600))
	f := NewFallback("missing.json", at)

	assert.Equal(t, "CONFIGURATION_ERROR", f.Error)
	assert.Equal(t, "Failed to load mock response", f.Message)
	assert.Equal(t, "Response file 'missing.json' could not be loaded", f.Details)
	assert.Equal(t, "2024-05-17T09:30:00.123Z", f.Timestamp)

	want := `{
  "error": "CONFIGURATION_ERROR",
  "message": "Failed to load mock response",
  "details": "Response file 'missing.json' could not be loaded",
  "timestamp": "2024-05-17T09:30:00.123Z"
}
`
	assert.Equal(t, want, f.String())
}

func TestLoader_Resolve(t *testing.T) {
	l := NewLoader("fixtures")

	got, err := l.Resolve("a/b.json")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("fixtures", "a", "b.json"), got)

	_, err = l.Resolve("a/../../b.json")
	assert.Error(t, err)

	assert.Equal(t, "fixtures", l.Dir())
}
