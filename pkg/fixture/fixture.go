package fixture

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/getmockd/contractmock/pkg/logging"
)

// ErrorCode is the "error" value of the fallback payload.
const ErrorCode = "CONFIGURATION_ERROR"

// Fallback is the payload returned in place of an unreadable fixture.
type Fallback struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Details   string `json:"details"`
	Timestamp string `json:"timestamp"`
}

// NewFallback builds the fallback payload for name.
func NewFallback(name string, at time.Time) Fallback {
	return Fallback{
		Error:     ErrorCode,
		Message:   "Failed to load mock response",
		Details:   fmt.Sprintf("Response file '%s' could not be loaded", name),
		Timestamp: at.UTC().Format(time.RFC3339Nano),
	}
}

// String renders the payload as indented JSON.
func (f Fallback) String() string {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"error":%q}`, ErrorCode)
	}
	return string(data) + "\n"
}

// Loader reads fixture files relative to a base directory.
type Loader struct {
	dir    string
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the logger used to report unreadable fixtures.
func WithLogger(l *slog.Logger) Option {
	return func(ld *Loader) {
		if l != nil {
			ld.logger = l
		}
	}
}

// WithClock overrides the time source of fallback timestamps.
func WithClock(now func() time.Time) Option {
	return func(ld *Loader) {
		if now != nil {
			ld.now = now
		}
	}
}

// NewLoader returns a Loader resolving relative names against dir.
// An empty dir means the working directory.
func NewLoader(dir string, opts ...Option) *Loader {
	l := &Loader{
		dir:    dir,
		logger: logging.Nop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Dir returns the base directory.
func (l *Loader) Dir() string {
	return l.dir
}

// Load returns the content of the named fixture. ok is false when the file
// could not be read, in which case body is the fallback payload.
func (l *Loader) Load(name string) (body string, ok bool) {
	data, err := l.read(name)
	if err != nil {
		l.logger.Error("failed to load response file", "file", name, "error", err)
		return NewFallback(name, l.now()).String(), false
	}
	return data, true
}

// Resolve returns the path a fixture name refers to.
func (l *Loader) Resolve(name string) (string, error) {
	cleanPath, safe := cleanName(name)
	if !safe {
		return "", fmt.Errorf("fixture path %q escapes the fixtures directory", name)
	}
	if !filepath.IsAbs(cleanPath) && l.dir != "" {
		cleanPath = filepath.Join(l.dir, cleanPath)
	}
	return cleanPath, nil
}

func (l *Loader) read(name string) (string, error) {
	path, err := l.Resolve(name)
	if err != nil {
		return "", err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	// Strip a UTF-8 BOM and transcode UTF-16 files that carry one.
	decoded, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), raw)
	if err != nil {
		return "", fmt.Errorf("decoding %s: %w", path, err)
	}
	return string(decoded), nil
}
