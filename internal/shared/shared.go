// package shared defines shared helpers
package shared

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// Placeholder rendered for optional workout fields with no value.
const Placeholder = "-"

// ISODate is the calendar date layout used on the wire and in forms.
const ISODate = "2006-01-02"

// NewLogger creates a new [log.Logger] instance with the specified [io.Writer], with timestamps and caller reporting enabled.
//
// The writer defaults to [os.Stderr]
func NewLogger(w io.Writer) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	opts := log.Options{ReportTimestamp: true, ReportCaller: true}
	return log.NewWithOptions(w, opts)
}

// NewFileLogger creates a [log.Logger] that appends to the file at path, creating parent directories as needed.
func NewFileLogger(path string) (*log.Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return NewLogger(f), nil
}

// WithLogger creates a child [log.Logger] with the specified key-value pairs added to all log entries.
func WithLogger(l *log.Logger, kv ...any) *log.Logger {
	return l.With(kv...)
}

// SetLogLevel sets the [log.Level] for the given [log.Logger].
func SetLogLevel(l *log.Logger, ll log.Level) {
	l.SetLevel(ll)
}

// GenerateID generates a new v4 [uuid.UUID] as a string
func GenerateID() string {
	return uuid.New().String()
}

// MarshalJSON encodes v as JSON, indented when pretty is set.
func MarshalJSON(v any, pretty bool) ([]byte, error) {
	if pretty {
		return json.MarshalIndent(v, "", "  ")
	}
	return json.Marshal(v)
}

// ParseDate accepts either a bare calendar date or a full RFC 3339 timestamp.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(ISODate, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("%w: unrecognized date %q", ErrInvalidInput, s)
}

// FormatDate renders a wire date with the given layout, returning the input unchanged when it cannot be parsed.
func FormatDate(s, layout string) string {
	t, err := ParseDate(s)
	if err != nil {
		return s
	}
	if layout == "" {
		layout = ISODate
	}
	return t.Format(layout)
}

// DateOnly truncates a wire date to YYYY-MM-DD.
func DateOnly(s string) string {
	return FormatDate(s, ISODate)
}

// FormatFloat renders an optional float, using [Placeholder] for nil or zero.
func FormatFloat(v *float64) string {
	if v == nil || *v == 0 {
		return Placeholder
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// FormatInt renders an optional integer, using [Placeholder] for nil or zero.
func FormatInt(v *int) string {
	if v == nil || *v == 0 {
		return Placeholder
	}
	return strconv.Itoa(*v)
}
