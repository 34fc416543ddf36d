package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeySessionID  = "session_id"
	KeyBuilder    = "builder"
	KeyDoc        = "doc"
	KeyPath       = "path"
	KeyExtension  = "extension"
	KeySnapshot   = "snapshot"
	KeyOutcome    = "outcome"
	KeyVariant    = "variant"
	KeyEncoding   = "encoding"
	KeyCount      = "count"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func SessionID(id string) slog.Attr   { return slog.String(KeySessionID, id) }
func Builder(name string) slog.Attr   { return slog.String(KeyBuilder, name) }
func Doc(name string) slog.Attr       { return slog.String(KeyDoc, name) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Extension(ext string) slog.Attr  { return slog.String(KeyExtension, ext) }
func Snapshot(path string) slog.Attr  { return slog.String(KeySnapshot, path) }
func Outcome(o string) slog.Attr      { return slog.String(KeyOutcome, o) }
func Variant(v string) slog.Attr      { return slog.String(KeyVariant, v) }
func Encoding(e string) slog.Attr     { return slog.String(KeyEncoding, e) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
