package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyCollection = "collection"
	KeyPassID     = "pass_id"
	KeyStage      = "stage"
	KeyKey        = "key"
	KeyPath       = "path"
	KeyFile       = "file"
	KeyResource   = "resource"
	KeyCount      = "count"
	KeyDurationMS = "duration_ms"
	KeyMethod     = "method"
	KeyStatus     = "status"
	KeyUserAgent  = "user_agent"
	KeyRemoteAddr = "remote_addr"
	KeyCache      = "cache"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Collection(c string) slog.Attr   { return slog.String(KeyCollection, c) }
func PassID(id string) slog.Attr      { return slog.String(KeyPassID, id) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func Key(k string) slog.Attr          { return slog.String(KeyKey, k) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func File(f string) slog.Attr         { return slog.String(KeyFile, f) }
func Resource(r string) slog.Attr     { return slog.String(KeyResource, r) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Method(m string) slog.Attr       { return slog.String(KeyMethod, m) }
func Status(code int) slog.Attr       { return slog.Int(KeyStatus, code) }
func UserAgent(ua string) slog.Attr   { return slog.String(KeyUserAgent, ua) }
func RemoteAddr(a string) slog.Attr   { return slog.String(KeyRemoteAddr, a) }
func Cache(result string) slog.Attr   { return slog.String(KeyCache, result) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
