// File: confcore/logging.go
package confcore

import (
	"log/slog"
	"sync/atomic"
)

var defaultLogger atomic.Pointer[slog.Logger]

func init() {
	defaultLogger.Store(slog.Default())
}

// SetLogger installs the *slog.Logger this package uses for
// ProviderRegistry lifecycle and error events. Nothing on the hot path
// (Convert, GetValue, raw lookups) logs at all -- only scope
// registration, release, and close, which are rare enough that
// structured logging costs nothing noticeable. A nil logger is
// ignored.
func SetLogger(l *slog.Logger) {
	if l == nil {
		return
	}
	defaultLogger.Store(l)
}

func logger() *slog.Logger {
	return defaultLogger.Load()
}
