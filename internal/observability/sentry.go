package observability

import (
	"time"

	"github.com/getsentry/sentry-go"
)

const flushTimeout = 2 * time.Second

// InitSentry starts error reporting when a DSN is configured. Without
// one it returns a no-op flush so callers can defer it unconditionally.
func InitSentry(dsn, env, release string) (func(), error) {
	if dsn == "" {
		return func() {}, nil
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:         dsn,
		Environment: env,
		Release:     release,
		ServerName:  "poin-api",
	})
	if err != nil {
		return func() {}, err
	}
	return func() { sentry.Flush(flushTimeout) }, nil
}

// CaptureErr reports unexpected errors. Expected application errors
// (validation, conflicts) never reach this path.
func CaptureErr(err error) {
	if err != nil {
		sentry.CaptureException(err)
	}
}
