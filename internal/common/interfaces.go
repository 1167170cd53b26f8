package common

import (
	"context"
	"time"

	"github.com/getsentry/sentry-go"
)

// ErrorReporter receives failures that are answered with a 500.
type ErrorReporter interface {
	Report(ctx context.Context, err error)
}

type NopReporter struct{}

func (NopReporter) Report(context.Context, error) {}

// SentryReporter forwards errors to the Sentry hub initialised by InitSentry.
type SentryReporter struct{}

func (SentryReporter) Report(ctx context.Context, err error) {
	hub := sentry.CurrentHub().Clone()
	hub.ConfigureScope(func(scope *sentry.Scope) {
		if id := RequestIDFromContext(ctx); id != "" {
			scope.SetTag("request_id", id)
		}
	})
	hub.CaptureException(err)
}

// InitSentry returns a reporter for the DSN, or NopReporter when dsn is empty.
// The returned flush func should run on shutdown.
func InitSentry(dsn, environment string) (ErrorReporter, func(), error) {
	if dsn == "" {
		return NopReporter{}, func() {}, nil
	}
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         dsn,
		Environment: environment,
	}); err != nil {
		return nil, nil, err
	}
	return SentryReporter{}, func() { sentry.Flush(2 * time.Second) }, nil
}
