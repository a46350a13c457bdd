// Package errtrack reports unexpected failures to an error tracking service.
package errtrack

import (
	"context"
	"time"

	"github.com/getsentry/sentry-go"
)

// Tracker records errors that need operator attention.
type Tracker interface {
	CaptureError(ctx context.Context, err error, tags map[string]string)
	Flush(timeout time.Duration) bool
}

// Options configures the Sentry tracker.
type Options struct {
	DSN         string
	Environment string
	SampleRate  float64
	Release     string

	// BeforeSend may inspect or drop events. Tests use it to observe them.
	BeforeSend func(event *sentry.Event, hint *sentry.EventHint) *sentry.Event
}

// Sentry implements Tracker via Sentry
type Sentry struct {
	hub *sentry.Hub
}

// New creates a Sentry tracker and binds it to the global hub so panics
// recovered by sentry-go integrations are reported too.
func New(opts Options) (*Sentry, error) {
	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:         opts.DSN,
		Environment: opts.Environment,
		SampleRate:  opts.SampleRate,
		Release:     opts.Release,
		BeforeSend:  opts.BeforeSend,
	})
	if err != nil {
		return nil, err
	}

	sentry.CurrentHub().BindClient(client)
	return &Sentry{hub: sentry.NewHub(client, sentry.NewScope())}, nil
}

// CaptureError sends an error to Sentry
func (s *Sentry) CaptureError(ctx context.Context, err error, tags map[string]string) {
	if err == nil {
		return
	}
	hub := s.hub.Clone()

	hub.ConfigureScope(func(scope *sentry.Scope) {
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		if userID, ok := UserFrom(ctx); ok {
			scope.SetUser(sentry.User{ID: userID})
		}
	})

	hub.CaptureException(err)
}

// Flush waits for pending events to be sent.
func (s *Sentry) Flush(timeout time.Duration) bool {
	return s.hub.Flush(timeout)
}

// Noop discards every error. It is used when no DSN is configured.
type Noop struct{}

func (Noop) CaptureError(context.Context, error, map[string]string) {}

func (Noop) Flush(time.Duration) bool { return true }

type userKey struct{}

// WithUser tags ctx with the user on whose behalf work is done.
func WithUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userKey{}, userID)
}

// UserFrom returns the user set by WithUser.
func UserFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userKey{}).(string)
	return id, ok && id != ""
}
