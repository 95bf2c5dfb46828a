// Package diagnostics reports type-protector violations — a state
// variable's Calculate handing back a Value of the wrong Kind, or a
// Kind-mismatched accessor call inside Calculate or RequestInverse —
// before the process aborts. These are programming errors
// in a component type's registration, not recoverable user input
// problems, so the contract is report-then-crash rather than
// report-and-continue.
package diagnostics

import (
	"fmt"
	"log"
	"time"

	"github.com/getsentry/sentry-go"
)

// Reporter receives a type-protector violation just before Guard lets the
// originating panic continue unwinding.
type Reporter interface {
	ReportTypeProtectorViolation(component, stateVar string, panicValue any)
	Flush(timeout time.Duration) error
}

// ConsoleReporter logs violations to stderr. It is the default, so a
// violation is never silently swallowed even when nothing has opted into
// Sentry reporting.
type ConsoleReporter struct{}

func (ConsoleReporter) ReportTypeProtectorViolation(component, stateVar string, panicValue any) {
	log.Printf("[FATAL] type protector violation in %s#%s: %v", component, stateVar, panicValue)
}

func (ConsoleReporter) Flush(time.Duration) error { return nil }

var global Reporter = ConsoleReporter{}

// SetReporter installs the reporter Guard reports through. Passing nil
// restores the console default.
func SetReporter(r Reporter) {
	if r == nil {
		r = ConsoleReporter{}
	}
	global = r
}

// Guard runs fn, reporting and re-panicking if it panics. It wraps every
// Calculate and RequestInverse call so a type-protector violation is
// captured with component/state-variable context before the process goes
// down, instead of surfacing as a bare runtime panic with no domain
// context attached.
func Guard(component, stateVar string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			global.ReportTypeProtectorViolation(component, stateVar, r)
			panic(r)
		}
	}()
	fn()
}

// SentryReporter sends violations to Sentry as captured exceptions,
// tagged with the offending component and state variable, before Guard
// re-panics and the process aborts.
type SentryReporter struct {
	hub *sentry.Hub
}

// SentryOption configures the Sentry client used by NewSentryReporter.
type SentryOption func(*sentry.ClientOptions)

// WithEnvironment sets the Sentry environment tag for every reported event.
func WithEnvironment(environment string) SentryOption {
	return func(opts *sentry.ClientOptions) { opts.Environment = environment }
}

// WithRelease sets the Sentry release identifier for every reported event.
func WithRelease(release string) SentryOption {
	return func(opts *sentry.ClientOptions) { opts.Release = release }
}

// NewSentryReporter initializes the Sentry SDK with dsn and returns a
// reporter bound to its current hub. An empty dsn disables sending,
// useful in tests that want the call sites exercised without a network
// dependency.
func NewSentryReporter(dsn string, opts ...SentryOption) (*SentryReporter, error) {
	clientOpts := sentry.ClientOptions{Dsn: dsn}
	for _, opt := range opts {
		opt(&clientOpts)
	}
	if err := sentry.Init(clientOpts); err != nil {
		return nil, fmt.Errorf("diagnostics: initializing sentry: %w", err)
	}
	return &SentryReporter{hub: sentry.CurrentHub()}, nil
}

func (r *SentryReporter) ReportTypeProtectorViolation(component, stateVar string, panicValue any) {
	r.hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("component", component)
		scope.SetTag("state_var", stateVar)
		scope.SetExtra("panic_value", panicValue)
		r.hub.CaptureException(fmt.Errorf("type protector violation in %s#%s: %v", component, stateVar, panicValue))
	})
}

func (r *SentryReporter) Flush(timeout time.Duration) error {
	sentry.Flush(timeout)
	return nil
}
