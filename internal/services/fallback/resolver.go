// Package fallback resolves one logical request against an ordered list of interchangeable
// upstream sources, returning the first success.
package fallback

import (
	"context"
	"errors"
	"fmt"
	"time"

	"norelock.dev/mediagate/backend/internal/utils"
)

// DefaultAttemptTimeout bounds a single attempt against one source.
const DefaultAttemptTimeout = 10 * time.Second

// ErrAllSourcesExhausted is matched by every ExhaustedError.
var ErrAllSourcesExhausted = errors.New("all sources failed")

// Source is anything the resolver can try. Name identifies it in diagnostics and metrics.
type Source interface {
	Name() string
}

// Observer is notified after every attempt.
type Observer interface {
	ObserveAttempt(operation, source string, elapsed time.Duration, err error)
}

// AttemptError records a single failed attempt against one source.
type AttemptError struct {
	Source string
	Err    error
}

// Error implements the error interface.
func (e *AttemptError) Error() string {
	return fmt.Sprintf("source %s: %v", e.Source, e.Err)
}

// Unwrap returns the attempt's underlying error.
func (e *AttemptError) Unwrap() error {
	return e.Err
}

// ExhaustedError is returned when no source succeeded. Attempts are in the order they were made.
type ExhaustedError struct {
	Operation string
	Attempts  []*AttemptError
}

// Error implements the error interface.
func (e *ExhaustedError) Error() string {
	if len(e.Attempts) == 0 {
		return fmt.Sprintf("%s: no sources configured", e.Operation)
	}
	return fmt.Sprintf("%s: all %d sources failed, last error: %s", e.Operation, len(e.Attempts), e.LastError())
}

// Is reports ErrAllSourcesExhausted as a match.
func (e *ExhaustedError) Is(target error) bool {
	return target == ErrAllSourcesExhausted
}

// Unwrap exposes every attempt so errors.Is can see through to, e.g., context.DeadlineExceeded.
func (e *ExhaustedError) Unwrap() []error {
	errs := make([]error, len(e.Attempts))
	for i, a := range e.Attempts {
		errs[i] = a
	}
	return errs
}

// LastError returns the error string of the final attempt.
func (e *ExhaustedError) LastError() string {
	if len(e.Attempts) == 0 {
		return "no sources configured"
	}
	last := e.Attempts[len(e.Attempts)-1]
	if last.Err == nil {
		return ""
	}
	return last.Err.Error()
}

// Diagnostic implements utils.Diagnoser; the 502 envelope reports the final attempt.
func (e *ExhaustedError) Diagnostic() string {
	return e.LastError()
}

var _ utils.Diagnoser = (*ExhaustedError)(nil)

// Resolver holds the settings shared by every resolution. It has no mutable state and is safe
// for concurrent use.
type Resolver struct {
	timeout  time.Duration
	observer Observer
	logger   *utils.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithAttemptTimeout sets the per-attempt timeout.
func WithAttemptTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithObserver sets the attempt observer.
func WithObserver(o Observer) Option {
	return func(r *Resolver) {
		r.observer = o
	}
}

// NewResolver creates a resolver.
func NewResolver(logger *utils.Logger, options ...Option) *Resolver {
	if logger == nil {
		logger = utils.GetLogger()
	}
	r := &Resolver{
		timeout: DefaultAttemptTimeout,
		logger:  logger.Named("fallback"),
	}
	for _, option := range options {
		option(r)
	}
	return r
}

// AttemptTimeout returns the configured per-attempt timeout.
func (r *Resolver) AttemptTimeout() time.Duration {
	return r.timeout
}

// Resolve tries op against each source strictly in order, one attempt per source, and returns
// the first success. Sources after the first success are never invoked. If every source fails
// the error is an *ExhaustedError carrying all attempts.
func Resolve[S Source, T any](ctx context.Context, r *Resolver, operation string, sources []S, op func(context.Context, S) (T, error)) (T, error) {
	var zero T
	exhausted := &ExhaustedError{Operation: operation}

	for _, source := range sources {
		name := source.Name()

		if err := ctx.Err(); err != nil {
			exhausted.Attempts = append(exhausted.Attempts, &AttemptError{
				Source: name,
				Err:    fmt.Errorf("not attempted: %w", err),
			})
			break
		}

		start := time.Now()
		attemptCtx, cancel := context.WithTimeout(ctx, r.timeout)
		result, err := op(attemptCtx, source)
		cancel()
		elapsed := time.Since(start)

		if r.observer != nil {
			r.observer.ObserveAttempt(operation, name, elapsed, err)
		}

		if err == nil {
			r.logger.Debug("Source attempt succeeded", "operation", operation, "source", name, "elapsed", elapsed.String())
			return result, nil
		}

		r.logger.Warn("Source attempt failed", "operation", operation, "source", name, "elapsed", elapsed.String(), "error", err)
		exhausted.Attempts = append(exhausted.Attempts, &AttemptError{Source: name, Err: err})
	}

	return zero, exhausted
}
