package fallback

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"norelock.dev/mediagate/backend/internal/utils"
)

type namedSource string

func (s namedSource) Name() string { return string(s) }

type recordingObserver struct {
	mu       sync.Mutex
	sources  []string
	failures int
}

func (o *recordingObserver) ObserveAttempt(_, source string, _ time.Duration, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sources = append(o.sources, source)
	if err != nil {
		o.failures++
	}
}

func newTestResolver(opts ...Option) *Resolver {
	return NewResolver(utils.NewNopLogger(), opts...)
}

func TestResolveFirstSuccessWins(t *testing.T) {
	sources := []namedSource{"a", "b", "c"}
	var calls []string

	result, err := Resolve(context.Background(), newTestResolver(), "search", sources,
		func(_ context.Context, s namedSource) (string, error) {
			calls = append(calls, s.Name())
			if s == "a" {
				return "", errors.New("connection refused")
			}
			return "from " + s.Name(), nil
		})

	require.NoError(t, err)
	assert.Equal(t, "from b", result)
	assert.Equal(t, []string{"a", "b"}, calls, "sources after the first success must not be invoked")
}

func TestResolveFirstSourceSucceedsOnlyOnce(t *testing.T) {
	sources := []namedSource{"primary", "secondary"}
	calls := map[string]int{}

	_, err := Resolve(context.Background(), newTestResolver(), "home", sources,
		func(_ context.Context, s namedSource) (int, error) {
			calls[s.Name()]++
			return 1, nil
		})

	require.NoError(t, err)
	assert.Equal(t, map[string]int{"primary": 1}, calls)
}

func TestResolveExhausted(t *testing.T) {
	sources := []namedSource{"a", "b"}
	calls := map[string]int{}

	_, err := Resolve(context.Background(), newTestResolver(), "chapters", sources,
		func(_ context.Context, s namedSource) (struct{}, error) {
			calls[s.Name()]++
			return struct{}{}, errors.New(s.Name() + " returned 503")
		})

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAllSourcesExhausted))

	var exhausted *ExhaustedError
	require.True(t, errors.As(err, &exhausted))
	require.Len(t, exhausted.Attempts, 2)
	assert.Equal(t, "a", exhausted.Attempts[0].Source)
	assert.Equal(t, "b", exhausted.Attempts[1].Source)
	assert.Equal(t, "b returned 503", exhausted.LastError())
	assert.Equal(t, "b returned 503", exhausted.Diagnostic())
	assert.Equal(t, map[string]int{"a": 1, "b": 1}, calls, "each source is attempted exactly once")
}

func TestResolveExhaustedThroughAppError(t *testing.T) {
	sources := []namedSource{"a"}
	_, err := Resolve(context.Background(), newTestResolver(), "pages", sources,
		func(_ context.Context, _ namedSource) (int, error) {
			return 0, errors.New("404 Not Found")
		})

	appErr := utils.BadGatewayError("Failed to fetch chapter pages", err)
	body := utils.ErrorResponse(appErr)
	assert.Equal(t, "Failed to fetch chapter pages", body["error"])
	assert.Equal(t, "404 Not Found", body["last_error"])
}

func TestResolveNoSources(t *testing.T) {
	_, err := Resolve(context.Background(), newTestResolver(), "search", []namedSource{},
		func(_ context.Context, _ namedSource) (int, error) {
			t.Fatal("op must not run without sources")
			return 0, nil
		})

	var exhausted *ExhaustedError
	require.True(t, errors.As(err, &exhausted))
	assert.Empty(t, exhausted.Attempts)
	assert.Equal(t, "no sources configured", exhausted.LastError())
}

func TestResolveAttemptTimeout(t *testing.T) {
	sources := []namedSource{"slow", "fast"}
	r := newTestResolver(WithAttemptTimeout(20 * time.Millisecond))

	result, err := Resolve(context.Background(), r, "search", sources,
		func(ctx context.Context, s namedSource) (string, error) {
			if s == "slow" {
				<-ctx.Done()
				return "", ctx.Err()
			}
			return "ok", nil
		})

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
}

func TestResolveCallerCancellationStopsIteration(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	sources := []namedSource{"a", "b", "c"}
	var calls []string

	_, err := Resolve(ctx, newTestResolver(), "search", sources,
		func(_ context.Context, s namedSource) (int, error) {
			calls = append(calls, s.Name())
			cancel()
			return 0, errors.New("aborted")
		})

	assert.Equal(t, []string{"a"}, calls)
	require.True(t, errors.Is(err, ErrAllSourcesExhausted))
	assert.True(t, errors.Is(err, context.Canceled))

	var exhausted *ExhaustedError
	require.True(t, errors.As(err, &exhausted))
	require.Len(t, exhausted.Attempts, 2)
	assert.Equal(t, "b", exhausted.Attempts[1].Source)
}

func TestResolveObserver(t *testing.T) {
	obs := &recordingObserver{}
	r := newTestResolver(WithObserver(obs))
	sources := []namedSource{"a", "b", "c"}

	_, err := Resolve(context.Background(), r, "home", sources,
		func(_ context.Context, s namedSource) (int, error) {
			if s == "c" {
				return 1, nil
			}
			return 0, errors.New("down")
		})

	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, obs.sources)
	assert.Equal(t, 2, obs.failures)
}

func TestWithAttemptTimeoutIgnoresNonPositive(t *testing.T) {
	r := newTestResolver(WithAttemptTimeout(0))
	assert.Equal(t, DefaultAttemptTimeout, r.AttemptTimeout())
}
