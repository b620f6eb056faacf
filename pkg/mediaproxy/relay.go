// Package mediaproxy relays media bytes from a remote host to a downstream consumer without
// buffering the whole body.
package mediaproxy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"net"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"
)

const (
	// RelayContentType is the content type of every relayed stream.
	RelayContentType = "audio/webm"

	// DefaultChunkSize is the read buffer size per chunk.
	DefaultChunkSize = 32 * 1024

	// DefaultTimeout bounds connecting, waiting for headers, and each idle read.
	DefaultTimeout = 60 * time.Second

	// maxRejectedBody caps the upstream body excerpt kept for diagnostics.
	maxRejectedBody = 512
)

// Relay errors
var (
	// ErrInvalidTarget is returned when the target URL cannot be fetched.
	ErrInvalidTarget = errors.New("invalid stream target")

	// ErrUpstreamRejected is matched by every UpstreamRejectedError.
	ErrUpstreamRejected = errors.New("upstream rejected request")

	// ErrTransportInterrupted is matched by every TransportInterruptedError.
	ErrTransportInterrupted = errors.New("upstream transfer interrupted")

	// ErrIdleTimeout is wrapped when no bytes arrived within the idle timeout.
	ErrIdleTimeout = errors.New("upstream idle timeout")

	// ErrStreamConsumed is returned when Chunks is ranged over a second time.
	ErrStreamConsumed = errors.New("stream already consumed")
)

// Stream outcomes reported to the Observer.
const (
	OutcomeCompleted   = "completed"
	OutcomeInterrupted = "interrupted"
	OutcomeCancelled   = "cancelled"
	OutcomeRejected    = "rejected"
	OutcomeFailed      = "failed"
	OutcomeAbandoned   = "abandoned"
)

// UpstreamRejectedError is returned when the media host answers with a non-2xx status.
// No bytes have been relayed when it occurs.
type UpstreamRejectedError struct {
	StatusCode int
	Body       string
}

// Error implements the error interface.
func (e *UpstreamRejectedError) Error() string {
	msg := fmt.Sprintf("upstream returned %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// Is reports ErrUpstreamRejected as a match.
func (e *UpstreamRejectedError) Is(target error) bool {
	return target == ErrUpstreamRejected
}

// TransportInterruptedError is returned when the upstream connection fails. BytesDelivered is
// zero when the failure happened before response headers arrived.
type TransportInterruptedError struct {
	BytesDelivered int64
	Err            error
}

// Error implements the error interface.
func (e *TransportInterruptedError) Error() string {
	return fmt.Sprintf("upstream transfer interrupted after %d bytes: %v", e.BytesDelivered, e.Err)
}

// Unwrap returns the underlying transport error.
func (e *TransportInterruptedError) Unwrap() error {
	return e.Err
}

// Is reports ErrTransportInterrupted as a match.
func (e *TransportInterruptedError) Is(target error) bool {
	return target == ErrTransportInterrupted
}

// Target is a directly fetchable media URL plus the request headers the host requires.
type Target struct {
	URL     string
	Headers map[string]string
}

// Observer is notified once per stream with its outcome and the bytes relayed.
type Observer interface {
	ObserveStream(outcome string, bytes int64)
}

// Relay opens upstream media streams. It is safe for concurrent use.
type Relay struct {
	httpClient  *http.Client
	chunkSize   int
	idleTimeout time.Duration
	observer    Observer
}

// RelayOption is a function that configures a Relay.
type RelayOption func(*Relay)

// WithHTTPClient sets the HTTP client used to fetch content.
func WithHTTPClient(httpClient *http.Client) RelayOption {
	return func(r *Relay) {
		if httpClient != nil {
			r.httpClient = httpClient
		}
	}
}

// WithChunkSize sets the chunk buffer size.
func WithChunkSize(size int) RelayOption {
	return func(r *Relay) {
		if size > 0 {
			r.chunkSize = size
		}
	}
}

// WithIdleTimeout sets how long a single upstream read may wait for bytes.
func WithIdleTimeout(d time.Duration) RelayOption {
	return func(r *Relay) {
		if d > 0 {
			r.idleTimeout = d
		}
	}
}

// WithObserver sets the stream observer.
func WithObserver(o Observer) RelayOption {
	return func(r *Relay) {
		r.observer = o
	}
}

// NewHTTPClient returns a client for long-lived media transfers. It has no overall timeout;
// timeout bounds dialing, the TLS handshake and waiting for response headers.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   timeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			ForceAttemptHTTP2:     true,
			TLSHandshakeTimeout:   timeout,
			ResponseHeaderTimeout: timeout,
			MaxIdleConns:          100,
			IdleConnTimeout:       90 * time.Second,
		},
	}
}

// NewRelay creates a new relay.
func NewRelay(options ...RelayOption) *Relay {
	relay := &Relay{
		chunkSize:   DefaultChunkSize,
		idleTimeout: DefaultTimeout,
	}

	for _, option := range options {
		option(relay)
	}

	if relay.httpClient == nil {
		relay.httpClient = NewHTTPClient(DefaultTimeout)
	}

	return relay
}

// Open issues one GET for target. On a non-2xx status it returns *UpstreamRejectedError with
// the body already closed. Cancelling ctx at any point aborts the upstream request.
func (r *Relay) Open(ctx context.Context, target Target) (*Stream, error) {
	u, err := url.Parse(target.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		r.observe(OutcomeFailed, 0)
		return nil, fmt.Errorf("%w: %q", ErrInvalidTarget, target.URL)
	}

	streamCtx, cancel := context.WithCancel(ctx)

	req, err := http.NewRequestWithContext(streamCtx, http.MethodGet, u.String(), nil)
	if err != nil {
		cancel()
		r.observe(OutcomeFailed, 0)
		return nil, fmt.Errorf("%w: %v", ErrInvalidTarget, err)
	}
	for key, value := range target.Headers {
		req.Header.Set(key, value)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		cancel()
		r.observe(OutcomeFailed, 0)
		return nil, &TransportInterruptedError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, maxRejectedBody))
		resp.Body.Close()
		cancel()
		r.observe(OutcomeRejected, 0)
		return nil, &UpstreamRejectedError{StatusCode: resp.StatusCode, Body: string(excerpt)}
	}

	s := &Stream{
		parent:      ctx,
		cancel:      cancel,
		body:        resp.Body,
		contentType: resp.Header.Get("Content-Type"),
		statusCode:  resp.StatusCode,
		chunkSize:   r.chunkSize,
		idleTimeout: r.idleTimeout,
		observer:    r.observer,
	}
	s.watchdog = time.AfterFunc(r.idleTimeout, s.expire)
	s.watchdog.Stop()

	return s, nil
}

func (r *Relay) observe(outcome string, bytes int64) {
	if r.observer != nil {
		r.observer.ObserveStream(outcome, bytes)
	}
}

// Stream is an open upstream transfer. It is consumed once, by ranging over Chunks.
type Stream struct {
	parent      context.Context
	cancel      context.CancelFunc
	body        io.ReadCloser
	contentType string
	statusCode  int
	chunkSize   int
	idleTimeout time.Duration
	observer    Observer

	watchdog  *time.Timer
	idle      atomic.Bool
	consumed  atomic.Bool
	delivered atomic.Int64

	outcome   string
	closeOnce sync.Once
}

// UpstreamContentType returns the content type reported by the media host. The relayed
// content type is always RelayContentType.
func (s *Stream) UpstreamContentType() string {
	return s.contentType
}

// StatusCode returns the upstream status code.
func (s *Stream) StatusCode() int {
	return s.statusCode
}

// BytesDelivered returns the number of bytes handed to the consumer so far.
func (s *Stream) BytesDelivered() int64 {
	return s.delivered.Load()
}

// Chunks yields the upstream body in order, one read per chunk. The next upstream read happens
// only after the consumer's loop body returns, so a slow consumer slows the upstream transfer.
// The yielded slice is reused and is only valid until the next iteration.
//
// A failure ends the sequence with one non-nil error: *TransportInterruptedError for upstream
// failures, or the context error when the caller cancelled. Breaking out of the loop releases
// the upstream connection.
func (s *Stream) Chunks() iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		if !s.consumed.CompareAndSwap(false, true) {
			yield(nil, ErrStreamConsumed)
			return
		}

		outcome := OutcomeAbandoned
		defer func() { s.finish(outcome) }()

		buf := make([]byte, s.chunkSize)
		for {
			n, err := s.read(buf)
			if n > 0 {
				s.delivered.Add(int64(n))
				if !yield(buf[:n], nil) {
					outcome = OutcomeCancelled
					return
				}
			}

			switch {
			case err == nil:
				continue
			case errors.Is(err, io.EOF):
				outcome = OutcomeCompleted
				return
			case s.parent.Err() != nil:
				outcome = OutcomeCancelled
				yield(nil, s.parent.Err())
				return
			default:
				if s.idle.Load() {
					err = fmt.Errorf("%w after %s: %v", ErrIdleTimeout, s.idleTimeout, err)
				}
				outcome = OutcomeInterrupted
				yield(nil, &TransportInterruptedError{BytesDelivered: s.delivered.Load(), Err: err})
				return
			}
		}
	}
}

// read performs one upstream read with the idle watchdog armed.
func (s *Stream) read(buf []byte) (int, error) {
	s.watchdog.Reset(s.idleTimeout)
	n, err := s.body.Read(buf)
	s.watchdog.Stop()
	return n, err
}

// expire fires when a read waited longer than the idle timeout.
func (s *Stream) expire() {
	s.idle.Store(true)
	s.cancel()
}

func (s *Stream) finish(outcome string) {
	s.outcome = outcome
	s.Close()
}

// Close releases the upstream connection. It is safe to call more than once.
func (s *Stream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.watchdog.Stop()
		s.cancel()
		err = s.body.Close()
		if s.observer != nil {
			outcome := s.outcome
			if outcome == "" {
				outcome = OutcomeAbandoned
			}
			s.observer.ObserveStream(outcome, s.delivered.Load())
		}
	})
	return err
}
