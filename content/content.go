// Package content orchestrates the fetch-and-process pipeline. A
// Service pairs the fetchers from package fetch with the processors
// from package process behind a single Get entry point that selects
// both by name, bounds the result length, and records metrics.
//
// Callers must validate the URL with safeurl.Validator and sanitize
// headers with safeurl.SanitizeHeaders before calling Get; the Service
// performs neither check and must not be exposed as a general-purpose
// fetch function without them.
package content

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/c360studio/pagefetch/fetch"
	"github.com/c360studio/pagefetch/process"
	"github.com/c360studio/pagefetch/safeurl"
)

// Default request parameters. Get applies the timeout and size
// defaults when the corresponding Request field is zero; the JS wait
// default is for callers that need one, since a zero wait is valid.
const (
	DefaultTimeoutSeconds = 30
	DefaultJSWaitMS       = 3000
	DefaultMaxBytes       = 2_000_000
	DefaultMaxChars       = 1_000_000
)

// ErrUnsupportedMethod reports a fetch or process method outside the
// recognized sets.
var ErrUnsupportedMethod = errors.New("unsupported method")

// Request describes one content retrieval.
type Request struct {
	// URL is the absolute URL to retrieve. Must already have passed
	// safety validation.
	URL string

	// FetchMethod selects the fetcher.
	FetchMethod fetch.Method

	// ProcessMethod selects the processor applied to the fetched text.
	ProcessMethod process.Method

	// TimeoutSeconds bounds the network work. Zero means
	// DefaultTimeoutSeconds.
	TimeoutSeconds int

	// JSWaitMS is the post-render settle wait for the browser fetcher.
	// Zero means no wait.
	JSWaitMS int

	// Headers are extra request headers, already sanitized. May be nil.
	Headers map[string]string

	// AllowRedirects controls whether the direct fetcher follows 3xx
	// responses.
	AllowRedirects bool

	// MaxBytes caps the raw body size. Zero means DefaultMaxBytes.
	MaxBytes int64

	// MaxChars caps the returned text length in runes. Zero means
	// DefaultMaxChars.
	MaxChars int
}

// withDefaults returns req with zero-valued size and timeout fields
// replaced by the package defaults.
func (r Request) withDefaults() Request {
	if r.TimeoutSeconds == 0 {
		r.TimeoutSeconds = DefaultTimeoutSeconds
	}
	if r.MaxBytes == 0 {
		r.MaxBytes = DefaultMaxBytes
	}
	if r.MaxChars == 0 {
		r.MaxChars = DefaultMaxChars
	}
	return r
}

// validate rejects requests that must not reach the network.
func (r Request) validate() error {
	if !r.FetchMethod.Valid() {
		return fmt.Errorf("%w: fetch method %q", ErrUnsupportedMethod, string(r.FetchMethod))
	}
	if !r.ProcessMethod.Valid() {
		return fmt.Errorf("%w: process method %q", ErrUnsupportedMethod, string(r.ProcessMethod))
	}
	if r.URL == "" {
		return errors.New("url is required")
	}
	if r.TimeoutSeconds < 1 {
		return fmt.Errorf("timeout must be positive, got %d", r.TimeoutSeconds)
	}
	if r.JSWaitMS < 0 {
		return fmt.Errorf("js wait must not be negative, got %d", r.JSWaitMS)
	}
	if r.MaxBytes < 1 {
		return fmt.Errorf("max bytes must be positive, got %d", r.MaxBytes)
	}
	if r.MaxChars < 1 {
		return fmt.Errorf("max chars must be positive, got %d", r.MaxChars)
	}
	return nil
}

// Service dispatches retrievals to the configured fetchers and
// processors. Each call is independent; a Service is safe for
// concurrent use.
type Service struct {
	fetchers   map[fetch.Method]fetch.Fetcher
	processors map[process.Method]process.Processor
	logger     *slog.Logger
}

// NewService creates a Service over the two fetchers. Processors are
// built internally since they carry no per-deployment configuration.
func NewService(direct, browser fetch.Fetcher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		fetchers: map[fetch.Method]fetch.Fetcher{
			fetch.MethodDirect:  direct,
			fetch.MethodBrowser: browser,
		},
		processors: map[process.Method]process.Processor{
			process.MethodRaw:         process.Raw{},
			process.MethodMarkdown:    process.NewMarkdown(logger),
			process.MethodReadability: process.NewReadability(logger),
		},
		logger: logger,
	}
}

// Get fetches req.URL with the selected fetch method, transforms the
// body with the selected process method, and returns at most
// req.MaxChars characters of the result, discarding the rest without a
// marker.
//
// Fetcher and processor errors are returned as received so callers can
// classify them with errors.Is and errors.As.
func (s *Service) Get(ctx context.Context, req Request) (string, error) {
	req = req.withDefaults()
	if err := req.validate(); err != nil {
		return "", err
	}

	logger := s.logger.With(
		"request_id", uuid.New().String(),
		"url", req.URL,
		"fetch_method", string(req.FetchMethod),
		"process_method", string(req.ProcessMethod),
	)
	logger.Info("Content retrieval started")

	start := time.Now()
	result, err := s.fetchers[req.FetchMethod].Fetch(ctx, fetch.Request{
		URL:            req.URL,
		Timeout:        time.Duration(req.TimeoutSeconds) * time.Second,
		Headers:        req.Headers,
		AllowRedirects: req.AllowRedirects,
		MaxBytes:       req.MaxBytes,
		JSWait:         time.Duration(req.JSWaitMS) * time.Millisecond,
	})
	if err != nil {
		observeRetrieval(req, err, time.Since(start))
		logger.Error("Content retrieval failed", "stage", "fetch", "error", err)
		return "", err
	}

	processed, err := s.processors[req.ProcessMethod].Process(result.RawContent)
	if err != nil {
		observeRetrieval(req, err, time.Since(start))
		logger.Error("Content retrieval failed", "stage", "process", "error", err)
		return "", err
	}

	processed = truncateRunes(processed, req.MaxChars)

	observeRetrieval(req, nil, time.Since(start))
	logger.Info("Content retrieval completed",
		"chars", utf8.RuneCountInString(processed),
		"elapsed", time.Since(start))
	return processed, nil
}

// truncateRunes returns the first limit runes of s.
func truncateRunes(s string, limit int) string {
	count := 0
	for i := range s {
		if count == limit {
			return s[:i]
		}
		count++
	}
	return s
}

// ErrorCode returns a stable snake_case code classifying a non-nil
// pipeline or validator error, for API responses and metric labels.
// Errors outside the known classes report as internal_error.
func ErrorCode(err error) string {
	var statusErr *fetch.StatusError
	var netErr net.Error
	switch {
	case errors.Is(err, ErrUnsupportedMethod):
		return "unsupported_method"
	case errors.Is(err, safeurl.ErrBlockedHostname):
		return "blocked_hostname"
	case errors.Is(err, safeurl.ErrResolutionFailed):
		return "resolution_failed"
	case errors.Is(err, safeurl.ErrNoAddresses):
		return "no_addresses"
	case errors.Is(err, safeurl.ErrDangerousAddress):
		return "dangerous_address"
	case errors.Is(err, fetch.ErrUnsupportedContentType):
		return "unsupported_content_type"
	case errors.Is(err, fetch.ErrSizeLimitExceeded):
		return "size_limit_exceeded"
	case errors.Is(err, fetch.ErrRenderingUnavailable):
		return "rendering_unavailable"
	case errors.As(err, &statusErr):
		return "upstream_status"
	case errors.As(err, &netErr), errors.Is(err, context.DeadlineExceeded):
		return "network_error"
	default:
		return "internal_error"
	}
}
