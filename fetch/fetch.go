package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Method selects which fetcher retrieves a URL.
type Method string

// MethodDirect and MethodBrowser enumerate the fetch methods.
const (
	// MethodDirect issues a plain HTTP GET.
	MethodDirect Method = "direct"

	// MethodBrowser renders the page in a headless browser first.
	MethodBrowser Method = "browser"
)

// Valid reports whether m is a known fetch method.
func (m Method) Valid() bool {
	return m == MethodDirect || m == MethodBrowser
}

// Request describes a single fetch. The URL must already have passed
// safety validation and the headers must already be sanitized; fetchers
// assume both.
type Request struct {
	// URL is the absolute URL to fetch.
	URL string

	// Timeout bounds the network work of the fetch.
	Timeout time.Duration

	// Headers are extra request headers with lowercased keys, overlaid on
	// the fetcher's defaults. May be nil.
	Headers map[string]string

	// AllowRedirects controls whether the direct fetcher follows 3xx
	// responses. The browser fetcher always follows.
	AllowRedirects bool

	// MaxBytes caps the raw body size read by the direct fetcher.
	MaxBytes int64

	// JSWait is how long the browser fetcher waits for script-driven
	// rendering after the page settles.
	JSWait time.Duration
}

// Result is the outcome of a successful fetch.
type Result struct {
	// RawContent is the decoded page text.
	RawContent string

	// DeclaredContentType is the Content-Type the server sent, or
	// "text/html" for rendered pages.
	DeclaredContentType string
}

// Fetcher retrieves a URL as text.
type Fetcher interface {
	Fetch(ctx context.Context, req Request) (*Result, error)
}

// Fetch failures wrap these sentinels where a class applies; everything
// else (DNS, dial, TLS, timeouts) passes through wrapped with context.
var (
	// ErrUnsupportedContentType means the response declared a type outside
	// the allowed prefixes. No body bytes were read.
	ErrUnsupportedContentType = errors.New("unsupported content type")

	// ErrSizeLimitExceeded means the body passed MaxBytes mid-read.
	ErrSizeLimitExceeded = errors.New("size limit exceeded")

	// ErrRenderingUnavailable means the headless browser could not be
	// started at all.
	ErrRenderingUnavailable = errors.New("rendering engine unavailable")
)

// StatusError reports a non-success HTTP status. With redirects disabled a
// 3xx response is a non-success status.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.Code, http.StatusText(e.Code))
}
