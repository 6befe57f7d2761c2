package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"
)

// directUserAgent is sent by the direct fetcher unless the caller
// overrides it.
const directUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// chunkSize is the read granularity for the size-bounded body read.
const chunkSize = 8 * 1024

// DefaultContentTypePrefixes lists the Content-Type prefixes the direct
// fetcher accepts.
var DefaultContentTypePrefixes = []string{"text/", "application/xhtml", "application/xml"}

// Direct fetches pages with a plain HTTP GET. Redirect following, body
// size, and accepted content types are decided per request; the two
// underlying clients share one transport so connections are pooled.
type Direct struct {
	follow    *http.Client
	nofollow  *http.Client
	userAgent string
	prefixes  []string
	logger    *slog.Logger
}

// NewDirect builds the direct fetcher. Empty userAgent and prefixes select
// the package defaults.
func NewDirect(userAgent string, contentTypePrefixes []string, logger *slog.Logger) *Direct {
	if userAgent == "" {
		userAgent = directUserAgent
	}
	if len(contentTypePrefixes) == 0 {
		contentTypePrefixes = DefaultContentTypePrefixes
	}
	if logger == nil {
		logger = slog.Default()
	}

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: 10 * time.Second,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
	}

	return &Direct{
		follow: &http.Client{Transport: transport},
		nofollow: &http.Client{
			Transport: transport,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		userAgent: userAgent,
		prefixes:  append([]string(nil), contentTypePrefixes...),
		logger:    logger,
	}
}

// Fetch issues the GET and returns the decoded body text.
func (d *Direct) Fetch(ctx context.Context, req Request) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, req.Timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	httpReq.Header.Set("User-Agent", d.userAgent)
	httpReq.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	httpReq.Header.Set("Accept-Language", "en-US,en;q=0.5")
	// Caller headers overlay the defaults.
	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	client := d.nofollow
	if req.AllowRedirects {
		client = d.follow
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", req.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Code: resp.StatusCode}
	}

	// The content type gate runs before any body read.
	contentType := resp.Header.Get("Content-Type")
	if !allowedContentType(contentType, d.prefixes) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedContentType, contentType)
	}

	body, err := readBounded(resp.Body, req.MaxBytes)
	if err != nil {
		if errors.Is(err, ErrSizeLimitExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("read body: %w", err)
	}

	d.logger.Debug("Fetched URL directly",
		"url", req.URL,
		"status", resp.StatusCode,
		"bytes", len(body))

	return &Result{
		RawContent:          decodeText(body, contentType),
		DeclaredContentType: contentType,
	}, nil
}

// allowedContentType matches the raw header value against the allowed
// prefixes, so "text/html; charset=utf-8" passes the "text/" prefix. An
// absent Content-Type matches nothing.
func allowedContentType(contentType string, prefixes []string) bool {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	for _, prefix := range prefixes {
		if strings.HasPrefix(ct, prefix) {
			return true
		}
	}
	return false
}

// readBounded reads r in fixed-size chunks, failing the moment the running
// total exceeds maxBytes. Content-Length is not consulted; the limit holds
// whether or not the server declared a length. Peak buffering is maxBytes
// plus one chunk.
func readBounded(r io.Reader, maxBytes int64) ([]byte, error) {
	var buf bytes.Buffer
	chunk := make([]byte, chunkSize)
	var total int64

	for {
		n, err := r.Read(chunk)
		if n > 0 {
			total += int64(n)
			if total > maxBytes {
				return nil, fmt.Errorf("%w: body exceeds %d bytes", ErrSizeLimitExceeded, maxBytes)
			}
			buf.Write(chunk[:n])
		}
		if err == io.EOF {
			return buf.Bytes(), nil
		}
		if err != nil {
			return nil, err
		}
	}
}
