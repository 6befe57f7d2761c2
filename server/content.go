package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/c360studio/pagefetch/config"
	"github.com/c360studio/pagefetch/content"
	"github.com/c360studio/pagefetch/fetch"
	"github.com/c360studio/pagefetch/process"
	"github.com/c360studio/pagefetch/safeurl"
)

// Bounds enforced on ContentRequest fields when present.
const (
	minTimeoutSeconds = 1
	maxTimeoutSeconds = 600
	maxJSWaitMS       = 60_000
	minMaxBytes       = 10_000
	maxMaxBytes       = 50_000_000
	minMaxChars       = 10_000
	maxMaxChars       = 10_000_000
)

// ContentRequest is the wire request for content retrieval, shared by
// the HTTP endpoint and the NATS facade. Numeric fields are pointers so
// an omitted field falls back to the configured default while a present
// one is range-checked.
type ContentRequest struct {
	URL            string            `json:"url"`
	FetchMethod    string            `json:"fetch_method"`
	ProcessMethod  string            `json:"process_method"`
	TimeoutSeconds *int              `json:"timeout_seconds"`
	JSWaitMS       *int              `json:"js_wait_ms"`
	Headers        map[string]string `json:"headers"`
	AllowRedirects bool              `json:"allow_redirects"`
	MaxBytes       *int64            `json:"max_bytes"`
	MaxChars       *int              `json:"max_chars"`
}

// ContentResponse is the wire response for a successful retrieval.
type ContentResponse struct {
	URL           string `json:"url"`
	FetchMethod   string `json:"fetch_method"`
	ProcessMethod string `json:"process_method"`
	Content       string `json:"content"`
	Chars         int    `json:"chars"`
}

// APIError pairs a stable error code with a human-readable message.
// Transports map the code to their own failure signaling.
type APIError struct {
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// ContentExecutor runs wire-level content requests for any transport:
// schema bounds, header sanitizing, URL safety validation, then the
// fetch-and-process pipeline.
type ContentExecutor struct {
	getter    ContentGetter
	validator *safeurl.Validator
	limits    config.LimitsConfig
}

// NewContentExecutor creates a ContentExecutor.
func NewContentExecutor(getter ContentGetter, validator *safeurl.Validator, limits config.LimitsConfig) *ContentExecutor {
	return &ContentExecutor{
		getter:    getter,
		validator: validator,
		limits:    limits,
	}
}

// Execute validates req and runs the pipeline. Exactly one of the
// response and the error is non-nil.
func (e *ContentExecutor) Execute(ctx context.Context, req ContentRequest) (*ContentResponse, *APIError) {
	if req.URL == "" {
		return nil, &APIError{Code: "validation_error", Message: "url is required"}
	}

	fetchMethod := fetch.MethodDirect
	if req.FetchMethod != "" {
		fetchMethod = fetch.Method(req.FetchMethod)
	}
	if !fetchMethod.Valid() {
		return nil, &APIError{
			Code:    "unsupported_method",
			Message: fmt.Sprintf("Unknown fetch_method %q. Supported: direct, browser", req.FetchMethod),
		}
	}

	processMethod := process.MethodRaw
	if req.ProcessMethod != "" {
		processMethod = process.Method(req.ProcessMethod)
	}
	if !processMethod.Valid() {
		return nil, &APIError{
			Code:    "unsupported_method",
			Message: fmt.Sprintf("Unknown process_method %q. Supported: raw, markdown, readability", req.ProcessMethod),
		}
	}

	if msg := checkBounds(req); msg != "" {
		return nil, &APIError{Code: "validation_error", Message: msg}
	}

	headers := safeurl.SanitizeHeaders(req.Headers)

	// Validator failures are always client errors, including malformed
	// URLs the classifier does not name.
	if err := e.validator.Validate(ctx, req.URL); err != nil {
		code := content.ErrorCode(err)
		if code == "internal_error" {
			code = "invalid_url"
		}
		return nil, &APIError{Code: code, Message: err.Error()}
	}

	creq := content.Request{
		URL:            req.URL,
		FetchMethod:    fetchMethod,
		ProcessMethod:  processMethod,
		TimeoutSeconds: int(e.limits.DefaultTimeout / time.Second),
		JSWaitMS:       int(e.limits.DefaultJSWait / time.Millisecond),
		Headers:        headers,
		AllowRedirects: req.AllowRedirects,
		MaxBytes:       e.limits.MaxBytes,
		MaxChars:       e.limits.MaxChars,
	}
	if req.TimeoutSeconds != nil {
		creq.TimeoutSeconds = *req.TimeoutSeconds
	}
	if req.JSWaitMS != nil {
		creq.JSWaitMS = *req.JSWaitMS
	}
	if req.MaxBytes != nil {
		creq.MaxBytes = *req.MaxBytes
	}
	if req.MaxChars != nil {
		creq.MaxChars = *req.MaxChars
	}

	text, err := e.getter.Get(ctx, creq)
	if err != nil {
		return nil, &APIError{Code: content.ErrorCode(err), Message: err.Error()}
	}

	return &ContentResponse{
		URL:           req.URL,
		FetchMethod:   string(fetchMethod),
		ProcessMethod: string(processMethod),
		Content:       text,
		Chars:         utf8.RuneCountInString(text),
	}, nil
}

// handleContent handles POST /content - fetch a URL and return its
// processed content.
func (h *Handler) handleContent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req ContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_json", "Failed to parse request body: "+err.Error())
		return
	}

	resp, apiErr := h.executor.Execute(r.Context(), req)
	if apiErr != nil {
		writeJSONError(w, statusForCode(apiErr.Code), apiErr.Code, apiErr.Message)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// checkBounds validates the optional numeric fields against their
// documented ranges. Returns an empty string when all are in range.
func checkBounds(req ContentRequest) string {
	if req.TimeoutSeconds != nil && (*req.TimeoutSeconds < minTimeoutSeconds || *req.TimeoutSeconds > maxTimeoutSeconds) {
		return fmt.Sprintf("timeout_seconds must be between %d and %d", minTimeoutSeconds, maxTimeoutSeconds)
	}
	if req.JSWaitMS != nil && (*req.JSWaitMS < 0 || *req.JSWaitMS > maxJSWaitMS) {
		return fmt.Sprintf("js_wait_ms must be between 0 and %d", maxJSWaitMS)
	}
	if req.MaxBytes != nil && (*req.MaxBytes < minMaxBytes || *req.MaxBytes > maxMaxBytes) {
		return fmt.Sprintf("max_bytes must be between %d and %d", minMaxBytes, maxMaxBytes)
	}
	if req.MaxChars != nil && (*req.MaxChars < minMaxChars || *req.MaxChars > maxMaxChars) {
		return fmt.Sprintf("max_chars must be between %d and %d", minMaxChars, maxMaxChars)
	}
	return ""
}

// statusForCode maps a pipeline error code to an HTTP status. Upstream
// failures are gateway errors; only a missing rendering engine is
// reported as unavailable.
func statusForCode(code string) int {
	switch code {
	case "invalid_json", "validation_error", "invalid_url",
		"unsupported_method", "blocked_hostname", "resolution_failed", "no_addresses", "dangerous_address":
		return http.StatusBadRequest
	case "rendering_unavailable":
		return http.StatusServiceUnavailable
	case "internal_error":
		return http.StatusInternalServerError
	default:
		return http.StatusBadGateway
	}
}
