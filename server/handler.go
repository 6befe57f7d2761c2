package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/c360studio/pagefetch/config"
	"github.com/c360studio/pagefetch/content"
	"github.com/c360studio/pagefetch/safeurl"
)

// ContentGetter retrieves processed page content.
type ContentGetter interface {
	Get(ctx context.Context, req content.Request) (string, error)
}

// Handler handles HTTP requests for the pagefetch API.
type Handler struct {
	executor *ContentExecutor
	logger   *slog.Logger

	mu     sync.Mutex
	items  []Item
	nextID int
}

// NewHandler creates a new HTTP handler.
func NewHandler(getter ContentGetter, validator *safeurl.Validator, limits config.LimitsConfig, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		executor: NewContentExecutor(getter, validator, limits),
		logger:   logger,
		items:    make([]Item, 0),
		nextID:   1,
	}
}

// RegisterRoutes registers all HTTP routes on the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/", h.handleIndex)
	mux.HandleFunc("/health", h.handleHealth)
	mux.HandleFunc("/content", h.handleContent)
	mux.HandleFunc("/items", h.handleItems)
	mux.HandleFunc("/items/", h.handleItemByID)
	mux.HandleFunc("/message", h.handleMessage)
	mux.Handle("/metrics", promhttp.Handler())
}

const indexHTML = `<!DOCTYPE html>
<html>
<head>
    <title>pagefetch</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 40px; }
        h1 { color: #333; }
        .endpoint { background: #f4f4f4; padding: 10px; margin: 10px 0; border-radius: 5px; }
    </style>
</head>
<body>
    <h1>pagefetch</h1>
    <p>The API server is running.</p>

    <h2>Endpoints:</h2>
    <div class="endpoint"><strong>GET /</strong> - This page</div>
    <div class="endpoint"><strong>GET /health</strong> - Health check</div>
    <div class="endpoint"><strong>POST /content</strong> - Fetch a URL and return its processed content</div>
    <div class="endpoint"><strong>GET /items</strong> - List all items</div>
    <div class="endpoint"><strong>POST /items</strong> - Create an item</div>
    <div class="endpoint"><strong>GET /items/{id}</strong> - Get an item</div>
    <div class="endpoint"><strong>PUT /items/{id}</strong> - Update an item</div>
    <div class="endpoint"><strong>DELETE /items/{id}</strong> - Delete an item</div>
    <div class="endpoint"><strong>POST /message</strong> - Echo a message</div>
    <div class="endpoint"><strong>GET /metrics</strong> - Prometheus metrics</div>
</body>
</html>
`

// HealthResponse is the JSON response for GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// ErrorResponse is a standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// handleIndex handles GET / - the HTML index page.
func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	// The root pattern matches everything not matched elsewhere.
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(indexHTML))
}

// handleHealth handles GET /health - health check.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "healthy",
		Message: "Server is running",
	})
}

// MessageRequest is the JSON request for POST /message.
type MessageRequest struct {
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}

// MessageResponse is the JSON response for POST /message.
type MessageResponse struct {
	ReceivedMessage string         `json:"received_message"`
	ReceivedData    map[string]any `json:"received_data"`
	Response        string         `json:"response"`
	Timestamp       string         `json:"timestamp"`
}

// handleMessage handles POST /message - generic message echo.
func (h *Handler) handleMessage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_json", "Failed to parse request body: "+err.Error())
		return
	}
	if req.Message == "" {
		writeJSONError(w, http.StatusBadRequest, "validation_error", "message is required")
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{
		ReceivedMessage: req.Message,
		ReceivedData:    req.Data,
		Response:        "Message received successfully",
		Timestamp:       time.Now().UTC().Format(time.RFC3339),
	})
}

// Helper functions

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// writeJSONError writes a JSON error response.
func writeJSONError(w http.ResponseWriter, status int, errorCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   errorCode,
		Message: message,
	})
}
