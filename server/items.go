package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
)

// Item is a demo inventory record kept in memory.
type Item struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`
	IsAvailable bool    `json:"is_available"`
}

// ItemRequest is the JSON request body for creating or updating an
// item. IsAvailable is a pointer so an omitted field defaults to true.
type ItemRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	IsAvailable *bool   `json:"is_available"`
}

// ItemsResponse is the JSON response for GET /items.
type ItemsResponse struct {
	Items []Item `json:"items"`
	Count int    `json:"count"`
}

// ItemMutationResponse is the JSON response for item create, update,
// and delete.
type ItemMutationResponse struct {
	Message string `json:"message"`
	Item    Item   `json:"item"`
}

type itemNotFoundResponse struct {
	Error string `json:"error"`
}

// handleItems handles GET /items and POST /items.
func (h *Handler) handleItems(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listItems(w)
	case http.MethodPost:
		h.createItem(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleItemByID handles GET, PUT, and DELETE on /items/{id}.
func (h *Handler) handleItemByID(w http.ResponseWriter, r *http.Request) {
	idStr := strings.TrimPrefix(r.URL.Path, "/items/")
	id, err := strconv.Atoi(idStr)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_id", "Item ID must be an integer")
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.getItem(w, id)
	case http.MethodPut:
		h.updateItem(w, r, id)
	case http.MethodDelete:
		h.deleteItem(w, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) listItems(w http.ResponseWriter) {
	h.mu.Lock()
	items := make([]Item, len(h.items))
	copy(items, h.items)
	h.mu.Unlock()

	writeJSON(w, http.StatusOK, ItemsResponse{Items: items, Count: len(items)})
}

func (h *Handler) createItem(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeItemRequest(w, r)
	if !ok {
		return
	}

	item := itemFromRequest(req, 0)

	h.mu.Lock()
	item.ID = h.nextID
	h.nextID++
	h.items = append(h.items, item)
	h.mu.Unlock()

	writeJSON(w, http.StatusCreated, ItemMutationResponse{
		Message: "Item created successfully",
		Item:    item,
	})
}

func (h *Handler) getItem(w http.ResponseWriter, id int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, item := range h.items {
		if item.ID == id {
			writeJSON(w, http.StatusOK, item)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, itemNotFoundResponse{Error: "Item not found"})
}

func (h *Handler) updateItem(w http.ResponseWriter, r *http.Request, id int) {
	req, ok := decodeItemRequest(w, r)
	if !ok {
		return
	}

	h.mu.Lock()
	for i, existing := range h.items {
		if existing.ID == id {
			item := itemFromRequest(req, id)
			h.items[i] = item
			h.mu.Unlock()
			writeJSON(w, http.StatusOK, ItemMutationResponse{
				Message: "Item updated successfully",
				Item:    item,
			})
			return
		}
	}
	h.mu.Unlock()
	writeJSON(w, http.StatusNotFound, itemNotFoundResponse{Error: "Item not found"})
}

func (h *Handler) deleteItem(w http.ResponseWriter, id int) {
	h.mu.Lock()
	for i, item := range h.items {
		if item.ID == id {
			h.items = append(h.items[:i], h.items[i+1:]...)
			h.mu.Unlock()
			writeJSON(w, http.StatusOK, ItemMutationResponse{
				Message: "Item deleted successfully",
				Item:    item,
			})
			return
		}
	}
	h.mu.Unlock()
	writeJSON(w, http.StatusNotFound, itemNotFoundResponse{Error: "Item not found"})
}

// decodeItemRequest parses and validates an item body, writing the
// error response itself on failure.
func decodeItemRequest(w http.ResponseWriter, r *http.Request) (ItemRequest, bool) {
	var req ItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_json", "Failed to parse request body: "+err.Error())
		return ItemRequest{}, false
	}
	if req.Name == "" {
		writeJSONError(w, http.StatusBadRequest, "validation_error", "name is required")
		return ItemRequest{}, false
	}
	return req, true
}

// itemFromRequest builds an Item from a request body. An omitted
// is_available defaults to true.
func itemFromRequest(req ItemRequest, id int) Item {
	available := true
	if req.IsAvailable != nil {
		available = *req.IsAvailable
	}
	return Item{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		IsAvailable: available,
	}
}
