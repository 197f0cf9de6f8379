package api

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/ahartman/provenance/internal/model"
	"github.com/ahartman/provenance/internal/store"
)

// ItemsHandler handles catalog item endpoints.
type ItemsHandler struct {
	DB *sql.DB
}

type createItemRequest struct {
	ImagePath string `json:"image_path"`
	Notes     string `json:"notes"`
	Analysis  string `json:"analysis"`
}

type updateAnalysisRequest struct {
	Analysis string `json:"analysis"`
}

// Create handles POST /api/items. The analysis payload may be anything the
// vision model produced; item creation never fails because of its shape.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id, err := store.AddItem(r.Context(), h.DB, req.ImagePath, req.Notes, req.Analysis)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to create item")
		return
	}
	jsonResponse(w, http.StatusCreated, map[string]int64{"id": id})
}

// List handles GET /api/items.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := store.ListItems(r.Context(), h.DB)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list items")
		return
	}
	if items == nil {
		items = []model.Item{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// Search handles POST /api/items/search, the enhanced listing with free-text
// search, faceted filters, sorting, and pagination.
func (h *ItemsHandler) Search(w http.ResponseWriter, r *http.Request) {
	var opts store.SearchOptions
	if err := decodeJSON(w, r, &opts); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	items, filtered, total, err := store.SearchItems(r.Context(), h.DB, opts)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	if items == nil {
		items = []model.Item{}
	}
	jsonResponse(w, http.StatusOK, map[string]any{
		"items":          items,
		"filtered_count": filtered,
		"total_count":    total,
	})
}

// Get handles GET /api/items/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	item, err := store.GetItem(r.Context(), h.DB, id)
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get item")
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// UpdateAnalysis handles PUT /api/items/{id}/analysis.
func (h *ItemsHandler) UpdateAnalysis(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	var req updateAnalysisRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := store.UpdateItemAnalysis(r.Context(), h.DB, id, req.Analysis)
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to update analysis")
		return
	}
	jsonResponse(w, http.StatusOK, nil)
}

// UpdateFields handles PATCH /api/items/{id}/fields.
func (h *ItemsHandler) UpdateFields(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	var fields map[string]any
	if err := decodeJSON(w, r, &fields); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := store.UpdateItemFields(r.Context(), h.DB, id, fields)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !updated {
		jsonError(w, http.StatusNotFound, "item not found or no fields supplied")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]bool{"updated": true})
}

// Prices handles GET /api/items/{id}/prices.
func (h *ItemsHandler) Prices(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	low, median, high, err := store.GetPriceRange(r.Context(), h.DB, id)
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get price range")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]*float64{
		"low":    low,
		"median": median,
		"high":   high,
	})
}

// Revisions handles GET /api/items/{id}/revisions.
func (h *ItemsHandler) Revisions(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	revisions, err := store.GetRevisionHistory(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get revisions")
		return
	}
	if revisions == nil {
		revisions = []model.Revision{}
	}
	jsonResponse(w, http.StatusOK, revisions)
}

// Changes handles GET /api/items/{id}/changes.
func (h *ItemsHandler) Changes(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	changes, err := store.GetItemChanges(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get changes")
		return
	}
	if changes == nil {
		changes = []model.ItemChange{}
	}
	jsonResponse(w, http.StatusOK, changes)
}

// itemID parses the {id} path value, writing a 400 on failure.
func itemID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return 0, false
	}
	return id, true
}
