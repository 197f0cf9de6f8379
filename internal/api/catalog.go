package api

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/ahartman/provenance/internal/store"
)

// CatalogHandler handles the catalog-wide read endpoints and maintenance
// operations that aren't scoped to one item.
type CatalogHandler struct {
	DB *sql.DB
}

// FilterOptions handles GET /api/filters.
func (h *CatalogHandler) FilterOptions(w http.ResponseWriter, r *http.Request) {
	opts, err := store.GetFilterOptions(r.Context(), h.DB)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get filter options")
		return
	}
	jsonResponse(w, http.StatusOK, opts)
}

// Analytics handles GET /api/analytics. Partial results are served as-is;
// the aggregator never fails outright.
func (h *CatalogHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, store.GetComprehensiveAnalytics(r.Context(), h.DB))
}

// Reextract handles POST /api/maintenance/reextract, re-running field and
// price extraction over every item's preserved analysis payload.
func (h *CatalogHandler) Reextract(w http.ResponseWriter, r *http.Request) {
	processed, err := store.ReextractAll(r.Context(), h.DB)
	if err != nil {
		// Processed items are durably updated even when the run stops early.
		jsonResponse(w, http.StatusOK, map[string]any{
			"processed": processed,
			"error":     err.Error(),
		})
		return
	}
	jsonResponse(w, http.StatusOK, map[string]any{"processed": processed})
}

// SettingsHandler handles the key/value settings endpoints used by the
// collaborating UI's settings page.
type SettingsHandler struct {
	DB *sql.DB
}

type settingRequest struct {
	Value string `json:"value"`
}

// Get handles GET /api/settings/{key}.
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	value, err := store.GetSetting(r.Context(), h.DB, key)
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, http.StatusNotFound, "setting not found")
		return
	}
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get setting")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"key": key, "value": value})
}

// Set handles PUT /api/settings/{key}.
func (h *SettingsHandler) Set(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	var req settingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := store.SetSetting(r.Context(), h.DB, key, req.Value); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to store setting")
		return
	}
	jsonResponse(w, http.StatusOK, nil)
}
