package api

import (
	"database/sql"
	"errors"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ahartman/provenance/internal/imaging"
	"github.com/ahartman/provenance/internal/model"
	"github.com/ahartman/provenance/internal/store"
)

// maxUploadSize bounds multipart image uploads.
const maxUploadSize = 32 << 20

// ImagesHandler handles image attachment endpoints. Dir is the image
// library directory uploads are stored into.
type ImagesHandler struct {
	DB  *sql.DB
	Dir string
}

type annotateRequest struct {
	Path       string `json:"path"`
	Annotation string `json:"annotation"`
}

// List handles GET /api/items/{id}/images.
func (h *ImagesHandler) List(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	images, err := store.GetImages(r.Context(), h.DB, id)
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list images")
		return
	}
	if images == nil {
		images = []model.Image{}
	}
	jsonResponse(w, http.StatusOK, images)
}

// Upload handles POST /api/items/{id}/images: a multipart form with an
// "image" file and an optional "annotation" field. The photo is validated,
// normalized, and stored in the library before the catalog references it.
func (h *ImagesHandler) Upload(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, _, err := r.FormFile("image")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "image file required")
		return
	}
	defer file.Close()

	path, err := imaging.Store(h.Dir, file)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	imageID, err := store.AddImage(r.Context(), h.DB, id, path, r.FormValue("annotation"))
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to add image")
		return
	}

	jsonResponse(w, http.StatusCreated, map[string]any{"id": imageID, "image_path": path})
}

// Annotate handles PUT /api/items/{id}/images/annotation.
func (h *ImagesHandler) Annotate(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	var req annotateRequest
	if err := decodeJSON(w, r, &req); err != nil || req.Path == "" {
		jsonError(w, http.StatusBadRequest, "path required")
		return
	}

	err := store.AnnotateImage(r.Context(), h.DB, id, req.Path, req.Annotation)
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, http.StatusNotFound, "image not found")
		return
	}
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to annotate image")
		return
	}
	jsonResponse(w, http.StatusOK, nil)
}

// Replace handles POST /api/items/{id}/images/replace: a multipart form
// with the old "path" and a new "image" file.
func (h *ImagesHandler) Replace(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	oldPath := r.FormValue("path")
	if oldPath == "" {
		jsonError(w, http.StatusBadRequest, "path required")
		return
	}
	file, _, err := r.FormFile("image")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "image file required")
		return
	}
	defer file.Close()

	newPath, err := imaging.Store(h.Dir, file)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	err = store.ReplaceImage(r.Context(), h.DB, id, oldPath, newPath)
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, http.StatusNotFound, "image not found")
		return
	}
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to replace image")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"image_path": newPath})
}

// Delete handles DELETE /api/items/{id}/images?path=... With keep_file=true
// the reference is detached but logged as a remove rather than a delete, for
// photos that stay in the library.
func (h *ImagesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	path := r.URL.Query().Get("path")
	if path == "" {
		jsonError(w, http.StatusBadRequest, "path required")
		return
	}

	var err error
	if keep, _ := strconv.ParseBool(r.URL.Query().Get("keep_file")); keep {
		err = store.RemoveImage(r.Context(), h.DB, id, path)
	} else {
		err = store.DeleteImage(r.Context(), h.DB, id, path)
	}
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, http.StatusNotFound, "image not found")
		return
	}
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to delete image")
		return
	}
	jsonResponse(w, http.StatusOK, nil)
}

// History handles GET /api/items/{id}/images/history.
func (h *ImagesHandler) History(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	entries, err := store.GetImageHistory(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get image history")
		return
	}
	if entries == nil {
		entries = []model.ImageHistoryEntry{}
	}
	jsonResponse(w, http.StatusOK, entries)
}

// ServeFile handles GET /api/images/file?path=..., serving a stored image to
// the collaborating UI. Only paths inside the library directory are served.
func (h *ImagesHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		jsonError(w, http.StatusBadRequest, "path required")
		return
	}

	abs, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid path")
		return
	}
	dir, err := filepath.Abs(h.Dir)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "image library unavailable")
		return
	}
	if !strings.HasPrefix(abs, dir+string(filepath.Separator)) {
		jsonError(w, http.StatusForbidden, "path outside image library")
		return
	}

	http.ServeFile(w, r, abs)
}
