package api

import (
	"database/sql"
	"net/http"
)

// NewRouter creates the API router with all endpoints registered. imageDir
// is the directory uploaded photos are normalized into.
func NewRouter(db *sql.DB, imageDir string) http.Handler {
	mux := http.NewServeMux()

	itemsHandler := &ItemsHandler{DB: db}
	imagesHandler := &ImagesHandler{DB: db, Dir: imageDir}
	catalogHandler := &CatalogHandler{DB: db}
	settingsHandler := &SettingsHandler{DB: db}

	// Items.
	mux.HandleFunc("POST /api/items", itemsHandler.Create)
	mux.HandleFunc("GET /api/items", itemsHandler.List)
	mux.HandleFunc("POST /api/items/search", itemsHandler.Search)
	mux.HandleFunc("GET /api/items/{id}", itemsHandler.Get)
	mux.HandleFunc("PUT /api/items/{id}/analysis", itemsHandler.UpdateAnalysis)
	mux.HandleFunc("PATCH /api/items/{id}/fields", itemsHandler.UpdateFields)
	mux.HandleFunc("GET /api/items/{id}/prices", itemsHandler.Prices)
	mux.HandleFunc("GET /api/items/{id}/revisions", itemsHandler.Revisions)
	mux.HandleFunc("GET /api/items/{id}/changes", itemsHandler.Changes)

	// Images.
	mux.HandleFunc("GET /api/items/{id}/images", imagesHandler.List)
	mux.HandleFunc("POST /api/items/{id}/images", imagesHandler.Upload)
	mux.HandleFunc("PUT /api/items/{id}/images/annotation", imagesHandler.Annotate)
	mux.HandleFunc("POST /api/items/{id}/images/replace", imagesHandler.Replace)
	mux.HandleFunc("DELETE /api/items/{id}/images", imagesHandler.Delete)
	mux.HandleFunc("GET /api/items/{id}/images/history", imagesHandler.History)
	mux.HandleFunc("GET /api/images/file", imagesHandler.ServeFile)

	// Catalog-wide reads and maintenance.
	mux.HandleFunc("GET /api/filters", catalogHandler.FilterOptions)
	mux.HandleFunc("GET /api/analytics", catalogHandler.Analytics)
	mux.HandleFunc("POST /api/maintenance/reextract", catalogHandler.Reextract)

	// Settings.
	mux.HandleFunc("GET /api/settings/{key}", settingsHandler.Get)
	mux.HandleFunc("PUT /api/settings/{key}", settingsHandler.Set)

	return mux
}
