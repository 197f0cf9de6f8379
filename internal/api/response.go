package api

import (
	"encoding/json"
	"log"
	"net/http"
)

// maxBodySize caps JSON request bodies. Catalog requests are small; the only
// field that runs long is a vision-model analysis payload, and a megabyte is
// far beyond what those produce.
const maxBodySize = 1 << 20

// jsonResponse writes a JSON response with the given status code. A nil data
// value writes the status line only.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			log.Printf("error encoding response: %v", err)
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// decodeJSON decodes a JSON request body into the given target, rejecting
// bodies over maxBodySize.
func decodeJSON(w http.ResponseWriter, r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(target)
}
