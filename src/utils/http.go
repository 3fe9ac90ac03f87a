package utils

import (
	"encoding/json"
	"net/http"
)

// SendJSONError writes a JSON error body with the given HTTP status.
func SendJSONError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
