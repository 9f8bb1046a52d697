package middleware

import (
	"encoding/json"
	"net/http"
)

// WriteError writes the API's error body: {"error": message, "code": code}.
func WriteError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
		"code":  code,
	})
}
