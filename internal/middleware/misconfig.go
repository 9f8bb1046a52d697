package middleware

import (
	"net/http"
	"strings"
)

// Misconfigured fails every request with 500 and names the missing settings.
// It never calls next.
func Misconfigured(missing []string) func(http.Handler) http.Handler {
	msg := "Server misconfiguration: missing " + strings.Join(missing, ", ")
	return func(http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			WriteError(w, http.StatusInternalServerError, "MISCONFIGURED", msg)
		})
	}
}
