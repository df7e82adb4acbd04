// Package middleware provides HTTP middleware for the Smart Study Buddy API.
package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS returns middleware that handles CORS headers. Credentials are only
// allowed when every origin is explicit, never for a wildcard.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	allowCredentials := len(allowedOrigins) > 0
	for _, o := range allowedOrigins {
		if o == "*" {
			allowCredentials = false
			break
		}
	}

	return cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Study-Session-ID"},
		ExposedHeaders:   []string{"X-Study-Session-ID"},
		AllowCredentials: allowCredentials,
		MaxAge:           300,
	})
}
