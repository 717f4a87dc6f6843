package middleware

import (
	"net/http"

	"github.com/go-chi/cors"

	"github.com/angelmondragon/petlife-licenser/pkg/config"
)

// CORS returns middleware that applies the configured origin policy. The admin panel calls the
// admin API from the browser; desktop clients are not subject to CORS.
func CORS(cfg config.CORSConfig) func(http.Handler) http.Handler {
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		MaxAge:         300,
	}).Handler
}
