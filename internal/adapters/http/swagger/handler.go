// Package swagger serves the OpenAPI document and a Swagger UI for it.
package swagger

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

// DocPath is where the OpenAPI document is served.
const DocPath = "/openapi.yaml"

// Register attaches the documentation routes to r.
//
//	GET /openapi.yaml  -> Embedded OpenAPI document
//	GET /api-docs      -> redirect to the UI
//	GET /api-docs/*    -> Swagger UI
func Register(r chi.Router) {
	if r == nil {
		panic("router is nil")
	}

	r.Get(DocPath, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/yaml; charset=utf-8")
		_, _ = w.Write(OpenAPI)
	})

	r.Get("/api-docs", func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, "/api-docs/index.html", http.StatusMovedPermanently)
	})
	r.Get("/api-docs/*", httpSwagger.Handler(
		httpSwagger.URL(DocPath),
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("list"),
		httpSwagger.DomID("swagger-ui"),
	))
}
