package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/legacy"
)

// NewRequestValidator returns a middleware that checks requests against the
// embedded OpenAPI document. Requests that match no operation pass through.
func NewRequestValidator(logger *slog.Logger) (MiddlewareFunc, error) {
	doc, err := GetSwagger()
	if err != nil {
		return nil, fmt.Errorf("load openapi document: %w", err)
	}
	router, err := legacy.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("build openapi router: %w", err)
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := validateRequest(router, r); err != nil {
				logger.Warn("request rejected", "method", r.Method, "path", r.URL.Path, "err", err)
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			next.ServeHTTP(w, r)
		})
	}, nil
}

func validateRequest(router routers.Router, r *http.Request) error {
	route, pathParams, err := router.FindRoute(r)
	if err != nil {
		return nil
	}
	return openapi3filter.ValidateRequest(r.Context(), &openapi3filter.RequestValidationInput{
		Request:    r,
		PathParams: pathParams,
		Route:      route,
		Options: &openapi3filter.Options{
			AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
		},
	})
}
