package http

import (
	"net/http"

	"github.com/pitabwire/telereso/localization"
)

// LanguageHTTPMiddleware is an HTTP middleware that extracts language information and sets it in the context.
func LanguageHTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if l := localization.ExtractLanguageFromHTTPRequest(r); len(l) > 0 {
			r = r.WithContext(localization.ToContext(r.Context(), l))
		}

		next.ServeHTTP(w, r)
	})
}
