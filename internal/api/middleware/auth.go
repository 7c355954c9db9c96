package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gorilla/mux"
)

// APIKey rejects requests whose X-API-Key header does not match key. An
// empty key rejects everything.
func APIKey(key string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get("X-API-Key")
			if key == "" || subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
