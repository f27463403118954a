package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// requestID tags every request with an id, reusing the caller's
// X-Request-ID when it parses as a UUID.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(r.Header.Get(middleware.RequestIDHeader))
		if err != nil {
			id = uuid.New()
		}
		w.Header().Set(middleware.RequestIDHeader, id.String())
		ctx := context.WithValue(r.Context(), middleware.RequestIDKey, id.String())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
