package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/taxdesk/taxdocs/internal/server/auth"
)

type ctxKey string

const ownerIDKey ctxKey = "ownerID"

// withOwner verifies the bearer token and stores the owner id in the request
// context. Requests without a valid token never reach a handler.
func (s *Server) withOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			writeError(w, http.StatusUnauthorized, "missing token")
			return
		}

		ownerID, err := auth.OwnerIDFromToken(token, s.jwtSecret)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), ownerIDKey, ownerID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ownerID extracts the authenticated owner from the request context.
func ownerID(r *http.Request) string {
	id, _ := r.Context().Value(ownerIDKey).(string)
	return id
}
