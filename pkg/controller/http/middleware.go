package http

import (
	"context"
	"net/http"
	"strings"
)

type ctxCredentialKey struct{}

// requireCredential extracts the bearer token from the Authorization
// header and rejects requests without one. The token is the caller's
// delegated credential for the upstream content source.
func requireCredential(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			http.Error(w, "Authorization header required", http.StatusUnauthorized)
			return
		}

		token := strings.TrimPrefix(header, "Bearer ")
		if token == header || token == "" {
			http.Error(w, "Bearer token required", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), ctxCredentialKey{}, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func credentialFrom(ctx context.Context) string {
	token, _ := ctx.Value(ctxCredentialKey{}).(string)
	return token
}
