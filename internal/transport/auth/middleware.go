package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

type ctxKey string

const ProviderIDKey ctxKey = "providerID"

// Middleware authenticates the request with a Bearer JWT and places
// the provider id in the context. A token query parameter is accepted
// too, for websocket connections that cannot set headers.
func Middleware(validate func(token string) (string, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				token = r.URL.Query().Get("token")
			}
			if token == "" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			providerID, err := validate(token)
			if err != nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), ProviderIDKey, providerID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" || !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

// GetProviderID pulls the authenticated tenant out of the context.
func GetProviderID(ctx context.Context) (string, error) {
	providerID, ok := ctx.Value(ProviderIDKey).(string)
	if !ok || providerID == "" {
		return "", errors.New("providerID not found in context")
	}
	return providerID, nil
}
