package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"docuchat/internal/core"
)

// Auth validates the Authorization bearer token against the key store.
// Missing or invalid tokens get a 401; key store outages fail closed.
func Auth(keys core.KeyStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				unauthorized(w)
				return
			}
			key := strings.TrimPrefix(auth, "Bearer ")
			ok, err := keys.ValidateKey(r.Context(), key)
			if err != nil {
				log.Error().Err(err).Msg("api key validation failed")
				unauthorized(w)
				return
			}
			if !ok {
				unauthorized(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
}
