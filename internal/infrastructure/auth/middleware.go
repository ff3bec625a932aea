package auth

import (
	"log/slog"
	"net/http"
	"strings"

	stderrors "errors"

	"github.com/honeynil/content-checkout/internal/infrastructure/redis"
)

// AuthMiddleware authenticates bearer tokens and rejects ones whose jti is on the
// Redis denylist.
func AuthMiddleware(tokens *TokenService, denylist redis.RedisClient) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "authorization header missing", http.StatusUnauthorized)
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				http.Error(w, "invalid authorization header", http.StatusUnauthorized)
				return
			}

			claims, err := tokens.Parse(parts[1])
			if err != nil {
				slog.Warn("rejected bearer token", "path", r.URL.Path, "error", err)
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}

			if claims.ID != "" {
				_, err := denylist.Get(r.Context(), redis.RevokedTokenKey(claims.ID))
				switch {
				case err == nil:
					slog.Warn("revoked token presented", "customer_id", claims.Subject, "jti", claims.ID)
					http.Error(w, "invalid or revoked token", http.StatusUnauthorized)
					return
				case !stderrors.Is(err, redis.ErrKeyNotFound):
					slog.Error("failed to check token denylist", "jti", claims.ID, "error", err)
					http.Error(w, "token check unavailable", http.StatusServiceUnavailable)
					return
				}
			}

			ctx := WithIdentity(r.Context(), Identity{
				CustomerID:     claims.Subject,
				OrganizationID: claims.OrganizationID,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
