package middleware

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/shipping-service/api/responses"
	"github.com/angelmondragon/shipping-service/pkg/auth"
	pkgerrors "github.com/angelmondragon/shipping-service/pkg/errors"
	"github.com/angelmondragon/shipping-service/pkg/logger"
)

// Auth resolves the bearer credential through provider and seeds the request context with the identity.
func Auth(provider auth.IdentityProvider, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			id, err := provider.Verify(r.Context(), token)
			if err != nil {
				if pkgerrors.As(err) == nil {
					err = pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token")
				}
				responses.WriteError(r.Context(), logg, w, err)
				return
			}

			ctx := WithIdentity(r.Context(), id)
			if logg != nil {
				ctx = logg.WithUserID(ctx, id.SubjectID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
