package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/lucasmoreno-dev/devisio-backend/api/responses"
	pkgauth "github.com/lucasmoreno-dev/devisio-backend/pkg/auth"
	"github.com/lucasmoreno-dev/devisio-backend/pkg/config"
	pkgerrors "github.com/lucasmoreno-dev/devisio-backend/pkg/errors"
	"github.com/lucasmoreno-dev/devisio-backend/pkg/logger"
)

// Auth validates a bearer token and seeds the request context with the
// operator identity.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgauth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}
			if claims.OperatorID == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing operator id"))
				return
			}

			ctx := context.WithValue(r.Context(), ctxOperatorID, claims.OperatorID)
			if claims.OperatorName != "" {
				ctx = context.WithValue(ctx, ctxOperatorName, claims.OperatorName)
			}

			if logg != nil {
				ctx = logg.WithOperatorID(ctx, claims.OperatorID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
