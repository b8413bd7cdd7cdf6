package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/studioveld/storefront-backend/api/responses"
	pkgAuth "github.com/studioveld/storefront-backend/pkg/auth"
	"github.com/studioveld/storefront-backend/pkg/config"
	pkgerrors "github.com/studioveld/storefront-backend/pkg/errors"
	"github.com/studioveld/storefront-backend/pkg/logger"
)

// Auth validates the opaque bearer token and seeds the request context with
// the customer identity.
func Auth(cfg config.AuthConfig, logg *logger.Logger) func(http.Handler) http.Handler {
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

			claims, err := pkgAuth.ParseToken(token, cfg.TokenTTL, time.Now())
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}

			ctx := WithCustomer(r.Context(), claims.ID, claims.Email)
			if logg != nil {
				ctx = logg.WithCustomerID(ctx, strconv.Itoa(claims.ID))
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
