package middleware

import (
	"net/http"
	"strings"

	"github.com/hugotzc/oasa-backend/api/responses"
	"github.com/hugotzc/oasa-backend/pkg/config"
	pkgerrors "github.com/hugotzc/oasa-backend/pkg/errors"
	"github.com/hugotzc/oasa-backend/pkg/logger"
)

const clientIDHeader = "X-Client-Id"

// ClientContext resolves the tenant for the request. Precedence: explicit
// header, then token claim, then the configured default client.
func ClientContext(cfg config.EntitlementsConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientID := strings.TrimSpace(r.Header.Get(clientIDHeader))
			if clientID == "" {
				clientID = ClientIDFromContext(r.Context())
			}
			if clientID == "" {
				clientID = cfg.DefaultClientID
			}
			if clientID == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "client id is required"))
				return
			}

			ctx := WithClientID(r.Context(), clientID)
			if logg != nil {
				ctx = logg.WithClientID(ctx, clientID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
