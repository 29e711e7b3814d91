package controllers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/hugotzc/oasa-backend/api/middleware"
	"github.com/hugotzc/oasa-backend/api/responses"
	"github.com/hugotzc/oasa-backend/internal/entitlements"
	pkgerrors "github.com/hugotzc/oasa-backend/pkg/errors"
	"github.com/hugotzc/oasa-backend/pkg/logger"
)

// ShoppingSettingsGet serves the legacy flat settings shape. No envelope:
// the historical consumers predate the success wrapper.
func ShoppingSettingsGet(svc *entitlements.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "entitlement service unavailable"))
			return
		}

		clientID := middleware.ClientIDFromContext(r.Context())
		view, err := svc.LegacySettingsView(r.Context(), clientID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteRaw(w, http.StatusOK, view)
	}
}

// ShoppingSettingsUpdate accepts the legacy flat settings body and fans it
// out into per-client overrides. Values may be booleans or the historical
// "true"/"false" strings.
func ShoppingSettingsUpdate(svc *entitlements.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "entitlement service unavailable"))
			return
		}

		flags, err := decodeLegacySettingsBody(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if len(flags) == 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "at least one setting is required"))
			return
		}

		clientID := middleware.ClientIDFromContext(r.Context())
		set, err := svc.UpdateLegacySettings(r.Context(), clientID, flags)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteRaw(w, http.StatusOK, entitlements.FlattenLegacyView(set))
	}
}

func decodeLegacySettingsBody(r *http.Request) (map[string]bool, error) {
	defer func() {
		io.Copy(io.Discard, r.Body)
	}()

	var raw map[string]any
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request body")
	}

	flags := make(map[string]bool, len(raw))
	for key, value := range raw {
		switch v := value.(type) {
		case bool:
			flags[key] = v
		case string:
			switch v {
			case "true":
				flags[key] = true
			case "false":
				flags[key] = false
			default:
				return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("setting %q must be \"true\" or \"false\"", key))
			}
		default:
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("setting %q must be a boolean", key))
		}
	}
	return flags, nil
}
