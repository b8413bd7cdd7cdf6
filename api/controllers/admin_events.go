package controllers

import (
	"net/http"

	"github.com/studioveld/storefront-backend/api/responses"
	"github.com/studioveld/storefront-backend/api/validators"
	"github.com/studioveld/storefront-backend/internal/ledger"
	pkgerrors "github.com/studioveld/storefront-backend/pkg/errors"
	"github.com/studioveld/storefront-backend/pkg/logger"
)

// ListWebhookEvents exposes the webhook delivery ledger for manual payment
// reconciliation. Admin secret gated.
func ListWebhookEvents(svc ledger.Service, adminSecret string, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger unavailable"))
			return
		}
		if err := checkAdminSecret(r, adminSecret); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 50, 1, 200)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		events, err := svc.Recent(r.Context(), limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list webhook events"))
			return
		}
		responses.WriteSuccess(w, events)
	}
}
