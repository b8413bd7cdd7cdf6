package controllers

import (
	"net/http"

	"github.com/studioveld/storefront-backend/api/responses"
	"github.com/studioveld/storefront-backend/api/validators"
	"github.com/studioveld/storefront-backend/internal/cart"
	pkgerrors "github.com/studioveld/storefront-backend/pkg/errors"
	"github.com/studioveld/storefront-backend/pkg/logger"
	"github.com/studioveld/storefront-backend/pkg/types"
)

type cartQuoteRequest struct {
	Items []types.CartItem `json:"items" validate:"required,min=1,dive"`
}

// CartQuote prices a submitted cart server-side so the client total and the
// payment amount cannot drift apart.
func CartQuote(pricing *cart.Pricing, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if pricing == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pricing unavailable"))
			return
		}

		var payload cartQuoteRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quote, err := pricing.QuoteItems(payload.Items)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, quote)
	}
}
