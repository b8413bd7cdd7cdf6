package controllers

import (
	"net/http"

	"github.com/studioveld/storefront-backend/api/middleware"
	"github.com/studioveld/storefront-backend/api/responses"
	"github.com/studioveld/storefront-backend/api/validators"
	"github.com/studioveld/storefront-backend/internal/checkout"
	pkgerrors "github.com/studioveld/storefront-backend/pkg/errors"
	"github.com/studioveld/storefront-backend/pkg/logger"
)

// CreatePaymentIntent starts the embedded payment flow.
func CreatePaymentIntent(svc *checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var payload checkout.IntentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if payload.CustomerID == 0 {
			payload.CustomerID = middleware.CustomerIDFromContext(r.Context())
		}

		resp, err := svc.CreatePaymentIntent(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}

// CreateCheckoutSession starts the hosted redirect flow.
func CreateCheckoutSession(svc *checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var payload checkout.SessionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if payload.CustomerID == 0 {
			payload.CustomerID = middleware.CustomerIDFromContext(r.Context())
		}

		resp, err := svc.CreateCheckoutSession(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}
