package webhooks

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/webhook"

	stripewebhook "github.com/studioveld/storefront-backend/internal/webhooks/stripe"
	"github.com/studioveld/storefront-backend/pkg/logger"
)

const maxWebhookBody = 1 << 16

type StripeWebhookService interface {
	HandleEvent(ctx context.Context, event *stripe.Event) stripewebhook.Result
}

type stripeClient interface {
	SigningSecret() string
}

type webhookAck struct {
	Received bool   `json:"received"`
	Error    string `json:"error,omitempty"`
}

// StripeWebhook receives payment lifecycle events. The signature is verified
// before anything else; after that the response is always 200 so Stripe does
// not redeliver an event whose payment already settled.
func StripeWebhook(svc StripeWebhookService, client stripeClient, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil || client == nil {
			writeAck(w, http.StatusInternalServerError, webhookAck{Error: "webhook handler unavailable"})
			return
		}

		payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
		if err != nil {
			writeAck(w, http.StatusBadRequest, webhookAck{Error: "unreadable payload"})
			return
		}

		sigHeader := r.Header.Get("Stripe-Signature")
		event, err := webhook.ConstructEvent(payload, sigHeader, client.SigningSecret())
		if err != nil {
			if logg != nil {
				logg.Warn(ctx, "webhook.signature_rejected")
			}
			writeAck(w, http.StatusBadRequest, webhookAck{Error: "signature verification failed"})
			return
		}

		result := svc.HandleEvent(ctx, &event)

		ack := webhookAck{Received: true}
		if result.Err != nil {
			if logg != nil {
				logg.Error(logg.WithEventID(ctx, event.ID), "webhook.processing_failed", result.Err)
			}
			ack.Error = result.Err.Error()
		}
		writeAck(w, http.StatusOK, ack)
	}
}

func writeAck(w http.ResponseWriter, status int, ack webhookAck) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ack)
}
