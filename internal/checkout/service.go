package checkout

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"

	"github.com/studioveld/storefront-backend/internal/cart"
	pkgerrors "github.com/studioveld/storefront-backend/pkg/errors"
	"github.com/studioveld/storefront-backend/pkg/logger"
	"github.com/studioveld/storefront-backend/pkg/types"
)

// Service creates the Stripe side of a checkout. The order itself is only
// created later, by the webhook handler, once payment has succeeded.
type Service struct {
	stripe         StripePaymentClient
	pricing        *cart.Pricing
	publishableKey string
	siteURL        string
	logger         *logger.Logger
}

// ServiceParams bundles the dependencies required to build the checkout service.
type ServiceParams struct {
	Stripe         StripePaymentClient
	Pricing        *cart.Pricing
	PublishableKey string
	SiteURL        string
	Logger         *logger.Logger
}

// NewService constructs the checkout service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Stripe == nil {
		return nil, fmt.Errorf("stripe client is required")
	}
	if params.Pricing == nil {
		return nil, fmt.Errorf("pricing is required")
	}
	return &Service{
		stripe:         params.Stripe,
		pricing:        params.Pricing,
		publishableKey: params.PublishableKey,
		siteURL:        params.SiteURL,
		logger:         params.Logger,
	}, nil
}

// IntentRequest is the payload for the payment-intent flow.
type IntentRequest struct {
	Items       []types.CartItem `json:"items" validate:"required,min=1,dive"`
	Billing     types.Address    `json:"billing" validate:"required"`
	Shipping    *types.Address   `json:"shipping,omitempty"`
	CustomerID  int              `json:"customer_id,omitempty"`
	AmountCents *int64           `json:"amount_cents,omitempty"`
}

// IntentResponse hands the browser what it needs to confirm the payment.
type IntentResponse struct {
	ClientSecret   string      `json:"client_secret"`
	PublishableKey string      `json:"publishable_key"`
	AmountCents    int64       `json:"amount_cents"`
	Currency       string      `json:"currency"`
	Quote          *cart.Quote `json:"quote"`
}

// SessionRequest is the payload for the legacy redirect flow.
type SessionRequest struct {
	Items      []types.CartItem `json:"items" validate:"required,min=1,dive"`
	Billing    types.Address    `json:"billing" validate:"required"`
	Shipping   *types.Address   `json:"shipping,omitempty"`
	CustomerID int              `json:"customer_id,omitempty"`
}

// SessionResponse carries the hosted checkout redirect.
type SessionResponse struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

// CreatePaymentIntent quotes the cart, serializes the order-to-be into intent
// metadata and returns the client secret. A client-supplied amount overrides
// the quoted one.
func (s *Service) CreatePaymentIntent(ctx context.Context, req IntentRequest) (*IntentResponse, error) {
	quote, metadata, err := s.prepare(req.Items, req.Billing, req.Shipping, req.CustomerID)
	if err != nil {
		return nil, err
	}

	amount := quote.AmountCents
	if req.AmountCents != nil && *req.AmountCents > 0 {
		amount = *req.AmountCents
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(quote.Currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
		Metadata: metadata,
	}
	if req.Billing.Email != "" {
		params.ReceiptEmail = stripe.String(req.Billing.Email)
	}

	intent, err := s.stripe.CreatePaymentIntent(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment intent")
	}

	if s.logger != nil {
		fields := map[string]any{"payment_intent_id": intent.ID, "amount_cents": amount}
		s.logger.Info(s.logger.WithFields(ctx, fields), "checkout.intent.created")
	}

	return &IntentResponse{
		ClientSecret:   intent.ClientSecret,
		PublishableKey: s.publishableKey,
		AmountCents:    amount,
		Currency:       quote.Currency,
		Quote:          quote,
	}, nil
}

// CreateCheckoutSession builds a hosted Checkout Session with one line item
// per cart row plus tax and shipping lines.
func (s *Service) CreateCheckoutSession(ctx context.Context, req SessionRequest) (*SessionResponse, error) {
	quote, metadata, err := s.prepare(req.Items, req.Billing, req.Shipping, req.CustomerID)
	if err != nil {
		return nil, err
	}

	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(req.Items)+2)
	for _, item := range req.Items {
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			Quantity: stripe.Int64(int64(item.Quantity)),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(quote.Currency),
				UnitAmount: stripe.Int64(toCents(item.Snapshot.Price)),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(item.Snapshot.Name),
				},
			},
		})
	}
	lineItems = append(lineItems, extraLine(quote.Currency, "VAT", quote.Tax))
	if !quote.Shipping.IsZero() {
		lineItems = append(lineItems, extraLine(quote.Currency, "Shipping", quote.Shipping))
	}

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems:  lineItems,
		SuccessURL: stripe.String(s.siteURL + "/checkout/success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:  stripe.String(s.siteURL + "/cart"),
		Metadata:   metadata,
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: metadata,
		},
	}
	if req.Billing.Email != "" {
		params.CustomerEmail = stripe.String(req.Billing.Email)
	}

	sess, err := s.stripe.CreateCheckoutSession(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create checkout session")
	}

	return &SessionResponse{SessionID: sess.ID, URL: sess.URL}, nil
}

func (s *Service) prepare(items []types.CartItem, billing types.Address, shipping *types.Address, customerID int) (*cart.Quote, map[string]string, error) {
	if billing.IsZero() {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "billing address is required")
	}

	quote, err := s.pricing.QuoteItems(items)
	if err != nil {
		return nil, nil, err
	}

	metadata, err := OrderMetadata{
		Items:        items,
		Billing:      billing,
		Shipping:     shipping,
		CustomerID:   customerID,
		Subtotal:     quote.Subtotal.StringFixed(2),
		Tax:          quote.Tax.StringFixed(2),
		ShippingCost: quote.Shipping.StringFixed(2),
		Total:        quote.Total.StringFixed(2),
		Currency:     quote.Currency,
	}.Encode()
	if err != nil {
		return nil, nil, err
	}
	return quote, metadata, nil
}

func extraLine(currency, name string, amount decimal.Decimal) *stripe.CheckoutSessionLineItemParams {
	return &stripe.CheckoutSessionLineItemParams{
		Quantity: stripe.Int64(1),
		PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
			Currency:   stripe.String(currency),
			UnitAmount: stripe.Int64(toCents(amount)),
			ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
				Name: stripe.String(name),
			},
		},
	}
}

func toCents(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
