package stripewebhook

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"

	"github.com/studioveld/storefront-backend/internal/checkout"
	"github.com/studioveld/storefront-backend/internal/ledger"
	"github.com/studioveld/storefront-backend/pkg/db/models"
	pkgerrors "github.com/studioveld/storefront-backend/pkg/errors"
	"github.com/studioveld/storefront-backend/pkg/logger"
	"github.com/studioveld/storefront-backend/pkg/metrics"
	"github.com/studioveld/storefront-backend/pkg/types"
)

type orderCreator interface {
	CreateOrder(ctx context.Context, payload types.OrderCreate) (*types.Order, error)
}

type deliveryRecorder interface {
	Record(ctx context.Context, input ledger.RecordInput) (*models.WebhookEvent, error)
}

// ServiceParams bundles the dependencies for the webhook processor.
type ServiceParams struct {
	Orders  orderCreator
	Guard   *IdempotencyGuard
	Ledger  deliveryRecorder
	Metrics *metrics.WebhookMetrics
	Logger  *logger.Logger
}

// Service turns confirmed Stripe payments into backend orders.
type Service struct {
	orders  orderCreator
	guard   *IdempotencyGuard
	ledger  deliveryRecorder
	metrics *metrics.WebhookMetrics
	logger  *logger.Logger
}

// NewService constructs the webhook processor.
func NewService(params ServiceParams) (*Service, error) {
	if params.Orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "order creator required")
	}
	return &Service{
		orders:  params.Orders,
		guard:   params.Guard,
		ledger:  params.Ledger,
		metrics: params.Metrics,
		logger:  params.Logger,
	}, nil
}

// Result reports what processing did with a delivery. Err is embedded in the
// webhook response body; the HTTP status stays 200 so the processor does not
// retry an already-paid order.
type Result struct {
	OrderID   int
	Duplicate bool
	Skipped   bool
	Err       error
}

// HandleEvent processes one verified Stripe event. Unknown event types are
// acknowledged and skipped.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) Result {
	if event == nil || event.Data == nil {
		return Result{Err: pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")}
	}

	start := time.Now()
	eventType := string(event.Type)
	defer func() {
		s.metrics.ObserveDuration(eventType, time.Since(start))
	}()

	switch event.Type {
	case stripe.EventTypePaymentIntentSucceeded, stripe.EventTypeCheckoutSessionCompleted:
	default:
		return Result{Skipped: true}
	}

	if s.guard != nil {
		seen, err := s.guard.CheckAndMark(ctx, event.ID)
		if err != nil {
			s.metrics.IncFailure(eventType)
			return Result{Err: pkgerrors.Wrap(pkgerrors.CodeDependency, err, "idempotency check")}
		}
		if seen {
			if s.logger != nil {
				s.logger.Warn(s.logger.WithEventID(ctx, event.ID), "webhook.duplicate_delivery")
			}
			return Result{Duplicate: true}
		}
	}

	result := s.process(ctx, event)

	if result.Err != nil {
		s.metrics.IncFailure(eventType)
		// release the claim so the processor's retry can run the handler
		if s.guard != nil {
			if err := s.guard.Delete(ctx, event.ID); err != nil && s.logger != nil {
				s.logger.Error(s.logger.WithEventID(ctx, event.ID), "webhook.guard_release_failed", err)
			}
		}
	} else if !result.Skipped {
		s.metrics.IncSuccess(eventType)
	}
	return result
}

func (s *Service) process(ctx context.Context, event *stripe.Event) Result {
	var (
		metadata        map[string]string
		paymentIntentID string
		amountCents     int64
		currency        string
	)

	switch event.Type {
	case stripe.EventTypePaymentIntentSucceeded:
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			return s.record(ctx, event, recordArgs{err: pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode payment intent")})
		}
		metadata = intent.Metadata
		paymentIntentID = intent.ID
		amountCents = intent.Amount
		currency = string(intent.Currency)
	case stripe.EventTypeCheckoutSessionCompleted:
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return s.record(ctx, event, recordArgs{err: pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode checkout session")})
		}
		metadata = session.Metadata
		if session.PaymentIntent != nil {
			paymentIntentID = session.PaymentIntent.ID
		}
		amountCents = session.AmountTotal
		currency = string(session.Currency)
	}

	order, err := checkout.DecodeOrderMetadata(metadata)
	if err != nil {
		return s.record(ctx, event, recordArgs{paymentIntentID: paymentIntentID, amountCents: amountCents, currency: currency, err: err})
	}

	// a charged/quoted mismatch is logged, not fatal: the charge already settled
	if expected, err := TotalCents(order); err == nil && amountCents > 0 && expected != amountCents {
		if s.logger != nil {
			fields := map[string]any{"charged_cents": amountCents, "quoted_cents": expected}
			s.logger.Warn(s.logger.WithFields(s.logger.WithEventID(ctx, event.ID), fields), "webhook.amount_mismatch")
		}
	}

	payload := buildOrderCreate(order, paymentIntentID)
	created, err := s.orders.CreateOrder(ctx, payload)
	if err != nil {
		return s.record(ctx, event, recordArgs{paymentIntentID: paymentIntentID, amountCents: amountCents, currency: currency, err: err})
	}

	if s.logger != nil {
		fields := map[string]any{"order_id": created.ID, "payment_intent_id": paymentIntentID}
		s.logger.Info(s.logger.WithFields(s.logger.WithEventID(ctx, event.ID), fields), "webhook.order_created")
	}
	return s.record(ctx, event, recordArgs{paymentIntentID: paymentIntentID, amountCents: amountCents, currency: currency, orderID: created.ID})
}

type recordArgs struct {
	paymentIntentID string
	amountCents     int64
	currency        string
	orderID         int
	err             error
}

func (s *Service) record(ctx context.Context, event *stripe.Event, args recordArgs) Result {
	result := Result{OrderID: args.orderID, Err: args.err}
	if s.ledger == nil {
		return result
	}

	input := ledger.RecordInput{
		EventID:         event.ID,
		EventType:       string(event.Type),
		PaymentIntentID: args.paymentIntentID,
		AmountCents:     args.amountCents,
		Currency:        args.currency,
		Status:          models.WebhookStatusProcessed,
	}
	if args.err != nil {
		input.Status = models.WebhookStatusFailed
		input.Error = args.err.Error()
	}
	if args.orderID > 0 {
		orderID := int64(args.orderID)
		input.OrderID = &orderID
	}

	if _, err := s.ledger.Record(ctx, input); err != nil && s.logger != nil {
		s.logger.Error(s.logger.WithEventID(ctx, event.ID), "webhook.ledger_write_failed", err)
	}
	return result
}

func buildOrderCreate(order *checkout.OrderMetadata, paymentIntentID string) types.OrderCreate {
	lineItems := make([]types.OrderLineItem, 0, len(order.Items))
	for _, item := range order.Items {
		lineItems = append(lineItems, types.OrderLineItem{
			ProductID: item.ProductID,
			Name:      item.Snapshot.Name,
			Quantity:  item.Quantity,
			Total:     item.LineTotal().Round(2).StringFixed(2),
		})
	}

	shippingAddress := order.Billing
	if order.Shipping != nil && !order.Shipping.IsZero() {
		shippingAddress = *order.Shipping
	}

	payload := types.OrderCreate{
		PaymentMethod:      "stripe",
		PaymentMethodTitle: "Card (Stripe)",
		SetPaid:            true,
		CustomerID:         order.CustomerID,
		Billing:            order.Billing,
		Shipping:           shippingAddress,
		LineItems:          lineItems,
		TransactionID:      paymentIntentID,
		CurrencySymbol:     strings.ToUpper(order.Currency),
		MetaData: []types.MetaData{
			{Key: "subtotal", Value: order.Subtotal},
			{Key: "tax_total", Value: order.Tax},
		},
	}

	if cost, err := decimal.NewFromString(order.ShippingCost); err == nil && cost.IsPositive() {
		payload.ShippingLines = []types.OrderShippingLine{{
			MethodID:    "flat_rate",
			MethodTitle: "Flat rate",
			Total:       cost.StringFixed(2),
		}}
	}
	return payload
}

// TotalCents converts the metadata total into integer cents, for
// reconciliation checks against the charged amount.
func TotalCents(order *checkout.OrderMetadata) (int64, error) {
	total, err := decimal.NewFromString(order.Total)
	if err != nil {
		return 0, fmt.Errorf("parse total %q: %w", order.Total, err)
	}
	return total.Mul(decimal.NewFromInt(100)).Round(0).IntPart(), nil
}
