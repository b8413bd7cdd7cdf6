package cart

import (
	"github.com/shopspring/decimal"

	"github.com/studioveld/storefront-backend/pkg/config"
	pkgerrors "github.com/studioveld/storefront-backend/pkg/errors"
	"github.com/studioveld/storefront-backend/pkg/types"
)

// Pricing holds the fixed rules applied to every quote.
type Pricing struct {
	VATRate               decimal.Decimal
	ShippingFee           decimal.Decimal
	FreeShippingThreshold decimal.Decimal
	Currency              string
}

// Quote is the canonical priced view of a cart. All monetary fields carry two
// decimal places; AmountCents is the integer amount handed to the payment
// processor.
type Quote struct {
	Subtotal    decimal.Decimal `json:"subtotal"`
	Tax         decimal.Decimal `json:"tax"`
	Shipping    decimal.Decimal `json:"shipping"`
	Total       decimal.Decimal `json:"total"`
	AmountCents int64           `json:"amount_cents"`
	Currency    string          `json:"currency"`
}

// NewPricing parses the configured pricing rules.
func NewPricing(cfg config.PricingConfig) (*Pricing, error) {
	vat, err := decimal.NewFromString(cfg.VATRate)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "parse vat rate")
	}
	fee, err := decimal.NewFromString(cfg.ShippingFee)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "parse shipping fee")
	}
	threshold, err := decimal.NewFromString(cfg.FreeShippingThreshold)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "parse free shipping threshold")
	}
	currency := cfg.Currency
	if currency == "" {
		currency = "eur"
	}
	return &Pricing{
		VATRate:               vat,
		ShippingFee:           fee,
		FreeShippingThreshold: threshold,
		Currency:              currency,
	}, nil
}

// QuoteItems prices a cart: subtotal is the sum of line totals, tax applies
// the VAT rate rounded to cents, shipping is waived once the subtotal reaches
// the free threshold.
func (p *Pricing) QuoteItems(items []types.CartItem) (*Quote, error) {
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	subtotal := decimal.Zero
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be positive")
		}
		if item.Snapshot.Price.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item price must be non-negative")
		}
		subtotal = subtotal.Add(item.LineTotal())
	}
	subtotal = subtotal.Round(2)

	tax := subtotal.Mul(p.VATRate).Round(2)

	shipping := p.ShippingFee
	if subtotal.GreaterThanOrEqual(p.FreeShippingThreshold) {
		shipping = decimal.Zero
	}

	total := subtotal.Add(tax).Add(shipping).Round(2)

	return &Quote{
		Subtotal:    subtotal,
		Tax:         tax,
		Shipping:    shipping,
		Total:       total,
		AmountCents: total.Mul(decimal.NewFromInt(100)).Round(0).IntPart(),
		Currency:    p.Currency,
	}, nil
}
