package checkout

import (
	"encoding/json"
	"strconv"

	pkgerrors "github.com/studioveld/storefront-backend/pkg/errors"
	"github.com/studioveld/storefront-backend/pkg/types"
)

// Metadata keys attached to every PaymentIntent and Checkout Session. The
// webhook handler decodes these back into an order, so the processor carries
// the full order-to-be across the payment.
const (
	metaItems      = "items"
	metaBilling    = "billing"
	metaShipping   = "shipping"
	metaCustomerID = "customer_id"
	metaSubtotal   = "subtotal"
	metaTax        = "tax"
	metaShipCost   = "shipping_total"
	metaTotal      = "total"
	metaCurrency   = "currency"
)

// OrderMetadata is the order-to-be serialized into Stripe string metadata.
type OrderMetadata struct {
	Items        []types.CartItem
	Billing      types.Address
	Shipping     *types.Address
	CustomerID   int
	Subtotal     string
	Tax          string
	ShippingCost string
	Total        string
	Currency     string
}

// Encode renders the order as the flat string map Stripe accepts.
func (m OrderMetadata) Encode() (map[string]string, error) {
	items, err := json.Marshal(m.Items)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode cart items")
	}
	billing, err := json.Marshal(m.Billing)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode billing address")
	}

	out := map[string]string{
		metaItems:    string(items),
		metaBilling:  string(billing),
		metaSubtotal: m.Subtotal,
		metaTax:      m.Tax,
		metaShipCost: m.ShippingCost,
		metaTotal:    m.Total,
		metaCurrency: m.Currency,
	}
	if m.Shipping != nil && !m.Shipping.IsZero() {
		shipping, err := json.Marshal(m.Shipping)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode shipping address")
		}
		out[metaShipping] = string(shipping)
	}
	if m.CustomerID > 0 {
		out[metaCustomerID] = strconv.Itoa(m.CustomerID)
	}
	return out, nil
}

// DecodeOrderMetadata parses the metadata a webhook event carries back.
// Missing items or billing data is a validation error; the caller decides
// what to answer the processor.
func DecodeOrderMetadata(raw map[string]string) (*OrderMetadata, error) {
	if raw == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event carries no metadata")
	}

	itemsJSON, ok := raw[metaItems]
	if !ok || itemsJSON == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart items missing from metadata")
	}
	billingJSON, ok := raw[metaBilling]
	if !ok || billingJSON == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "billing address missing from metadata")
	}

	var m OrderMetadata
	if err := json.Unmarshal([]byte(itemsJSON), &m.Items); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode cart items")
	}
	if len(m.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart items missing from metadata")
	}
	if err := json.Unmarshal([]byte(billingJSON), &m.Billing); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode billing address")
	}

	if shippingJSON := raw[metaShipping]; shippingJSON != "" {
		var shipping types.Address
		if err := json.Unmarshal([]byte(shippingJSON), &shipping); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode shipping address")
		}
		m.Shipping = &shipping
	}
	if customerID := raw[metaCustomerID]; customerID != "" {
		id, err := strconv.Atoi(customerID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode customer id")
		}
		m.CustomerID = id
	}

	m.Subtotal = raw[metaSubtotal]
	m.Tax = raw[metaTax]
	m.ShippingCost = raw[metaShipCost]
	m.Total = raw[metaTotal]
	m.Currency = raw[metaCurrency]
	return &m, nil
}
