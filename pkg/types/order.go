package types

// OrderLineItem is one product line inside an order-create payload.
type OrderLineItem struct {
	ProductID int    `json:"product_id,omitempty"`
	Name      string `json:"name,omitempty"`
	Quantity  int    `json:"quantity"`
	Total     string `json:"total,omitempty"`
}

// OrderShippingLine carries the flat shipping charge, if any.
type OrderShippingLine struct {
	MethodID    string `json:"method_id"`
	MethodTitle string `json:"method_title"`
	Total       string `json:"total"`
}

// OrderCreate is the payload submitted to the commerce backend once a payment
// has been confirmed.
type OrderCreate struct {
	PaymentMethod      string              `json:"payment_method"`
	PaymentMethodTitle string              `json:"payment_method_title"`
	SetPaid            bool                `json:"set_paid"`
	CustomerID         int                 `json:"customer_id,omitempty"`
	Billing            Address             `json:"billing"`
	Shipping           Address             `json:"shipping"`
	LineItems          []OrderLineItem     `json:"line_items"`
	ShippingLines      []OrderShippingLine `json:"shipping_lines,omitempty"`
	TransactionID      string              `json:"transaction_id,omitempty"`
	CurrencySymbol     string              `json:"currency,omitempty"`
	MetaData           []MetaData          `json:"meta_data,omitempty"`
}

// Order is the backend's view of a created order, narrowed to the fields the
// storefront reads back.
type Order struct {
	ID          int             `json:"id"`
	Status      string          `json:"status"`
	Currency    string          `json:"currency"`
	Total       string          `json:"total"`
	DateCreated string          `json:"date_created"`
	LineItems   []OrderLineItem `json:"line_items"`
}
