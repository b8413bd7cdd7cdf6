package middleware

import "context"

type contextKey string

const (
	ctxCustomerID    contextKey = "customer_id"
	ctxCustomerEmail contextKey = "customer_email"
)

func CustomerIDFromContext(ctx context.Context) int {
	if ctx == nil {
		return 0
	}
	if v, ok := ctx.Value(ctxCustomerID).(int); ok {
		return v
	}
	return 0
}

func CustomerEmailFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxCustomerEmail).(string); ok {
		return v
	}
	return ""
}

// WithCustomer injects the authenticated customer identity into the context.
func WithCustomer(ctx context.Context, customerID int, email string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxCustomerID, customerID)
	return context.WithValue(ctx, ctxCustomerEmail, email)
}
