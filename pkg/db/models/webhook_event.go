package models

import "time"

// Webhook event processing outcomes.
const (
	WebhookStatusProcessed = "processed"
	WebhookStatusFailed    = "failed"
	WebhookStatusSkipped   = "skipped"
)

// WebhookEvent records one delivery from the payment processor and what
// became of it. Rows are written after processing so operators can reconcile
// payments against backend orders by hand.
type WebhookEvent struct {
	ID              int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	EventID         string    `gorm:"column:event_id;not null;uniqueIndex:idx_webhook_events_event_id" json:"event_id"`
	EventType       string    `gorm:"column:event_type;not null" json:"event_type"`
	PaymentIntentID string    `gorm:"column:payment_intent_id;not null" json:"payment_intent_id,omitempty"`
	OrderID         *int64    `gorm:"column:order_id" json:"order_id,omitempty"`
	AmountCents     int64     `gorm:"column:amount_cents;not null" json:"amount_cents"`
	Currency        string    `gorm:"column:currency;not null" json:"currency"`
	Status          string    `gorm:"column:status;not null" json:"status"`
	Error           string    `gorm:"column:error;not null" json:"error,omitempty"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// TableName pins the table used by migrations.
func (WebhookEvent) TableName() string {
	return "webhook_events"
}
