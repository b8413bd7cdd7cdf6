package ledger

import (
	"context"
	"fmt"

	"github.com/studioveld/storefront-backend/pkg/db/models"
)

// Service records webhook deliveries and serves the admin listing.
type Service interface {
	Record(ctx context.Context, input RecordInput) (*models.WebhookEvent, error)
	Recent(ctx context.Context, limit int) ([]models.WebhookEvent, error)
}

type service struct {
	repo Repository
}

// RecordInput captures the immutable data a webhook record requires.
type RecordInput struct {
	EventID         string
	EventType       string
	PaymentIntentID string
	OrderID         *int64
	AmountCents     int64
	Currency        string
	Status          string
	Error           string
}

// NewService wires a ledger service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Record(ctx context.Context, input RecordInput) (*models.WebhookEvent, error) {
	if input.EventID == "" {
		return nil, fmt.Errorf("event id is required")
	}
	if input.EventType == "" {
		return nil, fmt.Errorf("event type is required")
	}
	switch input.Status {
	case models.WebhookStatusProcessed, models.WebhookStatusFailed, models.WebhookStatusSkipped:
	default:
		return nil, fmt.Errorf("invalid webhook status %q", input.Status)
	}

	event := &models.WebhookEvent{
		EventID:         input.EventID,
		EventType:       input.EventType,
		PaymentIntentID: input.PaymentIntentID,
		OrderID:         input.OrderID,
		AmountCents:     input.AmountCents,
		Currency:        input.Currency,
		Status:          input.Status,
		Error:           input.Error,
	}
	if err := s.repo.Create(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

func (s *service) Recent(ctx context.Context, limit int) ([]models.WebhookEvent, error) {
	return s.repo.ListRecent(ctx, limit)
}
