package ledger

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/studioveld/storefront-backend/pkg/db/models"
)

// Repository manages persistence for webhook delivery records.
// Create upserts on event_id: a redelivered event overwrites the earlier
// outcome, so the ledger always shows what finally became of the payment.
type Repository interface {
	Create(ctx context.Context, event *models.WebhookEvent) error
	ListRecent(ctx context.Context, limit int) ([]models.WebhookEvent, error)
	FindByEventID(ctx context.Context, eventID string) (*models.WebhookEvent, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, event *models.WebhookEvent) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "event_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"event_type", "payment_intent_id", "order_id", "amount_cents", "currency", "status", "error"}),
		}).
		Create(event).Error
}

func (r *repository) ListRecent(ctx context.Context, limit int) ([]models.WebhookEvent, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var events []models.WebhookEvent
	if err := r.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (r *repository) FindByEventID(ctx context.Context, eventID string) (*models.WebhookEvent, error) {
	var event models.WebhookEvent
	err := r.db.WithContext(ctx).Where("event_id = ?", eventID).First(&event).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &event, nil
}
