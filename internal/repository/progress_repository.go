package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/shinyyama/order-progress-backend/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrPersistenceUnavailable wraps every storage failure of a progress backend.
var ErrPersistenceUnavailable = errors.New("progress store unavailable")

var ErrDBNotReady = fmt.Errorf("%w: database not initialized", ErrPersistenceUnavailable)

// ProgressRepository owns PurchaseStatus persistence. Upsert writes the whole
// record at once; concurrent writes to distinct line items never interfere and
// the last write to the same line item wins.
type ProgressRepository interface {
	ReadAll(ctx context.Context) ([]model.PurchaseStatus, error)
	ListByOrder(ctx context.Context, orderID int64) ([]model.PurchaseStatus, error)
	Upsert(ctx context.Context, lineItemID, orderID int64, isPurchased bool, quantityPurchased int) (*model.PurchaseStatus, error)
}

type progressRepository struct {
	db *gorm.DB
}

func NewProgressRepository(db *gorm.DB) ProgressRepository {
	return &progressRepository{db: db}
}

func (r *progressRepository) ReadAll(ctx context.Context) ([]model.PurchaseStatus, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var list []model.PurchaseStatus
	if err := r.db.WithContext(ctx).Order("line_item_id").Find(&list).Error; err != nil {
		return nil, unavailable("read all", err)
	}
	return list, nil
}

func (r *progressRepository) ListByOrder(ctx context.Context, orderID int64) ([]model.PurchaseStatus, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var list []model.PurchaseStatus
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("line_item_id").
		Find(&list).Error; err != nil {
		return nil, unavailable("list by order", err)
	}
	return list, nil
}

func (r *progressRepository) Upsert(ctx context.Context, lineItemID, orderID int64, isPurchased bool, quantityPurchased int) (*model.PurchaseStatus, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	row := model.PurchaseStatus{
		LineItemID:        lineItemID,
		OrderID:           orderID,
		IsPurchased:       isPurchased,
		QuantityPurchased: quantityPurchased,
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "line_item_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"order_id", "is_purchased", "quantity_purchased", "updated_at"}),
		}).
		Create(&row).Error
	if err != nil {
		return nil, unavailable("upsert", err)
	}
	var stored model.PurchaseStatus
	if err := r.db.WithContext(ctx).First(&stored, "line_item_id = ?", lineItemID).Error; err != nil {
		return nil, unavailable("read back", err)
	}
	return &stored, nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrPersistenceUnavailable, op, err)
}
