package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/shinyyama/order-progress-backend/internal/logger"
	"github.com/shinyyama/order-progress-backend/internal/metrics"
	"github.com/shinyyama/order-progress-backend/internal/model"
	"github.com/shinyyama/order-progress-backend/internal/repository"
)

type SetItemInput struct {
	LineItemID        int64
	OrderID           int64
	IsPurchased       *bool // optional; derived from the quantity when nil
	QuantityPurchased int
}

type ProgressService interface {
	SetItem(ctx context.Context, in SetItemInput) (*model.PurchaseStatus, error)
	All(ctx context.Context) ([]model.PurchaseStatus, error)
}

type progressService struct {
	platform OrderPlatform
	repo     repository.ProgressRepository
	metrics  *metrics.Registry
}

func NewProgressService(platform OrderPlatform, repo repository.ProgressRepository, m *metrics.Registry) ProgressService {
	return &progressService{platform: platform, repo: repo, metrics: m}
}

// SetItem checks the write against the current remote line item before it
// reaches the store: the item must belong to the order and
// 0 <= quantityPurchased <= quantity.
func (s *progressService) SetItem(ctx context.Context, in SetItemInput) (*model.PurchaseStatus, error) {
	if in.LineItemID <= 0 {
		return nil, fmt.Errorf("%w: lineItemId is required", ErrValidation)
	}
	if in.OrderID <= 0 {
		return nil, fmt.Errorf("%w: orderId is required", ErrValidation)
	}
	if in.QuantityPurchased < 0 {
		return nil, fmt.Errorf("%w: quantityPurchased must not be negative", ErrValidation)
	}

	o, err := s.platform.GetOrder(ctx, in.OrderID)
	if err != nil {
		return nil, err
	}
	quantity := -1
	for _, li := range o.LineItems {
		if li.ID == in.LineItemID {
			quantity = li.Quantity
			break
		}
	}
	if quantity < 0 {
		return nil, fmt.Errorf("%w: line item %d is not part of order %d", ErrValidation, in.LineItemID, in.OrderID)
	}
	if in.QuantityPurchased > quantity {
		return nil, fmt.Errorf("%w: quantityPurchased %d exceeds quantity %d", ErrValidation, in.QuantityPurchased, quantity)
	}
	purchased := in.QuantityPurchased == quantity
	if in.IsPurchased != nil && *in.IsPurchased != purchased {
		return nil, fmt.Errorf("%w: isPurchased must be %t for %d of %d", ErrValidation, purchased, in.QuantityPurchased, quantity)
	}

	st, err := s.repo.Upsert(ctx, in.LineItemID, in.OrderID, purchased, in.QuantityPurchased)
	if err != nil {
		s.metrics.ProgressWrite("error")
		return nil, err
	}
	s.metrics.ProgressWrite("ok")
	logger.FromContext(ctx).Info("progress saved",
		zap.Int64("line_item_id", st.LineItemID),
		zap.Int64("order_id", st.OrderID),
		zap.Int("quantity_purchased", st.QuantityPurchased),
		zap.Bool("is_purchased", st.IsPurchased))
	return st, nil
}

func (s *progressService) All(ctx context.Context) ([]model.PurchaseStatus, error) {
	return s.repo.ReadAll(ctx)
}
