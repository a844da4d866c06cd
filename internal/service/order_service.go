package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/shinyyama/order-progress-backend/internal/logger"
	"github.com/shinyyama/order-progress-backend/internal/metrics"
	"github.com/shinyyama/order-progress-backend/internal/model"
	"github.com/shinyyama/order-progress-backend/internal/reconcile"
	"github.com/shinyyama/order-progress-backend/internal/repository"
	"github.com/shinyyama/order-progress-backend/internal/woocommerce"
)

type OrderService interface {
	List(ctx context.Context, group woocommerce.StatusGroup) ([]reconcile.Order, error)
	Complete(ctx context.Context, orderID int64) (*woocommerce.Order, error)
}

type orderService struct {
	platform OrderPlatform
	progress repository.ProgressRepository
	metrics  *metrics.Registry
}

func NewOrderService(platform OrderPlatform, progress repository.ProgressRepository, m *metrics.Registry) OrderService {
	return &orderService{platform: platform, progress: progress, metrics: m}
}

// List builds a fresh snapshot on every call. A product metadata failure
// degrades to default categories; order or progress failures abort.
func (s *orderService) List(ctx context.Context, group woocommerce.StatusGroup) ([]reconcile.Order, error) {
	log := logger.FromContext(ctx)
	orders, err := s.platform.ListOrders(ctx, group)
	if err != nil {
		return nil, err
	}
	ids := reconcile.ProductIDs(orders)

	var (
		meta  map[int64]woocommerce.ProductMeta
		saved []model.PurchaseStatus
	)
	g, gctx := errgroup.WithContext(ctx)
	if len(ids) > 0 {
		g.Go(func() error {
			m, err := s.platform.ListProducts(gctx, ids)
			if err != nil {
				s.metrics.Degraded()
				log.Warn("product metadata unavailable; using default categories",
					zap.Int("products", len(ids)), zap.Error(err))
				return nil
			}
			meta = m
			return nil
		})
	}
	g.Go(func() error {
		list, err := s.progress.ReadAll(gctx)
		if err != nil {
			return err
		}
		saved = list
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := reconcile.Merge(orders, meta, reconcile.ProgressIndex(saved))
	log.Debug("orders listed", zap.String("group", string(group)), zap.Int("orders", len(out)))
	return out, nil
}

// Complete promotes an open, fully purchased order to "completed" in the
// store. The update is only sent once both preconditions hold. Progress rows
// are kept. Callers must not run two completions of one order at once.
func (s *orderService) Complete(ctx context.Context, orderID int64) (*woocommerce.Order, error) {
	if orderID <= 0 {
		return nil, fmt.Errorf("%w: invalid order id %d", ErrValidation, orderID)
	}
	log := logger.FromContext(ctx).With(zap.Int64("order_id", orderID))

	o, err := s.platform.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !woocommerce.GroupOpen.Contains(o.Status) {
		return nil, fmt.Errorf("%w: order %d has status %q", ErrOrderNotOpen, orderID, o.Status)
	}
	saved, err := s.progress.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !reconcile.Completable(*o, reconcile.ProgressIndex(saved)) {
		return nil, fmt.Errorf("%w: order %d", ErrNotCompletable, orderID)
	}

	updated, err := s.platform.SetOrderCompleted(ctx, orderID)
	if err != nil {
		log.Warn("order completion failed", zap.Error(err))
		return nil, err
	}
	s.metrics.Completed()
	log.Info("order completed", zap.String("status", updated.Status))
	return updated, nil
}
