package service

import (
	"context"

	"github.com/shinyyama/order-progress-backend/internal/woocommerce"
)

// OrderPlatform is the remote order system. *woocommerce.Client satisfies it.
type OrderPlatform interface {
	ListOrders(ctx context.Context, group woocommerce.StatusGroup) ([]woocommerce.Order, error)
	GetOrder(ctx context.Context, id int64) (*woocommerce.Order, error)
	ListProducts(ctx context.Context, ids []int64) (map[int64]woocommerce.ProductMeta, error)
	SetOrderCompleted(ctx context.Context, id int64) (*woocommerce.Order, error)
}

var _ OrderPlatform = (*woocommerce.Client)(nil)
