package service

import (
	"context"
	"testing"

	"github.com/shinyyama/order-progress-backend/internal/model"
	"github.com/shinyyama/order-progress-backend/internal/repository"
	"github.com/shinyyama/order-progress-backend/internal/woocommerce"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool { return &b }

func TestProgressService_SetItemValidation(t *testing.T) {
	tests := []struct {
		name string
		in   SetItemInput
		want error
	}{
		{"missing line item", SetItemInput{OrderID: 501}, ErrValidation},
		{"missing order", SetItemInput{LineItemID: 10}, ErrValidation},
		{"negative quantity", SetItemInput{LineItemID: 10, OrderID: 501, QuantityPurchased: -1}, ErrValidation},
		{"above quantity", SetItemInput{LineItemID: 10, OrderID: 501, QuantityPurchased: 3}, ErrValidation},
		{"item not in order", SetItemInput{LineItemID: 99, OrderID: 501}, ErrValidation},
		{"flag disagrees with count", SetItemInput{LineItemID: 10, OrderID: 501, QuantityPurchased: 1, IsPurchased: boolPtr(true)}, ErrValidation},
		{"unknown order", SetItemInput{LineItemID: 10, OrderID: 404}, woocommerce.ErrOrderNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.progress.SetItem(context.Background(), tt.in)
			assert.ErrorIs(t, err, tt.want)

			all, err := f.repo.ReadAll(context.Background())
			require.NoError(t, err)
			assert.Len(t, all, 1, "nothing new was written")
		})
	}
}

func TestProgressService_SetItem(t *testing.T) {
	tests := []struct {
		name string
		in   SetItemInput
		want model.PurchaseStatus
	}{
		{"partial", SetItemInput{LineItemID: 10, OrderID: 501, QuantityPurchased: 1},
			model.PurchaseStatus{LineItemID: 10, OrderID: 501, QuantityPurchased: 1}},
		{"toggle on", SetItemInput{LineItemID: 10, OrderID: 501, QuantityPurchased: 2, IsPurchased: boolPtr(true)},
			model.PurchaseStatus{LineItemID: 10, OrderID: 501, IsPurchased: true, QuantityPurchased: 2}},
		{"toggle off", SetItemInput{LineItemID: 11, OrderID: 501, QuantityPurchased: 0, IsPurchased: boolPtr(false)},
			model.PurchaseStatus{LineItemID: 11, OrderID: 501}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			st, err := f.progress.SetItem(context.Background(), tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, st.Progress())
		})
	}
}

func TestProgressService_SetItemIsIdempotent(t *testing.T) {
	f := newFixture(t)
	in := SetItemInput{LineItemID: 10, OrderID: 501, QuantityPurchased: 2, IsPurchased: boolPtr(true)}

	first, err := f.progress.SetItem(context.Background(), in)
	require.NoError(t, err)
	second, err := f.progress.SetItem(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, first.Progress(), second.Progress())

	all, err := f.progress.All(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestProgressService_SetItemStoreFailure(t *testing.T) {
	svc := NewProgressService(newFakePlatform(order501()), failingRepo{}, nil)
	_, err := svc.SetItem(context.Background(), SetItemInput{LineItemID: 10, OrderID: 501, QuantityPurchased: 1})
	assert.ErrorIs(t, err, repository.ErrPersistenceUnavailable)
}

func TestProgressService_SetItemNeedsRemoteOrder(t *testing.T) {
	for name, remoteErr := range map[string]error{
		"unavailable":    woocommerce.ErrUpstreamUnavailable,
		"config missing": woocommerce.ErrConfigMissing,
	} {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			f.platform.getErr = remoteErr

			_, err := f.progress.SetItem(context.Background(), SetItemInput{LineItemID: 10, OrderID: 501, QuantityPurchased: 1})
			assert.ErrorIs(t, err, remoteErr)

			all, err := f.repo.ReadAll(context.Background())
			require.NoError(t, err)
			require.Len(t, all, 1)
			assert.Equal(t, int64(11), all[0].LineItemID, "no write reached the store")
		})
	}
}
