package reconcile

import (
	"testing"
	"time"

	"github.com/shinyyama/order-progress-backend/internal/model"
	"github.com/shinyyama/order-progress-backend/internal/woocommerce"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func order501() woocommerce.Order {
	return woocommerce.Order{
		ID:          501,
		DateCreated: time.Date(2024, 5, 2, 8, 0, 0, 0, time.UTC),
		Status:      "processing",
		LineItems: []woocommerce.LineItem{
			{ID: 10, Name: "Coffee", ProductID: 77, Quantity: 2},
			{ID: 11, Name: "Gift note", Quantity: 1},
		},
	}
}

func TestMergeNewAndSavedItems(t *testing.T) {
	progress := ProgressIndex([]model.PurchaseStatus{
		{LineItemID: 11, OrderID: 501, IsPurchased: true, QuantityPurchased: 1},
	})

	out := Merge([]woocommerce.Order{order501()}, nil, progress)
	require.Len(t, out, 1)
	o := out[0]
	require.Len(t, o.LineItems, 2)

	assert.Equal(t, 0, o.LineItems[0].QuantityPurchased)
	assert.False(t, o.LineItems[0].IsPurchased)
	assert.Equal(t, 1, o.LineItems[1].QuantityPurchased)
	assert.True(t, o.LineItems[1].IsPurchased)
	assert.False(t, o.Completable)
}

func TestMergeFullyPurchasedOrderIsCompletable(t *testing.T) {
	progress := ProgressIndex([]model.PurchaseStatus{
		{LineItemID: 10, OrderID: 501, IsPurchased: true, QuantityPurchased: 2},
		{LineItemID: 11, OrderID: 501, IsPurchased: true, QuantityPurchased: 1},
	})
	out := Merge([]woocommerce.Order{order501()}, nil, progress)
	assert.True(t, out[0].Completable)
	assert.True(t, Completable(order501(), progress))
}

func TestMergeDefaultsWithoutMetadata(t *testing.T) {
	for name, meta := range map[string]map[int64]woocommerce.ProductMeta{
		"nil map":       nil,
		"empty map":     {},
		"other product": {5: {Category: "Tea", ImageURL: "https://img/5.jpg"}},
	} {
		t.Run(name, func(t *testing.T) {
			out := Merge([]woocommerce.Order{order501()}, meta, nil)
			for _, li := range out[0].LineItems {
				assert.Equal(t, DefaultCategory, li.Category)
				assert.Empty(t, li.ImageURL)
			}
		})
	}
}

func TestMergeResolvesMetadata(t *testing.T) {
	meta := map[int64]woocommerce.ProductMeta{
		77: {Category: "Coffee", ImageURL: "https://img/77.jpg"},
		// Items without a product never pick up metadata keyed by zero.
		0: {Category: "Ghost", ImageURL: "https://img/0.jpg"},
	}
	out := Merge([]woocommerce.Order{order501()}, meta, nil)
	items := out[0].LineItems
	assert.Equal(t, "Coffee", items[0].Category)
	assert.Equal(t, "https://img/77.jpg", items[0].ImageURL)
	assert.Equal(t, DefaultCategory, items[1].Category)
	assert.Empty(t, items[1].ImageURL)
}

func TestCategoryGroupsSortedAscending(t *testing.T) {
	o := woocommerce.Order{
		ID:          7,
		DateCreated: time.Now(),
		LineItems: []woocommerce.LineItem{
			{ID: 1, ProductID: 3, Quantity: 1},
			{ID: 2, ProductID: 1, Quantity: 1},
			{ID: 3, Quantity: 1},
			{ID: 4, ProductID: 2, Quantity: 2},
			{ID: 5, ProductID: 1, Quantity: 1},
		},
	}
	meta := map[int64]woocommerce.ProductMeta{
		1: {Category: "Bakery"},
		2: {Category: "Zucchini"},
		3: {Category: "Apples"},
	}
	progress := ProgressIndex([]model.PurchaseStatus{
		{LineItemID: 2, IsPurchased: true, QuantityPurchased: 1},
		{LineItemID: 5, IsPurchased: true, QuantityPurchased: 1},
		{LineItemID: 4, QuantityPurchased: 1},
	})

	groups := Merge([]woocommerce.Order{o}, meta, progress)[0].Categories
	require.Len(t, groups, 4)
	names := make([]string, len(groups))
	for i, g := range groups {
		names[i] = g.Name
	}
	assert.Equal(t, []string{"Apples", "Bakery", "Products", "Zucchini"}, names)

	bakery := groups[1]
	assert.Equal(t, 2, bakery.TotalCount)
	assert.Equal(t, 2, bakery.PurchasedCount)
	assert.True(t, bakery.Complete)
	assert.Equal(t, []int64{2, 5}, []int64{bakery.Items[0].ID, bakery.Items[1].ID})

	zucchini := groups[3]
	assert.Equal(t, 0, zucchini.PurchasedCount)
	assert.False(t, zucchini.Complete)
}

func TestMergeOrdersMostRecentFirst(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	orders := []woocommerce.Order{
		{ID: 1, DateCreated: base, LineItems: []woocommerce.LineItem{}},
		{ID: 3, DateCreated: base.Add(2 * time.Hour), LineItems: []woocommerce.LineItem{}},
		{ID: 2, DateCreated: base.Add(time.Hour), LineItems: []woocommerce.LineItem{}},
		{ID: 4, DateCreated: base.Add(time.Hour), LineItems: []woocommerce.LineItem{}},
	}
	out := Merge(orders, nil, nil)
	ids := make([]int64, len(out))
	for i, o := range out {
		ids[i] = o.ID
	}
	assert.Equal(t, []int64{3, 4, 2, 1}, ids)
	assert.Equal(t, int64(1), orders[0].ID, "input order is left alone")
}

func TestEmptyOrderIsVacuouslyCompletable(t *testing.T) {
	o := woocommerce.Order{ID: 9, DateCreated: time.Now()}
	out := Merge([]woocommerce.Order{o}, nil, nil)
	assert.True(t, out[0].Completable)
	assert.Empty(t, out[0].Categories)
}

func TestPurchasedFlagFollowsQuantity(t *testing.T) {
	tests := []struct {
		name         string
		quantity     int
		saved        model.PurchaseStatus
		wantQty      int
		wantBought   bool
		wantConflict bool
	}{
		{"partial", 3, model.PurchaseStatus{QuantityPurchased: 1}, 1, false, false},
		{"complete", 3, model.PurchaseStatus{IsPurchased: true, QuantityPurchased: 3}, 3, true, false},
		{"quantity raised upstream", 4, model.PurchaseStatus{IsPurchased: true, QuantityPurchased: 3}, 3, false, true},
		{"quantity lowered below saved count", 2, model.PurchaseStatus{IsPurchased: true, QuantityPurchased: 3}, 3, false, true},
		{"quantity lowered to saved count", 1, model.PurchaseStatus{QuantityPurchased: 1}, 1, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.saved.LineItemID = 1
			o := woocommerce.Order{ID: 1, DateCreated: time.Now(), LineItems: []woocommerce.LineItem{{ID: 1, Quantity: tt.quantity}}}
			li := Merge([]woocommerce.Order{o}, nil, ProgressIndex([]model.PurchaseStatus{tt.saved}))[0].LineItems[0]

			assert.Equal(t, tt.wantQty, li.QuantityPurchased)
			assert.Equal(t, tt.wantBought, li.IsPurchased)
			assert.Equal(t, li.QuantityPurchased == li.Quantity, li.IsPurchased)
			assert.Equal(t, tt.wantConflict, li.ProgressConflict)
		})
	}
}

func TestProductIDs(t *testing.T) {
	orders := []woocommerce.Order{
		{LineItems: []woocommerce.LineItem{{ProductID: 77}, {ProductID: 0}, {ProductID: 5}}},
		{LineItems: []woocommerce.LineItem{{ProductID: 77}, {ProductID: 9}}},
	}
	assert.Equal(t, []int64{77, 5, 9}, ProductIDs(orders))
	assert.Empty(t, ProductIDs(nil))
}
