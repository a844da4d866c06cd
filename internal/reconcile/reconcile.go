// Package reconcile merges remote orders, product metadata and locally saved
// progress into the order view served to the operator.
package reconcile

import (
	"sort"
	"time"

	"github.com/shinyyama/order-progress-backend/internal/model"
	"github.com/shinyyama/order-progress-backend/internal/woocommerce"
	"github.com/shopspring/decimal"
)

// DefaultCategory is used when an item's product metadata is unavailable.
const DefaultCategory = "Products"

type Order struct {
	ID          int64
	DateCreated time.Time
	Status      string
	Currency    string
	Total       decimal.Decimal
	FirstName   string
	LastName    string
	LineItems   []LineItem
	Categories  []CategoryGroup
	Completable bool
}

type LineItem struct {
	ID                int64
	Name              string
	ProductID         int64
	Quantity          int
	SKU               string
	Total             decimal.Decimal
	Category          string
	ImageURL          string
	QuantityPurchased int
	IsPurchased       bool
	// ProgressConflict is set when the saved progress no longer fits the
	// remote quantity, e.g. after the order was edited in the store.
	ProgressConflict bool
}

type CategoryGroup struct {
	Name           string
	Items          []LineItem
	PurchasedCount int
	TotalCount     int
	Complete       bool
}

// ProgressIndex keys saved progress by line item id.
func ProgressIndex(list []model.PurchaseStatus) map[int64]model.PurchaseStatus {
	idx := make(map[int64]model.PurchaseStatus, len(list))
	for _, st := range list {
		idx[st.LineItemID] = st
	}
	return idx
}

// ProductIDs returns the distinct non-zero product ids referenced by orders.
func ProductIDs(orders []woocommerce.Order) []int64 {
	seen := make(map[int64]struct{})
	var ids []int64
	for _, o := range orders {
		for _, li := range o.LineItems {
			if li.ProductID == 0 {
				continue
			}
			if _, ok := seen[li.ProductID]; ok {
				continue
			}
			seen[li.ProductID] = struct{}{}
			ids = append(ids, li.ProductID)
		}
	}
	return ids
}

// Merge builds the enriched order list, most recent first. meta and progress
// may be nil. Inputs are not modified.
func Merge(orders []woocommerce.Order, meta map[int64]woocommerce.ProductMeta, progress map[int64]model.PurchaseStatus) []Order {
	out := make([]Order, 0, len(orders))
	for _, o := range orders {
		out = append(out, mergeOrder(o, meta, progress))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].DateCreated.Equal(out[j].DateCreated) {
			return out[i].DateCreated.After(out[j].DateCreated)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func mergeOrder(o woocommerce.Order, meta map[int64]woocommerce.ProductMeta, progress map[int64]model.PurchaseStatus) Order {
	items := make([]LineItem, 0, len(o.LineItems))
	for _, li := range o.LineItems {
		items = append(items, mergeItem(li, meta, progress))
	}
	return Order{
		ID:          o.ID,
		DateCreated: o.DateCreated,
		Status:      o.Status,
		Currency:    o.Currency,
		Total:       o.Total,
		FirstName:   o.FirstName,
		LastName:    o.LastName,
		LineItems:   items,
		Categories:  groupByCategory(items),
		Completable: allPurchased(items),
	}
}

func mergeItem(li woocommerce.LineItem, meta map[int64]woocommerce.ProductMeta, progress map[int64]model.PurchaseStatus) LineItem {
	item := LineItem{
		ID:        li.ID,
		Name:      li.Name,
		ProductID: li.ProductID,
		Quantity:  li.Quantity,
		SKU:       li.SKU,
		Total:     li.Total,
		Category:  DefaultCategory,
	}
	if m, ok := meta[li.ProductID]; ok && li.ProductID != 0 {
		if m.Category != "" {
			item.Category = m.Category
		}
		item.ImageURL = m.ImageURL
	}
	if st, ok := progress[li.ID]; ok {
		// The saved count is reported as-is, even past the current quantity;
		// the purchased flag always follows from it.
		item.QuantityPurchased = st.QuantityPurchased
		item.IsPurchased = st.QuantityPurchased == li.Quantity
		item.ProgressConflict = st.QuantityPurchased > li.Quantity || st.IsPurchased != item.IsPurchased
	}
	return item
}

func groupByCategory(items []LineItem) []CategoryGroup {
	byName := make(map[string]*CategoryGroup)
	var names []string
	for _, it := range items {
		g, ok := byName[it.Category]
		if !ok {
			g = &CategoryGroup{Name: it.Category}
			byName[it.Category] = g
			names = append(names, it.Category)
		}
		g.Items = append(g.Items, it)
		g.TotalCount++
		if it.IsPurchased {
			g.PurchasedCount++
		}
	}
	sort.Strings(names)
	groups := make([]CategoryGroup, 0, len(names))
	for _, n := range names {
		g := byName[n]
		g.Complete = g.PurchasedCount == g.TotalCount
		groups = append(groups, *g)
	}
	return groups
}

// An order with no line items is vacuously completable.
func allPurchased(items []LineItem) bool {
	for _, it := range items {
		if !it.IsPurchased {
			return false
		}
	}
	return true
}

// Completable reports whether every line item of o is fully purchased
// according to progress.
func Completable(o woocommerce.Order, progress map[int64]model.PurchaseStatus) bool {
	return mergeOrder(o, nil, progress).Completable
}
