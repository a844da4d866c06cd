package model

import "time"

// PurchaseStatus is the locally tracked progress of one line item. The line
// item id is the key; rows are upserted, never duplicated.
type PurchaseStatus struct {
	LineItemID        int64     `gorm:"column:line_item_id;primaryKey;autoIncrement:false"`
	OrderID           int64     `gorm:"column:order_id;index;not null"`
	IsPurchased       bool      `gorm:"column:is_purchased;not null"`
	QuantityPurchased int       `gorm:"column:quantity_purchased;not null"`
	CreatedAt         time.Time `gorm:"autoCreateTime"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime"`
}

func (PurchaseStatus) TableName() string {
	return "purchase_statuses"
}

// Progress returns the persisted 4-tuple without bookkeeping timestamps.
func (p PurchaseStatus) Progress() PurchaseStatus {
	return PurchaseStatus{
		LineItemID:        p.LineItemID,
		OrderID:           p.OrderID,
		IsPurchased:       p.IsPurchased,
		QuantityPurchased: p.QuantityPurchased,
	}
}
