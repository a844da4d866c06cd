package woocommerce

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// StatusGroup is the canonical order filter exposed to callers.
type StatusGroup string

const (
	GroupOpen      StatusGroup = "open"
	GroupCompleted StatusGroup = "completed"
)

const StatusCompleted = "completed"

var groupStatuses = map[StatusGroup][]string{
	GroupOpen:      {"processing", "on-hold"},
	GroupCompleted: {StatusCompleted},
}

// ParseStatusGroup accepts "open" (the default), its alias "processing", and
// "completed".
func ParseStatusGroup(s string) (StatusGroup, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "open", "processing":
		return GroupOpen, nil
	case "completed":
		return GroupCompleted, nil
	default:
		return "", fmt.Errorf("unknown status filter %q", s)
	}
}

// Statuses returns the remote lifecycle states the group stands for.
func (g StatusGroup) Statuses() []string {
	return groupStatuses[g]
}

func (g StatusGroup) Contains(status string) bool {
	for _, s := range groupStatuses[g] {
		if s == status {
			return true
		}
	}
	return false
}

// Order is a validated remote order.
type Order struct {
	ID          int64
	DateCreated time.Time
	Status      string
	Currency    string
	Total       decimal.Decimal
	FirstName   string
	LastName    string
	LineItems   []LineItem
}

type LineItem struct {
	ID        int64
	Name      string
	ProductID int64 // 0 when the item references no product
	Quantity  int
	SKU       string
	Total     decimal.Decimal
}

// ProductMeta is the enrichment the listing uses for grouping.
type ProductMeta struct {
	Category string
	ImageURL string
}

const uncategorized = "Uncategorized"

// Remote payloads. Required fields are pointers so that absence can be told
// apart from a zero value.
type rawOrder struct {
	ID             *int64         `json:"id"`
	Status         string         `json:"status"`
	Currency       string         `json:"currency"`
	DateCreated    *string        `json:"date_created"`
	DateCreatedGMT string         `json:"date_created_gmt"`
	Total          string         `json:"total"`
	Billing        rawBilling     `json:"billing"`
	LineItems      *[]rawLineItem `json:"line_items"`
}

type rawBilling struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type rawLineItem struct {
	ID        *int64 `json:"id"`
	Name      string `json:"name"`
	ProductID *int64 `json:"product_id"`
	Quantity  *int   `json:"quantity"`
	SKU       string `json:"sku"`
	Total     string `json:"total"`
}

type rawProduct struct {
	ID         int64 `json:"id"`
	Categories []struct {
		Name string `json:"name"`
	} `json:"categories"`
	Images []struct {
		Src string `json:"src"`
	} `json:"images"`
}

// WooCommerce renders dates without a zone; *_gmt fields are UTC.
const wcTimeLayout = "2006-01-02T15:04:05"

func parseOrder(op string, raw rawOrder) (Order, error) {
	if raw.ID == nil {
		return Order{}, malformed(op, "order without id")
	}
	id := *raw.ID
	if raw.DateCreated == nil {
		return Order{}, malformed(op, "order %d without date_created", id)
	}
	if raw.LineItems == nil {
		return Order{}, malformed(op, "order %d without line_items", id)
	}
	created, err := parseTime(raw.DateCreatedGMT, *raw.DateCreated)
	if err != nil {
		return Order{}, malformed(op, "order %d date_created: %v", id, err)
	}
	total, err := parseMoney(raw.Total)
	if err != nil {
		return Order{}, malformed(op, "order %d total: %v", id, err)
	}
	o := Order{
		ID:          id,
		DateCreated: created,
		Status:      raw.Status,
		Currency:    raw.Currency,
		Total:       total,
		FirstName:   raw.Billing.FirstName,
		LastName:    raw.Billing.LastName,
		LineItems:   make([]LineItem, 0, len(*raw.LineItems)),
	}
	for _, ri := range *raw.LineItems {
		item, err := parseLineItem(op, id, ri)
		if err != nil {
			return Order{}, err
		}
		o.LineItems = append(o.LineItems, item)
	}
	return o, nil
}

func parseLineItem(op string, orderID int64, raw rawLineItem) (LineItem, error) {
	if raw.ID == nil {
		return LineItem{}, malformed(op, "order %d has a line item without id", orderID)
	}
	if raw.Quantity == nil || *raw.Quantity < 1 {
		return LineItem{}, malformed(op, "line item %d has no positive quantity", *raw.ID)
	}
	total, err := parseMoney(raw.Total)
	if err != nil {
		return LineItem{}, malformed(op, "line item %d total: %v", *raw.ID, err)
	}
	item := LineItem{
		ID:       *raw.ID,
		Name:     raw.Name,
		Quantity: *raw.Quantity,
		SKU:      raw.SKU,
		Total:    total,
	}
	if raw.ProductID != nil && *raw.ProductID > 0 {
		item.ProductID = *raw.ProductID
	}
	return item, nil
}

func parseProduct(raw rawProduct) ProductMeta {
	meta := ProductMeta{Category: uncategorized}
	if len(raw.Categories) > 0 && raw.Categories[0].Name != "" {
		meta.Category = raw.Categories[0].Name
	}
	if len(raw.Images) > 0 {
		meta.ImageURL = raw.Images[0].Src
	}
	return meta
}

func parseTime(gmt, local string) (time.Time, error) {
	if gmt != "" {
		return time.ParseInLocation(wcTimeLayout, gmt, time.UTC)
	}
	if t, err := time.Parse(time.RFC3339, local); err == nil {
		return t, nil
	}
	return time.ParseInLocation(wcTimeLayout, local, time.UTC)
}

func parseMoney(s string) (decimal.Decimal, error) {
	if strings.TrimSpace(s) == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}
