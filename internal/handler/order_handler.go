package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/shinyyama/order-progress-backend/internal/reconcile"
	"github.com/shinyyama/order-progress-backend/internal/service"
	"github.com/shinyyama/order-progress-backend/internal/woocommerce"
)

type OrderHandler struct {
	svc service.OrderService
}

func NewOrderHandler(svc service.OrderService) *OrderHandler {
	return &OrderHandler{svc: svc}
}

type LineItemResponse struct {
	ID                int64  `json:"id"`
	Name              string `json:"name"`
	ProductID         int64  `json:"productId"`
	Quantity          int    `json:"quantity"`
	SKU               string `json:"sku"`
	Total             string `json:"total"`
	Category          string `json:"category"`
	ImageURL          string `json:"imageUrl"`
	QuantityPurchased int    `json:"quantityPurchased"`
	IsPurchased       bool   `json:"isPurchased"`
	ProgressConflict  bool   `json:"progressConflict,omitempty"`
}

type CategoryGroupResponse struct {
	Name           string             `json:"name"`
	Items          []LineItemResponse `json:"items"`
	PurchasedCount int                `json:"purchasedCount"`
	TotalCount     int                `json:"totalCount"`
	Complete       bool               `json:"complete"`
}

type OrderResponse struct {
	ID          int64                   `json:"id"`
	DateCreated string                  `json:"dateCreated"`
	Status      string                  `json:"status"`
	Currency    string                  `json:"currency"`
	Total       string                  `json:"total"`
	FirstName   string                  `json:"firstName"`
	LastName    string                  `json:"lastName"`
	LineItems   []LineItemResponse      `json:"lineItems"`
	Categories  []CategoryGroupResponse `json:"categories"`
	Completable bool                    `json:"completable"`
}

type OrderListResponse struct {
	Orders []OrderResponse `json:"orders"`
	Total  int             `json:"total"`
}

type SnapshotLineItemResponse struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	ProductID int64  `json:"productId"`
	Quantity  int    `json:"quantity"`
	SKU       string `json:"sku"`
	Total     string `json:"total"`
}

// OrderSnapshotResponse is the order as the store returned it after an update.
type OrderSnapshotResponse struct {
	ID          int64                      `json:"id"`
	DateCreated string                     `json:"dateCreated"`
	Status      string                     `json:"status"`
	Currency    string                     `json:"currency"`
	Total       string                     `json:"total"`
	FirstName   string                     `json:"firstName"`
	LastName    string                     `json:"lastName"`
	LineItems   []SnapshotLineItemResponse `json:"lineItems"`
}

// money keeps the scale the amount was received with, so "12.345" and
// "12.50" are returned verbatim.
func money(d decimal.Decimal) string {
	if exp := d.Exponent(); exp < 0 {
		return d.StringFixed(-exp)
	}
	return d.String()
}

func toOrderSnapshotResponse(o *woocommerce.Order) OrderSnapshotResponse {
	items := make([]SnapshotLineItemResponse, 0, len(o.LineItems))
	for _, li := range o.LineItems {
		items = append(items, SnapshotLineItemResponse{
			ID:        li.ID,
			Name:      li.Name,
			ProductID: li.ProductID,
			Quantity:  li.Quantity,
			SKU:       li.SKU,
			Total:     money(li.Total),
		})
	}
	return OrderSnapshotResponse{
		ID:          o.ID,
		DateCreated: o.DateCreated.UTC().Format(time.RFC3339),
		Status:      o.Status,
		Currency:    o.Currency,
		Total:       money(o.Total),
		FirstName:   o.FirstName,
		LastName:    o.LastName,
		LineItems:   items,
	}
}

func toLineItemResponses(items []reconcile.LineItem) []LineItemResponse {
	out := make([]LineItemResponse, 0, len(items))
	for _, li := range items {
		out = append(out, LineItemResponse{
			ID:                li.ID,
			Name:              li.Name,
			ProductID:         li.ProductID,
			Quantity:          li.Quantity,
			SKU:               li.SKU,
			Total:             money(li.Total),
			Category:          li.Category,
			ImageURL:          li.ImageURL,
			QuantityPurchased: li.QuantityPurchased,
			IsPurchased:       li.IsPurchased,
			ProgressConflict:  li.ProgressConflict,
		})
	}
	return out
}

func toOrderResponse(o reconcile.Order) OrderResponse {
	groups := make([]CategoryGroupResponse, 0, len(o.Categories))
	for _, g := range o.Categories {
		groups = append(groups, CategoryGroupResponse{
			Name:           g.Name,
			Items:          toLineItemResponses(g.Items),
			PurchasedCount: g.PurchasedCount,
			TotalCount:     g.TotalCount,
			Complete:       g.Complete,
		})
	}
	return OrderResponse{
		ID:          o.ID,
		DateCreated: o.DateCreated.UTC().Format(time.RFC3339),
		Status:      o.Status,
		Currency:    o.Currency,
		Total:       money(o.Total),
		FirstName:   o.FirstName,
		LastName:    o.LastName,
		LineItems:   toLineItemResponses(o.LineItems),
		Categories:  groups,
		Completable: o.Completable,
	}
}

// List serves GET /api/orders?status=open|completed. The default is open.
func (h *OrderHandler) List(c echo.Context) error {
	group, err := woocommerce.ParseStatusGroup(c.QueryParam("status"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", err.Error()))
	}
	orders, err := h.svc.List(c.Request().Context(), group)
	if err != nil {
		return writeError(c, err)
	}
	resp := OrderListResponse{
		Orders: make([]OrderResponse, 0, len(orders)),
		Total:  len(orders),
	}
	for _, o := range orders {
		resp.Orders = append(resp.Orders, toOrderResponse(o))
	}
	return c.JSON(http.StatusOK, resp)
}

// Complete serves POST /api/orders/:id/complete.
func (h *OrderHandler) Complete(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid order id"))
	}
	o, err := h.svc.Complete(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toOrderSnapshotResponse(o))
}
