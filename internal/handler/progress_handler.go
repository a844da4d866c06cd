package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/shinyyama/order-progress-backend/internal/model"
	"github.com/shinyyama/order-progress-backend/internal/service"
)

type ProgressHandler struct {
	svc service.ProgressService
}

func NewProgressHandler(svc service.ProgressService) *ProgressHandler {
	return &ProgressHandler{svc: svc}
}

type SetItemRequest struct {
	LineItemID        *int64 `json:"lineItemId" validate:"required,gt=0"`
	OrderID           *int64 `json:"orderId" validate:"required,gt=0"`
	IsPurchased       *bool  `json:"isPurchased"`
	QuantityPurchased *int   `json:"quantityPurchased" validate:"required,min=0"`
}

type ProgressResponse struct {
	LineItemID        int64  `json:"lineItemId"`
	OrderID           int64  `json:"orderId"`
	IsPurchased       bool   `json:"isPurchased"`
	QuantityPurchased int    `json:"quantityPurchased"`
	UpdatedAt         string `json:"updatedAt"`
}

type SetItemResponse struct {
	Success bool             `json:"success"`
	Status  ProgressResponse `json:"status"`
}

func toProgressResponse(st *model.PurchaseStatus) ProgressResponse {
	return ProgressResponse{
		LineItemID:        st.LineItemID,
		OrderID:           st.OrderID,
		IsPurchased:       st.IsPurchased,
		QuantityPurchased: st.QuantityPurchased,
		UpdatedAt:         st.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// SetItem serves POST /api/item-status.
func (h *ProgressHandler) SetItem(c echo.Context) error {
	var req SetItemRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid json"))
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", validationMessage(err)))
	}
	st, err := h.svc.SetItem(c.Request().Context(), service.SetItemInput{
		LineItemID:        *req.LineItemID,
		OrderID:           *req.OrderID,
		IsPurchased:       req.IsPurchased,
		QuantityPurchased: *req.QuantityPurchased,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SetItemResponse{Success: true, Status: toProgressResponse(st)})
}

// All serves GET /api/all-status.
func (h *ProgressHandler) All(c echo.Context) error {
	list, err := h.svc.All(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	resp := make([]ProgressResponse, 0, len(list))
	for i := range list {
		resp = append(resp, toProgressResponse(&list[i]))
	}
	return c.JSON(http.StatusOK, resp)
}
