package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/shinyyama/order-progress-backend/internal/logger"
	"github.com/shinyyama/order-progress-backend/internal/repository"
	"github.com/shinyyama/order-progress-backend/internal/service"
	"github.com/shinyyama/order-progress-backend/internal/woocommerce"
)

type errorPayload struct {
	Code           string `json:"code"`
	Message        string `json:"message"`
	UpstreamStatus int    `json:"upstreamStatus,omitempty"`
	UpstreamBody   string `json:"upstreamBody,omitempty"`
}

type ErrorResponse struct {
	Error errorPayload `json:"error"`
}

func NewErrorResponse(code, message string) ErrorResponse {
	return ErrorResponse{
		Error: errorPayload{
			Code:    code,
			Message: message,
		},
	}
}

// errorStatus maps a service or client error to its HTTP status and code.
// Narrower sentinels are checked before ErrUpstreamRejected.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, service.ErrNotCompletable):
		return http.StatusConflict, "not_completable"
	case errors.Is(err, service.ErrOrderNotOpen):
		return http.StatusConflict, "order_not_open"
	case errors.Is(err, woocommerce.ErrConfigMissing):
		return http.StatusServiceUnavailable, "config_missing"
	case errors.Is(err, woocommerce.ErrUpstreamUnavailable):
		return http.StatusGatewayTimeout, "upstream_unavailable"
	case errors.Is(err, woocommerce.ErrOrderNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, woocommerce.ErrAuthRejected):
		return http.StatusBadGateway, "auth_rejected"
	case errors.Is(err, woocommerce.ErrUpstreamRejected):
		return http.StatusBadGateway, "upstream_rejected"
	case errors.Is(err, woocommerce.ErrMalformedResponse):
		return http.StatusBadGateway, "upstream_invalid"
	case errors.Is(err, repository.ErrPersistenceUnavailable):
		return http.StatusServiceUnavailable, "persistence_unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func writeError(c echo.Context, err error) error {
	status, code := errorStatus(err)
	resp := NewErrorResponse(code, err.Error())
	var upstream *woocommerce.UpstreamError
	if errors.As(err, &upstream) {
		resp.Error.UpstreamStatus = upstream.StatusCode
		resp.Error.UpstreamBody = upstream.Body
	}
	log := logger.FromContext(c.Request().Context())
	if status >= http.StatusInternalServerError {
		log.Warn("request failed", zap.String("code", code), zap.Error(err))
	} else {
		log.Debug("request rejected", zap.String("code", code), zap.Error(err))
	}
	return c.JSON(status, resp)
}
