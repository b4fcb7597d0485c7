package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/brpag/gateway/internal/asaas"
	customerdomain "github.com/brpag/gateway/internal/customer/domain"
	paymentdomain "github.com/brpag/gateway/internal/payment/domain"
)

type apiError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func (e *apiError) Error() string { return e.Code }

var (
	ErrNotFound     = &apiError{Status: http.StatusNotFound, Code: "not_found", Message: "resource not found"}
	ErrUnauthorized = &apiError{Status: http.StatusUnauthorized, Code: "unauthorized", Message: "unauthorized"}
	ErrTooMany      = &apiError{Status: http.StatusTooManyRequests, Code: "rate_limited", Message: "too many requests"}
)

func invalidRequestError() *apiError {
	return &apiError{
		Status:  http.StatusBadRequest,
		Code:    "invalid_request",
		Message: "invalid request body",
	}
}

func newValidationError(field, code, message string) *apiError {
	return &apiError{
		Status:  http.StatusUnprocessableEntity,
		Code:    code,
		Message: message,
		Field:   field,
	}
}

// AbortWithError maps domain errors to HTTP responses. Unrecognized errors
// become opaque 500s so provider bodies and SQL details never leak.
func AbortWithError(c *gin.Context, err error) {
	apiErr := toAPIError(err)
	c.AbortWithStatusJSON(apiErr.Status, gin.H{"error": apiErr})
}

func toAPIError(err error) *apiError {
	var apiErr *apiError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var providerErr *asaas.ProviderError
	if errors.As(err, &providerErr) {
		return &apiError{
			Status:  http.StatusBadGateway,
			Code:    "provider_error",
			Message: "payment provider request failed",
		}
	}

	switch {
	case errors.Is(err, paymentdomain.ErrPaymentNotFound),
		errors.Is(err, customerdomain.ErrCustomerNotFound):
		return &apiError{Status: http.StatusNotFound, Code: err.Error(), Message: "resource not found"}

	case errors.Is(err, paymentdomain.ErrNotBankSlip),
		errors.Is(err, paymentdomain.ErrNotPix):
		return &apiError{Status: http.StatusConflict, Code: err.Error(), Message: "operation not available for this payment method"}

	case errors.Is(err, paymentdomain.ErrInvalidID),
		errors.Is(err, paymentdomain.ErrInvalidMethod),
		errors.Is(err, paymentdomain.ErrInvalidStatus),
		errors.Is(err, paymentdomain.ErrInvalidValue),
		errors.Is(err, paymentdomain.ErrInvalidPayload),
		errors.Is(err, paymentdomain.ErrCardRequired):
		return &apiError{Status: http.StatusBadRequest, Code: err.Error(), Message: "invalid request"}

	default:
		return &apiError{Status: http.StatusInternalServerError, Code: "internal_error", Message: "internal server error"}
	}
}
