package reconciliation

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lcsgmoraes-droid/Sistema-Pet-sub001/internal/domain"
)

// APIResponse defines the standard envelope for API responses
type APIResponse struct {
	Status  string      `json:"status"` // "success" or "error"
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
	Code    string      `json:"code,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

func respondSuccess(c *gin.Context, status int, data interface{}) {
	c.JSON(status, APIResponse{Status: "success", Data: data})
}

func respondError(c *gin.Context, err error) {
	var derr *domain.DomainError
	if !errors.As(err, &derr) {
		c.JSON(http.StatusInternalServerError, APIResponse{
			Status:  "error",
			Message: "internal server error",
			Code:    string(domain.ErrorCodeInternalError),
		})
		return
	}
	resp := APIResponse{
		Status:  "error",
		Message: derr.Message,
		Code:    string(derr.Code),
	}
	if len(derr.Details) > 0 {
		resp.Details = derr.Details
	}
	c.JSON(httpStatusFor(derr.Code), resp)
}

func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, APIResponse{
		Status:  "error",
		Message: message,
		Code:    string(domain.ErrorCodeValidationFailed),
	})
}

func httpStatusFor(code domain.ErrorCode) int {
	switch code {
	case domain.ErrorCodeMatchNotFound, domain.ErrorCodeRunNotFound:
		return http.StatusNotFound
	case domain.ErrorCodeValidationFailed, domain.ErrorCodeValidationMissingField,
		domain.ErrorCodeImportEmptyFile, domain.ErrorCodeImportBadFormat:
		return http.StatusBadRequest
	case domain.ErrorCodeMatchNotConfirmable, domain.ErrorCodeMatchBulkDivergent,
		domain.ErrorCodeMatchLineAlreadyLinked, domain.ErrorCodeCascadeEmptyInput:
		return http.StatusUnprocessableEntity
	case domain.ErrorCodeScopeLocked:
		return http.StatusConflict
	case domain.ErrorCodeNoValidatedRun:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
