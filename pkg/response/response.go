package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MQuirosP/backend-bancas-sub001/internal/domain"
)

type Response struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Data    interface{}  `json:"data,omitempty"`
	Error   *ErrorDetail `json:"error,omitempty"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func Success(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func Error(c *gin.Context, statusCode int, code, message, details string) {
	c.JSON(statusCode, Response{
		Success: false,
		Message: message,
		Error: &ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

func BadRequest(c *gin.Context, message, details string) {
	Error(c, http.StatusBadRequest, "BAD_REQUEST", message, details)
}

func InternalError(c *gin.Context, message, details string) {
	Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", message, details)
}

func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, "NOT_FOUND", message, "")
}

func ValidationError(c *gin.Context, details string) {
	Error(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Validation failed", details)
}

// LedgerError maps a ledger validation failure to its HTTP status using
// the error's stable kind code. Non-ledger errors fall back to a 500.
func LedgerError(c *gin.Context, err error) {
	kind := domain.KindOf(err)
	switch kind {
	case domain.ErrStatementSettled, domain.ErrAlreadyReversed, domain.ErrCannotReverseSettled, domain.ErrStatementHasActivity:
		Error(c, http.StatusConflict, string(kind), err.Error(), "")
	case domain.ErrInvalidAmount, domain.ErrInvalidReason:
		Error(c, http.StatusUnprocessableEntity, string(kind), err.Error(), "")
	case domain.ErrStatementNotFound:
		Error(c, http.StatusNotFound, string(kind), err.Error(), "")
	default:
		InternalError(c, "Internal server error", err.Error())
	}
}
