package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/MQuirosP/backend-bancas-sub001/internal/bizday"
	"github.com/MQuirosP/backend-bancas-sub001/internal/domain"
	"github.com/MQuirosP/backend-bancas-sub001/internal/service"
	"github.com/MQuirosP/backend-bancas-sub001/pkg/logger"
	"github.com/MQuirosP/backend-bancas-sub001/pkg/response"
)

type PaymentHandler struct {
	service service.PaymentService
	loc     *time.Location
}

func NewPaymentHandler(service service.PaymentService, loc *time.Location) *PaymentHandler {
	return &PaymentHandler{service: service, loc: loc}
}

type RegisterPaymentRequest struct {
	Date           string  `json:"date" binding:"required"`
	Dimension      string  `json:"dimension" binding:"required"`
	EntityID       *string `json:"entity_id"`
	Amount         string  `json:"amount" binding:"required"`
	Kind           string  `json:"kind" binding:"required"`
	Method         string  `json:"method"`
	Note           string  `json:"note"`
	IdempotencyKey *string `json:"idempotency_key"`
	RecordedBy     string  `json:"recorded_by" binding:"required"`
}

type ReversePaymentRequest struct {
	Actor  string  `json:"actor" binding:"required"`
	Reason *string `json:"reason"`
}

// RegisterPayment godoc
// @Summary Register a cash movement
// @Description Register a payment or collection against an entity-day statement. Requests carrying a known idempotency key return the original movement unchanged.
// @Tags payments
// @Accept json
// @Produce json
// @Param request body RegisterPaymentRequest true "Movement to register"
// @Success 201 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /api/v1/payments [post]
func (h *PaymentHandler) RegisterPayment(c *gin.Context) {
	var req RegisterPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.GetLogger().WithError(err).Error("Invalid request")
		response.ValidationError(c, err.Error())
		return
	}

	day, err := bizday.ParseDay(req.Date, h.loc)
	if err != nil {
		response.BadRequest(c, "Invalid date format", "Use YYYY-MM-DD format")
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		response.ValidationError(c, "amount must be a decimal number")
		return
	}

	mv, err := h.service.RegisterPayment(c.Request.Context(), service.PaymentRequest{
		Day:            day,
		Dimension:      domain.Dimension(req.Dimension),
		EntityID:       req.EntityID,
		Amount:         amount,
		Kind:           domain.MovementKind(req.Kind),
		Method:         req.Method,
		Note:           req.Note,
		IdempotencyKey: req.IdempotencyKey,
		RecordedBy:     req.RecordedBy,
	})
	if err != nil {
		if domain.KindOf(err) != "" {
			response.LedgerError(c, err)
			return
		}
		logger.GetLogger().WithError(err).Error("Failed to register movement")
		response.InternalError(c, "Failed to register movement", err.Error())
		return
	}

	status := http.StatusCreated
	if mv.Replayed {
		status = http.StatusOK
	}
	response.Success(c, status, "Movement registered successfully", mv)
}

// ReversePayment godoc
// @Summary Reverse a cash movement
// @Description Mark a movement reversed so it no longer counts toward any total. Movements of a settled day cannot be reversed.
// @Tags payments
// @Accept json
// @Produce json
// @Param id path string true "Movement ID"
// @Param request body ReversePaymentRequest true "Reversal details"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /api/v1/payments/{id}/reverse [post]
func (h *PaymentHandler) ReversePayment(c *gin.Context) {
	var req ReversePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.GetLogger().WithError(err).Error("Invalid request")
		response.ValidationError(c, err.Error())
		return
	}

	mv, err := h.service.ReversePayment(c.Request.Context(), c.Param("id"), req.Actor, req.Reason)
	if err != nil {
		if domain.KindOf(err) != "" {
			response.LedgerError(c, err)
			return
		}
		logger.GetLogger().WithError(err).Error("Failed to reverse movement")
		response.InternalError(c, "Failed to reverse movement", err.Error())
		return
	}

	response.Success(c, http.StatusOK, "Movement reversed successfully", mv)
}

// GetPayment godoc
// @Summary Get a cash movement
// @Description Get one movement by ID, including its reversal state
// @Tags payments
// @Produce json
// @Param id path string true "Movement ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/payments/{id} [get]
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	mv, err := h.service.GetMovement(c.Param("id"))
	if err != nil {
		if domain.KindOf(err) != "" {
			response.LedgerError(c, err)
			return
		}
		logger.GetLogger().WithError(err).Error("Failed to get movement")
		response.InternalError(c, "Failed to get movement", err.Error())
		return
	}

	response.Success(c, http.StatusOK, "Movement retrieved successfully", mv)
}
