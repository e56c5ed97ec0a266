package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/MQuirosP/backend-bancas-sub001/internal/bizday"
	"github.com/MQuirosP/backend-bancas-sub001/internal/domain"
	"github.com/MQuirosP/backend-bancas-sub001/internal/service"
	"github.com/MQuirosP/backend-bancas-sub001/pkg/logger"
	"github.com/MQuirosP/backend-bancas-sub001/pkg/response"
)

type StatementHandler struct {
	service service.StatementService
	loc     *time.Location
}

func NewStatementHandler(service service.StatementService, loc *time.Location) *StatementHandler {
	return &StatementHandler{service: service, loc: loc}
}

// GetStatements godoc
// @Summary Get account statements
// @Description Get per-day account statements for a date range, with gap filling and month-to-date totals
// @Tags statements
// @Produce json
// @Param from query string true "Range start (YYYY-MM-DD)"
// @Param to query string true "Range end (YYYY-MM-DD)"
// @Param dimension query string true "Entity tier (BANK, WINDOW, SELLER)"
// @Param entity_id query string false "Entity ID; omit for all entities of the dimension"
// @Param sort query string false "Sort order (ASC, DESC)"
// @Param force query bool false "Bypass the cache and recompute"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/statements [get]
func (h *StatementHandler) GetStatements(c *gin.Context) {
	from, err := bizday.ParseDay(c.Query("from"), h.loc)
	if err != nil {
		response.BadRequest(c, "Invalid from date", err.Error())
		return
	}
	to, err := bizday.ParseDay(c.Query("to"), h.loc)
	if err != nil {
		response.BadRequest(c, "Invalid to date", err.Error())
		return
	}

	filters := service.StatementFilters{
		From:      from,
		To:        to,
		Dimension: domain.Dimension(c.Query("dimension")),
		EntityID:  optionalQuery(c, "entity_id"),
		Sort:      domain.SortOrder(c.DefaultQuery("sort", string(domain.SortAsc))),
		Force:     c.Query("force") == "true",
	}

	report, err := h.service.GetStatement(c.Request.Context(), filters)
	if err != nil {
		if domain.KindOf(err) != "" {
			response.LedgerError(c, err)
			return
		}
		logger.GetLogger().WithError(err).Error("Failed to build statement report")
		response.BadRequest(c, "Invalid statement request", err.Error())
		return
	}

	response.Success(c, http.StatusOK, "Statements retrieved successfully", report)
}

// GetBreakdown godoc
// @Summary Get a day's breakdown
// @Description Get the chronological per-draw and movement audit trail of one business day
// @Tags statements
// @Produce json
// @Param date query string true "Business day (YYYY-MM-DD)"
// @Param dimension query string true "Entity tier (BANK, WINDOW, SELLER)"
// @Param entity_id query string false "Entity ID"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/statements/breakdown [get]
func (h *StatementHandler) GetBreakdown(c *gin.Context) {
	day, err := bizday.ParseDay(c.Query("date"), h.loc)
	if err != nil {
		response.BadRequest(c, "Invalid date", err.Error())
		return
	}

	lines, err := h.service.GetDayBreakdown(day, domain.Dimension(c.Query("dimension")), optionalQuery(c, "entity_id"))
	if err != nil {
		if domain.KindOf(err) != "" {
			response.LedgerError(c, err)
			return
		}
		logger.GetLogger().WithError(err).Error("Failed to build day breakdown")
		response.BadRequest(c, "Invalid breakdown request", err.Error())
		return
	}

	response.Success(c, http.StatusOK, "Breakdown retrieved successfully", lines)
}

// DeleteStatement godoc
// @Summary Delete an empty statement
// @Description Delete a stored statement that has no tickets and no movements
// @Tags statements
// @Produce json
// @Param date query string true "Business day (YYYY-MM-DD)"
// @Param dimension query string true "Entity tier (BANK, WINDOW, SELLER)"
// @Param entity_id query string false "Entity ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/v1/statements [delete]
func (h *StatementHandler) DeleteStatement(c *gin.Context) {
	day, err := bizday.ParseDay(c.Query("date"), h.loc)
	if err != nil {
		response.BadRequest(c, "Invalid date", err.Error())
		return
	}

	err = h.service.DeleteEmptyStatement(c.Request.Context(), day, domain.Dimension(c.Query("dimension")), optionalQuery(c, "entity_id"))
	if err != nil {
		if domain.KindOf(err) != "" {
			response.LedgerError(c, err)
			return
		}
		logger.GetLogger().WithError(err).Error("Failed to delete statement")
		response.InternalError(c, "Failed to delete statement", err.Error())
		return
	}

	response.Success(c, http.StatusOK, "Statement deleted successfully", nil)
}

func optionalQuery(c *gin.Context, key string) *string {
	if value := c.Query(key); value != "" {
		return &value
	}
	return nil
}
