package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MQuirosP/backend-bancas-sub001/internal/service"
	"github.com/MQuirosP/backend-bancas-sub001/pkg/logger"
	"github.com/MQuirosP/backend-bancas-sub001/pkg/response"
)

type SalesHandler struct {
	service service.SalesService
}

func NewSalesHandler(service service.SalesService) *SalesHandler {
	return &SalesHandler{service: service}
}

type ImportSalesRequest struct {
	SalesFilePath string `json:"sales_file_path" binding:"required"`
	PlaysFilePath string `json:"plays_file_path"`
}

// ImportSales godoc
// @Summary Import ticket backfill files
// @Description Import sales (and optionally plays) from CSV files. Re-running a file skips rows that already exist.
// @Tags sales
// @Accept json
// @Produce json
// @Param request body ImportSalesRequest true "Import request"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/sales/import [post]
func (h *SalesHandler) ImportSales(c *gin.Context) {
	var req ImportSalesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.GetLogger().WithError(err).Error("Invalid request")
		response.ValidationError(c, err.Error())
		return
	}

	sales, err := h.service.ImportSalesFile(req.SalesFilePath)
	if err != nil {
		logger.GetLogger().WithError(err).Error("Sales import failed")
		response.InternalError(c, "Sales import failed", err.Error())
		return
	}

	result := gin.H{"sales": sales}
	if req.PlaysFilePath != "" {
		plays, err := h.service.ImportPlaysFile(req.PlaysFilePath)
		if err != nil {
			logger.GetLogger().WithError(err).Error("Plays import failed")
			response.InternalError(c, "Plays import failed", err.Error())
			return
		}
		result["plays"] = plays
	}

	response.Success(c, http.StatusOK, "Import completed successfully", result)
}
