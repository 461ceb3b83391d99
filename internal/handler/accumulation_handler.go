package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/hr-discipline-api/internal/models"
	appErrors "github.com/noah-isme/hr-discipline-api/pkg/errors"
	"github.com/noah-isme/hr-discipline-api/pkg/response"
)

type accumulationService interface {
	List(ctx context.Context, filter models.AccumulationFilter) ([]models.TardinessAccumulation, *models.Pagination, error)
	Get(ctx context.Context, employeeID string, year, month int) (*models.TardinessAccumulation, error)
	Delete(ctx context.Context, employeeID string, year, month int, reason, actorID string) error
	Summary(ctx context.Context, employeeID string) (*models.AccumulationSummary, error)
}

// AccumulationHandler exposes ledger reads and the audited deletion path.
type AccumulationHandler struct {
	service accumulationService
}

// NewAccumulationHandler builds a new handler.
func NewAccumulationHandler(service accumulationService) *AccumulationHandler {
	return &AccumulationHandler{service: service}
}

// List godoc
// @Summary List accumulation ledger rows
// @Tags Accumulations
// @Produce json
// @Param employee_id query string false "Employee filter"
// @Param year query int false "Year filter"
// @Param month query int false "Month filter"
// @Success 200 {object} response.Envelope
// @Router /accumulations [get]
func (h *AccumulationHandler) List(c *gin.Context) {
	filter := models.AccumulationFilter{
		EmployeeID: c.Query("employee_id"),
		Year:       queryInt(c, "year", 0),
		Month:      queryInt(c, "month", 0),
		Page:       queryInt(c, "page", 1),
		PageSize:   queryInt(c, "page_size", 20),
		SortBy:     c.DefaultQuery("sort_by", "year"),
		SortOrder:  c.DefaultQuery("sort_order", "desc"),
	}
	rows, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, pagination)
}

// Get godoc
// @Summary Get one employee-month ledger row
// @Tags Accumulations
// @Produce json
// @Param employee_id path string true "Employee id"
// @Param year path int true "Year"
// @Param month path int true "Month"
// @Success 200 {object} response.Envelope
// @Router /accumulations/{employee_id}/{year}/{month} [get]
func (h *AccumulationHandler) Get(c *gin.Context) {
	year, month, err := yearMonthParams(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	row, err := h.service.Get(c.Request.Context(), c.Param("employee_id"), year, month)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, row, nil)
}

type deleteAccumulationRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// Delete godoc
// @Summary Delete an employee-month ledger row
// @Tags Accumulations
// @Accept json
// @Produce json
// @Param employee_id path string true "Employee id"
// @Param year path int true "Year"
// @Param month path int true "Month"
// @Param payload body deleteAccumulationRequest true "Deletion reason"
// @Success 204
// @Router /accumulations/{employee_id}/{year}/{month} [delete]
func (h *AccumulationHandler) Delete(c *gin.Context) {
	year, month, err := yearMonthParams(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req deleteAccumulationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "deletion reason is required"))
		return
	}
	actorID := ""
	if claims := claimsFromContext(c); claims != nil {
		actorID = claims.UserID
	}
	if err := h.service.Delete(c.Request.Context(), c.Param("employee_id"), year, month, req.Reason, actorID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Summary godoc
// @Summary Employee accumulation summary over the last twelve months
// @Tags Accumulations
// @Produce json
// @Param employee_id path string true "Employee id"
// @Success 200 {object} response.Envelope
// @Router /accumulations/{employee_id}/summary [get]
func (h *AccumulationHandler) Summary(c *gin.Context) {
	summary, err := h.service.Summary(c.Request.Context(), c.Param("employee_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

func yearMonthParams(c *gin.Context) (int, int, error) {
	year := queryParamInt(c, "year")
	month := queryParamInt(c, "month")
	if year < 1 || month < 1 {
		return 0, 0, appErrors.Clone(appErrors.ErrValidation, "year and month path parameters are required")
	}
	return year, month, nil
}
