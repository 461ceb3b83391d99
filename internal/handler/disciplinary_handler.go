package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/hr-discipline-api/internal/models"
	"github.com/noah-isme/hr-discipline-api/internal/service"
	appErrors "github.com/noah-isme/hr-discipline-api/pkg/errors"
	"github.com/noah-isme/hr-discipline-api/pkg/response"
)

type disciplinaryService interface {
	List(ctx context.Context, req service.RecordListRequest) ([]models.DisciplinaryRecord, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.DisciplinaryRecord, error)
	Approve(ctx context.Context, id string, approver *models.JWTClaims) (*models.DisciplinaryRecord, error)
	Cancel(ctx context.Context, id string, actor *models.JWTClaims) (*models.DisciplinaryRecord, error)
	Complete(ctx context.Context, id string) (*models.DisciplinaryRecord, error)
}

// DisciplinaryHandler exposes disciplinary record reads and status
// transitions.
type DisciplinaryHandler struct {
	service disciplinaryService
}

// NewDisciplinaryHandler builds a new handler.
func NewDisciplinaryHandler(service disciplinaryService) *DisciplinaryHandler {
	return &DisciplinaryHandler{service: service}
}

// List godoc
// @Summary List disciplinary records
// @Tags Disciplinary
// @Produce json
// @Param employee_id query string false "Employee filter"
// @Param status query string false "Record status filter"
// @Success 200 {object} response.Envelope
// @Router /disciplinary-records [get]
func (h *DisciplinaryHandler) List(c *gin.Context) {
	req := service.RecordListRequest{
		EmployeeID: c.Query("employee_id"),
		RuleID:     c.Query("rule_id"),
		Page:       queryInt(c, "page", 1),
		PageSize:   queryInt(c, "page_size", 20),
		SortOrder:  c.DefaultQuery("sort_order", "desc"),
	}
	if status := c.Query("status"); status != "" {
		req.Status = &status
	}
	records, pagination, err := h.service.List(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, pagination)
}

// Get godoc
// @Summary Get a disciplinary record
// @Tags Disciplinary
// @Produce json
// @Param id path string true "Record id"
// @Success 200 {object} response.Envelope
// @Router /disciplinary-records/{id} [get]
func (h *DisciplinaryHandler) Get(c *gin.Context) {
	record, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// Approve godoc
// @Summary Approve a pending disciplinary record
// @Tags Disciplinary
// @Produce json
// @Param id path string true "Record id"
// @Success 200 {object} response.Envelope
// @Router /disciplinary-records/{id}/approve [post]
func (h *DisciplinaryHandler) Approve(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	record, err := h.service.Approve(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// Cancel godoc
// @Summary Cancel a pending or active disciplinary record
// @Tags Disciplinary
// @Produce json
// @Param id path string true "Record id"
// @Success 200 {object} response.Envelope
// @Router /disciplinary-records/{id}/cancel [post]
func (h *DisciplinaryHandler) Cancel(c *gin.Context) {
	record, err := h.service.Cancel(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// Complete godoc
// @Summary Mark an active disciplinary record as served
// @Tags Disciplinary
// @Produce json
// @Param id path string true "Record id"
// @Success 200 {object} response.Envelope
// @Router /disciplinary-records/{id}/complete [post]
func (h *DisciplinaryHandler) Complete(c *gin.Context) {
	record, err := h.service.Complete(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}
