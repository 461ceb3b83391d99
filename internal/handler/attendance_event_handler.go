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

type attendancePipeline interface {
	ProcessEvent(ctx context.Context, req service.AttendanceEventRequest) (*models.EventApplication, error)
	EnqueueBulk(req service.BulkEventRequest) (int, error)
	ListReviews(ctx context.Context, req service.ReviewListRequest) ([]models.ReviewEntry, *models.Pagination, error)
	ResolveReview(ctx context.Context, id, resolution string, actor *models.JWTClaims) (*models.ReviewEntry, error)
}

// AttendanceEventHandler exposes event ingestion and the manual-review queue.
type AttendanceEventHandler struct {
	pipeline attendancePipeline
}

// NewAttendanceEventHandler builds a new handler.
func NewAttendanceEventHandler(pipeline attendancePipeline) *AttendanceEventHandler {
	return &AttendanceEventHandler{pipeline: pipeline}
}

// Ingest godoc
// @Summary Ingest a single attendance event
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body service.AttendanceEventRequest true "Attendance event"
// @Success 200 {object} response.Envelope
// @Router /attendance/events [post]
func (h *AttendanceEventHandler) Ingest(c *gin.Context) {
	var req service.AttendanceEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid event payload"))
		return
	}
	application, err := h.pipeline.ProcessEvent(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, application, nil)
}

// IngestBulk godoc
// @Summary Ingest a batch of attendance events asynchronously
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body service.BulkEventRequest true "Event batch"
// @Success 202 {object} response.Envelope
// @Router /attendance/events/bulk [post]
func (h *AttendanceEventHandler) IngestBulk(c *gin.Context) {
	var req service.BulkEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid bulk payload"))
		return
	}
	accepted, err := h.pipeline.EnqueueBulk(req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, gin.H{"accepted": accepted})
}

// ListReviews godoc
// @Summary List manual-review queue entries
// @Tags Attendance
// @Produce json
// @Param employee_id query string false "Employee filter"
// @Param status query string false "OPEN or RESOLVED"
// @Success 200 {object} response.Envelope
// @Router /review-queue [get]
func (h *AttendanceEventHandler) ListReviews(c *gin.Context) {
	req := service.ReviewListRequest{
		EmployeeID: c.Query("employee_id"),
		Status:     c.Query("status"),
		Page:       queryInt(c, "page", 1),
		PageSize:   queryInt(c, "page_size", 20),
	}
	entries, pagination, err := h.pipeline.ListReviews(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, pagination)
}

type resolveReviewRequest struct {
	Resolution string `json:"resolution" binding:"required"`
}

// ResolveReview godoc
// @Summary Resolve a manual-review entry
// @Tags Attendance
// @Accept json
// @Produce json
// @Param id path string true "Review entry id"
// @Param payload body resolveReviewRequest true "Resolution"
// @Success 200 {object} response.Envelope
// @Router /review-queue/{id}/resolve [post]
func (h *AttendanceEventHandler) ResolveReview(c *gin.Context) {
	var req resolveReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid resolution payload"))
		return
	}
	entry, err := h.pipeline.ResolveReview(c.Request.Context(), c.Param("id"), req.Resolution, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entry, nil)
}
