package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/hr-discipline-api/internal/models"
	"github.com/noah-isme/hr-discipline-api/internal/rules"
	"github.com/noah-isme/hr-discipline-api/internal/service"
	appErrors "github.com/noah-isme/hr-discipline-api/pkg/errors"
	"github.com/noah-isme/hr-discipline-api/pkg/response"
)

type ruleService interface {
	ListTardiness(ctx context.Context) ([]models.TardinessRule, error)
	CreateTardiness(ctx context.Context, req service.TardinessRuleRequest) (*models.TardinessRule, error)
	UpdateTardiness(ctx context.Context, id string, req service.TardinessRuleRequest) (*models.TardinessRule, error)
	SetTardinessActive(ctx context.Context, id string, active bool) (*models.TardinessRule, error)
	ListActions(ctx context.Context) ([]models.DisciplinaryActionRule, error)
	CreateAction(ctx context.Context, req service.ActionRuleRequest) (*models.DisciplinaryActionRule, error)
	UpdateAction(ctx context.Context, id string, req service.ActionRuleRequest) (*models.DisciplinaryActionRule, error)
	SetActionActive(ctx context.Context, id string, active bool) (*models.DisciplinaryActionRule, error)
	Reload(ctx context.Context) (*rules.Snapshot, error)
}

// RuleHandler exposes the rule-catalog admin surface.
type RuleHandler struct {
	service ruleService
}

// NewRuleHandler builds a new handler.
func NewRuleHandler(service ruleService) *RuleHandler {
	return &RuleHandler{service: service}
}

// ListTardiness godoc
// @Summary List tardiness classification rules
// @Tags Rules
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /rules/tardiness [get]
func (h *RuleHandler) ListTardiness(c *gin.Context) {
	list, err := h.service.ListTardiness(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, list, nil)
}

// CreateTardiness godoc
// @Summary Create a tardiness classification rule
// @Tags Rules
// @Accept json
// @Produce json
// @Param payload body service.TardinessRuleRequest true "Rule payload"
// @Success 201 {object} response.Envelope
// @Router /rules/tardiness [post]
func (h *RuleHandler) CreateTardiness(c *gin.Context) {
	var req service.TardinessRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid rule payload"))
		return
	}
	rule, err := h.service.CreateTardiness(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, rule)
}

// UpdateTardiness godoc
// @Summary Update a tardiness classification rule
// @Tags Rules
// @Accept json
// @Produce json
// @Param id path string true "Rule id"
// @Param payload body service.TardinessRuleRequest true "Rule payload"
// @Success 200 {object} response.Envelope
// @Router /rules/tardiness/{id} [put]
func (h *RuleHandler) UpdateTardiness(c *gin.Context) {
	var req service.TardinessRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid rule payload"))
		return
	}
	rule, err := h.service.UpdateTardiness(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rule, nil)
}

type setActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// SetTardinessActive godoc
// @Summary Activate or deactivate a tardiness rule
// @Tags Rules
// @Accept json
// @Produce json
// @Param id path string true "Rule id"
// @Param payload body setActiveRequest true "Activation flag"
// @Success 200 {object} response.Envelope
// @Router /rules/tardiness/{id}/active [patch]
func (h *RuleHandler) SetTardinessActive(c *gin.Context) {
	var req setActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "active flag is required"))
		return
	}
	rule, err := h.service.SetTardinessActive(c.Request.Context(), c.Param("id"), *req.Active)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rule, nil)
}

// ListActions godoc
// @Summary List disciplinary action rules
// @Tags Rules
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /rules/disciplinary [get]
func (h *RuleHandler) ListActions(c *gin.Context) {
	list, err := h.service.ListActions(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, list, nil)
}

// CreateAction godoc
// @Summary Create a disciplinary action rule
// @Tags Rules
// @Accept json
// @Produce json
// @Param payload body service.ActionRuleRequest true "Rule payload"
// @Success 201 {object} response.Envelope
// @Router /rules/disciplinary [post]
func (h *RuleHandler) CreateAction(c *gin.Context) {
	var req service.ActionRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid rule payload"))
		return
	}
	rule, err := h.service.CreateAction(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, rule)
}

// UpdateAction godoc
// @Summary Update a disciplinary action rule
// @Tags Rules
// @Accept json
// @Produce json
// @Param id path string true "Rule id"
// @Param payload body service.ActionRuleRequest true "Rule payload"
// @Success 200 {object} response.Envelope
// @Router /rules/disciplinary/{id} [put]
func (h *RuleHandler) UpdateAction(c *gin.Context) {
	var req service.ActionRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid rule payload"))
		return
	}
	rule, err := h.service.UpdateAction(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rule, nil)
}

// SetActionActive godoc
// @Summary Activate or deactivate a disciplinary action rule
// @Tags Rules
// @Accept json
// @Produce json
// @Param id path string true "Rule id"
// @Param payload body setActiveRequest true "Activation flag"
// @Success 200 {object} response.Envelope
// @Router /rules/disciplinary/{id}/active [patch]
func (h *RuleHandler) SetActionActive(c *gin.Context) {
	var req setActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "active flag is required"))
		return
	}
	rule, err := h.service.SetActionActive(c.Request.Context(), c.Param("id"), *req.Active)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rule, nil)
}

// Reload godoc
// @Summary Rebuild the serving rule snapshot from storage
// @Tags Rules
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /rules/reload [post]
func (h *RuleHandler) Reload(c *gin.Context) {
	snap, err := h.service.Reload(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{
		"version":   snap.Version,
		"loaded_at": snap.LoadedAt,
	}, nil)
}
