package handler

import (
	"skillswap/model"
	"skillswap/service"
	"skillswap/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type NotificationTemplateHandler struct {
	templateSvc *service.NotificationTemplateService
}

func NewNotificationTemplateHandler(templateSvc *service.NotificationTemplateService) *NotificationTemplateHandler {
	return &NotificationTemplateHandler{
		templateSvc: templateSvc,
	}
}

// ListTemplates lists every template, active or not
// GET /api/admin/notification-templates
func (h *NotificationTemplateHandler) ListTemplates(c *gin.Context) {
	templates, err := h.templateSvc.ListTemplates(c.Request.Context())
	if err != nil {
		utils.ErrorFromService(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"templates": templates})
}

// CreateTemplate adds a template for a new notification type
// POST /api/admin/notification-templates
func (h *NotificationTemplateHandler) CreateTemplate(c *gin.Context) {
	var req model.NotificationTemplate
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request")
		return
	}

	template, err := h.templateSvc.CreateTemplate(c.Request.Context(), &req)
	if err != nil {
		utils.ErrorFromService(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"template": template})
}

// UpdateTemplate partial update
// POST /api/admin/notification-templates/:id
func (h *NotificationTemplateHandler) UpdateTemplate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid template ID")
		return
	}

	var updates map[string]interface{}
	if err := c.ShouldBindJSON(&updates); err != nil {
		utils.BadRequest(c, "Invalid request")
		return
	}

	if err := h.templateSvc.UpdateTemplate(c.Request.Context(), id, updates); err != nil {
		utils.ErrorFromService(c, err)
		return
	}

	utils.SuccessWithMessage(c, "Template updated successfully", nil)
}

// DeleteTemplate removes a template. Its type falls back to the built-in wording.
// DELETE /api/admin/notification-templates/:id
func (h *NotificationTemplateHandler) DeleteTemplate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid template ID")
		return
	}

	if err := h.templateSvc.DeleteTemplate(c.Request.Context(), id); err != nil {
		utils.ErrorFromService(c, err)
		return
	}

	utils.SuccessWithMessage(c, "Template deleted successfully", nil)
}

// InitDefaultTemplates recreates missing built-in templates
// POST /api/admin/notification-templates/init-defaults
func (h *NotificationTemplateHandler) InitDefaultTemplates(c *gin.Context) {
	if err := h.templateSvc.InitDefaultTemplates(c.Request.Context()); err != nil {
		utils.InternalServerError(c, "failed to init default templates")
		return
	}

	utils.SuccessWithMessage(c, "Default templates initialized successfully", nil)
}
