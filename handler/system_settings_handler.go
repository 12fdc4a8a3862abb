package handler

import (
	"skillswap/middleware"
	"skillswap/service"
	"skillswap/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type SystemSettingsHandler struct {
	sysSvc *service.SystemSettingsService
}

func NewSystemSettingsHandler(sysSvc *service.SystemSettingsService) *SystemSettingsHandler {
	return &SystemSettingsHandler{
		sysSvc: sysSvc,
	}
}

// GetSystemSettings returns every cached runtime toggle
// GET /api/admin/settings
func (h *SystemSettingsHandler) GetSystemSettings(c *gin.Context) {
	utils.SuccessResponse(c, gin.H{
		"settings": h.sysSvc.GetAllSettings(),
	})
}

// UpdateSystemSetting only "true" and "false" are accepted
// POST /api/admin/settings/:key
func (h *SystemSettingsHandler) UpdateSystemSetting(c *gin.Context) {
	key := c.Param("key")

	var req struct {
		Value string `json:"value" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "invalid request body")
		return
	}

	if req.Value != "true" && req.Value != "false" {
		utils.BadRequest(c, "value must be 'true' or 'false'")
		return
	}

	if err := h.sysSvc.UpdateSetting(c.Request.Context(), key, req.Value); err != nil {
		utils.ErrorFromService(c, err)
		return
	}

	log.Info().Str("key", key).Str("value", req.Value).Msg("system setting updated")

	utils.SuccessResponse(c, gin.H{
		"message": "setting updated successfully",
		"key":     key,
		"value":   req.Value,
	})
}

// ReloadSystemSettings reloads the cache from the database
// POST /api/admin/settings/reload
func (h *SystemSettingsHandler) ReloadSystemSettings(c *gin.Context) {
	if err := h.sysSvc.LoadSettings(c.Request.Context()); err != nil {
		utils.InternalServerError(c, "failed to reload settings")
		log.Error().Err(err).Msg("failed to reload system settings")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": "settings reloaded successfully",
	})
}

// AdminAuthMiddleware lets through tokens with the admin role claim
// and the user ids listed in ADMIN_USER_IDS
func AdminAuthMiddleware(adminIDs []uuid.UUID) gin.HandlerFunc {
	admins := make(map[uuid.UUID]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = struct{}{}
	}

	return func(c *gin.Context) {
		userID, exists := middleware.GetUserID(c)
		if !exists {
			utils.Unauthorized(c, "unauthorized")
			c.Abort()
			return
		}

		if _, ok := admins[userID]; !ok && middleware.GetUserRole(c) != middleware.RoleAdmin {
			log.Warn().Str("user_id", userID.String()).Str("path", c.FullPath()).Msg("admin route denied")
			utils.Forbidden(c, "admin access required")
			c.Abort()
			return
		}

		c.Next()
	}
}
