package handler

import (
	"skillswap/middleware"
	"skillswap/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handlers everything the router mounts. Nil handlers leave their routes out.
type Handlers struct {
	Match        *MatchHandler
	Notification *NotificationHandler
	Relationship *RelationshipHandler
	Settings     *SystemSettingsHandler
	Templates    *NotificationTemplateHandler
	Hub          *Hub

	AdminIDs []uuid.UUID // users allowed on /api/admin besides admin-role tokens
}

// NewRouter builds the gin engine with every route of the service
func NewRouter(h Handlers) *gin.Engine {
	r := gin.New()
	r.Use(middleware.ErrorHandlerMiddleware())
	r.Use(middleware.RequestLogger())

	r.GET("/health", func(c *gin.Context) {
		utils.SuccessResponse(c, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// token in the query string, browsers cannot set headers on websocket upgrades
	if h.Hub != nil {
		r.GET("/ws", HandleWebSocket(h.Hub))
	}

	api := r.Group("/api/v1")
	api.Use(middleware.AuthMiddleware())
	{
		if h.Match != nil {
			api.GET("/matches/potential", h.Match.GetPotentialMatches)
			api.POST("/matches/like/:userId", h.Match.Like)
			api.PUT("/matches/:userId/respond", h.Match.Respond)
			api.POST("/matches/reject/:userId", h.Match.Pass)
			api.GET("/matches/connections", h.Match.GetConnections)
			api.GET("/matches/status", h.Match.GetMatchStatus)
			api.DELETE("/connections/:userId", h.Match.Disconnect)
		}

		if h.Notification != nil {
			api.GET("/notifications", h.Notification.GetNotifications)
			api.GET("/notifications/:id", h.Notification.GetNotificationDetail)
			api.POST("/notifications/read-all", h.Notification.MarkAllAsRead)
			api.POST("/notifications/:id/delete", h.Notification.DeleteNotification)
		}

		if h.Relationship != nil {
			api.POST("/relationships/block", h.Relationship.BlockUser)
			api.POST("/relationships/unblock", h.Relationship.UnblockUser)
			api.GET("/relationships/blocked", h.Relationship.GetBlockedUsers)
		}

		if h.Hub != nil {
			api.POST("/logout", func(c *gin.Context) {
				if userID, ok := middleware.GetUserID(c); ok {
					h.Hub.ForceOffline(userID)
				}
				utils.SuccessWithMessage(c, "Logged out", nil)
			})
		}
	}

	admin := r.Group("/api/admin")
	admin.Use(middleware.AuthMiddleware())
	admin.Use(AdminAuthMiddleware(h.AdminIDs))
	{
		if h.Settings != nil {
			admin.GET("/settings", h.Settings.GetSystemSettings)
			admin.POST("/settings/:key", h.Settings.UpdateSystemSetting)
			admin.POST("/settings/reload", h.Settings.ReloadSystemSettings)
		}
		if h.Templates != nil {
			admin.GET("/notification-templates", h.Templates.ListTemplates)
			admin.POST("/notification-templates", h.Templates.CreateTemplate)
			admin.POST("/notification-templates/:id", h.Templates.UpdateTemplate)
			admin.DELETE("/notification-templates/:id", h.Templates.DeleteTemplate)
			admin.POST("/notification-templates/init-defaults", h.Templates.InitDefaultTemplates)
		}
		if h.Notification != nil {
			admin.POST("/notifications/batch-send", h.Notification.BatchSendNotification)
		}
	}

	return r
}
