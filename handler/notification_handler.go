package handler

import (
	"strconv"

	"skillswap/middleware"
	"skillswap/service"
	"skillswap/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type NotificationHandler struct {
	notifSvc *service.NotificationService
}

func NewNotificationHandler(notifSvc *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifSvc: notifSvc}
}

// GetNotifications paged inbox plus the unread summary
// GET /api/v1/notifications?limit=&offset=&unread_only=
func (h *NotificationHandler) GetNotifications(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		utils.Unauthorized(c, "unauthorized")
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 || limit > 100 {
		limit = 50
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}
	unreadOnly := c.DefaultQuery("unread_only", "false") == "true"

	ctx := c.Request.Context()
	notifications, err := h.notifSvc.GetNotifications(ctx, userID, limit, offset, unreadOnly)
	if err != nil {
		utils.ErrorFromService(c, err)
		return
	}

	resp := gin.H{"notifications": notifications}
	summary, err := h.notifSvc.GetNotificationSummary(ctx, userID)
	if err != nil {
		// the list is still useful without the summary
		log.Warn().Err(err).Str("user_id", userID.String()).Msg("failed to load notification summary")
	} else {
		resp["unread_count"] = summary.UnreadCount
		resp["latest_notif_time"] = summary.LatestNotifTime
	}

	utils.SuccessResponse(c, resp)
}

// GetNotificationDetail marks the notification read
// GET /api/v1/notifications/:id
func (h *NotificationHandler) GetNotificationDetail(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		utils.Unauthorized(c, "unauthorized")
		return
	}

	notificationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "invalid notification id")
		return
	}

	notification, err := h.notifSvc.GetNotificationDetail(c.Request.Context(), userID, notificationID)
	if err != nil {
		utils.ErrorFromService(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"notification": notification})
}

// MarkAllAsRead marks every unread notification of the caller read
// POST /api/v1/notifications/read-all
func (h *NotificationHandler) MarkAllAsRead(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		utils.Unauthorized(c, "unauthorized")
		return
	}

	if err := h.notifSvc.MarkAllAsRead(c.Request.Context(), userID); err != nil {
		utils.ErrorFromService(c, err)
		return
	}

	utils.SuccessWithMessage(c, "all notifications marked as read", nil)
}

// DeleteNotification deletes one of the caller's notifications
// POST /api/v1/notifications/:id/delete
func (h *NotificationHandler) DeleteNotification(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		utils.Unauthorized(c, "unauthorized")
		return
	}

	notificationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "invalid notification id")
		return
	}

	if err := h.notifSvc.DeleteNotification(c.Request.Context(), userID, notificationID); err != nil {
		utils.ErrorFromService(c, err)
		return
	}

	utils.SuccessWithMessage(c, "notification deleted", nil)
}

// BatchSendNotification sends a system notification to the listed users
// POST /api/admin/notifications/batch-send
func (h *NotificationHandler) BatchSendNotification(c *gin.Context) {
	var req struct {
		UserIDs  []uuid.UUID `json:"user_ids" binding:"required"`
		Title    string      `json:"title" binding:"required"`
		Content  *string     `json:"content"`
		Priority int         `json:"priority"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	if req.Priority < 0 || req.Priority > 2 {
		utils.BadRequest(c, "priority must be 0, 1 or 2")
		return
	}

	successCount, err := h.notifSvc.BatchSendNotification(c.Request.Context(), req.UserIDs, req.Title, req.Content, req.Priority)
	if err != nil {
		utils.ErrorFromService(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"success_count": successCount,
		"total_count":   len(req.UserIDs),
		"message":       "notifications sent",
	})
}
