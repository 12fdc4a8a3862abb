package handler

import (
	"skillswap/middleware"
	"skillswap/service"
	"skillswap/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type RelationshipHandler struct {
	relSvc *service.RelationshipService
}

func NewRelationshipHandler(relSvc *service.RelationshipService) *RelationshipHandler {
	return &RelationshipHandler{relSvc: relSvc}
}

type relationshipRequest struct {
	TargetUserID uuid.UUID `json:"target_user_id" binding:"required"`
}

// BlockUser blocks a user. Blocked users disappear from each other's candidates.
// POST /api/v1/relationships/block
func (h *RelationshipHandler) BlockUser(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		utils.Unauthorized(c, "unauthorized")
		return
	}

	var req relationshipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	if err := h.relSvc.BlockUser(c.Request.Context(), userID, req.TargetUserID); err != nil {
		utils.ErrorFromService(c, err)
		return
	}

	utils.SuccessWithMessage(c, "user blocked successfully", nil)
}

// UnblockUser lifts a block the caller placed
// POST /api/v1/relationships/unblock
func (h *RelationshipHandler) UnblockUser(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		utils.Unauthorized(c, "unauthorized")
		return
	}

	var req relationshipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	if err := h.relSvc.UnblockUser(c.Request.Context(), userID, req.TargetUserID); err != nil {
		utils.ErrorFromService(c, err)
		return
	}

	utils.SuccessWithMessage(c, "user unblocked successfully", nil)
}

// GetBlockedUsers users the caller has blocked
// GET /api/v1/relationships/blocked
func (h *RelationshipHandler) GetBlockedUsers(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		utils.Unauthorized(c, "unauthorized")
		return
	}

	blockedUsers, err := h.relSvc.GetBlockedUsers(c.Request.Context(), userID)
	if err != nil {
		utils.ErrorFromService(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"blocked_users": blockedUsers})
}
