package handler

import (
	"skillswap/middleware"
	"skillswap/service"
	"skillswap/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type MatchHandler struct {
	matchSvc *service.MatchService
}

func NewMatchHandler(matchSvc *service.MatchService) *MatchHandler {
	return &MatchHandler{matchSvc: matchSvc}
}

// pairFromRequest caller and :userId path param. Writes the error response itself.
func pairFromRequest(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		utils.Unauthorized(c, "unauthorized")
		return uuid.Nil, uuid.Nil, false
	}

	targetID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		utils.ValidationError(c, "invalid user id")
		return uuid.Nil, uuid.Nil, false
	}

	return userID, targetID, true
}

// GetPotentialMatches ranked candidates, best first
// GET /api/v1/matches/potential
func (h *MatchHandler) GetPotentialMatches(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		utils.Unauthorized(c, "unauthorized")
		return
	}

	matches, err := h.matchSvc.GetPotentialMatches(c.Request.Context(), userID)
	if err != nil {
		utils.ErrorFromService(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"matches": matches,
		"total":   len(matches),
	})
}

// Like likes a user. A pending like from them makes it a match.
// POST /api/v1/matches/like/:userId
func (h *MatchHandler) Like(c *gin.Context) {
	userID, targetID, ok := pairFromRequest(c)
	if !ok {
		return
	}

	result, err := h.matchSvc.Like(c.Request.Context(), userID, targetID)
	if err != nil {
		utils.ErrorFromService(c, err)
		return
	}

	utils.SuccessWithMessage(c, result.Message, result)
}

// Respond answers an inbound request. status is accepted, rejected or pending.
// PUT /api/v1/matches/:userId/respond
func (h *MatchHandler) Respond(c *gin.Context) {
	userID, targetID, ok := pairFromRequest(c)
	if !ok {
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ValidationError(c, "status is required")
		return
	}

	result, err := h.matchSvc.Respond(c.Request.Context(), userID, targetID, req.Status)
	if err != nil {
		utils.ErrorFromService(c, err)
		return
	}

	utils.SuccessWithMessage(c, result.Message, result)
}

// Pass hides a candidate from the potential matches
// POST /api/v1/matches/reject/:userId
func (h *MatchHandler) Pass(c *gin.Context) {
	userID, targetID, ok := pairFromRequest(c)
	if !ok {
		return
	}

	result, err := h.matchSvc.Pass(c.Request.Context(), userID, targetID)
	if err != nil {
		utils.ErrorFromService(c, err)
		return
	}

	utils.SuccessWithMessage(c, result.Message, result)
}

// GetConnections lists the users the caller is connected with
// GET /api/v1/matches/connections
func (h *MatchHandler) GetConnections(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		utils.Unauthorized(c, "unauthorized")
		return
	}

	connections, err := h.matchSvc.GetConnections(c.Request.Context(), userID)
	if err != nil {
		utils.ErrorFromService(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"connections": connections,
		"total":       len(connections),
	})
}

// GetMatchStatus connections plus pending requests sent and received
// GET /api/v1/matches/status
func (h *MatchHandler) GetMatchStatus(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		utils.Unauthorized(c, "unauthorized")
		return
	}

	status, err := h.matchSvc.GetMatchStatus(c.Request.Context(), userID)
	if err != nil {
		utils.ErrorFromService(c, err)
		return
	}

	utils.SuccessResponse(c, status)
}

// Disconnect removes a connection on both sides
// DELETE /api/v1/connections/:userId
func (h *MatchHandler) Disconnect(c *gin.Context) {
	userID, targetID, ok := pairFromRequest(c)
	if !ok {
		return
	}

	result, err := h.matchSvc.Disconnect(c.Request.Context(), userID, targetID)
	if err != nil {
		utils.ErrorFromService(c, err)
		return
	}

	utils.SuccessWithMessage(c, result.Message, result)
}
