package app

import (
	"net/http"

	"hangoutapp/internal/model"
	"hangoutapp/internal/service"
	"hangoutapp/internal/util"

	"github.com/gin-gonic/gin"
)

type HangoutHandler struct {
	hangoutService service.HangoutService
}

func NewHangoutHandler(hangoutService service.HangoutService) *HangoutHandler {
	return &HangoutHandler{hangoutService: hangoutService}
}

// SendRequest handles sending a hangout request, direct or broker-gated
// POST /api/v1/hangouts
func (h *HangoutHandler) SendRequest(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		util.Unauthorized(c, "User not authenticated")
		return
	}

	var req struct {
		ReceiverID string `json:"receiver_id" binding:"required"`
		Idea       string `json:"idea"`
		EventType  string `json:"event_type"`
		Time       string `json:"time"`
		Place      string `json:"place"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	result, err := h.hangoutService.SendHangoutRequest(userID.(string), req.ReceiverID, model.HangoutDetails{
		Idea:      req.Idea,
		EventType: req.EventType,
		Time:      req.Time,
		Place:     req.Place,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	message := "Hangout request sent directly"
	if result.RequiresApproval {
		message = "Approval request sent to mutual friend"
	}
	util.SuccessResponse(c, http.StatusCreated, message, result)
}

// AcceptRequest handles the receiver accepting a pending hangout request
// POST /api/v1/hangouts/:fromID/accept
func (h *HangoutHandler) AcceptRequest(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		util.Unauthorized(c, "User not authenticated")
		return
	}

	if err := h.hangoutService.AcceptHangoutRequest(c.Param("fromID"), userID.(string)); err != nil {
		respondServiceError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Hangout request accepted successfully", nil)
}

// DeclineRequest handles the receiver declining a pending hangout request
// POST /api/v1/hangouts/:fromID/decline
func (h *HangoutHandler) DeclineRequest(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		util.Unauthorized(c, "User not authenticated")
		return
	}

	if err := h.hangoutService.DeclineHangoutRequest(c.Param("fromID"), userID.(string)); err != nil {
		respondServiceError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Hangout request declined successfully", nil)
}

// CancelRequest handles the sender cancelling their own pending request
// DELETE /api/v1/hangouts/:toID
func (h *HangoutHandler) CancelRequest(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		util.Unauthorized(c, "User not authenticated")
		return
	}

	if err := h.hangoutService.CancelHangoutRequest(userID.(string), c.Param("toID")); err != nil {
		respondServiceError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Hangout request cancelled successfully", nil)
}

// GetPendingRequests lists pending incoming hangout requests
// GET /api/v1/hangouts/pending
func (h *HangoutHandler) GetPendingRequests(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		util.Unauthorized(c, "User not authenticated")
		return
	}

	requests, err := h.hangoutService.GetPendingRequests(userID.(string))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Requests retrieved successfully", gin.H{"requests": requests})
}

// GetSentRequests lists hangout requests the user has sent
// GET /api/v1/hangouts/sent
func (h *HangoutHandler) GetSentRequests(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		util.Unauthorized(c, "User not authenticated")
		return
	}

	requests, err := h.hangoutService.GetSentRequests(userID.(string))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Requests retrieved successfully", gin.H{"requests": requests})
}

// GetPendingApprovals lists approvals waiting on the user as mutual friend
// GET /api/v1/approvals/pending
func (h *HangoutHandler) GetPendingApprovals(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		util.Unauthorized(c, "User not authenticated")
		return
	}

	approvals, err := h.hangoutService.GetPendingApprovals(userID.(string))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Approvals retrieved successfully", gin.H{"approvals": approvals})
}

// DecideApproval records the mutual friend's decision on an approval. Only
// the addressed broker may decide.
// POST /api/v1/approvals/:id/decision
func (h *HangoutHandler) DecideApproval(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		util.Unauthorized(c, "User not authenticated")
		return
	}

	approvalID := c.Param("id")

	var req struct {
		Decision string `json:"decision" binding:"required,oneof=approved declined"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	approval, err := h.hangoutService.GetApproval(approvalID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if approval.MutualID != userID.(string) {
		util.Forbidden(c, "Only the mutual friend can decide this approval")
		return
	}

	if err := h.hangoutService.ApproveSecondDegreeRequest(approvalID, req.Decision); err != nil {
		respondServiceError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Approval decided successfully", nil)
}
