package app

import (
	"net/http"

	"hangoutapp/internal/service"
	"hangoutapp/internal/util"

	"github.com/gin-gonic/gin"
)

type ConnectionHandler struct {
	connectionService service.ConnectionService
	graphService      service.GraphService
}

func NewConnectionHandler(connectionService service.ConnectionService, graphService service.GraphService) *ConnectionHandler {
	return &ConnectionHandler{
		connectionService: connectionService,
		graphService:      graphService,
	}
}

// SendRequest handles sending a connection request
// POST /api/v1/connections/requests
func (h *ConnectionHandler) SendRequest(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		util.Unauthorized(c, "User not authenticated")
		return
	}

	var req struct {
		ReceiverID string `json:"receiver_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	request, err := h.connectionService.SendConnectionRequest(userID.(string), req.ReceiverID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusCreated, "Connection request sent successfully", gin.H{"request": request})
}

// AcceptRequest handles the receiver accepting a pending request
// POST /api/v1/connections/requests/:id/accept
func (h *ConnectionHandler) AcceptRequest(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		util.Unauthorized(c, "User not authenticated")
		return
	}

	fromID := c.Param("id")
	if fromID == "" {
		util.BadRequest(c, "Sender ID is required")
		return
	}

	connection, err := h.connectionService.AcceptConnectionRequest(fromID, userID.(string))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Connection request accepted successfully", gin.H{"connection": connection})
}

// RejectRequest handles the receiver rejecting a pending request
// DELETE /api/v1/connections/requests/:id/reject
func (h *ConnectionHandler) RejectRequest(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		util.Unauthorized(c, "User not authenticated")
		return
	}

	fromID := c.Param("id")
	if err := h.connectionService.RejectConnectionRequest(fromID, userID.(string)); err != nil {
		respondServiceError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Connection request rejected successfully", nil)
}

// UnsendRequest handles the sender withdrawing a pending request
// DELETE /api/v1/connections/requests/:id
func (h *ConnectionHandler) UnsendRequest(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		util.Unauthorized(c, "User not authenticated")
		return
	}

	toID := c.Param("id")
	if err := h.connectionService.UnsendConnectionRequest(userID.(string), toID); err != nil {
		respondServiceError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Connection request withdrawn successfully", nil)
}

// GetIncomingRequests lists pending requests addressed to the user
// GET /api/v1/connections/requests/incoming
func (h *ConnectionHandler) GetIncomingRequests(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		util.Unauthorized(c, "User not authenticated")
		return
	}

	requests, err := h.connectionService.GetIncomingRequests(userID.(string))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Requests retrieved successfully", gin.H{"requests": requests})
}

// GetSentRequests lists requests the user has sent
// GET /api/v1/connections/requests/sent
func (h *ConnectionHandler) GetSentRequests(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		util.Unauthorized(c, "User not authenticated")
		return
	}

	requests, err := h.connectionService.GetSentRequests(userID.(string))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Requests retrieved successfully", gin.H{"requests": requests})
}

// GetConnections lists the user's direct connections
// GET /api/v1/connections
func (h *ConnectionHandler) GetConnections(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		util.Unauthorized(c, "User not authenticated")
		return
	}

	users, err := h.connectionService.GetConnections(userID.(string))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Connections retrieved successfully", gin.H{"connections": users})
}

// RemoveConnection deletes the edge to another user
// DELETE /api/v1/connections/:userID
func (h *ConnectionHandler) RemoveConnection(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		util.Unauthorized(c, "User not authenticated")
		return
	}

	otherID := c.Param("userID")
	if err := h.connectionService.RemoveConnection(userID.(string), otherID); err != nil {
		respondServiceError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Connection removed successfully", nil)
}

// GetFirstDegree lists ids of the user's direct connections
// GET /api/v1/connections/first-degree
func (h *ConnectionHandler) GetFirstDegree(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		util.Unauthorized(c, "User not authenticated")
		return
	}

	peers, err := h.graphService.FirstDegree(userID.(string))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Connections retrieved successfully", gin.H{"user_ids": peers})
}

// GetSecondDegree lists ids of users exactly two hops away
// GET /api/v1/connections/second-degree
func (h *ConnectionHandler) GetSecondDegree(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		util.Unauthorized(c, "User not authenticated")
		return
	}

	peers, err := h.graphService.SecondDegree(userID.(string))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Connections retrieved successfully", gin.H{"user_ids": peers})
}

// GetDegree returns the degree of separation to another user
// GET /api/v1/connections/degree/:userID
func (h *ConnectionHandler) GetDegree(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		util.Unauthorized(c, "User not authenticated")
		return
	}

	degree, err := h.graphService.DegreeBetween(userID.(string), c.Param("userID"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Degree computed successfully", gin.H{"degree": degree})
}

// GetMutualFriends lists common first-degree connections with another user
// GET /api/v1/connections/mutual/:userID
func (h *ConnectionHandler) GetMutualFriends(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		util.Unauthorized(c, "User not authenticated")
		return
	}

	mutual, err := h.graphService.MutualFriends(userID.(string), c.Param("userID"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Mutual friends retrieved successfully", gin.H{"user_ids": mutual})
}
