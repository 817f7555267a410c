package app

import (
	"net/http"

	"hangoutapp/internal/service"
	"hangoutapp/internal/util"

	"github.com/gin-gonic/gin"
)

type GraphHandler struct {
	graphService service.GraphService
}

func NewGraphHandler(graphService service.GraphService) *GraphHandler {
	return &GraphHandler{graphService: graphService}
}

// GetGraph assembles the viewer's two-hop neighborhood for visualization
// GET /api/v1/graph
func (h *GraphHandler) GetGraph(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		util.Unauthorized(c, "User not authenticated")
		return
	}

	graph, err := h.graphService.BuildConnectionGraph(userID.(string))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Graph assembled successfully", graph)
}
