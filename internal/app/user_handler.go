package app

import (
	"net/http"
	"strconv"

	"hangoutapp/internal/repository"
	"hangoutapp/internal/util"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userRepo repository.UserRepository
}

func NewUserHandler(userRepo repository.UserRepository) *UserHandler {
	return &UserHandler{userRepo: userRepo}
}

// GetUsers lists users with pagination
// GET /api/v1/users
func (h *UserHandler) GetUsers(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	users, total, err := h.userRepo.FindAll(limit, offset)
	if err != nil {
		util.InternalError(c, "Failed to retrieve users")
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Users retrieved successfully", gin.H{
		"users": users,
		"total": total,
	})
}

// SearchUsers searches users by name or phone
// GET /api/v1/users/search?q=keyword
func (h *UserHandler) SearchUsers(c *gin.Context) {
	keyword := c.Query("q")
	if keyword == "" {
		util.BadRequest(c, "Search keyword is required")
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	users, err := h.userRepo.SearchUsers(keyword, limit, offset)
	if err != nil {
		util.InternalError(c, "Failed to search users")
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Users retrieved successfully", gin.H{"users": users})
}

// GetUser returns a single user's public record
// GET /api/v1/users/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	user, err := h.userRepo.FindByID(c.Param("id"))
	if err != nil {
		util.NotFound(c, "User not found")
		return
	}

	util.SuccessResponse(c, http.StatusOK, "User retrieved successfully", gin.H{"user": user})
}

// UpdateMe updates the authenticated user's profile fields
// PUT /api/v1/users/me
func (h *UserHandler) UpdateMe(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		util.Unauthorized(c, "User not authenticated")
		return
	}

	var req struct {
		Name *string `json:"name"`
		Bio  *string `json:"bio"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	user, err := h.userRepo.FindByID(userID.(string))
	if err != nil {
		util.NotFound(c, "User not found")
		return
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Bio != nil {
		user.Bio = *req.Bio
	}

	if err := h.userRepo.Update(user); err != nil {
		util.InternalError(c, "Failed to update user")
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Profile updated successfully", gin.H{"user": user})
}
