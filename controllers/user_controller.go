package controllers

import (
	"context"
	"errors"
	"net/http"

	"github.com/fildor/atelier-api/logger"
	"github.com/fildor/atelier-api/middleware"
	"github.com/fildor/atelier-api/models"
	"github.com/fildor/atelier-api/repository"
	"github.com/fildor/atelier-api/services"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UpdateUserRequest represents the request body for updating a user profile
type UpdateUserRequest struct {
	Name  string `json:"name" binding:"omitempty"`
	Email string `json:"email" binding:"omitempty,email"`
}

// UserStore is the persistence the profile endpoints need
type UserStore interface {
	GetByAuth0ID(ctx context.Context, auth0ID string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User, updates map[string]interface{}) error
}

// UserController serves the staff profile endpoints
type UserController struct {
	users    UserStore
	userInfo services.UserInfoProvider
}

// NewUserController creates the user controller
func NewUserController(users UserStore, userInfo services.UserInfoProvider) *UserController {
	return &UserController{users: users, userInfo: userInfo}
}

// CreateUser handles POST /api/v1/users - creates a staff profile from Auth0 userinfo
// This endpoint requires authentication and fetches user data from Auth0's /userinfo endpoint
func (uc *UserController) CreateUser(c *gin.Context) {
	// Get the Auth0 user ID from the validated JWT
	auth0ID, err := middleware.GetUserID(c)
	if err != nil {
		respondFailure(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user ID from token")
		return
	}

	// Get the access token to call Auth0's /userinfo endpoint
	accessToken, err := middleware.GetAccessToken(c)
	if err != nil {
		respondFailure(c, http.StatusUnauthorized, "MISSING_TOKEN", "Access token not found")
		return
	}

	userInfo, err := uc.userInfo.GetUserInfo(c.Request.Context(), accessToken)
	if err != nil {
		logger.Log.Error("Failed to fetch Auth0 user info", zap.String("auth0_id", auth0ID), zap.Error(err))
		respondFailure(c, http.StatusInternalServerError, "AUTH0_ERROR", "Failed to fetch user information from Auth0")
		return
	}

	// Validate that required fields are present
	if userInfo.Email == "" {
		respondFailure(c, http.StatusBadRequest, "MISSING_EMAIL", "Email not provided by Auth0")
		return
	}
	if userInfo.Name == "" {
		respondFailure(c, http.StatusBadRequest, "MISSING_NAME", "Name not provided by Auth0")
		return
	}

	// The token may carry an initial role; everyone else starts as a couturier
	role := models.RoleCouturier
	if claimed := middleware.GetRoleClaim(c); models.IsValidRole(claimed) {
		role = claimed
	}

	user := models.User{
		Auth0ID: auth0ID,
		Name:    userInfo.Name,
		Email:   userInfo.Email,
		Role:    role,
	}

	if err := uc.users.Create(c.Request.Context(), &user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			respondFailure(c, http.StatusConflict, "USER_EXISTS", "A user with this Auth0 ID or email already exists")
			return
		}
		respondFailure(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create user")
		return
	}

	logger.Log.Info("Staff profile created", zap.Uint("user_id", user.ID), zap.String("role", user.Role))
	respondSuccess(c, http.StatusCreated, user)
}

// GetMyProfile handles GET /api/v1/users/me - gets current user's profile
func (uc *UserController) GetMyProfile(c *gin.Context) {
	auth0ID, err := middleware.GetUserID(c)
	if err != nil {
		respondFailure(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user information")
		return
	}

	user, err := uc.users.GetByAuth0ID(c.Request.Context(), auth0ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondFailure(c, http.StatusNotFound, "USER_NOT_FOUND", "User profile not found. Please create a profile first.")
			return
		}
		respondFailure(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load user profile")
		return
	}

	respondSuccess(c, http.StatusOK, user)
}

// UpdateMyProfile handles PUT /api/v1/users/me - updates current user's profile
func (uc *UserController) UpdateMyProfile(c *gin.Context) {
	auth0ID, err := middleware.GetUserID(c)
	if err != nil {
		respondFailure(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user information")
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": err.Error(),
			},
		})
		return
	}

	user, err := uc.users.GetByAuth0ID(c.Request.Context(), auth0ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondFailure(c, http.StatusNotFound, "USER_NOT_FOUND", "User profile not found")
			return
		}
		respondFailure(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load user profile")
		return
	}

	updates := make(map[string]interface{})
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Email != "" {
		updates["email"] = req.Email
	}

	// If no fields to update, return current user
	if len(updates) == 0 {
		respondSuccess(c, http.StatusOK, user)
		return
	}

	if err := uc.users.Update(c.Request.Context(), user, updates); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			respondFailure(c, http.StatusConflict, "EMAIL_EXISTS", "A user with this email already exists")
			return
		}
		respondFailure(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update user profile")
		return
	}

	respondSuccess(c, http.StatusOK, user)
}
