package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/yukikurage/sprint-planner-api/internal/constants"
	"github.com/yukikurage/sprint-planner-api/internal/dto"
	apierrors "github.com/yukikurage/sprint-planner-api/internal/errors"
	"github.com/yukikurage/sprint-planner-api/internal/logger"
	"github.com/yukikurage/sprint-planner-api/internal/middleware"
	"github.com/yukikurage/sprint-planner-api/internal/services"
)

// AuthHandler coordinates authentication-related HTTP handlers.
type AuthHandler struct {
	authService *services.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// Signup registers a new user.
func (h *AuthHandler) Signup(c *gin.Context) {
	type SignupRequest struct {
		Username string           `json:"username" binding:"required,min=3,max=50"`
		Password string           `json:"password" binding:"required"`
		WorkWeek *dto.WorkWeekDTO `json:"work_week"`
	}

	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	input := services.SignupInput{
		Username: req.Username,
		Password: req.Password,
	}
	if req.WorkWeek != nil {
		days, bad, ok := req.WorkWeek.Weekdays()
		if !ok {
			apierrors.BadRequest(c, "Invalid weekday: "+bad)
			return
		}
		input.WorkDays = days
		input.HoursPerDay = dto.FromHours(req.WorkWeek.HoursPerDay)
	}

	user, err := h.authService.Signup(input)
	if err != nil {
		respondAuthError(c, err)
		return
	}

	logger.FromGin(c).Info().
		Uint64("user_id", user.ID).
		Int("work_days", len(user.WorkWeek.Weekdays())).
		Msg("User signed up")

	c.JSON(http.StatusCreated, dto.ToCurrentUserDTO(*user))
}

// Login authenticates a user and initializes the session.
func (h *AuthHandler) Login(c *gin.Context) {
	type LoginRequest struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	user, err := h.authService.Login(services.LoginInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		respondAuthError(c, err)
		return
	}

	session := sessions.Default(c)
	session.Set(constants.ContextKeyUserID, user.ID)
	if err := session.Save(); err != nil {
		apierrors.InternalError(c, "Failed to save session")
		return
	}

	userDTO := dto.ToUserDTO(*user)
	c.JSON(http.StatusOK, userDTO)
}

// Logout removes the authentication session.
func (h *AuthHandler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	if err := session.Save(); err != nil {
		apierrors.InternalError(c, "Failed to logout")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Logged out successfully",
	})
}

// GetCurrentUser returns the authenticated user.
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	user, err := h.authService.GetUser(userID)
	if err != nil {
		respondAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToCurrentUserDTO(*user))
}

func respondAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrUsernameRequired),
		errors.Is(err, services.ErrEmptyWorkWeek),
		errors.Is(err, services.ErrInvalidHoursPerDay):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrPasswordTooShort):
		apierrors.BadRequest(c, fmt.Sprintf("Password must be at least %d characters", constants.MinPasswordLength))
	case errors.Is(err, services.ErrUsernameTaken):
		apierrors.Conflict(c, err.Error())
	case errors.Is(err, services.ErrInvalidCredentials):
		apierrors.Unauthorized(c, err.Error())
	case errors.Is(err, services.ErrUserNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrFailedToHashPassword),
		errors.Is(err, services.ErrFailedToCreateUser),
		errors.Is(err, services.ErrFailedToCreateWorkWeek):
		logger.FromGin(c).Error().Err(err).Msg("Signup failed")
		apierrors.InternalError(c, err.Error())
	default:
		logger.FromGin(c).Error().Err(err).Msg("Auth request failed")
		apierrors.InternalError(c, "Internal server error")
	}
}
