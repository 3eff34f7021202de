package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sarashino/voice-diary-api/internal/dto"
	apierrors "github.com/sarashino/voice-diary-api/internal/errors"
	"github.com/sarashino/voice-diary-api/internal/middleware"
	"github.com/sarashino/voice-diary-api/internal/models"
	"github.com/sarashino/voice-diary-api/internal/services"
)

// AuthHandler coordinates authentication-related HTTP handlers.
type AuthHandler struct {
	authService    *services.AuthService
	sessionService *services.SessionService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService, sessionService *services.SessionService) *AuthHandler {
	return &AuthHandler{
		authService:    authService,
		sessionService: sessionService,
	}
}

// Signup registers a new user and opens a session.
func (h *AuthHandler) Signup(c *gin.Context) {
	type SignupRequest struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	user, err := h.authService.Register(services.RegisterInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		respondAuthError(c, err)
		return
	}

	h.respondWithSession(c, http.StatusCreated, user)
}

// Login authenticates a user and opens a session.
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

	h.respondWithSession(c, http.StatusOK, user)
}

// Logout revokes the presented token. Revoking an unknown token succeeds.
func (h *AuthHandler) Logout(c *gin.Context) {
	token, ok := middleware.BearerToken(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}
	if err := h.sessionService.Revoke(token); err != nil {
		apierrors.InternalError(c, "")
		return
	}
	c.Status(http.StatusNoContent)
}

// GetCurrentUser returns the authenticated principal.
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}
	c.JSON(http.StatusOK, dto.UserDTO{
		ID:       principal.ID,
		Username: principal.Username,
		Role:     principal.Role,
	})
}

func (h *AuthHandler) respondWithSession(c *gin.Context, status int, user *models.User) {
	token, expiresAt, err := h.sessionService.Issue(user)
	if err != nil {
		apierrors.InternalError(c, "")
		return
	}
	c.JSON(status, dto.AuthResponse{
		User:      dto.ToUserDTO(*user),
		Token:     token,
		ExpiresAt: expiresAt,
	})
}

func respondAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrUsernameTaken):
		apierrors.Conflict(c, "Username already exists")
	case errors.Is(err, services.ErrInvalidUsername):
		apierrors.BadRequest(c, "Username must be 3-64 characters")
	case errors.Is(err, services.ErrPasswordTooShort):
		apierrors.BadRequest(c, "Password is too short")
	case errors.Is(err, services.ErrInvalidCredentials):
		apierrors.RespondWithError(c, http.StatusUnauthorized,
			apierrors.NewAPIError(apierrors.ErrCodeInvalidCredentials, "Invalid username or password"))
	default:
		apierrors.InternalError(c, "")
	}
}
