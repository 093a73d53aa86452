package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"receiptdesk/internal/caching"
	"receiptdesk/internal/common"
	"receiptdesk/internal/models"
	"receiptdesk/internal/repositories"
	"receiptdesk/internal/services"
)

const (
	loginRateLimit  = 10
	loginRateWindow = time.Minute
)

// AuthHandlers handles authentication-related HTTP requests
type AuthHandlers struct {
	authService services.AuthService
	userRepo    repositories.UserRepository
	cacheSvc    caching.CacheService
}

func NewAuthHandlers(authService services.AuthService, userRepo repositories.UserRepository, cacheSvc caching.CacheService) *AuthHandlers {
	return &AuthHandlers{
		authService: authService,
		userRepo:    userRepo,
		cacheSvc:    cacheSvc,
	}
}

// LoginRequest represents the login request payload
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse represents the login response
type LoginResponse struct {
	models.TokenResponse
	User *models.User `json:"user"`
}

// Login handles user login with username and password
func (h *AuthHandlers) Login(c echo.Context) error {
	ctx := c.Request().Context()

	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	if req.Username == "" || req.Password == "" {
		return common.SendClientError(c, "Username and password are required")
	}

	rateKey := "login_attempts:" + c.RealIP()
	if count, err := h.cacheSvc.IncrementRateLimit(ctx, rateKey, loginRateWindow); err == nil && count > loginRateLimit {
		return c.JSON(http.StatusTooManyRequests, common.CreateErrorResponse("RATE_LIMITED", "Too many login attempts", nil))
	}

	user, err := h.userRepo.GetByUsername(ctx, req.Username)
	if err != nil {
		return common.SendUnauthorizedError(c)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return common.SendUnauthorizedError(c)
	}

	tokenResponse, err := h.authService.GenerateTokens(ctx, user)
	if err != nil {
		log.Printf("Failed to generate tokens for %s: %v", user.Username, err)
		return common.SendServerError(c, "Failed to generate tokens")
	}

	return c.JSON(http.StatusOK, LoginResponse{
		TokenResponse: *tokenResponse,
		User:          user,
	})
}

// RefreshRequest represents the refresh request payload
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Refresh exchanges a refresh token for a fresh token pair
func (h *AuthHandlers) Refresh(c echo.Context) error {
	ctx := c.Request().Context()

	var req RefreshRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	if req.RefreshToken == "" {
		return common.SendClientError(c, "Refresh token is required")
	}

	tokenResponse, err := h.authService.RefreshTokens(ctx, req.RefreshToken)
	if err != nil {
		return common.SendUnauthorizedError(c)
	}

	return c.JSON(http.StatusOK, tokenResponse)
}

// Me returns the authenticated user
func (h *AuthHandlers) Me(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	user, err := h.userRepo.GetByID(ctx, userID)
	if err != nil {
		return common.SendUnauthorizedError(c)
	}

	return c.JSON(http.StatusOK, user)
}
