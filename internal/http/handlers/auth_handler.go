package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gigconnect/backend/internal/dto"
	"github.com/gigconnect/backend/internal/http/handlers/common"
	"github.com/gigconnect/backend/internal/service"
)

type AuthHandler struct {
	auth *service.AuthService
}

func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Signup POST /auth/signup
//
// The account lands in pending_kyc and cannot log in until an admin
// verifies it, so no tokens come back here.
func (h *AuthHandler) Signup(c *gin.Context) {
	var req dto.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "invalid request body")
		return
	}

	user, err := h.auth.Signup(c.Request.Context(), service.SignupInput{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
		Phone:    req.Phone,
		Role:     req.Role,
	})
	if err != nil {
		common.Fail(c, err)
		return
	}

	common.RespondData(c, http.StatusCreated, dto.NewPublicUser(user))
}

// Login POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "invalid request body")
		return
	}

	result, err := h.auth.Login(c.Request.Context(), service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	}, clientMeta(c))
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, authResponse(result))
}

// Refresh POST /auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req dto.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "refresh_token is required")
		return
	}

	result, err := h.auth.Refresh(c.Request.Context(), req.RefreshToken, clientMeta(c))
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, authResponse(result))
}

// Logout POST /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	var req dto.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "refresh_token is required")
		return
	}

	if err := h.auth.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		common.Fail(c, err)
		return
	}

	common.RespondData(c, http.StatusOK, gin.H{"logged_out": true})
}

// Me GET /auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	user, err := h.auth.GetUser(c.Request.Context(), userID)
	if err != nil {
		common.Fail(c, err)
		return
	}

	common.RespondData(c, http.StatusOK, dto.NewPublicUser(user))
}

// GetUserProfile GET /users/:id
//
// Public view of any account; credentials and contact details beyond
// what PublicUser exposes never leave the service.
func (h *AuthHandler) GetUserProfile(c *gin.Context) {
	userID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, "invalid user id")
		return
	}

	user, err := h.auth.GetUser(c.Request.Context(), userID)
	if err != nil {
		common.Fail(c, err)
		return
	}

	common.RespondData(c, http.StatusOK, dto.NewPublicUser(user))
}

// UpdateMe PATCH /auth/me
func (h *AuthHandler) UpdateMe(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	var req dto.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "invalid request body")
		return
	}

	user, err := h.auth.UpdateProfile(c.Request.Context(), userID, req.FullName, req.Phone)
	if err != nil {
		common.Fail(c, err)
		return
	}

	common.RespondData(c, http.StatusOK, dto.NewPublicUser(user))
}

func authResponse(result *service.AuthResult) dto.AuthResponse {
	return dto.AuthResponse{
		Success:      true,
		AccessToken:  result.TokenPair.AccessToken,
		RefreshToken: result.TokenPair.RefreshToken,
		User:         dto.NewPublicUser(result.User),
		ExpiresAt:    result.ExpiresAt,
	}
}

func clientMeta(c *gin.Context) *service.ClientMeta {
	return &service.ClientMeta{
		UserAgent: c.GetHeader("User-Agent"),
		IPAddress: c.ClientIP(),
	}
}
