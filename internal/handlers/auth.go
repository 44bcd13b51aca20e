package handlers

import (
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/olehkozhan/contactbook/internal/middleware"
	"github.com/olehkozhan/contactbook/internal/models"
	"github.com/olehkozhan/contactbook/internal/services"
	"github.com/olehkozhan/contactbook/pkg/errors"
	"github.com/olehkozhan/contactbook/pkg/response"
)

// AuthHandler manages the account lifecycle endpoints
// (register/verify/login/current/logout/avatar/subscription).
type AuthHandler struct {
	auth    *services.AuthService
	tempDir string
}

func NewAuthHandler(auth *services.AuthService, tempDir string) *AuthHandler {
	return &AuthHandler{auth: auth, tempDir: tempDir}
}

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type emailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type subscriptionRequest struct {
	Subscription string `json:"subscription" validate:"required,oneof=starter pro business"`
}

func userPayload(user *models.User) gin.H {
	return gin.H{
		"email":        user.Email,
		"subscription": user.Subscription,
	}
}

// POST /api/users/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if !bindAndValidate(c, &req) {
		return
	}

	user, err := h.auth.Register(c.Request.Context(), services.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"user": userPayload(user)})
}

// GET /api/users/verify/:token
func (h *AuthHandler) Verify(c *gin.Context) {
	if err := h.auth.VerifyEmail(c.Request.Context(), c.Param("token")); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Verification successful"})
}

// POST /api/users/verify
func (h *AuthHandler) ResendVerification(c *gin.Context) {
	var req emailRequest
	if !bindAndValidate(c, &req) {
		return
	}

	if err := h.auth.ResendVerification(c.Request.Context(), req.Email); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Verification email sent"})
}

// POST /api/users/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindAndValidate(c, &req) {
		return
	}

	user, token, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"token": token,
		"user":  userPayload(user),
	})
}

// GET /api/users/current
func (h *AuthHandler) Current(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	response.Success(c, http.StatusOK, userPayload(user))
}

// POST /api/users/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	if err := h.auth.Logout(c.Request.Context(), user.ID); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// PATCH /api/users/avatar
func (h *AuthHandler) UpdateAvatar(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	file, err := c.FormFile("avatar")
	if err != nil {
		response.Error(c, errors.NewBadRequest("file is required"))
		return
	}

	// Stage the upload under a unique temp name before handing it to the store.
	tempPath := filepath.Join(h.tempDir, uuid.NewString()+filepath.Ext(file.Filename))
	if err := c.SaveUploadedFile(file, tempPath); err != nil {
		response.Error(c, errors.Wrap(err, "failed to store upload"))
		return
	}

	ref, err := h.auth.UpdateAvatar(c.Request.Context(), user.ID, file.Filename, tempPath)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"avatarURL": ref})
}

// PATCH /api/users/subscription
func (h *AuthHandler) UpdateSubscription(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	var req subscriptionRequest
	if !bindAndValidate(c, &req) {
		return
	}

	updated, err := h.auth.UpdateSubscription(c.Request.Context(), user.ID, models.Subscription(req.Subscription))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, userPayload(updated))
}
