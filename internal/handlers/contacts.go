package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/olehkozhan/contactbook/internal/middleware"
	"github.com/olehkozhan/contactbook/internal/services"
	"github.com/olehkozhan/contactbook/pkg/errors"
	"github.com/olehkozhan/contactbook/pkg/response"
)

// ContactHandler exposes CRUD endpoints for the authenticated account's contacts.
type ContactHandler struct {
	contacts *services.ContactService
}

func NewContactHandler(contacts *services.ContactService) *ContactHandler {
	return &ContactHandler{contacts: contacts}
}

type contactRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"omitempty,email"`
	Phone    string `json:"phone" validate:"required"`
	Favorite bool   `json:"favorite"`
}

type contactUpdateRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Phone    *string `json:"phone"`
	Favorite *bool   `json:"favorite"`
}

type favoriteRequest struct {
	Favorite *bool `json:"favorite" validate:"required"`
}

// GET /api/contacts
func (h *ContactHandler) List(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	opts := services.ListContactsOptions{
		Page:     parseIntQuery(c, "page", 1),
		PageSize: parseIntQuery(c, "limit", 20),
		Favorite: parseBoolQuery(c, "favorite"),
	}

	contacts, total, err := h.contacts.List(c.Request.Context(), user.ID, opts)
	if err != nil {
		response.Error(c, err)
		return
	}

	perPage := opts.PageSize
	if perPage <= 0 || perPage > 100 {
		perPage = 20
	}
	totalPages := int(total) / perPage
	if int(total)%perPage != 0 {
		totalPages++
	}

	response.SuccessWithMeta(c, http.StatusOK, contacts, &response.Meta{
		Page:       opts.Page,
		PerPage:    perPage,
		Total:      int(total),
		TotalPages: totalPages,
	})
}

// GET /api/contacts/:id
func (h *ContactHandler) Get(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	contact, err := h.contacts.GetByID(c.Request.Context(), user.ID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, contact)
}

// POST /api/contacts
func (h *ContactHandler) Create(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	var req contactRequest
	if !bindAndValidate(c, &req) {
		return
	}

	contact, err := h.contacts.Create(c.Request.Context(), user.ID, services.CreateContactInput{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Favorite: req.Favorite,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, contact)
}

// PUT /api/contacts/:id
func (h *ContactHandler) Update(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	var req contactUpdateRequest
	if !bindAndValidate(c, &req) {
		return
	}

	contact, err := h.contacts.Update(c.Request.Context(), user.ID, c.Param("id"), services.UpdateContactInput{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Favorite: req.Favorite,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, contact)
}

// PATCH /api/contacts/:id/favorite
func (h *ContactHandler) SetFavorite(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	var req favoriteRequest
	if !bindAndValidate(c, &req) {
		return
	}

	contact, err := h.contacts.SetFavorite(c.Request.Context(), user.ID, c.Param("id"), *req.Favorite)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, contact)
}

// DELETE /api/contacts/:id
func (h *ContactHandler) Delete(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	if err := h.contacts.Delete(c.Request.Context(), user.ID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Contact removed successfully"})
}
