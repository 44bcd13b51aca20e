package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/olehkozhan/contactbook/internal/models"
	apperrors "github.com/olehkozhan/contactbook/pkg/errors"
)

// ErrContactNotFound indicates the contact does not exist or belongs to another account.
var ErrContactNotFound = apperrors.NewNotFound("Contact not found")

// CreateContactInput describes the fields accepted when creating a contact.
type CreateContactInput struct {
	Name     string
	Email    string
	Phone    string
	Favorite bool
}

// UpdateContactInput enumerates mutable contact attributes.
type UpdateContactInput struct {
	Name     *string
	Email    *string
	Phone    *string
	Favorite *bool
}

// Empty reports whether the update carries no fields.
func (in UpdateContactInput) Empty() bool {
	return in.Name == nil && in.Email == nil && in.Phone == nil && in.Favorite == nil
}

// ListContactsOptions controls filtering and pagination for contact listing.
type ListContactsOptions struct {
	Page     int
	PageSize int
	Favorite *bool
}

// ContactService manages the CRUD lifecycle of owner-scoped contacts.
type ContactService struct {
	db *gorm.DB
}

// NewContactService constructs a ContactService instance.
func NewContactService(db *gorm.DB) (*ContactService, error) {
	if db == nil {
		return nil, errors.New("contact service: db is required")
	}
	return &ContactService{db: db}, nil
}

// Create persists a new contact owned by the given account.
func (s *ContactService) Create(ctx context.Context, ownerID string, input CreateContactInput) (*models.Contact, error) {
	ctx = ensureContext(ctx)

	name := strings.TrimSpace(input.Name)
	phone := strings.TrimSpace(input.Phone)
	if name == "" {
		return nil, apperrors.NewBadRequest("name is required")
	}
	if phone == "" {
		return nil, apperrors.NewBadRequest("phone is required")
	}

	contact := &models.Contact{
		Name:     name,
		Email:    strings.TrimSpace(input.Email),
		Phone:    phone,
		Favorite: input.Favorite,
		OwnerID:  ownerID,
	}

	if err := s.db.WithContext(ctx).Create(contact).Error; err != nil {
		return nil, fmt.Errorf("contact service: create contact: %w", err)
	}

	return contact, nil
}

// GetByID loads a single contact owned by the given account.
func (s *ContactService) GetByID(ctx context.Context, ownerID, id string) (*models.Contact, error) {
	ctx = ensureContext(ctx)

	var contact models.Contact
	err := s.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Take(&contact).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrContactNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("contact service: get contact: %w", err)
	}

	return &contact, nil
}

// List retrieves the account's contacts with pagination and an optional favorite filter.
func (s *ContactService) List(ctx context.Context, ownerID string, opts ListContactsOptions) ([]models.Contact, int64, error) {
	ctx = ensureContext(ctx)

	page := opts.Page
	if page <= 0 {
		page = 1
	}
	perPage := opts.PageSize
	if perPage <= 0 || perPage > 100 {
		perPage = 20
	}

	query := s.db.WithContext(ctx).
		Model(&models.Contact{}).
		Where("owner_id = ?", ownerID)
	if opts.Favorite != nil {
		query = query.Where("favorite = ?", *opts.Favorite)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("contact service: count contacts: %w", err)
	}

	var contacts []models.Contact
	if err := query.
		Order("created_at DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&contacts).Error; err != nil {
		return nil, 0, fmt.Errorf("contact service: list contacts: %w", err)
	}

	return contacts, total, nil
}

// Update persists mutable attributes of an existing contact.
func (s *ContactService) Update(ctx context.Context, ownerID, id string, input UpdateContactInput) (*models.Contact, error) {
	ctx = ensureContext(ctx)

	if input.Empty() {
		return nil, apperrors.NewBadRequest("missing fields")
	}

	contact, err := s.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, apperrors.NewBadRequest("name must not be empty")
		}
		updates["name"] = name
	}
	if input.Email != nil {
		updates["email"] = strings.TrimSpace(*input.Email)
	}
	if input.Phone != nil {
		phone := strings.TrimSpace(*input.Phone)
		if phone == "" {
			return nil, apperrors.NewBadRequest("phone must not be empty")
		}
		updates["phone"] = phone
	}
	if input.Favorite != nil {
		updates["favorite"] = *input.Favorite
	}

	if err := s.db.WithContext(ctx).Model(contact).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("contact service: update contact: %w", err)
	}

	return s.GetByID(ctx, ownerID, id)
}

// SetFavorite toggles the favorite flag on a contact.
func (s *ContactService) SetFavorite(ctx context.Context, ownerID, id string, favorite bool) (*models.Contact, error) {
	return s.Update(ctx, ownerID, id, UpdateContactInput{Favorite: &favorite})
}

// Delete removes a contact owned by the given account.
func (s *ContactService) Delete(ctx context.Context, ownerID, id string) error {
	ctx = ensureContext(ctx)

	result := s.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Delete(&models.Contact{})
	if result.Error != nil {
		return fmt.Errorf("contact service: delete contact: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrContactNotFound
	}

	return nil
}
