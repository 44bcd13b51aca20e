package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/olehkozhan/contactbook/internal/models"
	apperrors "github.com/olehkozhan/contactbook/pkg/errors"
)

func newContactTestEnv(t *testing.T) (*ContactService, *gorm.DB, *models.User) {
	t.Helper()

	db := openServiceTestDB(t)

	owner := &models.User{
		Email:     "owner@example.com",
		Password:  "hashed",
		AvatarURL: "https://www.gravatar.com/avatar/0",
	}
	require.NoError(t, db.Create(owner).Error)

	svc, err := NewContactService(db)
	require.NoError(t, err)

	return svc, db, owner
}

func TestContactCreateAndGet(t *testing.T) {
	svc, _, owner := newContactTestEnv(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, owner.ID, CreateContactInput{
		Name:  "Ada Lovelace",
		Email: "ada@example.com",
		Phone: "+44 123 456",
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.Equal(t, owner.ID, created.OwnerID)

	got, err := svc.GetByID(ctx, owner.ID, created.ID)
	require.NoError(t, err)
	require.Equal(t, "Ada Lovelace", got.Name)
}

func TestContactCreateValidation(t *testing.T) {
	svc, _, owner := newContactTestEnv(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, owner.ID, CreateContactInput{Phone: "+1"})
	require.Error(t, err)
	require.Equal(t, apperrors.ErrBadRequest.Code, apperrors.FromError(err).Code)

	_, err = svc.Create(ctx, owner.ID, CreateContactInput{Name: "No Phone"})
	require.Error(t, err)
}

func TestContactOwnerScoping(t *testing.T) {
	svc, db, owner := newContactTestEnv(t)
	ctx := context.Background()

	other := &models.User{
		Email:     "other@example.com",
		Password:  "hashed",
		AvatarURL: "https://www.gravatar.com/avatar/1",
	}
	require.NoError(t, db.Create(other).Error)

	created, err := svc.Create(ctx, owner.ID, CreateContactInput{Name: "Private", Phone: "+1"})
	require.NoError(t, err)

	_, err = svc.GetByID(ctx, other.ID, created.ID)
	require.ErrorIs(t, err, ErrContactNotFound)

	err = svc.Delete(ctx, other.ID, created.ID)
	require.ErrorIs(t, err, ErrContactNotFound)

	contacts, total, err := svc.List(ctx, other.ID, ListContactsOptions{})
	require.NoError(t, err)
	require.Empty(t, contacts)
	require.Zero(t, total)
}

func TestContactListPaginationAndFavoriteFilter(t *testing.T) {
	svc, _, owner := newContactTestEnv(t)
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		_, err := svc.Create(ctx, owner.ID, CreateContactInput{
			Name:     fmt.Sprintf("Contact %02d", i),
			Phone:    fmt.Sprintf("+1 555 %04d", i),
			Favorite: i%5 == 0,
		})
		require.NoError(t, err)
	}

	page1, total, err := svc.List(ctx, owner.ID, ListContactsOptions{Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.EqualValues(t, 25, total)
	require.Len(t, page1, 10)

	page3, _, err := svc.List(ctx, owner.ID, ListContactsOptions{Page: 3, PageSize: 10})
	require.NoError(t, err)
	require.Len(t, page3, 5)

	fav := true
	favorites, favTotal, err := svc.List(ctx, owner.ID, ListContactsOptions{Favorite: &fav})
	require.NoError(t, err)
	require.EqualValues(t, 5, favTotal)
	for _, contact := range favorites {
		require.True(t, contact.Favorite)
	}
}

func TestContactUpdate(t *testing.T) {
	svc, _, owner := newContactTestEnv(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, owner.ID, CreateContactInput{Name: "Old Name", Phone: "+1"})
	require.NoError(t, err)

	_, err = svc.Update(ctx, owner.ID, created.ID, UpdateContactInput{})
	require.Error(t, err)
	require.Equal(t, apperrors.ErrBadRequest.Code, apperrors.FromError(err).Code)

	name := "New Name"
	updated, err := svc.Update(ctx, owner.ID, created.ID, UpdateContactInput{Name: &name})
	require.NoError(t, err)
	require.Equal(t, "New Name", updated.Name)
	require.Equal(t, "+1", updated.Phone)

	_, err = svc.Update(ctx, owner.ID, "no-such-id", UpdateContactInput{Name: &name})
	require.ErrorIs(t, err, ErrContactNotFound)
}

func TestContactSetFavorite(t *testing.T) {
	svc, _, owner := newContactTestEnv(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, owner.ID, CreateContactInput{Name: "Fav", Phone: "+1"})
	require.NoError(t, err)
	require.False(t, created.Favorite)

	updated, err := svc.SetFavorite(ctx, owner.ID, created.ID, true)
	require.NoError(t, err)
	require.True(t, updated.Favorite)

	updated, err = svc.SetFavorite(ctx, owner.ID, created.ID, false)
	require.NoError(t, err)
	require.False(t, updated.Favorite)
}

func TestContactDelete(t *testing.T) {
	svc, _, owner := newContactTestEnv(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, owner.ID, CreateContactInput{Name: "Gone", Phone: "+1"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, owner.ID, created.ID))

	_, err = svc.GetByID(ctx, owner.ID, created.ID)
	require.ErrorIs(t, err, ErrContactNotFound)

	err = svc.Delete(ctx, owner.ID, created.ID)
	require.ErrorIs(t, err, ErrContactNotFound)
}
