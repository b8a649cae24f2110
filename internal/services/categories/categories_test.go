package categories

import (
	"context"
	"testing"

	"yamdb/proj/internal/domain/errs"
	"yamdb/proj/internal/domain/filters"
	"yamdb/proj/internal/domain/models"
	"yamdb/proj/internal/lib/logger"
	"yamdb/proj/internal/permissions"
	"yamdb/proj/internal/storage/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	admin = &models.User{ID: 1, Username: "admin", Role: models.RoleAdmin}
	mod   = &models.User{ID: 2, Username: "mod", Role: models.RoleModerator}
)

func newService() *CategoryService {
	return New(logger.Discard(), memory.New().Categories, permissions.New(), permissions.KindCategory)
}

func TestCreateAndList(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	_, err := svc.Create(ctx, models.AnonymousUser, "Film", "film")
	assert.ErrorIs(t, err, errs.ErrUnauthenticated)
	_, err = svc.Create(ctx, mod, "Film", "film")
	assert.ErrorIs(t, err, errs.ErrForbidden)

	created, err := svc.Create(ctx, admin, "Film", "film")
	require.NoError(t, err)
	assert.Equal(t, "film", created.Slug)
	_, err = svc.Create(ctx, admin, "Books", "books")
	require.NoError(t, err)

	_, err = svc.Create(ctx, admin, "Another film", "film")
	assert.ErrorIs(t, err, errs.ErrConflict)

	_, err = svc.Create(ctx, admin, "Bad", "bad slug")
	var verr *errs.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "slug")

	items, total, err := svc.List(ctx, "", filters.Filters{})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, "Books", items[0].Name)

	items, total, err = svc.List(ctx, "fil", filters.Filters{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "film", items[0].Slug)
}

func TestUpdateAndDelete(t *testing.T) {
	svc := newService()
	ctx := context.Background()
	_, err := svc.Create(ctx, admin, "Film", "film")
	require.NoError(t, err)
	_, err = svc.Create(ctx, admin, "Books", "books")
	require.NoError(t, err)

	name := "Movies"
	updated, err := svc.Update(ctx, admin, "film", &name, nil)
	require.NoError(t, err)
	assert.Equal(t, "Movies", updated.Name)
	assert.Equal(t, "film", updated.Slug)

	slug := "books"
	_, err = svc.Update(ctx, admin, "film", nil, &slug)
	assert.ErrorIs(t, err, errs.ErrConflict)

	_, err = svc.Update(ctx, admin, "missing", &name, nil)
	assert.ErrorIs(t, err, errs.ErrNotFound)

	assert.ErrorIs(t, svc.Delete(ctx, mod, "film"), errs.ErrForbidden)
	require.NoError(t, svc.Delete(ctx, admin, "film"))
	_, err = svc.Get(ctx, "film")
	assert.ErrorIs(t, err, errs.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, admin, "film"), errs.ErrNotFound)
}
