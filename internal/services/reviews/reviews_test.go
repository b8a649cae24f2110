package reviews

import (
	"context"
	"fmt"
	"testing"

	"yamdb/proj/internal/domain/errs"
	"yamdb/proj/internal/domain/filters"
	"yamdb/proj/internal/domain/models"
	"yamdb/proj/internal/lib/logger"
	"yamdb/proj/internal/metrics"
	"yamdb/proj/internal/permissions"
	"yamdb/proj/internal/storage"
	"yamdb/proj/internal/storage/memory"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	svc     *ReviewService
	store   *memory.Storage
	titleID int64
	alice   *models.User
	bob     *models.User
	mod     *models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.New()
	insertUser := func(name string, role models.Role) *models.User {
		u, err := store.Users.Insert(ctx, &models.User{Username: name, Email: name + "@example.com", Role: role})
		require.NoError(t, err)
		return u
	}
	g, err := store.Genres.Insert(ctx, "Drama", "drama")
	require.NoError(t, err)
	titleID, err := store.Titles.Insert(ctx, storage.TitleRecord{Name: "Heat", Year: 1995, GenreIDs: []int64{g.ID}})
	require.NoError(t, err)
	return &fixture{
		svc:     New(logger.Discard(), store.Reviews, store.Titles, permissions.New()),
		store:   store,
		titleID: titleID,
		alice:   insertUser("alice", models.RoleUser),
		bob:     insertUser("bob", models.RoleUser),
		mod:     insertUser("mod", models.RoleModerator),
	}
}

func ptr[T any](v T) *T { return &v }

func TestCreate_OnePerAuthor(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	review, err := fx.svc.Create(ctx, fx.alice, fx.titleID, "Great", 8)
	require.NoError(t, err)
	assert.Equal(t, "alice", review.Author)
	assert.False(t, review.PubDate.IsZero())

	_, err = fx.svc.Create(ctx, fx.alice, fx.titleID, "Again", 5)
	assert.ErrorIs(t, err, errs.ErrConflict)

	_, err = fx.svc.Create(ctx, fx.bob, fx.titleID, "Fine", 10)
	require.NoError(t, err)

	title, err := fx.store.Titles.Get(ctx, fx.titleID)
	require.NoError(t, err)
	require.NotNil(t, title.Rating)
	assert.Equal(t, 9.0, *title.Rating)

	reviews, total, err := fx.svc.List(ctx, fx.titleID, filters.Filters{})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, "alice", reviews[0].Author)
}

func TestCreate_Rejects(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	_, err := fx.svc.Create(ctx, models.AnonymousUser, fx.titleID, "Great", 8)
	assert.ErrorIs(t, err, errs.ErrUnauthenticated)

	_, err = fx.svc.Create(ctx, fx.alice, 999, "Great", 8)
	assert.ErrorIs(t, err, errs.ErrNotFound)

	for _, score := range []int{0, 11} {
		_, err = fx.svc.Create(ctx, fx.alice, fx.titleID, "Great", score)
		var verr *errs.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "score")
	}

	_, err = fx.svc.Create(ctx, fx.alice, fx.titleID, "  ", 5)
	var verr *errs.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "text")
}

func TestUpdate_AuthorOrStaff(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	review, err := fx.svc.Create(ctx, fx.alice, fx.titleID, "Great", 8)
	require.NoError(t, err)

	updated, err := fx.svc.Update(ctx, fx.alice, fx.titleID, review.ID, nil, ptr(6))
	require.NoError(t, err)
	assert.Equal(t, 6, updated.Score)
	assert.Equal(t, "Great", updated.Text)

	_, err = fx.svc.Update(ctx, fx.bob, fx.titleID, review.ID, ptr("Mine now"), nil)
	assert.ErrorIs(t, err, errs.ErrForbidden)

	_, err = fx.svc.Update(ctx, models.AnonymousUser, fx.titleID, review.ID, ptr("x"), nil)
	assert.ErrorIs(t, err, errs.ErrUnauthenticated)

	updated, err = fx.svc.Update(ctx, fx.mod, fx.titleID, review.ID, ptr("Moderated"), nil)
	require.NoError(t, err)
	assert.Equal(t, "Moderated", updated.Text)
	assert.Equal(t, "alice", updated.Author)

	_, err = fx.svc.Update(ctx, fx.alice, fx.titleID+100, review.ID, ptr("x"), nil)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestDelete_CascadesAndFreesSlot(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	review, err := fx.svc.Create(ctx, fx.alice, fx.titleID, "Great", 8)
	require.NoError(t, err)
	_, err = fx.store.Comments.Insert(ctx, &models.Comment{ReviewID: review.ID, AuthorID: fx.bob.ID, Text: "Agreed"})
	require.NoError(t, err)

	assert.ErrorIs(t, fx.svc.Delete(ctx, fx.bob, fx.titleID, review.ID), errs.ErrForbidden)
	require.NoError(t, fx.svc.Delete(ctx, fx.alice, fx.titleID, review.ID))

	_, total, err := fx.store.Comments.List(ctx, review.ID, filters.Filters{})
	require.NoError(t, err)
	assert.Zero(t, total)

	_, err = fx.svc.Create(ctx, fx.alice, fx.titleID, "Second thoughts", 7)
	require.NoError(t, err)
}

// racingReviews passes the duplicate pre-check and then loses the insert to
// a concurrent review of the same author.
type racingReviews struct {
	ReviewStorage
}

func (racingReviews) GetByAuthor(context.Context, int64, int64) (*models.Review, error) {
	return nil, storage.ErrNotFound
}

func (racingReviews) Insert(context.Context, *models.Review) (*models.Review, error) {
	return nil, fmt.Errorf("insert review: %w: unique_title_author_pair", storage.ErrConflict)
}

func TestCreate_ConflictFromConstraint(t *testing.T) {
	fx := newFixture(t)
	svc := New(logger.Discard(), racingReviews{fx.store.Reviews}, fx.store.Titles, permissions.New())
	before := testutil.ToFloat64(metrics.Conflicts.WithLabelValues("review"))

	_, err := svc.Create(context.Background(), fx.alice, fx.titleID, "Great", 8)
	assert.ErrorIs(t, err, errs.ErrConflict)
	assert.Equal(t, errDuplicate, err)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.Conflicts.WithLabelValues("review")))
}
