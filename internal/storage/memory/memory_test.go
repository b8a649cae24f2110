package memory

import (
	"context"
	"testing"

	"yamdb/proj/internal/domain/filters"
	"yamdb/proj/internal/domain/models"
	"yamdb/proj/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T) (*Storage, int64, *models.User) {
	t.Helper()
	ctx := context.Background()
	s := New()
	film, err := s.Categories.Insert(ctx, "Film", "film")
	require.NoError(t, err)
	drama, err := s.Genres.Insert(ctx, "Drama", "drama")
	require.NoError(t, err)
	id, err := s.Titles.Insert(ctx, storage.TitleRecord{
		Name: "Solaris", Year: 1972, CategoryID: &film.ID, GenreIDs: []int64{drama.ID, drama.ID},
	})
	require.NoError(t, err)
	user, err := s.Users.Insert(ctx, &models.User{Username: "kris", Email: "kris@example.com"})
	require.NoError(t, err)
	return s, id, user
}

func TestUsers_Unique(t *testing.T) {
	s, _, _ := seed(t)
	_, err := s.Users.Insert(context.Background(), &models.User{Username: "kris", Email: "other@example.com"})
	assert.ErrorIs(t, err, storage.ErrConflict)
	_, err = s.Users.Insert(context.Background(), &models.User{Username: "other", Email: "kris@example.com"})
	assert.ErrorIs(t, err, storage.ErrConflict)
}

func TestReviews_UniquePerAuthorAndRating(t *testing.T) {
	ctx := context.Background()
	s, titleID, user := seed(t)

	title, err := s.Titles.Get(ctx, titleID)
	require.NoError(t, err)
	assert.Nil(t, title.Rating)
	assert.Len(t, title.Genres, 1)

	_, err = s.Reviews.Insert(ctx, &models.Review{TitleID: titleID, AuthorID: user.ID, Text: "ok", Score: 8})
	require.NoError(t, err)
	_, err = s.Reviews.Insert(ctx, &models.Review{TitleID: titleID, AuthorID: user.ID, Text: "again", Score: 1})
	assert.ErrorIs(t, err, storage.ErrConflict)

	other, err := s.Users.Insert(ctx, &models.User{Username: "snaut", Email: "snaut@example.com"})
	require.NoError(t, err)
	review, err := s.Reviews.Insert(ctx, &models.Review{TitleID: titleID, AuthorID: other.ID, Text: "great", Score: 10})
	require.NoError(t, err)
	assert.Equal(t, "snaut", review.Author)

	title, err = s.Titles.Get(ctx, titleID)
	require.NoError(t, err)
	require.NotNil(t, title.Rating)
	assert.Equal(t, 9.0, *title.Rating)
}

func TestDeleteCascades(t *testing.T) {
	ctx := context.Background()
	s, titleID, user := seed(t)
	review, err := s.Reviews.Insert(ctx, &models.Review{TitleID: titleID, AuthorID: user.ID, Text: "ok", Score: 5})
	require.NoError(t, err)
	_, err = s.Comments.Insert(ctx, &models.Comment{ReviewID: review.ID, AuthorID: user.ID, Text: "indeed"})
	require.NoError(t, err)

	require.NoError(t, s.Categories.Delete(ctx, "film"))
	title, err := s.Titles.Get(ctx, titleID)
	require.NoError(t, err)
	assert.Nil(t, title.Category)

	require.NoError(t, s.Users.Delete(ctx, "kris"))
	_, err = s.Reviews.Get(ctx, titleID, review.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	comments, total, err := s.Comments.List(ctx, review.ID, filters.Filters{})
	require.NoError(t, err)
	assert.Empty(t, comments)
	assert.Zero(t, total)
}

func TestTitles_ListFilters(t *testing.T) {
	ctx := context.Background()
	s, _, _ := seed(t)
	action, err := s.Genres.Insert(ctx, "Action", "action-movie")
	require.NoError(t, err)
	_, err = s.Titles.Insert(ctx, storage.TitleRecord{Name: "Stalker", Year: 1979, GenreIDs: []int64{action.ID}})
	require.NoError(t, err)

	titles, total, err := s.Titles.List(ctx, filters.TitleFilter{}, filters.Filters{})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, "Stalker", titles[0].Name, "newest year first")

	titles, _, err = s.Titles.List(ctx, filters.TitleFilter{Name: "sol"}, filters.Filters{})
	require.NoError(t, err)
	require.Len(t, titles, 1)
	assert.Equal(t, "Solaris", titles[0].Name)

	titles, _, err = s.Titles.List(ctx, filters.TitleFilter{Category: "FILM"}, filters.Filters{})
	require.NoError(t, err)
	assert.Len(t, titles, 1)

	titles, _, err = s.Titles.List(ctx, filters.TitleFilter{Genre: "movie"}, filters.Filters{})
	require.NoError(t, err)
	require.Len(t, titles, 1)
	assert.Equal(t, "Stalker", titles[0].Name)

	year := 1972
	titles, _, err = s.Titles.List(ctx, filters.TitleFilter{Year: &year}, filters.Filters{Limit: 1})
	require.NoError(t, err)
	require.Len(t, titles, 1)
	assert.Equal(t, "Solaris", titles[0].Name)
}
