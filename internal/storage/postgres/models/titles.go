package models

import (
	"context"
	"fmt"
	"strings"

	"yamdb/proj/internal/domain/filters"
	"yamdb/proj/internal/domain/models"
	"yamdb/proj/internal/storage"
	"yamdb/proj/internal/storage/postgres"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TitleModel struct {
	DB *pgxpool.Pool
}

// titleSelect yields the read shape of titles: the category is joined and the
// rating is the average of review scores, NULL when there are none.
const titleSelect = `SELECT count(*) OVER(), t.id, t.name, t.year, t.description,
	AVG(r.score)::float8, c.id, c.name, c.slug
	FROM titles t
	LEFT JOIN categories c ON c.id = t.category_id
	LEFT JOIN reviews r ON r.title_id = t.id`

func scanTitle(row pgx.CollectableRow) (titleRow, error) {
	var (
		tr           titleRow
		categoryID   *int64
		categoryName *string
		categorySlug *string
	)
	err := row.Scan(
		&tr.total, &tr.ID, &tr.Name, &tr.Year, &tr.Description,
		&tr.Rating, &categoryID, &categoryName, &categorySlug,
	)
	if err != nil {
		return titleRow{}, err
	}
	if categoryID != nil {
		tr.Category = &models.Category{ID: *categoryID, Name: *categoryName, Slug: *categorySlug}
	}
	tr.Genres = []models.Genre{}
	return tr, nil
}

type titleRow struct {
	total int
	models.Title
}

func (m *TitleModel) Get(ctx context.Context, id int64) (*models.Title, error) {
	rows, err := m.DB.Query(ctx, titleSelect+` WHERE t.id = $1 GROUP BY t.id, c.id`, id)
	if err != nil {
		return nil, err
	}
	tr, err := pgx.CollectOneRow(rows, scanTitle)
	if err != nil {
		return nil, postgres.TranslateErr(err)
	}
	titles := []models.Title{tr.Title}
	if err := m.attachGenres(ctx, titles); err != nil {
		return nil, err
	}
	return &titles[0], nil
}

func likeEscape(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (m *TitleModel) List(ctx context.Context, tf filters.TitleFilter, f filters.Filters) ([]models.Title, int, error) {
	sort := "t.year DESC"
	if f.Sort != "" {
		sort = fmt.Sprintf("t.%s %s", f.SortColumn(), f.SortDirection())
	}
	query := titleSelect + `
	WHERE (t.name ILIKE $1 || '%' OR $1 = '')
	AND (LOWER(c.slug) = LOWER($2) OR $2 = '')
	AND ($3 = '' OR EXISTS (
		SELECT 1 FROM genre_title gt JOIN genres g ON g.id = gt.genre_id
		WHERE gt.title_id = t.id AND g.slug LIKE '%' || $3 || '%'
	))
	AND ($4::integer IS NULL OR t.year = $4)
	GROUP BY t.id, c.id
	ORDER BY ` + sort + `, t.id ASC
	LIMIT $5 OFFSET $6`
	args := []any{likeEscape(tf.Name), tf.Category, likeEscape(tf.Genre), tf.Year, f.GetLimit(), f.GetOffset()}
	rows, err := m.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	outputRows, err := pgx.CollectRows(rows, scanTitle)
	if err != nil {
		return nil, 0, postgres.TranslateErr(err)
	}
	titles := make([]models.Title, 0, len(outputRows))
	for _, row := range outputRows {
		titles = append(titles, row.Title)
	}
	if len(outputRows) == 0 {
		return titles, 0, nil
	}
	if err := m.attachGenres(ctx, titles); err != nil {
		return nil, 0, err
	}
	return titles, outputRows[0].total, nil
}

func (m *TitleModel) attachGenres(ctx context.Context, titles []models.Title) error {
	ids := make([]int64, 0, len(titles))
	byID := make(map[int64]*models.Title, len(titles))
	for i := range titles {
		ids = append(ids, titles[i].ID)
		byID[titles[i].ID] = &titles[i]
	}
	rows, err := m.DB.Query(
		ctx,
		`SELECT gt.title_id, g.id, g.name, g.slug FROM genre_title gt
		JOIN genres g ON g.id = gt.genre_id
		WHERE gt.title_id = ANY($1)
		ORDER BY g.name`,
		ids,
	)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			titleID int64
			genre   models.Genre
		)
		if err := rows.Scan(&titleID, &genre.ID, &genre.Name, &genre.Slug); err != nil {
			return err
		}
		if t, ok := byID[titleID]; ok {
			t.Genres = append(t.Genres, genre)
		}
	}
	return rows.Err()
}

func setGenres(ctx context.Context, tx pgx.Tx, titleID int64, genreIDs []int64) error {
	if _, err := tx.Exec(ctx, "DELETE FROM genre_title WHERE title_id = $1", titleID); err != nil {
		return err
	}
	_, err := tx.Exec(
		ctx,
		`INSERT INTO genre_title (genre_id, title_id)
		SELECT DISTINCT g, $2 FROM unnest($1::bigint[]) AS g`,
		genreIDs, titleID,
	)
	return postgres.TranslateErr(err)
}

func (m *TitleModel) Insert(ctx context.Context, rec storage.TitleRecord) (int64, error) {
	var id int64
	err := postgres.InTx(ctx, m.DB, func(tx pgx.Tx) error {
		err := tx.QueryRow(
			ctx,
			`INSERT INTO titles (name, year, description, category_id) VALUES ($1, $2, $3, $4) RETURNING id`,
			rec.Name, rec.Year, rec.Description, rec.CategoryID,
		).Scan(&id)
		if err != nil {
			return postgres.TranslateErr(err)
		}
		return setGenres(ctx, tx, id, rec.GenreIDs)
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (m *TitleModel) Update(ctx context.Context, id int64, rec storage.TitleRecord) error {
	return postgres.InTx(ctx, m.DB, func(tx pgx.Tx) error {
		status, err := tx.Exec(
			ctx,
			`UPDATE titles SET name = $1, year = $2, description = $3, category_id = $4 WHERE id = $5`,
			rec.Name, rec.Year, rec.Description, rec.CategoryID, id,
		)
		if err != nil {
			return postgres.TranslateErr(err)
		}
		if status.RowsAffected() == 0 {
			return storage.ErrNotFound
		}
		return setGenres(ctx, tx, id, rec.GenreIDs)
	})
}

// Delete removes the title together with its genre links and reviews.
func (m *TitleModel) Delete(ctx context.Context, id int64) error {
	status, err := m.DB.Exec(ctx, "DELETE FROM titles WHERE id = $1", id)
	if err != nil {
		return err
	}
	if status.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}
