package models

import (
	"context"

	"yamdb/proj/internal/domain/filters"
	"yamdb/proj/internal/domain/models"
	"yamdb/proj/internal/storage"
	"yamdb/proj/internal/storage/postgres"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ReviewModel struct {
	DB *pgxpool.Pool
}

const reviewSelect = `SELECT r.id, r.title_id, r.author_id, u.username AS author, r.text, r.score, r.pub_date
	FROM reviews r JOIN users u ON u.id = r.author_id`

func (m *ReviewModel) List(ctx context.Context, titleID int64, f filters.Filters) ([]models.Review, int, error) {
	rows, err := m.DB.Query(
		ctx,
		`SELECT count(*) OVER() AS total, q.* FROM (`+reviewSelect+` WHERE r.title_id = $1) q
		ORDER BY q.pub_date, q.id
		LIMIT $2 OFFSET $3`,
		titleID, f.GetLimit(), f.GetOffset(),
	)
	if err != nil {
		return nil, 0, err
	}
	type row struct {
		Total int
		models.Review
	}
	outputRows, err := pgx.CollectRows(rows, pgx.RowToStructByName[row])
	if err != nil {
		return nil, 0, postgres.TranslateErr(err)
	}
	reviews := make([]models.Review, 0, len(outputRows))
	for _, r := range outputRows {
		reviews = append(reviews, r.Review)
	}
	if len(outputRows) == 0 {
		return reviews, 0, nil
	}
	return reviews, outputRows[0].Total, nil
}

func (m *ReviewModel) collectOne(ctx context.Context, query string, args ...any) (*models.Review, error) {
	rows, err := m.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	review, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[models.Review])
	if err != nil {
		return nil, postgres.TranslateErr(err)
	}
	return &review, nil
}

// Get returns the review only when it belongs to the given title.
func (m *ReviewModel) Get(ctx context.Context, titleID, id int64) (*models.Review, error) {
	return m.collectOne(ctx, reviewSelect+` WHERE r.title_id = $1 AND r.id = $2`, titleID, id)
}

func (m *ReviewModel) GetByAuthor(ctx context.Context, titleID, authorID int64) (*models.Review, error) {
	return m.collectOne(ctx, reviewSelect+` WHERE r.title_id = $1 AND r.author_id = $2`, titleID, authorID)
}

// Insert relies on the unique_title_author_pair constraint to reject a second
// review of the same author for the same title.
func (m *ReviewModel) Insert(ctx context.Context, review *models.Review) (*models.Review, error) {
	var id int64
	err := m.DB.QueryRow(
		ctx,
		`INSERT INTO reviews (title_id, author_id, text, score) VALUES ($1, $2, $3, $4) RETURNING id`,
		review.TitleID, review.AuthorID, review.Text, review.Score,
	).Scan(&id)
	if err != nil {
		return nil, postgres.TranslateErr(err)
	}
	return m.Get(ctx, review.TitleID, id)
}

func (m *ReviewModel) Update(ctx context.Context, review *models.Review) (*models.Review, error) {
	status, err := m.DB.Exec(
		ctx,
		`UPDATE reviews SET text = $1, score = $2 WHERE id = $3 AND title_id = $4`,
		review.Text, review.Score, review.ID, review.TitleID,
	)
	if err != nil {
		return nil, postgres.TranslateErr(err)
	}
	if status.RowsAffected() == 0 {
		return nil, storage.ErrNotFound
	}
	return m.Get(ctx, review.TitleID, review.ID)
}

func (m *ReviewModel) Delete(ctx context.Context, titleID, id int64) error {
	status, err := m.DB.Exec(ctx, "DELETE FROM reviews WHERE title_id = $1 AND id = $2", titleID, id)
	if err != nil {
		return err
	}
	if status.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}
