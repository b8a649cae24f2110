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

type CommentModel struct {
	DB *pgxpool.Pool
}

const commentSelect = `SELECT c.id, c.review_id, c.author_id, u.username AS author, c.text, c.pub_date
	FROM comments c JOIN users u ON u.id = c.author_id`

func (m *CommentModel) List(ctx context.Context, reviewID int64, f filters.Filters) ([]models.Comment, int, error) {
	rows, err := m.DB.Query(
		ctx,
		`SELECT count(*) OVER() AS total, q.* FROM (`+commentSelect+` WHERE c.review_id = $1) q
		ORDER BY q.pub_date, q.id
		LIMIT $2 OFFSET $3`,
		reviewID, f.GetLimit(), f.GetOffset(),
	)
	if err != nil {
		return nil, 0, err
	}
	type row struct {
		Total int
		models.Comment
	}
	outputRows, err := pgx.CollectRows(rows, pgx.RowToStructByName[row])
	if err != nil {
		return nil, 0, postgres.TranslateErr(err)
	}
	comments := make([]models.Comment, 0, len(outputRows))
	for _, r := range outputRows {
		comments = append(comments, r.Comment)
	}
	if len(outputRows) == 0 {
		return comments, 0, nil
	}
	return comments, outputRows[0].Total, nil
}

func (m *CommentModel) Get(ctx context.Context, reviewID, id int64) (*models.Comment, error) {
	rows, err := m.DB.Query(ctx, commentSelect+` WHERE c.review_id = $1 AND c.id = $2`, reviewID, id)
	if err != nil {
		return nil, err
	}
	comment, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[models.Comment])
	if err != nil {
		return nil, postgres.TranslateErr(err)
	}
	return &comment, nil
}

func (m *CommentModel) Insert(ctx context.Context, comment *models.Comment) (*models.Comment, error) {
	var id int64
	err := m.DB.QueryRow(
		ctx,
		`INSERT INTO comments (review_id, author_id, text) VALUES ($1, $2, $3) RETURNING id`,
		comment.ReviewID, comment.AuthorID, comment.Text,
	).Scan(&id)
	if err != nil {
		return nil, postgres.TranslateErr(err)
	}
	return m.Get(ctx, comment.ReviewID, id)
}

func (m *CommentModel) Update(ctx context.Context, comment *models.Comment) (*models.Comment, error) {
	status, err := m.DB.Exec(
		ctx,
		`UPDATE comments SET text = $1 WHERE id = $2 AND review_id = $3`,
		comment.Text, comment.ID, comment.ReviewID,
	)
	if err != nil {
		return nil, postgres.TranslateErr(err)
	}
	if status.RowsAffected() == 0 {
		return nil, storage.ErrNotFound
	}
	return m.Get(ctx, comment.ReviewID, comment.ID)
}

func (m *CommentModel) Delete(ctx context.Context, reviewID, id int64) error {
	status, err := m.DB.Exec(ctx, "DELETE FROM comments WHERE review_id = $1 AND id = $2", reviewID, id)
	if err != nil {
		return err
	}
	if status.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}
