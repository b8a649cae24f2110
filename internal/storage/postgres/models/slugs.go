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

// SlugModel stores the name/slug dictionaries: categories and genres share
// one table layout and differ only by table name.
type SlugModel struct {
	DB    *pgxpool.Pool
	table string
}

func NewSlugModel(db *pgxpool.Pool, table string) *SlugModel {
	return &SlugModel{DB: db, table: pgx.Identifier{table}.Sanitize()}
}

func (m *SlugModel) List(ctx context.Context, search string, f filters.Filters) ([]models.Category, int, error) {
	rows, err := m.DB.Query(
		ctx,
		`SELECT count(*) OVER() AS total, id, name, slug FROM `+m.table+`
		WHERE (name ILIKE '%' || $1 || '%' OR $1 = '')
		ORDER BY name, id
		LIMIT $2 OFFSET $3`,
		search, f.GetLimit(), f.GetOffset(),
	)
	if err != nil {
		return nil, 0, err
	}
	type row struct {
		Total int
		models.Category
	}
	outputRows, err := pgx.CollectRows(rows, pgx.RowToStructByName[row])
	if err != nil {
		return nil, 0, postgres.TranslateErr(err)
	}
	items := make([]models.Category, 0, len(outputRows))
	for _, r := range outputRows {
		items = append(items, r.Category)
	}
	if len(outputRows) == 0 {
		return items, 0, nil
	}
	return items, outputRows[0].Total, nil
}

func (m *SlugModel) GetBySlug(ctx context.Context, slug string) (*models.Category, error) {
	rows, err := m.DB.Query(ctx, `SELECT id, name, slug FROM `+m.table+` WHERE slug = $1`, slug)
	if err != nil {
		return nil, err
	}
	item, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[models.Category])
	if err != nil {
		return nil, postgres.TranslateErr(err)
	}
	return &item, nil
}

func (m *SlugModel) Insert(ctx context.Context, name, slug string) (*models.Category, error) {
	rows, _ := m.DB.Query(
		ctx,
		`INSERT INTO `+m.table+` (name, slug) VALUES ($1, $2) RETURNING id, name, slug`,
		name, slug,
	)
	item, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[models.Category])
	if err != nil {
		return nil, postgres.TranslateErr(err)
	}
	return &item, nil
}

func (m *SlugModel) Update(ctx context.Context, item *models.Category) (*models.Category, error) {
	rows, _ := m.DB.Query(
		ctx,
		`UPDATE `+m.table+` SET name = $1, slug = $2 WHERE id = $3 RETURNING id, name, slug`,
		item.Name, item.Slug, item.ID,
	)
	updated, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[models.Category])
	if err != nil {
		return nil, postgres.TranslateErr(err)
	}
	return &updated, nil
}

func (m *SlugModel) Delete(ctx context.Context, slug string) error {
	status, err := m.DB.Exec(ctx, `DELETE FROM `+m.table+` WHERE slug = $1`, slug)
	if err != nil {
		return err
	}
	if status.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}
