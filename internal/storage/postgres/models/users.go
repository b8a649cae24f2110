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

type UserModel struct {
	DB *pgxpool.Pool
}

const userColumns = `id, username, email, first_name, last_name, bio, role,
	is_staff, is_active, confirmation_code, created_at, updated_at`

func scanUser(row pgx.Row, extra ...any) (models.User, error) {
	var (
		user models.User
		role string
	)
	dest := append(extra,
		&user.ID, &user.Username, &user.Email, &user.FirstName, &user.LastName, &user.Bio, &role,
		&user.IsStaff, &user.IsActive, &user.ConfirmationCode, &user.CreatedAt, &user.UpdatedAt,
	)
	if err := row.Scan(dest...); err != nil {
		return models.User{}, err
	}
	user.Role = models.Role(role)
	return user, nil
}

func (m *UserModel) getBy(ctx context.Context, column string, value any) (*models.User, error) {
	row := m.DB.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE `+column+` = $1`, value)
	user, err := scanUser(row)
	if err != nil {
		return nil, postgres.TranslateErr(err)
	}
	return &user, nil
}

func (m *UserModel) Get(ctx context.Context, id int64) (*models.User, error) {
	return m.getBy(ctx, "id", id)
}

func (m *UserModel) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return m.getBy(ctx, "username", username)
}

func (m *UserModel) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return m.getBy(ctx, "email", email)
}

func (m *UserModel) List(ctx context.Context, search string, f filters.Filters) ([]models.User, int, error) {
	rows, err := m.DB.Query(
		ctx,
		`SELECT count(*) OVER(), `+userColumns+` FROM users
		WHERE (username ILIKE '%' || $1 || '%' OR $1 = '')
		ORDER BY username
		LIMIT $2 OFFSET $3`,
		search, f.GetLimit(), f.GetOffset(),
	)
	if err != nil {
		return nil, 0, err
	}
	var total int
	users, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.User, error) {
		return scanUser(row, &total)
	})
	if err != nil {
		return nil, 0, postgres.TranslateErr(err)
	}
	return users, total, nil
}

func (m *UserModel) Insert(ctx context.Context, user *models.User) (*models.User, error) {
	row := m.DB.QueryRow(
		ctx,
		`INSERT INTO users (username, email, first_name, last_name, bio, role, is_staff, is_active, confirmation_code)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+userColumns,
		user.Username, user.Email, user.FirstName, user.LastName, user.Bio,
		string(user.Role), user.IsStaff, user.IsActive, user.ConfirmationCode,
	)
	created, err := scanUser(row)
	if err != nil {
		return nil, postgres.TranslateErr(err)
	}
	return &created, nil
}

func (m *UserModel) Update(ctx context.Context, user *models.User) (*models.User, error) {
	row := m.DB.QueryRow(
		ctx,
		`UPDATE users SET username = $1, email = $2, first_name = $3, last_name = $4, bio = $5,
		role = $6, is_active = $7, confirmation_code = $8, updated_at = now()
		WHERE id = $9
		RETURNING `+userColumns,
		user.Username, user.Email, user.FirstName, user.LastName, user.Bio,
		string(user.Role), user.IsActive, user.ConfirmationCode, user.ID,
	)
	updated, err := scanUser(row)
	if err != nil {
		return nil, postgres.TranslateErr(err)
	}
	return &updated, nil
}

// Delete removes the user; reviews and comments authored by them are removed
// by the foreign key cascade.
func (m *UserModel) Delete(ctx context.Context, username string) error {
	status, err := m.DB.Exec(ctx, "DELETE FROM users WHERE username = $1", username)
	if err != nil {
		return err
	}
	if status.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}
