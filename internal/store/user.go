package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jjudge-oj/useradmin/types"
)

// UserRepository reads and writes users held in postgres. It serves as a
// user data source when the console runs against a database instead of
// the user API.
type UserRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db, now: time.Now}
}

func (r *UserRepository) List(ctx context.Context) ([]types.User, error) {
	const query = `
		SELECT id, name, email, phone, country, role, created_at
		FROM users
		ORDER BY created_at ASC, id ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []types.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *UserRepository) Update(ctx context.Context, user types.User) error {
	const query = `
		UPDATE users
		SET name = $1,
			email = $2,
			phone = $3,
			country = $4,
			role = $5
		WHERE id = $6`
	result, err := r.db.ExecContext(
		ctx,
		query,
		nullString(user.Name),
		nullString(user.Email),
		nullString(user.Phone),
		nullString(user.Country),
		string(user.Role),
		user.ID,
	)
	if err != nil {
		return err
	}
	return expectAffected(result)
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM users WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return expectAffected(result)
}

// Create inserts a user. It is used to seed databases; the console itself
// never creates users.
func (r *UserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = types.Timestamp{Time: r.now().UTC()}
	}
	if user.Role == "" {
		user.Role = types.RoleUser
	}

	const query = `
		INSERT INTO users (id, name, email, phone, country, role, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.ExecContext(
		ctx,
		query,
		user.ID,
		nullString(user.Name),
		nullString(user.Email),
		nullString(user.Phone),
		nullString(user.Country),
		string(user.Role),
		user.CreatedAt.Time,
	)
	if err != nil {
		return types.User{}, fmt.Errorf("insert user %s: %w", user.ID, err)
	}
	return user, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (types.User, error) {
	var (
		user                        types.User
		name, email, phone, country sql.NullString
		role                        string
		createdAt                   sql.NullTime
	)
	if err := row.Scan(&user.ID, &name, &email, &phone, &country, &role, &createdAt); err != nil {
		return types.User{}, err
	}
	user.Name = name.String
	user.Email = email.String
	user.Phone = phone.String
	user.Country = country.String
	user.Role = types.Role(role)
	if createdAt.Valid {
		user.CreatedAt = types.Timestamp{Time: createdAt.Time.UTC()}
	}
	return user, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func expectAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
