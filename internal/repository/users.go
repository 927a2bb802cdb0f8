package repository

import (
	"github.com/sysu-ecnc-dev/social-golfer/backend/internal/domain"
)

const userColumns = `id, username, password_hash, full_name, email, role, is_active, created_at, version`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	user := &domain.User{}
	dst := []any{&user.ID, &user.Username, &user.PasswordHash, &user.FullName, &user.Email, &user.Role, &user.IsActive, &user.CreatedAt, &user.Version}
	if err := row.Scan(dst...); err != nil {
		return nil, err
	}
	return user, nil
}

func (r *Repository) GetUserByID(id int64) (*domain.User, error) {
	ctx, cancel := r.queryContext()
	defer cancel()

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.dbpool.QueryRowContext(ctx, query, id))
}

func (r *Repository) GetUserByUsername(username string) (*domain.User, error) {
	ctx, cancel := r.queryContext()
	defer cancel()

	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	return scanUser(r.dbpool.QueryRowContext(ctx, query, username))
}

func (r *Repository) GetAllUsers() ([]*domain.User, error) {
	ctx, cancel := r.queryContext()
	defer cancel()

	query := `SELECT ` + userColumns + ` FROM users ORDER BY id`
	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]*domain.User, 0)
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

func (r *Repository) CreateUser(user *domain.User) error {
	ctx, cancel := r.queryContext()
	defer cancel()

	query := `
		INSERT INTO users (username, password_hash, full_name, email, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, is_active, created_at, version
	`

	args := []any{user.Username, user.PasswordHash, user.FullName, user.Email, user.Role}
	return r.dbpool.QueryRowContext(ctx, query, args...).Scan(&user.ID, &user.IsActive, &user.CreatedAt, &user.Version)
}

// UpdateUser 使用 version 做乐观锁，版本不一致时返回 sql.ErrNoRows
func (r *Repository) UpdateUser(user *domain.User) error {
	ctx, cancel := r.queryContext()
	defer cancel()

	query := `
		UPDATE users
		SET
			password_hash = $1,
			email = $2,
			role = $3,
			is_active = $4,
			version = version + 1
		WHERE id = $5 AND version = $6
		RETURNING version
	`

	args := []any{user.PasswordHash, user.Email, user.Role, user.IsActive, user.ID, user.Version}
	return r.dbpool.QueryRowContext(ctx, query, args...).Scan(&user.Version)
}
