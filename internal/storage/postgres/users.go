package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pizzanet/pizza-service/internal/models"
	"github.com/pizzanet/pizza-service/internal/storage"
)

// CreateUser inserts a user and its role grants in one transaction.
func (s *Store) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return models.User{}, err
	}
	defer tx.Rollback(ctx)

	const insertUser = `
		INSERT INTO users (name, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id;`
	if err := tx.QueryRow(ctx, insertUser, user.Name, user.Email, user.PasswordHash).Scan(&user.ID); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return models.User{}, storage.ErrAlreadyExists
		}
		return models.User{}, err
	}

	const insertRole = `INSERT INTO user_roles (user_id, role, object_id) VALUES ($1, $2, $3);`
	for _, grant := range user.Roles {
		if _, err := tx.Exec(ctx, insertRole, user.ID, grant.Role, grant.ObjectID); err != nil {
			return models.User{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return models.User{}, err
	}
	return user, nil
}

// GetUser fetches a user by id with current role grants.
func (s *Store) GetUser(ctx context.Context, id int64) (models.User, error) {
	const query = `SELECT id, name, email, password_hash FROM users WHERE id = $1;`
	return s.scanUserWithRoles(ctx, s.pool.QueryRow(ctx, query, id))
}

// GetUserByEmail fetches a user by case-insensitive email match.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	const query = `SELECT id, name, email, password_hash FROM users WHERE LOWER(email) = LOWER($1);`
	return s.scanUserWithRoles(ctx, s.pool.QueryRow(ctx, query, email))
}

// UpdateUser replaces name, email, and password hash where the input sets them.
func (s *Store) UpdateUser(ctx context.Context, user models.User) (models.User, error) {
	const query = `
		UPDATE users SET
			name = COALESCE(NULLIF($2, ''), name),
			email = COALESCE(NULLIF($3, ''), email),
			password_hash = COALESCE(NULLIF($4, ''), password_hash)
		WHERE id = $1
		RETURNING id, name, email, password_hash;`
	row := s.pool.QueryRow(ctx, query, user.ID, user.Name, user.Email, user.PasswordHash)

	var updated models.User
	if err := row.Scan(&updated.ID, &updated.Name, &updated.Email, &updated.PasswordHash); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, storage.ErrNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return models.User{}, storage.ErrAlreadyExists
		}
		return models.User{}, err
	}
	roles, err := s.userRoles(ctx, updated.ID)
	if err != nil {
		return models.User{}, err
	}
	updated.Roles = roles
	return updated, nil
}

func (s *Store) scanUserWithRoles(ctx context.Context, row pgx.Row) (models.User, error) {
	var user models.User
	if err := row.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, storage.ErrNotFound
		}
		return models.User{}, err
	}
	roles, err := s.userRoles(ctx, user.ID)
	if err != nil {
		return models.User{}, err
	}
	user.Roles = roles
	return user, nil
}

func (s *Store) userRoles(ctx context.Context, userID int64) ([]models.RoleGrant, error) {
	const query = `SELECT role, object_id FROM user_roles WHERE user_id = $1 ORDER BY role, object_id;`
	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var grants []models.RoleGrant
	for rows.Next() {
		var g models.RoleGrant
		if err := rows.Scan(&g.Role, &g.ObjectID); err != nil {
			return nil, err
		}
		grants = append(grants, g)
	}
	return grants, rows.Err()
}
