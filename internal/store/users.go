package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/wardenlabs/realm-tracker/internal/model"
)

func (s *PostgresStore) CreateUser(ctx context.Context, username, passwordHash string, role model.Role) (*model.User, error) {
	if !role.Valid() {
		return nil, eris.Errorf("postgres: invalid role %q", role)
	}

	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO tracker.users (id, username, password_hash, role, created_at) VALUES ($1, $2, $3, $4, $5)`,
		id, username, passwordHash, string(role), now,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: insert user %s", username)
	}

	return &model.User{
		ID:           id,
		Username:     username,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    now,
	}, nil
}

func (s *PostgresStore) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	var u model.User
	var role string
	err := s.pool.QueryRow(ctx,
		`SELECT id, username, password_hash, role, created_at FROM tracker.users WHERE username = $1`,
		username,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &role, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get user %s", username)
	}
	u.Role = model.Role(role)
	return &u, nil
}

func (s *PostgresStore) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, username, role, created_at FROM tracker.users ORDER BY created_at`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list users")
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		var role string
		if err := rows.Scan(&u.ID, &u.Username, &role, &u.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan user")
		}
		u.Role = model.Role(role)
		users = append(users, u)
	}
	return users, eris.Wrap(rows.Err(), "postgres: list users iterate")
}
