package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vidora/vidora-api/internal/apperrors"
	"github.com/vidora/vidora-api/internal/domain/entity"
	"github.com/vidora/vidora-api/internal/domain/repository"
)

const uniqueViolation = "23505"

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// Create inserts the user. Uniqueness of username and email is enforced by
// the unique indexes; a violation surfaces as apperrors.ErrAlreadyExists so
// concurrent duplicate registrations resolve to exactly one success.
func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (username, email, full_name, password, avatar_url, cover_image_url)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`, u.Username, u.Email, u.FullName, u.Password, u.AvatarURL, u.CoverImageURL)

	if err := row.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return apperrors.NewAlreadyExists("user with the same username or email already exists")
		}
		return err
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return r.scanOne(r.pool.QueryRow(ctx, selectUser+` WHERE id = $1`, id))
}

func (r *UserRepository) GetByUsernameOrEmail(ctx context.Context, username, email string) (*entity.User, error) {
	return r.scanOne(r.pool.QueryRow(ctx, selectUser+`
		WHERE (username = $1 AND $1 <> '') OR (email = $2 AND $2 <> '')
	`, username, email))
}

func (r *UserRepository) SetRefreshToken(ctx context.Context, id, token string) error {
	res, err := r.pool.Exec(ctx, `
		UPDATE users SET refresh_token = $1, updated_at = now() WHERE id = $2
	`, token, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return apperrors.NewNotFound("user not found")
	}
	return nil
}

func (r *UserRepository) ClearRefreshToken(ctx context.Context, id string) error {
	// no row check: clearing an absent token must stay idempotent
	_, err := r.pool.Exec(ctx, `
		UPDATE users SET refresh_token = NULL, updated_at = now() WHERE id = $1
	`, id)
	return err
}

const selectUser = `
	SELECT id, username, email, full_name, password, avatar_url, cover_image_url, refresh_token, created_at, updated_at
	FROM users`

func (r *UserRepository) scanOne(row pgx.Row) (*entity.User, error) {
	u := &entity.User{}
	var refresh sql.NullString
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.FullName, &u.Password,
		&u.AvatarURL, &u.CoverImageURL, &refresh, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user not found")
		}
		return nil, err
	}
	u.RefreshToken = refresh.String
	return u, nil
}

var _ repository.UserRepository = (*UserRepository)(nil)
