package postgres

import (
	"context"
	"database/sql"
	"errors"

	"conduit/internal/domain"
	"conduit/internal/domain/password"
	"conduit/internal/utils/databaseutils"

	"github.com/google/uuid"
	"github.com/mdobak/go-xerrors"
)

const selectUserColumns = `id, email, username, password, bio, image`

// SignUp stores the user and their self-follow edge in one transaction, so
// a user without the edge can never be observed.
func (r *Repository) SignUp(ctx context.Context, signUp domain.SignUp) (*domain.User, error) {
	user, err := databaseutils.DoTransactionally(ctx, r.session, func(txCtx context.Context) (*domain.User, error) {
		insertUser := `
			INSERT INTO users (id, username, email, password, created_at, updated_at)
			VALUES ($1, $2, $3, $4, now(), now())
			RETURNING ` + selectUserColumns + `
		`

		args := []any{uuid.New(), signUp.Username, signUp.Email, []byte(signUp.Password)}
		row, err := databaseutils.ExecuteSingleQuery(r.sqlTemplate, txCtx, insertUser, scanUserRow, args...)
		if err != nil {
			return nil, mapConstraintError(err)
		}

		const insertSelfFollow = `
			INSERT INTO follows (follower_id, followed_id)
			VALUES ($1, $1)
			ON CONFLICT DO NOTHING
		`
		if _, err := databaseutils.ExecuteUpdate(r.sqlTemplate, txCtx, insertSelfFollow, row.id); err != nil {
			return nil, xerrors.New(err)
		}

		return row.toUser(), nil
	})

	if err != nil {
		return nil, xerrors.New(err)
	}

	r.log.Info("user signed up", "user_id", user.ID, "username", user.Profile.Username)
	return user, nil
}

// UpdateUser applies a partial update. Email, username and password fall
// back to the stored value when absent; bio and image are written
// unconditionally, so an absent value clears the column.
func (r *Repository) UpdateUser(ctx context.Context, user domain.User, update domain.UserUpdate) (*domain.User, error) {
	query := `
		UPDATE users
		SET email      = COALESCE($1, email),
		    username   = COALESCE($2, username),
		    password   = COALESCE($3, password),
		    bio        = $4,
		    image      = $5,
		    updated_at = now()
		WHERE id = $6
		RETURNING ` + selectUserColumns + `
	`

	var hashed []byte
	if update.Password != nil {
		hashed = []byte(*update.Password)
	}

	args := []any{update.Email, update.Username, hashed, update.Bio, update.Image, user.ID}
	row, err := databaseutils.ExecuteSingleQuery(r.sqlTemplate, ctx, query, scanUserRow, args...)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, xerrors.New(domain.ErrUserNotFound)
		default:
			return nil, mapConstraintError(err)
		}
	}

	return row.toUser(), nil
}

func (r *Repository) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `
		SELECT ` + selectUserColumns + `
		FROM users
		WHERE id = $1
	`

	row, err := databaseutils.ExecuteSingleQuery(r.sqlTemplate, ctx, query, scanUserRow, id)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, xerrors.New(domain.ErrUserNotFound)
		default:
			return nil, xerrors.New(err)
		}
	}

	return row.toUser(), nil
}

// GetUserByEmailAndPassword deliberately collapses "no such email" and
// "wrong password" into the same error, so callers cannot probe which
// emails are registered.
func (r *Repository) GetUserByEmailAndPassword(ctx context.Context, email, clearText string) (*domain.User, error) {
	query := `
		SELECT ` + selectUserColumns + `
		FROM users
		WHERE email = $1
	`

	row, err := databaseutils.ExecuteSingleQuery(r.sqlTemplate, ctx, query, scanUserRow, email)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, xerrors.New(domain.ErrInvalidCredentials)
		default:
			return nil, xerrors.New(err)
		}
	}

	match, err := password.FromHash(row.password).Verify(clearText)
	if err != nil {
		return nil, xerrors.New(err)
	}
	if !match {
		return nil, xerrors.New(domain.ErrInvalidCredentials)
	}

	return row.toUser(), nil
}
