package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"conduit/internal/domain"
	"conduit/internal/utils/databaseutils"
	"conduit/internal/utils/stringutils"

	"github.com/mdobak/go-xerrors"
)

func (r *Repository) GetProfile(ctx context.Context, username string) (*domain.Profile, error) {
	row, err := r.getUserRowByUsername(ctx, username)
	if err != nil {
		return nil, xerrors.New(err)
	}

	profile := row.toProfile()
	return &profile, nil
}

func (r *Repository) GetProfileView(ctx context.Context, viewer *domain.User, username string) (*domain.ProfileView, error) {
	row, err := r.getUserRowByUsername(ctx, username)
	if err != nil {
		return nil, xerrors.New(err)
	}

	view := &domain.ProfileView{
		Profile: row.toProfile(),
	}
	if viewer == nil {
		return view, nil
	}

	const queryFollowing = `
		SELECT EXISTS (
			SELECT 1 FROM follows WHERE follower_id = $1 AND followed_id = $2
		)
	`

	following, err := databaseutils.ExecuteSingleQuery(r.sqlTemplate, ctx, queryFollowing, func(rows *sql.Rows) (bool, error) {
		var following bool
		if err := rows.Scan(&following); err != nil {
			return false, xerrors.New(err)
		}
		return following, nil
	}, viewer.ID, row.id)
	if err != nil {
		return nil, xerrors.New(err)
	}

	view.Following = following
	view.Viewer = viewer.ID
	return view, nil
}

func (r *Repository) Follow(ctx context.Context, follower *domain.User, username string) error {
	const insertSQL = `
		INSERT INTO follows (follower_id, followed_id)
		SELECT $1, id FROM users WHERE username = $2
		ON CONFLICT DO NOTHING
	`

	affected, err := databaseutils.ExecuteUpdate(r.sqlTemplate, ctx, insertSQL, follower.ID, username)
	if err != nil {
		return xerrors.New(err)
	}

	// Zero rows is fine when the edge already exists, but a missing user
	// must not be silently swallowed.
	if affected == 0 {
		if _, err := r.getUserRowByUsername(ctx, username); err != nil {
			return xerrors.New(err)
		}
	}

	return nil
}

func (r *Repository) Unfollow(ctx context.Context, follower *domain.User, username string) error {
	const deleteSQL = `
		DELETE FROM follows
		WHERE follower_id = $1
		  AND followed_id = (SELECT id FROM users WHERE username = $2)
	`

	affected, err := databaseutils.ExecuteUpdate(r.sqlTemplate, ctx, deleteSQL, follower.ID, username)
	if err != nil {
		return xerrors.New(err)
	}

	// Zero rows is the idempotent no-op when the edge is already gone, but a
	// missing user must not be silently swallowed.
	if affected == 0 {
		if _, err := r.getUserRowByUsername(ctx, username); err != nil {
			return xerrors.New(err)
		}
	}

	return nil
}

func (r *Repository) getUserRowByUsername(ctx context.Context, username string) (*userRow, error) {
	query := `
		SELECT ` + selectUserColumns + `
		FROM users
		WHERE username = $1
	`

	row, err := databaseutils.ExecuteSingleQuery(r.sqlTemplate, ctx, query, scanUserRow, username)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, xerrors.New(domain.ErrProfileNotFound)
		default:
			return nil, xerrors.New(err)
		}
	}

	return row, nil
}

// followedUsernames returns which of the given usernames the viewer follows.
func (r *Repository) followedUsernames(ctx context.Context, viewer *domain.User, usernames []string) (map[string]bool, error) {
	if viewer == nil || len(usernames) == 0 {
		return map[string]bool{}, nil
	}

	placeholders, args := stringutils.INClause(usernames)
	query := fmt.Sprintf(`
		SELECT u.username
		FROM follows f
		JOIN users u ON u.id = f.followed_id
		WHERE u.username IN (%s) AND f.follower_id = $%d
	`, strings.Join(placeholders, ", "), len(usernames)+1)
	args = append(args, viewer.ID)

	followed, err := databaseutils.ExecuteQuery(r.sqlTemplate, ctx, query, func(rows *sql.Rows) (string, error) {
		var username string
		if err := rows.Scan(&username); err != nil {
			return "", xerrors.New(err)
		}
		return username, nil
	}, args...)
	if err != nil {
		return nil, xerrors.New(err)
	}

	result := make(map[string]bool, len(followed))
	for _, username := range followed {
		result[username] = true
	}

	return result, nil
}
