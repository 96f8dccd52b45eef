// Package postgres implements the domain Repository on PostgreSQL.
//
// Uniqueness of usernames, emails and slugs is enforced by the database
// constraints and surfaced as the domain's typed conflict errors; the
// favorite and follow toggles rely on ON CONFLICT DO NOTHING inserts and
// unconditional deletes so that concurrent duplicate calls keep the
// at-most-one-row invariant.
//
// Expected schema (logical, uuid-keyed users, slug-keyed articles, jsonb tag
// list, association tables with composite primary keys):
//
//	users    (id uuid pk, username unique, email unique, password,
//	          bio null, image null, created_at, updated_at)
//	articles (slug pk, title, description, body, tag_list jsonb,
//	          author_id fk users, created_at, updated_at)
//	comments (id bigserial pk, body, article_slug fk articles on delete
//	          cascade, author_id fk users, created_at, updated_at)
//	favorites(user_id, article_slug, pk (user_id, article_slug),
//	          fks cascade on article delete)
//	follows  (follower_id, followed_id, pk (follower_id, followed_id))
package postgres

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"conduit/internal/domain"
	"conduit/internal/utils/databaseutils"

	"github.com/google/uuid"
	"github.com/mdobak/go-xerrors"
)

type Repository struct {
	log         *slog.Logger
	db          *sql.DB
	sqlTemplate *databaseutils.SQLTemplate
	session     databaseutils.Session
}

func NewRepository(db *sql.DB, log *slog.Logger, queryTimeout time.Duration) *Repository {
	return &Repository{
		log:         log,
		db:          db,
		sqlTemplate: databaseutils.NewSQLTemplate(db, queryTimeout),
		session:     databaseutils.NewSession(db),
	}
}

var _ domain.Repository = (*Repository)(nil)

// mapConstraintError translates pq unique/foreign-key violations into the
// domain's typed errors, keyed on the constraint name in the driver message.
func mapConstraintError(err error) error {
	switch {
	case strings.Contains(err.Error(), `"users_email_key"`):
		return xerrors.New(domain.ErrEmailTaken)
	case strings.Contains(err.Error(), `"users_username_key"`):
		return xerrors.New(domain.ErrUsernameTaken)
	case strings.Contains(err.Error(), `"articles_pkey"`):
		return xerrors.New(domain.ErrDuplicatedSlug)
	case strings.Contains(err.Error(), `"articles_author_id_fkey"`):
		return xerrors.New(domain.ErrUserNotFound)
	case strings.Contains(err.Error(), `"favorites_article_slug_fkey"`):
		return xerrors.New(domain.ErrArticleNotFound)
	case strings.Contains(err.Error(), `"comments_article_slug_fkey"`):
		return xerrors.New(domain.ErrArticleNotFound)
	default:
		return xerrors.New(err)
	}
}

type userRow struct {
	id       uuid.UUID
	email    string
	username string
	password []byte
	bio      *string
	image    *string
}

func scanUserRow(rows *sql.Rows) (*userRow, error) {
	row := &userRow{}
	if err := rows.Scan(
		&row.id,
		&row.email,
		&row.username,
		&row.password,
		&row.bio,
		&row.image,
	); err != nil {
		return nil, xerrors.New(err)
	}
	return row, nil
}

func (row *userRow) toUser() *domain.User {
	return &domain.User{
		ID:      row.id,
		Email:   row.email,
		Profile: row.toProfile(),
	}
}

func (row *userRow) toProfile() domain.Profile {
	return domain.Profile{
		Username: row.username,
		Bio:      row.bio,
		Image:    row.image,
	}
}

type articleRow struct {
	slug           string
	title          string
	description    string
	body           string
	tagList        []byte
	createdAt      time.Time
	updatedAt      time.Time
	authorUsername string
	authorBio      *string
	authorImage    *string
	favoritesCount int64
}

func scanArticleRow(rows *sql.Rows) (*articleRow, error) {
	row := &articleRow{}
	if err := rows.Scan(
		&row.slug,
		&row.title,
		&row.description,
		&row.body,
		&row.tagList,
		&row.createdAt,
		&row.updatedAt,
		&row.authorUsername,
		&row.authorBio,
		&row.authorImage,
		&row.favoritesCount,
	); err != nil {
		return nil, xerrors.New(err)
	}
	return row, nil
}

func (row *articleRow) toArticle() (*domain.Article, error) {
	var tagList []string
	if len(row.tagList) > 0 {
		if err := json.Unmarshal(row.tagList, &tagList); err != nil {
			return nil, xerrors.New(err)
		}
	}

	return &domain.Article{
		Slug: row.slug,
		Content: domain.ArticleContent{
			Title:       row.title,
			Description: row.description,
			Body:        row.body,
			TagList:     tagList,
		},
		Author: domain.Profile{
			Username: row.authorUsername,
			Bio:      row.authorBio,
			Image:    row.authorImage,
		},
		Metadata: domain.ArticleMetadata{
			CreatedAt: row.createdAt,
			UpdatedAt: row.updatedAt,
		},
		FavoritesCount: row.favoritesCount,
	}, nil
}

// articleColumns is the projection shared by every article query, favorites
// count included so it is always the live COUNT(*), never a stored counter.
const articleColumns = `
	a.slug, a.title, a.description, a.body, a.tag_list, a.created_at, a.updated_at,
	u.username, u.bio, u.image,
	(SELECT COUNT(*) FROM favorites f WHERE f.article_slug = a.slug) AS favorites_count
`
