package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"conduit/internal/domain"
	"conduit/internal/utils/databaseutils"

	"github.com/mdobak/go-xerrors"
)

func (r *Repository) CommentArticle(ctx context.Context, user *domain.User, article *domain.Article, content domain.CommentContent) (*domain.Comment, error) {
	const insertSQL = `
		INSERT INTO comments (body, article_slug, author_id, created_at, updated_at)
		VALUES ($1, $2, $3, now(), now())
		RETURNING id, body, created_at, updated_at
	`

	comment, err := databaseutils.ExecuteSingleQuery(r.sqlTemplate, ctx, insertSQL, func(rows *sql.Rows) (*domain.Comment, error) {
		comment := &domain.Comment{Author: user.Profile}
		if err := rows.Scan(&comment.ID, &comment.Body, &comment.CreatedAt, &comment.UpdatedAt); err != nil {
			return nil, xerrors.New(err)
		}
		return comment, nil
	}, string(content), article.Slug, user.ID)
	if err != nil {
		return nil, mapConstraintError(err)
	}

	return comment, nil
}

func (r *Repository) GetComment(ctx context.Context, commentID int64) (*domain.Comment, error) {
	const selectSQL = `
		SELECT c.id, c.body, c.created_at, c.updated_at, u.username, u.bio, u.image
		FROM comments c
		JOIN users u ON u.id = c.author_id
		WHERE c.id = $1
	`

	comment, err := databaseutils.ExecuteSingleQuery(r.sqlTemplate, ctx, selectSQL, scanCommentRow, commentID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, xerrors.New(domain.ErrCommentNotFound)
		default:
			return nil, xerrors.New(err)
		}
	}

	return comment, nil
}

func (r *Repository) GetComments(ctx context.Context, article *domain.Article) ([]domain.Comment, error) {
	const selectSQL = `
		SELECT c.id, c.body, c.created_at, c.updated_at, u.username, u.bio, u.image
		FROM comments c
		JOIN users u ON u.id = c.author_id
		WHERE c.article_slug = $1
		ORDER BY c.created_at ASC, c.id ASC
	`

	comments, err := databaseutils.ExecuteQuery(r.sqlTemplate, ctx, selectSQL, scanCommentRow, article.Slug)
	if err != nil {
		return nil, xerrors.New(err)
	}

	result := make([]domain.Comment, 0, len(comments))
	for _, comment := range comments {
		result = append(result, *comment)
	}

	return result, nil
}

func (r *Repository) DeleteComment(ctx context.Context, commentID int64) error {
	const deleteSQL = `
		DELETE FROM comments WHERE id = $1
	`

	affected, err := databaseutils.ExecuteUpdate(r.sqlTemplate, ctx, deleteSQL, commentID)
	if err != nil {
		return xerrors.New(err)
	}
	if affected == 0 {
		return xerrors.New(domain.ErrCommentNotFound)
	}

	return nil
}

func scanCommentRow(rows *sql.Rows) (*domain.Comment, error) {
	comment := &domain.Comment{}
	var createdAt, updatedAt time.Time
	if err := rows.Scan(
		&comment.ID,
		&comment.Body,
		&createdAt,
		&updatedAt,
		&comment.Author.Username,
		&comment.Author.Bio,
		&comment.Author.Image,
	); err != nil {
		return nil, xerrors.New(err)
	}

	comment.CreatedAt = createdAt
	comment.UpdatedAt = updatedAt
	return comment, nil
}
