package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"conduit/internal/domain"
	"conduit/internal/utils/collectionutils"
	"conduit/internal/utils/databaseutils"
	"conduit/internal/utils/functional"
	"conduit/internal/utils/stringutils"

	"github.com/mdobak/go-xerrors"
)

func (r *Repository) PublishArticle(ctx context.Context, draft domain.ArticleContent, author *domain.User) (*domain.Article, error) {
	tagList, err := json.Marshal(draft.TagList)
	if err != nil {
		return nil, xerrors.New(err)
	}

	const insertSQL = `
		INSERT INTO articles (slug, title, description, body, tag_list, author_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		RETURNING slug, created_at, updated_at
	`

	type insertedArticle struct {
		slug      string
		createdAt sql.NullTime
		updatedAt sql.NullTime
	}

	args := []any{draft.Slug(), draft.Title, draft.Description, draft.Body, tagList, author.ID}
	inserted, err := databaseutils.ExecuteSingleQuery(r.sqlTemplate, ctx, insertSQL, func(rows *sql.Rows) (*insertedArticle, error) {
		row := &insertedArticle{}
		if err := rows.Scan(&row.slug, &row.createdAt, &row.updatedAt); err != nil {
			return nil, xerrors.New(err)
		}
		return row, nil
	}, args...)
	if err != nil {
		return nil, mapConstraintError(err)
	}

	article := &domain.Article{
		Slug:    inserted.slug,
		Content: draft,
		Author:  author.Profile,
		Metadata: domain.ArticleMetadata{
			CreatedAt: inserted.createdAt.Time,
			UpdatedAt: inserted.updatedAt.Time,
		},
	}

	r.log.Info("article published", "slug", article.Slug, "author", author.Profile.Username)
	return article, nil
}

func (r *Repository) GetArticleBySlug(ctx context.Context, slug string) (*domain.Article, error) {
	query := `
		SELECT ` + articleColumns + `
		FROM articles a
		JOIN users u ON u.id = a.author_id
		WHERE a.slug = $1
	`

	row, err := databaseutils.ExecuteSingleQuery(r.sqlTemplate, ctx, query, scanArticleRow, slug)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, xerrors.New(domain.ErrArticleNotFound)
		default:
			return nil, xerrors.New(err)
		}
	}

	return row.toArticle()
}

func (r *Repository) GetArticleView(ctx context.Context, viewer *domain.User, article domain.Article) (*domain.ArticleView, error) {
	authorView, err := r.GetProfileView(ctx, viewer, article.Author.Username)
	if err != nil {
		return nil, xerrors.New(err)
	}

	view := &domain.ArticleView{
		Slug:           article.Slug,
		Content:        article.Content,
		Author:         *authorView,
		Metadata:       article.Metadata,
		FavoritesCount: article.FavoritesCount,
	}
	if viewer == nil {
		return view, nil
	}

	favorited, err := r.isFavorite(ctx, viewer, article.Slug)
	if err != nil {
		return nil, xerrors.New(err)
	}

	view.Favorited = favorited
	view.Viewer = viewer.ID
	return view, nil
}

// GetArticlesViews batches the per-viewer relationship lookups: one query
// for the favorited slugs, one for the followed authors, merged back by
// slug and username respectively.
func (r *Repository) GetArticlesViews(ctx context.Context, viewer *domain.User, articles []domain.Article) ([]domain.ArticleView, error) {
	slugs := functional.Map(articles, func(a domain.Article) string { return a.Slug })
	authors := functional.Map(articles, func(a domain.Article) string { return a.Author.Username })

	favorited, err := r.favoritedSlugs(ctx, viewer, slugs)
	if err != nil {
		return nil, xerrors.New(err)
	}

	followed, err := r.followedUsernames(ctx, viewer, authors)
	if err != nil {
		return nil, xerrors.New(err)
	}

	views := make([]domain.ArticleView, 0, len(articles))
	for _, article := range articles {
		view := domain.ArticleView{
			Slug:    article.Slug,
			Content: article.Content,
			Author: domain.ProfileView{
				Profile:   article.Author,
				Following: collectionutils.GetOrDefault(followed, article.Author.Username, false),
			},
			Metadata:       article.Metadata,
			Favorited:      collectionutils.GetOrDefault(favorited, article.Slug, false),
			FavoritesCount: article.FavoritesCount,
		}
		if viewer != nil {
			view.Viewer = viewer.ID
			view.Author.Viewer = viewer.ID
		}
		views = append(views, view)
	}

	return views, nil
}

func (r *Repository) FindArticles(ctx context.Context, query domain.ArticleQuery) ([]domain.Article, error) {
	filters := []string{"TRUE"}
	var args []any

	if query.Author != "" {
		args = append(args, query.Author)
		filters = append(filters, fmt.Sprintf("u.username = $%d", len(args)))
	}
	if query.Tag != "" {
		tag, err := json.Marshal(query.Tag)
		if err != nil {
			return nil, xerrors.New(err)
		}
		args = append(args, tag)
		filters = append(filters, fmt.Sprintf("a.tag_list @> $%d", len(args)))
	}
	if query.FavoritedBy != "" {
		args = append(args, query.FavoritedBy)
		filters = append(filters, fmt.Sprintf(`EXISTS (
			SELECT 1 FROM favorites f
			JOIN users fan ON fan.id = f.user_id
			WHERE f.article_slug = a.slug AND fan.username = $%d
		)`, len(args)))
	}

	selectSQL := fmt.Sprintf(`
		SELECT `+articleColumns+`
		FROM articles a
		JOIN users u ON u.id = a.author_id
		WHERE %s
		ORDER BY a.created_at DESC
	`, strings.Join(filters, " AND "))

	rows, err := databaseutils.ExecuteQuery(r.sqlTemplate, ctx, selectSQL, scanArticleRow, args...)
	if err != nil {
		return nil, xerrors.New(err)
	}

	return toArticles(rows)
}

func (r *Repository) Feed(ctx context.Context, user *domain.User, query domain.FeedQuery) ([]domain.ArticleView, error) {
	const feedSQL = `
		SELECT ` + articleColumns + `
		FROM articles a
		JOIN users u ON u.id = a.author_id
		JOIN follows f ON f.followed_id = a.author_id
		WHERE f.follower_id = $1
		ORDER BY a.created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := databaseutils.ExecuteQuery(r.sqlTemplate, ctx, feedSQL, scanArticleRow, user.ID, query.Limit, query.Offset)
	if err != nil {
		return nil, xerrors.New(err)
	}

	articles, err := toArticles(rows)
	if err != nil {
		return nil, xerrors.New(err)
	}

	return r.GetArticlesViews(ctx, user, articles)
}

func (r *Repository) UpdateArticle(ctx context.Context, article domain.Article, update domain.ArticleUpdate) (*domain.Article, error) {
	const updateSQL = `
		UPDATE articles
		SET title       = COALESCE($1, title),
		    description = COALESCE($2, description),
		    body        = COALESCE($3, body),
		    updated_at  = now()
		WHERE slug = $4
	`

	affected, err := databaseutils.ExecuteUpdate(r.sqlTemplate, ctx, updateSQL, update.Title, update.Description, update.Body, article.Slug)
	if err != nil {
		return nil, xerrors.New(err)
	}
	if affected == 0 {
		return nil, xerrors.New(domain.ErrArticleNotFound)
	}

	// Re-read so the caller observes its own write.
	return r.GetArticleBySlug(ctx, article.Slug)
}

func (r *Repository) DeleteArticle(ctx context.Context, article *domain.Article) error {
	const deleteSQL = `
		DELETE FROM articles WHERE slug = $1
	`

	affected, err := databaseutils.ExecuteUpdate(r.sqlTemplate, ctx, deleteSQL, article.Slug)
	if err != nil {
		return xerrors.New(err)
	}
	if affected == 0 {
		return xerrors.New(domain.ErrArticleNotFound)
	}

	return nil
}

func (r *Repository) Favorite(ctx context.Context, article *domain.Article, user *domain.User) error {
	const insertSQL = `
		INSERT INTO favorites (user_id, article_slug)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`

	if _, err := databaseutils.ExecuteUpdate(r.sqlTemplate, ctx, insertSQL, user.ID, article.Slug); err != nil {
		return mapConstraintError(err)
	}

	return nil
}

func (r *Repository) Unfavorite(ctx context.Context, article *domain.Article, user *domain.User) error {
	const deleteSQL = `
		DELETE FROM favorites
		WHERE user_id = $1 AND article_slug = $2
	`

	if _, err := databaseutils.ExecuteUpdate(r.sqlTemplate, ctx, deleteSQL, user.ID, article.Slug); err != nil {
		return xerrors.New(err)
	}

	return nil
}

func (r *Repository) isFavorite(ctx context.Context, viewer *domain.User, slug string) (bool, error) {
	const selectSQL = `
		SELECT EXISTS (
			SELECT 1 FROM favorites WHERE user_id = $1 AND article_slug = $2
		)
	`

	return databaseutils.ExecuteSingleQuery(r.sqlTemplate, ctx, selectSQL, func(rows *sql.Rows) (bool, error) {
		var favorited bool
		if err := rows.Scan(&favorited); err != nil {
			return false, xerrors.New(err)
		}
		return favorited, nil
	}, viewer.ID, slug)
}

func (r *Repository) favoritedSlugs(ctx context.Context, viewer *domain.User, slugs []string) (map[string]bool, error) {
	if viewer == nil || len(slugs) == 0 {
		return map[string]bool{}, nil
	}

	placeholders, args := stringutils.INClause(slugs)
	query := fmt.Sprintf(`
		SELECT article_slug
		FROM favorites
		WHERE article_slug IN (%s) AND user_id = $%d
	`, strings.Join(placeholders, ", "), len(slugs)+1)
	args = append(args, viewer.ID)

	favorited, err := databaseutils.ExecuteQuery(r.sqlTemplate, ctx, query, func(rows *sql.Rows) (string, error) {
		var slug string
		if err := rows.Scan(&slug); err != nil {
			return "", xerrors.New(err)
		}
		return slug, nil
	}, args...)
	if err != nil {
		return nil, xerrors.New(err)
	}

	result := make(map[string]bool, len(favorited))
	for _, slug := range favorited {
		result[slug] = true
	}

	return result, nil
}

func toArticles(rows []*articleRow) ([]domain.Article, error) {
	articles := make([]domain.Article, 0, len(rows))
	for _, row := range rows {
		article, err := row.toArticle()
		if err != nil {
			return nil, xerrors.New(err)
		}
		articles = append(articles, *article)
	}
	return articles, nil
}
