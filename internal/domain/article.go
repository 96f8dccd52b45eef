package domain

import (
	"context"
	"strings"
	"time"
	"unicode"

	"github.com/mdobak/go-xerrors"
)

// ArticleContent is the author-supplied part of an article.
type ArticleContent struct {
	Title       string
	Description string
	Body        string
	TagList     []string
}

// Slug derives the article's identifier from its title. Two drafts with the
// same title always collide; resolving that is the caller's problem.
func (c ArticleContent) Slug() string {
	return Slugify(c.Title)
}

// Slugify lowercases the title, collapses every run of non-alphanumeric
// characters into a single hyphen and trims leading/trailing hyphens. Pure
// function of the title, no randomness.
func Slugify(title string) string {
	words := strings.FieldsFunc(strings.ToLower(title), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	return strings.Join(words, "-")
}

// reservedSlug collides with the article feed listing's URL path.
const reservedSlug = "feed"

type ArticleMetadata struct {
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Article is a published article. FavoritesCount is a projection of the
// favorite relationship set, recomputed on every read, never stored as an
// authoritative counter.
type Article struct {
	Slug           string
	Content        ArticleContent
	Author         Profile
	Metadata       ArticleMetadata
	FavoritesCount int64
}

// ArticleUpdate is a partial update: nil fields are left unchanged.
type ArticleUpdate struct {
	Title       *string
	Description *string
	Body        *string
}

// ArticleQuery filters the global article listing. Zero values mean "no
// filter".
type ArticleQuery struct {
	Tag         string
	Author      string
	FavoritedBy string
}

// Comments returns the article's comments ordered by creation time, oldest
// first.
func (a *Article) Comments(ctx context.Context, repo Repository) ([]Comment, error) {
	comments, err := repo.GetComments(ctx, a)
	if err != nil {
		return nil, xerrors.New(err)
	}

	return comments, nil
}
