package domain

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the single seam between the aggregates and storage. Any
// backend may implement it, as long as it honours the contract:
//
//   - every method call is atomic with respect to other calls touching the
//     same entity, no partial writes are observable;
//   - username, email and slug uniqueness are enforced here (typed conflict
//     errors, see errors.go), not by the aggregates pre-checking and then
//     inserting, which is inherently racy;
//   - Favorite/Follow are insert-if-absent and Unfavorite/Unfollow are
//     delete-if-present, safe under concurrent duplicate calls: at most one
//     row per pair ever exists;
//   - a write followed by a read within the same call chain observes the
//     write;
//   - SignUp stores the user and their self-follow edge as one logical unit,
//     a user can never be observed without it.
//
// Viewer parameters may be nil, meaning an anonymous request: favorited and
// following are then reported as false.
type Repository interface {
	SignUp(ctx context.Context, signUp SignUp) (*User, error)
	UpdateUser(ctx context.Context, user User, update UserUpdate) (*User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetUserByEmailAndPassword(ctx context.Context, email, clearText string) (*User, error)

	GetProfile(ctx context.Context, username string) (*Profile, error)
	GetProfileView(ctx context.Context, viewer *User, username string) (*ProfileView, error)
	Follow(ctx context.Context, follower *User, username string) error
	Unfollow(ctx context.Context, follower *User, username string) error

	PublishArticle(ctx context.Context, draft ArticleContent, author *User) (*Article, error)
	GetArticleBySlug(ctx context.Context, slug string) (*Article, error)
	GetArticleView(ctx context.Context, viewer *User, article Article) (*ArticleView, error)
	GetArticlesViews(ctx context.Context, viewer *User, articles []Article) ([]ArticleView, error)
	FindArticles(ctx context.Context, query ArticleQuery) ([]Article, error)
	Feed(ctx context.Context, user *User, query FeedQuery) ([]ArticleView, error)
	UpdateArticle(ctx context.Context, article Article, update ArticleUpdate) (*Article, error)
	DeleteArticle(ctx context.Context, article *Article) error
	Favorite(ctx context.Context, article *Article, user *User) error
	Unfavorite(ctx context.Context, article *Article, user *User) error

	CommentArticle(ctx context.Context, user *User, article *Article, content CommentContent) (*Comment, error)
	GetComment(ctx context.Context, commentID int64) (*Comment, error)
	GetComments(ctx context.Context, article *Article) ([]Comment, error)
	DeleteComment(ctx context.Context, commentID int64) error

	// GetTags returns the distinct set of tags across all articles.
	GetTags(ctx context.Context) ([]string, error)
}
