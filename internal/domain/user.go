package domain

import (
	"context"

	"conduit/internal/domain/password"

	"github.com/google/uuid"
	"github.com/mdobak/go-xerrors"
)

// Profile is the public-facing subset of a user's identity.
type Profile struct {
	Username string  `json:"username"`
	Bio      *string `json:"bio"`
	Image    *string `json:"image"`
}

// User is the aggregate every authenticated operation hangs off. The
// password hash is deliberately not part of the type: credentials stay
// behind the Repository.
type User struct {
	ID      uuid.UUID
	Email   string
	Profile Profile
}

// SignUp carries everything needed to register a new user. The password is
// already hashed by the time a SignUp exists.
type SignUp struct {
	Username string
	Email    string
	Password password.Hashed
}

// UserUpdate is a partial update of a user's own record.
//
// Email, Username and Password follow "absent means unchanged". Bio and
// Image are written on every update: a nil value clears the stored column.
// The asymmetry is inherited product behaviour and is kept on purpose.
type UserUpdate struct {
	Email    *string
	Username *string
	Password *password.Hashed
	Bio      *string
	Image    *string
}

// Login resolves a user from an email/clear-text password pair. A missing
// email and a wrong password are indistinguishable to the caller: both come
// back as ErrInvalidCredentials.
func Login(ctx context.Context, repo Repository, email, clearText string) (*User, error) {
	user, err := repo.GetUserByEmailAndPassword(ctx, email, clearText)
	if err != nil {
		return nil, xerrors.New(err)
	}

	return user, nil
}

// Update applies a partial update to the user's own record.
func (u *User) Update(ctx context.Context, update UserUpdate, repo Repository) (*User, error) {
	updated, err := repo.UpdateUser(ctx, *u, update)
	if err != nil {
		return nil, xerrors.New(err)
	}

	return updated, nil
}

// Publish turns a draft into a stored article authored by u. A title whose
// slug is already taken is a hard conflict, never auto-suffixed. The slug
// "feed" is reserved: it would be unreachable behind the feed endpoint.
func (u *User) Publish(ctx context.Context, draft ArticleContent, repo Repository) (*Article, error) {
	if draft.Slug() == reservedSlug {
		return nil, xerrors.New(ErrReservedSlug)
	}

	article, err := repo.PublishArticle(ctx, draft, u)
	if err != nil {
		return nil, xerrors.New(err)
	}

	return article, nil
}

// UpdateArticle applies a partial update to an article. Only the author may
// modify it.
func (u *User) UpdateArticle(ctx context.Context, article Article, update ArticleUpdate, repo Repository) (*Article, error) {
	if !u.owns(article.Author) {
		return nil, xerrors.New(ErrForbidden)
	}

	updated, err := repo.UpdateArticle(ctx, article, update)
	if err != nil {
		return nil, xerrors.New(err)
	}

	return updated, nil
}

// DeleteArticle removes an article. Only the author may delete it.
func (u *User) DeleteArticle(ctx context.Context, article Article, repo Repository) error {
	if !u.owns(article.Author) {
		return xerrors.New(ErrForbidden)
	}

	if err := repo.DeleteArticle(ctx, &article); err != nil {
		return xerrors.New(err)
	}

	return nil
}

// Favorite marks the article as a favorite of u. Favoriting an article that
// is already a favorite is a no-op; either way the returned view reflects
// the relationship set as it stands after the call.
func (u *User) Favorite(ctx context.Context, article Article, repo Repository) (*ArticleView, error) {
	if err := repo.Favorite(ctx, &article, u); err != nil {
		return nil, xerrors.New(err)
	}

	return u.articleView(ctx, article.Slug, repo)
}

// Unfavorite is the inverse toggle. Unfavoriting an article that was never a
// favorite succeeds without changing anything.
func (u *User) Unfavorite(ctx context.Context, article Article, repo Repository) (*ArticleView, error) {
	if err := repo.Unfavorite(ctx, &article, u); err != nil {
		return nil, xerrors.New(err)
	}

	return u.articleView(ctx, article.Slug, repo)
}

func (u *User) articleView(ctx context.Context, slug string, repo Repository) (*ArticleView, error) {
	// Re-read so the view carries the true favorites count, not a stale one.
	article, err := repo.GetArticleBySlug(ctx, slug)
	if err != nil {
		return nil, xerrors.New(err)
	}

	view, err := repo.GetArticleView(ctx, u, *article)
	if err != nil {
		return nil, xerrors.New(err)
	}

	return view, nil
}

// Follow subscribes u to the given profile. Idempotent.
func (u *User) Follow(ctx context.Context, username string, repo Repository) (*ProfileView, error) {
	if _, err := repo.GetProfile(ctx, username); err != nil {
		return nil, xerrors.New(err)
	}

	if err := repo.Follow(ctx, u, username); err != nil {
		return nil, xerrors.New(err)
	}

	view, err := repo.GetProfileView(ctx, u, username)
	if err != nil {
		return nil, xerrors.New(err)
	}

	return view, nil
}

// Unfollow removes the subscription. Unfollowing somebody u never followed
// is a no-op.
func (u *User) Unfollow(ctx context.Context, username string, repo Repository) (*ProfileView, error) {
	if _, err := repo.GetProfile(ctx, username); err != nil {
		return nil, xerrors.New(err)
	}

	if err := repo.Unfollow(ctx, u, username); err != nil {
		return nil, xerrors.New(err)
	}

	view, err := repo.GetProfileView(ctx, u, username)
	if err != nil {
		return nil, xerrors.New(err)
	}

	return view, nil
}

// Comment attaches a comment authored by u to the article.
func (u *User) Comment(ctx context.Context, article Article, content CommentContent, repo Repository) (*Comment, error) {
	comment, err := repo.CommentArticle(ctx, u, &article, content)
	if err != nil {
		return nil, xerrors.New(err)
	}

	return comment, nil
}

// DeleteComment removes a comment. Only the comment's author may delete it.
func (u *User) DeleteComment(ctx context.Context, comment Comment, repo Repository) error {
	if !u.owns(comment.Author) {
		return xerrors.New(ErrForbidden)
	}

	if err := repo.DeleteComment(ctx, comment.ID); err != nil {
		return xerrors.New(err)
	}

	return nil
}

// Feed returns the most recent articles authored by the users u follows,
// paginated by the query. Because every user follows themselves from sign-up,
// their own articles show up as well.
func (u *User) Feed(ctx context.Context, query FeedQuery, repo Repository) ([]ArticleView, error) {
	views, err := repo.Feed(ctx, u, query)
	if err != nil {
		return nil, xerrors.New(err)
	}

	return views, nil
}

func (u *User) owns(author Profile) bool {
	return u.Profile.Username == author.Username
}
