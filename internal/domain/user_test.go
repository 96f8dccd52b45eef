package domain_test

import (
	"context"
	"fmt"
	"os"
	"testing"

	"conduit/internal/domain"
	"conduit/internal/domain/password"
	"conduit/internal/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestMain(m *testing.M) {
	// The bcrypt default is far too slow for a test-suite that registers a
	// user per test case.
	password.SetCost(bcrypt.MinCost)
	os.Exit(m.Run())
}

func signUp(t *testing.T, repo domain.Repository, username string) *domain.User {
	t.Helper()

	hashed, err := password.Hash("a secure password")
	require.NoError(t, err)

	user, err := repo.SignUp(context.Background(), domain.SignUp{
		Username: username,
		Email:    fmt.Sprintf("%s@example.com", username),
		Password: hashed,
	})
	require.NoError(t, err)

	return user
}

func publish(t *testing.T, repo domain.Repository, author *domain.User, title string) *domain.Article {
	t.Helper()

	article, err := author.Publish(context.Background(), domain.ArticleContent{
		Title:       title,
		Description: "a description",
		Body:        "a body",
		TagList:     []string{"go", "testing"},
	}, repo)
	require.NoError(t, err)

	return article
}

func TestPublishRoundTrip(t *testing.T) {
	repo := memory.NewRepository()
	ctx := context.Background()
	author := signUp(t, repo, "jacob")

	published := publish(t, repo, author, "Fresh Off The Press")

	stored, err := repo.GetArticleBySlug(ctx, published.Slug)
	require.NoError(t, err)

	assert.Equal(t, "fresh-off-the-press", stored.Slug)
	assert.Equal(t, published.Content, stored.Content)
	assert.Equal(t, author.Profile.Username, stored.Author.Username)
	assert.Zero(t, stored.FavoritesCount)
}

func TestPublishDuplicateSlugIsRejected(t *testing.T) {
	repo := memory.NewRepository()
	author := signUp(t, repo, "jacob")
	other := signUp(t, repo, "annie")

	publish(t, repo, author, "One Of A Kind")

	// Same slug from a different author is still a conflict: slugs are a
	// global namespace. Casing does not help, the slug is derived from the
	// lowercased title.
	_, err := other.Publish(context.Background(), domain.ArticleContent{
		Title: "ONE OF A KIND",
	}, repo)
	assert.ErrorIs(t, err, domain.ErrDuplicatedSlug)
}

func TestPublishRejectsReservedSlug(t *testing.T) {
	repo := memory.NewRepository()
	ctx := context.Background()
	author := signUp(t, repo, "jacob")

	// An article whose slug is "feed" would be unreachable: that path
	// belongs to the feed listing.
	for _, title := range []string{"feed", "Feed", "FEED!"} {
		_, err := author.Publish(ctx, domain.ArticleContent{
			Title:       title,
			Description: "a description",
			Body:        "a body",
		}, repo)
		assert.ErrorIs(t, err, domain.ErrReservedSlug, "title %q", title)
	}

	_, err := repo.GetArticleBySlug(ctx, "feed")
	assert.ErrorIs(t, err, domain.ErrArticleNotFound)
}

func TestFavoriteIsIdempotent(t *testing.T) {
	repo := memory.NewRepository()
	ctx := context.Background()
	author := signUp(t, repo, "jacob")
	fan := signUp(t, repo, "annie")

	article := publish(t, repo, author, "A Popular Piece")

	first, err := fan.Favorite(ctx, *article, repo)
	require.NoError(t, err)
	assert.True(t, first.Favorited)
	assert.Equal(t, int64(1), first.FavoritesCount)

	// A second favorite changes nothing.
	second, err := fan.Favorite(ctx, *article, repo)
	require.NoError(t, err)
	assert.True(t, second.Favorited)
	assert.Equal(t, int64(1), second.FavoritesCount)
}

func TestUnfavoriteIsIdempotent(t *testing.T) {
	repo := memory.NewRepository()
	ctx := context.Background()
	author := signUp(t, repo, "jacob")
	fan := signUp(t, repo, "annie")

	article := publish(t, repo, author, "A Popular Piece")

	_, err := fan.Favorite(ctx, *article, repo)
	require.NoError(t, err)

	view, err := fan.Unfavorite(ctx, *article, repo)
	require.NoError(t, err)
	assert.False(t, view.Favorited)
	assert.Zero(t, view.FavoritesCount)

	// Unfavoriting something that was never a favorite succeeds too.
	view, err = fan.Unfavorite(ctx, *article, repo)
	require.NoError(t, err)
	assert.False(t, view.Favorited)
	assert.Zero(t, view.FavoritesCount)
}

func TestFavoritesCountAggregatesAcrossUsers(t *testing.T) {
	repo := memory.NewRepository()
	ctx := context.Background()
	author := signUp(t, repo, "jacob")
	article := publish(t, repo, author, "A Popular Piece")

	for _, name := range []string{"annie", "bob", "carol"} {
		fan := signUp(t, repo, name)
		_, err := fan.Favorite(ctx, *article, repo)
		require.NoError(t, err)
	}

	stored, err := repo.GetArticleBySlug(ctx, article.Slug)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stored.FavoritesCount)
}

func TestSignUpCreatesSelfFollow(t *testing.T) {
	repo := memory.NewRepository()
	user := signUp(t, repo, "jacob")

	view, err := repo.GetProfileView(context.Background(), user, user.Profile.Username)
	require.NoError(t, err)
	assert.True(t, view.Following)
}

func TestFollowIsIdempotent(t *testing.T) {
	repo := memory.NewRepository()
	ctx := context.Background()
	followed := signUp(t, repo, "jacob")
	follower := signUp(t, repo, "annie")

	view, err := follower.Follow(ctx, followed.Profile.Username, repo)
	require.NoError(t, err)
	assert.True(t, view.Following)

	view, err = follower.Follow(ctx, followed.Profile.Username, repo)
	require.NoError(t, err)
	assert.True(t, view.Following)

	view, err = follower.Unfollow(ctx, followed.Profile.Username, repo)
	require.NoError(t, err)
	assert.False(t, view.Following)

	// Unfollowing again is a no-op, not an error.
	view, err = follower.Unfollow(ctx, followed.Profile.Username, repo)
	require.NoError(t, err)
	assert.False(t, view.Following)
}

func TestFollowUnknownProfile(t *testing.T) {
	repo := memory.NewRepository()
	follower := signUp(t, repo, "annie")

	_, err := follower.Follow(context.Background(), "nobody", repo)
	assert.ErrorIs(t, err, domain.ErrProfileNotFound)

	_, err = follower.Unfollow(context.Background(), "nobody", repo)
	assert.ErrorIs(t, err, domain.ErrProfileNotFound)
}

func TestOnlyAuthorMayUpdateArticle(t *testing.T) {
	repo := memory.NewRepository()
	ctx := context.Background()
	author := signUp(t, repo, "jacob")
	intruder := signUp(t, repo, "annie")

	article := publish(t, repo, author, "Mine Alone")

	newTitle := "Hijacked"
	_, err := intruder.UpdateArticle(ctx, *article, domain.ArticleUpdate{Title: &newTitle}, repo)
	// The article's existence is not a secret, so the failure is Forbidden,
	// not NotFound.
	assert.ErrorIs(t, err, domain.ErrForbidden)

	updated, err := author.UpdateArticle(ctx, *article, domain.ArticleUpdate{Title: &newTitle}, repo)
	require.NoError(t, err)
	assert.Equal(t, newTitle, updated.Content.Title)
	assert.Equal(t, article.Content.Body, updated.Content.Body)
}

func TestOnlyAuthorMayDeleteArticle(t *testing.T) {
	repo := memory.NewRepository()
	ctx := context.Background()
	author := signUp(t, repo, "jacob")
	intruder := signUp(t, repo, "annie")

	article := publish(t, repo, author, "Mine Alone")

	err := intruder.DeleteArticle(ctx, *article, repo)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	require.NoError(t, author.DeleteArticle(ctx, *article, repo))

	_, err = repo.GetArticleBySlug(ctx, article.Slug)
	assert.ErrorIs(t, err, domain.ErrArticleNotFound)
}

func TestOnlyAuthorMayDeleteComment(t *testing.T) {
	repo := memory.NewRepository()
	ctx := context.Background()
	author := signUp(t, repo, "jacob")
	commenter := signUp(t, repo, "annie")

	article := publish(t, repo, author, "Comment Here")

	comment, err := commenter.Comment(ctx, *article, "nice one", repo)
	require.NoError(t, err)

	// Not even the article's author may remove someone else's comment.
	err = author.DeleteComment(ctx, *comment, repo)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	require.NoError(t, commenter.DeleteComment(ctx, *comment, repo))

	comments, err := article.Comments(ctx, repo)
	require.NoError(t, err)
	assert.Empty(t, comments)
}

func TestCommentsAreOrderedOldestFirst(t *testing.T) {
	repo := memory.NewRepository()
	ctx := context.Background()
	author := signUp(t, repo, "jacob")
	commenter := signUp(t, repo, "annie")

	article := publish(t, repo, author, "Comment Here")

	for _, body := range []string{"first", "second", "third"} {
		_, err := commenter.Comment(ctx, *article, domain.CommentContent(body), repo)
		require.NoError(t, err)
	}

	comments, err := article.Comments(ctx, repo)
	require.NoError(t, err)
	require.Len(t, comments, 3)
	assert.Equal(t, "first", comments[0].Body)
	assert.Equal(t, "second", comments[1].Body)
	assert.Equal(t, "third", comments[2].Body)
}

func TestFeedFollowsTheFollowGraph(t *testing.T) {
	repo := memory.NewRepository()
	ctx := context.Background()
	reader := signUp(t, repo, "reader")
	followed := signUp(t, repo, "followed")
	stranger := signUp(t, repo, "stranger")

	_, err := reader.Follow(ctx, followed.Profile.Username, repo)
	require.NoError(t, err)

	publish(t, repo, followed, "From Followed")
	publish(t, repo, stranger, "From Stranger")
	publish(t, repo, reader, "From Myself")

	feed, err := reader.Feed(ctx, domain.FeedQuery{Limit: 20}, repo)
	require.NoError(t, err)

	require.Len(t, feed, 2)
	// Newest first; own articles show up through the self-follow edge.
	assert.Equal(t, "from-myself", feed[0].Slug)
	assert.Equal(t, "from-followed", feed[1].Slug)
}

func TestFeedPagination(t *testing.T) {
	repo := memory.NewRepository()
	ctx := context.Background()
	reader := signUp(t, repo, "reader")

	for i := 0; i < 5; i++ {
		publish(t, repo, reader, fmt.Sprintf("Article Number %d", i))
	}

	page, err := reader.Feed(ctx, domain.FeedQuery{Limit: 2}, repo)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "article-number-4", page[0].Slug)
	assert.Equal(t, "article-number-3", page[1].Slug)

	page, err = reader.Feed(ctx, domain.FeedQuery{Limit: 2, Offset: 2}, repo)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "article-number-2", page[0].Slug)
	assert.Equal(t, "article-number-1", page[1].Slug)

	page, err = reader.Feed(ctx, domain.FeedQuery{Limit: 2, Offset: 10}, repo)
	require.NoError(t, err)
	assert.Empty(t, page)
}

func TestLoginDoesNotRevealWhichCredentialFailed(t *testing.T) {
	repo := memory.NewRepository()
	ctx := context.Background()
	user := signUp(t, repo, "jacob")

	wrongPassword := domainLoginErr(ctx, repo, user.Email, "not the password")
	unknownEmail := domainLoginErr(ctx, repo, "nobody@example.com", "a secure password")

	assert.ErrorIs(t, wrongPassword, domain.ErrInvalidCredentials)
	assert.ErrorIs(t, unknownEmail, domain.ErrInvalidCredentials)

	logged, err := domain.Login(ctx, repo, user.Email, "a secure password")
	require.NoError(t, err)
	assert.Equal(t, user.ID, logged.ID)
}

func domainLoginErr(ctx context.Context, repo domain.Repository, email, clearText string) error {
	_, err := domain.Login(ctx, repo, email, clearText)
	return err
}

func TestUpdateUserPartialFields(t *testing.T) {
	repo := memory.NewRepository()
	ctx := context.Background()
	user := signUp(t, repo, "jacob")

	bio := "I write things"
	image := "https://example.com/jacob.png"
	updated, err := user.Update(ctx, domain.UserUpdate{Bio: &bio, Image: &image}, repo)
	require.NoError(t, err)

	// Email and username stay untouched when absent.
	assert.Equal(t, user.Email, updated.Email)
	assert.Equal(t, user.Profile.Username, updated.Profile.Username)
	require.NotNil(t, updated.Profile.Bio)
	assert.Equal(t, bio, *updated.Profile.Bio)

	// Bio and image are written every time: an absent bio clears it.
	updated, err = updated.Update(ctx, domain.UserUpdate{Image: &image}, repo)
	require.NoError(t, err)
	assert.Nil(t, updated.Profile.Bio)
	require.NotNil(t, updated.Profile.Image)
	assert.Equal(t, image, *updated.Profile.Image)
}

func TestUpdateUserUniquenessConflicts(t *testing.T) {
	repo := memory.NewRepository()
	ctx := context.Background()
	user := signUp(t, repo, "jacob")
	other := signUp(t, repo, "annie")

	takenUsername := other.Profile.Username
	_, err := user.Update(ctx, domain.UserUpdate{Username: &takenUsername}, repo)
	assert.ErrorIs(t, err, domain.ErrUsernameTaken)

	takenEmail := other.Email
	_, err = user.Update(ctx, domain.UserUpdate{Email: &takenEmail}, repo)
	assert.ErrorIs(t, err, domain.ErrEmailTaken)

	// Keeping your own values is not a conflict.
	own := user.Profile.Username
	_, err = user.Update(ctx, domain.UserUpdate{Username: &own}, repo)
	assert.NoError(t, err)
}

func TestConflictedUpdateLeavesUserUntouched(t *testing.T) {
	repo := memory.NewRepository()
	ctx := context.Background()
	user := signUp(t, repo, "jacob")
	other := signUp(t, repo, "annie")

	// A fresh email alongside a taken username must fail as a whole: the
	// email is not allowed to stick.
	freshEmail := "fresh@example.com"
	takenUsername := other.Profile.Username
	_, err := user.Update(ctx, domain.UserUpdate{Email: &freshEmail, Username: &takenUsername}, repo)
	require.ErrorIs(t, err, domain.ErrUsernameTaken)

	reread, err := repo.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, reread.Email)
	assert.Equal(t, user.Profile.Username, reread.Profile.Username)

	// And the mirror image: a fresh username alongside a taken email.
	freshUsername := "jacob-renamed"
	takenEmail := other.Email
	_, err = user.Update(ctx, domain.UserUpdate{Username: &freshUsername, Email: &takenEmail}, repo)
	require.ErrorIs(t, err, domain.ErrEmailTaken)

	reread, err = repo.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, reread.Email)
	assert.Equal(t, user.Profile.Username, reread.Profile.Username)
}

func TestSignUpUniquenessConflicts(t *testing.T) {
	repo := memory.NewRepository()
	signUp(t, repo, "jacob")

	hashed, err := password.Hash("a secure password")
	require.NoError(t, err)

	_, err = repo.SignUp(context.Background(), domain.SignUp{
		Username: "jacob",
		Email:    "different@example.com",
		Password: hashed,
	})
	assert.ErrorIs(t, err, domain.ErrUsernameTaken)

	_, err = repo.SignUp(context.Background(), domain.SignUp{
		Username: "different",
		Email:    "jacob@example.com",
		Password: hashed,
	})
	assert.ErrorIs(t, err, domain.ErrEmailTaken)
}

func TestAnonymousViewsCarryNoRelationshipState(t *testing.T) {
	repo := memory.NewRepository()
	ctx := context.Background()
	author := signUp(t, repo, "jacob")
	fan := signUp(t, repo, "annie")

	article := publish(t, repo, author, "For Everyone")
	_, err := fan.Favorite(ctx, *article, repo)
	require.NoError(t, err)

	stored, err := repo.GetArticleBySlug(ctx, article.Slug)
	require.NoError(t, err)

	view, err := repo.GetArticleView(ctx, nil, *stored)
	require.NoError(t, err)
	assert.False(t, view.Favorited)
	assert.False(t, view.Author.Following)
	assert.Equal(t, int64(1), view.FavoritesCount)
}
