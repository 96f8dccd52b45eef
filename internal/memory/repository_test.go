package memory_test

import (
	"context"
	"fmt"
	"os"
	"testing"

	"conduit/internal/domain"
	"conduit/internal/domain/password"
	"conduit/internal/memory"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestMain(m *testing.M) {
	password.SetCost(bcrypt.MinCost)
	os.Exit(m.Run())
}

func newUser(t *testing.T, repo *memory.Repository, username string) *domain.User {
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

func newArticle(t *testing.T, repo *memory.Repository, author *domain.User, title string, tags ...string) *domain.Article {
	t.Helper()

	article, err := repo.PublishArticle(context.Background(), domain.ArticleContent{
		Title:       title,
		Description: "a description",
		Body:        "a body",
		TagList:     tags,
	}, author)
	require.NoError(t, err)

	return article
}

func TestGetUserByIDUnknown(t *testing.T) {
	repo := memory.NewRepository()

	_, err := repo.GetUserByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestFindArticlesFilters(t *testing.T) {
	repo := memory.NewRepository()
	ctx := context.Background()
	jacob := newUser(t, repo, "jacob")
	annie := newUser(t, repo, "annie")

	goPost := newArticle(t, repo, jacob, "All About Go", "go")
	dbPost := newArticle(t, repo, jacob, "All About Databases", "databases")
	annPost := newArticle(t, repo, annie, "Annie Writes Too", "go")

	require.NoError(t, repo.Favorite(ctx, dbPost, annie))

	byAuthor, err := repo.FindArticles(ctx, domain.ArticleQuery{Author: "jacob"})
	require.NoError(t, err)
	require.Len(t, byAuthor, 2)

	byTag, err := repo.FindArticles(ctx, domain.ArticleQuery{Tag: "go"})
	require.NoError(t, err)
	require.Len(t, byTag, 2)
	// Newest first.
	assert.Equal(t, annPost.Slug, byTag[0].Slug)
	assert.Equal(t, goPost.Slug, byTag[1].Slug)

	byFan, err := repo.FindArticles(ctx, domain.ArticleQuery{FavoritedBy: "annie"})
	require.NoError(t, err)
	require.Len(t, byFan, 1)
	assert.Equal(t, dbPost.Slug, byFan[0].Slug)

	byUnknownFan, err := repo.FindArticles(ctx, domain.ArticleQuery{FavoritedBy: "nobody"})
	require.NoError(t, err)
	assert.Empty(t, byUnknownFan)

	combined, err := repo.FindArticles(ctx, domain.ArticleQuery{Author: "jacob", Tag: "go"})
	require.NoError(t, err)
	require.Len(t, combined, 1)
	assert.Equal(t, goPost.Slug, combined[0].Slug)
}

func TestGetArticlesViewsBatches(t *testing.T) {
	repo := memory.NewRepository()
	ctx := context.Background()
	jacob := newUser(t, repo, "jacob")
	annie := newUser(t, repo, "annie")

	first := newArticle(t, repo, jacob, "The First One")
	second := newArticle(t, repo, jacob, "The Second One")

	require.NoError(t, repo.Favorite(ctx, first, annie))
	require.NoError(t, repo.Follow(ctx, annie, "jacob"))

	articles, err := repo.FindArticles(ctx, domain.ArticleQuery{})
	require.NoError(t, err)

	views, err := repo.GetArticlesViews(ctx, annie, articles)
	require.NoError(t, err)
	require.Len(t, views, 2)

	bySlug := map[string]domain.ArticleView{}
	for _, view := range views {
		bySlug[view.Slug] = view
	}

	assert.True(t, bySlug[first.Slug].Favorited)
	assert.False(t, bySlug[second.Slug].Favorited)
	assert.True(t, bySlug[first.Slug].Author.Following)
	assert.True(t, bySlug[second.Slug].Author.Following)
}

func TestDeleteArticleCascades(t *testing.T) {
	repo := memory.NewRepository()
	ctx := context.Background()
	jacob := newUser(t, repo, "jacob")
	annie := newUser(t, repo, "annie")

	article := newArticle(t, repo, jacob, "Short Lived")
	comment, err := repo.CommentArticle(ctx, annie, article, "will disappear")
	require.NoError(t, err)
	require.NoError(t, repo.Favorite(ctx, article, annie))

	require.NoError(t, repo.DeleteArticle(ctx, article))

	_, err = repo.GetArticleBySlug(ctx, article.Slug)
	assert.ErrorIs(t, err, domain.ErrArticleNotFound)

	_, err = repo.GetComment(ctx, comment.ID)
	assert.ErrorIs(t, err, domain.ErrCommentNotFound)

	// Republishing under the same slug starts from a clean slate.
	republished := newArticle(t, repo, jacob, "Short Lived")
	assert.Zero(t, republished.FavoritesCount)

	comments, err := repo.GetComments(ctx, republished)
	require.NoError(t, err)
	assert.Empty(t, comments)
}

func TestGetTagsDistinctAndSorted(t *testing.T) {
	repo := memory.NewRepository()
	ctx := context.Background()
	jacob := newUser(t, repo, "jacob")

	newArticle(t, repo, jacob, "First Post", "go", "databases")
	newArticle(t, repo, jacob, "Second Post", "go", "api")

	tags, err := repo.GetTags(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"api", "databases", "go"}, tags)
}

func TestGetTagsEmpty(t *testing.T) {
	repo := memory.NewRepository()

	tags, err := repo.GetTags(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tags)
}

func TestUpdateArticleUnknownSlug(t *testing.T) {
	repo := memory.NewRepository()

	title := "whatever"
	_, err := repo.UpdateArticle(context.Background(), domain.Article{Slug: "missing"}, domain.ArticleUpdate{Title: &title})
	assert.ErrorIs(t, err, domain.ErrArticleNotFound)

	err = repo.DeleteArticle(context.Background(), &domain.Article{Slug: "missing"})
	assert.ErrorIs(t, err, domain.ErrArticleNotFound)
}

func TestUpdateArticleKeepsSlug(t *testing.T) {
	repo := memory.NewRepository()
	ctx := context.Background()
	jacob := newUser(t, repo, "jacob")

	article := newArticle(t, repo, jacob, "Original Title")

	newTitle := "Retitled Completely"
	updated, err := repo.UpdateArticle(ctx, *article, domain.ArticleUpdate{Title: &newTitle})
	require.NoError(t, err)

	// The slug is assigned at publish time and never changes afterwards.
	assert.Equal(t, article.Slug, updated.Slug)
	assert.Equal(t, newTitle, updated.Content.Title)

	reread, err := repo.GetArticleBySlug(ctx, article.Slug)
	require.NoError(t, err)
	assert.Equal(t, newTitle, reread.Content.Title)
}

func TestCommentOnUnknownArticle(t *testing.T) {
	repo := memory.NewRepository()
	jacob := newUser(t, repo, "jacob")

	_, err := repo.CommentArticle(context.Background(), jacob, &domain.Article{Slug: "missing"}, "hello")
	assert.ErrorIs(t, err, domain.ErrArticleNotFound)
}

func TestFavoriteUnknownArticle(t *testing.T) {
	repo := memory.NewRepository()
	jacob := newUser(t, repo, "jacob")

	err := repo.Favorite(context.Background(), &domain.Article{Slug: "missing"}, jacob)
	assert.ErrorIs(t, err, domain.ErrArticleNotFound)
}
