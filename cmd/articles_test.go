package main

import (
	"testing"

	"conduit/internal/domain"
	"conduit/internal/filter"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaginateArticles(t *testing.T) {
	articles := []domain.Article{
		{Slug: "one"}, {Slug: "two"}, {Slug: "three"}, {Slug: "four"},
	}

	page := paginateArticles(articles, filter.NewFilter(2, 0))
	require.Len(t, page, 2)
	assert.Equal(t, "one", page[0].Slug)

	page = paginateArticles(articles, filter.NewFilter(2, 3))
	require.Len(t, page, 1)
	assert.Equal(t, "four", page[0].Slug)

	page = paginateArticles(articles, filter.NewFilter(2, 10))
	assert.Empty(t, page)
}

func TestArticleEnvelopeNeverHasNilTagList(t *testing.T) {
	view := &domain.ArticleView{Slug: "bare"}

	env := toArticleEnvelope(view)
	assert.NotNil(t, env.TagList)
	assert.Empty(t, env.TagList)
}

func TestArticlesResponseCount(t *testing.T) {
	views := []domain.ArticleView{{Slug: "one"}, {Slug: "two"}}

	response := articlesResponse(views)
	assert.Equal(t, 2, response["articlesCount"])
}
