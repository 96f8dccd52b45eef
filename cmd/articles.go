package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"conduit/internal/domain"
	"conduit/internal/filter"
	"conduit/internal/utils/functional"
	"conduit/internal/validator"

	"github.com/julienschmidt/httprouter"
)

func (app *application) createArticle(w http.ResponseWriter, r *http.Request) {
	type createArticlePayload struct {
		Title       string   `json:"title"`
		Description string   `json:"description"`
		Body        string   `json:"body"`
		TagList     []string `json:"tagList"`
	}

	type CreateArticleRequest struct {
		createArticlePayload `json:"article"`
	}

	var createArticleRequest CreateArticleRequest

	if err := app.readJSON(w, r, &createArticleRequest); err != nil {
		app.badRequestResponse(w, r, &AppError{
			ErrorMessage: err.Error(),
			ErrorStack:   err,
		})
		return
	}

	v := validator.New()
	v.CheckNotBlank(createArticleRequest.Title, "title", "must be provided")
	v.CheckNotBlank(createArticleRequest.Description, "description", "must be provided")
	v.CheckNotBlank(createArticleRequest.Body, "body", "must be provided")
	for _, tag := range createArticleRequest.TagList {
		v.CheckNotBlank(tag, "tagList", "must not contain blank tags")
	}

	if !v.IsValid() {
		app.badRequestResponse(w, r, &AppError{ErrorDetails: v.Errors})
		return
	}

	user, err := app.auth.GetAuthenticatedUser(r)
	if err != nil {
		app.authenticationRequiredResponse(w, r, err)
		return
	}

	draft := domain.ArticleContent{
		Title:       strings.TrimSpace(createArticleRequest.Title),
		Description: createArticleRequest.Description,
		Body:        createArticleRequest.Body,
		TagList:     functional.Map(createArticleRequest.TagList, strings.TrimSpace),
	}

	article, err := user.Publish(r.Context(), draft, app.repo)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	view, err := app.repo.GetArticleView(r.Context(), user, *article)
	if err != nil {
		app.internalErrorResponse(w, r, err)
		return
	}

	if err := app.writeJSON(w, http.StatusCreated, articleViewResponse(view), nil); err != nil {
		app.internalErrorResponse(w, r, err)
	}
}

func (app *application) getArticle(w http.ResponseWriter, r *http.Request) {
	slug := httprouter.ParamsFromContext(r.Context()).ByName("slug")
	if slug == "feed" {
		app.feedArticles(w, r)
		return
	}

	article, err := app.repo.GetArticleBySlug(r.Context(), slug)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	// Anonymous viewers get favorited=false and following=false.
	viewer, _ := app.auth.GetAuthenticatedUser(r)

	view, err := app.repo.GetArticleView(r.Context(), viewer, *article)
	if err != nil {
		app.internalErrorResponse(w, r, err)
		return
	}

	if err := app.writeJSON(w, http.StatusOK, articleViewResponse(view), nil); err != nil {
		app.internalErrorResponse(w, r, err)
	}
}

func (app *application) listArticles(w http.ResponseWriter, r *http.Request) {
	v := validator.New()
	query := r.URL.Query()

	articleQuery := domain.ArticleQuery{
		Tag:         app.readString(query, "tag", ""),
		Author:      app.readString(query, "author", ""),
		FavoritedBy: app.readString(query, "favorited", ""),
	}

	limit := app.readInt(query, "limit", 20, v)
	offset := app.readInt(query, "offset", 0, v)

	filters := filter.NewFilter(limit, offset)
	filter.ValidateFilters(filters, v)
	if !v.IsValid() {
		app.badRequestResponse(w, r, &AppError{ErrorDetails: v.Errors})
		return
	}

	articles, err := app.repo.FindArticles(r.Context(), articleQuery)
	if err != nil {
		app.internalErrorResponse(w, r, err)
		return
	}
	articles = paginateArticles(articles, filters)

	viewer, _ := app.auth.GetAuthenticatedUser(r)

	views, err := app.repo.GetArticlesViews(r.Context(), viewer, articles)
	if err != nil {
		app.internalErrorResponse(w, r, err)
		return
	}

	if err := app.writeJSON(w, http.StatusOK, articlesResponse(views), nil); err != nil {
		app.internalErrorResponse(w, r, err)
	}
}

func (app *application) feedArticles(w http.ResponseWriter, r *http.Request) {
	user, err := app.auth.GetAuthenticatedUser(r)
	if err != nil {
		app.authenticationRequiredResponse(w, r, err)
		return
	}

	v := validator.New()
	query := r.URL.Query()
	limit := app.readInt(query, "limit", 20, v)
	offset := app.readInt(query, "offset", 0, v)

	filters := filter.NewFilter(limit, offset)
	filter.ValidateFilters(filters, v)
	if !v.IsValid() {
		app.badRequestResponse(w, r, &AppError{ErrorDetails: v.Errors})
		return
	}

	views, err := user.Feed(r.Context(), domain.FeedQuery{Limit: filters.Limit, Offset: filters.Offset}, app.repo)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	if err := app.writeJSON(w, http.StatusOK, articlesResponse(views), nil); err != nil {
		app.internalErrorResponse(w, r, err)
	}
}

func (app *application) updateArticle(w http.ResponseWriter, r *http.Request) {
	type updateArticlePayload struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
		Body        *string `json:"body"`
	}

	type UpdateArticleRequest struct {
		updateArticlePayload `json:"article"`
	}

	var updateArticleRequest UpdateArticleRequest

	if err := app.readJSON(w, r, &updateArticleRequest); err != nil {
		app.badRequestResponse(w, r, &AppError{
			ErrorMessage: err.Error(),
			ErrorStack:   err,
		})
		return
	}

	user, err := app.auth.GetAuthenticatedUser(r)
	if err != nil {
		app.authenticationRequiredResponse(w, r, err)
		return
	}

	slug := httprouter.ParamsFromContext(r.Context()).ByName("slug")
	article, err := app.repo.GetArticleBySlug(r.Context(), slug)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	update := domain.ArticleUpdate{
		Title:       updateArticleRequest.Title,
		Description: updateArticleRequest.Description,
		Body:        updateArticleRequest.Body,
	}

	updated, err := user.UpdateArticle(r.Context(), *article, update, app.repo)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	view, err := app.repo.GetArticleView(r.Context(), user, *updated)
	if err != nil {
		app.internalErrorResponse(w, r, err)
		return
	}

	if err := app.writeJSON(w, http.StatusOK, articleViewResponse(view), nil); err != nil {
		app.internalErrorResponse(w, r, err)
	}
}

func (app *application) deleteArticle(w http.ResponseWriter, r *http.Request) {
	user, err := app.auth.GetAuthenticatedUser(r)
	if err != nil {
		app.authenticationRequiredResponse(w, r, err)
		return
	}

	slug := httprouter.ParamsFromContext(r.Context()).ByName("slug")
	article, err := app.repo.GetArticleBySlug(r.Context(), slug)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	if err := user.DeleteArticle(r.Context(), *article, app.repo); err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (app *application) favoriteArticle(w http.ResponseWriter, r *http.Request) {
	app.toggleFavorite(w, r, (*domain.User).Favorite)
}

func (app *application) unfavoriteArticle(w http.ResponseWriter, r *http.Request) {
	app.toggleFavorite(w, r, (*domain.User).Unfavorite)
}

func (app *application) toggleFavorite(w http.ResponseWriter, r *http.Request,
	toggle func(*domain.User, context.Context, domain.Article, domain.Repository) (*domain.ArticleView, error)) {

	user, err := app.auth.GetAuthenticatedUser(r)
	if err != nil {
		app.authenticationRequiredResponse(w, r, err)
		return
	}

	slug := httprouter.ParamsFromContext(r.Context()).ByName("slug")
	article, err := app.repo.GetArticleBySlug(r.Context(), slug)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	view, err := toggle(user, r.Context(), *article, app.repo)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	if err := app.writeJSON(w, http.StatusOK, articleViewResponse(view), nil); err != nil {
		app.internalErrorResponse(w, r, err)
	}
}

func paginateArticles(articles []domain.Article, filters filter.Filter) []domain.Article {
	if filters.Offset >= int64(len(articles)) {
		return []domain.Article{}
	}

	articles = articles[filters.Offset:]
	if filters.Limit < int64(len(articles)) {
		articles = articles[:filters.Limit]
	}

	return articles
}

type articleEnvelope struct {
	Slug           string         `json:"slug"`
	Title          string         `json:"title"`
	Description    string         `json:"description"`
	Body           string         `json:"body"`
	TagList        []string       `json:"tagList"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
	Favorited      bool           `json:"favorited"`
	FavoritesCount int64          `json:"favoritesCount"`
	Author         authorEnvelope `json:"author"`
}

type authorEnvelope struct {
	Username  string  `json:"username"`
	Bio       *string `json:"bio"`
	Image     *string `json:"image"`
	Following bool    `json:"following"`
}

func toArticleEnvelope(view *domain.ArticleView) articleEnvelope {
	tagList := view.Content.TagList
	if tagList == nil {
		tagList = []string{}
	}

	return articleEnvelope{
		Slug:           view.Slug,
		Title:          view.Content.Title,
		Description:    view.Content.Description,
		Body:           view.Content.Body,
		TagList:        tagList,
		CreatedAt:      view.Metadata.CreatedAt,
		UpdatedAt:      view.Metadata.UpdatedAt,
		Favorited:      view.Favorited,
		FavoritesCount: view.FavoritesCount,
		Author: authorEnvelope{
			Username:  view.Author.Profile.Username,
			Bio:       view.Author.Profile.Bio,
			Image:     view.Author.Profile.Image,
			Following: view.Author.Following,
		},
	}
}

func articleViewResponse(view *domain.ArticleView) envelope {
	return envelope{"article": toArticleEnvelope(view)}
}

func articlesResponse(views []domain.ArticleView) envelope {
	articles := make([]articleEnvelope, 0, len(views))
	for i := range views {
		articles = append(articles, toArticleEnvelope(&views[i]))
	}

	return envelope{
		"articles":      articles,
		"articlesCount": len(articles),
	}
}
