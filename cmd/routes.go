package main

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
)

func (app *application) routes() http.Handler {
	router := httprouter.New()

	router.NotFound = http.HandlerFunc(app.notFoundResponse)

	// Not require authentication for these routes
	router.HandlerFunc(http.MethodPost, "/api/users", app.createUser)
	router.HandlerFunc(http.MethodPost, "/api/users/login", app.login)
	router.HandlerFunc(http.MethodGet, "/api/profiles/:username", app.getProfile)
	router.HandlerFunc(http.MethodGet, "/api/articles", app.listArticles)
	// getArticle also dispatches /api/articles/feed: httprouter cannot mix a
	// static /feed segment with the :slug wildcard. Publishing rejects the
	// slug "feed", so no article can shadow this path.
	router.HandlerFunc(http.MethodGet, "/api/articles/:slug", app.getArticle)
	router.HandlerFunc(http.MethodGet, "/api/articles/:slug/comments", app.listComments)
	router.HandlerFunc(http.MethodGet, "/api/tags", app.getTags)

	// Require authentication for these routes
	router.HandlerFunc(http.MethodGet, "/api/user", app.requireAuthenticatedUser(app.getUser))
	router.HandlerFunc(http.MethodPut, "/api/user", app.requireAuthenticatedUser(app.updateUser))
	router.HandlerFunc(http.MethodPost, "/api/profiles/:username/follow", app.requireAuthenticatedUser(app.followUser))
	router.HandlerFunc(http.MethodDelete, "/api/profiles/:username/follow", app.requireAuthenticatedUser(app.unfollowUser))
	router.HandlerFunc(http.MethodPost, "/api/articles", app.requireAuthenticatedUser(app.createArticle))
	router.HandlerFunc(http.MethodPut, "/api/articles/:slug", app.requireAuthenticatedUser(app.updateArticle))
	router.HandlerFunc(http.MethodDelete, "/api/articles/:slug", app.requireAuthenticatedUser(app.deleteArticle))
	router.HandlerFunc(http.MethodPost, "/api/articles/:slug/favorite", app.requireAuthenticatedUser(app.favoriteArticle))
	router.HandlerFunc(http.MethodDelete, "/api/articles/:slug/favorite", app.requireAuthenticatedUser(app.unfavoriteArticle))
	router.HandlerFunc(http.MethodPost, "/api/articles/:slug/comments", app.requireAuthenticatedUser(app.createComment))
	router.HandlerFunc(http.MethodDelete, "/api/articles/:slug/comments/:id", app.requireAuthenticatedUser(app.deleteComment))

	return app.recoverPanic(app.authenticate(router))
}
