package main

import (
	"net/http"

	"conduit/internal/domain"

	"github.com/julienschmidt/httprouter"
)

func (app *application) getProfile(w http.ResponseWriter, r *http.Request) {
	username := httprouter.ParamsFromContext(r.Context()).ByName("username")

	viewer, _ := app.auth.GetAuthenticatedUser(r)

	view, err := app.repo.GetProfileView(r.Context(), viewer, username)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	if err := app.writeJSON(w, http.StatusOK, profileResponse(view), nil); err != nil {
		app.internalErrorResponse(w, r, err)
	}
}

func (app *application) followUser(w http.ResponseWriter, r *http.Request) {
	user, err := app.auth.GetAuthenticatedUser(r)
	if err != nil {
		app.authenticationRequiredResponse(w, r, err)
		return
	}

	username := httprouter.ParamsFromContext(r.Context()).ByName("username")

	view, err := user.Follow(r.Context(), username, app.repo)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	if err := app.writeJSON(w, http.StatusOK, profileResponse(view), nil); err != nil {
		app.internalErrorResponse(w, r, err)
	}
}

func (app *application) unfollowUser(w http.ResponseWriter, r *http.Request) {
	user, err := app.auth.GetAuthenticatedUser(r)
	if err != nil {
		app.authenticationRequiredResponse(w, r, err)
		return
	}

	username := httprouter.ParamsFromContext(r.Context()).ByName("username")

	view, err := user.Unfollow(r.Context(), username, app.repo)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	if err := app.writeJSON(w, http.StatusOK, profileResponse(view), nil); err != nil {
		app.internalErrorResponse(w, r, err)
	}
}

func profileResponse(view *domain.ProfileView) envelope {
	type output struct {
		Username  string  `json:"username"`
		Bio       *string `json:"bio"`
		Image     *string `json:"image"`
		Following bool    `json:"following"`
	}

	return envelope{"profile": &output{
		Username:  view.Profile.Username,
		Bio:       view.Profile.Bio,
		Image:     view.Profile.Image,
		Following: view.Following,
	}}
}
