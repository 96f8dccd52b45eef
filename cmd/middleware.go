package main

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"conduit/internal/domain"

	"github.com/mdobak/go-xerrors"
)

func (app *application) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Vary", "Authorization")

		authorization := r.Header.Get("Authorization")
		if authorization != "" {
			authorizationParts := strings.Split(authorization, " ")
			if len(authorizationParts) != 2 || authorizationParts[0] != "Token" {
				app.invalidAuthenticationTokenResponse(w, r, xerrors.New("Authentication header must be in the format 'Token <token>'"))
				return
			}

			token := authorizationParts[1]
			claim, err := app.auth.Authenticate(token)
			if err != nil {
				app.invalidAuthenticationTokenResponse(w, r, err)
				return
			}

			user, err := app.repo.GetUserByID(r.Context(), claim.UserID)
			if err != nil {
				if errors.Is(err, domain.ErrUserNotFound) {
					app.notFoundResponse(w, r)
					return
				}
				app.internalErrorResponse(w, r, err)
				return
			}

			r = app.auth.SetAuthenticatedUser(r, user)
		}

		next.ServeHTTP(w, r)
	})
}

func (app *application) requireAuthenticatedUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !app.auth.IsUserAuthenticated(r) {
			app.authenticationRequiredResponse(w, r, xerrors.Newf("authentication required"))
			return
		}
		next(w, r)
	}
}

func (app *application) recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				w.Header().Set("Connection", "close")
				app.internalErrorResponse(w, r, fmt.Errorf("%s", err))
			}
		}()
		next.ServeHTTP(w, r)
	})
}
