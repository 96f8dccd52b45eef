package main

import (
	"net/http"
	"strings"

	"conduit/internal/domain"
	"conduit/internal/domain/password"
	"conduit/internal/validator"
)

func (app *application) createUser(w http.ResponseWriter, r *http.Request) {
	type registerUserPayload struct {
		Email    string `json:"email"`
		Username string `json:"username"`
		Password string `json:"password"`
	}

	type RegisterUserRequest struct {
		registerUserPayload `json:"user"`
	}

	var registerUserRequest RegisterUserRequest

	if err := app.readJSON(w, r, &registerUserRequest); err != nil {
		app.badRequestResponse(w, r, &AppError{
			ErrorMessage: err.Error(),
			ErrorStack:   err,
		})
		return
	}

	email := strings.TrimSpace(registerUserRequest.Email)
	username := strings.TrimSpace(registerUserRequest.Username)

	v := validator.New()
	checkEmail(v, email)

	// check username
	v.CheckNotBlank(username, "username", "must be provided")
	v.Check(len(username) >= 5, "username", "must be at least 5 characters long")

	// check password
	v.CheckNotBlank(registerUserRequest.Password, "password", "must be provided")
	v.Check(len(registerUserRequest.Password) >= 8, "password", "must be at least 8 characters long")

	if !v.IsValid() {
		app.badRequestResponse(w, r, &AppError{ErrorDetails: v.Errors})
		return
	}

	hashed, err := password.Hash(registerUserRequest.Password)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	user, err := app.repo.SignUp(r.Context(), domain.SignUp{
		Username: username,
		Email:    email,
		Password: hashed,
	})
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	token, err := app.auth.GenerateToken(user.ID)
	if err != nil {
		app.internalErrorResponse(w, r, err)
		return
	}

	if err := app.writeJSON(w, http.StatusCreated, userResponse(user, token), nil); err != nil {
		app.internalErrorResponse(w, r, err)
	}
}

func (app *application) login(w http.ResponseWriter, r *http.Request) {
	type loginUserPayload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	type LoginUserRequest struct {
		loginUserPayload `json:"user"`
	}

	var loginUserRequest LoginUserRequest

	if err := app.readJSON(w, r, &loginUserRequest); err != nil {
		app.badRequestResponse(w, r, &AppError{
			ErrorMessage: err.Error(),
			ErrorStack:   err,
		})
		return
	}

	v := validator.New()
	checkEmail(v, loginUserRequest.Email)
	v.CheckNotBlank(loginUserRequest.Password, "password", "must be provided")

	if !v.IsValid() {
		app.badRequestResponse(w, r, &AppError{ErrorDetails: v.Errors})
		return
	}

	user, err := domain.Login(r.Context(), app.repo, loginUserRequest.Email, loginUserRequest.Password)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	token, err := app.auth.GenerateToken(user.ID)
	if err != nil {
		app.internalErrorResponse(w, r, err)
		return
	}

	if err := app.writeJSON(w, http.StatusOK, userResponse(user, token), nil); err != nil {
		app.internalErrorResponse(w, r, err)
	}
}

func (app *application) getUser(w http.ResponseWriter, r *http.Request) {
	user, err := app.auth.GetAuthenticatedUser(r)
	if err != nil {
		app.authenticationRequiredResponse(w, r, err)
		return
	}

	token, err := app.auth.GenerateToken(user.ID)
	if err != nil {
		app.internalErrorResponse(w, r, err)
		return
	}

	if err := app.writeJSON(w, http.StatusOK, userResponse(user, token), nil); err != nil {
		app.internalErrorResponse(w, r, err)
	}
}

func (app *application) updateUser(w http.ResponseWriter, r *http.Request) {
	type updateUserPayload struct {
		Email    *string `json:"email"`
		Username *string `json:"username"`
		Password *string `json:"password"`
		Bio      *string `json:"bio"`
		Image    *string `json:"image"`
	}

	type UpdateUserRequest struct {
		updateUserPayload `json:"user"`
	}

	var updateUserRequest UpdateUserRequest

	if err := app.readJSON(w, r, &updateUserRequest); err != nil {
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

	update := domain.UserUpdate{
		Email:    updateUserRequest.Email,
		Username: updateUserRequest.Username,
		Bio:      updateUserRequest.Bio,
		Image:    updateUserRequest.Image,
	}

	if updateUserRequest.Password != nil {
		hashed, err := password.Hash(*updateUserRequest.Password)
		if err != nil {
			app.domainErrorResponse(w, r, err)
			return
		}
		update.Password = &hashed
	}

	updatedUser, err := user.Update(r.Context(), update, app.repo)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	token, err := app.auth.GenerateToken(updatedUser.ID)
	if err != nil {
		app.internalErrorResponse(w, r, err)
		return
	}

	if err := app.writeJSON(w, http.StatusOK, userResponse(updatedUser, token), nil); err != nil {
		app.internalErrorResponse(w, r, err)
	}
}

func userResponse(user *domain.User, token string) envelope {
	type output struct {
		Email    string  `json:"email"`
		Token    string  `json:"token"`
		Username string  `json:"username"`
		Bio      *string `json:"bio"`
		Image    *string `json:"image"`
	}

	return envelope{"user": &output{
		Email:    user.Email,
		Token:    token,
		Username: user.Profile.Username,
		Bio:      user.Profile.Bio,
		Image:    user.Profile.Image,
	}}
}
