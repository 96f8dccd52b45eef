package main

import (
	"net/http"
	"strconv"
	"time"

	"conduit/internal/domain"
	"conduit/internal/validator"

	"github.com/julienschmidt/httprouter"
)

func (app *application) createComment(w http.ResponseWriter, r *http.Request) {
	type createCommentPayload struct {
		Body string `json:"body"`
	}

	type CreateCommentRequest struct {
		createCommentPayload `json:"comment"`
	}

	var createCommentRequest CreateCommentRequest

	if err := app.readJSON(w, r, &createCommentRequest); err != nil {
		app.badRequestResponse(w, r, &AppError{
			ErrorMessage: err.Error(),
			ErrorStack:   err,
		})
		return
	}

	v := validator.New()
	v.CheckNotBlank(createCommentRequest.Body, "body", "must be provided")
	if !v.IsValid() {
		app.badRequestResponse(w, r, &AppError{ErrorDetails: v.Errors})
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

	comment, err := user.Comment(r.Context(), *article, domain.CommentContent(createCommentRequest.Body), app.repo)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	response, err := app.commentResponse(r, user, comment)
	if err != nil {
		app.internalErrorResponse(w, r, err)
		return
	}

	if err := app.writeJSON(w, http.StatusCreated, response, nil); err != nil {
		app.internalErrorResponse(w, r, err)
	}
}

func (app *application) listComments(w http.ResponseWriter, r *http.Request) {
	slug := httprouter.ParamsFromContext(r.Context()).ByName("slug")
	article, err := app.repo.GetArticleBySlug(r.Context(), slug)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	comments, err := article.Comments(r.Context(), app.repo)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	viewer, _ := app.auth.GetAuthenticatedUser(r)

	commentEnvelopes := make([]commentEnvelope, 0, len(comments))
	for i := range comments {
		authorView, err := app.repo.GetProfileView(r.Context(), viewer, comments[i].Author.Username)
		if err != nil {
			app.internalErrorResponse(w, r, err)
			return
		}
		commentEnvelopes = append(commentEnvelopes, toCommentEnvelope(&comments[i], authorView))
	}

	if err := app.writeJSON(w, http.StatusOK, envelope{"comments": commentEnvelopes}, nil); err != nil {
		app.internalErrorResponse(w, r, err)
	}
}

func (app *application) deleteComment(w http.ResponseWriter, r *http.Request) {
	user, err := app.auth.GetAuthenticatedUser(r)
	if err != nil {
		app.authenticationRequiredResponse(w, r, err)
		return
	}

	params := httprouter.ParamsFromContext(r.Context())
	commentID, err := strconv.ParseInt(params.ByName("id"), 10, 64)
	if err != nil {
		v := validator.New()
		v.AddError("id", "must be an integer value")
		app.badRequestResponse(w, r, &AppError{ErrorDetails: v.Errors})
		return
	}

	comment, err := app.repo.GetComment(r.Context(), commentID)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	if err := user.DeleteComment(r.Context(), *comment, app.repo); err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type commentEnvelope struct {
	ID        int64          `json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	Body      string         `json:"body"`
	Author    authorEnvelope `json:"author"`
}

func toCommentEnvelope(comment *domain.Comment, author *domain.ProfileView) commentEnvelope {
	return commentEnvelope{
		ID:        comment.ID,
		CreatedAt: comment.CreatedAt,
		UpdatedAt: comment.UpdatedAt,
		Body:      comment.Body,
		Author: authorEnvelope{
			Username:  author.Profile.Username,
			Bio:       author.Profile.Bio,
			Image:     author.Profile.Image,
			Following: author.Following,
		},
	}
}

func (app *application) commentResponse(r *http.Request, viewer *domain.User, comment *domain.Comment) (envelope, error) {
	authorView, err := app.repo.GetProfileView(r.Context(), viewer, comment.Author.Username)
	if err != nil {
		return nil, err
	}

	return envelope{"comment": toCommentEnvelope(comment, authorView)}, nil
}
