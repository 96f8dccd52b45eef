package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"conduit/internal/domain"
	"conduit/internal/domain/password"

	"github.com/mdobak/go-xerrors"
)

type AppError struct {
	ErrorStack   error
	ErrorMessage string
	ErrorDetails map[string]string
}

func (app *application) badRequestResponse(w http.ResponseWriter, r *http.Request, appError *AppError) {
	app.errorResponse(w, r, http.StatusBadRequest, appError)
}

func (app *application) notFoundResponse(w http.ResponseWriter, r *http.Request) {
	app.errorResponse(w, r, http.StatusNotFound, &AppError{
		ErrorMessage: "The requested resource could not be found.",
	})
}

func (app *application) forbiddenResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.errorResponse(w, r, http.StatusForbidden, &AppError{
		ErrorStack:   err,
		ErrorMessage: "You are not allowed to perform this action.",
	})
}

func (app *application) invalidAuthenticationTokenResponse(w http.ResponseWriter, r *http.Request, err error) {
	w.Header().Set("WWW-Authenticate", "Token")
	app.errorResponse(w, r, http.StatusUnauthorized, &AppError{
		ErrorStack:   err,
		ErrorMessage: "Invalid or missing authentication token.",
	})
}

func (app *application) authenticationRequiredResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.errorResponse(w, r, http.StatusUnauthorized, &AppError{
		ErrorStack:   err,
		ErrorMessage: "You must be authenticated to access this resource.",
	})
}

func (app *application) internalErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.errorResponse(w, r, http.StatusInternalServerError, &AppError{
		ErrorStack:   err,
		ErrorMessage: "An internal server error occurred.",
	})
}

// domainErrorResponse maps the domain's typed errors onto HTTP statuses.
// Storage failures stay opaque: the stack is logged, never echoed.
func (app *application) domainErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrProfileNotFound),
		errors.Is(err, domain.ErrArticleNotFound),
		errors.Is(err, domain.ErrCommentNotFound):
		app.notFoundResponse(w, r)

	case errors.Is(err, domain.ErrForbidden):
		app.forbiddenResponse(w, r, err)

	case errors.Is(err, domain.ErrUsernameTaken):
		app.badRequestResponse(w, r, &AppError{
			ErrorDetails: map[string]string{"username": "is already taken"},
			ErrorStack:   err,
		})

	case errors.Is(err, domain.ErrEmailTaken):
		app.badRequestResponse(w, r, &AppError{
			ErrorDetails: map[string]string{"email": "is already registered"},
			ErrorStack:   err,
		})

	case errors.Is(err, domain.ErrDuplicatedSlug):
		app.badRequestResponse(w, r, &AppError{
			ErrorDetails: map[string]string{"slug": "already exists"},
			ErrorStack:   err,
		})

	case errors.Is(err, domain.ErrReservedSlug):
		app.badRequestResponse(w, r, &AppError{
			ErrorDetails: map[string]string{"slug": "is reserved"},
			ErrorStack:   err,
		})

	case errors.Is(err, domain.ErrInvalidCredentials):
		app.badRequestResponse(w, r, &AppError{
			ErrorMessage: "Invalid credentials",
			ErrorStack:   err,
		})

	case errors.Is(err, password.ErrEmptyPassword),
		errors.Is(err, password.ErrMalformedHash):
		app.badRequestResponse(w, r, &AppError{
			ErrorMessage: "Invalid credentials",
			ErrorStack:   err,
		})

	default:
		app.internalErrorResponse(w, r, err)
	}
}

func (app *application) errorResponse(w http.ResponseWriter, r *http.Request, status int, appError *AppError) {
	errorDetails := map[string]any{
		"errorMessage": appError.ErrorMessage,
		"errorDetails": appError.ErrorDetails,
	}

	var attrs []slog.Attr
	attrs = append(attrs, slog.String("request_url", r.URL.String()))
	attrs = append(attrs, slog.String("request_method", r.Method))
	if appError.ErrorStack != nil {
		attrs = append(attrs, slog.String("stack", xerrors.Sprint(appError.ErrorStack)))
	}

	for key, valueData := range appError.ErrorDetails {
		attrs = append(attrs, slog.Any(key, valueData))
	}

	app.logger.LogAttrs(r.Context(), slog.LevelError, "Error in handling request", attrs...)

	if err := app.writeJSON(w, status, errorDetails, nil); err != nil {
		app.logger.Error(err.Error())
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func (app *application) writeJSON(w http.ResponseWriter, status int, data map[string]any, headers http.Header) error {
	js, err := json.MarshalIndent(data, "", "\t")
	if err != nil {
		return err
	}

	// Append a newline to make it easier to view in terminal applications.
	js = append(js, '\n')

	for key, value := range headers {
		w.Header()[key] = value
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(js); err != nil {
		app.logger.Error(err.Error())
		return err
	}

	return nil
}
