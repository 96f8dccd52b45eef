package domain

import (
	"github.com/mdobak/go-xerrors"
)

// Sentinel errors shared by every Repository implementation. Callers match
// them with errors.Is; anything else coming out of a repository is an opaque
// storage failure.
var (
	ErrUsernameTaken      = xerrors.Message("username is already taken")
	ErrEmailTaken         = xerrors.Message("email is already registered")
	ErrDuplicatedSlug     = xerrors.Message("duplicate slug")
	ErrReservedSlug       = xerrors.Message("reserved slug")
	ErrUserNotFound       = xerrors.Message("user not found")
	ErrProfileNotFound    = xerrors.Message("profile not found")
	ErrArticleNotFound    = xerrors.Message("article not found")
	ErrCommentNotFound    = xerrors.Message("comment not found")
	ErrForbidden          = xerrors.Message("forbidden")
	ErrInvalidCredentials = xerrors.Message("invalid email or password")
)
