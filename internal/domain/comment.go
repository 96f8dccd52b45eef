package domain

import "time"

// CommentContent is the body of a comment before it is stored.
type CommentContent string

// Comment is a stored comment together with its author's profile.
type Comment struct {
	ID        int64
	Author    Profile
	Body      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
